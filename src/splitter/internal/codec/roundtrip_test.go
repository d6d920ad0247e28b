package codec_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/veedubyou/stemsplit/src/splitter/internal/codec"
	. "github.com/veedubyou/stemsplit/src/splitter/internal/testing"
)

var _ = Describe("Container round trips", func() {
	var workDir string

	BeforeEach(func() {
		var err error
		workDir, err = os.MkdirTemp("", "codec_roundtrip_test")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(os.RemoveAll(workDir)).To(Succeed())
	})

	muxPackets := func(outputPath string, params codec.Parameters, packets []*codec.Packet) {
		output, err := codec.CreateOutput(outputPath)
		ExpectWithOffset(1, err).NotTo(HaveOccurred())
		defer output.Close()

		_, err = output.NewStream(params, codec.NewRational(1, params.SampleRate))
		ExpectWithOffset(1, err).NotTo(HaveOccurred())
		ExpectWithOffset(1, output.WriteHeader()).To(Succeed())

		for _, packet := range packets {
			ExpectWithOffset(1, output.WritePacket(packet)).To(Succeed())
		}

		ExpectWithOffset(1, output.WriteTrailer()).To(Succeed())
		ExpectWithOffset(1, output.Close()).To(Succeed())
	}

	demuxAll := func(inputPath string) (codec.Stream, []*codec.Packet) {
		input, err := codec.OpenInput(inputPath)
		ExpectWithOffset(1, err).NotTo(HaveOccurred())
		defer input.Close()

		stream, err := input.BestAudioStream()
		ExpectWithOffset(1, err).NotTo(HaveOccurred())

		var packets []*codec.Packet
		for {
			packet, ok, err := input.ReadPacket()
			ExpectWithOffset(1, err).NotTo(HaveOccurred())
			if !ok {
				break
			}
			packets = append(packets, packet)
		}

		return stream, packets
	}

	concatData := func(packets []*codec.Packet) []byte {
		var data []byte
		for _, packet := range packets {
			data = append(data, packet.Data...)
		}
		return data
	}

	Describe("wav", func() {
		It("restores the exact samples that were muxed", func() {
			outputPath := filepath.Join(workDir, "out.wav")
			params := codec.Parameters{
				Codec:         codec.CodecPCMS16LE,
				SampleRate:    44100,
				SampleFormat:  codec.SampleFormatS16LE,
				ChannelLayout: codec.ChannelLayoutStereo,
			}

			ints := Int16Ramp(5000, 2)
			muxPackets(outputPath, params, []*codec.Packet{
				{PTS: 0, Duration: 5000, Data: s16leBytes(ints)},
			})

			stream, packets := demuxAll(outputPath)
			Expect(stream.Params.Codec).To(Equal(codec.CodecPCMS16LE))
			Expect(stream.Params.SampleRate).To(Equal(44100))
			Expect(stream.Params.SampleFormat).To(Equal(codec.SampleFormatS16LE))
			Expect(stream.Params.ChannelLayout).To(Equal(codec.ChannelLayoutStereo))
			Expect(stream.TimeBase).To(Equal(codec.NewRational(1, 44100)))

			Expect(concatData(packets)).To(Equal(s16leBytes(ints)))
		})

		It("times packets in samples since the start", func() {
			outputPath := filepath.Join(workDir, "out.wav")
			params := codec.Parameters{
				Codec:         codec.CodecPCMS16LE,
				SampleRate:    44100,
				SampleFormat:  codec.SampleFormatS16LE,
				ChannelLayout: codec.ChannelLayoutStereo,
			}

			muxPackets(outputPath, params, []*codec.Packet{
				{PTS: 0, Duration: 5000, Data: s16leBytes(Int16Ramp(5000, 2))},
			})

			_, packets := demuxAll(outputPath)
			Expect(len(packets)).To(Equal(2))
			Expect(packets[0].PTS).To(BeEquivalentTo(0))
			Expect(packets[0].Duration).To(BeEquivalentTo(4096))
			Expect(packets[1].PTS).To(BeEquivalentTo(4096))
			Expect(packets[1].Duration).To(BeEquivalentTo(904))
		})

		It("round trips a stream with no samples", func() {
			outputPath := filepath.Join(workDir, "empty.wav")
			params := codec.Parameters{
				Codec:         codec.CodecPCMS16LE,
				SampleRate:    44100,
				SampleFormat:  codec.SampleFormatS16LE,
				ChannelLayout: codec.ChannelLayoutStereo,
			}

			muxPackets(outputPath, params, nil)

			stream, packets := demuxAll(outputPath)
			Expect(stream.Params.Codec).To(Equal(codec.CodecPCMS16LE))
			Expect(packets).To(BeEmpty())
		})

		It("round trips mono 24 bit samples", func() {
			outputPath := filepath.Join(workDir, "deep.wav")
			params := codec.Parameters{
				Codec:         codec.CodecPCMS24LE,
				SampleRate:    48000,
				SampleFormat:  codec.SampleFormatS24LE,
				ChannelLayout: codec.ChannelLayoutMono,
			}

			samples := []int{0, 1 << 16, -(1 << 16), 8388607, -8388608}
			data := make([]byte, 0, len(samples)*3)
			for _, sample := range samples {
				data = append(data, byte(sample), byte(sample>>8), byte(sample>>16))
			}

			muxPackets(outputPath, params, []*codec.Packet{
				{PTS: 0, Duration: int64(len(samples)), Data: data},
			})

			stream, packets := demuxAll(outputPath)
			Expect(stream.Params.Codec).To(Equal(codec.CodecPCMS24LE))
			Expect(stream.Params.SampleFormat).To(Equal(codec.SampleFormatS24LE))
			Expect(stream.Params.ChannelLayout).To(Equal(codec.ChannelLayoutMono))
			Expect(concatData(packets)).To(Equal(data))
		})
	})

	Describe("aiff", func() {
		It("restores the exact samples that were muxed", func() {
			outputPath := filepath.Join(workDir, "out.aiff")
			params := codec.Parameters{
				Codec:         codec.CodecPCMS16BE,
				SampleRate:    22050,
				SampleFormat:  codec.SampleFormatS16BE,
				ChannelLayout: codec.ChannelLayoutStereo,
			}

			ints := Int16Ramp(3000, 2)
			muxPackets(outputPath, params, []*codec.Packet{
				{PTS: 0, Duration: 3000, Data: s16beBytes(ints)},
			})

			stream, packets := demuxAll(outputPath)
			Expect(stream.Params.Codec).To(Equal(codec.CodecPCMS16BE))
			Expect(stream.Params.SampleRate).To(Equal(22050))
			Expect(stream.Params.SampleFormat).To(Equal(codec.SampleFormatS16BE))
			Expect(concatData(packets)).To(Equal(s16beBytes(ints)))
		})

		It("round trips a stream with no samples", func() {
			outputPath := filepath.Join(workDir, "empty.aif")
			params := codec.Parameters{
				Codec:         codec.CodecPCMS16BE,
				SampleRate:    44100,
				SampleFormat:  codec.SampleFormatS16BE,
				ChannelLayout: codec.ChannelLayoutStereo,
			}

			muxPackets(outputPath, params, nil)

			stream, packets := demuxAll(outputPath)
			Expect(stream.Params.Codec).To(Equal(codec.CodecPCMS16BE))
			Expect(packets).To(BeEmpty())
		})
	})

	Describe("flac", func() {
		It("restores the exact samples through encode, mux and demux", func() {
			outputPath := filepath.Join(workDir, "out.flac")
			params := codec.Parameters{
				Codec:         codec.CodecFLAC,
				SampleRate:    44100,
				SampleFormat:  codec.SampleFormatS16LE,
				ChannelLayout: codec.ChannelLayoutStereo,
				BitsPerSample: 16,
			}

			output := ExpectSuccess(codec.CreateOutput(outputPath))
			defer output.Close()

			encoder := ExpectSuccess(codec.NewEncoder(codec.EncoderConfig{
				Params:       params,
				TimeBase:     codec.NewRational(1, 44100),
				GlobalHeader: output.NeedsGlobalHeader(),
			}))

			ExpectSuccess(output.NewStream(encoder.Parameters(), codec.NewRational(1, 44100)))
			Expect(output.WriteHeader()).To(Succeed())

			ints := Int16Ramp(5000, 2)
			frames := []*codec.Frame{
				pcmFrame(params.Info(), s16leBytes(ints[:4096*2])),
				pcmFrame(params.Info(), s16leBytes(ints[4096*2:])),
			}
			frames[1].PTS = 4096

			writePending := func() {
				for {
					packet, ok, err := encoder.Receive()
					ExpectWithOffset(1, err).NotTo(HaveOccurred())
					if !ok {
						break
					}
					ExpectWithOffset(1, output.WritePacket(packet)).To(Succeed())
				}
			}

			for _, frame := range frames {
				Expect(encoder.Send(frame)).To(Succeed())
				writePending()
			}
			Expect(encoder.Send(nil)).To(Succeed())
			writePending()

			Expect(output.WriteTrailer()).To(Succeed())
			Expect(output.Close()).To(Succeed())

			stream, packets := demuxAll(outputPath)
			Expect(stream.Params.Codec).To(Equal(codec.CodecFLAC))
			Expect(stream.Params.SampleRate).To(Equal(44100))
			Expect(stream.Params.SampleFormat).To(Equal(codec.SampleFormatS16LE))
			Expect(stream.Params.BitsPerSample).To(Equal(16))

			Expect(concatData(packets)).To(Equal(s16leBytes(ints)))
		})
	})
})

package encode_test

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/veedubyou/stemsplit/src/splitter/internal/codec"
	"github.com/veedubyou/stemsplit/src/splitter/internal/decode"
	"github.com/veedubyou/stemsplit/src/splitter/internal/encode"
	. "github.com/veedubyou/stemsplit/src/splitter/internal/testing"
)

func s16leBytes(samples []int) []byte {
	data := make([]byte, len(samples)*2)
	for i, sample := range samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(int16(sample)))
	}

	return data
}

var _ = Describe("TrackEncoder", func() {
	var workDir string
	var encoder encode.TrackEncoder
	var pcmInfo codec.AudioInfo

	sourceParams := func(id codec.CodecID, sampleRate int, format codec.SampleFormat) codec.StreamParameters {
		return codec.StreamParameters{
			TimeBase: codec.NewRational(1, sampleRate),
			Params: codec.Parameters{
				Codec:         id,
				SampleRate:    sampleRate,
				SampleFormat:  format,
				ChannelLayout: codec.ChannelLayoutStereo,
			},
		}
	}

	BeforeEach(func() {
		var err error
		workDir, err = os.MkdirTemp("", "encode_test")
		Expect(err).NotTo(HaveOccurred())

		pcmInfo = codec.NewPCMInfo(44100)
		encoder = encode.NewTrackEncoder(pcmInfo)
	})

	AfterEach(func() {
		Expect(os.RemoveAll(workDir)).To(Succeed())
	})

	Describe("restoring the source codec", func() {
		It("round trips a wav track bit for bit", func() {
			outputPath := filepath.Join(workDir, "vocals.wav")
			source := sourceParams(codec.CodecPCMS16LE, 44100, codec.SampleFormatS16LE)

			// 5000 frames spans more than one encoder batch
			pcm := codec.FloatsToBytes(FloatRamp(5000, 2))
			Expect(encoder.EncodePCM(context.Background(), pcm, source, outputPath)).To(Succeed())

			input := ExpectSuccess(codec.OpenInput(outputPath))
			defer input.Close()

			stream := ExpectSuccess(input.BestAudioStream())
			Expect(stream.Params.Codec).To(Equal(codec.CodecPCMS16LE))
			Expect(stream.Params.SampleRate).To(Equal(44100))

			var data []byte
			for {
				packet, ok, err := input.ReadPacket()
				Expect(err).NotTo(HaveOccurred())
				if !ok {
					break
				}
				data = append(data, packet.Data...)
			}

			Expect(data).To(Equal(s16leBytes(Int16Ramp(5000, 2))))
		})

		It("round trips an aiff track through decoding again", func() {
			outputPath := filepath.Join(workDir, "vocals.aiff")
			source := sourceParams(codec.CodecPCMS16BE, 44100, codec.SampleFormatS16BE)

			samples := FloatRamp(3000, 2)
			Expect(encoder.EncodePCM(context.Background(), codec.FloatsToBytes(samples), source, outputPath)).To(Succeed())

			fileDecoder := decode.NewFileDecoder(pcmInfo)
			restored, pcm, err := fileDecoder.DecodePCM(context.Background(), outputPath)
			Expect(err).NotTo(HaveOccurred())

			Expect(restored.Params.Codec).To(Equal(codec.CodecPCMS16BE))
			Expect(ExpectSuccess(codec.BytesToFloats(pcm))).To(Equal(samples))
		})

		It("round trips a flac track through decoding again", func() {
			outputPath := filepath.Join(workDir, "vocals.flac")
			source := sourceParams(codec.CodecFLAC, 44100, codec.SampleFormatS16LE)
			source.Params.BitsPerSample = 16

			samples := FloatRamp(5000, 2)
			Expect(encoder.EncodePCM(context.Background(), codec.FloatsToBytes(samples), source, outputPath)).To(Succeed())

			fileDecoder := decode.NewFileDecoder(pcmInfo)
			restored, pcm, err := fileDecoder.DecodePCM(context.Background(), outputPath)
			Expect(err).NotTo(HaveOccurred())

			Expect(restored.Params.Codec).To(Equal(codec.CodecFLAC))
			Expect(restored.Params.BitsPerSample).To(Equal(16))
			Expect(ExpectSuccess(codec.BytesToFloats(pcm))).To(Equal(samples))
		})

		It("resamples the canonical rate back down to the source rate", func() {
			outputPath := filepath.Join(workDir, "vocals.wav")
			source := sourceParams(codec.CodecPCMS16LE, 22050, codec.SampleFormatS16LE)

			pcm := codec.FloatsToBytes(FloatRamp(1000, 2))
			Expect(encoder.EncodePCM(context.Background(), pcm, source, outputPath)).To(Succeed())

			input := ExpectSuccess(codec.OpenInput(outputPath))
			defer input.Close()

			stream := ExpectSuccess(input.BestAudioStream())
			Expect(stream.Params.SampleRate).To(Equal(22050))

			var data []byte
			for {
				packet, ok, err := input.ReadPacket()
				Expect(err).NotTo(HaveOccurred())
				if !ok {
					break
				}
				data = append(data, packet.Data...)
			}

			// a 2x downsample lands on every other source frame exactly
			ints := Int16Ramp(1000, 2)
			expected := make([]int, 0, len(ints)/2)
			for frame := 0; frame < 500; frame++ {
				expected = append(expected, ints[frame*4], ints[frame*4+1])
			}
			Expect(data).To(Equal(s16leBytes(expected)))
		})

		It("writes a valid container for an empty track", func() {
			outputPath := filepath.Join(workDir, "empty.wav")
			source := sourceParams(codec.CodecPCMS16LE, 44100, codec.SampleFormatS16LE)

			Expect(encoder.EncodePCM(context.Background(), nil, source, outputPath)).To(Succeed())

			input := ExpectSuccess(codec.OpenInput(outputPath))
			defer input.Close()

			stream := ExpectSuccess(input.BestAudioStream())
			Expect(stream.Params.Codec).To(Equal(codec.CodecPCMS16LE))

			_, ok, err := input.ReadPacket()
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
		})
	})

	Describe("failures", func() {
		It("refuses a source codec with no encoder before creating the file", func() {
			outputPath := filepath.Join(workDir, "vocals.mp3")
			source := sourceParams(codec.CodecMP3, 44100, codec.SampleFormatS16LE)

			err := encoder.EncodePCM(context.Background(), codec.FloatsToBytes(FloatRamp(100, 2)), source, outputPath)
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, codec.ErrEncoderNotFound)).To(BeTrue())

			_, statErr := os.Stat(outputPath)
			Expect(os.IsNotExist(statErr)).To(BeTrue())
		})

		It("removes the partial file when the encoder cannot open", func() {
			outputPath := filepath.Join(workDir, "vocals.flac")
			// 32 bit flac has no encoder support, which only surfaces
			// after the output file exists
			source := sourceParams(codec.CodecFLAC, 44100, codec.SampleFormatS32LE)

			err := encoder.EncodePCM(context.Background(), codec.FloatsToBytes(FloatRamp(100, 2)), source, outputPath)
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, codec.ErrEncode)).To(BeTrue())

			_, statErr := os.Stat(outputPath)
			Expect(os.IsNotExist(statErr)).To(BeTrue())
		})

		It("rejects pcm that does not divide into whole frames", func() {
			outputPath := filepath.Join(workDir, "vocals.wav")
			source := sourceParams(codec.CodecPCMS16LE, 44100, codec.SampleFormatS16LE)

			err := encoder.EncodePCM(context.Background(), make([]byte, 7), source, outputPath)
			Expect(err).To(HaveOccurred())

			_, statErr := os.Stat(outputPath)
			Expect(os.IsNotExist(statErr)).To(BeTrue())
		})

		It("stops before writing anything when the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			outputPath := filepath.Join(workDir, "vocals.wav")
			source := sourceParams(codec.CodecPCMS16LE, 44100, codec.SampleFormatS16LE)

			err := encoder.EncodePCM(ctx, nil, source, outputPath)
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())

			_, statErr := os.Stat(outputPath)
			Expect(os.IsNotExist(statErr)).To(BeTrue())
		})
	})
})

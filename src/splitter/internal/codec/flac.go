package codec

import (
	"bytes"
	"io"
	"os"

	"github.com/mewkiz/flac"
	flacframe "github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"

	"github.com/veedubyou/stemsplit/src/splitter/internal/lib/cerr"
)

const flacBlockSize = 4096

type flacDemuxer struct {
	src         *flac.Stream
	stream      Stream
	samplesRead int64
	eof         bool
}

func newFLACDemuxer(file *os.File) (demuxer, error) {
	src, err := flac.New(file)
	if err != nil {
		return nil, cerr.Wrap(err).Mark(ErrUnknownFormat).Error("Failed to parse flac stream")
	}

	info := src.Info

	var format SampleFormat
	switch info.BitsPerSample {
	case 16:
		format = SampleFormatS16LE
	case 24:
		format = SampleFormatS24LE
	default:
		return nil, cerr.Field("bits_per_sample", info.BitsPerSample).
			Wrap(ErrUnsupportedFormat).
			Error("Failed to open flac with unsupported bit depth")
	}

	rate := int(info.SampleRate)
	channels := int(info.NChannels)
	if rate <= 0 || channels <= 0 {
		return nil, cerr.Fields(cerr.F{
			"sample_rate": rate,
			"channels":    channels,
		}).Wrap(ErrUnsupportedFormat).Error("Failed to open flac with invalid stream layout")
	}

	return &flacDemuxer{
		src: src,
		stream: Stream{
			Index:    0,
			TimeBase: NewRational(1, rate),
			Params: Parameters{
				Codec:         CodecFLAC,
				SampleRate:    rate,
				SampleFormat:  format,
				ChannelLayout: LayoutForChannels(channels),
				BitsPerSample: int(info.BitsPerSample),
			},
		},
	}, nil
}

func (d *flacDemuxer) streams() []Stream {
	return []Stream{d.stream}
}

func (d *flacDemuxer) readPacket() (*Packet, bool, error) {
	if d.eof {
		return nil, false, nil
	}

	f, err := d.src.ParseNext()
	if err == io.EOF {
		d.eof = true
		return nil, false, nil
	}
	if err != nil {
		return nil, false, cerr.Wrap(err).Mark(ErrDecode).Error("Failed to decode flac frame")
	}

	channels := d.stream.Params.ChannelLayout.Channels()
	if len(f.Subframes) != channels {
		return nil, false, cerr.Fields(cerr.F{
			"frame_channels":  len(f.Subframes),
			"stream_channels": channels,
		}).Wrap(ErrDecode).Error("Failed to decode flac frame with unexpected channel count")
	}

	blockSize := int(f.BlockSize)
	ints := make([]int, blockSize*channels)
	for ch, sub := range f.Subframes {
		if len(sub.Samples) < blockSize {
			return nil, false, cerr.Wrap(ErrDecode).Error("Failed to decode truncated flac frame")
		}
		for i := 0; i < blockSize; i++ {
			ints[i*channels+ch] = int(sub.Samples[i])
		}
	}

	data, err := packIntSamples(ints, d.stream.Params.SampleFormat)
	if err != nil {
		return nil, false, err
	}

	packet := &Packet{
		StreamIndex: 0,
		PTS:         d.samplesRead,
		Duration:    int64(blockSize),
		Data:        data,
	}
	d.samplesRead += int64(blockSize)

	return packet, true, nil
}

var flacChannelAssignments = map[int]flacframe.Channels{
	1: flacframe.ChannelsMono,
	2: flacframe.ChannelsLR,
	3: flacframe.ChannelsLRC,
	4: flacframe.ChannelsLRLsRs,
	5: flacframe.ChannelsLRCLsRs,
	6: flacframe.ChannelsLRCLfeLsRs,
}

// flacEncoder wraps the stream encoder over an in memory buffer. The
// header bytes emitted at open time become the stream extradata, and
// every encoded frame is drained out of the buffer as one packet.
type flacEncoder struct {
	params         Parameters
	channels       flacframe.Channels
	buf            *bytes.Buffer
	enc            *flac.Encoder
	queue          []*Packet
	samplesWritten int64
	flushed        bool
}

func newFLACEncoder(config EncoderConfig) (Encoder, error) {
	params := config.Params

	bitsPerSample := params.BitsPerSample
	if bitsPerSample == 0 {
		bitsPerSample = params.SampleFormat.BytesPerSample() * 8
	}

	var expectedFormat SampleFormat
	switch bitsPerSample {
	case 16:
		expectedFormat = SampleFormatS16LE
	case 24:
		expectedFormat = SampleFormatS24LE
	default:
		return nil, cerr.Field("bits_per_sample", bitsPerSample).
			Wrap(ErrEncode).
			Error("Failed to open flac encoder with unsupported bit depth")
	}

	if params.SampleFormat != expectedFormat {
		return nil, cerr.Fields(cerr.F{
			"sample_format":   params.SampleFormat.String(),
			"bits_per_sample": bitsPerSample,
		}).Wrap(ErrEncode).Error("Failed to open flac encoder with mismatched sample format")
	}

	if params.SampleRate <= 0 {
		return nil, cerr.Field("sample_rate", params.SampleRate).
			Wrap(ErrEncode).
			Error("Failed to open flac encoder with invalid sample rate")
	}

	channelCount := params.ChannelLayout.Channels()
	channels, ok := flacChannelAssignments[channelCount]
	if !ok {
		return nil, cerr.Field("channels", channelCount).
			Wrap(ErrEncode).
			Error("Failed to open flac encoder with unsupported channel count")
	}

	buf := &bytes.Buffer{}
	enc, err := flac.NewEncoder(buf, &meta.StreamInfo{
		BlockSizeMin:  16,
		BlockSizeMax:  flacBlockSize,
		SampleRate:    uint32(params.SampleRate),
		NChannels:     uint8(channelCount),
		BitsPerSample: uint8(bitsPerSample),
	})
	if err != nil {
		return nil, cerr.Wrap(err).Mark(ErrEncode).Error("Failed to open flac encoder")
	}

	// the encoder writes the stream marker and metadata immediately,
	// which is exactly the global header a container wants embedded
	params.BitsPerSample = bitsPerSample
	params.ExtraData = nil
	if config.GlobalHeader {
		header := make([]byte, buf.Len())
		copy(header, buf.Bytes())
		params.ExtraData = header
	}
	buf.Reset()

	return &flacEncoder{
		params:   params,
		channels: channels,
		buf:      buf,
		enc:      enc,
	}, nil
}

func (e *flacEncoder) FrameSize() int {
	return flacBlockSize
}

func (e *flacEncoder) Parameters() Parameters {
	return e.params
}

func (e *flacEncoder) Send(frame *Frame) error {
	if e.flushed {
		return cerr.Wrap(ErrEncode).Error("Failed to send frame to a flushed encoder")
	}

	if frame == nil {
		return e.flush()
	}

	if frame.Info != e.params.Info() {
		return cerr.Fields(cerr.F{
			"frame_format":   frame.Info.SampleFormat.String(),
			"encoder_format": e.params.SampleFormat.String(),
		}).Wrap(ErrEncode).Error("Failed to encode frame that does not match the encoder format")
	}

	if frame.SampleCount > flacBlockSize {
		return cerr.Field("sample_count", frame.SampleCount).
			Wrap(ErrEncode).
			Error("Failed to encode frame larger than the flac block size")
	}

	ints, err := unpackIntSamples(frame.Data, e.params.SampleFormat)
	if err != nil {
		return err
	}

	channelCount := e.params.ChannelLayout.Channels()
	subframes := make([]*flacframe.Subframe, channelCount)
	for ch := 0; ch < channelCount; ch++ {
		samples := make([]int32, frame.SampleCount)
		for i := range samples {
			samples[i] = int32(ints[i*channelCount+ch])
		}
		subframes[ch] = &flacframe.Subframe{
			SubHeader: flacframe.SubHeader{
				Pred: flacframe.PredVerbatim,
			},
			Samples:  samples,
			NSamples: frame.SampleCount,
		}
	}

	encoded := &flacframe.Frame{
		Header: flacframe.Header{
			HasFixedBlockSize: false,
			BlockSize:         uint16(frame.SampleCount),
			SampleRate:        uint32(e.params.SampleRate),
			Channels:          e.channels,
			BitsPerSample:     uint8(e.params.BitsPerSample),
			Num:               uint64(e.samplesWritten),
		},
		Subframes: subframes,
	}

	if err := e.enc.WriteFrame(encoded); err != nil {
		return cerr.Wrap(err).Mark(ErrEncode).Error("Failed to encode flac frame")
	}

	e.queue = append(e.queue, &Packet{
		PTS:      frame.PTS,
		Duration: int64(frame.SampleCount),
		Data:     e.drainBuffer(),
	})
	e.samplesWritten += int64(frame.SampleCount)

	return nil
}

func (e *flacEncoder) flush() error {
	e.flushed = true

	if err := e.enc.Close(); err != nil {
		return cerr.Wrap(err).Mark(ErrEncode).Error("Failed to finalize flac encoding")
	}

	if e.buf.Len() > 0 {
		e.queue = append(e.queue, &Packet{
			PTS:      e.samplesWritten,
			Duration: 0,
			Data:     e.drainBuffer(),
		})
	}

	return nil
}

func (e *flacEncoder) drainBuffer() []byte {
	data := make([]byte, e.buf.Len())
	copy(data, e.buf.Bytes())
	e.buf.Reset()
	return data
}

func (e *flacEncoder) Receive() (*Packet, bool, error) {
	if len(e.queue) == 0 {
		return nil, false, nil
	}

	packet := e.queue[0]
	e.queue = e.queue[1:]
	return packet, true, nil
}

func (e *flacEncoder) Close() error {
	e.queue = nil
	return nil
}

type flacMuxer struct {
	file *os.File
}

func newFLACMuxer(file *os.File) muxer {
	return &flacMuxer{file: file}
}

func (m *flacMuxer) needsGlobalHeader() bool {
	return true
}

func (m *flacMuxer) writeHeader(stream *outputStream) error {
	if stream.Params.Codec != CodecFLAC {
		return cerr.Field("codec", string(stream.Params.Codec)).
			Wrap(ErrEncode).
			Error("Failed to mux codec into a flac container")
	}

	if len(stream.Params.ExtraData) == 0 {
		return cerr.Wrap(ErrEncode).Error("Failed to write flac header without stream extradata")
	}

	if _, err := m.file.Write(stream.Params.ExtraData); err != nil {
		return cerr.Wrap(err).Mark(ErrIO).Error("Failed to write flac header")
	}

	return nil
}

func (m *flacMuxer) writePacket(stream *outputStream, packet *Packet) error {
	if _, err := m.file.Write(packet.Data); err != nil {
		return cerr.Wrap(err).Mark(ErrIO).Error("Failed to write flac frame")
	}

	return nil
}

func (m *flacMuxer) writeTrailer() error {
	return nil
}

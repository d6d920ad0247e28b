package codec

import (
	"github.com/veedubyou/stemsplit/src/splitter/internal/lib/cerr"
)

// Encoder turns raw PCM frames back into a stream's packets.
//
// Send queues one frame, or flushes the encoder when passed nil. Frames
// must arrive in the encoder's own format; callers resample first.
// Receive drains finished packets: ok false means the encoder needs more
// input or has fully flushed.
type Encoder interface {
	// FrameSize is the sample count per channel the encoder prefers per
	// frame. Callers batch their PCM into chunks of this size, with only
	// the final chunk allowed to come up short.
	FrameSize() int
	// Parameters describes the encoded stream, including any extradata the
	// container must embed in its header.
	Parameters() Parameters
	Send(frame *Frame) error
	Receive() (packet *Packet, ok bool, err error)
	Close() error
}

// EncoderConfig carries everything an encoder needs at open time.
// GlobalHeader must be decided before opening: encoders that produce
// header extradata only do so when the container asks for it up front.
type EncoderConfig struct {
	Params       Parameters
	TimeBase     Rational
	GlobalHeader bool
}

// HasEncoder reports whether the engine can re-encode the given codec.
func HasEncoder(id CodecID) bool {
	switch id {
	case CodecPCMS16LE, CodecPCMS24LE, CodecPCMS32LE, CodecPCMS16BE, CodecFLAC:
		return true
	default:
		return false
	}
}

// NewEncoder opens an encoder for the codec named in the config.
func NewEncoder(config EncoderConfig) (Encoder, error) {
	switch config.Params.Codec {
	case CodecPCMS16LE, CodecPCMS24LE, CodecPCMS32LE, CodecPCMS16BE:
		return newPCMEncoder(config)
	case CodecFLAC:
		return newFLACEncoder(config)
	default:
		return nil, cerr.Field("codec", string(config.Params.Codec)).
			Wrap(ErrEncoderNotFound).
			Error("Failed to find encoder for codec")
	}
}

const pcmEncoderFrameSize = 4096

// pcmEncoder emits raw sample packets. The payload format already matches
// the stream format, so each frame maps to exactly one packet.
type pcmEncoder struct {
	params  Parameters
	queue   []*Packet
	flushed bool
}

func newPCMEncoder(config EncoderConfig) (Encoder, error) {
	params := config.Params
	if params.SampleRate <= 0 || params.ChannelLayout.Channels() <= 0 {
		return nil, cerr.Fields(cerr.F{
			"codec":       string(params.Codec),
			"sample_rate": params.SampleRate,
			"channels":    params.ChannelLayout.Channels(),
		}).Wrap(ErrEncode).Error("Failed to open pcm encoder with incomplete parameters")
	}

	expectedFormat := pcmSampleFormat(params.Codec)
	if params.SampleFormat != expectedFormat {
		return nil, cerr.Fields(cerr.F{
			"codec":         string(params.Codec),
			"sample_format": params.SampleFormat.String(),
		}).Wrap(ErrEncode).Error("Failed to open pcm encoder with mismatched sample format")
	}

	params.ExtraData = nil
	return &pcmEncoder{params: params}, nil
}

func pcmSampleFormat(id CodecID) SampleFormat {
	switch id {
	case CodecPCMS16LE:
		return SampleFormatS16LE
	case CodecPCMS24LE:
		return SampleFormatS24LE
	case CodecPCMS32LE:
		return SampleFormatS32LE
	case CodecPCMS16BE:
		return SampleFormatS16BE
	default:
		return SampleFormatUnknown
	}
}

func (e *pcmEncoder) FrameSize() int {
	return pcmEncoderFrameSize
}

func (e *pcmEncoder) Parameters() Parameters {
	return e.params
}

func (e *pcmEncoder) Send(frame *Frame) error {
	if e.flushed {
		return cerr.Wrap(ErrEncode).Error("Failed to send frame to a flushed encoder")
	}

	if frame == nil {
		e.flushed = true
		return nil
	}

	if frame.Info != e.params.Info() {
		return cerr.Fields(cerr.F{
			"frame_format":   frame.Info.SampleFormat.String(),
			"encoder_format": e.params.SampleFormat.String(),
		}).Wrap(ErrEncode).Error("Failed to encode frame that does not match the encoder format")
	}

	data := make([]byte, len(frame.Data))
	copy(data, frame.Data)

	e.queue = append(e.queue, &Packet{
		PTS:      frame.PTS,
		Duration: int64(frame.SampleCount),
		Data:     data,
	})

	return nil
}

func (e *pcmEncoder) Receive() (*Packet, bool, error) {
	if len(e.queue) == 0 {
		return nil, false, nil
	}

	packet := e.queue[0]
	e.queue = e.queue[1:]
	return packet, true, nil
}

func (e *pcmEncoder) Close() error {
	e.queue = nil
	return nil
}

package codec

import (
	"github.com/veedubyou/stemsplit/src/splitter/internal/lib/cerr"
)

// Decoder turns a stream's packets into raw PCM frames.
//
// Send queues one packet, or flushes the decoder when passed nil. Receive
// drains the decoded frames one at a time: ok reports whether a frame was
// produced, and false means the decoder needs more input or has fully
// flushed, which is a normal loop exit rather than an error.
type Decoder interface {
	Send(packet *Packet) error
	Receive() (frame *Frame, ok bool, err error)
	Close() error
}

var decodableCodecs = map[CodecID]bool{
	CodecPCMS16LE: true,
	CodecPCMS24LE: true,
	CodecPCMS32LE: true,
	CodecPCMS16BE: true,
	CodecMP3:      true,
	CodecVorbis:   true,
	CodecFLAC:     true,
}

// NewDecoder returns a decoder for the stream described by params.
func NewDecoder(params Parameters) (Decoder, error) {
	if !decodableCodecs[params.Codec] {
		return nil, cerr.Field("codec", string(params.Codec)).
			Wrap(ErrDecode).
			Error("Failed to find decoder for codec")
	}

	if params.SampleFormat.BytesPerSample() == 0 {
		return nil, cerr.Field("codec", string(params.Codec)).
			Wrap(ErrUnsupportedFormat).
			Error("Failed to create decoder with unknown sample format")
	}

	if params.ChannelLayout.Channels() <= 0 {
		return nil, cerr.Field("codec", string(params.Codec)).
			Wrap(ErrDecode).
			Error("Failed to create decoder without channel layout")
	}

	return &pcmDecoder{params: params}, nil
}

// pcmDecoder frames raw sample packets. Demuxers in this engine deliver
// packet payloads already in the stream's in-memory sample format, so
// decoding is a matter of validating, framing and tagging.
type pcmDecoder struct {
	params  Parameters
	queue   []*Frame
	flushed bool
}

func (d *pcmDecoder) Send(packet *Packet) error {
	if d.flushed {
		return cerr.Wrap(ErrDecode).Error("Failed to send packet to a flushed decoder")
	}

	if packet == nil {
		d.flushed = true
		return nil
	}

	info := d.params.Info()
	frameBytes := info.BytesPerFrame()
	if len(packet.Data)%frameBytes != 0 {
		return cerr.Fields(cerr.F{
			"packet_size":   len(packet.Data),
			"sample_format": info.SampleFormat.String(),
			"channels":      info.ChannelLayout.Channels(),
		}).Wrap(ErrDecode).Error("Failed to decode packet that is not aligned to whole sample frames")
	}

	data := make([]byte, len(packet.Data))
	copy(data, packet.Data)

	d.queue = append(d.queue, &Frame{
		Info:        info,
		SampleCount: len(packet.Data) / frameBytes,
		PTS:         packet.PTS,
		Data:        data,
	})

	return nil
}

func (d *pcmDecoder) Receive() (*Frame, bool, error) {
	if len(d.queue) == 0 {
		return nil, false, nil
	}

	frame := d.queue[0]
	d.queue = d.queue[1:]
	return frame, true, nil
}

func (d *pcmDecoder) Close() error {
	d.queue = nil
	return nil
}

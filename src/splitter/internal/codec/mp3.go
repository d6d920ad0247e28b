package codec

import (
	"io"
	"os"

	mp3 "github.com/hajimehoshi/go-mp3"

	"github.com/veedubyou/stemsplit/src/splitter/internal/lib/cerr"
)

// mp3TimeBaseDen is divisible by every mpeg audio sample rate, so sample
// positions stay exact when expressed in this time base.
const mp3TimeBaseDen = 14112000

// go-mp3 always produces 16 bit little endian stereo
const mp3BytesPerFrame = 4

type mp3Demuxer struct {
	dec            *mp3.Decoder
	stream         Stream
	ticksPerSample int64
	samplesRead    int64
	eof            bool
}

func newMP3Demuxer(file *os.File) (demuxer, error) {
	dec, err := mp3.NewDecoder(file)
	if err != nil {
		return nil, cerr.Wrap(err).Mark(ErrUnknownFormat).Error("Failed to parse mp3 stream")
	}

	rate := dec.SampleRate()
	if rate <= 0 {
		return nil, cerr.Field("sample_rate", rate).
			Wrap(ErrUnsupportedFormat).
			Error("Failed to open mp3 with invalid sample rate")
	}

	timeBase := NewRational(1, mp3TimeBaseDen)
	ticksPerSample := int64(mp3TimeBaseDen / rate)
	if mp3TimeBaseDen%rate != 0 {
		timeBase = NewRational(1, rate)
		ticksPerSample = 1
	}

	return &mp3Demuxer{
		dec: dec,
		stream: Stream{
			Index:    0,
			TimeBase: timeBase,
			Params: Parameters{
				Codec:         CodecMP3,
				SampleRate:    rate,
				SampleFormat:  SampleFormatS16LE,
				ChannelLayout: ChannelLayoutStereo,
			},
		},
		ticksPerSample: ticksPerSample,
	}, nil
}

func (d *mp3Demuxer) streams() []Stream {
	return []Stream{d.stream}
}

func (d *mp3Demuxer) readPacket() (*Packet, bool, error) {
	if d.eof {
		return nil, false, nil
	}

	buf := make([]byte, demuxChunkFrames*mp3BytesPerFrame)
	n, err := io.ReadFull(d.dec, buf)
	switch err {
	case nil:
	case io.EOF:
		d.eof = true
		return nil, false, nil
	case io.ErrUnexpectedEOF:
		d.eof = true
	default:
		return nil, false, cerr.Wrap(err).Mark(ErrDecode).Error("Failed to decode mp3 data")
	}

	frames := n / mp3BytesPerFrame
	if frames == 0 {
		d.eof = true
		return nil, false, nil
	}

	packet := &Packet{
		StreamIndex: 0,
		PTS:         d.samplesRead * d.ticksPerSample,
		Duration:    int64(frames) * d.ticksPerSample,
		Data:        buf[:frames*mp3BytesPerFrame],
	}
	d.samplesRead += int64(frames)

	return packet, true, nil
}

package codec

import (
	"io"
	"os"

	"github.com/jfreymuth/oggvorbis"

	"github.com/veedubyou/stemsplit/src/splitter/internal/lib/cerr"
)

type vorbisDemuxer struct {
	reader      *oggvorbis.Reader
	stream      Stream
	samplesRead int64
	eof         bool
}

func newVorbisDemuxer(file *os.File) (demuxer, error) {
	reader, err := oggvorbis.NewReader(file)
	if err != nil {
		// an ogg container with no decodable vorbis stream still opens,
		// it just exposes no audio streams
		return noStreamDemuxer{}, nil
	}

	rate := reader.SampleRate()
	channels := reader.Channels()
	if rate <= 0 || channels <= 0 {
		return noStreamDemuxer{}, nil
	}

	return &vorbisDemuxer{
		reader: reader,
		stream: Stream{
			Index:    0,
			TimeBase: NewRational(1, rate),
			Params: Parameters{
				Codec:         CodecVorbis,
				SampleRate:    rate,
				SampleFormat:  SampleFormatF32LE,
				ChannelLayout: LayoutForChannels(channels),
			},
		},
	}, nil
}

func (d *vorbisDemuxer) streams() []Stream {
	return []Stream{d.stream}
}

func (d *vorbisDemuxer) readPacket() (*Packet, bool, error) {
	if d.eof {
		return nil, false, nil
	}

	channels := d.stream.Params.ChannelLayout.Channels()
	samples := make([]float32, demuxChunkFrames*channels)

	total := 0
	for total < len(samples) {
		n, err := d.reader.Read(samples[total:])
		total += n

		if err == io.EOF {
			d.eof = true
			break
		}
		if err != nil {
			return nil, false, cerr.Wrap(err).Mark(ErrDecode).Error("Failed to decode vorbis data")
		}
		if n == 0 {
			break
		}
	}

	frames := total / channels
	if frames == 0 {
		d.eof = true
		return nil, false, nil
	}

	packet := &Packet{
		StreamIndex: 0,
		PTS:         d.samplesRead,
		Duration:    int64(frames),
		Data:        FloatsToBytes(samples[:frames*channels]),
	}
	d.samplesRead += int64(frames)

	return packet, true, nil
}

// noStreamDemuxer stands in for a container that opened but exposed
// nothing decodable.
type noStreamDemuxer struct{}

func (noStreamDemuxer) streams() []Stream {
	return nil
}

func (noStreamDemuxer) readPacket() (*Packet, bool, error) {
	return nil, false, nil
}

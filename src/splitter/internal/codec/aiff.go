package codec

import (
	"os"

	"github.com/go-audio/aiff"
	"github.com/go-audio/audio"

	"github.com/veedubyou/stemsplit/src/splitter/internal/lib/cerr"
)

type aiffDemuxer struct {
	dec         *aiff.Decoder
	stream      Stream
	buf         *audio.IntBuffer
	samplesRead int64
	eof         bool
}

func newAIFFDemuxer(file *os.File) (demuxer, error) {
	dec := aiff.NewDecoder(file)
	if !dec.IsValidFile() {
		return nil, cerr.Wrap(ErrUnknownFormat).Error("Failed to parse aiff header")
	}

	dec.ReadInfo()

	// aiff carries big endian integer pcm, 16 bit is the only depth handled here
	if dec.BitDepth != 16 {
		return nil, cerr.Field("bit_depth", dec.BitDepth).
			Wrap(ErrUnsupportedFormat).
			Error("Failed to open aiff with unsupported bit depth")
	}

	rate := dec.SampleRate
	channels := int(dec.NumChans)
	if rate <= 0 || channels <= 0 {
		return nil, cerr.Fields(cerr.F{
			"sample_rate": rate,
			"channels":    channels,
		}).Wrap(ErrUnsupportedFormat).Error("Failed to open aiff with invalid stream layout")
	}

	return &aiffDemuxer{
		dec: dec,
		stream: Stream{
			Index:    0,
			TimeBase: NewRational(1, rate),
			Params: Parameters{
				Codec:         CodecPCMS16BE,
				SampleRate:    rate,
				SampleFormat:  SampleFormatS16BE,
				ChannelLayout: LayoutForChannels(channels),
			},
		},
	}, nil
}

func (d *aiffDemuxer) streams() []Stream {
	return []Stream{d.stream}
}

func (d *aiffDemuxer) readPacket() (*Packet, bool, error) {
	if d.eof {
		return nil, false, nil
	}

	channels := d.stream.Params.ChannelLayout.Channels()
	want := demuxChunkFrames * channels

	if d.buf == nil {
		d.buf = &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: channels,
				SampleRate:  d.stream.Params.SampleRate,
			},
			Data:           make([]int, want),
			SourceBitDepth: int(d.dec.BitDepth),
		}
	}
	d.buf.Data = d.buf.Data[:want]

	n, err := d.dec.PCMBuffer(d.buf)
	if err != nil {
		return nil, false, cerr.Wrap(err).Mark(ErrDecode).Error("Failed to read aiff samples")
	}

	if n == 0 {
		d.eof = true
		return nil, false, nil
	}

	if n < want {
		d.eof = true
	}

	frames := n / channels
	data, err := packIntSamples(d.buf.Data[:frames*channels], d.stream.Params.SampleFormat)
	if err != nil {
		return nil, false, err
	}

	packet := &Packet{
		StreamIndex: 0,
		PTS:         d.samplesRead,
		Duration:    int64(frames),
		Data:        data,
	}
	d.samplesRead += int64(frames)

	return packet, true, nil
}

type aiffMuxer struct {
	file        *os.File
	enc         *aiff.Encoder
	params      Parameters
	wrotePacket bool
}

func newAIFFMuxer(file *os.File) muxer {
	return &aiffMuxer{file: file}
}

func (m *aiffMuxer) needsGlobalHeader() bool {
	return false
}

func (m *aiffMuxer) writeHeader(stream *outputStream) error {
	if stream.Params.Codec != CodecPCMS16BE {
		return cerr.Field("codec", string(stream.Params.Codec)).
			Wrap(ErrEncode).
			Error("Failed to mux codec into an aiff container")
	}

	m.params = stream.Params
	m.enc = aiff.NewEncoder(
		m.file,
		stream.Params.SampleRate,
		16,
		stream.Params.ChannelLayout.Channels(),
	)

	return nil
}

func (m *aiffMuxer) writePacket(stream *outputStream, packet *Packet) error {
	ints, err := unpackIntSamples(packet.Data, m.params.SampleFormat)
	if err != nil {
		return err
	}

	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: m.params.ChannelLayout.Channels(),
			SampleRate:  m.params.SampleRate,
		},
		Data:           ints,
		SourceBitDepth: 16,
	}

	if err := m.enc.Write(buf); err != nil {
		return cerr.Wrap(err).Mark(ErrIO).Error("Failed to write aiff samples")
	}

	m.wrotePacket = true
	return nil
}

func (m *aiffMuxer) writeTrailer() error {
	if m.enc == nil {
		return nil
	}

	if !m.wrotePacket {
		empty := &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: m.params.ChannelLayout.Channels(),
				SampleRate:  m.params.SampleRate,
			},
			Data:           []int{},
			SourceBitDepth: 16,
		}
		if err := m.enc.Write(empty); err != nil {
			return cerr.Wrap(err).Mark(ErrIO).Error("Failed to write empty aiff stream")
		}
	}

	if err := m.enc.Close(); err != nil {
		return cerr.Wrap(err).Mark(ErrIO).Error("Failed to finalize aiff container")
	}

	return nil
}

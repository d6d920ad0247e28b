package codec

import (
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/veedubyou/stemsplit/src/splitter/internal/lib/cerr"
)

// demuxChunkFrames is how many sample frames each demuxed packet carries.
const demuxChunkFrames = 4096

const wavPCMFormat = 1

type wavDemuxer struct {
	dec         *wav.Decoder
	stream      Stream
	buf         *audio.IntBuffer
	samplesRead int64
	eof         bool
}

func newWAVDemuxer(file *os.File) (demuxer, error) {
	dec := wav.NewDecoder(file)
	if !dec.IsValidFile() {
		return nil, cerr.Wrap(ErrUnknownFormat).Error("Failed to parse wav header")
	}

	dec.ReadInfo()

	if dec.WavAudioFormat != wavPCMFormat {
		return nil, cerr.Field("wav_audio_format", dec.WavAudioFormat).
			Wrap(ErrUnsupportedFormat).
			Error("Failed to open wav that is not integer pcm")
	}

	var codecID CodecID
	var format SampleFormat
	switch dec.BitDepth {
	case 16:
		codecID, format = CodecPCMS16LE, SampleFormatS16LE
	case 24:
		codecID, format = CodecPCMS24LE, SampleFormatS24LE
	case 32:
		codecID, format = CodecPCMS32LE, SampleFormatS32LE
	default:
		return nil, cerr.Field("bit_depth", dec.BitDepth).
			Wrap(ErrUnsupportedFormat).
			Error("Failed to open wav with unsupported bit depth")
	}

	rate := int(dec.SampleRate)
	channels := int(dec.NumChans)
	if rate <= 0 || channels <= 0 {
		return nil, cerr.Fields(cerr.F{
			"sample_rate": rate,
			"channels":    channels,
		}).Wrap(ErrUnsupportedFormat).Error("Failed to open wav with invalid stream layout")
	}

	return &wavDemuxer{
		dec: dec,
		stream: Stream{
			Index:    0,
			TimeBase: NewRational(1, rate),
			Params: Parameters{
				Codec:         codecID,
				SampleRate:    rate,
				SampleFormat:  format,
				ChannelLayout: LayoutForChannels(channels),
			},
		},
	}, nil
}

func (d *wavDemuxer) streams() []Stream {
	return []Stream{d.stream}
}

func (d *wavDemuxer) readPacket() (*Packet, bool, error) {
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
		return nil, false, cerr.Wrap(err).Mark(ErrDecode).Error("Failed to read wav samples")
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

type wavMuxer struct {
	file        *os.File
	enc         *wav.Encoder
	params      Parameters
	wrotePacket bool
}

func newWAVMuxer(file *os.File) muxer {
	return &wavMuxer{file: file}
}

func (m *wavMuxer) needsGlobalHeader() bool {
	return false
}

func (m *wavMuxer) writeHeader(stream *outputStream) error {
	var bitDepth int
	switch stream.Params.Codec {
	case CodecPCMS16LE:
		bitDepth = 16
	case CodecPCMS24LE:
		bitDepth = 24
	case CodecPCMS32LE:
		bitDepth = 32
	default:
		return cerr.Field("codec", string(stream.Params.Codec)).
			Wrap(ErrEncode).
			Error("Failed to mux codec into a wav container")
	}

	m.params = stream.Params
	m.enc = wav.NewEncoder(
		m.file,
		stream.Params.SampleRate,
		bitDepth,
		stream.Params.ChannelLayout.Channels(),
		wavPCMFormat,
	)

	return nil
}

func (m *wavMuxer) writePacket(stream *outputStream, packet *Packet) error {
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
		SourceBitDepth: m.params.SampleFormat.BytesPerSample() * 8,
	}

	if err := m.enc.Write(buf); err != nil {
		return cerr.Wrap(err).Mark(ErrIO).Error("Failed to write wav samples")
	}

	m.wrotePacket = true
	return nil
}

func (m *wavMuxer) writeTrailer() error {
	if m.enc == nil {
		return nil
	}

	// an empty stream still needs its header and chunk sizes on disk
	if !m.wrotePacket {
		empty := &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: m.params.ChannelLayout.Channels(),
				SampleRate:  m.params.SampleRate,
			},
			Data:           []int{},
			SourceBitDepth: m.params.SampleFormat.BytesPerSample() * 8,
		}
		if err := m.enc.Write(empty); err != nil {
			return cerr.Wrap(err).Mark(ErrIO).Error("Failed to write empty wav stream")
		}
	}

	if err := m.enc.Close(); err != nil {
		return cerr.Wrap(err).Mark(ErrIO).Error("Failed to finalize wav container")
	}

	return nil
}

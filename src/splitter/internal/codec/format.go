package codec

import "fmt"

// SampleFormat identifies the in-memory representation of a single audio
// sample.
type SampleFormat int

const (
	SampleFormatUnknown SampleFormat = iota
	SampleFormatS16LE
	SampleFormatS16BE
	SampleFormatS24LE
	SampleFormatS32LE
	SampleFormatF32LE
)

func (f SampleFormat) BytesPerSample() int {
	switch f {
	case SampleFormatS16LE, SampleFormatS16BE:
		return 2
	case SampleFormatS24LE:
		return 3
	case SampleFormatS32LE, SampleFormatF32LE:
		return 4
	default:
		return 0
	}
}

func (f SampleFormat) String() string {
	switch f {
	case SampleFormatS16LE:
		return "s16le"
	case SampleFormatS16BE:
		return "s16be"
	case SampleFormatS24LE:
		return "s24le"
	case SampleFormatS32LE:
		return "s32le"
	case SampleFormatF32LE:
		return "f32le"
	default:
		return "unknown"
	}
}

// ChannelLayout describes the channel arrangement of interleaved audio.
// Only the channel count carries meaning in this engine.
type ChannelLayout int

const (
	ChannelLayoutMono   ChannelLayout = 1
	ChannelLayoutStereo ChannelLayout = 2
)

func LayoutForChannels(channels int) ChannelLayout {
	return ChannelLayout(channels)
}

func (c ChannelLayout) Channels() int {
	return int(c)
}

func (c ChannelLayout) String() string {
	switch c {
	case ChannelLayoutMono:
		return "mono"
	case ChannelLayoutStereo:
		return "stereo"
	default:
		return fmt.Sprintf("%dch", int(c))
	}
}

// AudioInfo pins down one concrete PCM shape: rate, sample format and
// channel layout.
type AudioInfo struct {
	SampleRate    int
	SampleFormat  SampleFormat
	ChannelLayout ChannelLayout
}

// NewPCMInfo returns the canonical processing format at the given rate:
// interleaved float32, stereo.
func NewPCMInfo(sampleRate int) AudioInfo {
	return AudioInfo{
		SampleRate:    sampleRate,
		SampleFormat:  SampleFormatF32LE,
		ChannelLayout: ChannelLayoutStereo,
	}
}

// BytesPerFrame is the byte size of one interleaved sample frame, covering
// all channels.
func (a AudioInfo) BytesPerFrame() int {
	return a.SampleFormat.BytesPerSample() * a.ChannelLayout.Channels()
}

// CodecID names a codec in the engine's registries.
type CodecID string

const (
	CodecPCMS16LE CodecID = "pcm_s16le"
	CodecPCMS24LE CodecID = "pcm_s24le"
	CodecPCMS32LE CodecID = "pcm_s32le"
	CodecPCMS16BE CodecID = "pcm_s16be"
	CodecMP3      CodecID = "mp3"
	CodecVorbis   CodecID = "vorbis"
	CodecFLAC     CodecID = "flac"
)

// Parameters is the codec-level description of a stream, detached from any
// open context so that it can outlive its source.
type Parameters struct {
	Codec         CodecID
	SampleRate    int
	SampleFormat  SampleFormat
	ChannelLayout ChannelLayout
	// BitsPerSample is the encoded sample depth where it differs from the
	// in-memory format, e.g. flac. Zero means same as the sample format.
	BitsPerSample int
	// ExtraData holds out-of-band codec configuration that some containers
	// embed in their headers.
	ExtraData []byte
}

// Info is the PCM shape of decoded frames for these parameters.
func (p Parameters) Info() AudioInfo {
	return AudioInfo{
		SampleRate:    p.SampleRate,
		SampleFormat:  p.SampleFormat,
		ChannelLayout: p.ChannelLayout,
	}
}

// StreamParameters is everything captured from an input stream that
// re-encoding needs later: the stream time base and the codec parameters.
type StreamParameters struct {
	TimeBase Rational
	Params   Parameters
}

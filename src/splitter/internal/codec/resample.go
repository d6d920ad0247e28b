package codec

import (
	"github.com/veedubyou/stemsplit/src/splitter/internal/lib/cerr"
)

// Resampler converts frames from one PCM shape to another: sample format,
// channel layout and sample rate.
//
// Rate conversion interpolates linearly between neighbouring source
// samples and carries its position across calls, so a converted stream is
// seamless no matter how the input was chunked. Flush drains the samples
// still held for interpolation at the end of the stream.
//
// When source and destination rates match, conversion is stateless and
// sample counts pass through exactly.
type Resampler struct {
	dst AudioInfo
	src AudioInfo

	// pending source frames, already mixed to the destination layout
	window      []float32
	windowStart int64
	nextOut     int64
	flushed     bool
}

func NewResampler(dst AudioInfo, src AudioInfo) (*Resampler, error) {
	for _, info := range []AudioInfo{dst, src} {
		if info.SampleRate <= 0 ||
			info.SampleFormat.BytesPerSample() == 0 ||
			info.ChannelLayout.Channels() <= 0 {
			return nil, cerr.Fields(cerr.F{
				"sample_rate":   info.SampleRate,
				"sample_format": info.SampleFormat.String(),
				"channels":      info.ChannelLayout.Channels(),
			}).Wrap(ErrResample).Error("Failed to create resampler with incomplete audio info")
		}
	}

	return &Resampler{dst: dst, src: src}, nil
}

func (r *Resampler) Convert(frame *Frame) (*Frame, error) {
	if r.flushed {
		return nil, cerr.Wrap(ErrResample).Error("Failed to convert with a flushed resampler")
	}

	if frame == nil {
		return nil, cerr.Wrap(ErrResample).Error("Failed to convert nil frame, use Flush to drain the resampler")
	}

	if frame.Info != r.src {
		return nil, cerr.Fields(cerr.F{
			"frame_rate":      frame.Info.SampleRate,
			"frame_format":    frame.Info.SampleFormat.String(),
			"expected_rate":   r.src.SampleRate,
			"expected_format": r.src.SampleFormat.String(),
		}).Wrap(ErrResample).Error("Failed to convert frame that does not match the resampler input")
	}

	if len(frame.Data) != frame.SampleCount*r.src.BytesPerFrame() {
		return nil, cerr.Fields(cerr.F{
			"data_size":    len(frame.Data),
			"sample_count": frame.SampleCount,
		}).Wrap(ErrResample).Error("Failed to convert frame whose data does not match its sample count")
	}

	floats, err := toFloats(frame.Data, r.src.SampleFormat)
	if err != nil {
		return nil, cerr.Wrap(err).Mark(ErrResample).Error("Failed to read frame samples")
	}

	mixed := mixChannels(floats, r.src.ChannelLayout.Channels(), r.dst.ChannelLayout.Channels())

	if r.src.SampleRate == r.dst.SampleRate {
		return r.packFrame(mixed)
	}

	r.window = append(r.window, mixed...)
	return r.packFrame(r.drain(false))
}

// Flush emits the tail of a rate conversion. Calling it again after the
// first flush yields an empty frame.
func (r *Resampler) Flush() (*Frame, error) {
	if r.flushed {
		return r.packFrame(nil)
	}

	r.flushed = true

	if r.src.SampleRate == r.dst.SampleRate {
		return r.packFrame(nil)
	}

	return r.packFrame(r.drain(true))
}

func (r *Resampler) packFrame(samples []float32) (*Frame, error) {
	data, err := fromFloats(samples, r.dst.SampleFormat)
	if err != nil {
		return nil, cerr.Wrap(err).Mark(ErrResample).Error("Failed to write converted samples")
	}

	return &Frame{
		Info:        r.dst,
		SampleCount: len(samples) / r.dst.ChannelLayout.Channels(),
		Data:        data,
	}, nil
}

// drain emits every output sample whose interpolation window is available.
// During a flush the final source sample stands in for the missing right
// neighbour.
func (r *Resampler) drain(flush bool) []float32 {
	channels := int64(r.dst.ChannelLayout.Channels())
	srcRate := int64(r.src.SampleRate)
	dstRate := int64(r.dst.SampleRate)

	total := r.windowStart + int64(len(r.window))/channels
	if total == 0 {
		return nil
	}

	var out []float32
	for {
		posNum := r.nextOut * srcRate
		idx := posNum / dstRate

		if flush {
			if idx > total-1 {
				break
			}
		} else if idx+1 > total-1 {
			break
		}

		i0 := idx - r.windowStart
		i1 := i0 + 1
		if idx+1 > total-1 {
			i1 = i0
		}

		t := float32(float64(posNum%dstRate) / float64(dstRate))
		for c := int64(0); c < channels; c++ {
			a := r.window[i0*channels+c]
			b := r.window[i1*channels+c]
			out = append(out, a+(b-a)*t)
		}

		r.nextOut++
	}

	if !flush {
		keepFrom := (r.nextOut * srcRate) / dstRate
		if keepFrom > r.windowStart {
			drop := keepFrom - r.windowStart
			if max := int64(len(r.window)) / channels; drop > max {
				drop = max
			}
			r.window = r.window[drop*channels:]
			r.windowStart += drop
		}
	}

	return out
}

// mixChannels converts interleaved samples between channel layouts. Mono
// fans out to every destination channel and any layout mixes down to mono
// by averaging. Between multichannel layouts the mapping is positional:
// extra source channels are dropped and extra destination channels stay
// silent.
func mixChannels(samples []float32, srcChannels int, dstChannels int) []float32 {
	if srcChannels == dstChannels {
		return samples
	}

	frames := len(samples) / srcChannels
	out := make([]float32, frames*dstChannels)

	switch {
	case srcChannels == 1:
		for f := 0; f < frames; f++ {
			for c := 0; c < dstChannels; c++ {
				out[f*dstChannels+c] = samples[f]
			}
		}
	case dstChannels == 1:
		for f := 0; f < frames; f++ {
			sum := float32(0)
			for c := 0; c < srcChannels; c++ {
				sum += samples[f*srcChannels+c]
			}
			out[f] = sum / float32(srcChannels)
		}
	default:
		keep := srcChannels
		if dstChannels < keep {
			keep = dstChannels
		}
		for f := 0; f < frames; f++ {
			for c := 0; c < keep; c++ {
				out[f*dstChannels+c] = samples[f*srcChannels+c]
			}
		}
	}

	return out
}

package split

import (
	"context"

	"github.com/apex/log"

	"github.com/veedubyou/stemsplit/src/splitter/internal/codec"
	"github.com/veedubyou/stemsplit/src/splitter/internal/lib/cerr"
	"github.com/veedubyou/stemsplit/src/splitter/internal/separation"
)

type TrackSplitter struct {
	separator separation.Separator
}

func NewTrackSplitter(separator separation.Separator) TrackSplitter {
	return TrackSplitter{separator: separator}
}

// SplitPCM runs the whole stream through the model in overlapping
// segments and reassembles one full length sample buffer per track, in
// the model's track order.
func (t TrackSplitter) SplitPCM(ctx context.Context, samples []float32, info codec.AudioInfo, model separation.ModelInfo) ([][]float32, error) {
	channels := info.ChannelLayout.Channels()
	if info.SampleRate <= 0 || channels <= 0 {
		return nil, cerr.Fields(cerr.F{
			"sample_rate": info.SampleRate,
			"channels":    channels,
		}).Error("Failed to split pcm without a sample rate and channel layout")
	}

	if len(samples)%channels != 0 {
		return nil, cerr.Fields(cerr.F{
			"samples":  len(samples),
			"channels": channels,
		}).Error("Failed to split pcm that does not divide into whole frames")
	}

	totalFrames := len(samples) / channels
	segments := PlanSegments(totalFrames, info.SampleRate)

	tracks := make([][]float32, len(model.Tracks))
	for i := range tracks {
		tracks[i] = make([]float32, 0, len(samples))
	}

	for _, segment := range segments {
		// every segment is a full model run, if we want to halt now is the time
		if ctx.Err() != nil {
			return nil, cerr.Wrap(ctx.Err()).Error("Context cancelled before splitting could happen")
		}

		log.Infof("processing: [%d, %d), using [%d, %d)",
			segment.ProcessStart,
			segment.ProcessStart+segment.ProcessLength,
			segment.ProcessStart+segment.UsefulStart,
			segment.ProcessStart+segment.UsefulStart+segment.UsefulLength)

		begin := segment.ProcessStart * channels
		end := begin + segment.ProcessLength*channels

		outputs, err := t.separator.Separate(samples[begin:end], segment.ProcessLength, channels)
		if err != nil {
			return nil, cerr.Field("segment", segment.Index).
				Wrap(err).
				Error("Failed to separate a segment")
		}

		if len(outputs) != len(tracks) {
			return nil, cerr.Fields(cerr.F{
				"want_tracks": len(tracks),
				"got_tracks":  len(outputs),
			}).Wrap(separation.ErrOutputShape).Error("Failed to receive one output per track")
		}

		usefulBegin := segment.UsefulStart * channels
		usefulEnd := usefulBegin + segment.UsefulLength*channels

		for i, output := range outputs {
			if len(output) != segment.ProcessLength*channels {
				return nil, cerr.Fields(cerr.F{
					"segment":      segment.Index,
					"want_samples": segment.ProcessLength * channels,
					"got_samples":  len(output),
				}).Wrap(separation.ErrOutputShape).Error("Failed to validate a track output length")
			}

			tracks[i] = append(tracks[i], output[usefulBegin:usefulEnd]...)
		}

		log.Infof("%d/%d done...", segment.Index+1, len(segments))
	}

	return tracks, nil
}

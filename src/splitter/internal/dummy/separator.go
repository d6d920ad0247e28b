package dummy

import (
	"github.com/veedubyou/stemsplit/src/splitter/internal/separation"
)

var _ separation.Separator = &Separator{}

func NewDummySeparator(trackCount int) *Separator {
	return &Separator{
		Unavailable: false,
		TrackCount:  trackCount,
	}
}

// Separator answers every track with a copy of the input samples.
type Separator struct {
	Unavailable    bool
	TruncateOutput bool
	TrackCount     int
	SeparateCalls  int
	Closed         bool
}

func (s *Separator) Separate(samples []float32, frames int, channels int) ([][]float32, error) {
	if s.Unavailable {
		return nil, ModelFailure
	}

	s.SeparateCalls++

	outputs := make([][]float32, 0, s.TrackCount)
	for i := 0; i < s.TrackCount; i++ {
		output := make([]float32, len(samples))
		copy(output, samples)
		if s.TruncateOutput && len(output) > 0 {
			output = output[:len(output)-1]
		}
		outputs = append(outputs, output)
	}

	return outputs, nil
}

func (s *Separator) Close() error {
	s.Closed = true
	return nil
}

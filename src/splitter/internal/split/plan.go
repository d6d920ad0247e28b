package split

const (
	sliceSeconds  = 30
	extendSeconds = 5
)

// Segment is one inference window over the full PCM stream. The process
// range covers what gets fed to the model, including overlap borrowed
// from the neighbouring segments. The useful range is the slice of the
// model's output that survives into the reassembled track.
type Segment struct {
	Index int
	// ProcessStart and ProcessLength bound the frames fed to the model,
	// measured from the start of the stream.
	ProcessStart  int
	ProcessLength int
	// UsefulStart is the offset inside the processed range where this
	// segment's own frames begin, past the leading overlap.
	UsefulStart  int
	UsefulLength int
}

// PlanSegments cuts totalFrames into fixed length slices and pads each
// one with overlap on both sides, so the model always sees surrounding
// context. The first segment has no leading overlap and the last has no
// trailing overlap. The useful ranges tile the stream exactly once.
func PlanSegments(totalFrames int, sampleRate int) []Segment {
	if totalFrames <= 0 || sampleRate <= 0 {
		return nil
	}

	sliceLength := sampleRate * sliceSeconds
	extendLength := sampleRate * extendSeconds

	segmentCount := (totalFrames + sliceLength - 1) / sliceLength

	segments := make([]Segment, 0, segmentCount)
	for i := 0; i < segmentCount; i++ {
		offset := i * sliceLength

		extendBegin := extendLength
		if i == 0 {
			extendBegin = 0
		}

		extendEnd := extendLength
		if i == segmentCount-1 {
			extendEnd = 0
		}

		usefulLength := sliceLength
		if remaining := totalFrames - offset; remaining < usefulLength {
			usefulLength = remaining
		}

		processStart := offset - extendBegin
		processLength := usefulLength + extendBegin + extendEnd
		if limit := totalFrames - processStart; processLength > limit {
			processLength = limit
		}

		segments = append(segments, Segment{
			Index:         i,
			ProcessStart:  processStart,
			ProcessLength: processLength,
			UsefulStart:   extendBegin,
			UsefulLength:  usefulLength,
		})
	}

	return segments
}

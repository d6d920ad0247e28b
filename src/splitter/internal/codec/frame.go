package codec

// Frame is a run of raw interleaved samples in one concrete PCM shape.
type Frame struct {
	Info        AudioInfo
	SampleCount int
	PTS         int64
	Data        []byte
}

func NewFrame(info AudioInfo, sampleCount int) *Frame {
	return &Frame{
		Info:        info,
		SampleCount: sampleCount,
		Data:        make([]byte, sampleCount*info.BytesPerFrame()),
	}
}

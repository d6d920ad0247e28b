package separation

// Separator splits a chunk of audio into one sample buffer per stem.
//
// Separate takes interleaved samples laid out as frames x channels and
// returns one interleaved buffer per track, in the model's track order.
// It blocks for the duration of the run. Close releases the model.
type Separator interface {
	Separate(samples []float32, frames int, channels int) ([][]float32, error)
	Close() error
}

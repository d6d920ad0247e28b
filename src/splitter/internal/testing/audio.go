package testing

import (
	"os"

	"github.com/go-audio/aiff"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/onsi/gomega"
)

// Int16Ramp produces deterministic 16 bit samples covering the full
// range without ever clipping.
func Int16Ramp(frames int, channels int) []int {
	samples := make([]int, frames*channels)
	for i := range samples {
		samples[i] = (i*37)%65536 - 32768
	}

	return samples
}

// FloatRamp produces the same ramp as Int16Ramp, scaled to [-1, 1).
// Every value is exactly representable in both formats, so converting
// between them is lossless.
func FloatRamp(frames int, channels int) []float32 {
	samples := make([]float32, frames*channels)
	for i := range samples {
		samples[i] = float32((i*37)%65536-32768) / 32768
	}

	return samples
}

// WriteWAV writes an integer pcm wav file for tests.
func WriteWAV(path string, sampleRate int, bitDepth int, channels int, samples []int) {
	file, err := os.Create(path)
	gomega.ExpectWithOffset(1, err).NotTo(gomega.HaveOccurred())

	enc := wav.NewEncoder(file, sampleRate, bitDepth, channels, 1)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: channels,
			SampleRate:  sampleRate,
		},
		Data:           samples,
		SourceBitDepth: bitDepth,
	}

	gomega.ExpectWithOffset(1, enc.Write(buf)).To(gomega.Succeed())
	gomega.ExpectWithOffset(1, enc.Close()).To(gomega.Succeed())
	gomega.ExpectWithOffset(1, file.Close()).To(gomega.Succeed())
}

// WriteAIFF writes a 16 bit aiff file for tests.
func WriteAIFF(path string, sampleRate int, channels int, samples []int) {
	file, err := os.Create(path)
	gomega.ExpectWithOffset(1, err).NotTo(gomega.HaveOccurred())

	enc := aiff.NewEncoder(file, sampleRate, 16, channels)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: channels,
			SampleRate:  sampleRate,
		},
		Data:           samples,
		SourceBitDepth: 16,
	}

	gomega.ExpectWithOffset(1, enc.Write(buf)).To(gomega.Succeed())
	gomega.ExpectWithOffset(1, enc.Close()).To(gomega.Succeed())
	gomega.ExpectWithOffset(1, file.Close()).To(gomega.Succeed())
}

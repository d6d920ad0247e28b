package codec

import (
	"encoding/binary"
	"math"

	"github.com/veedubyou/stemsplit/src/splitter/internal/lib/cerr"
)

// BytesToFloats reinterprets a canonical f32le buffer as float32 samples.
func BytesToFloats(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, cerr.Field("buffer_size", len(data)).
			Error("PCM buffer size is not divisible into float32 samples")
	}

	samples := make([]float32, len(data)/4)
	for i := range samples {
		bits := binary.LittleEndian.Uint32(data[i*4:])
		samples[i] = math.Float32frombits(bits)
	}

	return samples, nil
}

// FloatsToBytes packs float32 samples into a canonical f32le buffer.
func FloatsToBytes(samples []float32) []byte {
	data := make([]byte, len(samples)*4)
	for i, sample := range samples {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(sample))
	}

	return data
}

const (
	scale16 = 32768
	scale24 = 8388608
	scale32 = 2147483648
)

// toFloats converts raw sample bytes of the given format into float32
// values scaled to [-1, 1).
func toFloats(data []byte, format SampleFormat) ([]float32, error) {
	size := format.BytesPerSample()
	if size == 0 {
		return nil, cerr.Field("sample_format", format.String()).
			Wrap(ErrUnsupportedFormat).
			Error("Failed to convert samples to float")
	}

	if len(data)%size != 0 {
		return nil, cerr.Fields(cerr.F{
			"buffer_size":   len(data),
			"sample_format": format.String(),
		}).Error("PCM buffer size is not divisible into whole samples")
	}

	samples := make([]float32, len(data)/size)

	switch format {
	case SampleFormatS16LE:
		for i := range samples {
			v := int16(binary.LittleEndian.Uint16(data[i*2:]))
			samples[i] = float32(v) / scale16
		}
	case SampleFormatS16BE:
		for i := range samples {
			v := int16(binary.BigEndian.Uint16(data[i*2:]))
			samples[i] = float32(v) / scale16
		}
	case SampleFormatS24LE:
		for i := range samples {
			v := int32(data[i*3]) | int32(data[i*3+1])<<8 | int32(data[i*3+2])<<16
			if v&0x800000 != 0 {
				v -= 0x1000000
			}
			samples[i] = float32(v) / scale24
		}
	case SampleFormatS32LE:
		for i := range samples {
			v := int32(binary.LittleEndian.Uint32(data[i*4:]))
			samples[i] = float32(float64(v) / scale32)
		}
	case SampleFormatF32LE:
		for i := range samples {
			samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
		}
	}

	return samples, nil
}

// fromFloats converts float32 values scaled to [-1, 1) into raw sample
// bytes of the given format. Out of range values are clipped.
func fromFloats(samples []float32, format SampleFormat) ([]byte, error) {
	size := format.BytesPerSample()
	if size == 0 {
		return nil, cerr.Field("sample_format", format.String()).
			Wrap(ErrUnsupportedFormat).
			Error("Failed to convert samples from float")
	}

	data := make([]byte, len(samples)*size)

	switch format {
	case SampleFormatS16LE:
		for i, sample := range samples {
			v := clipToInt(sample, scale16, -scale16, scale16-1)
			binary.LittleEndian.PutUint16(data[i*2:], uint16(int16(v)))
		}
	case SampleFormatS16BE:
		for i, sample := range samples {
			v := clipToInt(sample, scale16, -scale16, scale16-1)
			binary.BigEndian.PutUint16(data[i*2:], uint16(int16(v)))
		}
	case SampleFormatS24LE:
		for i, sample := range samples {
			v := clipToInt(sample, scale24, -scale24, scale24-1)
			data[i*3] = byte(v)
			data[i*3+1] = byte(v >> 8)
			data[i*3+2] = byte(v >> 16)
		}
	case SampleFormatS32LE:
		for i, sample := range samples {
			v := clipToInt(sample, scale32, -scale32, scale32-1)
			binary.LittleEndian.PutUint32(data[i*4:], uint32(int32(v)))
		}
	case SampleFormatF32LE:
		for i, sample := range samples {
			binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(sample))
		}
	}

	return data, nil
}

func clipToInt(sample float32, scale float64, min int64, max int64) int64 {
	scaled := math.Round(float64(sample) * scale)
	if scaled >= float64(max) {
		return max
	}
	if scaled <= float64(min) {
		return min
	}

	return int64(scaled)
}

// unpackIntSamples widens raw sample bytes into machine ints at their
// native scale, for handoff to container writers.
func unpackIntSamples(data []byte, format SampleFormat) ([]int, error) {
	size := format.BytesPerSample()
	if size == 0 || format == SampleFormatF32LE {
		return nil, cerr.Field("sample_format", format.String()).
			Wrap(ErrUnsupportedFormat).
			Error("Failed to unpack integer samples")
	}

	if len(data)%size != 0 {
		return nil, cerr.Fields(cerr.F{
			"buffer_size":   len(data),
			"sample_format": format.String(),
		}).Error("PCM buffer size is not divisible into whole samples")
	}

	samples := make([]int, len(data)/size)

	switch format {
	case SampleFormatS16LE:
		for i := range samples {
			samples[i] = int(int16(binary.LittleEndian.Uint16(data[i*2:])))
		}
	case SampleFormatS16BE:
		for i := range samples {
			samples[i] = int(int16(binary.BigEndian.Uint16(data[i*2:])))
		}
	case SampleFormatS24LE:
		for i := range samples {
			v := int32(data[i*3]) | int32(data[i*3+1])<<8 | int32(data[i*3+2])<<16
			if v&0x800000 != 0 {
				v -= 0x1000000
			}
			samples[i] = int(v)
		}
	case SampleFormatS32LE:
		for i := range samples {
			samples[i] = int(int32(binary.LittleEndian.Uint32(data[i*4:])))
		}
	}

	return samples, nil
}

// packIntSamples narrows machine ints at their native scale into raw
// sample bytes of the given format.
func packIntSamples(samples []int, format SampleFormat) ([]byte, error) {
	size := format.BytesPerSample()
	if size == 0 || format == SampleFormatF32LE {
		return nil, cerr.Field("sample_format", format.String()).
			Wrap(ErrUnsupportedFormat).
			Error("Failed to pack integer samples")
	}

	data := make([]byte, len(samples)*size)

	switch format {
	case SampleFormatS16LE:
		for i, sample := range samples {
			binary.LittleEndian.PutUint16(data[i*2:], uint16(int16(sample)))
		}
	case SampleFormatS16BE:
		for i, sample := range samples {
			binary.BigEndian.PutUint16(data[i*2:], uint16(int16(sample)))
		}
	case SampleFormatS24LE:
		for i, sample := range samples {
			data[i*3] = byte(sample)
			data[i*3+1] = byte(sample >> 8)
			data[i*3+2] = byte(sample >> 16)
		}
	case SampleFormatS32LE:
		for i, sample := range samples {
			binary.LittleEndian.PutUint32(data[i*4:], uint32(int32(sample)))
		}
	}

	return data, nil
}

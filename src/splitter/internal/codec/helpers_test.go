package codec_test

import (
	"encoding/binary"

	"github.com/veedubyou/stemsplit/src/splitter/internal/codec"
)

func s16leBytes(samples []int) []byte {
	data := make([]byte, len(samples)*2)
	for i, sample := range samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(int16(sample)))
	}

	return data
}

func s16beBytes(samples []int) []byte {
	data := make([]byte, len(samples)*2)
	for i, sample := range samples {
		binary.BigEndian.PutUint16(data[i*2:], uint16(int16(sample)))
	}

	return data
}

func pcmFrame(info codec.AudioInfo, data []byte) *codec.Frame {
	return &codec.Frame{
		Info:        info,
		SampleCount: len(data) / info.BytesPerFrame(),
		Data:        data,
	}
}

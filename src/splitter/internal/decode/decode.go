package decode

import (
	"context"

	"github.com/apex/log"

	"github.com/veedubyou/stemsplit/src/splitter/internal/codec"
	"github.com/veedubyou/stemsplit/src/splitter/internal/lib/cerr"
)

// FileDecoder reads any supported audio file and produces PCM in one
// canonical format.
type FileDecoder struct {
	target codec.AudioInfo
}

func NewFileDecoder(target codec.AudioInfo) FileDecoder {
	return FileDecoder{target: target}
}

// DecodePCM decodes the whole file at path into the decoder's target
// format. It also returns the source stream's parameters as they were
// before decoding, so the encode side can restore them later.
func (d FileDecoder) DecodePCM(ctx context.Context, path string) (codec.StreamParameters, []byte, error) {
	// decoding reads the whole file, if we want to halt now is the time
	if ctx.Err() != nil {
		return codec.StreamParameters{}, nil, cerr.Wrap(ctx.Err()).Error("Context cancelled before decoding could happen")
	}

	errctx := cerr.Field("input_path", path)

	input, err := codec.OpenInput(path)
	if err != nil {
		return codec.StreamParameters{}, nil, errctx.Wrap(err).Error("Failed to open input file")
	}
	defer func() {
		if err := input.Close(); err != nil {
			cerr.Log(err)
		}
	}()

	stream, err := input.BestAudioStream()
	if err != nil {
		return codec.StreamParameters{}, nil, errctx.Wrap(err).Error("Failed to find an audio stream to decode")
	}

	// capture the source parameters now, before any decoding touches them
	source := codec.StreamParameters{
		TimeBase: stream.TimeBase,
		Params:   stream.Params,
	}

	log.WithFields(log.Fields{
		"input_path":  path,
		"codec":       string(stream.Params.Codec),
		"sample_rate": stream.Params.SampleRate,
		"channels":    stream.Params.ChannelLayout.Channels(),
	}).Info("Decoding input")

	decoder, err := codec.NewDecoder(stream.Params)
	if err != nil {
		return codec.StreamParameters{}, nil, errctx.Wrap(err).Error("Failed to open a decoder for the stream")
	}
	defer func() {
		if err := decoder.Close(); err != nil {
			cerr.Log(err)
		}
	}()

	resampler, err := codec.NewResampler(d.target, stream.Params.Info())
	if err != nil {
		return codec.StreamParameters{}, nil, errctx.Wrap(err).Error("Failed to open a resampler for the stream")
	}

	var pcm []byte
	for {
		packet, ok, err := input.ReadPacket()
		if err != nil {
			return codec.StreamParameters{}, nil, errctx.Wrap(err).Error("Failed to read a packet from the input")
		}
		if !ok {
			break
		}

		if packet.StreamIndex != stream.Index {
			continue
		}

		pcm, err = d.decodePacket(decoder, resampler, packet, pcm)
		if err != nil {
			return codec.StreamParameters{}, nil, errctx.Wrap(err).Error("Failed to decode a packet")
		}
	}

	// a nil packet drains the frames still buffered in the decoder
	pcm, err = d.decodePacket(decoder, resampler, nil, pcm)
	if err != nil {
		return codec.StreamParameters{}, nil, errctx.Wrap(err).Error("Failed to flush the decoder")
	}

	log.WithFields(log.Fields{
		"pcm_bytes": len(pcm),
	}).Info("Finished decoding input")

	return source, pcm, nil
}

func (d FileDecoder) decodePacket(decoder codec.Decoder, resampler *codec.Resampler, packet *codec.Packet, pcm []byte) ([]byte, error) {
	if err := decoder.Send(packet); err != nil {
		return nil, cerr.Wrap(err).Error("Failed to send a packet to the decoder")
	}

	for {
		frame, ok, err := decoder.Receive()
		if err != nil {
			return nil, cerr.Wrap(err).Error("Failed to receive a frame from the decoder")
		}
		if !ok {
			return pcm, nil
		}

		converted, err := resampler.Convert(frame)
		if err != nil {
			return nil, cerr.Wrap(err).Error("Failed to resample a decoded frame")
		}

		pcm = append(pcm, converted.Data...)
	}
}

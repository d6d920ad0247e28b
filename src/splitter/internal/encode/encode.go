package encode

import (
	"context"
	"os"

	"github.com/apex/log"

	"github.com/veedubyou/stemsplit/src/splitter/internal/codec"
	"github.com/veedubyou/stemsplit/src/splitter/internal/lib/cerr"
)

// TrackEncoder writes separated tracks back out in the codec and
// container the input arrived in.
type TrackEncoder struct {
	pcmInfo codec.AudioInfo
}

// NewTrackEncoder takes the canonical format that track PCM arrives in.
func NewTrackEncoder(pcmInfo codec.AudioInfo) TrackEncoder {
	return TrackEncoder{pcmInfo: pcmInfo}
}

// EncodePCM restores one track to the source stream's codec and writes
// it to outputPath. A failed encode removes the partial output file.
func (e TrackEncoder) EncodePCM(ctx context.Context, pcm []byte, source codec.StreamParameters, outputPath string) error {
	// encoding writes the whole track, if we want to halt now is the time
	if ctx.Err() != nil {
		return cerr.Wrap(ctx.Err()).Error("Context cancelled before encoding could happen")
	}

	errctx := cerr.Field("output_path", outputPath)

	if len(pcm)%e.pcmInfo.BytesPerFrame() != 0 {
		return errctx.Field("pcm_bytes", len(pcm)).
			Error("Failed to encode pcm that does not divide into whole frames")
	}

	// refuse before touching the filesystem when the source codec cannot
	// be encoded back
	if !codec.HasEncoder(source.Params.Codec) {
		return errctx.Field("codec", string(source.Params.Codec)).
			Wrap(codec.ErrEncoderNotFound).
			Error("Failed to find an encoder to restore the source codec")
	}

	oc, err := codec.CreateOutput(outputPath)
	if err != nil {
		return errctx.Wrap(err).Error("Failed to create the output container")
	}

	success := false
	defer func() {
		if err := oc.Close(); err != nil {
			cerr.Log(err)
		}
		if !success {
			// leave no partial file behind on a failed encode
			if err := os.Remove(outputPath); err != nil {
				cerr.Log(errctx.Wrap(err).Error("Failed to remove a partial output file"))
			}
		}
	}()

	timeBase := codec.NewRational(1, source.Params.SampleRate)
	enc, err := codec.NewEncoder(codec.EncoderConfig{
		Params:       source.Params,
		TimeBase:     timeBase,
		GlobalHeader: oc.NeedsGlobalHeader(),
	})
	if err != nil {
		return errctx.Wrap(err).Error("Failed to open an encoder for the source codec")
	}
	defer func() {
		if err := enc.Close(); err != nil {
			cerr.Log(err)
		}
	}()

	// the stream carries the encoder's own parameters, extradata included,
	// but keeps the source stream's time base
	if _, err := oc.NewStream(enc.Parameters(), source.TimeBase); err != nil {
		return errctx.Wrap(err).Error("Failed to add the restored stream to the output")
	}

	if err := oc.WriteHeader(); err != nil {
		return errctx.Wrap(err).Error("Failed to write the container header")
	}

	resampler, err := codec.NewResampler(enc.Parameters().Info(), e.pcmInfo)
	if err != nil {
		return errctx.Wrap(err).Error("Failed to open a resampler for the track")
	}

	sampleCount := len(pcm) / e.pcmInfo.BytesPerFrame()
	converted, err := resampler.Convert(&codec.Frame{
		Info:        e.pcmInfo,
		SampleCount: sampleCount,
		Data:        pcm,
	})
	if err != nil {
		return errctx.Wrap(err).Error("Failed to resample the track into the source format")
	}

	tail, err := resampler.Flush()
	if err != nil {
		return errctx.Wrap(err).Error("Failed to flush the resampler")
	}

	data := converted.Data
	if tail != nil && len(tail.Data) > 0 {
		data = append(data, tail.Data...)
	}

	encInfo := enc.Parameters().Info()
	bytesPerFrame := encInfo.BytesPerFrame()
	frameSize := enc.FrameSize()
	totalSamples := len(data) / bytesPerFrame

	var pts int64
	for offset := 0; offset < totalSamples; offset += frameSize {
		count := frameSize
		if remaining := totalSamples - offset; remaining < count {
			count = remaining
		}

		frame := &codec.Frame{
			Info:        encInfo,
			SampleCount: count,
			PTS:         pts,
			Data:        data[offset*bytesPerFrame : (offset+count)*bytesPerFrame],
		}

		if err := enc.Send(frame); err != nil {
			return errctx.Wrap(err).Error("Failed to send a frame to the encoder")
		}
		pts += int64(count)

		if err := writePackets(oc, enc, timeBase, source.TimeBase); err != nil {
			return errctx.Wrap(err).Error("Failed to write encoded packets")
		}
	}

	// a nil frame flushes whatever the encoder still holds
	if err := enc.Send(nil); err != nil {
		return errctx.Wrap(err).Error("Failed to flush the encoder")
	}
	if err := writePackets(oc, enc, timeBase, source.TimeBase); err != nil {
		return errctx.Wrap(err).Error("Failed to write encoded packets")
	}

	if err := oc.WriteTrailer(); err != nil {
		return errctx.Wrap(err).Error("Failed to write the container trailer")
	}

	success = true

	log.WithFields(log.Fields{
		"output_path": outputPath,
		"codec":       string(source.Params.Codec),
	}).Info("Finished encoding track")

	return nil
}

func writePackets(oc *codec.OutputContext, enc codec.Encoder, encoderTimeBase codec.Rational, streamTimeBase codec.Rational) error {
	for {
		packet, ok, err := enc.Receive()
		if err != nil {
			return cerr.Wrap(err).Error("Failed to receive a packet from the encoder")
		}
		if !ok {
			return nil
		}

		packet.RescaleTS(encoderTimeBase, streamTimeBase)
		if err := oc.WritePacket(packet); err != nil {
			return cerr.Wrap(err).Error("Failed to write a packet to the output")
		}
	}
}

package pipeline

import (
	"context"
	"path/filepath"

	"github.com/apex/log"
	"golang.org/x/sync/errgroup"

	"github.com/veedubyou/stemsplit/src/splitter/internal/codec"
	"github.com/veedubyou/stemsplit/src/splitter/internal/lib/cerr"
	"github.com/veedubyou/stemsplit/src/splitter/internal/separation"
)

// AudioDecoder produces canonical PCM plus the source stream's
// parameters from a file on disk.
type AudioDecoder interface {
	DecodePCM(ctx context.Context, path string) (codec.StreamParameters, []byte, error)
}

// Splitter runs separation over the full PCM stream.
type Splitter interface {
	SplitPCM(ctx context.Context, samples []float32, info codec.AudioInfo, model separation.ModelInfo) ([][]float32, error)
}

// StemEncoder writes one stem back to disk in the source format.
type StemEncoder interface {
	EncodePCM(ctx context.Context, pcm []byte, source codec.StreamParameters, outputPath string) error
}

// Runner drives one file through decode, separation, and encode.
type Runner struct {
	decoder        AudioDecoder
	splitter       Splitter
	encoder        StemEncoder
	paths          PathGenerator
	pcmInfo        codec.AudioInfo
	parallelEncode bool
}

func NewRunner(decoder AudioDecoder, splitter Splitter, encoder StemEncoder, paths PathGenerator, pcmInfo codec.AudioInfo, parallelEncode bool) Runner {
	return Runner{
		decoder:        decoder,
		splitter:       splitter,
		encoder:        encoder,
		paths:          paths,
		pcmInfo:        pcmInfo,
		parallelEncode: parallelEncode,
	}
}

// Run splits the file at inputPath into one output file per stem and
// returns the written paths in the model's track order.
func (r Runner) Run(ctx context.Context, inputPath string, model separation.ModelInfo) ([]string, error) {
	errctx := cerr.Fields(cerr.F{
		"input_path": inputPath,
		"model_name": model.Name,
	})

	// the extension decides the output container, a path without one
	// cannot be restored
	extension := filepath.Ext(inputPath)
	if extension == "" {
		return nil, errctx.Error("Audio path with no extension provided")
	}

	source, pcm, err := r.decoder.DecodePCM(ctx, inputPath)
	if err != nil {
		return nil, errctx.Wrap(err).Error("Failed to decode the input into pcm")
	}

	samples, err := codec.BytesToFloats(pcm)
	if err != nil {
		return nil, errctx.Wrap(err).Error("Failed to read the decoded pcm as samples")
	}

	tracks, err := r.splitter.SplitPCM(ctx, samples, r.pcmInfo, model)
	if err != nil {
		return nil, errctx.Wrap(err).Error("Failed to split the pcm into tracks")
	}

	trackNames := model.TrackNames()
	outputPaths := make([]string, len(trackNames))
	for i, trackName := range trackNames {
		outputPaths[i] = r.paths.TrackPath(trackName, extension)
	}

	if r.parallelEncode {
		err = r.encodeParallel(ctx, tracks, source, outputPaths)
	} else {
		err = r.encodeSequential(ctx, tracks, source, outputPaths)
	}
	if err != nil {
		return nil, errctx.Wrap(err).Error("Failed to encode the separated tracks")
	}

	return outputPaths, nil
}

func (r Runner) encodeSequential(ctx context.Context, tracks [][]float32, source codec.StreamParameters, outputPaths []string) error {
	for i, track := range tracks {
		if err := r.encodeTrack(ctx, track, source, outputPaths[i]); err != nil {
			return err
		}
	}

	return nil
}

func (r Runner) encodeParallel(ctx context.Context, tracks [][]float32, source codec.StreamParameters, outputPaths []string) error {
	group, groupCtx := errgroup.WithContext(ctx)
	for i, track := range tracks {
		group.Go(func() error {
			return r.encodeTrack(groupCtx, track, source, outputPaths[i])
		})
	}

	return group.Wait()
}

func (r Runner) encodeTrack(ctx context.Context, track []float32, source codec.StreamParameters, outputPath string) error {
	log.Infof("Writing: %s", outputPath)

	pcm := codec.FloatsToBytes(track)
	if err := r.encoder.EncodePCM(ctx, pcm, source, outputPath); err != nil {
		return cerr.Field("output_path", outputPath).
			Wrap(err).
			Error("Failed to encode a track")
	}

	return nil
}

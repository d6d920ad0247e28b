package application

import (
	"context"

	"github.com/apex/log"

	"github.com/veedubyou/stemsplit/src/splitter/internal/codec"
	"github.com/veedubyou/stemsplit/src/splitter/internal/decode"
	"github.com/veedubyou/stemsplit/src/splitter/internal/encode"
	"github.com/veedubyou/stemsplit/src/splitter/internal/lib/cerr"
	"github.com/veedubyou/stemsplit/src/splitter/internal/pipeline"
	"github.com/veedubyou/stemsplit/src/splitter/internal/separation"
	"github.com/veedubyou/stemsplit/src/splitter/internal/split"
)

// the pretrained models consume f32le stereo at this rate
const modelSampleRate = 44100

type Config struct {
	InputPath      string
	OutputDir      string
	ModelName      string
	ModelsDir      string
	ParallelEncode bool
}

type App struct {
	config  Config
	pcmInfo codec.AudioInfo
}

func NewApp(config Config) App {
	return App{
		config:  config,
		pcmInfo: codec.NewPCMInfo(modelSampleRate),
	}
}

func (a *App) Start(ctx context.Context) error {
	model, err := separation.Lookup(a.config.ModelName)
	if err != nil {
		return cerr.Wrap(err).Error("Failed to look up the requested model")
	}

	// the model loads here rather than at construction, so a missing or
	// broken model bundle surfaces as an error instead of a panic
	separator, err := separation.NewTensorFlowSeparator(a.config.ModelsDir, model)
	if err != nil {
		return cerr.Wrap(err).Error("Failed to load the separation model")
	}
	defer func() {
		if err := separator.Close(); err != nil {
			cerr.Log(err)
		}
	}()

	runner := newRunner(a.config, separator, a.pcmInfo)

	outputPaths, err := runner.Run(ctx, a.config.InputPath, model)
	if err != nil {
		return cerr.Wrap(err).Error("Failed to split the track")
	}

	log.WithField("output_paths", outputPaths).Info("Finished splitting track")

	return nil
}

func newRunner(config Config, separator separation.Separator, pcmInfo codec.AudioInfo) pipeline.Runner {
	return pipeline.NewRunner(
		decode.NewFileDecoder(pcmInfo),
		split.NewTrackSplitter(separator),
		encode.NewTrackEncoder(pcmInfo),
		pipeline.PathGenerator{OutputDir: config.OutputDir},
		pcmInfo,
		config.ParallelEncode,
	)
}

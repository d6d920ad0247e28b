package separation

import (
	"path/filepath"

	"github.com/apex/log"
	tf "github.com/wamuir/graft/tensorflow"

	"github.com/veedubyou/stemsplit/src/splitter/internal/lib/cerr"
)

const (
	savedModelTag = "serve"
	inputBinding  = "Placeholder"
)

// TensorFlowSeparator runs a pretrained spleeter graph through the
// tensorflow C bindings. One separator holds one loaded model.
type TensorFlowSeparator struct {
	model     *tf.SavedModel
	inputOp   tf.Output
	outputOps []tf.Output
}

var _ Separator = &TensorFlowSeparator{}

// NewTensorFlowSeparator loads the saved model bundle for the given
// model and resolves its bindings. The model lives in a directory named
// after the model under modelsDir.
func NewTensorFlowSeparator(modelsDir string, info ModelInfo) (*TensorFlowSeparator, error) {
	modelPath := filepath.Join(modelsDir, info.Name)

	log.WithFields(log.Fields{
		"model_path": modelPath,
		"tensorflow": tf.Version(),
	}).Info("Loading model")

	model, err := tf.LoadSavedModel(modelPath, []string{savedModelTag}, nil)
	if err != nil {
		return nil, cerr.Field("model_path", modelPath).
			Wrap(err).
			Mark(ErrModelLoad).
			Error("Failed to load saved model")
	}

	success := false
	defer func() {
		if !success {
			_ = model.Session.Close()
		}
	}()

	inputOp, err := resolveBinding(model, inputBinding)
	if err != nil {
		return nil, err
	}

	outputOps := make([]tf.Output, 0, len(info.Tracks))
	for _, track := range info.Tracks {
		op, err := resolveBinding(model, track.OutputBinding)
		if err != nil {
			return nil, err
		}
		outputOps = append(outputOps, op)
	}

	success = true
	return &TensorFlowSeparator{
		model:     model,
		inputOp:   inputOp,
		outputOps: outputOps,
	}, nil
}

func resolveBinding(model *tf.SavedModel, name string) (tf.Output, error) {
	op := model.Graph.Operation(name)
	if op == nil {
		return tf.Output{}, cerr.Field("binding_name", name).
			Wrap(ErrBindingNotFound).
			Error("Failed to find binding in the model graph")
	}

	return op.Output(0), nil
}

func (t *TensorFlowSeparator) Separate(samples []float32, frames int, channels int) ([][]float32, error) {
	if frames*channels != len(samples) {
		return nil, cerr.Fields(cerr.F{
			"frames":   frames,
			"channels": channels,
			"samples":  len(samples),
		}).Wrap(ErrInference).Error("Failed to run inference on mismatched sample dimensions")
	}

	// the graph wants a frames x channels matrix, which the interleaved
	// buffer already is once resliced row by row
	rows := make([][]float32, frames)
	for i := range rows {
		rows[i] = samples[i*channels : (i+1)*channels : (i+1)*channels]
	}

	input, err := tf.NewTensor(rows)
	if err != nil {
		return nil, cerr.Wrap(err).Mark(ErrInference).Error("Failed to build input tensor")
	}

	results, err := t.model.Session.Run(
		map[tf.Output]*tf.Tensor{t.inputOp: input},
		t.outputOps,
		nil,
	)
	if err != nil {
		return nil, cerr.Wrap(err).Mark(ErrInference).Error("Failed to run model inference")
	}

	if len(results) != len(t.outputOps) {
		return nil, cerr.Fields(cerr.F{
			"want_outputs": len(t.outputOps),
			"got_outputs":  len(results),
		}).Wrap(ErrOutputShape).Error("Failed to receive one output tensor per track")
	}

	outputs := make([][]float32, 0, len(results))
	for _, result := range results {
		rows, ok := result.Value().([][]float32)
		if !ok {
			return nil, cerr.Wrap(ErrOutputShape).Error("Failed to read output tensor as audio samples")
		}

		flattened, err := flattenRows(rows, frames, channels)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, flattened)
	}

	return outputs, nil
}

func flattenRows(rows [][]float32, frames int, channels int) ([]float32, error) {
	if len(rows) != frames {
		return nil, cerr.Fields(cerr.F{
			"want_frames": frames,
			"got_frames":  len(rows),
		}).Wrap(ErrOutputShape).Error("Failed to validate output tensor length")
	}

	samples := make([]float32, 0, frames*channels)
	for _, row := range rows {
		if len(row) != channels {
			return nil, cerr.Fields(cerr.F{
				"want_channels": channels,
				"got_channels":  len(row),
			}).Wrap(ErrOutputShape).Error("Failed to validate output tensor width")
		}
		samples = append(samples, row...)
	}

	return samples, nil
}

func (t *TensorFlowSeparator) Close() error {
	if err := t.model.Session.Close(); err != nil {
		return cerr.Wrap(err).Error("Failed to close model session")
	}

	return nil
}

package separation

import (
	"github.com/cockroachdb/errors"
)

var (
	// ErrUnknownModel means the requested model name is not in the catalog.
	ErrUnknownModel = errors.New("unknown model name")
	// ErrBindingNotFound means the loaded graph is missing an expected
	// input or output node.
	ErrBindingNotFound = errors.New("binding not found in model graph")
	// ErrModelLoad covers failures while loading the saved model bundle.
	ErrModelLoad = errors.New("model failed to load")
	// ErrInference covers failures while running the model session.
	ErrInference = errors.New("model inference failed")
	// ErrOutputShape means the model produced tensors that do not line up
	// with the audio that was fed in.
	ErrOutputShape = errors.New("model output shape mismatch")
)

package classify

import "errors"

var (
	// ErrDimension indicates an input vector that does not match the model.
	ErrDimension = errors.New("classify: input dimension mismatch")

	// ErrEmptyDataset indicates a training directory with no usable images.
	ErrEmptyDataset = errors.New("classify: no training images found")

	// ErrNoModel indicates a prediction attempted without a loaded model.
	ErrNoModel = errors.New("classify: model not loaded")
)

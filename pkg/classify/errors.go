package classify

import (
	"errors"
	"fmt"
)

// Sentinel errors for classification.
var (
	// ErrNoResults is returned when the engine produced no observations.
	ErrNoResults = errors.New("classify: no observations")

	// ErrUnknownEngine is returned by LoadModel for unregistered engines.
	ErrUnknownEngine = errors.New("classify: unknown engine")

	// ErrEmptyFrame is returned for frames without pixels.
	ErrEmptyFrame = errors.New("classify: empty frame")

	// ErrClosed is returned by a classifier after Close.
	ErrClosed = errors.New("classify: classifier closed")
)

// ModelLoadError reports that the classifier could not be loaded.
// The application has no purpose without a model, so callers treat it as
// fatal.
type ModelLoadError struct {
	// Engine is the engine that failed.
	Engine string

	// Path is the model file, if any.
	Path string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *ModelLoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("classify [%s]: load model %s: %v", e.Engine, e.Path, e.Err)
	}
	return fmt.Sprintf("classify [%s]: load model: %v", e.Engine, e.Err)
}

// Unwrap returns the underlying error.
func (e *ModelLoadError) Unwrap() error {
	return e.Err
}

// ClassificationError reports that a single frame could not be classified.
// It is never fatal: the frame is dropped and the previous verdict stays.
type ClassificationError struct {
	// Seq is the frame sequence number.
	Seq uint64

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classify: frame %d: %v", e.Seq, e.Err)
}

// Unwrap returns the underlying error.
func (e *ClassificationError) Unwrap() error {
	return e.Err
}

// IsModelLoadError reports whether err is or wraps a ModelLoadError.
func IsModelLoadError(err error) bool {
	var me *ModelLoadError
	return errors.As(err, &me)
}

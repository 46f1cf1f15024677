package documents

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is matched by every ValidationError.
var ErrInvalidInput = errors.New("invalid input")

// ErrDecode indicates structured output from the generative service could not be parsed.
var ErrDecode = errors.New("malformed structured output")

// ErrUnsupportedMediaType is returned for uploads and extractions of types we do not handle.
var ErrUnsupportedMediaType = errors.New("unsupported media type")

// ValidationError carries a message that is safe to show to the caller.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// Invalid builds a ValidationError.
func Invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// UpstreamError wraps a failed collaborator call with the pipeline stage it happened in.
type UpstreamError struct {
	Stage Stage
	Err   error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Upstream wraps err for stage; nil stays nil.
func Upstream(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	return &UpstreamError{Stage: stage, Err: err}
}

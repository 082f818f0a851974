package batch

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFormat marks inputs whose extension has no codec.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrDecode marks inputs that could not be opened or decoded.
	ErrDecode = errors.New("decode failed")
	// ErrEncode marks outputs that could not be encoded or written.
	ErrEncode = errors.New("encode failed")
	// ErrPoolInit marks a worker pool that could not start or broke while
	// running. RunParallel answers it by rerunning the batch sequentially.
	ErrPoolInit = errors.New("worker pool failed")
	// ErrInvalidRequest wraps Request validation failures.
	ErrInvalidRequest = errors.New("invalid request")
)

// ErrorKind classifies a per-file failure.
type ErrorKind string

const (
	KindUnsupported ErrorKind = "unsupported"
	KindDecode      ErrorKind = "decode"
	KindEncode      ErrorKind = "encode"
	KindInternal    ErrorKind = "internal"
)

// metricStatus is the task status label recorded for the kind.
func (k ErrorKind) metricStatus() string {
	switch k {
	case KindUnsupported:
		return "error_unsupported"
	case KindDecode:
		return "error_decode"
	case KindEncode:
		return "error_encode"
	default:
		return "error"
	}
}

// TaskError is a failure of a single image task.
type TaskError struct {
	Kind ErrorKind
	Path string
	Err  error
}

func (e *TaskError) Error() string {
	return e.Err.Error()
}

func (e *TaskError) Unwrap() error {
	return e.Err
}

func newTaskError(kind ErrorKind, path string, sentinel, cause error) *TaskError {
	if cause == nil {
		return &TaskError{Kind: kind, Path: path, Err: sentinel}
	}
	return &TaskError{Kind: kind, Path: path, Err: fmt.Errorf("%w: %w", sentinel, cause)}
}

// kindOf returns the ErrorKind carried by err, or KindInternal.
func kindOf(err error) ErrorKind {
	var te *TaskError
	if errors.As(err, &te) {
		return te.Kind
	}
	return KindInternal
}

package gpu

import (
	"errors"
	"fmt"
)

// ErrorCode is a backend error flag value.
type ErrorCode uint32

// Error codes shared by all backends, numerically equal to the OpenGL ones.
const (
	NoError                     ErrorCode = 0
	InvalidEnum                 ErrorCode = 0x0500
	InvalidValue                ErrorCode = 0x0501
	InvalidOperation            ErrorCode = 0x0502
	StackOverflow               ErrorCode = 0x0503
	StackUnderflow              ErrorCode = 0x0504
	OutOfMemory                 ErrorCode = 0x0505
	InvalidFramebufferOperation ErrorCode = 0x0506
)

func (c ErrorCode) Error() string {
	switch c {
	case NoError:
		return "no error"
	case InvalidEnum:
		return "invalid enumerant"
	case InvalidValue:
		return "invalid value"
	case InvalidOperation:
		return "invalid operation"
	case StackOverflow:
		return "stack overflow"
	case StackUnderflow:
		return "stack underflow"
	case OutOfMemory:
		return "out of memory"
	case InvalidFramebufferOperation:
		return "invalid framebuffer operation"
	}
	return fmt.Sprintf("error 0x%04x", uint32(c))
}

// IncompleteError reports a framebuffer that failed validation.
type IncompleteError struct {
	Status uint32
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("framebuffer incomplete: 0x%x", e.Status)
}

// BackendError is a fatal backend failure detected at a checkpoint.
type BackendError struct {
	Checkpoint string
	Err        error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend error at %s: %v", e.Checkpoint, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// Check polls the error flag of b and wraps a pending error in a
// BackendError tagged with checkpoint.
func Check(b Backend, checkpoint string) error {
	if err := b.Err(); err != nil {
		return &BackendError{Checkpoint: checkpoint, Err: err}
	}
	return nil
}

// IsBackendError reports whether err carries a BackendError.
func IsBackendError(err error) bool {
	var be *BackendError
	return errors.As(err, &be)
}

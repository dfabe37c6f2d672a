package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent importer failures.
// The typed errors below wrap one of these so callers can use errors.Is.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown handler, parser or engine type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrConfiguration indicates an invalid handler parameter.
	// Raised at construction time, never while processing documents.
	ErrConfiguration = errors.New("configuration error")

	// ErrStreamRead indicates content could not be read.
	ErrStreamRead = errors.New("stream read error")

	// ErrHandler indicates a handler predicate or rewrite failed.
	ErrHandler = errors.New("handler processing error")
)

// ConfigurationError reports an invalid handler parameter.
type ConfigurationError struct {
	// Handler is the handler name, when known.
	Handler string

	// Param is the offending parameter.
	Param string

	// Err is the underlying cause.
	Err error
}

func (e *ConfigurationError) Error() string {
	msg := "invalid " + e.Param
	if e.Handler != "" {
		msg = e.Handler + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *ConfigurationError) Unwrap() error { return e.Err }

// Is matches ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// StreamReadError reports an I/O failure while reading document content.
type StreamReadError struct {
	// Reference is the document being read.
	Reference string

	// Err is the I/O error.
	Err error
}

func (e *StreamReadError) Error() string {
	return fmt.Sprintf("reading content of %q: %v", e.Reference, e.Err)
}

// Unwrap returns the I/O error.
func (e *StreamReadError) Unwrap() error { return e.Err }

// Is matches ErrStreamRead.
func (e *StreamReadError) Is(target error) bool { return target == ErrStreamRead }

// HandlerProcessingError reports a failing handler predicate or rewrite.
type HandlerProcessingError struct {
	// Handler is the handler name.
	Handler string

	// Reference is the document being processed.
	Reference string

	// Err is the underlying cause.
	Err error
}

func (e *HandlerProcessingError) Error() string {
	return fmt.Sprintf("handler %s failed on %q: %v", e.Handler, e.Reference, e.Err)
}

// Unwrap returns the underlying cause.
func (e *HandlerProcessingError) Unwrap() error { return e.Err }

// Is matches ErrHandler.
func (e *HandlerProcessingError) Is(target error) bool { return target == ErrHandler }

// WrapHandlerError wraps err as a HandlerProcessingError unless it already
// is a stream or handler error, which pass through unchanged.
func WrapHandlerError(handler, reference string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStreamRead) || errors.Is(err, ErrHandler) {
		return err
	}
	return &HandlerProcessingError{Handler: handler, Reference: reference, Err: err}
}

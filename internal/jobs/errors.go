package jobs

import (
	"errors"
	"fmt"
)

// Kind is a stable machine-readable error label. Collaborator failures are
// translated into one of these at the boundary of the component that made
// the call; raw collaborator errors never reach API responses.
type Kind string

const (
	KindUnauthenticated    Kind = "unauthenticated"
	KindAccessDenied       Kind = "access_denied"
	KindInvalidRequest     Kind = "invalid_request"
	KindFileTooLarge       Kind = "file_too_large"
	KindExtractionFailed   Kind = "extraction_failed"
	KindStorageUnavailable Kind = "storage_unavailable"
	KindProviderError      Kind = "provider_error"
	KindPersistenceFailure Kind = "persistence_failure"
	KindNotFound           Kind = "not_found"
)

// Error pairs a Kind with a human-readable sentence and optional
// kind-specific fields for the response body.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]any
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// E builds a taxonomy error.
func E(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WithCause attaches the underlying collaborator error for logs; it is
// never serialized into responses.
func (e *Error) WithCause(err error) *Error {
	e.cause = err
	return e
}

// WithField attaches a response-body detail field.
func (e *Error) WithField(key string, value any) *Error {
	if e.Fields == nil {
		e.Fields = map[string]any{}
	}
	e.Fields[key] = value
	return e
}

// AsError unwraps err into a taxonomy *Error if it carries one.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the taxonomy kind of err, or "" for untyped errors.
func KindOf(err error) Kind {
	if e, ok := AsError(err); ok {
		return e.Kind
	}
	return ""
}

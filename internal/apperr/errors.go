// Package apperr defines the error taxonomy shared by the pipeline stages.
package apperr

import (
	"errors"
	"net/http"
)

// Error kinds. Each typed Error matches exactly one of them with errors.Is.
var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrCorruptDocument   = errors.New("corrupt document")
	ErrNotConfigured     = errors.New("tokenizer not configured")
	ErrTimeout           = errors.New("timeout")
	ErrNetwork           = errors.New("network error")
	ErrService           = errors.New("service error")
	ErrInvalidResponse   = errors.New("invalid response")
	ErrUnknown           = errors.New("unknown error")
)

var codes = map[error]string{
	ErrUnsupportedFormat: "UNSUPPORTED_FORMAT",
	ErrCorruptDocument:   "CORRUPT_DOCUMENT",
	ErrNotConfigured:     "NOT_CONFIGURED",
	ErrTimeout:           "TIMEOUT",
	ErrNetwork:           "NETWORK_ERROR",
	ErrService:           "SERVICE_ERROR",
	ErrInvalidResponse:   "INVALID_RESPONSE",
	ErrUnknown:           "UNKNOWN",
}

// Error is a classified failure. Message is safe to show to end users;
// the underlying cause, if any, is kept in Err.
type Error struct {
	Kind       error
	Message    string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the error's kind sentinel.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

// New creates a classified error.
func New(kind error, message string, cause error) *Error {
	if _, ok := codes[kind]; !ok {
		kind = ErrUnknown
	}
	return &Error{Kind: kind, Message: message, Err: cause}
}

// Wrap classifies err. Errors that already carry a kind are returned as is,
// anything else becomes ErrUnknown with the original message preserved.
func Wrap(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return &Error{Kind: ErrUnknown, Message: err.Error(), Err: err}
}

// KindOf returns the kind sentinel of err, or ErrUnknown.
func KindOf(err error) error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ErrUnknown
}

// Code returns the machine-readable code for err.
func Code(err error) string {
	if err == nil {
		return ""
	}
	return codes[KindOf(err)]
}

// HTTPStatus maps err to the status code an HTTP surface should answer with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case ErrUnsupportedFormat:
		return http.StatusUnsupportedMediaType
	case ErrCorruptDocument:
		return http.StatusUnprocessableEntity
	case ErrNotConfigured:
		return http.StatusServiceUnavailable
	case ErrTimeout:
		return http.StatusGatewayTimeout
	case ErrNetwork, ErrService, ErrInvalidResponse:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

package errors

import (
	"errors"
	"net/http"
)

// Error kinds. Every error produced by the service and storage layers wraps
// one of these, so callers can branch with errors.Is.
var (
	ErrValidation         = errors.New("validation error")
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("incorrect password")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// default error is internal service error at handler level
// if error has different status code use ErrorWithStatusCode
type ErrorWithStatusCode struct {
	Message    string
	StatusCode int
	Kind       error
}

func (e *ErrorWithStatusCode) Error() string {
	return e.Message
}

func (e *ErrorWithStatusCode) Unwrap() error {
	return e.Kind
}

func Validation(message string) error {
	return &ErrorWithStatusCode{Message: message, StatusCode: http.StatusBadRequest, Kind: ErrValidation}
}

func NotFound(message string) error {
	return &ErrorWithStatusCode{Message: message, StatusCode: http.StatusNotFound, Kind: ErrNotFound}
}

func Forbidden() error {
	return &ErrorWithStatusCode{Message: ErrForbidden.Error(), StatusCode: http.StatusForbidden, Kind: ErrForbidden}
}

// Unavailable wraps a storage failure. The cause is kept for logs only, the
// message shown to clients stays generic.
func Unavailable(cause error) error {
	return &unavailableError{cause: cause}
}

type unavailableError struct {
	cause error
}

func (e *unavailableError) Error() string {
	return ErrStorageUnavailable.Error() + ": " + e.cause.Error()
}

func (e *unavailableError) Unwrap() []error {
	return []error{ErrStorageUnavailable, e.cause}
}

// StatusCode returns the HTTP status for err. Unknown errors map to 500.
func StatusCode(err error) int {
	var withStatus *ErrorWithStatusCode
	if errors.As(err, &withStatus) {
		return withStatus.StatusCode
	}
	if errors.Is(err, ErrStorageUnavailable) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

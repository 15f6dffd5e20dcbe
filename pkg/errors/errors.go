// Package errors defines the sentinel errors shared by the engine, the query
// path and the HTTP surface, plus an AppError carrying an HTTP status.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrConfiguration covers unknown term-frequency strategies and weighting
	// requested out of order. It is fatal for the operation that raised it.
	ErrConfiguration = errors.New("configuration error")
	// ErrNotReady is returned when augmented weighting runs before the
	// document's max term frequency is known, and when a query arrives before
	// the index has been finalized.
	ErrNotReady = errors.New("not ready")
	// ErrPhase is returned for mutations after the engine reached READY.
	ErrPhase            = errors.New("invalid engine phase")
	ErrEmptyDocument    = errors.New("document has no usable terms")
	ErrDegenerateVector = errors.New("cosine similarity undefined for zero-length vector")
	ErrDocumentNotFound = errors.New("document not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrInternal         = errors.New("internal error")
	ErrTimeout          = errors.New("operation timed out")
)

type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// IsConfiguration reports whether err belongs to the configuration class,
// which includes weighting requested before a document is ready.
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration) || errors.Is(err, ErrNotReady)
}

func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrDocumentNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotReady), errors.Is(err, ErrTimeout):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrDegenerateVector):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrPhase):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

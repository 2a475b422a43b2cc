// Package errors defines the error taxonomy shared by the CLI and the tally
// service. Configuration errors are detected before any resource is created;
// resource errors abort a run after a clean unwind; extraction anomalies are
// local to a single line and never fatal.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrConfiguration covers bad arguments: wrong arity, a worker count
	// that is zero or negative, an unusable delimiter.
	ErrConfiguration = errors.New("configuration error")
	// ErrResource covers an unreadable corpus or a failed backing store.
	ErrResource = errors.New("resource error")
	// ErrExtraction marks a line that yielded no recognizable key.
	ErrExtraction = errors.New("extraction anomaly")

	ErrSnapshotNotFound = errors.New("snapshot not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrTimeout          = errors.New("operation timed out")
	ErrInternal         = errors.New("internal error")
)

// AppError pairs a sentinel with a human-readable message and, for the
// service surface, an HTTP status code.
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

// New wraps a sentinel error with a status code and message.
func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Newf is New with a formatted message.
func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// HTTPStatusCode maps an error to the status code the service responds with.
func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrSnapshotNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConfiguration), errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ExitCode maps an error to the CLI process exit status: 2 for configuration
// errors (caught before any work starts), 1 for everything else.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if errors.Is(err, ErrConfiguration) {
		return 2
	}
	return 1
}

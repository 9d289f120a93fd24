package common

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Error kinds. Mapping failures are a data state (red badge), not an error.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrExtraction   = errors.New("extraction failed")
	ErrStructuring  = errors.New("structuring failed")
	ErrNetwork      = errors.New("network error")
	ErrValidation   = errors.New("validation failed")
	ErrDatabase     = errors.New("database error")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func ExtractionError(message string, cause error) error {
	return NewAppError("EXTRACTION_ERROR", message, errors.Join(ErrExtraction, cause))
}

func StructuringError(message string, cause error) error {
	return NewAppError("STRUCTURING_ERROR", message, errors.Join(ErrStructuring, cause))
}

// HTTPStatusError carries a non-2xx response from an upstream service.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("non-2xx status: %d: %s", e.StatusCode, e.Body)
}

// NetworkError wraps a transport failure so callers can detect ErrNetwork.
func NetworkError(message string, cause error) error {
	return NewAppError("NETWORK_ERROR", message, errors.Join(ErrNetwork, cause))
}

// IsRetryable reports whether err is a transient upstream failure worth one more try:
// transport errors, timeouts, 429 and 5xx. Caller cancellation is never retried.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var se *HTTPStatusError
	if errors.As(err, &se) {
		return se.StatusCode == 429 || se.StatusCode >= 500
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	return errors.Is(err, ErrNetwork) || errors.Is(err, context.DeadlineExceeded)
}

package models

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Validation reasons reported by ValidationError.
const (
	ReasonEmpty     = "empty"
	ReasonMalformed = "malformed"
)

// DefaultRequestErrorMessage is shown when the backend gives no reason.
const DefaultRequestErrorMessage = "Scraping failed"

// ErrBusy is returned when a submission arrives while another request is
// still in flight. It is not a top-level error state: the in-flight request
// is unaffected.
var ErrBusy = errors.New("a scrape request is already in flight")

// ValidationError reports operator input that was rejected before any
// network call.
type ValidationError struct {
	Reason string
	Input  string
}

func (e *ValidationError) Error() string {
	switch e.Reason {
	case ReasonEmpty:
		return "Please enter a URL"
	case ReasonMalformed:
		return "Please enter a valid URL (must start with http:// or https://)"
	default:
		return fmt.Sprintf("invalid input: %s", e.Reason)
	}
}

// NewValidationError creates a new ValidationError.
func NewValidationError(reason, input string) *ValidationError {
	return &ValidationError{Reason: reason, Input: input}
}

// RequestError reports a transport failure, a non-success backend status,
// or a response body that could not be turned into a valid result.
type RequestError struct {
	// Message is user-displayable and never empty.
	Message string

	// StatusCode is the backend HTTP status, zero on transport failure.
	StatusCode int

	Err error // wrapped original error
}

func (e *RequestError) Error() string {
	return e.Message
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// NewRequestError creates a RequestError, substituting the generic
// message when message is blank.
func NewRequestError(message string, statusCode int, err error) *RequestError {
	if strings.TrimSpace(message) == "" {
		message = DefaultRequestErrorMessage
	}
	return &RequestError{Message: message, StatusCode: statusCode, Err: err}
}

// ErrorKind classifies a top-level error for display and status mapping.
func ErrorKind(err error) string {
	var ve *ValidationError
	var re *RequestError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrBusy):
		return "busy"
	case errors.As(err, &ve):
		return "validation"
	case errors.As(err, &re):
		return "request"
	default:
		return "internal"
	}
}

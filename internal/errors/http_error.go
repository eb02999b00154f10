package errors

import (
	"errors"
	"net/http"

	"cigale/internal/repository"
	"cigale/internal/validation"
)

const (
	MessageInvalidData = "Données invalides"
	MessageNotFound    = "Réservation introuvable"
)

// HTTPError represents an error with an associated HTTP status code.
type HTTPError struct {
	Code    int
	Message string
	Details []validation.Issue
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTPError with the given code and message.
func NewHTTPError(code int, message string) *HTTPError {
	return &HTTPError{
		Code:    code,
		Message: message,
	}
}

// Helper for common errors
var (
	ErrBadRequest = func(msg string) *HTTPError { return NewHTTPError(http.StatusBadRequest, msg) }
	ErrNotFound   = func(msg string) *HTTPError { return NewHTTPError(http.StatusNotFound, msg) }
	ErrInternal   = func(msg string) *HTTPError { return NewHTTPError(http.StatusInternalServerError, msg) }
)

// FromServiceError maps a service error onto its HTTP form. Validation issues
// are exposed, store causes are not: internalMessage is used instead.
func FromServiceError(err error, internalMessage string) *HTTPError {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	var vErr *validation.ValidationError
	if errors.As(err, &vErr) {
		return &HTTPError{Code: http.StatusBadRequest, Message: MessageInvalidData, Details: vErr.Issues}
	}
	if errors.Is(err, repository.ErrRecordNotFound) {
		return ErrNotFound(MessageNotFound)
	}
	return ErrInternal(internalMessage)
}

package errors

import (
	"fmt"
	"net/http"

	apperrors "audio-sessions/internal/app/errors"
)

// ErrorKind represents different types of API errors
type ErrorKind string

const (
	KindValidation         ErrorKind = "validation"
	KindNotFound           ErrorKind = "not_found"
	KindUnauthorized       ErrorKind = "unauthorized"
	KindConflict           ErrorKind = "conflict"
	KindInternal           ErrorKind = "internal"
	KindServiceUnavailable ErrorKind = "service_unavailable"
	KindUpstream           ErrorKind = "upstream"
	KindBadRequest         ErrorKind = "bad_request"
)

// APIError represents a structured API error response
type APIError struct {
	Kind      ErrorKind         `json:"kind"`
	Message   string            `json:"message"`
	Details   map[string]string `json:"details,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
	Code      string            `json:"code,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// HTTPStatus returns the appropriate HTTP status code for the error kind
func (e *APIError) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindBadRequest:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindConflict:
		return http.StatusConflict
	case KindServiceUnavailable:
		return http.StatusServiceUnavailable
	case KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// NewValidationError creates a validation error with field details
func NewValidationError(message string, fields map[string]string) *APIError {
	return &APIError{
		Kind:    KindValidation,
		Message: message,
		Details: fields,
	}
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *APIError {
	return &APIError{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// NewInternalError creates an internal server error
func NewInternalError(message string) *APIError {
	return &APIError{
		Kind:    KindInternal,
		Message: message,
	}
}

// NewBadRequestError creates a bad request error
func NewBadRequestError(message string) *APIError {
	return &APIError{
		Kind:    KindBadRequest,
		Message: message,
	}
}

// NewServiceUnavailableError creates a service unavailable error
func NewServiceUnavailableError(message string) *APIError {
	return &APIError{
		Kind:    KindServiceUnavailable,
		Message: message,
	}
}

// FromError maps a domain error to an API error by its kind.
// Persistence failures hide their detail.
func FromError(err error) *APIError {
	if err == nil {
		return nil
	}
	if apiErr, ok := err.(*APIError); ok {
		return apiErr
	}

	code := string(apperrors.KindOf(err))
	switch apperrors.KindOf(err) {
	case apperrors.KindValidation:
		if apperrors.Is(err, apperrors.ErrMissingCredential) {
			return &APIError{Kind: KindUnauthorized, Message: err.Error(), Code: code}
		}
		return &APIError{Kind: KindValidation, Message: err.Error(), Code: code}
	case apperrors.KindNotFound:
		return &APIError{Kind: KindNotFound, Message: err.Error(), Code: code}
	case apperrors.KindConflict:
		return &APIError{Kind: KindConflict, Message: err.Error(), Code: code}
	case apperrors.KindExternalService:
		return &APIError{Kind: KindUpstream, Message: err.Error(), Code: code}
	case apperrors.KindDevice:
		return &APIError{Kind: KindServiceUnavailable, Message: err.Error(), Code: code}
	case apperrors.KindPersistence:
		return &APIError{Kind: KindInternal, Message: "storage failure", Code: code}
	default:
		return &APIError{Kind: KindInternal, Message: "Internal server error"}
	}
}

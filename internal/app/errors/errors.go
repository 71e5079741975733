package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies an error for presentation. Callers render a localized message per kind.
type Kind string

const (
	KindUnknown         Kind = ""
	KindValidation      Kind = "validation"
	KindNotFound        Kind = "not_found"
	KindDevice          Kind = "device"
	KindPersistence     Kind = "persistence"
	KindExternalService Kind = "external_service"
	KindConflict        Kind = "conflict"
)

// Common error types
var (
	// Validation errors
	ErrMissingCredential = NewKind(KindValidation, "API key is required")
	ErrArtifactMissing   = NewKind(KindValidation, "audio file not found")
	ErrNoTranscription   = NewKind(KindValidation, "session has no transcription")
	ErrInvalidArtifact   = NewKind(KindValidation, "invalid audio artifact")
	ErrInvalidPrompt     = NewKind(KindValidation, "invalid prompt")
	ErrPathReassigned    = NewKind(KindValidation, "session path cannot be reassigned")

	// Lookup errors
	ErrSessionNotFound = NewKind(KindNotFound, "session not found")

	// Device errors
	ErrDeviceUnavailable = NewKind(KindDevice, "audio device unavailable")
	ErrDeviceFailed      = NewKind(KindDevice, "audio device failed during recording")
	ErrNotRecording      = NewKind(KindDevice, "not recording")

	// Persistence errors
	ErrPersistence = NewKind(KindPersistence, "persistence failed")
	ErrIO          = NewKind(KindPersistence, "i/o failed")

	// External service errors
	ErrTranscriptionFailed  = NewKind(KindExternalService, "transcription failed")
	ErrTransformationFailed = NewKind(KindExternalService, "transformation failed")

	// Conflict errors
	ErrAlreadyRecording  = NewKind(KindConflict, "already recording")
	ErrAlreadyInProgress = NewKind(KindConflict, "stage already in progress")
	ErrDuplicateKey      = NewKind(KindConflict, "duplicate session id")
)

// Error represents a standardized error
type Error struct {
	kind    Kind
	message string
	cause   error
}

// New creates a new error
func New(message string) *Error {
	return &Error{message: message}
}

// NewKind creates a new error of the given kind
func NewKind(kind Kind, message string) *Error {
	return &Error{kind: kind, message: message}
}

// Newf creates a new formatted error
func Newf(format string, args ...interface{}) *Error {
	return &Error{message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &Error{
		message: message,
		cause:   err,
	}
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &Error{
		message: fmt.Sprintf(format, args...),
		cause:   err,
	}
}

// With attaches a cause to a sentinel. The result matches the sentinel with errors.Is
// and exposes the cause through errors.Unwrap chains.
func (e *Error) With(cause error) error {
	return &joined{sentinel: e, cause: cause}
}

// Withf attaches a formatted detail message to a sentinel.
func (e *Error) Withf(format string, args ...interface{}) error {
	return &joined{sentinel: e, cause: fmt.Errorf(format, args...)}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.cause
}

// Is checks if the error matches target
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.message == t.message && e.kind == t.kind
}

// Kind returns the error kind
func (e *Error) Kind() Kind {
	return e.kind
}

// Message returns the message without the cause
func (e *Error) Message() string {
	return e.message
}

type joined struct {
	sentinel *Error
	cause    error
}

func (j *joined) Error() string {
	if j.cause == nil {
		return j.sentinel.Error()
	}
	return fmt.Sprintf("%s: %v", j.sentinel.message, j.cause)
}

func (j *joined) Unwrap() []error {
	if j.cause == nil {
		return []error{j.sentinel}
	}
	return []error{j.sentinel, j.cause}
}

// KindOf returns the kind of the first classified error in the chain.
func KindOf(err error) Kind {
	for err != nil {
		switch e := err.(type) {
		case *Error:
			if e.kind != KindUnknown {
				return e.kind
			}
			err = e.cause
		case *joined:
			return e.sentinel.kind
		default:
			err = stderrors.Unwrap(err)
		}
	}
	return KindUnknown
}

// Cause returns the detail attached to a sentinel with With, or nil.
func Cause(err error) error {
	var j *joined
	if stderrors.As(err, &j) {
		return j.cause
	}
	return nil
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return stderrors.As(err, target)
}

// Helper functions for common patterns

// RequiredField returns an error for missing required fields
func RequiredField(field string) error {
	return ErrInvalidArtifact.Withf("%s is required", field)
}

// InvalidField returns an error for invalid field values
func InvalidField(field string, reason string) error {
	return ErrInvalidArtifact.Withf("%s is invalid: %s", field, reason)
}

// NotFound returns an error for sessions that were not found
func NotFound(id int64) error {
	return ErrSessionNotFound.Withf("id %d", id)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return KindOf(err) == KindValidation
}

package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Status  int         `json:"status"`
	Details interface{} `json:"details,omitempty"`
	Err     error       `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrPreconditionFailed = New("PRECONDITION_FAILED", http.StatusPreconditionFailed, "precondition failed")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusNotFound, "cache miss")

	ErrInvalidInterval         = New("INVALID_INTERVAL", http.StatusBadRequest, "end time must be after start time")
	ErrCapacityExceedsRoom     = New("CAPACITY_EXCEEDS_ROOM", http.StatusBadRequest, "session capacity exceeds room capacity")
	ErrCapacityBelowEnrolled   = New("CAPACITY_BELOW_ENROLLED", http.StatusConflict, "session capacity below confirmed enrollments")
	ErrRoomInactive            = New("ROOM_INACTIVE", http.StatusPreconditionFailed, "room is not active")
	ErrRoomConflict            = New("ROOM_CONFLICT", http.StatusConflict, "room already booked for this time range")
	ErrInstructorConflict      = New("INSTRUCTOR_CONFLICT", http.StatusConflict, "instructor already booked for this time range")
	ErrSessionNotOpen          = New("SESSION_NOT_OPEN", http.StatusConflict, "session is not open for enrollment")
	ErrSessionFull             = New("SESSION_FULL", http.StatusConflict, "session is full")
	ErrNoActiveMembership      = New("NO_ACTIVE_MEMBERSHIP", http.StatusPreconditionFailed, "client has no active membership")
	ErrAlreadyEnrolled         = New("ALREADY_ENROLLED", http.StatusConflict, "client already enrolled in session")
	ErrEnrollmentNotConfirmed  = New("ENROLLMENT_NOT_CONFIRMED", http.StatusConflict, "enrollment is not confirmed")
	ErrDuplicateAttendance     = New("DUPLICATE_ATTENDANCE", http.StatusConflict, "attendance already recorded for enrollment")
	ErrAttendanceBeforeSession = New("ATTENDANCE_BEFORE_SESSION", http.StatusPreconditionFailed, "attendance cannot be recorded before the session date")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// WithDetails returns a copy of err wrapping cause and exposing details to clients.
func WithDetails(err *Error, cause error, message string, details interface{}) *Error {
	if err == nil {
		return nil
	}
	clone := Clone(err, message)
	clone.Err = cause
	clone.Details = details
	return clone
}

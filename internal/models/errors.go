package models

import "fmt"

// ConflictKind distinguishes which shared resource is double-booked.
type ConflictKind string

const (
	ConflictKindRoom       ConflictKind = "room"
	ConflictKindInstructor ConflictKind = "instructor"
)

// SessionConflictError is returned when a session overlaps an active booking of the same room or instructor.
type SessionConflictError struct {
	Kind        ConflictKind `json:"kind"`
	SessionID   string       `json:"conflicting_session_id,omitempty"`
	Date        Date         `json:"date"`
	StartTime   TimeOfDay    `json:"start_time"`
	EndTime     TimeOfDay    `json:"end_time"`
	ResourceID  string       `json:"resource_id"`
	Unspecified bool         `json:"-"`
}

// NewSessionConflictError describes a conflict against an existing session.
func NewSessionConflictError(kind ConflictKind, existing ClassSession) *SessionConflictError {
	resource := existing.RoomID
	if kind == ConflictKindInstructor {
		resource = existing.InstructorID
	}
	return &SessionConflictError{
		Kind:       kind,
		SessionID:  existing.ID,
		Date:       existing.Date,
		StartTime:  existing.StartTime,
		EndTime:    existing.EndTime,
		ResourceID: resource,
	}
}

func (e *SessionConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Unspecified {
		return fmt.Sprintf("%s already booked for an overlapping time range", e.Kind)
	}
	return fmt.Sprintf("%s already booked from %s to %s on %s", e.Kind, e.StartTime, e.EndTime, e.Date)
}

// InvalidIntervalError is returned when a session does not end after it starts.
type InvalidIntervalError struct {
	StartTime TimeOfDay `json:"start_time"`
	EndTime   TimeOfDay `json:"end_time"`
}

func (e *InvalidIntervalError) Error() string {
	return fmt.Sprintf("end time %s must be after start time %s", e.EndTime, e.StartTime)
}

// CapacityExceedsRoomError is returned when a session asks for more seats than its room holds.
type CapacityExceedsRoomError struct {
	Requested    int `json:"requested"`
	RoomCapacity int `json:"room_capacity"`
}

func (e *CapacityExceedsRoomError) Error() string {
	return fmt.Sprintf("max capacity %d exceeds room capacity %d", e.Requested, e.RoomCapacity)
}

// CapacityBelowEnrolledError is returned when a capacity reduction would strand confirmed enrollments.
type CapacityBelowEnrolledError struct {
	Requested      int `json:"requested"`
	ConfirmedCount int `json:"confirmed_count"`
}

func (e *CapacityBelowEnrolledError) Error() string {
	return fmt.Sprintf("max capacity %d is below %d confirmed enrollments", e.Requested, e.ConfirmedCount)
}

// RoomInactiveError is returned when scheduling into a disabled room.
type RoomInactiveError struct {
	RoomID string `json:"room_id"`
}

func (e *RoomInactiveError) Error() string {
	return fmt.Sprintf("room %s is not active", e.RoomID)
}

// SessionNotOpenError is returned when enrolling into a session that is not scheduled.
type SessionNotOpenError struct {
	SessionID string        `json:"session_id"`
	Status    SessionStatus `json:"status"`
}

func (e *SessionNotOpenError) Error() string {
	return fmt.Sprintf("session %s is %s and not open for enrollment", e.SessionID, e.Status)
}

// SessionFullError is returned when no seats remain.
type SessionFullError struct {
	SessionID   string `json:"session_id"`
	MaxCapacity int    `json:"max_capacity"`
}

func (e *SessionFullError) Error() string {
	return fmt.Sprintf("session is full (max capacity %d)", e.MaxCapacity)
}

// NoActiveMembershipError is returned when the client's membership does not cover the admission date.
type NoActiveMembershipError struct {
	ClientID string `json:"client_id"`
	AsOf     Date   `json:"as_of"`
}

func (e *NoActiveMembershipError) Error() string {
	return fmt.Sprintf("client %s has no active membership on %s", e.ClientID, e.AsOf)
}

// AlreadyEnrolledError is returned when the client already holds a confirmed seat.
type AlreadyEnrolledError struct {
	SessionID    string `json:"session_id"`
	ClientID     string `json:"client_id"`
	EnrollmentID string `json:"enrollment_id,omitempty"`
}

func (e *AlreadyEnrolledError) Error() string {
	return fmt.Sprintf("client %s is already enrolled in session %s", e.ClientID, e.SessionID)
}

// EnrollmentNotConfirmedError is returned when attendance targets a non-confirmed enrollment.
type EnrollmentNotConfirmedError struct {
	EnrollmentID string           `json:"enrollment_id"`
	Status       EnrollmentStatus `json:"status"`
}

func (e *EnrollmentNotConfirmedError) Error() string {
	return fmt.Sprintf("enrollment %s is %s", e.EnrollmentID, e.Status)
}

// DuplicateAttendanceError is returned when a record already exists for the enrollment.
type DuplicateAttendanceError struct {
	EnrollmentID string `json:"enrollment_id"`
	SessionID    string `json:"session_id"`
}

func (e *DuplicateAttendanceError) Error() string {
	return fmt.Sprintf("attendance already recorded for enrollment %s", e.EnrollmentID)
}

// AttendanceBeforeSessionError is returned when attendance is taken ahead of the session date.
type AttendanceBeforeSessionError struct {
	SessionID string `json:"session_id"`
	Date      Date   `json:"date"`
}

func (e *AttendanceBeforeSessionError) Error() string {
	return fmt.Sprintf("session %s takes place on %s", e.SessionID, e.Date)
}

// NotFoundError is returned for a dangling reference.
type NotFoundError struct {
	Entity string `json:"entity"`
	ID     string `json:"id"`
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

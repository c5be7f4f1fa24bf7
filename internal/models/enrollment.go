package models

import "time"

// EnrollmentStatus enumerates the states of a seat reservation.
type EnrollmentStatus string

const (
	EnrollmentStatusConfirmed EnrollmentStatus = "confirmed"
	EnrollmentStatusCancelled EnrollmentStatus = "cancelled"
	EnrollmentStatusAttended  EnrollmentStatus = "attended"
	EnrollmentStatusNoShow    EnrollmentStatus = "no_show"
)

// Enrollment is a client's seat in a session.
type Enrollment struct {
	ID        string           `db:"id" json:"id"`
	SessionID string           `db:"session_id" json:"session_id"`
	ClientID  string           `db:"client_id" json:"client_id"`
	Status    EnrollmentStatus `db:"status" json:"status"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}

// EnrollmentFilter captures filtering criteria for listing enrollments.
type EnrollmentFilter struct {
	SessionID string
	ClientID  string
	Status    *EnrollmentStatus
	Page      int
	PageSize  int
}

// AdmissionSnapshot is the session state observed under the session row lock.
type AdmissionSnapshot struct {
	Session          ClassSession
	ConfirmedCount   int
	ExistingEnrollID *string
}

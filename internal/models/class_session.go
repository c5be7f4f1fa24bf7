package models

import "time"

// SessionStatus enumerates the lifecycle states of a class session.
type SessionStatus string

const (
	SessionStatusScheduled  SessionStatus = "scheduled"
	SessionStatusInProgress SessionStatus = "in_progress"
	SessionStatusFinished   SessionStatus = "finished"
	SessionStatusCancelled  SessionStatus = "cancelled"
)

// ActiveSessionStatuses are the states that occupy a room and an instructor.
var ActiveSessionStatuses = []SessionStatus{SessionStatusScheduled, SessionStatusInProgress}

// IsActive reports whether the status takes part in conflict detection.
func (s SessionStatus) IsActive() bool {
	return s == SessionStatusScheduled || s == SessionStatusInProgress
}

// Valid reports whether s is a known status.
func (s SessionStatus) Valid() bool {
	switch s {
	case SessionStatusScheduled, SessionStatusInProgress, SessionStatusFinished, SessionStatusCancelled:
		return true
	}
	return false
}

// ClassSession is a scheduled occurrence of a discipline in a room with an instructor.
type ClassSession struct {
	ID             string        `db:"id" json:"id"`
	DisciplineID   string        `db:"discipline_id" json:"discipline_id"`
	InstructorID   string        `db:"instructor_id" json:"instructor_id"`
	RoomID         string        `db:"room_id" json:"room_id"`
	Date           Date          `db:"session_date" json:"date"`
	StartTime      TimeOfDay     `db:"start_time" json:"start_time"`
	EndTime        TimeOfDay     `db:"end_time" json:"end_time"`
	MaxCapacity    int           `db:"max_capacity" json:"max_capacity"`
	Status         SessionStatus `db:"status" json:"status"`
	ConfirmedCount int           `db:"confirmed_count" json:"confirmed_count"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updated_at"`
}

// AvailableSlots is the number of seats not held by confirmed enrollments.
func (s ClassSession) AvailableSlots() int {
	return s.MaxCapacity - s.ConfirmedCount
}

// IsFull reports whether no seats remain.
func (s ClassSession) IsFull() bool {
	return s.AvailableSlots() <= 0
}

// ClassSessionFilter captures filtering criteria for listing sessions.
type ClassSessionFilter struct {
	RoomID       string
	InstructorID string
	DisciplineID string
	Status       *SessionStatus
	DateFrom     *Date
	DateTo       *Date
	Page         int
	PageSize     int
	SortOrder    string
}

// SessionAvailability summarises remaining capacity.
type SessionAvailability struct {
	SessionID      string `json:"session_id"`
	MaxCapacity    int    `json:"max_capacity"`
	ConfirmedCount int    `json:"confirmed_count"`
	AvailableSlots int    `json:"available_slots"`
	IsFull         bool   `json:"is_full"`
}

// ScheduleSnapshot is the booking state visible to a scheduling write while its locks are held.
type ScheduleSnapshot struct {
	Room               Room
	RoomSessions       []ClassSession
	InstructorSessions []ClassSession
	ConfirmedCount     int
}

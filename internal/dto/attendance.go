package dto

import "github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/internal/models"

// Roster entry states.
const (
	RosterStatePending  = "pending"
	RosterStateRecorded = "recorded"
)

// RosterEntry describes one confirmed enrollment on the attendance sheet.
type RosterEntry struct {
	EnrollmentID string                   `json:"enrollment_id"`
	ClientID     string                   `json:"client_id"`
	ClientName   string                   `json:"client_name,omitempty"`
	State        string                   `json:"state"`
	AttendanceID *string                  `json:"attendance_id,omitempty"`
	Status       *models.AttendanceStatus `json:"status,omitempty"`
	ArrivalTime  *models.TimeOfDay        `json:"arrival_time,omitempty"`
	Notes        *string                  `json:"notes,omitempty"`
	IsLate       bool                     `json:"is_late"`
	MinutesLate  int                      `json:"minutes_late"`
}

// SessionRoster is the take-attendance view of a session.
type SessionRoster struct {
	Session  models.ClassSession `json:"session"`
	Pending  int                 `json:"pending"`
	Recorded int                 `json:"recorded"`
	Entries  []RosterEntry       `json:"entries"`
}

// BulkAttendanceError reports why one bulk item was not recorded.
type BulkAttendanceError struct {
	Index   int    `json:"index"`
	Ref     string `json:"ref"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// BulkAttendanceResult summarises a best-effort bulk registration.
type BulkAttendanceResult struct {
	CreatedCount int                       `json:"created_count"`
	Created      []models.AttendanceRecord `json:"created"`
	Errors       []BulkAttendanceError     `json:"errors"`
}

package models

import "time"

// AttendanceStatus enumerates recorded outcomes.
type AttendanceStatus string

const (
	AttendanceStatusPresent   AttendanceStatus = "present"
	AttendanceStatusAbsent    AttendanceStatus = "absent"
	AttendanceStatusJustified AttendanceStatus = "justified"
	AttendanceStatusLate      AttendanceStatus = "late"
)

// AttendanceRecord is the outcome of one enrollment's session occurrence.
type AttendanceRecord struct {
	ID           string           `db:"id" json:"id"`
	EnrollmentID string           `db:"enrollment_id" json:"enrollment_id"`
	SessionID    string           `db:"session_id" json:"session_id"`
	ClientID     string           `db:"client_id" json:"client_id"`
	Status       AttendanceStatus `db:"status" json:"status"`
	ArrivalTime  *TimeOfDay       `db:"arrival_time" json:"arrival_time,omitempty"`
	Notes        *string          `db:"notes" json:"notes,omitempty"`
	RecordedBy   string           `db:"recorded_by" json:"recorded_by"`
	RecordedAt   time.Time        `db:"recorded_at" json:"recorded_at"`
	UpdatedAt    time.Time        `db:"updated_at" json:"updated_at"`
	IsLate       bool             `db:"-" json:"is_late"`
	MinutesLate  int              `db:"-" json:"minutes_late"`
}

// RosterRow joins a confirmed enrollment with its optional attendance record.
type RosterRow struct {
	EnrollmentID string            `db:"enrollment_id"`
	ClientID     string            `db:"client_id"`
	ClientName   *string           `db:"client_name"`
	EnrolledAt   time.Time         `db:"enrolled_at"`
	AttendanceID *string           `db:"attendance_id"`
	Status       *AttendanceStatus `db:"attendance_status"`
	ArrivalTime  *TimeOfDay        `db:"arrival_time"`
	Notes        *string           `db:"notes"`
}

// AttendanceCounts aggregates records per status.
type AttendanceCounts struct {
	Present   int `db:"present" json:"present"`
	Absent    int `db:"absent" json:"absent"`
	Justified int `db:"justified" json:"justified"`
	Late      int `db:"late" json:"late"`
}

// Total is the number of records counted.
func (c AttendanceCounts) Total() int {
	return c.Present + c.Absent + c.Justified + c.Late
}

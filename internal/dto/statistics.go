package dto

import "github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/internal/models"

// SessionStats aggregates attendance for one session.
type SessionStats struct {
	SessionID      string  `json:"session_id"`
	TotalEnrolled  int     `json:"total_enrolled"`
	TotalRecorded  int     `json:"total_recorded"`
	Unrecorded     int     `json:"unrecorded"`
	Present        int     `json:"present"`
	Absent         int     `json:"absent"`
	Justified      int     `json:"justified"`
	Late           int     `json:"late"`
	AttendanceRate float64 `json:"attendance_rate"`
}

// ClientStats aggregates a client's enrollments and attendance over a date range.
type ClientStats struct {
	ClientID         string      `json:"client_id"`
	From             models.Date `json:"from"`
	To               models.Date `json:"to"`
	TotalEnrollments int         `json:"total_enrollments"`
	Present          int         `json:"present"`
	Absent           int         `json:"absent"`
	Justified        int         `json:"justified"`
	Late             int         `json:"late"`
	AttendanceRate   float64     `json:"attendance_rate"`
}

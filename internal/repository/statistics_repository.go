package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/internal/models"
)

const countsByStatus = `
	COUNT(*) FILTER (WHERE a.status = 'present') AS present,
	COUNT(*) FILTER (WHERE a.status = 'absent') AS absent,
	COUNT(*) FILTER (WHERE a.status = 'justified') AS justified,
	COUNT(*) FILTER (WHERE a.status = 'late') AS late`

// StatisticsRepository runs read-only aggregations over enrollments and attendance.
type StatisticsRepository struct {
	db *sqlx.DB
}

// NewStatisticsRepository creates a new statistics repository.
func NewStatisticsRepository(db *sqlx.DB) *StatisticsRepository {
	return &StatisticsRepository{db: db}
}

// SessionAttendanceCounts counts records of a session per status.
func (r *StatisticsRepository) SessionAttendanceCounts(ctx context.Context, sessionID string) (models.AttendanceCounts, error) {
	query := "SELECT" + countsByStatus + "\nFROM attendance_records a WHERE a.session_id = $1"
	var counts models.AttendanceCounts
	if err := r.db.GetContext(ctx, &counts, query, sessionID); err != nil {
		return models.AttendanceCounts{}, fmt.Errorf("session attendance counts: %w", err)
	}
	return counts, nil
}

// ClientEnrollmentCount counts non-cancelled enrollments of a client in sessions dated within the range.
func (r *StatisticsRepository) ClientEnrollmentCount(ctx context.Context, clientID string, from, to models.Date) (int, error) {
	const query = `SELECT COUNT(*) FROM enrollments e
JOIN class_sessions s ON s.id = e.session_id
WHERE e.client_id = $1 AND e.status <> 'cancelled' AND s.session_date BETWEEN $2 AND $3`
	var total int
	if err := r.db.GetContext(ctx, &total, query, clientID, from, to); err != nil {
		return 0, fmt.Errorf("client enrollment count: %w", err)
	}
	return total, nil
}

// ClientAttendanceCounts counts a client's records per status for sessions dated within the range.
func (r *StatisticsRepository) ClientAttendanceCounts(ctx context.Context, clientID string, from, to models.Date) (models.AttendanceCounts, error) {
	query := "SELECT" + countsByStatus + `
FROM attendance_records a
JOIN class_sessions s ON s.id = a.session_id
WHERE a.client_id = $1 AND s.session_date BETWEEN $2 AND $3`
	var counts models.AttendanceCounts
	if err := r.db.GetContext(ctx, &counts, query, clientID, from, to); err != nil {
		return models.AttendanceCounts{}, fmt.Errorf("client attendance counts: %w", err)
	}
	return counts, nil
}

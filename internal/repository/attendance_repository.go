package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/internal/models"
)

const attendanceColumns = "id, enrollment_id, session_id, client_id, status, arrival_time, notes, recorded_by, recorded_at, updated_at"

// AttendanceRepository provides persistence for attendance records.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository creates a new attendance repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// FindByID loads an attendance record by id.
func (r *AttendanceRepository) FindByID(ctx context.Context, id string) (*models.AttendanceRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM attendance_records WHERE id = $1", attendanceColumns)
	var record models.AttendanceRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// Insert stores a record; the (enrollment_id, session_id) constraint rejects a second one.
func (r *AttendanceRepository) Insert(ctx context.Context, record *models.AttendanceRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if record.RecordedAt.IsZero() {
		record.RecordedAt = now
	}
	record.UpdatedAt = now

	const query = `INSERT INTO attendance_records (id, enrollment_id, session_id, client_id, status, arrival_time, notes, recorded_by, recorded_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (enrollment_id, session_id) DO NOTHING RETURNING id`
	var insertedID string
	err := r.db.QueryRowxContext(ctx, query,
		record.ID, record.EnrollmentID, record.SessionID, record.ClientID, record.Status,
		record.ArrivalTime, record.Notes, record.RecordedBy, record.RecordedAt, record.UpdatedAt,
	).Scan(&insertedID)
	if err != nil {
		if err == sql.ErrNoRows {
			return &models.DuplicateAttendanceError{EnrollmentID: record.EnrollmentID, SessionID: record.SessionID}
		}
		return fmt.Errorf("insert attendance record: %w", err)
	}
	return nil
}

// Update rewrites the mutable fields of a record.
func (r *AttendanceRepository) Update(ctx context.Context, record *models.AttendanceRecord) error {
	record.UpdatedAt = time.Now().UTC()
	const query = `UPDATE attendance_records SET status = $2, arrival_time = $3, notes = $4, recorded_by = $5, updated_at = $6 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, record.ID, record.Status, record.ArrivalTime, record.Notes, record.RecordedBy, record.UpdatedAt); err != nil {
		return fmt.Errorf("update attendance record: %w", err)
	}
	return nil
}

// ListRoster returns every confirmed enrollment of a session with its optional record.
func (r *AttendanceRepository) ListRoster(ctx context.Context, sessionID string) ([]models.RosterRow, error) {
	const query = `
SELECT
	e.id AS enrollment_id,
	e.client_id AS client_id,
	c.full_name AS client_name,
	e.created_at AS enrolled_at,
	a.id AS attendance_id,
	a.status AS attendance_status,
	a.arrival_time AS arrival_time,
	a.notes AS notes
FROM enrollments e
LEFT JOIN clients c ON c.id = e.client_id
LEFT JOIN attendance_records a ON a.enrollment_id = e.id AND a.session_id = e.session_id
WHERE e.session_id = $1 AND e.status = 'confirmed'
ORDER BY c.full_name ASC NULLS LAST, e.created_at ASC`
	var rows []models.RosterRow
	if err := r.db.SelectContext(ctx, &rows, query, sessionID); err != nil {
		return nil, fmt.Errorf("list session roster: %w", err)
	}
	return rows, nil
}

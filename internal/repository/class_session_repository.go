package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/internal/models"
)

const (
	sessionColumns      = "s.id, s.discipline_id, s.instructor_id, s.room_id, s.session_date, s.start_time, s.end_time, s.max_capacity, s.status, s.created_at, s.updated_at"
	confirmedCountQuery = "(SELECT COUNT(*) FROM enrollments e WHERE e.session_id = s.id AND e.status = 'confirmed') AS confirmed_count"
)

// ScheduleCheck validates a pending session write against the locked booking state.
type ScheduleCheck func(snapshot models.ScheduleSnapshot) error

// ClassSessionRepository provides persistence for class sessions.
type ClassSessionRepository struct {
	db *sqlx.DB
}

// NewClassSessionRepository creates a new class session repository.
func NewClassSessionRepository(db *sqlx.DB) *ClassSessionRepository {
	return &ClassSessionRepository{db: db}
}

// List returns sessions with optional filtering and pagination.
func (r *ClassSessionRepository) List(ctx context.Context, filter models.ClassSessionFilter) ([]models.ClassSession, int, error) {
	base := "FROM class_sessions s WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.RoomID != "" {
		conditions = append(conditions, fmt.Sprintf("s.room_id = $%d", len(args)+1))
		args = append(args, filter.RoomID)
	}
	if filter.InstructorID != "" {
		conditions = append(conditions, fmt.Sprintf("s.instructor_id = $%d", len(args)+1))
		args = append(args, filter.InstructorID)
	}
	if filter.DisciplineID != "" {
		conditions = append(conditions, fmt.Sprintf("s.discipline_id = $%d", len(args)+1))
		args = append(args, filter.DisciplineID)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("s.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("s.session_date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("s.session_date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s, %s %s ORDER BY s.session_date %s, s.start_time %s LIMIT %d OFFSET %d",
		sessionColumns, confirmedCountQuery, base, order, order, size, offset)
	var sessions []models.ClassSession
	if err := r.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list class sessions: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", base), args...); err != nil {
		return nil, 0, fmt.Errorf("count class sessions: %w", err)
	}
	return sessions, total, nil
}

// FindByID loads a session together with its confirmed enrollment count.
func (r *ClassSessionRepository) FindByID(ctx context.Context, id string) (*models.ClassSession, error) {
	query := fmt.Sprintf("SELECT %s, %s FROM class_sessions s WHERE s.id = $1", sessionColumns, confirmedCountQuery)
	var session models.ClassSession
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// Create inserts a session after check accepts the booking state observed under lock.
func (r *ClassSessionRepository) Create(ctx context.Context, session *models.ClassSession, check ScheduleCheck) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create class session: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	snapshot, err := r.lockBookings(ctx, tx, session)
	if err != nil {
		return err
	}
	if err = check(*snapshot); err != nil {
		return err
	}

	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now

	const query = `INSERT INTO class_sessions (id, discipline_id, instructor_id, room_id, session_date, start_time, end_time, max_capacity, status, created_at, updated_at)
VALUES (:id, :discipline_id, :instructor_id, :room_id, :session_date, :start_time, :end_time, :max_capacity, :status, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, query, session); err != nil {
		_ = tx.Rollback()
		if domainErr := r.translateWriteError(ctx, err, session); domainErr != nil {
			err = domainErr
			return err
		}
		return fmt.Errorf("insert class session: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create class session: %w", err)
	}
	session.ConfirmedCount = 0
	return nil
}

// SessionMutation applies pending changes to the session row read under lock.
type SessionMutation func(session *models.ClassSession) error

// Update locks the session row, lets mutate change the locked copy, then writes it back once
// check accepts the booking state. Concurrent writers to the same session are serialised.
func (r *ClassSessionRepository) Update(ctx context.Context, id string, mutate SessionMutation, check ScheduleCheck) (session *models.ClassSession, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update class session: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var current models.ClassSession
	lockQuery := fmt.Sprintf("SELECT %s FROM class_sessions s WHERE s.id = $1 FOR UPDATE", sessionColumns)
	if err = tx.GetContext(ctx, &current, lockQuery, id); err != nil {
		if err == sql.ErrNoRows {
			err = &models.NotFoundError{Entity: "session", ID: id}
			return nil, err
		}
		return nil, fmt.Errorf("lock class session: %w", err)
	}
	if err = mutate(&current); err != nil {
		return nil, err
	}
	current.ID = id

	snapshot, err := r.lockBookings(ctx, tx, &current)
	if err != nil {
		return nil, err
	}
	if err = tx.GetContext(ctx, &snapshot.ConfirmedCount, `SELECT COUNT(*) FROM enrollments WHERE session_id = $1 AND status = 'confirmed'`, id); err != nil {
		return nil, fmt.Errorf("count confirmed enrollments: %w", err)
	}
	if err = check(*snapshot); err != nil {
		return nil, err
	}

	current.UpdatedAt = time.Now().UTC()
	const query = `UPDATE class_sessions SET discipline_id = :discipline_id, instructor_id = :instructor_id, room_id = :room_id, session_date = :session_date,
start_time = :start_time, end_time = :end_time, max_capacity = :max_capacity, status = :status, updated_at = :updated_at WHERE id = :id`
	if _, err = tx.NamedExecContext(ctx, query, &current); err != nil {
		_ = tx.Rollback()
		if domainErr := r.translateWriteError(ctx, err, &current); domainErr != nil {
			err = domainErr
			return nil, err
		}
		return nil, fmt.Errorf("update class session: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update class session: %w", err)
	}
	current.ConfirmedCount = snapshot.ConfirmedCount
	return &current, nil
}

// UpdateStatus sets the session status without touching enrollments or attendance.
func (r *ClassSessionRepository) UpdateStatus(ctx context.Context, id string, status models.SessionStatus) error {
	const query = `UPDATE class_sessions SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update class session status: %w", err)
	}
	return nil
}

// translateWriteError maps constraint violations to domain errors. The transaction must already be
// rolled back: an exclusion violation is resolved by reading the committed overlapping session.
func (r *ClassSessionRepository) translateWriteError(ctx context.Context, err error, session *models.ClassSession) error {
	domainErr := translateSessionWriteError(err, session)
	conflict, ok := domainErr.(*models.SessionConflictError)
	if !ok || !conflict.Unspecified {
		return domainErr
	}
	existing, lookupErr := r.findOverlap(ctx, conflict.Kind, session)
	if lookupErr != nil || existing == nil {
		return conflict
	}
	return models.NewSessionConflictError(conflict.Kind, *existing)
}

// findOverlap returns the earliest active session sharing the room or instructor whose range overlaps session.
func (r *ClassSessionRepository) findOverlap(ctx context.Context, kind models.ConflictKind, session *models.ClassSession) (*models.ClassSession, error) {
	column, resource := "room_id", session.RoomID
	if kind == models.ConflictKindInstructor {
		column, resource = "instructor_id", session.InstructorID
	}
	query := fmt.Sprintf(`SELECT %s FROM class_sessions s
WHERE s.%s = $1 AND s.session_date = $2 AND s.id <> $3 AND s.status IN ('scheduled', 'in_progress')
AND s.start_time < $5 AND $4 < s.end_time
ORDER BY s.start_time ASC LIMIT 1`, sessionColumns, column)
	var existing models.ClassSession
	if err := r.db.GetContext(ctx, &existing, query, resource, session.Date, session.ID, session.StartTime, session.EndTime); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find overlapping session: %w", err)
	}
	return &existing, nil
}

// lockBookings serialises writers on the (room, date) and (instructor, date) keys and loads their active sessions.
func (r *ClassSessionRepository) lockBookings(ctx context.Context, tx *sqlx.Tx, session *models.ClassSession) (*models.ScheduleSnapshot, error) {
	keys := []string{
		fmt.Sprintf("room:%s:%s", session.RoomID, session.Date),
		fmt.Sprintf("instructor:%s:%s", session.InstructorID, session.Date),
	}
	sort.Strings(keys)
	for _, key := range keys {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
			return nil, fmt.Errorf("acquire booking lock %s: %w", key, err)
		}
	}

	snapshot := &models.ScheduleSnapshot{}
	roomQuery := fmt.Sprintf("SELECT %s FROM rooms WHERE id = $1 FOR SHARE", roomColumns)
	if err := tx.GetContext(ctx, &snapshot.Room, roomQuery, session.RoomID); err != nil {
		if err == sql.ErrNoRows {
			return nil, &models.NotFoundError{Entity: "room", ID: session.RoomID}
		}
		return nil, fmt.Errorf("load room: %w", err)
	}

	activeQuery := func(column string) string {
		return fmt.Sprintf("SELECT %s FROM class_sessions s WHERE s.%s = $1 AND s.session_date = $2 AND s.status IN ('scheduled', 'in_progress') ORDER BY s.start_time ASC", sessionColumns, column)
	}
	if err := tx.SelectContext(ctx, &snapshot.RoomSessions, activeQuery("room_id"), session.RoomID, session.Date); err != nil {
		return nil, fmt.Errorf("load room sessions: %w", err)
	}
	if err := tx.SelectContext(ctx, &snapshot.InstructorSessions, activeQuery("instructor_id"), session.InstructorID, session.Date); err != nil {
		return nil, fmt.Errorf("load instructor sessions: %w", err)
	}
	return snapshot, nil
}

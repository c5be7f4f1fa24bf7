package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/internal/models"
)

const enrollmentColumns = "id, session_id, client_id, status, created_at, updated_at"

// AdmissionCheck decides whether a seat may be granted given the locked session state.
type AdmissionCheck func(snapshot models.AdmissionSnapshot) error

// EnrollmentRepository provides persistence for enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository creates a new enrollment repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// List returns enrollments with optional filtering and pagination.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, int, error) {
	base := "FROM enrollments WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.SessionID != "" {
		conditions = append(conditions, fmt.Sprintf("session_id = $%d", len(args)+1))
		args = append(args, filter.SessionID)
	}
	if filter.ClientID != "" {
		conditions = append(conditions, fmt.Sprintf("client_id = $%d", len(args)+1))
		args = append(args, filter.ClientID)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", enrollmentColumns, base, size, offset)
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", base), args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollments: %w", err)
	}
	return enrollments, total, nil
}

// FindByID loads an enrollment by id.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	query := fmt.Sprintf("SELECT %s FROM enrollments WHERE id = $1", enrollmentColumns)
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// FindConfirmed returns the confirmed enrollment of a client in a session.
func (r *EnrollmentRepository) FindConfirmed(ctx context.Context, sessionID, clientID string) (*models.Enrollment, error) {
	query := fmt.Sprintf("SELECT %s FROM enrollments WHERE session_id = $1 AND client_id = $2 AND status = 'confirmed'", enrollmentColumns)
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, sessionID, clientID); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// Admit locks the session row, lets check inspect capacity and existing seats, then inserts the enrollment.
func (r *EnrollmentRepository) Admit(ctx context.Context, sessionID, clientID string, check AdmissionCheck) (enrollment *models.Enrollment, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin admission: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var snapshot models.AdmissionSnapshot
	lockQuery := fmt.Sprintf("SELECT %s FROM class_sessions s WHERE s.id = $1 FOR UPDATE", sessionColumns)
	if err = tx.GetContext(ctx, &snapshot.Session, lockQuery, sessionID); err != nil {
		if err == sql.ErrNoRows {
			err = &models.NotFoundError{Entity: "session", ID: sessionID}
			return nil, err
		}
		return nil, fmt.Errorf("lock session: %w", err)
	}
	if err = tx.GetContext(ctx, &snapshot.ConfirmedCount, `SELECT COUNT(*) FROM enrollments WHERE session_id = $1 AND status = 'confirmed'`, sessionID); err != nil {
		return nil, fmt.Errorf("count confirmed enrollments: %w", err)
	}
	snapshot.Session.ConfirmedCount = snapshot.ConfirmedCount

	var existingID string
	err = tx.GetContext(ctx, &existingID, `SELECT id FROM enrollments WHERE session_id = $1 AND client_id = $2 AND status = 'confirmed' LIMIT 1`, sessionID, clientID)
	switch {
	case err == nil:
		snapshot.ExistingEnrollID = &existingID
	case err == sql.ErrNoRows:
		err = nil
	default:
		return nil, fmt.Errorf("find existing enrollment: %w", err)
	}

	if err = check(snapshot); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	enrollment = &models.Enrollment{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		ClientID:  clientID,
		Status:    models.EnrollmentStatusConfirmed,
		CreatedAt: now,
		UpdatedAt: now,
	}
	const insertQuery = `INSERT INTO enrollments (id, session_id, client_id, status, created_at, updated_at) VALUES (:id, :session_id, :client_id, :status, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, insertQuery, enrollment); err != nil {
		if pqErr, ok := pgError(err); ok {
			switch string(pqErr.Code) {
			case pgUniqueViolation:
				err = &models.AlreadyEnrolledError{SessionID: sessionID, ClientID: clientID}
				return nil, err
			case pgForeignKeyViolation:
				err = &models.NotFoundError{Entity: "client", ID: clientID}
				return nil, err
			}
		}
		return nil, fmt.Errorf("insert enrollment: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit admission: %w", err)
	}
	return enrollment, nil
}

// UpdateStatus changes the status of an enrollment and returns the stored row.
func (r *EnrollmentRepository) UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus) (*models.Enrollment, error) {
	query := fmt.Sprintf("UPDATE enrollments SET status = $2, updated_at = $3 WHERE id = $1 RETURNING %s", enrollmentColumns)
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id, status, time.Now().UTC()); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("update enrollment status: %w", err)
	}
	return &enrollment, nil
}

package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/internal/models"
)

func expectLockedSessionForAdmit(mock sqlmock.Sqlmock, confirmed int, existing *string) {
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM class_sessions s WHERE s.id = $1 FOR UPDATE")).
		WithArgs("sess-1").
		WillReturnRows(sqlmock.NewRows(sessionRowColumns).
			AddRow("sess-1", "disc-1", "inst-1", "room-1", sessionDate(), "09:00:00", "10:00:00", 2, "scheduled", now, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM enrollments WHERE session_id = $1 AND status = 'confirmed'")).
		WithArgs("sess-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(confirmed))
	existingQuery := mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM enrollments WHERE session_id = $1 AND client_id = $2 AND status = 'confirmed' LIMIT 1")).
		WithArgs("sess-1", "client-1")
	if existing == nil {
		existingQuery.WillReturnError(sql.ErrNoRows)
	} else {
		existingQuery.WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(*existing))
	}
}

func TestEnrollmentRepositoryAdmitInsertsWhenCheckPasses(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	expectLockedSessionForAdmit(mock, 1, nil)
	mock.ExpectExec("INSERT INTO enrollments").
		WithArgs(sqlmock.AnyArg(), "sess-1", "client-1", models.EnrollmentStatusConfirmed, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	var snapshot models.AdmissionSnapshot
	enrollment, err := repo.Admit(context.Background(), "sess-1", "client-1", func(s models.AdmissionSnapshot) error {
		snapshot = s
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusConfirmed, enrollment.Status)
	assert.Equal(t, 1, snapshot.ConfirmedCount)
	assert.Equal(t, 1, snapshot.Session.AvailableSlots())
	assert.Nil(t, snapshot.ExistingEnrollID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryAdmitRollsBackOnRejection(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	expectLockedSessionForAdmit(mock, 2, nil)
	mock.ExpectRollback()

	_, err := repo.Admit(context.Background(), "sess-1", "client-1", func(s models.AdmissionSnapshot) error {
		return &models.SessionFullError{SessionID: s.Session.ID, MaxCapacity: s.Session.MaxCapacity}
	})
	var full *models.SessionFullError
	require.ErrorAs(t, err, &full)
	assert.Equal(t, 2, full.MaxCapacity)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryAdmitReportsExistingSeat(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	existing := "enr-7"
	mock.ExpectBegin()
	expectLockedSessionForAdmit(mock, 1, &existing)
	mock.ExpectRollback()

	_, err := repo.Admit(context.Background(), "sess-1", "client-1", func(s models.AdmissionSnapshot) error {
		require.NotNil(t, s.ExistingEnrollID)
		return &models.AlreadyEnrolledError{SessionID: "sess-1", ClientID: "client-1", EnrollmentID: *s.ExistingEnrollID}
	})
	var already *models.AlreadyEnrolledError
	require.ErrorAs(t, err, &already)
	assert.Equal(t, "enr-7", already.EnrollmentID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryAdmitMapsUniqueViolation(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	expectLockedSessionForAdmit(mock, 0, nil)
	mock.ExpectExec("INSERT INTO enrollments").
		WillReturnError(&pq.Error{Code: pgUniqueViolation, Constraint: "enrollments_session_client_confirmed_key"})
	mock.ExpectRollback()

	_, err := repo.Admit(context.Background(), "sess-1", "client-1", func(models.AdmissionSnapshot) error { return nil })
	var already *models.AlreadyEnrolledError
	require.ErrorAs(t, err, &already)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryAdmitMissingSession(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("sess-1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.Admit(context.Background(), "sess-1", "client-1", func(models.AdmissionSnapshot) error { return nil })
	var notFound *models.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "session", notFound.Entity)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE enrollments SET status = $2, updated_at = $3 WHERE id = $1 RETURNING")).
		WithArgs("enr-1", models.EnrollmentStatusCancelled, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "session_id", "client_id", "status", "created_at", "updated_at"}).
			AddRow("enr-1", "sess-1", "client-1", "cancelled", now, now))

	enrollment, err := repo.UpdateStatus(context.Background(), "enr-1", models.EnrollmentStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusCancelled, enrollment.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

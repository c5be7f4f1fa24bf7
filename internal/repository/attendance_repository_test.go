package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/internal/models"
)

func newRecord() *models.AttendanceRecord {
	arrival := models.NewTimeOfDay(9, 10, 0)
	return &models.AttendanceRecord{
		EnrollmentID: "enr-1",
		SessionID:    "sess-1",
		ClientID:     "client-1",
		Status:       models.AttendanceStatusPresent,
		ArrivalTime:  &arrival,
		RecordedBy:   "staff-1",
	}
}

func TestAttendanceRepositoryInsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (enrollment_id, session_id) DO NOTHING RETURNING id")).
		WithArgs(sqlmock.AnyArg(), "enr-1", "sess-1", "client-1", models.AttendanceStatusPresent, "09:10:00", nil, "staff-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("att-1"))

	record := newRecord()
	require.NoError(t, repo.Insert(context.Background(), record))
	assert.NotEmpty(t, record.ID)
	assert.False(t, record.RecordedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryInsertDuplicate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (enrollment_id, session_id) DO NOTHING RETURNING id")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	err := repo.Insert(context.Background(), newRecord())
	var dup *models.DuplicateAttendanceError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "enr-1", dup.EnrollmentID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM attendance_records WHERE id = $1")).
		WithArgs("att-9").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "att-9")
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestAttendanceRepositoryListRoster(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE e.session_id = $1 AND e.status = 'confirmed'")).
		WithArgs("sess-1").
		WillReturnRows(sqlmock.NewRows([]string{"enrollment_id", "client_id", "client_name", "enrolled_at", "attendance_id", "attendance_status", "arrival_time", "notes"}).
			AddRow("enr-1", "client-1", "Ana", now, "att-1", "present", "09:05:00", nil).
			AddRow("enr-2", "client-2", "Luis", now, nil, nil, nil, nil))

	rows, err := repo.ListRoster(context.Background(), "sess-1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.NotNil(t, rows[0].ArrivalTime)
	assert.Equal(t, models.NewTimeOfDay(9, 5, 0), *rows[0].ArrivalTime)
	assert.Nil(t, rows[1].AttendanceID)
	assert.Nil(t, rows[1].ArrivalTime)
	require.NoError(t, mock.ExpectationsWereMet())
}

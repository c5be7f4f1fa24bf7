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

func TestRoomRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRoomRepository(db)

	mock.ExpectExec("INSERT INTO rooms").
		WithArgs(sqlmock.AnyArg(), "Room A", 20, true, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	room := &models.Room{Name: "Room A", Capacity: 20, Active: true}
	require.NoError(t, repo.Create(context.Background(), room))
	assert.NotEmpty(t, room.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomRepositoryCreateDuplicateName(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRoomRepository(db)

	mock.ExpectExec("INSERT INTO rooms").
		WillReturnError(&pq.Error{Code: pgUniqueViolation, Constraint: "rooms_name_key"})

	err := repo.Create(context.Background(), &models.Room{Name: "Room A", Capacity: 20, Active: true})
	require.ErrorIs(t, err, ErrDuplicateRoomName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRoomRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM rooms WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRoomRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM rooms WHERE 1=1 AND active = $1 ORDER BY name ASC LIMIT 20 OFFSET 0")).
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows(roomRowColumns).AddRow("room-1", "Room A", 20, true, nil, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM rooms WHERE 1=1 AND active = $1")).
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	active := true
	rooms, total, err := repo.List(context.Background(), models.RoomFilter{Active: &active})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, rooms, 1)
	assert.Equal(t, "Room A", rooms[0].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomRepositoryUpdateLocksRoomBeforeCapacityCheck(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRoomRepository(db)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM rooms WHERE id = $1 FOR UPDATE")).
		WithArgs("room-1").
		WillReturnRows(sqlmock.NewRows(roomRowColumns).AddRow("room-1", "Room A", 20, true, nil, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(max_capacity), 0) FROM class_sessions WHERE room_id = $1")).
		WithArgs("room-1").
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(12))
	mock.ExpectExec("UPDATE rooms SET").
		WithArgs("Room A", 15, true, nil, sqlmock.AnyArg(), "room-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	var seen int
	room, err := repo.Update(context.Background(), "room-1", func(room *models.Room, booked int) error {
		seen = booked
		room.Capacity = 15
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 12, seen)
	assert.Equal(t, 15, room.Capacity)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomRepositoryUpdateRollsBackRejectedChange(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRoomRepository(db)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows(roomRowColumns).AddRow("room-1", "Room A", 20, true, nil, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("COALESCE(MAX(max_capacity), 0)")).
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(18))
	mock.ExpectRollback()

	_, err := repo.Update(context.Background(), "room-1", func(room *models.Room, booked int) error {
		return &models.CapacityExceedsRoomError{Requested: booked, RoomCapacity: 10}
	})
	var exceeds *models.CapacityExceedsRoomError
	require.ErrorAs(t, err, &exceeds)
	assert.Equal(t, 18, exceeds.Requested)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomRepositoryUpdateMissingRoom(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRoomRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).WithArgs("missing").WillReturnRows(sqlmock.NewRows(roomRowColumns))
	mock.ExpectRollback()

	_, err := repo.Update(context.Background(), "missing", func(*models.Room, int) error { return nil })
	var notFound *models.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "room", notFound.Entity)
	require.NoError(t, mock.ExpectationsWereMet())
}

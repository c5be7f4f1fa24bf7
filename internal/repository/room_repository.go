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

const roomColumns = "id, name, capacity, active, description, created_at, updated_at"

// RoomRepository provides persistence for rooms.
type RoomRepository struct {
	db *sqlx.DB
}

// NewRoomRepository creates a new room repository.
func NewRoomRepository(db *sqlx.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// List returns rooms with optional filtering and pagination.
func (r *RoomRepository) List(ctx context.Context, filter models.RoomFilter) ([]models.Room, int, error) {
	base := "FROM rooms WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{"name": true, "capacity": true, "created_at": true}
	if !allowedSorts[sortBy] {
		sortBy = "name"
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", roomColumns, base, sortBy, order, size, offset)
	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list rooms: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", base), args...); err != nil {
		return nil, 0, fmt.Errorf("count rooms: %w", err)
	}
	return rooms, total, nil
}

// FindByID loads a room by id.
func (r *RoomRepository) FindByID(ctx context.Context, id string) (*models.Room, error) {
	query := fmt.Sprintf("SELECT %s FROM rooms WHERE id = $1", roomColumns)
	var room models.Room
	if err := r.db.GetContext(ctx, &room, query, id); err != nil {
		return nil, err
	}
	return &room, nil
}

// Create stores a new room.
func (r *RoomRepository) Create(ctx context.Context, room *models.Room) error {
	if room.ID == "" {
		room.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	room.CreatedAt = now
	room.UpdatedAt = now

	const query = `INSERT INTO rooms (id, name, capacity, active, description, created_at, updated_at) VALUES (:id, :name, :capacity, :active, :description, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, room); err != nil {
		if pqErr, ok := pgError(err); ok && string(pqErr.Code) == pgUniqueViolation {
			return ErrDuplicateRoomName
		}
		return fmt.Errorf("create room: %w", err)
	}
	return nil
}

// RoomMutation applies pending changes to the room row read under lock.
// bookedCapacity is the largest max_capacity among the room's active sessions.
type RoomMutation func(room *models.Room, bookedCapacity int) error

// Update locks the room row, applies mutate and persists the result in one
// transaction. The FOR UPDATE lock waits for schedulers holding the row FOR SHARE.
func (r *RoomRepository) Update(ctx context.Context, id string, mutate RoomMutation) (room *models.Room, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update room: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var current models.Room
	lockQuery := fmt.Sprintf("SELECT %s FROM rooms WHERE id = $1 FOR UPDATE", roomColumns)
	if err = tx.GetContext(ctx, &current, lockQuery, id); err != nil {
		if err == sql.ErrNoRows {
			err = &models.NotFoundError{Entity: "room", ID: id}
			return nil, err
		}
		return nil, fmt.Errorf("lock room: %w", err)
	}

	const bookedQuery = `SELECT COALESCE(MAX(max_capacity), 0) FROM class_sessions WHERE room_id = $1 AND status IN ('scheduled', 'in_progress')`
	var booked int
	if err = tx.GetContext(ctx, &booked, bookedQuery, id); err != nil {
		return nil, fmt.Errorf("max session capacity: %w", err)
	}
	if err = mutate(&current, booked); err != nil {
		return nil, err
	}
	current.ID = id
	current.UpdatedAt = time.Now().UTC()

	const query = `UPDATE rooms SET name = :name, capacity = :capacity, active = :active, description = :description, updated_at = :updated_at WHERE id = :id`
	if _, err = tx.NamedExecContext(ctx, query, &current); err != nil {
		if pqErr, ok := pgError(err); ok && string(pqErr.Code) == pgUniqueViolation {
			err = ErrDuplicateRoomName
			return nil, err
		}
		return nil, fmt.Errorf("update room: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update room: %w", err)
	}
	return &current, nil
}

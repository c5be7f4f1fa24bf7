package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/internal/models"
	"github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/internal/repository"
	appErrors "github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/pkg/errors"
)

type roomRepository interface {
	List(ctx context.Context, filter models.RoomFilter) ([]models.Room, int, error)
	FindByID(ctx context.Context, id string) (*models.Room, error)
	Create(ctx context.Context, room *models.Room) error
	Update(ctx context.Context, id string, mutate repository.RoomMutation) (*models.Room, error)
}

// RoomService manages the room registry.
type RoomService struct {
	repo      roomRepository
	audit     AuditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRoomService constructs the room registry service.
func NewRoomService(repo roomRepository, audit AuditRecorder, validate *validator.Validate, logger *zap.Logger) *RoomService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if audit == nil {
		audit = noopAuditRecorder{}
	}
	return &RoomService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// ListRoomsRequest captures query parameters for listing rooms.
type ListRoomsRequest struct {
	Active    *bool  `form:"active"`
	Search    string `form:"search"`
	Page      int    `form:"page"`
	PageSize  int    `form:"page_size"`
	SortBy    string `form:"sort_by"`
	SortOrder string `form:"sort_order"`
}

// CreateRoomRequest is the payload to register a room.
type CreateRoomRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=120"`
	Capacity    int     `json:"capacity" validate:"required,gt=0"`
	Active      *bool   `json:"active"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

// UpdateRoomRequest is the payload to modify a room.
type UpdateRoomRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=120"`
	Capacity    *int    `json:"capacity" validate:"omitempty,gt=0"`
	Active      *bool   `json:"active"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

// List returns rooms matching the filter.
func (s *RoomService) List(ctx context.Context, req ListRoomsRequest) ([]models.Room, *models.Pagination, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	size := req.PageSize
	if size <= 0 {
		size = 20
	}
	filter := models.RoomFilter{
		Active:    req.Active,
		Search:    strings.TrimSpace(req.Search),
		Page:      page,
		PageSize:  size,
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
	}
	rooms, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rooms")
	}
	return rooms, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a room by id.
func (s *RoomService) Get(ctx context.Context, id string) (*models.Room, error) {
	room, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFoundError("room", id)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
	}
	return room, nil
}

// Create registers a new room. Rooms are active unless stated otherwise.
func (s *RoomService) Create(ctx context.Context, req CreateRoomRequest, actorID string) (*models.Room, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid room payload")
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	room := &models.Room{
		Name:        strings.TrimSpace(req.Name),
		Capacity:    req.Capacity,
		Active:      active,
		Description: req.Description,
	}
	if err := s.repo.Create(ctx, room); err != nil {
		if errors.Is(err, repository.ErrDuplicateRoomName) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "room name already exists")
		}
		s.logger.Error("failed to create room", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create room")
	}
	s.audit.Record(ctx, models.AuditEntry{
		ActorID:    actorID,
		Action:     models.AuditActionRoomCreate,
		EntityType: "room",
		EntityID:   room.ID,
		Outcome:    models.AuditOutcomeSuccess,
		Detail:     map[string]interface{}{"name": room.Name, "capacity": room.Capacity},
	})
	return room, nil
}

// Update modifies a room. Capacity cannot drop below the largest active session booked in it.
func (s *RoomService) Update(ctx context.Context, id string, req UpdateRoomRequest, actorID string) (*models.Room, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid room payload")
	}
	room, err := s.repo.Update(ctx, id, func(current *models.Room, bookedCapacity int) error {
		if req.Name != nil {
			current.Name = strings.TrimSpace(*req.Name)
		}
		if req.Description != nil {
			current.Description = req.Description
		}
		if req.Active != nil {
			current.Active = *req.Active
		}
		if req.Capacity != nil && *req.Capacity != current.Capacity {
			if bookedCapacity > *req.Capacity {
				return &models.CapacityExceedsRoomError{Requested: bookedCapacity, RoomCapacity: *req.Capacity}
			}
			current.Capacity = *req.Capacity
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateRoomName) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "room name already exists")
		}
		if appErr, _, ok := translateDomainError(err); ok {
			return nil, appErr
		}
		s.logger.Error("failed to update room", zap.String("room_id", id), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update room")
	}
	s.audit.Record(ctx, models.AuditEntry{
		ActorID:    actorID,
		Action:     models.AuditActionRoomUpdate,
		EntityType: "room",
		EntityID:   room.ID,
		Outcome:    models.AuditOutcomeSuccess,
		Detail:     map[string]interface{}{"capacity": room.Capacity, "active": room.Active},
	})
	return room, nil
}

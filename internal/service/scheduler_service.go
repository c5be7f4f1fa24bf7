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

type classSessionRepository interface {
	List(ctx context.Context, filter models.ClassSessionFilter) ([]models.ClassSession, int, error)
	FindByID(ctx context.Context, id string) (*models.ClassSession, error)
	Create(ctx context.Context, session *models.ClassSession, check repository.ScheduleCheck) error
	Update(ctx context.Context, id string, mutate repository.SessionMutation, check repository.ScheduleCheck) (*models.ClassSession, error)
	UpdateStatus(ctx context.Context, id string, status models.SessionStatus) error
}

type referenceLookup interface {
	Exists(ctx context.Context, entity, id string) (bool, error)
}

// SchedulerService owns the class timetable: it is the only writer of sessions.
type SchedulerService struct {
	repo       classSessionRepository
	references referenceLookup
	audit      AuditRecorder
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewSchedulerService constructs the scheduler.
func NewSchedulerService(repo classSessionRepository, references referenceLookup, audit AuditRecorder, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *SchedulerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if audit == nil {
		audit = noopAuditRecorder{}
	}
	return &SchedulerService{repo: repo, references: references, audit: audit, metrics: metrics, validator: validate, logger: logger}
}

// CreateSessionRequest is the payload for scheduling a session.
type CreateSessionRequest struct {
	DisciplineID string `json:"discipline_id" validate:"required"`
	InstructorID string `json:"instructor_id" validate:"required"`
	RoomID       string `json:"room_id" validate:"required"`
	Date         string `json:"date" validate:"required"`
	StartTime    string `json:"start_time" validate:"required"`
	EndTime      string `json:"end_time" validate:"required"`
	MaxCapacity  int    `json:"max_capacity" validate:"required,gt=0"`
}

// UpdateSessionRequest carries the fields to change on a session. Omitted fields keep their value.
type UpdateSessionRequest struct {
	DisciplineID *string `json:"discipline_id" validate:"omitempty,min=1"`
	InstructorID *string `json:"instructor_id" validate:"omitempty,min=1"`
	RoomID       *string `json:"room_id" validate:"omitempty,min=1"`
	Date         *string `json:"date"`
	StartTime    *string `json:"start_time"`
	EndTime      *string `json:"end_time"`
	MaxCapacity  *int    `json:"max_capacity" validate:"omitempty,gt=0"`
	Status       *string `json:"status" validate:"omitempty,oneof=scheduled in_progress finished cancelled"`
}

// ListSessionsRequest captures query parameters for listing sessions.
type ListSessionsRequest struct {
	RoomID       string `form:"room_id"`
	InstructorID string `form:"instructor_id"`
	DisciplineID string `form:"discipline_id"`
	Status       string `form:"status" validate:"omitempty,oneof=scheduled in_progress finished cancelled"`
	DateFrom     string `form:"date_from"`
	DateTo       string `form:"date_to"`
	Page         int    `form:"page"`
	PageSize     int    `form:"page_size"`
	SortOrder    string `form:"sort_order"`
}

// CreateSession validates and persists a new session in status scheduled.
func (s *SchedulerService) CreateSession(ctx context.Context, req CreateSessionRequest, actorID string) (*models.ClassSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid session payload")
	}
	date, err := models.ParseDate(req.Date)
	if err != nil {
		return nil, validationError(err, "invalid date format, expected YYYY-MM-DD")
	}
	start, err := models.ParseTimeOfDay(req.StartTime)
	if err != nil {
		return nil, validationError(err, "invalid start_time, expected HH:MM")
	}
	end, err := models.ParseTimeOfDay(req.EndTime)
	if err != nil {
		return nil, validationError(err, "invalid end_time, expected HH:MM")
	}

	session := &models.ClassSession{
		DisciplineID: strings.TrimSpace(req.DisciplineID),
		InstructorID: strings.TrimSpace(req.InstructorID),
		RoomID:       strings.TrimSpace(req.RoomID),
		Date:         date,
		StartTime:    start,
		EndTime:      end,
		MaxCapacity:  req.MaxCapacity,
		Status:       models.SessionStatusScheduled,
	}
	if err := validateInterval(session); err != nil {
		return nil, s.reject(ctx, models.AuditActionSessionCreate, "", actorID, err)
	}
	if err := s.ensureReferences(ctx, &session.DisciplineID, &session.InstructorID); err != nil {
		return nil, s.reject(ctx, models.AuditActionSessionCreate, "", actorID, err)
	}

	err = s.repo.Create(ctx, session, func(snapshot models.ScheduleSnapshot) error {
		if !snapshot.Room.Active {
			return &models.RoomInactiveError{RoomID: snapshot.Room.ID}
		}
		return checkSessionRules(snapshot, *session)
	})
	if err != nil {
		return nil, s.reject(ctx, models.AuditActionSessionCreate, "", actorID, err)
	}

	s.audit.Record(ctx, models.AuditEntry{
		ActorID:    actorID,
		Action:     models.AuditActionSessionCreate,
		EntityType: "session",
		EntityID:   session.ID,
		Outcome:    models.AuditOutcomeSuccess,
		Detail:     sessionDetail(session),
	})
	return session, nil
}

// UpdateSession re-validates the session with the requested changes, ignoring its own booking.
func (s *SchedulerService) UpdateSession(ctx context.Context, id string, req UpdateSessionRequest, actorID string) (*models.ClassSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid session payload")
	}
	patch, err := parseSessionPatch(req)
	if err != nil {
		return nil, err
	}
	if err := s.ensureReferences(ctx, patch.disciplineID, patch.instructorID); err != nil {
		return nil, s.reject(ctx, models.AuditActionSessionUpdate, id, actorID, err)
	}

	// The patch is applied to the row read under lock so concurrent writes
	// to fields the request omits survive.
	var roomChanged bool
	var merged models.ClassSession
	updated, err := s.repo.Update(ctx, id, func(current *models.ClassSession) error {
		previousRoom := current.RoomID
		patch.apply(current)
		roomChanged = current.RoomID != previousRoom
		merged = *current
		return validateInterval(current)
	}, func(snapshot models.ScheduleSnapshot) error {
		if roomChanged && merged.Status.IsActive() && !snapshot.Room.Active {
			return &models.RoomInactiveError{RoomID: snapshot.Room.ID}
		}
		if merged.MaxCapacity < snapshot.ConfirmedCount {
			return &models.CapacityBelowEnrolledError{Requested: merged.MaxCapacity, ConfirmedCount: snapshot.ConfirmedCount}
		}
		return checkSessionRules(snapshot, merged)
	})
	if err != nil {
		return nil, s.reject(ctx, models.AuditActionSessionUpdate, id, actorID, err)
	}

	s.audit.Record(ctx, models.AuditEntry{
		ActorID:    actorID,
		Action:     models.AuditActionSessionUpdate,
		EntityType: "session",
		EntityID:   updated.ID,
		Outcome:    models.AuditOutcomeSuccess,
		Detail:     sessionDetail(updated),
	})
	return updated, nil
}

// sessionPatch is a parsed UpdateSessionRequest. Nil fields are left alone.
type sessionPatch struct {
	disciplineID *string
	instructorID *string
	roomID       *string
	date         *models.Date
	startTime    *models.TimeOfDay
	endTime      *models.TimeOfDay
	maxCapacity  *int
	status       *models.SessionStatus
}

func parseSessionPatch(req UpdateSessionRequest) (sessionPatch, error) {
	patch := sessionPatch{maxCapacity: req.MaxCapacity}
	trimmed := func(raw *string) *string {
		if raw == nil {
			return nil
		}
		value := strings.TrimSpace(*raw)
		return &value
	}
	patch.disciplineID = trimmed(req.DisciplineID)
	patch.instructorID = trimmed(req.InstructorID)
	patch.roomID = trimmed(req.RoomID)
	if req.Date != nil {
		date, err := models.ParseDate(*req.Date)
		if err != nil {
			return patch, validationError(err, "invalid date format, expected YYYY-MM-DD")
		}
		patch.date = &date
	}
	if req.StartTime != nil {
		start, err := models.ParseTimeOfDay(*req.StartTime)
		if err != nil {
			return patch, validationError(err, "invalid start_time, expected HH:MM")
		}
		patch.startTime = &start
	}
	if req.EndTime != nil {
		end, err := models.ParseTimeOfDay(*req.EndTime)
		if err != nil {
			return patch, validationError(err, "invalid end_time, expected HH:MM")
		}
		patch.endTime = &end
	}
	if req.Status != nil {
		status := models.SessionStatus(*req.Status)
		patch.status = &status
	}
	return patch, nil
}

func (p sessionPatch) apply(session *models.ClassSession) {
	if p.disciplineID != nil {
		session.DisciplineID = *p.disciplineID
	}
	if p.instructorID != nil {
		session.InstructorID = *p.instructorID
	}
	if p.roomID != nil {
		session.RoomID = *p.roomID
	}
	if p.date != nil {
		session.Date = *p.date
	}
	if p.startTime != nil {
		session.StartTime = *p.startTime
	}
	if p.endTime != nil {
		session.EndTime = *p.endTime
	}
	if p.maxCapacity != nil {
		session.MaxCapacity = *p.maxCapacity
	}
	if p.status != nil {
		session.Status = *p.status
	}
}

// CancelSession marks a session cancelled. Enrollments and attendance are left untouched.
// Cancelling an already cancelled session is a no-op.
func (s *SchedulerService) CancelSession(ctx context.Context, id string, actorID string) (*models.ClassSession, error) {
	session, err := s.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Status == models.SessionStatusCancelled {
		return session, nil
	}
	if err := s.repo.UpdateStatus(ctx, id, models.SessionStatusCancelled); err != nil {
		s.logger.Error("failed to cancel session", zap.String("session_id", id), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel session")
	}
	previous := session.Status
	session.Status = models.SessionStatusCancelled
	s.audit.Record(ctx, models.AuditEntry{
		ActorID:    actorID,
		Action:     models.AuditActionSessionCancel,
		EntityType: "session",
		EntityID:   id,
		Outcome:    models.AuditOutcomeSuccess,
		Detail:     map[string]interface{}{"previous_status": string(previous)},
	})
	return session, nil
}

// GetSession returns a session with its confirmed enrollment count.
func (s *SchedulerService) GetSession(ctx context.Context, id string) (*models.ClassSession, error) {
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFoundError("session", id)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	return session, nil
}

// ListSessions returns sessions matching the filter.
func (s *SchedulerService) ListSessions(ctx context.Context, req ListSessionsRequest) ([]models.ClassSession, *models.Pagination, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, validationError(err, "invalid filter")
	}
	page := req.Page
	if page < 1 {
		page = 1
	}
	size := req.PageSize
	if size <= 0 {
		size = 20
	}
	filter := models.ClassSessionFilter{
		RoomID:       req.RoomID,
		InstructorID: req.InstructorID,
		DisciplineID: req.DisciplineID,
		Page:         page,
		PageSize:     size,
		SortOrder:    req.SortOrder,
	}
	if req.Status != "" {
		status := models.SessionStatus(req.Status)
		filter.Status = &status
	}
	if req.DateFrom != "" {
		from, err := models.ParseDate(req.DateFrom)
		if err != nil {
			return nil, nil, validationError(err, "invalid date_from, expected YYYY-MM-DD")
		}
		filter.DateFrom = &from
	}
	if req.DateTo != "" {
		to, err := models.ParseDate(req.DateTo)
		if err != nil {
			return nil, nil, validationError(err, "invalid date_to, expected YYYY-MM-DD")
		}
		filter.DateTo = &to
	}
	sessions, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}
	return sessions, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Availability reports the remaining seats of a session.
func (s *SchedulerService) Availability(ctx context.Context, id string) (*models.SessionAvailability, error) {
	session, err := s.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.SessionAvailability{
		SessionID:      session.ID,
		MaxCapacity:    session.MaxCapacity,
		ConfirmedCount: session.ConfirmedCount,
		AvailableSlots: session.AvailableSlots(),
		IsFull:         session.IsFull(),
	}, nil
}

// AvailableSlots returns maxCapacity minus confirmed enrollments.
func (s *SchedulerService) AvailableSlots(ctx context.Context, id string) (int, error) {
	availability, err := s.Availability(ctx, id)
	if err != nil {
		return 0, err
	}
	return availability.AvailableSlots, nil
}

// IsFull reports whether a session has no seats left.
func (s *SchedulerService) IsFull(ctx context.Context, id string) (bool, error) {
	availability, err := s.Availability(ctx, id)
	if err != nil {
		return false, err
	}
	return availability.IsFull, nil
}

// ensureReferences checks the discipline and instructor ids that are being set. Nil ids are skipped.
func (s *SchedulerService) ensureReferences(ctx context.Context, disciplineID, instructorID *string) error {
	if s.references == nil {
		return nil
	}
	refs := []struct {
		entity string
		id     *string
	}{
		{repository.ReferenceDiscipline, disciplineID},
		{repository.ReferenceInstructor, instructorID},
	}
	for _, ref := range refs {
		if ref.id == nil {
			continue
		}
		ok, err := s.references.Exists(ctx, ref.entity, *ref.id)
		if err != nil {
			return err
		}
		if !ok {
			return &models.NotFoundError{Entity: ref.entity, ID: *ref.id}
		}
	}
	return nil
}

// reject records a failed write and converts err into the transport error.
func (s *SchedulerService) reject(ctx context.Context, action, sessionID, actorID string, err error) error {
	appErr, reason, ok := translateDomainError(err)
	if !ok {
		s.logger.Error("session write failed", zap.String("action", action), zap.String("session_id", sessionID), zap.Error(err))
		return wrapStorageError(err, "failed to save session")
	}
	var conflict *models.SessionConflictError
	if errors.As(err, &conflict) {
		s.metrics.RecordSchedulingConflict(string(conflict.Kind))
	}
	s.logger.Info("session write rejected", zap.String("action", action), zap.String("session_id", sessionID), zap.String("reason", reason))
	s.audit.Record(ctx, models.AuditEntry{
		ActorID:    actorID,
		Action:     action,
		EntityType: "session",
		EntityID:   sessionID,
		Outcome:    models.AuditOutcomeRejected,
		Detail:     map[string]interface{}{"reason": reason},
	})
	return appErr
}

func validateInterval(session *models.ClassSession) error {
	if session.EndTime <= session.StartTime {
		return &models.InvalidIntervalError{StartTime: session.StartTime, EndTime: session.EndTime}
	}
	return nil
}

// checkSessionRules validates capacity against the room and runs the conflict checks.
func checkSessionRules(snapshot models.ScheduleSnapshot, session models.ClassSession) error {
	if session.MaxCapacity > snapshot.Room.Capacity {
		return &models.CapacityExceedsRoomError{Requested: session.MaxCapacity, RoomCapacity: snapshot.Room.Capacity}
	}
	return checkSessionConflicts(snapshot, session)
}

func sessionDetail(session *models.ClassSession) map[string]interface{} {
	return map[string]interface{}{
		"room_id":       session.RoomID,
		"instructor_id": session.InstructorID,
		"date":          session.Date.String(),
		"start_time":    session.StartTime.String(),
		"end_time":      session.EndTime.String(),
		"max_capacity":  session.MaxCapacity,
		"status":        string(session.Status),
	}
}

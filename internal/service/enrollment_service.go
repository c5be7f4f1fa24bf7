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

type enrollmentRepository interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, int, error)
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	Admit(ctx context.Context, sessionID, clientID string, check repository.AdmissionCheck) (*models.Enrollment, error)
	UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus) (*models.Enrollment, error)
}

// MembershipChecker answers whether a client may use the gym on a given day.
type MembershipChecker interface {
	MembershipActive(ctx context.Context, clientID string, asOf models.Date) (bool, error)
}

type statisticsInvalidator interface {
	InvalidateSession(ctx context.Context, sessionID string)
	InvalidateClient(ctx context.Context, clientID string)
}

type noopStatisticsInvalidator struct{}

func (noopStatisticsInvalidator) InvalidateSession(context.Context, string) {}
func (noopStatisticsInvalidator) InvalidateClient(context.Context, string)  {}

// EnrollmentService admits clients into sessions.
type EnrollmentService struct {
	repo       enrollmentRepository
	membership MembershipChecker
	references referenceLookup
	stats      statisticsInvalidator
	audit      AuditRecorder
	metrics    *MetricsService
	clock      Clock
	validator  *validator.Validate
	logger     *zap.Logger
}

// EnrollmentServiceDeps groups the collaborators of EnrollmentService.
type EnrollmentServiceDeps struct {
	Repo       enrollmentRepository
	Membership MembershipChecker
	References referenceLookup
	Stats      statisticsInvalidator
	Audit      AuditRecorder
	Metrics    *MetricsService
	Clock      Clock
}

// NewEnrollmentService constructs the admission controller.
func NewEnrollmentService(deps EnrollmentServiceDeps, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &EnrollmentService{
		repo:       deps.Repo,
		membership: deps.Membership,
		references: deps.References,
		stats:      deps.Stats,
		audit:      deps.Audit,
		metrics:    deps.Metrics,
		clock:      deps.Clock,
		validator:  validate,
		logger:     logger,
	}
	if svc.stats == nil {
		svc.stats = noopStatisticsInvalidator{}
	}
	if svc.audit == nil {
		svc.audit = noopAuditRecorder{}
	}
	return svc
}

// EnrollRequest is the payload to reserve a seat.
type EnrollRequest struct {
	SessionID string `json:"session_id" validate:"required"`
	ClientID  string `json:"client_id" validate:"required"`
}

// ListEnrollmentsRequest captures query parameters for listing enrollments.
type ListEnrollmentsRequest struct {
	SessionID string `form:"session_id"`
	ClientID  string `form:"client_id"`
	Status    string `form:"status" validate:"omitempty,oneof=confirmed cancelled attended no_show"`
	Page      int    `form:"page"`
	PageSize  int    `form:"page_size"`
}

// Enroll admits a client into a session. Session status, remaining capacity, membership and
// the one-seat-per-client rule are checked in that order while the session row is locked.
func (s *EnrollmentService) Enroll(ctx context.Context, req EnrollRequest, actorID string) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid enrollment payload")
	}
	sessionID := strings.TrimSpace(req.SessionID)
	clientID := strings.TrimSpace(req.ClientID)

	if s.references != nil {
		exists, err := s.references.Exists(ctx, repository.ReferenceClient, clientID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check client")
		}
		if !exists {
			return nil, s.reject(ctx, sessionID, clientID, actorID, &models.NotFoundError{Entity: "client", ID: clientID})
		}
	}

	asOf := s.clock.Today()
	active, err := s.membership.MembershipActive(ctx, clientID, asOf)
	if err != nil {
		s.logger.Error("membership lookup failed", zap.String("client_id", clientID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check membership")
	}

	enrollment, err := s.repo.Admit(ctx, sessionID, clientID, func(snapshot models.AdmissionSnapshot) error {
		return admit(snapshot, clientID, active, asOf)
	})
	if err != nil {
		return nil, s.reject(ctx, sessionID, clientID, actorID, err)
	}

	s.stats.InvalidateSession(ctx, sessionID)
	s.stats.InvalidateClient(ctx, clientID)
	s.audit.Record(ctx, models.AuditEntry{
		ActorID:    actorID,
		Action:     models.AuditActionEnroll,
		EntityType: "enrollment",
		EntityID:   enrollment.ID,
		Outcome:    models.AuditOutcomeSuccess,
		Detail:     map[string]interface{}{"session_id": sessionID, "client_id": clientID},
	})
	return enrollment, nil
}

// admit applies the admission rules to the locked session state.
func admit(snapshot models.AdmissionSnapshot, clientID string, membershipActive bool, asOf models.Date) error {
	session := snapshot.Session
	if session.Status != models.SessionStatusScheduled {
		return &models.SessionNotOpenError{SessionID: session.ID, Status: session.Status}
	}
	if snapshot.ConfirmedCount >= session.MaxCapacity {
		return &models.SessionFullError{SessionID: session.ID, MaxCapacity: session.MaxCapacity}
	}
	if !membershipActive {
		return &models.NoActiveMembershipError{ClientID: clientID, AsOf: asOf}
	}
	if snapshot.ExistingEnrollID != nil {
		return &models.AlreadyEnrolledError{SessionID: session.ID, ClientID: clientID, EnrollmentID: *snapshot.ExistingEnrollID}
	}
	return nil
}

// CancelEnrollment withdraws a seat. It is allowed in any session state and repeat calls are no-ops.
func (s *EnrollmentService) CancelEnrollment(ctx context.Context, id string, actorID string) (*models.Enrollment, error) {
	enrollment, err := s.GetEnrollment(ctx, id)
	if err != nil {
		return nil, err
	}
	if enrollment.Status == models.EnrollmentStatusCancelled {
		return enrollment, nil
	}
	updated, err := s.repo.UpdateStatus(ctx, id, models.EnrollmentStatusCancelled)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFoundError("enrollment", id)
		}
		s.logger.Error("failed to cancel enrollment", zap.String("enrollment_id", id), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel enrollment")
	}
	s.stats.InvalidateSession(ctx, updated.SessionID)
	s.stats.InvalidateClient(ctx, updated.ClientID)
	s.audit.Record(ctx, models.AuditEntry{
		ActorID:    actorID,
		Action:     models.AuditActionEnrollmentCancel,
		EntityType: "enrollment",
		EntityID:   id,
		Outcome:    models.AuditOutcomeSuccess,
		Detail:     map[string]interface{}{"previous_status": string(enrollment.Status)},
	})
	return updated, nil
}

// GetEnrollment loads an enrollment by id.
func (s *EnrollmentService) GetEnrollment(ctx context.Context, id string) (*models.Enrollment, error) {
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFoundError("enrollment", id)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	return enrollment, nil
}

// ListEnrollments returns enrollments matching the filter.
func (s *EnrollmentService) ListEnrollments(ctx context.Context, req ListEnrollmentsRequest) ([]models.Enrollment, *models.Pagination, error) {
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
	filter := models.EnrollmentFilter{SessionID: req.SessionID, ClientID: req.ClientID, Page: page, PageSize: size}
	if req.Status != "" {
		status := models.EnrollmentStatus(req.Status)
		filter.Status = &status
	}
	enrollments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return enrollments, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

func (s *EnrollmentService) reject(ctx context.Context, sessionID, clientID, actorID string, err error) error {
	appErr, reason, ok := translateDomainError(err)
	if !ok {
		s.logger.Error("enrollment failed", zap.String("session_id", sessionID), zap.String("client_id", clientID), zap.Error(err))
		return wrapStorageError(err, "failed to enroll client")
	}
	s.metrics.RecordEnrollmentRejection(reason)
	s.logger.Info("enrollment rejected", zap.String("session_id", sessionID), zap.String("client_id", clientID), zap.String("reason", reason))
	s.audit.Record(ctx, models.AuditEntry{
		ActorID:    actorID,
		Action:     models.AuditActionEnroll,
		EntityType: "session",
		EntityID:   sessionID,
		Outcome:    models.AuditOutcomeRejected,
		Detail:     map[string]interface{}{"client_id": clientID, "reason": reason},
	})
	return appErr
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/internal/dto"
	"github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/internal/models"
	appErrors "github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/pkg/errors"
)

type attendanceRepository interface {
	FindByID(ctx context.Context, id string) (*models.AttendanceRecord, error)
	Insert(ctx context.Context, record *models.AttendanceRecord) error
	Update(ctx context.Context, record *models.AttendanceRecord) error
	ListRoster(ctx context.Context, sessionID string) ([]models.RosterRow, error)
}

type enrollmentLookup interface {
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	FindConfirmed(ctx context.Context, sessionID, clientID string) (*models.Enrollment, error)
}

type sessionLookup interface {
	FindByID(ctx context.Context, id string) (*models.ClassSession, error)
}

// AttendanceService records attendance outcomes for confirmed enrollments.
type AttendanceService struct {
	repo        attendanceRepository
	enrollments enrollmentLookup
	sessions    sessionLookup
	stats       statisticsInvalidator
	audit       AuditRecorder
	metrics     *MetricsService
	clock       Clock
	validator   *validator.Validate
	logger      *zap.Logger
}

// AttendanceServiceDeps groups the collaborators of AttendanceService.
type AttendanceServiceDeps struct {
	Repo        attendanceRepository
	Enrollments enrollmentLookup
	Sessions    sessionLookup
	Stats       statisticsInvalidator
	Audit       AuditRecorder
	Metrics     *MetricsService
	Clock       Clock
}

// NewAttendanceService constructs the attendance recorder.
func NewAttendanceService(deps AttendanceServiceDeps, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &AttendanceService{
		repo:        deps.Repo,
		enrollments: deps.Enrollments,
		sessions:    deps.Sessions,
		stats:       deps.Stats,
		audit:       deps.Audit,
		metrics:     deps.Metrics,
		clock:       deps.Clock,
		validator:   validate,
		logger:      logger,
	}
	if svc.stats == nil {
		svc.stats = noopStatisticsInvalidator{}
	}
	if svc.audit == nil {
		svc.audit = noopAuditRecorder{}
	}
	return svc
}

// RecordAttendanceRequest is the payload to record one outcome.
type RecordAttendanceRequest struct {
	EnrollmentID string  `json:"enrollment_id" validate:"required"`
	Status       string  `json:"status" validate:"required,oneof=present absent justified late"`
	ArrivalTime  *string `json:"arrival_time"`
	Notes        *string `json:"notes" validate:"omitempty,max=1000"`
}

// UpdateAttendanceRequest changes the mutable fields of a record.
// UpdateAttendanceRequest carries the fields to change on an attendance record.
// An empty ArrivalTime clears the stored arrival.
type UpdateAttendanceRequest struct {
	Status      *string `json:"status" validate:"omitempty,oneof=present absent justified late"`
	ArrivalTime *string `json:"arrival_time"`
	Notes       *string `json:"notes" validate:"omitempty,max=1000"`
}

// BulkAttendanceItem references an enrollment directly or through the client holding it.
type BulkAttendanceItem struct {
	EnrollmentID string  `json:"enrollment_id" validate:"required_without=ClientID"`
	ClientID     string  `json:"client_id" validate:"required_without=EnrollmentID"`
	Status       string  `json:"status" validate:"required,oneof=present absent justified late"`
	ArrivalTime  *string `json:"arrival_time"`
	Notes        *string `json:"notes" validate:"omitempty,max=1000"`
}

// BulkAttendanceRequest is the payload to record many outcomes of one session.
type BulkAttendanceRequest struct {
	Items []BulkAttendanceItem `json:"items" validate:"required,min=1,max=500,dive"`
}

// Ref identifies the item in error reports.
func (i BulkAttendanceItem) Ref() string {
	if i.EnrollmentID != "" {
		return i.EnrollmentID
	}
	return i.ClientID
}

// RecordAttendance creates the attendance record of an enrollment.
func (s *AttendanceService) RecordAttendance(ctx context.Context, req RecordAttendanceRequest, actorID string) (*models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid attendance payload")
	}
	arrival, err := parseArrival(req.ArrivalTime)
	if err != nil {
		return nil, err
	}
	enrollmentID := strings.TrimSpace(req.EnrollmentID)
	enrollment, err := s.enrollments.FindByID(ctx, enrollmentID)
	if err != nil {
		return nil, s.reject(ctx, enrollmentID, actorID, lookupError(err, "enrollment", enrollmentID))
	}
	session, err := s.sessions.FindByID(ctx, enrollment.SessionID)
	if err != nil {
		return nil, s.reject(ctx, enrollmentID, actorID, lookupError(err, "session", enrollment.SessionID))
	}
	record, err := s.record(ctx, enrollment, session, models.AttendanceStatus(req.Status), arrival, req.Notes, actorID)
	if err != nil {
		return nil, s.reject(ctx, enrollmentID, actorID, err)
	}
	return record, nil
}

// record enforces the attendance preconditions and inserts the record.
func (s *AttendanceService) record(ctx context.Context, enrollment *models.Enrollment, session *models.ClassSession, status models.AttendanceStatus, arrival *models.TimeOfDay, notes *string, actorID string) (*models.AttendanceRecord, error) {
	if enrollment.Status != models.EnrollmentStatusConfirmed {
		return nil, &models.EnrollmentNotConfirmedError{EnrollmentID: enrollment.ID, Status: enrollment.Status}
	}
	if s.clock.Today().Before(session.Date) {
		return nil, &models.AttendanceBeforeSessionError{SessionID: session.ID, Date: session.Date}
	}
	if status == models.AttendanceStatusPresent && arrival == nil {
		now := s.clock.TimeOfDay()
		arrival = &now
	}

	record := &models.AttendanceRecord{
		EnrollmentID: enrollment.ID,
		SessionID:    session.ID,
		ClientID:     enrollment.ClientID,
		Status:       status,
		ArrivalTime:  arrival,
		Notes:        notes,
		RecordedBy:   actorID,
	}
	if err := s.repo.Insert(ctx, record); err != nil {
		return nil, err
	}
	applyLateness(record, session.StartTime)

	s.metrics.RecordAttendance(string(status))
	s.stats.InvalidateSession(ctx, session.ID)
	s.stats.InvalidateClient(ctx, enrollment.ClientID)
	s.audit.Record(ctx, models.AuditEntry{
		ActorID:    actorID,
		Action:     models.AuditActionAttendanceRecord,
		EntityType: "attendance",
		EntityID:   record.ID,
		Outcome:    models.AuditOutcomeSuccess,
		Detail:     map[string]interface{}{"enrollment_id": enrollment.ID, "status": string(status)},
	})
	return record, nil
}

// UpdateAttendance edits status, arrival time or notes. The enrollment and session stay fixed.
func (s *AttendanceService) UpdateAttendance(ctx context.Context, id string, req UpdateAttendanceRequest, actorID string) (*models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid attendance payload")
	}
	arrival, err := parseArrival(req.ArrivalTime)
	if err != nil {
		return nil, err
	}
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, wrapStorageError(lookupError(err, "attendance", id), "failed to load attendance record")
	}
	session, err := s.sessions.FindByID(ctx, record.SessionID)
	if err != nil {
		return nil, wrapStorageError(lookupError(err, "session", record.SessionID), "failed to load session")
	}
	if req.Status != nil {
		record.Status = models.AttendanceStatus(*req.Status)
	}
	if req.ArrivalTime != nil {
		// An empty arrival_time clears the recorded arrival.
		record.ArrivalTime = arrival
	}
	if req.Notes != nil {
		record.Notes = req.Notes
	}
	record.RecordedBy = actorID
	if err := s.repo.Update(ctx, record); err != nil {
		s.logger.Error("failed to update attendance", zap.String("attendance_id", id), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update attendance")
	}
	applyLateness(record, session.StartTime)

	s.stats.InvalidateSession(ctx, record.SessionID)
	s.stats.InvalidateClient(ctx, record.ClientID)
	s.audit.Record(ctx, models.AuditEntry{
		ActorID:    actorID,
		Action:     models.AuditActionAttendanceUpdate,
		EntityType: "attendance",
		EntityID:   record.ID,
		Outcome:    models.AuditOutcomeSuccess,
		Detail:     map[string]interface{}{"status": string(record.Status)},
	})
	return record, nil
}

// RecordAttendanceBulk records every item independently. Failed items are reported and do not stop the batch.
func (s *AttendanceService) RecordAttendanceBulk(ctx context.Context, sessionID string, req BulkAttendanceRequest, actorID string) (*dto.BulkAttendanceResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid bulk attendance payload")
	}
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, wrapStorageError(lookupError(err, "session", sessionID), "failed to load session")
	}

	result := &dto.BulkAttendanceResult{
		Created: make([]models.AttendanceRecord, 0, len(req.Items)),
		Errors:  []dto.BulkAttendanceError{},
	}
	for i, item := range req.Items {
		record, err := s.recordItem(ctx, session, item, actorID)
		if err != nil {
			appErr := appErrors.FromError(s.reject(ctx, item.Ref(), actorID, err))
			result.Errors = append(result.Errors, dto.BulkAttendanceError{
				Index:   i,
				Ref:     item.Ref(),
				Code:    appErr.Code,
				Message: appErr.Message,
			})
			continue
		}
		result.Created = append(result.Created, *record)
	}
	result.CreatedCount = len(result.Created)
	return result, nil
}

func (s *AttendanceService) recordItem(ctx context.Context, session *models.ClassSession, item BulkAttendanceItem, actorID string) (*models.AttendanceRecord, error) {
	arrival, err := parseArrival(item.ArrivalTime)
	if err != nil {
		return nil, err
	}
	var enrollment *models.Enrollment
	if item.EnrollmentID != "" {
		enrollment, err = s.enrollments.FindByID(ctx, item.EnrollmentID)
		if err != nil {
			return nil, lookupError(err, "enrollment", item.EnrollmentID)
		}
		if enrollment.SessionID != session.ID {
			return nil, &models.NotFoundError{Entity: "enrollment", ID: item.EnrollmentID}
		}
	} else {
		enrollment, err = s.enrollments.FindConfirmed(ctx, session.ID, item.ClientID)
		if err != nil {
			return nil, lookupError(err, "enrollment", item.ClientID)
		}
	}
	return s.record(ctx, enrollment, session, models.AttendanceStatus(item.Status), arrival, item.Notes, actorID)
}

// SessionRoster lists every confirmed enrollment of a session as pending or recorded.
func (s *AttendanceService) SessionRoster(ctx context.Context, sessionID string) (*dto.SessionRoster, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, wrapStorageError(lookupError(err, "session", sessionID), "failed to load session")
	}
	rows, err := s.repo.ListRoster(ctx, sessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	roster := &dto.SessionRoster{Session: *session, Entries: make([]dto.RosterEntry, 0, len(rows))}
	for _, row := range rows {
		entry := dto.RosterEntry{
			EnrollmentID: row.EnrollmentID,
			ClientID:     row.ClientID,
			State:        dto.RosterStatePending,
			AttendanceID: row.AttendanceID,
			Status:       row.Status,
			ArrivalTime:  row.ArrivalTime,
			Notes:        row.Notes,
		}
		if row.ClientName != nil {
			entry.ClientName = *row.ClientName
		}
		if row.AttendanceID != nil {
			entry.State = dto.RosterStateRecorded
			entry.IsLate, entry.MinutesLate = Lateness(row.ArrivalTime, session.StartTime)
			roster.Recorded++
		} else {
			roster.Pending++
		}
		roster.Entries = append(roster.Entries, entry)
	}
	return roster, nil
}

// Lateness compares an arrival against the session start on the same day.
// minutesLate is the number of whole minutes past the start.
func Lateness(arrival *models.TimeOfDay, start models.TimeOfDay) (late bool, minutesLate int) {
	if arrival == nil || *arrival <= start {
		return false, 0
	}
	return true, int(arrival.Sub(start).Seconds()) / 60
}

func applyLateness(record *models.AttendanceRecord, start models.TimeOfDay) {
	record.IsLate, record.MinutesLate = Lateness(record.ArrivalTime, start)
}

func parseArrival(raw *string) (*models.TimeOfDay, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	arrival, err := models.ParseTimeOfDay(strings.TrimSpace(*raw))
	if err != nil {
		return nil, validationError(err, "invalid arrival_time, expected HH:MM")
	}
	return &arrival, nil
}

// lookupError maps a missing row to NotFoundError and passes other failures through.
func lookupError(err error, entity, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return &models.NotFoundError{Entity: entity, ID: id}
	}
	return err
}

func (s *AttendanceService) reject(ctx context.Context, ref, actorID string, err error) error {
	appErr, reason, ok := translateDomainError(err)
	if !ok {
		var existing *appErrors.Error
		if errors.As(err, &existing) {
			return existing
		}
		s.logger.Error("attendance write failed", zap.String("ref", ref), zap.Error(err))
		return wrapStorageError(err, "failed to record attendance")
	}
	s.logger.Info("attendance rejected", zap.String("ref", ref), zap.String("reason", reason))
	s.audit.Record(ctx, models.AuditEntry{
		ActorID:    actorID,
		Action:     models.AuditActionAttendanceRecord,
		EntityType: "enrollment",
		EntityID:   ref,
		Outcome:    models.AuditOutcomeRejected,
		Detail:     map[string]interface{}{"reason": reason},
	})
	return appErr
}

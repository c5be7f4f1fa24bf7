package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/internal/models"
	appErrors "github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/pkg/errors"
	"github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/pkg/jobs"
	"github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/pkg/middleware/requestid"
)

const auditJobType = "audit.write"

type auditRepository interface {
	Create(ctx context.Context, log *models.AuditLog) error
	ListByEntity(ctx context.Context, entityType, entityID string, limit int) ([]models.AuditLog, error)
}

// AuditRecorder receives notifications about scheduling operations.
type AuditRecorder interface {
	Record(ctx context.Context, entry models.AuditEntry)
}

// AuditService persists audit entries asynchronously through a worker queue.
type AuditService struct {
	repo   auditRepository
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewAuditService builds the audit sink. Call Start before recording.
func NewAuditService(repo auditRepository, cfg jobs.QueueConfig, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &AuditService{repo: repo, logger: logger}
	cfg.Logger = logger
	svc.queue = jobs.NewQueue("audit", svc.handle, cfg)
	return svc
}

// Start launches the delivery workers.
func (s *AuditService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop waits for the delivery workers to exit.
func (s *AuditService) Stop() {
	s.queue.Stop()
}

// Record hands an entry to the queue. Delivery failures never reach the caller.
func (s *AuditService) Record(ctx context.Context, entry models.AuditEntry) {
	if s == nil {
		return
	}
	if reqID := requestid.FromContext(ctx); reqID != "" {
		detail := make(map[string]interface{}, len(entry.Detail)+1)
		for k, v := range entry.Detail {
			detail[k] = v
		}
		detail["request_id"] = reqID
		entry.Detail = detail
	}
	job := jobs.Job{ID: uuid.NewString(), Type: auditJobType, Payload: entry}
	if err := s.queue.TryEnqueue(job); err != nil {
		s.logger.Warn("audit entry dropped",
			zap.String("action", entry.Action),
			zap.String("entity_id", entry.EntityID),
			zap.Error(err),
		)
	}
}

// History lists recent audit entries for an entity.
func (s *AuditService) History(ctx context.Context, entityType, entityID string, limit int) ([]models.AuditLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	logs, err := s.repo.ListByEntity(ctx, entityType, entityID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load audit history")
	}
	return logs, nil
}

func (s *AuditService) handle(ctx context.Context, job jobs.Job) error {
	entry, ok := job.Payload.(models.AuditEntry)
	if !ok {
		s.logger.Warn("unexpected audit payload", zap.String("job_id", job.ID))
		return nil
	}
	var detail []byte
	if len(entry.Detail) > 0 {
		raw, err := json.Marshal(entry.Detail)
		if err != nil {
			s.logger.Warn("audit detail not serialisable", zap.String("action", entry.Action), zap.Error(err))
		} else {
			detail = raw
		}
	}
	log := &models.AuditLog{
		ID:         job.ID,
		ActorID:    entry.ActorID,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Outcome:    entry.Outcome,
		Detail:     detail,
	}
	if err := s.repo.Create(ctx, log); err != nil {
		return fmt.Errorf("persist audit entry: %w", err)
	}
	return nil
}

type noopAuditRecorder struct{}

func (noopAuditRecorder) Record(context.Context, models.AuditEntry) {}

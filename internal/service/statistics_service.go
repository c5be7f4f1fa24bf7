package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/internal/dto"
	"github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/internal/models"
	appErrors "github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/pkg/errors"
)

type statisticsRepository interface {
	SessionAttendanceCounts(ctx context.Context, sessionID string) (models.AttendanceCounts, error)
	ClientEnrollmentCount(ctx context.Context, clientID string, from, to models.Date) (int, error)
	ClientAttendanceCounts(ctx context.Context, clientID string, from, to models.Date) (models.AttendanceCounts, error)
}

// StatisticsConfig tunes caching and default windows.
type StatisticsConfig struct {
	CacheTTL          time.Duration
	ClientDefaultDays int
}

// StatisticsService serves read-only attendance aggregates. Results may lag writes by the cache TTL.
type StatisticsService struct {
	repo     statisticsRepository
	sessions sessionLookup
	cache    *CacheService
	clock    Clock
	config   StatisticsConfig
	logger   *zap.Logger
}

// NewStatisticsService constructs the statistics service.
func NewStatisticsService(repo statisticsRepository, sessions sessionLookup, cache *CacheService, clock Clock, cfg StatisticsConfig, logger *zap.Logger) *StatisticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ClientDefaultDays <= 0 {
		cfg.ClientDefaultDays = 30
	}
	return &StatisticsService{repo: repo, sessions: sessions, cache: cache, clock: clock, config: cfg, logger: logger}
}

// ClientStatsRequest captures the optional date range.
type ClientStatsRequest struct {
	From string `form:"from"`
	To   string `form:"to"`
}

// SessionStats aggregates attendance of a session over its confirmed enrollments.
func (s *StatisticsService) SessionStats(ctx context.Context, sessionID string) (*dto.SessionStats, error) {
	return readThrough(ctx, s.cache, sessionStatsKey(sessionID), s.config.CacheTTL, func(ctx context.Context) (*dto.SessionStats, error) {
		return s.computeSessionStats(ctx, sessionID)
	})
}

func (s *StatisticsService) computeSessionStats(ctx context.Context, sessionID string) (*dto.SessionStats, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, wrapStorageError(lookupError(err, "session", sessionID), "failed to load session")
	}
	counts, err := s.repo.SessionAttendanceCounts(ctx, sessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate session attendance")
	}

	stats := &dto.SessionStats{
		SessionID:      sessionID,
		TotalEnrolled:  session.ConfirmedCount,
		TotalRecorded:  counts.Total(),
		Present:        counts.Present,
		Absent:         counts.Absent,
		Justified:      counts.Justified,
		Late:           counts.Late,
		AttendanceRate: AttendanceRate(counts, session.ConfirmedCount),
	}
	stats.Unrecorded = stats.TotalEnrolled - stats.TotalRecorded
	if stats.Unrecorded < 0 {
		stats.Unrecorded = 0
	}
	return stats, nil
}

// ClientStats aggregates a client's enrollments and attendance for sessions dated within [from, to].
// Missing bounds default to the last ClientDefaultDays days.
func (s *StatisticsService) ClientStats(ctx context.Context, clientID string, req ClientStatsRequest) (*dto.ClientStats, error) {
	to := s.clock.Today()
	from := to.AddDays(-s.config.ClientDefaultDays)
	var err error
	if req.To != "" {
		if to, err = models.ParseDate(req.To); err != nil {
			return nil, validationError(err, "invalid to date, expected YYYY-MM-DD")
		}
		if req.From == "" {
			from = to.AddDays(-s.config.ClientDefaultDays)
		}
	}
	if req.From != "" {
		if from, err = models.ParseDate(req.From); err != nil {
			return nil, validationError(err, "invalid from date, expected YYYY-MM-DD")
		}
	}
	if to.Before(from) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "from must not be after to")
	}

	return readThrough(ctx, s.cache, clientStatsKey(clientID, from, to), s.config.CacheTTL, func(ctx context.Context) (*dto.ClientStats, error) {
		return s.computeClientStats(ctx, clientID, from, to)
	})
}

func (s *StatisticsService) computeClientStats(ctx context.Context, clientID string, from, to models.Date) (*dto.ClientStats, error) {
	total, err := s.repo.ClientEnrollmentCount(ctx, clientID, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count client enrollments")
	}
	counts, err := s.repo.ClientAttendanceCounts(ctx, clientID, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate client attendance")
	}
	stats := &dto.ClientStats{
		ClientID:         clientID,
		From:             from,
		To:               to,
		TotalEnrollments: total,
		Present:          counts.Present,
		Absent:           counts.Absent,
		Justified:        counts.Justified,
		Late:             counts.Late,
		AttendanceRate:   AttendanceRate(counts, total),
	}
	return stats, nil
}

// InvalidateSession drops the cached aggregate of a session.
func (s *StatisticsService) InvalidateSession(ctx context.Context, sessionID string) {
	if err := s.cache.Delete(ctx, sessionStatsKey(sessionID)); err != nil {
		s.logger.Debug("session stats invalidation failed", zap.String("session_id", sessionID), zap.Error(err))
	}
}

// InvalidateClient drops every cached range of a client.
func (s *StatisticsService) InvalidateClient(ctx context.Context, clientID string) {
	if err := s.cache.Invalidate(ctx, fmt.Sprintf("stats:client:%s:*", clientID)); err != nil {
		s.logger.Debug("client stats invalidation failed", zap.String("client_id", clientID), zap.Error(err))
	}
}

// AttendanceRate is (present+late)/total as a percentage rounded to two decimals, 0 when total is 0.
func AttendanceRate(counts models.AttendanceCounts, total int) float64 {
	if total <= 0 {
		return 0
	}
	rate := float64(counts.Present+counts.Late) / float64(total) * 100
	return math.Round(rate*100) / 100
}

func sessionStatsKey(sessionID string) string {
	return fmt.Sprintf("stats:session:%s", sessionID)
}

func clientStatsKey(clientID string, from, to models.Date) string {
	return fmt.Sprintf("stats:client:%s:%s:%s", clientID, from, to)
}

package service

import (
	"context"
	"encoding/json"
	"path"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/internal/models"
	appErrors "github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/pkg/errors"
)

type mockStatsRepo struct {
	sessionCounts models.AttendanceCounts
	clientCounts  models.AttendanceCounts
	enrollments   int
	calls         int
	from, to      models.Date
}

func (m *mockStatsRepo) SessionAttendanceCounts(ctx context.Context, sessionID string) (models.AttendanceCounts, error) {
	m.calls++
	return m.sessionCounts, nil
}

func (m *mockStatsRepo) ClientEnrollmentCount(ctx context.Context, clientID string, from, to models.Date) (int, error) {
	m.calls++
	m.from, m.to = from, to
	return m.enrollments, nil
}

func (m *mockStatsRepo) ClientAttendanceCounts(ctx context.Context, clientID string, from, to models.Date) (models.AttendanceCounts, error) {
	return m.clientCounts, nil
}

type memoryCacheRepo struct {
	mu    sync.Mutex
	items map[string][]byte
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{items: map[string][]byte{}}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = raw
	return nil
}

func (m *memoryCacheRepo) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.items, key)
	}
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.items {
		if ok, _ := path.Match(pattern, key); ok {
			delete(m.items, key)
		}
	}
	return nil
}

func TestAttendanceRate(t *testing.T) {
	assert.Equal(t, 0.0, AttendanceRate(models.AttendanceCounts{Present: 3}, 0))
	assert.Equal(t, 66.67, AttendanceRate(models.AttendanceCounts{Present: 1, Late: 1, Absent: 1}, 3))
	assert.Equal(t, 50.0, AttendanceRate(models.AttendanceCounts{Present: 1, Justified: 1}, 2))
}

func TestSessionStatsUsesConfirmedEnrollments(t *testing.T) {
	store := newMemStore()
	store.addSession(seededSession("s1", hm(9, 0), hm(10, 0), 10))
	for _, id := range []string{"a", "b", "c", "d"} {
		store.addEnrollment(models.Enrollment{ID: id, SessionID: "s1", ClientID: id, Status: models.EnrollmentStatusConfirmed})
	}
	store.addEnrollment(models.Enrollment{ID: "x", SessionID: "s1", ClientID: "x", Status: models.EnrollmentStatusCancelled})

	repo := &mockStatsRepo{sessionCounts: models.AttendanceCounts{Present: 2, Late: 1}}
	cache := NewCacheService(newMemoryCacheRepo(), NewMetricsService(), time.Minute, zap.NewNop(), true)
	svc := NewStatisticsService(repo, &mockSessionRepo{store: store}, cache, fixedClock(2025, time.March, 10, 12, 0), StatisticsConfig{}, zap.NewNop())
	ctx := context.Background()

	stats, err := svc.SessionStats(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalEnrolled)
	assert.Equal(t, 3, stats.TotalRecorded)
	assert.Equal(t, 1, stats.Unrecorded)
	assert.Equal(t, 75.0, stats.AttendanceRate)

	_, err = svc.SessionStats(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.calls, "second read is served from cache")

	svc.InvalidateSession(ctx, "s1")
	_, err = svc.SessionStats(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calls)

	_, err = svc.SessionStats(ctx, "missing")
	requireAppError(t, err, appErrors.ErrNotFound.Code)
}

func TestClientStatsWindow(t *testing.T) {
	repo := &mockStatsRepo{enrollments: 4, clientCounts: models.AttendanceCounts{Present: 1, Late: 1, Absent: 1}}
	svc := NewStatisticsService(repo, &mockSessionRepo{store: newMemStore()}, nil, fixedClock(2025, time.March, 31, 8, 0), StatisticsConfig{}, zap.NewNop())
	ctx := context.Background()

	stats, err := svc.ClientStats(ctx, "c1", ClientStatsRequest{})
	require.NoError(t, err)
	assert.Equal(t, "2025-03-01", repo.from.String())
	assert.Equal(t, "2025-03-31", repo.to.String())
	assert.Equal(t, 4, stats.TotalEnrollments)
	assert.Equal(t, 50.0, stats.AttendanceRate)

	_, err = svc.ClientStats(ctx, "c1", ClientStatsRequest{From: "2025-01-01", To: "2025-01-31"})
	require.NoError(t, err)
	assert.Equal(t, "2025-01-01", repo.from.String())
	assert.Equal(t, "2025-01-31", repo.to.String())

	_, err = svc.ClientStats(ctx, "c1", ClientStatsRequest{From: "2025-02-01", To: "2025-01-01"})
	requireAppError(t, err, appErrors.ErrValidation.Code)

	_, err = svc.ClientStats(ctx, "c1", ClientStatsRequest{From: "01/02/2025"})
	requireAppError(t, err, appErrors.ErrValidation.Code)
}

func TestClientStatsInvalidation(t *testing.T) {
	repo := &mockStatsRepo{enrollments: 1}
	cache := NewCacheService(newMemoryCacheRepo(), nil, time.Minute, zap.NewNop(), true)
	svc := NewStatisticsService(repo, &mockSessionRepo{store: newMemStore()}, cache, fixedClock(2025, time.March, 31, 8, 0), StatisticsConfig{ClientDefaultDays: 7}, zap.NewNop())
	ctx := context.Background()

	_, err := svc.ClientStats(ctx, "c1", ClientStatsRequest{})
	require.NoError(t, err)
	_, err = svc.ClientStats(ctx, "c1", ClientStatsRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.calls)

	svc.InvalidateClient(ctx, "c1")
	_, err = svc.ClientStats(ctx, "c1", ClientStatsRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calls)
	assert.Equal(t, "2025-03-24", repo.from.String())
}

package usecase_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/riskibarqy/nfl-pickem/internal/domain/game"
	"github.com/riskibarqy/nfl-pickem/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/nfl-pickem/internal/usecase"
	"github.com/stretchr/testify/require"
)

type stubFeed struct {
	mu       sync.Mutex
	results  []usecase.ExternalGameResult
	err      error
	calls    int
	lastYear int
	lastWeek int
}

func (f *stubFeed) FetchResults(_ context.Context, seasonYear, weekNumber int) ([]usecase.ExternalGameResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastYear, f.lastWeek = seasonYear, weekNumber
	if f.err != nil {
		return nil, f.err
	}
	return append([]usecase.ExternalGameResult(nil), f.results...), nil
}

func (f *stubFeed) set(results []usecase.ExternalGameResult, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results, f.err = results, err
}

type recordingSyncMetrics struct {
	mu       sync.Mutex
	outcomes []string
	updates  int
}

func (m *recordingSyncMetrics) ObserveResultSync(outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, outcome)
}

func (m *recordingSyncMetrics) AddGameUpdates(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates += n
}

func newSyncService(t *testing.T, env *testEnv, feed usecase.ResultFeed, metrics usecase.SyncMetrics) *usecase.ResultSyncService {
	t.Helper()
	svc, err := usecase.NewResultSyncService(feed, env.schedule, env.repos.Seasons, env.repos.Games, 2, metrics, nil)
	require.NoError(t, err)
	svc.SetClock(env.clock)
	t.Cleanup(svc.Close)
	return svc
}

func TestResultSyncService_AppliesFeedResults(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newTestEnv(t)
	feed := &stubFeed{}
	metrics := &recordingSyncMetrics{}
	svc := newSyncService(t, env, feed, metrics)

	feed.set([]usecase.ExternalGameResult{
		{GameExternalID: env.game(0).ExternalID, Status: game.StatusCompleted, HomeScore: intPtr(27), AwayScore: intPtr(20)},
		{GameExternalID: env.game(1).ExternalID, Status: game.StatusInProgress, HomeScore: intPtr(7), AwayScore: intPtr(0)},
		{GameExternalID: env.game(2).ExternalID, Status: game.StatusScheduled},
		{GameExternalID: "not-on-our-schedule", Status: game.StatusCompleted, HomeScore: intPtr(1), AwayScore: intPtr(0)},
	}, nil)

	report, err := svc.SyncWeek(ctx, memory.SeedWeekID(seedYear, 1))
	require.NoError(t, err)
	require.Equal(t, 4, report.Fetched)
	require.Equal(t, 2, report.Updated)
	require.Equal(t, 1, report.Unchanged)
	require.Equal(t, 1, report.Unknown)
	require.Zero(t, report.Failed)

	completed, _, err := env.repos.Games.GetByID(ctx, env.game(0).ID)
	require.NoError(t, err)
	require.Equal(t, game.StatusCompleted, completed.Status)
	require.Equal(t, 1, env.publisher.completedCount())

	status := svc.Status()
	require.False(t, status.Stale())
	require.NotNil(t, status.LastSuccessAt)
	require.Equal(t, []string{"success"}, metrics.outcomes)
	require.Equal(t, 2, metrics.updates)

	// A second pass over identical data is a no-op.
	report, err = svc.SyncWeek(ctx, memory.SeedWeekID(seedYear, 1))
	require.NoError(t, err)
	require.Zero(t, report.Updated)
	require.Equal(t, 3, report.Unchanged)
}

func TestResultSyncService_RejectsRegressions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newTestEnv(t)
	feed := &stubFeed{}
	svc := newSyncService(t, env, feed, nil)

	env.complete(t, env.game(0), 27, 20)
	feed.set([]usecase.ExternalGameResult{
		{GameExternalID: env.game(0).ExternalID, Status: game.StatusInProgress, HomeScore: intPtr(10), AwayScore: intPtr(3)},
	}, nil)

	report, err := svc.SyncWeek(ctx, memory.SeedWeekID(seedYear, 1))
	require.NoError(t, err)
	require.Equal(t, 1, report.Rejected)
	require.Zero(t, report.Updated)

	stored, _, err := env.repos.Games.GetByID(ctx, env.game(0).ID)
	require.NoError(t, err)
	require.Equal(t, game.StatusCompleted, stored.Status)
	require.Equal(t, 27, *stored.HomeScore)
}

func TestResultSyncService_FeedFailureMarksStale(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newTestEnv(t)
	feed := &stubFeed{}
	metrics := &recordingSyncMetrics{}
	svc := newSyncService(t, env, feed, metrics)

	feed.set(nil, errors.New("connection refused"))
	_, err := svc.SyncWeek(ctx, memory.SeedWeekID(seedYear, 1))
	if !errors.Is(err, usecase.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
	if kind := usecase.ErrorKind(err); kind != usecase.KindUpstreamUnavailable {
		t.Fatalf("unexpected kind %q", kind)
	}

	status := svc.Status()
	require.True(t, status.Stale())
	require.Equal(t, 1, status.ConsecutiveFailures)
	require.Nil(t, status.LastSuccessAt)
	require.Contains(t, status.LastError, "connection refused")

	standings := usecase.NewStandingsService(env.repos.Leagues, env.repos.Seasons, env.repos.Games, env.repos.Picks, svc, nil)
	result, err := standings.GetStandings(ctx, memory.SeedLeagueID, nil)
	require.NoError(t, err)
	require.True(t, result.Stale)

	feed.set(nil, nil)
	_, err = svc.SyncWeek(ctx, memory.SeedWeekID(seedYear, 1))
	require.NoError(t, err)
	require.False(t, svc.Status().Stale())
	require.Equal(t, []string{"upstream_error", "success"}, metrics.outcomes)
}

func TestResultSyncService_SyncCurrentWeekUsesSeasonCalendar(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	feed := &stubFeed{}
	svc := newSyncService(t, env, feed, nil)

	report, err := svc.SyncCurrentWeek(context.Background())
	require.NoError(t, err)
	require.Equal(t, memory.SeedWeekID(seedYear, 1), report.WeekID)
	require.Equal(t, seedYear, feed.lastYear)
	require.Equal(t, 1, feed.lastWeek)
}

func TestResultSyncService_UnknownWeek(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	feed := &stubFeed{}
	svc := newSyncService(t, env, feed, nil)

	_, err := svc.SyncWeek(context.Background(), "no-such-week")
	if !errors.Is(err, usecase.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	require.Zero(t, feed.calls)
}

func TestResultSyncService_SyncCurrentWeekFinishesPreviousWeek(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newTestEnv(t)
	feed := &stubFeed{}
	metrics := &recordingSyncMetrics{}
	svc := newSyncService(t, env, feed, metrics)

	// The week's last kickoff has passed, so week 2 is now current while the
	// late game is still being played.
	last := env.game(3)
	env.clock.Advance(last.StartsAt.Add(4 * time.Hour).Sub(env.clock.Now()))

	current, err := env.schedule.GetCurrentWeek(ctx)
	require.NoError(t, err)
	require.Equal(t, memory.SeedWeekID(seedYear, 2), current.ID)

	feed.set([]usecase.ExternalGameResult{
		{GameExternalID: last.ExternalID, Status: game.StatusCompleted, HomeScore: intPtr(21), AwayScore: intPtr(14)},
	}, nil)

	report, err := svc.SyncCurrentWeek(ctx)
	require.NoError(t, err)
	require.Equal(t, memory.SeedWeekID(seedYear, 2), report.WeekID)
	require.Len(t, report.Backfilled, 1)
	require.Equal(t, memory.SeedWeekID(seedYear, 1), report.Backfilled[0].WeekID)
	require.Equal(t, 1, report.Backfilled[0].Updated)
	require.Equal(t, 2, feed.lastWeek)

	stored, _, err := env.repos.Games.GetByID(ctx, last.ID)
	require.NoError(t, err)
	require.Equal(t, game.StatusCompleted, stored.Status)
	require.Equal(t, 21, *stored.HomeScore)
	require.Equal(t, 14, *stored.AwayScore)
	require.Equal(t, []string{"success"}, metrics.outcomes)
	require.False(t, svc.Status().Stale())
}

func TestResultSyncService_SyncCurrentWeekSkipsFinishedWeeks(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newTestEnv(t)
	feed := &stubFeed{}
	svc := newSyncService(t, env, feed, nil)

	for i := 0; i < 4; i++ {
		env.complete(t, env.game(i), 24, 17)
	}
	env.clock.Advance(env.game(3).StartsAt.Add(4 * time.Hour).Sub(env.clock.Now()))

	report, err := svc.SyncCurrentWeek(ctx)
	require.NoError(t, err)
	require.Equal(t, memory.SeedWeekID(seedYear, 2), report.WeekID)
	require.Empty(t, report.Backfilled)
	require.Equal(t, 1, feed.calls)
}

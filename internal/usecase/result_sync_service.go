package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jonboulle/clockwork"
	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/nfl-pickem/internal/domain/game"
	"github.com/riskibarqy/nfl-pickem/internal/domain/season"
	"github.com/riskibarqy/nfl-pickem/internal/platform/logging"
)

const defaultSyncWorkers = 4

// ExternalGameResult is one normalized row from the live-score feed.
type ExternalGameResult struct {
	GameExternalID string
	HomeScore      *int
	AwayScore      *int
	Status         game.Status
}

// ResultFeed is the live-score provider. Implementations report transient
// failures wrapped in ErrUpstreamUnavailable.
type ResultFeed interface {
	FetchResults(ctx context.Context, seasonYear, weekNumber int) ([]ExternalGameResult, error)
}

// SyncMetrics receives sync outcomes; observability.Metrics implements it.
type SyncMetrics interface {
	ObserveResultSync(outcome string, duration time.Duration)
	AddGameUpdates(n int)
}

// SyncStatus tracks the health of the result feed.
type SyncStatus struct {
	LastAttemptAt       *time.Time `json:"last_attempt_at,omitempty"`
	LastSuccessAt       *time.Time `json:"last_success_at,omitempty"`
	LastError           string     `json:"last_error,omitempty"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
}

// Stale is true while the most recent sync attempt failed.
func (s SyncStatus) Stale() bool {
	return s.ConsecutiveFailures > 0
}

type SyncReport struct {
	WeekID    string `json:"week_id"`
	Fetched   int    `json:"fetched"`
	Updated   int    `json:"updated"`
	Unchanged int    `json:"unchanged"`
	Unknown   int    `json:"unknown"`
	Rejected  int    `json:"rejected"`
	Failed    int    `json:"failed"`

	// Backfilled holds earlier weeks synced in the same pass.
	Backfilled []SyncReport `json:"backfilled,omitempty"`
}

type gameResultWriter interface {
	UpdateGameResult(ctx context.Context, input UpdateGameResultInput) (game.Game, error)
}

// ResultSyncService pulls results for a week from the feed and applies them to
// games on a bounded worker pool.
type ResultSyncService struct {
	feed       ResultFeed
	writer     gameResultWriter
	schedule   *ScheduleService
	seasonRepo season.Repository
	gameRepo   game.Repository
	pool       *ants.Pool
	metrics    SyncMetrics
	logger     *logging.Logger
	clock      clockwork.Clock

	mu     sync.RWMutex
	status SyncStatus
}

func NewResultSyncService(
	feed ResultFeed,
	schedule *ScheduleService,
	seasonRepo season.Repository,
	gameRepo game.Repository,
	workers int,
	metrics SyncMetrics,
	logger *logging.Logger,
) (*ResultSyncService, error) {
	if workers < 1 {
		workers = defaultSyncWorkers
	}
	if logger == nil {
		logger = logging.Default()
	}

	pool, err := ants.NewPool(workers, ants.WithPanicHandler(func(p any) {
		logger.Error("result sync task panicked", "panic", p)
	}))
	if err != nil {
		return nil, errors.Wrap(err, "create result sync pool")
	}

	return &ResultSyncService{
		feed:       feed,
		writer:     schedule,
		schedule:   schedule,
		seasonRepo: seasonRepo,
		gameRepo:   gameRepo,
		pool:       pool,
		metrics:    metrics,
		logger:     logger.Named("usecase.result_sync"),
		clock:      clockwork.NewRealClock(),
	}, nil
}

// Close releases the worker pool.
func (s *ResultSyncService) Close() {
	s.pool.Release()
}

func (s *ResultSyncService) Status() SyncStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// SyncCurrentWeek syncs the current week after first catching up earlier weeks
// of the season that still have started games short of completed. The current
// week advances when a week's last game kicks off, so those games would
// otherwise never receive their final result.
func (s *ResultSyncService) SyncCurrentWeek(ctx context.Context) (SyncReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ResultSyncService.SyncCurrentWeek")
	defer span.End()

	started := s.clock.Now()
	week, err := s.schedule.GetCurrentWeek(ctx)
	if err != nil {
		return SyncReport{}, err
	}

	pending, err := s.pendingWeeks(ctx, week)
	if err != nil {
		s.finish(ctx, "error", started, err)
		return SyncReport{WeekID: week.ID}, err
	}

	var firstErr error
	outcome := "success"
	backfilled := make([]SyncReport, 0, len(pending))
	for _, w := range pending {
		report, weekOutcome, err := s.syncWeek(ctx, w)
		backfilled = append(backfilled, report)
		if err != nil {
			s.logger.WarnContext(ctx, "backfill sync failed", "week_id", w.ID, "week_number", w.Number, "error", err)
			if firstErr == nil {
				firstErr, outcome = err, weekOutcome
			}
		}
	}

	report, weekOutcome, err := s.syncWeek(ctx, week)
	if len(backfilled) > 0 {
		report.Backfilled = backfilled
	}
	if err != nil {
		firstErr, outcome = err, weekOutcome
	}

	s.finish(ctx, outcome, started, firstErr)
	return report, firstErr
}

// SyncWeek fetches feed results for the week and applies them. Feed failures
// are recorded and returned as ErrUpstreamUnavailable; they are not retried here.
func (s *ResultSyncService) SyncWeek(ctx context.Context, weekID string) (SyncReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ResultSyncService.SyncWeek")
	defer span.End()

	started := s.clock.Now()
	week, err := s.schedule.GetWeek(ctx, weekID)
	if err != nil {
		return SyncReport{WeekID: weekID}, err
	}

	report, outcome, err := s.syncWeek(ctx, week)
	s.finish(ctx, outcome, started, err)
	return report, err
}

// pendingWeeks returns earlier weeks of current's season, in week order, with
// at least one started game that has not completed.
func (s *ResultSyncService) pendingWeeks(ctx context.Context, current season.Week) ([]season.Week, error) {
	weeks, err := s.seasonRepo.ListWeeks(ctx, current.SeasonID)
	if err != nil {
		return nil, errors.Wrapf(err, "list weeks season=%s", current.SeasonID)
	}

	earlier := make(map[string]season.Week)
	weekIDs := make([]string, 0, len(weeks))
	for _, w := range weeks {
		if w.Number < current.Number {
			earlier[w.ID] = w
			weekIDs = append(weekIDs, w.ID)
		}
	}
	if len(weekIDs) == 0 {
		return nil, nil
	}

	games, err := s.gameRepo.ListByWeeks(ctx, weekIDs)
	if err != nil {
		return nil, errors.Wrap(err, "list games of earlier weeks")
	}

	now := s.clock.Now()
	needed := make(map[string]struct{})
	for _, g := range games {
		if g.Status != game.StatusCompleted && !g.StartsAt.After(now) {
			needed[g.WeekID] = struct{}{}
		}
	}

	out := make([]season.Week, 0, len(needed))
	for _, w := range weeks {
		if _, ok := needed[w.ID]; ok {
			out = append(out, earlier[w.ID])
		}
	}
	return out, nil
}

// syncWeek does the fetch and apply work without touching sync status. An empty
// outcome means nothing was attempted against the feed.
func (s *ResultSyncService) syncWeek(ctx context.Context, week season.Week) (SyncReport, string, error) {
	report := SyncReport{WeekID: week.ID}

	parent, ok, err := s.seasonRepo.GetByID(ctx, week.SeasonID)
	if err != nil {
		return report, "", errors.Wrapf(err, "get season %s", week.SeasonID)
	}
	if !ok {
		return report, "", notFoundf("season %s not found", week.SeasonID)
	}

	results, err := s.feed.FetchResults(ctx, parent.Year, week.Number)
	if err != nil {
		if !errors.Is(err, ErrUpstreamUnavailable) {
			err = errors.Mark(err, ErrUpstreamUnavailable)
		}
		return report, "upstream_error", errors.Wrapf(err, "fetch results season=%d week=%d", parent.Year, week.Number)
	}
	report.Fetched = len(results)

	games, err := s.gameRepo.ListByWeek(ctx, week.ID)
	if err != nil {
		return report, "error", errors.Wrapf(err, "list games week=%s", week.ID)
	}
	byExternalID := make(map[string]game.Game, len(games))
	for _, g := range games {
		if g.ExternalID != "" {
			byExternalID[g.ExternalID] = g
		}
	}

	var updated, unchanged, rejected, failed atomic.Int32
	var firstErr error
	var errOnce sync.Once
	var wg sync.WaitGroup

	for _, result := range results {
		current, ok := byExternalID[result.GameExternalID]
		if !ok {
			report.Unknown++
			continue
		}
		if resultUnchanged(current, result) {
			unchanged.Add(1)
			continue
		}

		input := UpdateGameResultInput{
			GameID:    current.ID,
			Status:    string(result.Status),
			HomeScore: result.HomeScore,
			AwayScore: result.AwayScore,
		}
		wg.Add(1)
		if err := s.pool.Submit(func() {
			defer wg.Done()

			_, err := s.writer.UpdateGameResult(ctx, input)
			switch {
			case err == nil:
				updated.Add(1)
			case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrValidation):
				rejected.Add(1)
				s.logger.WarnContext(ctx, "feed result rejected", "game_id", input.GameID, "status", input.Status, "error", err)
			default:
				failed.Add(1)
				errOnce.Do(func() { firstErr = err })
			}
		}); err != nil {
			wg.Done()
			failed.Add(1)
			errOnce.Do(func() { firstErr = errors.Wrap(err, "submit result update") })
		}
	}
	wg.Wait()

	report.Updated = int(updated.Load())
	report.Unchanged = int(unchanged.Load())
	report.Rejected = int(rejected.Load())
	report.Failed = int(failed.Load())
	if s.metrics != nil {
		s.metrics.AddGameUpdates(report.Updated)
	}

	if firstErr != nil {
		return report, "error", errors.Wrapf(firstErr, "apply results week=%s failed=%d", week.ID, report.Failed)
	}

	s.logger.InfoContext(ctx, "result sync completed",
		"week_id", week.ID,
		"week_number", week.Number,
		"fetched", report.Fetched,
		"updated", report.Updated,
		"unknown", report.Unknown,
		"rejected", report.Rejected,
	)
	return report, "success", nil
}

func (s *ResultSyncService) finish(ctx context.Context, outcome string, started time.Time, err error) {
	if outcome == "" {
		return
	}
	if err != nil {
		s.recordFailure(err)
	} else {
		s.recordSuccess()
	}
	s.observe(outcome, started)
	if err != nil && outcome != "upstream_error" {
		s.logger.ErrorContext(ctx, "result sync failed", "error", err)
	}
}

func resultUnchanged(current game.Game, result ExternalGameResult) bool {
	if current.Status != result.Status {
		return false
	}
	if result.HomeScore == nil || result.AwayScore == nil {
		return true
	}
	return current.HomeScore != nil && current.AwayScore != nil &&
		*current.HomeScore == *result.HomeScore && *current.AwayScore == *result.AwayScore
}

func (s *ResultSyncService) recordFailure(err error) {
	now := s.clock.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.LastAttemptAt = &now
	s.status.LastError = err.Error()
	s.status.ConsecutiveFailures++
}

func (s *ResultSyncService) recordSuccess() {
	now := s.clock.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.LastAttemptAt = &now
	s.status.LastSuccessAt = &now
	s.status.LastError = ""
	s.status.ConsecutiveFailures = 0
}

func (s *ResultSyncService) observe(outcome string, started time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveResultSync(outcome, s.clock.Since(started))
}

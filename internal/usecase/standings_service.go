package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jonboulle/clockwork"
	"github.com/riskibarqy/nfl-pickem/internal/domain/game"
	"github.com/riskibarqy/nfl-pickem/internal/domain/league"
	"github.com/riskibarqy/nfl-pickem/internal/domain/pick"
	"github.com/riskibarqy/nfl-pickem/internal/domain/season"
	"github.com/riskibarqy/nfl-pickem/internal/domain/standing"
	"github.com/riskibarqy/nfl-pickem/internal/platform/logging"
	"github.com/sourcegraph/conc/pool"
)

type StandingsResult struct {
	LeagueID     string
	SeasonYear   int
	WeekNumber   *int
	Standings    []standing.Standing
	Stale        bool
	LastSyncedAt *time.Time
	ComputedAt   time.Time
}

type syncStatusReader interface {
	Status() SyncStatus
}

// StandingsService computes league standings on every call from current picks
// and game results. It never calls the result feed; when the last feed sync
// failed the result is flagged stale instead.
type StandingsService struct {
	leagueRepo league.Repository
	seasonRepo season.Repository
	gameRepo   game.Repository
	pickRepo   pick.Repository
	syncStatus syncStatusReader
	logger     *logging.Logger
	clock      clockwork.Clock
}

func NewStandingsService(
	leagueRepo league.Repository,
	seasonRepo season.Repository,
	gameRepo game.Repository,
	pickRepo pick.Repository,
	syncStatus syncStatusReader,
	logger *logging.Logger,
) *StandingsService {
	if logger == nil {
		logger = logging.Default()
	}
	return &StandingsService{
		leagueRepo: leagueRepo,
		seasonRepo: seasonRepo,
		gameRepo:   gameRepo,
		pickRepo:   pickRepo,
		syncStatus: syncStatus,
		logger:     logger.Named("usecase.standings"),
		clock:      clockwork.NewRealClock(),
	}
}

// GetStandings ranks the league for the active season, or for a single week when
// weekNumber is set.
func (s *StandingsService) GetStandings(ctx context.Context, leagueID string, weekNumber *int) (StandingsResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StandingsService.GetStandings")
	defer span.End()

	leagueID = strings.TrimSpace(leagueID)
	if leagueID == "" {
		return StandingsResult{}, validationf("league id is required")
	}
	if weekNumber != nil && *weekNumber < 1 {
		return StandingsResult{}, validationf("week must be greater than zero")
	}

	var (
		members []league.Membership
		active  season.Season
		weeks   []season.Week
	)

	meta := pool.New().WithContext(ctx).WithCancelOnError()
	meta.Go(func(ctx context.Context) error {
		if _, ok, err := s.leagueRepo.GetByID(ctx, leagueID); err != nil {
			return errors.Wrapf(err, "get league %s", leagueID)
		} else if !ok {
			return notFoundf("league %s not found", leagueID)
		}
		items, err := s.leagueRepo.ListMembers(ctx, leagueID)
		if err != nil {
			return errors.Wrapf(err, "list members league=%s", leagueID)
		}
		members = items
		return nil
	})
	meta.Go(func(ctx context.Context) error {
		current, ok, err := s.seasonRepo.GetActive(ctx)
		if err != nil {
			return errors.Wrap(err, "get active season")
		}
		if !ok {
			return notFoundf("no active season configured")
		}
		items, err := s.seasonRepo.ListWeeks(ctx, current.ID)
		if err != nil {
			return errors.Wrapf(err, "list weeks season=%s", current.ID)
		}
		active, weeks = current, items
		return nil
	})
	if err := meta.Wait(); err != nil {
		return StandingsResult{}, err
	}

	mode := standing.ModeSeason
	if weekNumber != nil {
		mode = standing.ModeWeek
		scoped := make([]season.Week, 0, len(weeks))
		found := false
		for _, w := range weeks {
			if w.Number <= *weekNumber {
				scoped = append(scoped, w)
			}
			found = found || w.Number == *weekNumber
		}
		if !found {
			return StandingsResult{}, notFoundf("week %d not found in season %d", *weekNumber, active.Year)
		}
		weeks = scoped
	}

	weekIDs := make([]string, 0, len(weeks))
	for _, w := range weeks {
		weekIDs = append(weekIDs, w.ID)
	}

	var (
		games []game.Game
		picks []pick.Pick
	)
	data := pool.New().WithContext(ctx).WithCancelOnError()
	data.Go(func(ctx context.Context) error {
		items, err := s.gameRepo.ListByWeeks(ctx, weekIDs)
		if err != nil {
			return errors.Wrap(err, "list games for standings")
		}
		games = items
		return nil
	})
	data.Go(func(ctx context.Context) error {
		items, err := s.pickRepo.ListByWeeks(ctx, weekIDs)
		if err != nil {
			return errors.Wrap(err, "list picks for standings")
		}
		picks = items
		return nil
	})
	if err := data.Wait(); err != nil {
		return StandingsResult{}, err
	}

	result := StandingsResult{
		LeagueID:   leagueID,
		SeasonYear: active.Year,
		WeekNumber: weekNumber,
		Standings: standing.Compute(standing.Input{
			Members: members,
			Weeks:   weeks,
			Games:   games,
			Picks:   picks,
			Mode:    mode,
		}),
		ComputedAt: s.clock.Now().UTC(),
	}
	if s.syncStatus != nil {
		status := s.syncStatus.Status()
		result.Stale = status.Stale()
		result.LastSyncedAt = status.LastSuccessAt
		if result.Stale {
			s.logger.DebugContext(ctx, "serving standings from last known results", "league_id", leagueID, "last_error", status.LastError)
		}
	}
	return result, nil
}

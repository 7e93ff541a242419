package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jonboulle/clockwork"
	"github.com/riskibarqy/nfl-pickem/internal/domain/game"
	"github.com/riskibarqy/nfl-pickem/internal/domain/season"
	idgen "github.com/riskibarqy/nfl-pickem/internal/platform/id"
	"github.com/riskibarqy/nfl-pickem/internal/platform/logging"
)

const maxResultWriteAttempts = 3

type UpsertGameInput struct {
	WeekID     string
	ExternalID string
	HomeTeamID string
	AwayTeamID string
	StartsAt   time.Time
}

type UpdateGameResultInput struct {
	GameID    string
	Status    string
	HomeScore *int
	AwayScore *int
}

// ScheduleService owns seasons, weeks and games.
type ScheduleService struct {
	seasonRepo season.Repository
	gameRepo   game.Repository
	idGen      idgen.Generator
	publisher  EventPublisher
	logger     *logging.Logger
	clock      clockwork.Clock
}

func NewScheduleService(
	seasonRepo season.Repository,
	gameRepo game.Repository,
	idGen idgen.Generator,
	publisher EventPublisher,
	logger *logging.Logger,
) *ScheduleService {
	if publisher == nil {
		publisher = nopEventPublisher{}
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &ScheduleService{
		seasonRepo: seasonRepo,
		gameRepo:   gameRepo,
		idGen:      idGen,
		publisher:  publisher,
		logger:     logger.Named("usecase.schedule"),
		clock:      clockwork.NewRealClock(),
	}
}

func (s *ScheduleService) GetActiveSeason(ctx context.Context) (season.Season, error) {
	active, ok, err := s.seasonRepo.GetActive(ctx)
	if err != nil {
		return season.Season{}, errors.Wrap(err, "get active season")
	}
	if !ok {
		return season.Season{}, notFoundf("no active season configured")
	}
	return active, nil
}

// GetCurrentWeek returns the earliest week still open for picks, or the most
// recently started week when every week has locked.
func (s *ScheduleService) GetCurrentWeek(ctx context.Context) (season.Week, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScheduleService.GetCurrentWeek")
	defer span.End()

	active, err := s.GetActiveSeason(ctx)
	if err != nil {
		return season.Week{}, err
	}

	weeks, err := s.seasonRepo.ListWeeks(ctx, active.ID)
	if err != nil {
		return season.Week{}, errors.Wrapf(err, "list weeks season=%s", active.ID)
	}

	week, ok := season.CurrentWeek(weeks, s.clock.Now())
	if !ok {
		return season.Week{}, notFoundf("season %d has no weeks", active.Year)
	}
	return week, nil
}

// EnsureSeason creates the season for year when absent and makes it the active one.
func (s *ScheduleService) EnsureSeason(ctx context.Context, year int) (season.Season, error) {
	candidate := season.New(year)
	if err := candidate.Validate(); err != nil {
		return season.Season{}, errors.Mark(err, ErrValidation)
	}

	seasonID, err := s.idGen.NewID()
	if err != nil {
		return season.Season{}, errors.Wrap(err, "generate season id")
	}
	candidate.ID = seasonID
	candidate.CreatedAt = s.clock.Now().UTC()

	stored, err := s.seasonRepo.CreateIfAbsent(ctx, candidate)
	if err != nil {
		return season.Season{}, errors.Wrapf(err, "ensure season year=%d", year)
	}
	return stored, nil
}

// GetOrCreateCurrentWeek only writes when the season or week is missing. It is
// safe under concurrent first use: the week insert is atomic on (season id, week number).
func (s *ScheduleService) GetOrCreateCurrentWeek(ctx context.Context) (season.Week, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScheduleService.GetOrCreateCurrentWeek")
	defer span.End()

	now := s.clock.Now().UTC()
	year := season.YearAt(now)
	current, ok, err := s.seasonRepo.GetActive(ctx)
	if err != nil {
		return season.Week{}, errors.Wrap(err, "get active season")
	}
	if !ok || current.Year != year {
		current, err = s.EnsureSeason(ctx, year)
		if err != nil {
			return season.Week{}, err
		}
	}

	weeks, err := s.seasonRepo.ListWeeks(ctx, current.ID)
	if err != nil {
		return season.Week{}, errors.Wrapf(err, "list weeks season=%s", current.ID)
	}
	for _, w := range weeks {
		if w.IsOpen(now) {
			return w, nil
		}
	}

	number := current.WeekNumberAt(now)
	for _, w := range weeks {
		if w.Number == number {
			return w, nil
		}
	}

	weekID, err := s.idGen.NewID()
	if err != nil {
		return season.Week{}, errors.Wrap(err, "generate week id")
	}
	week := season.Week{
		ID:        weekID,
		SeasonID:  current.ID,
		Number:    number,
		LockAt:    current.DefaultLockAt(number),
		CreatedAt: now,
	}
	if err := week.Validate(current.NumWeeks); err != nil {
		return season.Week{}, errors.Mark(err, ErrValidation)
	}

	stored, err := s.seasonRepo.CreateWeekIfAbsent(ctx, week)
	if err != nil {
		return season.Week{}, errors.Wrapf(err, "create week season=%s number=%d", current.ID, number)
	}
	if stored.ID == week.ID {
		s.logger.InfoContext(ctx, "created week", "season_year", current.Year, "week_number", number, "week_id", stored.ID)
	}
	return stored, nil
}

func (s *ScheduleService) GetWeek(ctx context.Context, weekID string) (season.Week, error) {
	weekID = strings.TrimSpace(weekID)
	if weekID == "" {
		return season.Week{}, validationf("week id is required")
	}

	week, ok, err := s.seasonRepo.GetWeekByID(ctx, weekID)
	if err != nil {
		return season.Week{}, errors.Wrapf(err, "get week %s", weekID)
	}
	if !ok {
		return season.Week{}, notFoundf("week %s not found", weekID)
	}
	return week, nil
}

func (s *ScheduleService) ListWeeks(ctx context.Context, seasonID string) ([]season.Week, error) {
	seasonID = strings.TrimSpace(seasonID)
	if seasonID == "" {
		return nil, validationf("season id is required")
	}
	if _, ok, err := s.seasonRepo.GetByID(ctx, seasonID); err != nil {
		return nil, errors.Wrapf(err, "get season %s", seasonID)
	} else if !ok {
		return nil, notFoundf("season %s not found", seasonID)
	}

	weeks, err := s.seasonRepo.ListWeeks(ctx, seasonID)
	if err != nil {
		return nil, errors.Wrapf(err, "list weeks season=%s", seasonID)
	}
	return weeks, nil
}

// ListGames returns the week's games in schedule order. Every call reads a fresh snapshot.
func (s *ScheduleService) ListGames(ctx context.Context, weekID string) ([]game.Game, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScheduleService.ListGames")
	defer span.End()

	if _, err := s.GetWeek(ctx, weekID); err != nil {
		return nil, err
	}

	games, err := s.gameRepo.ListByWeek(ctx, strings.TrimSpace(weekID))
	if err != nil {
		return nil, errors.Wrapf(err, "list games week=%s", weekID)
	}
	return games, nil
}

// UpsertGame ingests a schedule row keyed by external id and moves the week lock
// to the latest kickoff in the week.
func (s *ScheduleService) UpsertGame(ctx context.Context, input UpsertGameInput) (game.Game, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScheduleService.UpsertGame")
	defer span.End()

	input.ExternalID = strings.TrimSpace(input.ExternalID)
	input.HomeTeamID = strings.TrimSpace(input.HomeTeamID)
	input.AwayTeamID = strings.TrimSpace(input.AwayTeamID)
	if input.ExternalID == "" {
		return game.Game{}, validationf("external id is required")
	}

	week, err := s.GetWeek(ctx, input.WeekID)
	if err != nil {
		return game.Game{}, err
	}

	gameID, err := s.idGen.NewID()
	if err != nil {
		return game.Game{}, errors.Wrap(err, "generate game id")
	}
	now := s.clock.Now().UTC()
	candidate := game.Game{
		ID:         gameID,
		WeekID:     week.ID,
		ExternalID: input.ExternalID,
		HomeTeamID: input.HomeTeamID,
		AwayTeamID: input.AwayTeamID,
		StartsAt:   input.StartsAt.UTC(),
		Status:     game.StatusScheduled,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := candidate.Validate(); err != nil {
		return game.Game{}, errors.Mark(err, ErrValidation)
	}

	stored, err := s.gameRepo.Upsert(ctx, candidate)
	if err != nil {
		return game.Game{}, errors.Wrapf(err, "upsert game external_id=%s", input.ExternalID)
	}

	if err := s.refreshWeekLock(ctx, week); err != nil {
		return game.Game{}, err
	}
	return stored, nil
}

func (s *ScheduleService) refreshWeekLock(ctx context.Context, week season.Week) error {
	games, err := s.gameRepo.ListByWeek(ctx, week.ID)
	if err != nil {
		return errors.Wrapf(err, "list games week=%s", week.ID)
	}

	var latest time.Time
	for _, g := range games {
		if g.StartsAt.After(latest) {
			latest = g.StartsAt
		}
	}
	if latest.IsZero() || latest.Equal(week.LockAt) {
		return nil
	}

	if err := s.seasonRepo.UpdateWeekLock(ctx, week.ID, latest); err != nil {
		return errors.Wrapf(err, "update week lock week=%s", week.ID)
	}
	return nil
}

// UpdateGameResult applies a live or final result. Status never moves backward.
// The write is a compare-and-set on the status read just before it, so of several
// racing writers exactly one observes the first completion.
func (s *ScheduleService) UpdateGameResult(ctx context.Context, input UpdateGameResultInput) (game.Game, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScheduleService.UpdateGameResult")
	defer span.End()

	input.GameID = strings.TrimSpace(input.GameID)
	if input.GameID == "" {
		return game.Game{}, validationf("game id is required")
	}
	status, err := game.ParseStatus(input.Status)
	if err != nil {
		return game.Game{}, errors.Mark(err, ErrValidation)
	}

	for attempt := 1; ; attempt++ {
		current, ok, err := s.gameRepo.GetByID(ctx, input.GameID)
		if err != nil {
			return game.Game{}, errors.Wrapf(err, "get game %s", input.GameID)
		}
		if !ok {
			return game.Game{}, notFoundf("game %s not found", input.GameID)
		}

		next, err := current.ApplyResult(status, input.HomeScore, input.AwayScore)
		if err != nil {
			if !errors.Is(err, ErrInvalidTransition) {
				err = errors.Mark(err, ErrValidation)
			}
			return game.Game{}, errors.Wrapf(err, "game %s", input.GameID)
		}
		next.UpdatedAt = s.clock.Now().UTC()

		updated, ok, err := s.gameRepo.UpdateResult(ctx, next, []game.Status{current.Status})
		if err != nil {
			return game.Game{}, errors.Wrapf(err, "update game result %s", input.GameID)
		}
		if ok {
			if current.Status != game.StatusCompleted && updated.Status == game.StatusCompleted {
				s.publishGameCompleted(ctx, updated)
			}
			return updated, nil
		}
		if attempt >= maxResultWriteAttempts {
			return game.Game{}, errors.Wrapf(ErrConflict, "game %s kept changing during update", input.GameID)
		}
		s.logger.DebugContext(ctx, "game status changed concurrently, retrying", "game_id", input.GameID, "attempt", attempt)
	}
}

func (s *ScheduleService) publishGameCompleted(ctx context.Context, g game.Game) {
	event := GameCompletedEvent{
		GameID:      g.ID,
		WeekID:      g.WeekID,
		ExternalID:  g.ExternalID,
		HomeTeamID:  g.HomeTeamID,
		AwayTeamID:  g.AwayTeamID,
		CompletedAt: g.UpdatedAt,
	}
	if g.HomeScore != nil && g.AwayScore != nil {
		event.HomeScore = *g.HomeScore
		event.AwayScore = *g.AwayScore
	}
	if winner, ok := g.Winner(); ok {
		event.WinnerTeamID = winner
	}

	if err := s.publisher.PublishGameCompleted(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "publish game completed failed", "game_id", g.ID, "error", err)
	}
}

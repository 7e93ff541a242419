package usecase

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/jonboulle/clockwork"
	"github.com/riskibarqy/nfl-pickem/internal/domain/game"
	"github.com/riskibarqy/nfl-pickem/internal/domain/pick"
	"github.com/riskibarqy/nfl-pickem/internal/domain/season"
	"github.com/riskibarqy/nfl-pickem/internal/domain/user"
	idgen "github.com/riskibarqy/nfl-pickem/internal/platform/id"
	"github.com/riskibarqy/nfl-pickem/internal/platform/logging"
)

type SubmitPickInput struct {
	UserID         string
	WeekID         string
	GameID         string
	SelectedTeamID string
}

// SubmitPickResult is the stored pick and whether this call inserted it.
type SubmitPickResult struct {
	pick.Pick
	Created bool
}

type PickService struct {
	userRepo   user.Repository
	seasonRepo season.Repository
	gameRepo   game.Repository
	pickRepo   pick.Repository
	idGen      idgen.Generator
	publisher  EventPublisher
	logger     *logging.Logger
	clock      clockwork.Clock
}

func NewPickService(
	userRepo user.Repository,
	seasonRepo season.Repository,
	gameRepo game.Repository,
	pickRepo pick.Repository,
	idGen idgen.Generator,
	publisher EventPublisher,
	logger *logging.Logger,
) *PickService {
	if publisher == nil {
		publisher = nopEventPublisher{}
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &PickService{
		userRepo:   userRepo,
		seasonRepo: seasonRepo,
		gameRepo:   gameRepo,
		pickRepo:   pickRepo,
		idGen:      idGen,
		publisher:  publisher,
		logger:     logger.Named("usecase.pick"),
		clock:      clockwork.NewRealClock(),
	}
}

// GetOrCreateUser is idempotent for a given identity key.
func (s *PickService) GetOrCreateUser(ctx context.Context, identityKey string) (user.User, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PickService.GetOrCreateUser")
	defer span.End()

	identityKey = user.NormalizeIdentityKey(identityKey)
	if identityKey == "" {
		return user.User{}, validationf("identity key is required")
	}

	if existing, ok, err := s.userRepo.GetByIdentityKey(ctx, identityKey); err != nil {
		return user.User{}, errors.Wrap(err, "get user by identity key")
	} else if ok {
		return existing, nil
	}

	userID, err := s.idGen.NewID()
	if err != nil {
		return user.User{}, errors.Wrap(err, "generate user id")
	}

	stored, err := s.userRepo.GetOrCreate(ctx, user.User{
		ID:          userID,
		IdentityKey: identityKey,
		CreatedAt:   s.clock.Now().UTC(),
	})
	if err != nil {
		return user.User{}, errors.Wrap(err, "get or create user")
	}
	return stored, nil
}

// SubmitPick creates or replaces the caller's selection for a game. The week is
// derived from the game when omitted.
func (s *PickService) SubmitPick(ctx context.Context, input SubmitPickInput) (SubmitPickResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PickService.SubmitPick")
	defer span.End()

	input.UserID = strings.TrimSpace(input.UserID)
	input.WeekID = strings.TrimSpace(input.WeekID)
	input.GameID = strings.TrimSpace(input.GameID)
	input.SelectedTeamID = strings.TrimSpace(input.SelectedTeamID)
	switch {
	case input.UserID == "":
		return SubmitPickResult{}, validationf("user id is required")
	case input.GameID == "":
		return SubmitPickResult{}, validationf("game id is required")
	case input.SelectedTeamID == "":
		return SubmitPickResult{}, validationf("selected team id is required")
	}

	if _, ok, err := s.userRepo.GetByID(ctx, input.UserID); err != nil {
		return SubmitPickResult{}, errors.Wrapf(err, "get user %s", input.UserID)
	} else if !ok {
		return SubmitPickResult{}, notFoundf("user %s not found", input.UserID)
	}

	target, ok, err := s.gameRepo.GetByID(ctx, input.GameID)
	if err != nil {
		return SubmitPickResult{}, errors.Wrapf(err, "get game %s", input.GameID)
	}
	if !ok {
		return SubmitPickResult{}, notFoundf("game %s not found", input.GameID)
	}
	if input.WeekID != "" && input.WeekID != target.WeekID {
		return SubmitPickResult{}, validationf("game %s does not belong to week %s", input.GameID, input.WeekID)
	}
	if !target.HasTeam(input.SelectedTeamID) {
		return SubmitPickResult{}, validationf("team %s is not playing in game %s", input.SelectedTeamID, input.GameID)
	}
	if !target.AcceptsPicks() {
		return SubmitPickResult{}, errors.Wrapf(ErrPicksLocked, "game %s is %s", target.ID, target.Status)
	}

	pickID, err := s.idGen.NewID()
	if err != nil {
		return SubmitPickResult{}, errors.Wrap(err, "generate pick id")
	}
	now := s.clock.Now().UTC()
	stored, err := s.pickRepo.Upsert(ctx, pick.Pick{
		ID:             pickID,
		UserID:         input.UserID,
		WeekID:         target.WeekID,
		GameID:         target.ID,
		SelectedTeamID: input.SelectedTeamID,
		IsHomeTeamPick: input.SelectedTeamID == target.HomeTeamID,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return SubmitPickResult{}, errors.Wrapf(err, "upsert pick user=%s game=%s", input.UserID, input.GameID)
	}

	created := stored.ID == pickID
	event := PickSubmittedEvent{
		PickID:         stored.ID,
		UserID:         stored.UserID,
		WeekID:         stored.WeekID,
		GameID:         stored.GameID,
		SelectedTeamID: stored.SelectedTeamID,
		Created:        created,
		SubmittedAt:    stored.UpdatedAt,
	}
	if err := s.publisher.PublishPickSubmitted(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "publish pick submitted failed", "pick_id", stored.ID, "error", err)
	}

	return SubmitPickResult{Pick: stored, Created: created}, nil
}

// GetUserPicks lists a user's picks, optionally narrowed to one week.
func (s *PickService) GetUserPicks(ctx context.Context, userID, weekID string) ([]pick.Pick, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PickService.GetUserPicks")
	defer span.End()

	userID = strings.TrimSpace(userID)
	weekID = strings.TrimSpace(weekID)
	if userID == "" {
		return nil, validationf("user id is required")
	}
	if weekID != "" {
		if _, ok, err := s.seasonRepo.GetWeekByID(ctx, weekID); err != nil {
			return nil, errors.Wrapf(err, "get week %s", weekID)
		} else if !ok {
			return nil, notFoundf("week %s not found", weekID)
		}
	}

	picks, err := s.pickRepo.ListByUser(ctx, userID, weekID)
	if err != nil {
		return nil, errors.Wrapf(err, "list picks user=%s", userID)
	}
	return picks, nil
}

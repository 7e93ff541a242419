package usecase

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/jonboulle/clockwork"
	"github.com/riskibarqy/nfl-pickem/internal/domain/league"
	"github.com/riskibarqy/nfl-pickem/internal/domain/user"
	idgen "github.com/riskibarqy/nfl-pickem/internal/platform/id"
)

const maxInviteCodeAttempts = 3

type CreateLeagueInput struct {
	OwnerUserID string
	Name        string
}

type LeagueMember struct {
	Membership  league.Membership
	DisplayName string
}

type LeagueService struct {
	leagueRepo league.Repository
	userRepo   user.Repository
	idGen      idgen.Generator
	inviteCode func() (string, error)
	clock      clockwork.Clock
}

func NewLeagueService(leagueRepo league.Repository, userRepo user.Repository, idGen idgen.Generator) *LeagueService {
	return &LeagueService{
		leagueRepo: leagueRepo,
		userRepo:   userRepo,
		idGen:      idGen,
		inviteCode: idgen.NewInviteCode,
		clock:      clockwork.NewRealClock(),
	}
}

// CreateLeague stores a league and enrolls the owner as its first active member.
func (s *LeagueService) CreateLeague(ctx context.Context, input CreateLeagueInput) (league.League, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeagueService.CreateLeague")
	defer span.End()

	input.OwnerUserID = strings.TrimSpace(input.OwnerUserID)
	input.Name = strings.TrimSpace(input.Name)
	if err := s.ensureUser(ctx, input.OwnerUserID); err != nil {
		return league.League{}, err
	}

	leagueID, err := s.idGen.NewID()
	if err != nil {
		return league.League{}, errors.Wrap(err, "generate league id")
	}
	now := s.clock.Now().UTC()
	item := league.League{
		ID:          leagueID,
		Name:        input.Name,
		OwnerUserID: input.OwnerUserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := item.Validate(); err != nil {
		return league.League{}, errors.Mark(err, ErrValidation)
	}

	// Invite codes are random; retry on the rare unique collision.
	for attempt := 1; ; attempt++ {
		code, err := s.inviteCode()
		if err != nil {
			return league.League{}, errors.Wrap(err, "generate invite code")
		}
		item.InviteCode = code

		err = s.leagueRepo.Create(ctx, item)
		if err == nil {
			break
		}
		if !errors.Is(err, ErrConflict) || attempt >= maxInviteCodeAttempts {
			return league.League{}, errors.Wrap(err, "create league")
		}
	}

	if _, err := s.leagueRepo.UpsertMembership(ctx, league.Membership{
		LeagueID:  item.ID,
		UserID:    item.OwnerUserID,
		Status:    league.MembershipActive,
		JoinedAt:  now,
		UpdatedAt: now,
	}); err != nil {
		return league.League{}, errors.Wrap(err, "enroll league owner")
	}

	return item, nil
}

// JoinLeague activates the caller's membership. Re-joining keeps the original join order.
func (s *LeagueService) JoinLeague(ctx context.Context, userID, inviteCode string) (league.Membership, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeagueService.JoinLeague")
	defer span.End()

	userID = strings.TrimSpace(userID)
	inviteCode = strings.ToUpper(strings.TrimSpace(inviteCode))
	if inviteCode == "" {
		return league.Membership{}, validationf("invite code is required")
	}
	if err := s.ensureUser(ctx, userID); err != nil {
		return league.Membership{}, err
	}

	item, ok, err := s.leagueRepo.GetByInviteCode(ctx, inviteCode)
	if err != nil {
		return league.Membership{}, errors.Wrap(err, "get league by invite code")
	}
	if !ok {
		return league.Membership{}, notFoundf("league with invite code %s not found", inviteCode)
	}

	now := s.clock.Now().UTC()
	membership, err := s.leagueRepo.UpsertMembership(ctx, league.Membership{
		LeagueID:  item.ID,
		UserID:    userID,
		Status:    league.MembershipActive,
		JoinedAt:  now,
		UpdatedAt: now,
	})
	if err != nil {
		return league.Membership{}, errors.Wrapf(err, "join league %s", item.ID)
	}
	return membership, nil
}

// LeaveLeague deactivates the membership; the user then drops out of standings.
func (s *LeagueService) LeaveLeague(ctx context.Context, userID, leagueID string) (league.Membership, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeagueService.LeaveLeague")
	defer span.End()

	current, err := s.getMembership(ctx, userID, leagueID)
	if err != nil {
		return league.Membership{}, err
	}
	if !current.IsActive() {
		return current, nil
	}

	current.Status = league.MembershipInactive
	current.UpdatedAt = s.clock.Now().UTC()
	updated, err := s.leagueRepo.UpsertMembership(ctx, current)
	if err != nil {
		return league.Membership{}, errors.Wrapf(err, "leave league %s", current.LeagueID)
	}
	return updated, nil
}

// GetLeague returns a league the caller belongs to.
func (s *LeagueService) GetLeague(ctx context.Context, userID, leagueID string) (league.League, error) {
	if _, err := s.getMembership(ctx, userID, leagueID); err != nil {
		return league.League{}, err
	}
	return s.getLeague(ctx, strings.TrimSpace(leagueID))
}

// ListMembers returns active and inactive members in join order.
func (s *LeagueService) ListMembers(ctx context.Context, userID, leagueID string) ([]LeagueMember, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeagueService.ListMembers")
	defer span.End()

	if _, err := s.getMembership(ctx, userID, leagueID); err != nil {
		return nil, err
	}

	items, err := s.leagueRepo.ListMembers(ctx, strings.TrimSpace(leagueID))
	if err != nil {
		return nil, errors.Wrapf(err, "list members league=%s", leagueID)
	}

	out := make([]LeagueMember, 0, len(items))
	for _, m := range items {
		member := LeagueMember{Membership: m}
		if u, ok, err := s.userRepo.GetByID(ctx, m.UserID); err != nil {
			return nil, errors.Wrapf(err, "get user %s", m.UserID)
		} else if ok {
			member.DisplayName = u.DisplayName
		}
		out = append(out, member)
	}
	return out, nil
}

func (s *LeagueService) ListUserLeagues(ctx context.Context, userID string) ([]league.League, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, validationf("user id is required")
	}

	items, err := s.leagueRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrapf(err, "list leagues user=%s", userID)
	}
	return items, nil
}

// EnsureMember fails with ErrForbidden unless userID has a membership (of any status) in the league.
func (s *LeagueService) EnsureMember(ctx context.Context, userID, leagueID string) error {
	_, err := s.getMembership(ctx, userID, leagueID)
	return err
}

func (s *LeagueService) getMembership(ctx context.Context, userID, leagueID string) (league.Membership, error) {
	userID = strings.TrimSpace(userID)
	leagueID = strings.TrimSpace(leagueID)
	if userID == "" {
		return league.Membership{}, validationf("user id is required")
	}
	if leagueID == "" {
		return league.Membership{}, validationf("league id is required")
	}

	if _, err := s.getLeague(ctx, leagueID); err != nil {
		return league.Membership{}, err
	}

	membership, ok, err := s.leagueRepo.GetMembership(ctx, leagueID, userID)
	if err != nil {
		return league.Membership{}, errors.Wrapf(err, "get membership league=%s", leagueID)
	}
	if !ok {
		return league.Membership{}, errors.Wrapf(ErrForbidden, "user is not a member of league %s", leagueID)
	}
	return membership, nil
}

func (s *LeagueService) getLeague(ctx context.Context, leagueID string) (league.League, error) {
	item, ok, err := s.leagueRepo.GetByID(ctx, leagueID)
	if err != nil {
		return league.League{}, errors.Wrapf(err, "get league %s", leagueID)
	}
	if !ok {
		return league.League{}, notFoundf("league %s not found", leagueID)
	}
	return item, nil
}

func (s *LeagueService) ensureUser(ctx context.Context, userID string) error {
	if userID == "" {
		return validationf("user id is required")
	}
	if _, ok, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return errors.Wrapf(err, "get user %s", userID)
	} else if !ok {
		return notFoundf("user %s not found", userID)
	}
	return nil
}

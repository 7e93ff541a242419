package usecase

import (
	"context"
	"strconv"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/riskibarqy/nfl-pickem/internal/domain/league"
	"github.com/riskibarqy/nfl-pickem/internal/domain/user"
	leaguemock "github.com/riskibarqy/nfl-pickem/internal/mocks/domain/league"
	usermock "github.com/riskibarqy/nfl-pickem/internal/mocks/domain/user"
	"github.com/stretchr/testify/mock"
)

type sequenceIDs struct {
	next int
}

func (g *sequenceIDs) NewID() (string, error) {
	g.next++
	return "id-" + strconv.Itoa(g.next), nil
}

func TestLeagueService_CreateLeague_RetriesInviteCollisionUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	leagueRepo := leaguemock.NewRepository(t)
	userRepo := usermock.NewRepository(t)

	service := NewLeagueService(leagueRepo, userRepo, &sequenceIDs{})
	codes := []string{"TAKEN001", "FRESH002"}
	service.inviteCode = func() (string, error) {
		code := codes[0]
		codes = codes[1:]
		return code, nil
	}

	userRepo.
		On("GetByID", mock.Anything, "owner-1").
		Return(user.User{ID: "owner-1"}, true, nil).
		Once()
	leagueRepo.
		On("Create", mock.Anything, mock.MatchedBy(func(l league.League) bool { return l.InviteCode == "TAKEN001" })).
		Return(errors.Mark(errors.New("duplicate invite"), ErrConflict)).
		Once()
	leagueRepo.
		On("Create", mock.Anything, mock.MatchedBy(func(l league.League) bool { return l.InviteCode == "FRESH002" })).
		Return(nil).
		Once()
	leagueRepo.
		On("UpsertMembership", mock.Anything, mock.MatchedBy(func(m league.Membership) bool {
			return m.UserID == "owner-1" && m.Status == league.MembershipActive
		})).
		Return(league.Membership{UserID: "owner-1", Status: league.MembershipActive, JoinOrder: 1}, nil).
		Once()

	got, err := service.CreateLeague(ctx, CreateLeagueInput{OwnerUserID: "owner-1", Name: "Office"})
	if err != nil {
		t.Fatalf("create league: %v", err)
	}
	if got.InviteCode != "FRESH002" {
		t.Fatalf("unexpected invite code: %s", got.InviteCode)
	}
}

func TestLeagueService_CreateLeague_GivesUpAfterRepeatedCollisionsUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	leagueRepo := leaguemock.NewRepository(t)
	userRepo := usermock.NewRepository(t)

	service := NewLeagueService(leagueRepo, userRepo, &sequenceIDs{})
	service.inviteCode = func() (string, error) { return "SAMECODE", nil }

	userRepo.
		On("GetByID", mock.Anything, "owner-1").
		Return(user.User{ID: "owner-1"}, true, nil).
		Once()
	leagueRepo.
		On("Create", mock.Anything, mock.Anything).
		Return(errors.Mark(errors.New("duplicate invite"), ErrConflict)).
		Times(maxInviteCodeAttempts)

	_, err := service.CreateLeague(ctx, CreateLeagueInput{OwnerUserID: "owner-1", Name: "Office"})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestLeagueService_EnsureMember_InactiveMemberAllowedUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	leagueRepo := leaguemock.NewRepository(t)
	userRepo := usermock.NewRepository(t)
	service := NewLeagueService(leagueRepo, userRepo, &sequenceIDs{})

	leagueRepo.
		On("GetByID", mock.MatchedBy(func(v context.Context) bool { return v == ctx }), "league-1").
		Return(league.League{ID: "league-1"}, true, nil).
		Once()
	leagueRepo.
		On("GetMembership", mock.MatchedBy(func(v context.Context) bool { return v == ctx }), "league-1", "user-1").
		Return(league.Membership{LeagueID: "league-1", UserID: "user-1", Status: league.MembershipInactive}, true, nil).
		Once()

	if err := service.EnsureMember(ctx, "user-1", "league-1"); err != nil {
		t.Fatalf("expected former member to pass, got %v", err)
	}
}

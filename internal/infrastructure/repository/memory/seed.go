package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/riskibarqy/nfl-pickem/internal/domain/game"
	"github.com/riskibarqy/nfl-pickem/internal/domain/league"
	"github.com/riskibarqy/nfl-pickem/internal/domain/season"
	"github.com/riskibarqy/nfl-pickem/internal/domain/user"
)

const (
	SeedLeagueID   = "demo-league"
	SeedInviteCode = "DEMOLG01"
	SeedUserAlice  = "demo-user-alice"
	SeedUserBruno  = "demo-user-bruno"
)

// Fixtures is a demo data set for running the service without a database.
type Fixtures struct {
	Season      season.Season
	Weeks       []season.Week
	Games       []game.Game
	Users       []user.User
	League      league.League
	Memberships []league.Membership
}

// Repositories bundles the in-memory stores used in dev mode.
type Repositories struct {
	Seasons *SeasonRepository
	Games   *GameRepository
	Picks   *PickRepository
	Users   *UserRepository
	Leagues *LeagueRepository
}

func NewRepositories() *Repositories {
	return &Repositories{
		Seasons: NewSeasonRepository(),
		Games:   NewGameRepository(),
		Picks:   NewPickRepository(),
		Users:   NewUserRepository(),
		Leagues: NewLeagueRepository(),
	}
}

func SeedSeasonID(year int) string {
	return fmt.Sprintf("season-%d", year)
}

func SeedWeekID(year, number int) string {
	return fmt.Sprintf("season-%d-week-%02d", year, number)
}

// Seed builds the demo season for year with every regular-season week and a
// handful of week 1 games.
func Seed(year int) Fixtures {
	s := season.New(year)
	s.ID = SeedSeasonID(year)
	s.CreatedAt = s.StartsOn.AddDate(0, -1, 0)

	weeks := make([]season.Week, 0, s.NumWeeks)
	for n := 1; n <= s.NumWeeks; n++ {
		weeks = append(weeks, season.Week{
			ID:        SeedWeekID(year, n),
			SeasonID:  s.ID,
			Number:    n,
			LockAt:    s.DefaultLockAt(n),
			CreatedAt: s.CreatedAt,
		})
	}

	kickoff := s.WeekStart(1).Add(24*time.Hour + 30*time.Minute)
	sunday := s.WeekStart(1).Add(3*24*time.Hour + 17*time.Hour)
	matchups := []struct {
		external string
		home     string
		away     string
		startsAt time.Time
	}{
		{external: "demo-w1-1", home: "KC", away: "BAL", startsAt: kickoff},
		{external: "demo-w1-2", home: "PHI", away: "DAL", startsAt: sunday},
		{external: "demo-w1-3", home: "SF", away: "GB", startsAt: sunday.Add(3 * time.Hour)},
		{external: "demo-w1-4", home: "BUF", away: "MIA", startsAt: sunday.Add(24*time.Hour + 7*time.Hour)},
	}
	games := make([]game.Game, 0, len(matchups))
	for _, m := range matchups {
		games = append(games, game.Game{
			ID:         "game-" + m.external,
			WeekID:     weeks[0].ID,
			ExternalID: m.external,
			HomeTeamID: m.home,
			AwayTeamID: m.away,
			StartsAt:   m.startsAt,
			Status:     game.StatusScheduled,
			CreatedAt:  s.CreatedAt,
			UpdatedAt:  s.CreatedAt,
		})
	}
	weeks[0].LockAt = games[len(games)-1].StartsAt

	users := []user.User{
		{ID: SeedUserAlice, IdentityKey: "demo|alice", DisplayName: "Alice", CreatedAt: s.CreatedAt},
		{ID: SeedUserBruno, IdentityKey: "demo|bruno", DisplayName: "Bruno", CreatedAt: s.CreatedAt},
	}

	l := league.League{
		ID:          SeedLeagueID,
		Name:        "Demo League",
		OwnerUserID: SeedUserAlice,
		InviteCode:  SeedInviteCode,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.CreatedAt,
	}
	memberships := make([]league.Membership, 0, len(users))
	for _, u := range users {
		memberships = append(memberships, league.Membership{
			LeagueID:  l.ID,
			UserID:    u.ID,
			Status:    league.MembershipActive,
			JoinedAt:  s.CreatedAt,
			UpdatedAt: s.CreatedAt,
		})
	}

	return Fixtures{
		Season:      s,
		Weeks:       weeks,
		Games:       games,
		Users:       users,
		League:      l,
		Memberships: memberships,
	}
}

// Load writes fixtures into the repositories. Loading the same fixtures twice is a no-op
// apart from the league, which reports a conflict.
func (r *Repositories) Load(ctx context.Context, f Fixtures) error {
	if _, err := r.Seasons.CreateIfAbsent(ctx, f.Season); err != nil {
		return errors.Wrap(err, "seed season")
	}
	for _, w := range f.Weeks {
		if _, err := r.Seasons.CreateWeekIfAbsent(ctx, w); err != nil {
			return errors.Wrapf(err, "seed week %d", w.Number)
		}
	}
	for _, g := range f.Games {
		if _, err := r.Games.Upsert(ctx, g); err != nil {
			return errors.Wrapf(err, "seed game %s", g.ExternalID)
		}
	}
	for _, u := range f.Users {
		if _, err := r.Users.GetOrCreate(ctx, u); err != nil {
			return errors.Wrapf(err, "seed user %s", u.ID)
		}
	}
	if err := r.Leagues.Create(ctx, f.League); err != nil {
		return errors.Wrap(err, "seed league")
	}
	for _, m := range f.Memberships {
		if _, err := r.Leagues.UpsertMembership(ctx, m); err != nil {
			return errors.Wrapf(err, "seed membership %s", m.UserID)
		}
	}
	return nil
}

package memory

import (
	"context"
	"testing"

	"github.com/riskibarqy/nfl-pickem/internal/domain/league"
	"github.com/riskibarqy/nfl-pickem/internal/domain/season"
)

func TestSeed_LoadsDemoData(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repos := NewRepositories()
	fixtures := Seed(2025)

	if err := repos.Load(ctx, fixtures); err != nil {
		t.Fatalf("load: %v", err)
	}

	active, ok, err := repos.Seasons.GetActive(ctx)
	if err != nil || !ok {
		t.Fatalf("active season ok=%v err=%v", ok, err)
	}
	if active.Year != 2025 {
		t.Fatalf("unexpected season year %d", active.Year)
	}

	weeks, err := repos.Seasons.ListWeeks(ctx, active.ID)
	if err != nil {
		t.Fatalf("list weeks: %v", err)
	}
	if len(weeks) != season.RegularSeasonWeeks {
		t.Fatalf("expected %d weeks, got %d", season.RegularSeasonWeeks, len(weeks))
	}

	games, err := repos.Games.ListByWeek(ctx, SeedWeekID(2025, 1))
	if err != nil {
		t.Fatalf("list games: %v", err)
	}
	if len(games) != len(fixtures.Games) {
		t.Fatalf("expected %d games, got %d", len(fixtures.Games), len(games))
	}
	if !weeks[0].LockAt.Equal(games[len(games)-1].StartsAt) {
		t.Fatalf("expected week 1 to lock at the last kickoff")
	}

	members, err := repos.Leagues.ListMembers(ctx, SeedLeagueID)
	if err != nil {
		t.Fatalf("list members: %v", err)
	}
	if len(league.ActiveMembers(members)) != 2 {
		t.Fatalf("expected two active members, got %+v", members)
	}
}

func TestSeasonRepository_CreateIfAbsentActivatesOneSeason(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewSeasonRepository()

	first := season.New(2024)
	first.ID = "s-2024"
	second := season.New(2025)
	second.ID = "s-2025"

	if _, err := repo.CreateIfAbsent(ctx, first); err != nil {
		t.Fatalf("create 2024: %v", err)
	}
	if _, err := repo.CreateIfAbsent(ctx, second); err != nil {
		t.Fatalf("create 2025: %v", err)
	}
	dup := season.New(2025)
	dup.ID = "s-2025-dup"
	got, err := repo.CreateIfAbsent(ctx, dup)
	if err != nil {
		t.Fatalf("create dup: %v", err)
	}
	if got.ID != "s-2025" {
		t.Fatalf("expected existing season, got %s", got.ID)
	}

	old, _, _ := repo.GetByID(ctx, "s-2024")
	if old.Active {
		t.Fatalf("expected 2024 to be deactivated")
	}
	active, _, _ := repo.GetActive(ctx)
	if active.ID != "s-2025" {
		t.Fatalf("unexpected active season %s", active.ID)
	}
}

package memory

import (
	"context"
	"testing"
	"time"

	"github.com/riskibarqy/nfl-pickem/internal/domain/game"
)

func intPtr(v int) *int { return &v }

func TestGameRepository_UpsertByExternalIDKeepsResult(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewGameRepository()
	start := time.Date(2025, 9, 7, 17, 0, 0, 0, time.UTC)

	stored, err := repo.Upsert(ctx, game.Game{
		ID: "g-1", WeekID: "w-1", ExternalID: "ext-1", HomeTeamID: "KC", AwayTeamID: "BAL",
		StartsAt: start, Status: game.StatusScheduled,
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	completed, err := stored.ApplyResult(game.StatusCompleted, intPtr(27), intPtr(20))
	if err != nil {
		t.Fatalf("apply result: %v", err)
	}
	if _, ok, err := repo.UpdateResult(ctx, completed, []game.Status{game.StatusScheduled}); err != nil || !ok {
		t.Fatalf("update result ok=%v err=%v", ok, err)
	}

	again, err := repo.Upsert(ctx, game.Game{
		ID: "g-other", WeekID: "w-1", ExternalID: "ext-1", HomeTeamID: "KC", AwayTeamID: "BAL",
		StartsAt: start.Add(time.Hour), Status: game.StatusScheduled,
	})
	if err != nil {
		t.Fatalf("re-upsert: %v", err)
	}
	if again.ID != "g-1" {
		t.Fatalf("expected existing id, got %s", again.ID)
	}
	if again.Status != game.StatusCompleted || *again.HomeScore != 27 {
		t.Fatalf("expected result to survive schedule refresh, got %+v", again)
	}
	if !again.StartsAt.Equal(start.Add(time.Hour)) {
		t.Fatalf("expected start time to be refreshed")
	}
}

func TestGameRepository_UpdateResultRequiresPredecessor(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewGameRepository()
	g, _ := repo.Upsert(ctx, game.Game{
		ID: "g-1", WeekID: "w-1", ExternalID: "ext-1", HomeTeamID: "KC", AwayTeamID: "BAL",
		Status: game.StatusCompleted, HomeScore: intPtr(10), AwayScore: intPtr(3),
	})

	g.Status = game.StatusInProgress
	if _, ok, err := repo.UpdateResult(ctx, g, []game.Status{game.StatusScheduled, game.StatusInProgress}); err != nil || ok {
		t.Fatalf("expected regression to be refused, ok=%v err=%v", ok, err)
	}

	stored, _, _ := repo.GetByID(ctx, "g-1")
	if stored.Status != game.StatusCompleted {
		t.Fatalf("status changed to %s", stored.Status)
	}
}

func TestGameRepository_ListByWeekScheduleOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewGameRepository()
	start := time.Date(2025, 9, 7, 17, 0, 0, 0, time.UTC)

	for _, g := range []game.Game{
		{ID: "late", WeekID: "w-1", ExternalID: "e-late", HomeTeamID: "SF", AwayTeamID: "GB", StartsAt: start.Add(3 * time.Hour)},
		{ID: "early-a", WeekID: "w-1", ExternalID: "e-a", HomeTeamID: "KC", AwayTeamID: "BAL", StartsAt: start},
		{ID: "early-b", WeekID: "w-1", ExternalID: "e-b", HomeTeamID: "PHI", AwayTeamID: "DAL", StartsAt: start},
		{ID: "other", WeekID: "w-2", ExternalID: "e-o", HomeTeamID: "BUF", AwayTeamID: "MIA", StartsAt: start},
	} {
		if _, err := repo.Upsert(ctx, g); err != nil {
			t.Fatalf("upsert %s: %v", g.ID, err)
		}
	}

	items, err := repo.ListByWeek(ctx, "w-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	got := []string{}
	for _, g := range items {
		got = append(got, g.ID)
	}
	want := []string{"early-a", "early-b", "late"}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
}

package usecase_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/riskibarqy/nfl-pickem/internal/domain/game"
	"github.com/riskibarqy/nfl-pickem/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/nfl-pickem/internal/platform/id"
	"github.com/riskibarqy/nfl-pickem/internal/usecase"
)

const seedYear = 2025

type recordingPublisher struct {
	mu        sync.Mutex
	completed []usecase.GameCompletedEvent
	submitted []usecase.PickSubmittedEvent
}

func (p *recordingPublisher) PublishGameCompleted(_ context.Context, event usecase.GameCompletedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.completed = append(p.completed, event)
	return nil
}

func (p *recordingPublisher) PublishPickSubmitted(_ context.Context, event usecase.PickSubmittedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.submitted = append(p.submitted, event)
	return nil
}

func (p *recordingPublisher) completedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.completed)
}

func (p *recordingPublisher) submittedEvents() []usecase.PickSubmittedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]usecase.PickSubmittedEvent(nil), p.submitted...)
}

type staticSyncStatus struct {
	status usecase.SyncStatus
}

func (s staticSyncStatus) Status() usecase.SyncStatus { return s.status }

// testEnv wires every service over seeded in-memory repositories with a fake
// clock parked the day before kickoff.
type testEnv struct {
	repos     *memory.Repositories
	fixtures  memory.Fixtures
	clock     *clockwork.FakeClock
	publisher *recordingPublisher
	schedule  *usecase.ScheduleService
	picks     *usecase.PickService
	leagues   *usecase.LeagueService
	standings *usecase.StandingsService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repos := memory.NewRepositories()
	fixtures := memory.Seed(seedYear)
	if err := repos.Load(context.Background(), fixtures); err != nil {
		t.Fatalf("load seed: %v", err)
	}

	clock := clockwork.NewFakeClockAt(fixtures.Season.StartsOn.Add(-24 * time.Hour))
	publisher := &recordingPublisher{}
	ids := id.NewUUIDGenerator()

	schedule := usecase.NewScheduleService(repos.Seasons, repos.Games, ids, publisher, nil)
	schedule.SetClock(clock)
	picks := usecase.NewPickService(repos.Users, repos.Seasons, repos.Games, repos.Picks, ids, publisher, nil)
	picks.SetClock(clock)
	leagues := usecase.NewLeagueService(repos.Leagues, repos.Users, ids)
	leagues.SetClock(clock)
	standings := usecase.NewStandingsService(repos.Leagues, repos.Seasons, repos.Games, repos.Picks, nil, nil)
	standings.SetClock(clock)

	return &testEnv{
		repos:     repos,
		fixtures:  fixtures,
		clock:     clock,
		publisher: publisher,
		schedule:  schedule,
		picks:     picks,
		leagues:   leagues,
		standings: standings,
	}
}

func (e *testEnv) game(i int) game.Game {
	return e.fixtures.Games[i]
}

func (e *testEnv) complete(t *testing.T, g game.Game, home, away int) {
	t.Helper()
	if _, err := e.schedule.UpdateGameResult(context.Background(), usecase.UpdateGameResultInput{
		GameID:    g.ID,
		Status:    string(game.StatusCompleted),
		HomeScore: &home,
		AwayScore: &away,
	}); err != nil {
		t.Fatalf("complete game %s: %v", g.ID, err)
	}
}

func intPtr(v int) *int { return &v }

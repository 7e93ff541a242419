package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jonboulle/clockwork"
)

type countingSyncer struct {
	calls chan struct{}
	err   error
}

func (s *countingSyncer) SyncCurrentWeek(context.Context) (SyncReport, error) {
	s.calls <- struct{}{}
	return SyncReport{WeekID: "week-1"}, s.err
}

func waitForCall(t *testing.T, calls <-chan struct{}) {
	t.Helper()
	select {
	case <-calls:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for sync call")
	}
}

func TestResultPoller_SyncsImmediatelyAndOnEveryTick(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clock := clockwork.NewFakeClock()
	syncer := &countingSyncer{calls: make(chan struct{}, 4)}
	poller := NewResultPoller(syncer, time.Minute, nil)
	poller.clock = clock

	poller.Start(ctx)
	poller.Start(ctx)
	waitForCall(t, syncer.calls)

	clock.Advance(time.Minute)
	waitForCall(t, syncer.calls)

	poller.Stop()
	poller.Stop()

	clock.Advance(time.Minute)
	select {
	case <-syncer.calls:
		t.Fatalf("poller synced after Stop")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestResultPoller_KeepsRunningAfterFailure(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	clock := clockwork.NewFakeClock()
	syncer := &countingSyncer{calls: make(chan struct{}, 4), err: errors.Wrap(ErrUpstreamUnavailable, "espn down")}
	poller := NewResultPoller(syncer, 30*time.Second, nil)
	poller.clock = clock

	poller.Start(ctx)
	waitForCall(t, syncer.calls)

	clock.Advance(30 * time.Second)
	waitForCall(t, syncer.calls)

	cancel()
	poller.Stop()
}

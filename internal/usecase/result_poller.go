package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/riskibarqy/nfl-pickem/internal/platform/logging"
)

const defaultPollInterval = 2 * time.Minute

type currentWeekSyncer interface {
	SyncCurrentWeek(ctx context.Context) (SyncReport, error)
}

// ResultPoller runs a current-week sync on a fixed interval until stopped.
type ResultPoller struct {
	syncer   currentWeekSyncer
	interval time.Duration
	logger   *logging.Logger
	clock    clockwork.Clock

	startMu  sync.Mutex
	started  bool
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewResultPoller(syncer currentWeekSyncer, interval time.Duration, logger *logging.Logger) *ResultPoller {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ResultPoller{
		syncer:   syncer,
		interval: interval,
		logger:   logger.Named("usecase.result_poller"),
		clock:    clockwork.NewRealClock(),
		done:     make(chan struct{}),
	}
}

// Start syncs once immediately and then on every tick. It is a no-op when already started.
func (p *ResultPoller) Start(ctx context.Context) {
	p.startMu.Lock()
	if p.started {
		p.startMu.Unlock()
		return
	}
	p.started = true
	p.startMu.Unlock()

	ticker := p.clock.NewTicker(p.interval)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer ticker.Stop()

		p.logger.Info("result poller started", "interval", p.interval.String())
		p.runOnce(ctx)
		for {
			select {
			case <-ctx.Done():
				p.logger.Info("result poller stopped", "reason", "context done")
				return
			case <-p.done:
				p.logger.Info("result poller stopped")
				return
			case <-ticker.Chan():
				p.runOnce(ctx)
			}
		}
	}()
}

// Stop ends the loop and waits for an in-flight sync to return.
func (p *ResultPoller) Stop() {
	p.stopOnce.Do(func() { close(p.done) })
	p.wg.Wait()
}

func (p *ResultPoller) runOnce(ctx context.Context) {
	report, err := p.syncer.SyncCurrentWeek(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		p.logger.WarnContext(ctx, "scheduled result sync failed", "kind", ErrorKind(err), "error", err)
		return
	}
	p.logger.DebugContext(ctx, "scheduled result sync done", "week_id", report.WeekID, "updated", report.Updated)
}

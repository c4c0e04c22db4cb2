package watcher

import (
	"context"
	"time"

	domain "github.com/oshokin/alarm-clock/internal/domain/alarm"
	"github.com/oshokin/alarm-clock/internal/logger"
)

// Ticker runs one watcher cycle.
type Ticker interface {
	Tick(ctx context.Context) (domain.FetchResult, error)
}

// Poller checks the alarm on a fixed interval for as long as its context lives.
// Nothing fires while it is stopped; a stored alarm that became due in the
// meantime fires on the first tick after the next start.
type Poller struct {
	// cycle is the due-check pass.
	cycle Ticker
	// interval is the polling period.
	interval time.Duration
}

// NewPoller creates a poller running cycle every interval.
func NewPoller(cycle Ticker, interval time.Duration) *Poller {
	return &Poller{
		cycle:    cycle,
		interval: interval,
	}
}

// Run polls until ctx is canceled. The first check happens one interval after start.
func (p *Poller) Run(ctx context.Context) error {
	ctx = logger.WithName(ctx, "foreground-poller")

	logger.InfoKV(ctx, "Polling alarm", "interval", p.interval.String())

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Context canceled, polling stopped")

			return nil
		case <-ticker.C:
			if _, err := p.cycle.Tick(ctx); err != nil {
				logger.ErrorKV(ctx, "Check alarm failed", "error", err)
			}
		}
	}
}

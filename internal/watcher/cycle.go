package watcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	domain "github.com/oshokin/alarm-clock/internal/domain/alarm"
	"github.com/oshokin/alarm-clock/internal/logger"
)

// Store is the part of the time store a cycle needs.
type Store interface {
	Get(ctx context.Context) (*domain.PendingAlarm, error)
	ClearIf(ctx context.Context, pending domain.PendingAlarm) (bool, error)
}

// Emitter fires the alert.
type Emitter interface {
	Fire(ctx context.Context) error
}

// Cycle is a single due-check pass over the pending alarm.
type Cycle struct {
	// store holds the pending alarm.
	store Store
	// emitter fires the alert.
	emitter Emitter
	// now returns the current wall-clock time.
	now func() time.Time

	// mu makes cycles mutually exclusive so a due alarm fires once even when
	// a forced check overlaps a scheduled one.
	mu sync.Mutex
	// unclearedFire is the alarm fired by a cycle whose clear failed.
	unclearedFire *domain.PendingAlarm
}

// CycleOption configures a Cycle.
type CycleOption func(*Cycle)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) CycleOption {
	return func(c *Cycle) {
		c.now = now
	}
}

// NewCycle creates a cycle over store and emitter.
func NewCycle(store Store, emitter Emitter, opts ...CycleOption) *Cycle {
	c := &Cycle{
		store:   store,
		emitter: emitter,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Tick reads the pending alarm and, when it is due, fires the alert and clears
// it. Alert failures never prevent the clear. It returns NewData when an
// alarm fired, NoData when there was nothing to do and Failed when the store
// could not be read or cleared.
func (c *Cycle) Tick(ctx context.Context) (domain.FetchResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx = logger.WithKV(ctx, "cycle_id", uuid.NewString())

	pending, err := c.store.Get(ctx)
	if err != nil {
		return domain.Failed, fmt.Errorf("read pending alarm: %w", err)
	}

	now := c.now()

	if domain.Decide(now, pending) == domain.ActionNoop {
		logger.DebugKV(ctx, "Alarm not due", "phase", domain.PhaseOf(now, pending).String())

		return domain.NoData, nil
	}

	// A previous cycle fired this alarm but could not clear it; only retry the clear.
	alreadyFired := c.unclearedFire != nil && c.unclearedFire.Equal(*pending)
	if !alreadyFired {
		logger.InfoKV(
			ctx,
			"Alarm due, firing",
			"trigger_at", pending.TriggerAt.Format(time.RFC3339),
			"detection_delay", now.Sub(pending.TriggerAt).String(),
		)

		if err = c.emitter.Fire(ctx); err != nil {
			logger.WarnKV(ctx, "Alert delivered partially", "error", err)
		}
	}

	// The alarm has fired; a caller that gave up meanwhile must not leave it stored.
	cleared, err := c.store.ClearIf(context.WithoutCancel(ctx), *pending)
	if err != nil {
		c.unclearedFire = pending

		return domain.Failed, fmt.Errorf("clear fired alarm: %w", err)
	}

	c.unclearedFire = nil

	if !cleared {
		logger.Info(ctx, "Alarm was replaced while firing, keeping the new one")
	}

	logger.InfoKV(ctx, "Alarm fired", "phase", domain.PhaseFired.String())

	if alreadyFired {
		return domain.NoData, nil
	}

	return domain.NewData, nil
}

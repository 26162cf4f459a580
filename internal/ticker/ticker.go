package ticker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// TickFunc is invoked once per interval and on every Trigger
type TickFunc func(ctx context.Context, now time.Time)

// Ticker runs a function periodically until its context ends. Runs never
// overlap: a trigger that arrives during a run is folded into one follow-up run.
type Ticker struct {
	name     string
	interval time.Duration
	tick     TickFunc
	trigger  chan struct{}
	logger   zerolog.Logger
}

// NewTicker creates a new Ticker
func NewTicker(name string, interval time.Duration, tick TickFunc, logger zerolog.Logger) *Ticker {
	return &Ticker{
		name:     name,
		interval: interval,
		tick:     tick,
		trigger:  make(chan struct{}, 1),
		logger:   logger.With().Str("ticker", name).Logger(),
	}
}

// Interval returns the period between runs
func (t *Ticker) Interval() time.Duration {
	return t.interval
}

// Trigger requests an immediate run without waiting for the next interval
func (t *Ticker) Trigger() {
	select {
	case t.trigger <- struct{}{}:
	default:
	}
}

// Start blocks running the tick function until ctx is cancelled
func (t *Ticker) Start(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	t.logger.Info().Dur("interval", t.interval).Msg("ticker started")

	for {
		select {
		case <-ctx.Done():
			t.logger.Info().Msg("ticker stopped")
			return

		case now := <-ticker.C:
			t.tick(ctx, now)

		case <-t.trigger:
			t.tick(ctx, time.Now())
			ticker.Reset(t.interval)
		}
	}
}

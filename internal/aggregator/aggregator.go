package aggregator

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/dennisdiepolder/monti/opsdash/internal/metrics"
	"github.com/dennisdiepolder/monti/opsdash/internal/ticker"
	"github.com/dennisdiepolder/monti/opsdash/internal/types"
	"github.com/dennisdiepolder/monti/opsdash/internal/viewstate"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ErrMetricsUnavailable is reported to viewers when any facet failed
var ErrMetricsUnavailable = errors.New("metrics unavailable")

// Message types pushed to overview viewers
const (
	MessageSnapshot    = "metrics_snapshot"
	MessageUnavailable = "metrics_unavailable"
)

// MetricsSource fetches the independent metric facets
type MetricsSource interface {
	DailyCalls(ctx context.Context) (types.DailyCalls, error)
	AvgCallDuration(ctx context.Context) (types.AvgDuration, error)
	AgentAvailability(ctx context.Context) (types.AgentAvailability, error)
}

// Publisher delivers messages to the viewers of a section
type Publisher interface {
	BroadcastSection(section viewstate.Section, data []byte)
	Watching(section viewstate.Section) int
}

// Message is the push payload for the overview section
type Message struct {
	Type     string                 `json:"type"`
	Snapshot *types.MetricsSnapshot `json:"snapshot,omitempty"`
	Error    string                 `json:"error,omitempty"`
}

// Outcome is the result of the most recent composition
type Outcome struct {
	Snapshot *types.MetricsSnapshot
	Err      error
	At       time.Time
}

// Compose fetches all facets concurrently and merges them into one snapshot.
// The first failure cancels the remaining requests and fails the whole
// composition; no partial snapshot is ever returned.
func Compose(ctx context.Context, source MetricsSource) (types.MetricsSnapshot, error) {
	var (
		daily types.DailyCalls
		avg   types.AvgDuration
		avail types.AgentAvailability
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		daily, err = source.DailyCalls(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		avg, err = source.AvgCallDuration(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		avail, err = source.AgentAvailability(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return types.MetricsSnapshot{}, err
	}

	return types.MetricsSnapshot{
		DailyCalls:        daily,
		AvgDuration:       avg,
		AgentAvailability: avail,
		FetchedAt:         time.Now(),
	}, nil
}

// Aggregator refreshes the metrics snapshot while the overview is being watched
type Aggregator struct {
	source    MetricsSource
	publisher Publisher
	ticker    *ticker.Ticker
	logger    zerolog.Logger

	mu     sync.RWMutex
	latest Outcome
}

// NewAggregator creates a new aggregator refreshing every interval
func NewAggregator(source MetricsSource, publisher Publisher, interval time.Duration, logger zerolog.Logger) *Aggregator {
	a := &Aggregator{
		source:    source,
		publisher: publisher,
		logger:    logger.With().Str("component", "aggregator").Logger(),
	}
	a.ticker = ticker.NewTicker("metrics", interval, a.tick, logger)
	return a
}

// Start runs the refresh loop until ctx is cancelled
func (a *Aggregator) Start(ctx context.Context) {
	a.logger.Info().Dur("interval", a.ticker.Interval()).Msg("aggregator started")
	a.ticker.Start(ctx)
	a.logger.Info().Msg("aggregator stopped")
}

// Mounted is called when a viewer opens the overview; it refreshes immediately
func (a *Aggregator) Mounted() {
	a.ticker.Trigger()
}

// Latest returns the outcome of the most recent composition
func (a *Aggregator) Latest() Outcome {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.latest
}

// Refresh composes a snapshot, records it as the latest outcome and pushes it
// to overview viewers
func (a *Aggregator) Refresh(ctx context.Context) Outcome {
	start := time.Now()
	snapshot, err := Compose(ctx, a.source)
	metrics.Get().RecordCompose(time.Since(start), err == nil)

	outcome := Outcome{At: time.Now()}
	msg := Message{Type: MessageSnapshot}
	if err != nil {
		a.logger.Error().Err(err).Msg("metrics composition failed")
		outcome.Err = ErrMetricsUnavailable
		msg = Message{Type: MessageUnavailable, Error: ErrMetricsUnavailable.Error()}
	} else {
		outcome.Snapshot = &snapshot
		msg.Snapshot = &snapshot
	}

	a.mu.Lock()
	a.latest = outcome
	a.mu.Unlock()

	data, merr := json.Marshal(msg)
	if merr != nil {
		a.logger.Error().Err(merr).Msg("failed to marshal metrics message")
		return outcome
	}
	a.publisher.BroadcastSection(viewstate.Overview, data)
	if err == nil {
		metrics.Get().RecordSnapshotBroadcast()
	}

	a.logger.Debug().
		Bool("ok", err == nil).
		Dur("duration", time.Since(start)).
		Int("viewers", a.publisher.Watching(viewstate.Overview)).
		Msg("metrics refreshed")
	return outcome
}

func (a *Aggregator) tick(ctx context.Context, now time.Time) {
	if a.publisher.Watching(viewstate.Overview) == 0 {
		return
	}
	a.Refresh(ctx)
}

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/dennisdiepolder/monti/opsdash/internal/aggregator"
	"github.com/dennisdiepolder/monti/opsdash/internal/types"
	"github.com/rs/zerolog"
)

// Overview is the payload of the overview section
type Overview struct {
	Metrics types.MetricsSnapshot `json:"metrics"`
	KPIs    []types.KPI           `json:"kpis"`
}

// LatestOutcome exposes the most recent background composition
type LatestOutcome interface {
	Latest() aggregator.Outcome
}

// OverviewHandler serves the metrics snapshot, reusing the background
// aggregator's result while it is fresh and composing on request otherwise
type OverviewHandler struct {
	source aggregator.MetricsSource
	latest LatestOutcome
	maxAge time.Duration
	logger zerolog.Logger
}

// NewOverviewHandler creates a new OverviewHandler
func NewOverviewHandler(source aggregator.MetricsSource, logger zerolog.Logger) *OverviewHandler {
	return &OverviewHandler{
		source: source,
		logger: logger.With().Str("component", "overview").Logger(),
	}
}

// WithLatest serves successful outcomes of latest younger than maxAge
// instead of composing again
func (h *OverviewHandler) WithLatest(latest LatestOutcome, maxAge time.Duration) *OverviewHandler {
	h.latest = latest
	h.maxAge = maxAge
	return h
}

// Get handles GET /api/overview
func (h *OverviewHandler) Get(w http.ResponseWriter, r *http.Request) {
	overview, err := h.page(r.Context(), listQuery{})
	if err != nil {
		writeError(w, http.StatusBadGateway, aggregator.ErrMetricsUnavailable.Error())
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

func (h *OverviewHandler) page(ctx context.Context, _ listQuery) (interface{}, error) {
	if h.latest != nil {
		if outcome := h.latest.Latest(); outcome.Snapshot != nil && time.Since(outcome.At) < h.maxAge {
			return Overview{Metrics: *outcome.Snapshot, KPIs: outcome.Snapshot.KPIs()}, nil
		}
	}

	snapshot, err := aggregator.Compose(ctx, h.source)
	if err != nil {
		h.logger.Error().Err(err).Msg("metrics composition failed")
		return nil, aggregator.ErrMetricsUnavailable
	}
	return Overview{Metrics: snapshot, KPIs: snapshot.KPIs()}, nil
}

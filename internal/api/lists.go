package api

import (
	"context"
	"net/http"

	"github.com/dennisdiepolder/monti/opsdash/internal/cache"
	"github.com/dennisdiepolder/monti/opsdash/internal/listing"
	"github.com/dennisdiepolder/monti/opsdash/internal/viewstate"
	"github.com/rs/zerolog"
)

// pager renders one page of a section
type pager interface {
	page(ctx context.Context, q listQuery) (interface{}, error)
}

// ListHandler serves a read-only upstream collection through the list engine
type ListHandler[T any] struct {
	section  viewstate.Section
	snapshot *cache.Snapshot[T]
	fields   func(T) []string
	facet    func(T) string
	logger   zerolog.Logger
}

// NewListHandler creates a handler for section. facet may be nil when the
// section has no status filter.
func NewListHandler[T any](section viewstate.Section, snapshot *cache.Snapshot[T], fields func(T) []string, facet func(T) string, logger zerolog.Logger) *ListHandler[T] {
	return &ListHandler[T]{
		section:  section,
		snapshot: snapshot,
		fields:   fields,
		facet:    facet,
		logger:   logger.With().Str("component", string(section)).Logger(),
	}
}

// List handles GET /api/{section}
func (h *ListHandler[T]) List(w http.ResponseWriter, r *http.Request) {
	view, err := h.page(r.Context(), parseListQuery(r, h.section.PageSize()))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *ListHandler[T]) page(ctx context.Context, q listQuery) (interface{}, error) {
	var (
		items []T
		err   error
	)
	if q.Refresh {
		items, err = h.snapshot.Reload(ctx)
	} else {
		items, err = h.snapshot.Get(ctx)
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to load list")
		return nil, err
	}

	list := listing.NewList(q.Size, h.fields)
	if h.facet != nil {
		list.WithFacet(h.facet)
		list.SetFacet(q.Status)
	}
	list.SetItems(items)
	list.SetTerm(q.Term)
	list.SetPage(q.Page)
	return list.View(), nil
}

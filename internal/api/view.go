package api

import (
	"net/http"

	"github.com/dennisdiepolder/monti/opsdash/internal/aggregator"
	"github.com/dennisdiepolder/monti/opsdash/internal/upstream"
	"github.com/dennisdiepolder/monti/opsdash/internal/viewstate"
)

// View is the payload of whichever section an address selects
type View struct {
	Section viewstate.Section `json:"section"`
	Title   string            `json:"title"`
	Data    interface{}       `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// ViewHandler resolves ?tab= to a section and renders only that section
type ViewHandler struct {
	pagers map[viewstate.Section]pager
}

// NewViewHandler creates a ViewHandler over the section handlers
func NewViewHandler(overview *OverviewHandler, agents *AgentsHandler, calls, recordings pager) *ViewHandler {
	return &ViewHandler{
		pagers: map[viewstate.Section]pager{
			viewstate.Overview:   overview,
			viewstate.Agents:     agents,
			viewstate.Calls:      calls,
			viewstate.Recordings: recordings,
		},
	}
}

// Get handles GET /api/view
func (h *ViewHandler) Get(w http.ResponseWriter, r *http.Request) {
	section := viewstate.ParseSection(r.URL.Query().Get(viewstate.QueryKey))
	view := View{Section: section, Title: section.Title()}

	data, err := h.pagers[section].page(r.Context(), parseListQuery(r, section.PageSize()))
	if err != nil {
		status := errorStatus(err)
		view.Error = upstream.UserMessage(err)
		if section == viewstate.Overview {
			status = http.StatusBadGateway
			view.Error = aggregator.ErrMetricsUnavailable.Error()
		}
		writeJSON(w, status, view)
		return
	}

	view.Data = data
	writeJSON(w, http.StatusOK, view)
}

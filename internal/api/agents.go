package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/dennisdiepolder/monti/opsdash/internal/cache"
	"github.com/dennisdiepolder/monti/opsdash/internal/listing"
	"github.com/dennisdiepolder/monti/opsdash/internal/types"
	"github.com/dennisdiepolder/monti/opsdash/internal/viewstate"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// AgentsHandler serves the agents section and its status commands
type AgentsHandler struct {
	roster *cache.AgentRoster
	ttl    time.Duration
	logger zerolog.Logger
}

// NewAgentsHandler creates a new AgentsHandler. The roster is refetched when
// older than ttl.
func NewAgentsHandler(roster *cache.AgentRoster, ttl time.Duration, logger zerolog.Logger) *AgentsHandler {
	return &AgentsHandler{
		roster: roster,
		ttl:    ttl,
		logger: logger.With().Str("component", "agents").Logger(),
	}
}

// List handles GET /api/agents
func (h *AgentsHandler) List(w http.ResponseWriter, r *http.Request) {
	view, err := h.page(r.Context(), parseListQuery(r, viewstate.Agents.PageSize()))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *AgentsHandler) page(ctx context.Context, q listQuery) (interface{}, error) {
	if err := h.ensureFresh(ctx, q.Refresh); err != nil {
		return nil, err
	}

	list := listing.NewList(q.Size, types.Agent.SearchFields).WithFacet(types.Agent.FacetValue)
	list.SetFacet(q.Status)
	list.SetItems(h.roster.Agents())
	list.SetTerm(q.Term)
	list.SetPage(q.Page)
	return list.View(), nil
}

// Toggle handles POST /api/agents/{id}/toggle
func (h *AgentsHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	id, ok := h.agentID(w, r)
	if !ok {
		return
	}
	if err := h.ensureFresh(r.Context(), false); err != nil {
		writeFailure(w, err)
		return
	}

	agent, err := h.roster.Toggle(r.Context(), id)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, agent)
}

// SetStatus handles PUT /api/agents/{id}/status
func (h *AgentsHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.agentID(w, r)
	if !ok {
		return
	}

	var body struct {
		Status types.AgentStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !body.Status.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid status")
		return
	}
	if err := h.ensureFresh(r.Context(), false); err != nil {
		writeFailure(w, err)
		return
	}

	agent, err := h.roster.SetStatus(r.Context(), id, body.Status)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, agent)
}

func (h *AgentsHandler) agentID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid agent id")
		return 0, false
	}
	return id, true
}

// ensureFresh refetches the roster when it was never loaded, is stale or a
// refresh was asked for
func (h *AgentsHandler) ensureFresh(ctx context.Context, force bool) error {
	if !force && h.roster.Loaded() && time.Since(h.roster.FetchedAt()) < h.ttl {
		return nil
	}
	return h.roster.Refresh(ctx)
}

// AgentUpdate is pushed to agents viewers after a status change
type AgentUpdate struct {
	Type  string      `json:"type"`
	Agent types.Agent `json:"agent"`
}

// SectionPublisher delivers a message to the viewers of one section
type SectionPublisher interface {
	BroadcastSection(section viewstate.Section, data []byte)
}

// PushAgentUpdates returns a roster listener forwarding changes to agents viewers
func PushAgentUpdates(publisher SectionPublisher, logger zerolog.Logger) func(types.Agent) {
	return func(agent types.Agent) {
		data, err := json.Marshal(AgentUpdate{Type: "agent_updated", Agent: agent})
		if err != nil {
			logger.Error().Err(err).Msg("failed to marshal agent update")
			return
		}
		publisher.BroadcastSection(viewstate.Agents, data)
	}
}

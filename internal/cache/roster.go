package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dennisdiepolder/monti/opsdash/internal/metrics"
	"github.com/dennisdiepolder/monti/opsdash/internal/types"
	"github.com/rs/zerolog"
)

var (
	// ErrAgentNotFound is returned for an id the roster does not hold
	ErrAgentNotFound = errors.New("agent not found")
	// ErrMutationInFlight is returned when the agent already has a status change pending
	ErrMutationInFlight = errors.New("status change already in progress")
)

// AgentSource is the upstream the roster reads from and writes through
type AgentSource interface {
	ListAgents(ctx context.Context) ([]types.Agent, error)
	SetAgentStatus(ctx context.Context, id int64, status types.AgentStatus) (types.AgentPatch, error)
}

// AgentRoster holds the agent collection and is the only writer of agent status.
// The lock is never held across an upstream call.
type AgentRoster struct {
	source    AgentSource
	agents    []types.Agent
	inFlight  map[int64]struct{}
	fetchedAt time.Time
	onUpdate  []func(types.Agent)
	mu        sync.RWMutex
	logger    zerolog.Logger
}

// NewAgentRoster creates an empty roster backed by source
func NewAgentRoster(source AgentSource, logger zerolog.Logger) *AgentRoster {
	return &AgentRoster{
		source:   source,
		inFlight: make(map[int64]struct{}),
		logger:   logger.With().Str("component", "roster").Logger(),
	}
}

// OnUpdate registers fn to be called with every agent changed by a mutation
func (r *AgentRoster) OnUpdate(fn func(types.Agent)) {
	r.mu.Lock()
	r.onUpdate = append(r.onUpdate, fn)
	r.mu.Unlock()
}

// Refresh replaces the whole collection from upstream. On failure the held
// collection is kept.
func (r *AgentRoster) Refresh(ctx context.Context) error {
	agents, err := r.source.ListAgents(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to refresh agents")
		return err
	}

	r.mu.Lock()
	r.agents = agents
	r.fetchedAt = time.Now()
	r.mu.Unlock()

	metrics.Get().UpdateAgentStats(agents)
	r.logger.Debug().Int("agents", len(agents)).Msg("roster refreshed")
	return nil
}

// Loaded reports whether the roster has been fetched at least once
func (r *AgentRoster) Loaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return !r.fetchedAt.IsZero()
}

// FetchedAt returns when the collection was last replaced from upstream
func (r *AgentRoster) FetchedAt() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fetchedAt
}

// Agents returns a copy of the collection in upstream order
func (r *AgentRoster) Agents() []types.Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	agents := make([]types.Agent, len(r.agents))
	copy(agents, r.agents)
	return agents
}

// Get returns the agent with the given id
func (r *AgentRoster) Get(id int64) (types.Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i := r.indexOf(id); i >= 0 {
		return r.agents[i], true
	}
	return types.Agent{}, false
}

// Pending reports whether a status change for id is in flight
func (r *AgentRoster) Pending(id int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.inFlight[id]
	return ok
}

// SetStatus asks upstream to move agent id to desired. On success the returned
// representation is merged into the held record; on failure nothing changes.
func (r *AgentRoster) SetStatus(ctx context.Context, id int64, desired types.AgentStatus) (types.Agent, error) {
	r.mu.Lock()
	i := r.indexOf(id)
	if i < 0 {
		r.mu.Unlock()
		return types.Agent{}, ErrAgentNotFound
	}
	if _, busy := r.inFlight[id]; busy {
		r.mu.Unlock()
		metrics.Get().RecordMutationRejected()
		return types.Agent{}, ErrMutationInFlight
	}
	r.inFlight[id] = struct{}{}
	before := r.agents[i]
	r.mu.Unlock()

	patch, err := r.source.SetAgentStatus(ctx, id, desired)

	r.mu.Lock()
	delete(r.inFlight, id)
	if err != nil {
		r.mu.Unlock()
		metrics.Get().RecordMutation(false)
		r.logger.Error().
			Err(err).
			Int64("agent_id", id).
			Str("desired", string(desired)).
			Msg("failed to update agent status")
		return before, err
	}

	updated := patch.Apply(before)
	if i := r.indexOf(id); i >= 0 {
		updated = patch.Apply(r.agents[i])
		r.agents[i] = updated
	}
	listeners := r.onUpdate
	snapshot := make([]types.Agent, len(r.agents))
	copy(snapshot, r.agents)
	r.mu.Unlock()

	metrics.Get().RecordMutation(true)
	metrics.Get().UpdateAgentStats(snapshot)
	r.logger.Info().
		Int64("agent_id", id).
		Str("from", string(before.Status)).
		Str("to", string(updated.Status)).
		Msg("agent status updated")

	for _, fn := range listeners {
		fn(updated)
	}
	return updated, nil
}

// Toggle flips agent id between available and offline; any status other than
// available becomes available
func (r *AgentRoster) Toggle(ctx context.Context, id int64) (types.Agent, error) {
	agent, ok := r.Get(id)
	if !ok {
		return types.Agent{}, ErrAgentNotFound
	}
	return r.SetStatus(ctx, id, NextStatus(agent.Status))
}

// NextStatus is the status a toggle requests from current
func NextStatus(current types.AgentStatus) types.AgentStatus {
	if current == types.StatusAvailable {
		return types.StatusOffline
	}
	return types.StatusAvailable
}

func (r *AgentRoster) indexOf(id int64) int {
	for i := range r.agents {
		if r.agents[i].ID == id {
			return i
		}
	}
	return -1
}

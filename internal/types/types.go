package types

import "time"

// AgentStatus represents the availability state of an agent
type AgentStatus string

const (
	StatusAvailable   AgentStatus = "available"
	StatusOnCall      AgentStatus = "on_call"
	StatusOffline     AgentStatus = "offline"
	StatusUnavailable AgentStatus = "unavailable"
)

// AllAgentStatuses lists every status the upstream accepts
var AllAgentStatuses = []AgentStatus{
	StatusAvailable,
	StatusOnCall,
	StatusOffline,
	StatusUnavailable,
}

// Valid reports whether s is one of the known agent statuses
func (s AgentStatus) Valid() bool {
	for _, known := range AllAgentStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Agent is the dashboard's cached copy of an upstream agent record
type Agent struct {
	ID               int64       `json:"id"`
	Name             string      `json:"name"`
	PhoneNumber      string      `json:"phone_number"`
	Status           AgentStatus `json:"status"`
	LastStatusUpdate Timestamp   `json:"last_status_update"`
}

// AgentPatch is the representation returned by a status update.
// Fields the server omitted stay nil and are not applied.
type AgentPatch struct {
	ID               *int64       `json:"id,omitempty"`
	Name             *string      `json:"name,omitempty"`
	PhoneNumber      *string      `json:"phone_number,omitempty"`
	Status           *AgentStatus `json:"status,omitempty"`
	LastStatusUpdate *Timestamp   `json:"last_status_update,omitempty"`
}

// Apply returns a copy of agent with every field present in the patch overwritten.
// The identity of the agent is never changed by a patch.
func (p AgentPatch) Apply(agent Agent) Agent {
	if p.Name != nil {
		agent.Name = *p.Name
	}
	if p.PhoneNumber != nil {
		agent.PhoneNumber = *p.PhoneNumber
	}
	if p.Status != nil {
		agent.Status = *p.Status
	}
	if p.LastStatusUpdate != nil {
		agent.LastStatusUpdate = *p.LastStatusUpdate
	}
	return agent
}

// StatusCount tallies agents per status
func StatusCount(agents []Agent) map[AgentStatus]int {
	counts := make(map[AgentStatus]int, len(AllAgentStatuses))
	for _, agent := range agents {
		counts[agent.Status]++
	}
	return counts
}

// NewTimestamp wraps t for JSON transport
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// SearchFields are the values the agents search matches against
func (a Agent) SearchFields() []string {
	return []string{a.Name, a.PhoneNumber, string(a.Status)}
}

// FacetValue is the value the agents status filter compares
func (a Agent) FacetValue() string {
	return string(a.Status)
}

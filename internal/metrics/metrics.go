package metrics

import (
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/dennisdiepolder/monti/opsdash/internal/types"
)

// Upstream request outcomes
const (
	OutcomeOK        = "ok"
	OutcomeTransport = "transport"
	OutcomeStatus    = "status"
	OutcomeMalformed = "malformed"
)

// Metrics holds all application metrics
type Metrics struct {
	mu sync.RWMutex

	// Upstream metrics
	upstreamRequests  map[string]map[string]int64 // op -> outcome -> count
	upstreamDurations map[string]time.Duration    // op -> last duration

	// Composition metrics
	ComposeCyclesTotal  int64
	ComposeFailures     int64
	SnapshotsBroadcast  int64
	lastComposeDuration time.Duration

	// Mutation metrics
	MutationsTotal        int64
	MutationFailuresTotal int64
	MutationsRejected     int64

	// Callback metrics
	CallbacksRequested   int64
	CallbacksRateLimited int64

	// WebSocket metrics
	WebSocketConnectionsTotal    int64
	WebSocketDisconnectionsTotal int64
	WebSocketMessagesTotal       int64
	WebSocketErrorsTotal         int64
	activeConnections            int64
	viewersBySection             map[string]int

	// Agent metrics
	agentsByStatus map[types.AgentStatus]int
	totalAgents    int

	// HTTP metrics
	httpRequestsTotal map[string]map[int]int64 // endpoint -> status -> count

	startTime time.Time
}

var instance *Metrics
var once sync.Once

// Get returns the singleton metrics instance
func Get() *Metrics {
	once.Do(func() {
		instance = newMetrics()
	})
	return instance
}

func newMetrics() *Metrics {
	return &Metrics{
		upstreamRequests:  make(map[string]map[string]int64),
		upstreamDurations: make(map[string]time.Duration),
		viewersBySection:  make(map[string]int),
		agentsByStatus:    make(map[types.AgentStatus]int),
		httpRequestsTotal: make(map[string]map[int]int64),
		startTime:         time.Now(),
	}
}

// RecordUpstream records one upstream call by operation and outcome
func (m *Metrics) RecordUpstream(op, outcome string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.upstreamRequests[op] == nil {
		m.upstreamRequests[op] = make(map[string]int64)
	}
	m.upstreamRequests[op][outcome]++
	m.upstreamDurations[op] = duration
}

// UpstreamCount returns how many calls of op ended with outcome
func (m *Metrics) UpstreamCount(op, outcome string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.upstreamRequests[op][outcome]
}

// RecordCompose records a metrics composition cycle
func (m *Metrics) RecordCompose(duration time.Duration, ok bool) {
	m.mu.Lock()
	m.ComposeCyclesTotal++
	if !ok {
		m.ComposeFailures++
	}
	m.lastComposeDuration = duration
	m.mu.Unlock()
}

// RecordSnapshotBroadcast counts a composed snapshot pushed to viewers
func (m *Metrics) RecordSnapshotBroadcast() {
	m.mu.Lock()
	m.SnapshotsBroadcast++
	m.mu.Unlock()
}

// RecordMutation records the result of an agent status mutation
func (m *Metrics) RecordMutation(ok bool) {
	m.mu.Lock()
	m.MutationsTotal++
	if !ok {
		m.MutationFailuresTotal++
	}
	m.mu.Unlock()
}

// RecordMutationRejected counts a mutation refused because one was in flight
func (m *Metrics) RecordMutationRejected() {
	m.mu.Lock()
	m.MutationsRejected++
	m.mu.Unlock()
}

// RecordCallback records a callback request, limited or forwarded
func (m *Metrics) RecordCallback(limited bool) {
	m.mu.Lock()
	if limited {
		m.CallbacksRateLimited++
	} else {
		m.CallbacksRequested++
	}
	m.mu.Unlock()
}

// RecordWebSocketConnect increments connection counters
func (m *Metrics) RecordWebSocketConnect() {
	m.mu.Lock()
	m.WebSocketConnectionsTotal++
	m.activeConnections++
	m.mu.Unlock()
}

// RecordWebSocketDisconnect increments disconnection counter
func (m *Metrics) RecordWebSocketDisconnect() {
	m.mu.Lock()
	m.WebSocketDisconnectionsTotal++
	m.activeConnections--
	m.mu.Unlock()
}

// RecordWebSocketMessage increments message counter
func (m *Metrics) RecordWebSocketMessage() {
	m.mu.Lock()
	m.WebSocketMessagesTotal++
	m.mu.Unlock()
}

// RecordWebSocketError increments WebSocket error counter
func (m *Metrics) RecordWebSocketError() {
	m.mu.Lock()
	m.WebSocketErrorsTotal++
	m.mu.Unlock()
}

// UpdateViewers replaces the per-section viewer gauge
func (m *Metrics) UpdateViewers(bySection map[string]int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.viewersBySection = make(map[string]int, len(bySection))
	for section, count := range bySection {
		m.viewersBySection[section] = count
	}
}

// UpdateAgentStats updates agent distribution metrics
func (m *Metrics) UpdateAgentStats(agents []types.Agent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.agentsByStatus = types.StatusCount(agents)
	m.totalAgents = len(agents)
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(endpoint string, statusCode int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.httpRequestsTotal[endpoint] == nil {
		m.httpRequestsTotal[endpoint] = make(map[int]int64)
	}
	m.httpRequestsTotal[endpoint][statusCode]++
}

// Handler returns an HTTP handler for the /metrics endpoint
func (m *Metrics) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m.mu.RLock()
		defer m.mu.RUnlock()

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		write := func(name string, value interface{}, labels ...string) {
			labelStr := ""
			if len(labels) > 0 {
				labelStr = "{"
				for i := 0; i < len(labels); i += 2 {
					if i > 0 {
						labelStr += ","
					}
					labelStr += labels[i] + "=\"" + labels[i+1] + "\""
				}
				labelStr += "}"
			}

			switch v := value.(type) {
			case int:
				w.Write([]byte(name + labelStr + " " + strconv.Itoa(v) + "\n"))
			case int64:
				w.Write([]byte(name + labelStr + " " + strconv.FormatInt(v, 10) + "\n"))
			case float64:
				w.Write([]byte(name + labelStr + " " + strconv.FormatFloat(v, 'f', 6, 64) + "\n"))
			}
		}

		write("opsdash_uptime_seconds", time.Since(m.startTime).Seconds())

		for _, op := range sortedKeys(m.upstreamRequests) {
			outcomes := m.upstreamRequests[op]
			for _, outcome := range sortedKeys(outcomes) {
				write("opsdash_upstream_requests_total", outcomes[outcome], "op", op, "outcome", outcome)
			}
			write("opsdash_upstream_last_duration_seconds", m.upstreamDurations[op].Seconds(), "op", op)
		}

		write("opsdash_compose_cycles_total", m.ComposeCyclesTotal)
		write("opsdash_compose_failures_total", m.ComposeFailures)
		write("opsdash_compose_duration_seconds", m.lastComposeDuration.Seconds())
		write("opsdash_snapshots_broadcast_total", m.SnapshotsBroadcast)

		write("opsdash_mutations_total", m.MutationsTotal)
		write("opsdash_mutation_failures_total", m.MutationFailuresTotal)
		write("opsdash_mutations_rejected_total", m.MutationsRejected)

		write("opsdash_callbacks_requested_total", m.CallbacksRequested)
		write("opsdash_callbacks_rate_limited_total", m.CallbacksRateLimited)

		write("opsdash_websocket_connections_total", m.WebSocketConnectionsTotal)
		write("opsdash_websocket_disconnections_total", m.WebSocketDisconnectionsTotal)
		write("opsdash_websocket_active_connections", m.activeConnections)
		write("opsdash_websocket_messages_total", m.WebSocketMessagesTotal)
		write("opsdash_websocket_errors_total", m.WebSocketErrorsTotal)
		for _, section := range sortedKeys(m.viewersBySection) {
			write("opsdash_viewers_by_section", m.viewersBySection[section], "section", section)
		}

		write("opsdash_agents_total", m.totalAgents)
		for status, count := range m.agentsByStatus {
			write("opsdash_agents_by_status", count, "status", string(status))
		}

		for endpoint, statusCodes := range m.httpRequestsTotal {
			for status, count := range statusCodes {
				write("opsdash_http_requests_total", count, "endpoint", endpoint, "status", strconv.Itoa(status))
			}
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

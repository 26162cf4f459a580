package websocket

import (
	"sync"

	"github.com/dennisdiepolder/monti/opsdash/internal/metrics"
	"github.com/dennisdiepolder/monti/opsdash/internal/viewstate"
	"github.com/rs/zerolog"
)

// outbound is a message for the clients viewing section
type outbound struct {
	section viewstate.Section
	data    []byte
}

// selection is a client switching its mounted section
type selection struct {
	client  *Client
	section viewstate.Section
}

// Hub maintains the set of active clients and delivers messages to the
// clients viewing the section they target
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Outbound messages
	broadcast chan outbound

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Section changes from clients
	selected chan selection

	// Called from Run whenever a client mounts a section
	onSelect []func(viewstate.Section)

	// Mutex to protect clients map and hooks
	mu sync.RWMutex

	logger zerolog.Logger
}

// NewHub creates a new Hub
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan outbound, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		selected:   make(chan selection, 16),
		clients:    make(map[*Client]bool),
		logger:     logger.With().Str("component", "hub").Logger(),
	}
}

// OnSelect registers fn to run whenever a client mounts a section. fn runs on
// the hub goroutine and must not block.
func (h *Hub) OnSelect(fn func(viewstate.Section)) {
	h.mu.Lock()
	h.onSelect = append(h.onSelect, fn)
	h.mu.Unlock()
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Info().
				Str("client_id", client.id).
				Str("section", string(client.section)).
				Int("total_clients", h.ClientCount()).
				Msg("client connected")
			h.mounted(client.section)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.logger.Info().
					Str("client_id", client.id).
					Int("total_clients", len(h.clients)).
					Msg("client disconnected")
			}
			h.mu.Unlock()
			h.updateViewerMetrics()

		case sel := <-h.selected:
			h.mu.Lock()
			_, ok := h.clients[sel.client]
			if ok {
				sel.client.section = sel.section
			}
			h.mu.Unlock()
			if ok {
				h.logger.Debug().
					Str("client_id", sel.client.id).
					Str("section", string(sel.section)).
					Msg("client selected section")
				h.mounted(sel.section)
			}

		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

// BroadcastSection sends a message to the clients currently viewing section
func (h *Hub) BroadcastSection(section viewstate.Section, message []byte) {
	h.broadcast <- outbound{section: section, data: message}
}

// Select records that client now has section mounted
func (h *Hub) Select(client *Client, section viewstate.Section) {
	h.selected <- selection{client: client, section: section}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Watching returns how many clients have section mounted
func (h *Hub) Watching(section viewstate.Section) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for client := range h.clients {
		if client.section == section {
			n++
		}
	}
	return n
}

func (h *Hub) mounted(section viewstate.Section) {
	h.updateViewerMetrics()

	h.mu.RLock()
	hooks := h.onSelect
	h.mu.RUnlock()
	for _, fn := range hooks {
		fn(section)
	}
}

func (h *Hub) updateViewerMetrics() {
	h.mu.RLock()
	bySection := make(map[string]int, len(viewstate.Sections))
	for client := range h.clients {
		bySection[string(client.section)]++
	}
	h.mu.RUnlock()
	metrics.Get().UpdateViewers(bySection)
}

// deliver sends msg to each targeted client, dropping clients that cannot keep up
func (h *Hub) deliver(msg outbound) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		if client.section != msg.section {
			continue
		}

		select {
		case client.send <- msg.data:
		default:
			// Client's send buffer is full, close and remove it
			close(client.send)
			delete(h.clients, client)
			h.logger.Warn().
				Str("client_id", client.id).
				Msg("client send buffer full, closing connection")
		}
	}
}

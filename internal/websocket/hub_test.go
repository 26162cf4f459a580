package websocket

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dennisdiepolder/monti/opsdash/internal/config"
	"github.com/dennisdiepolder/monti/opsdash/internal/viewstate"
	gorilla "github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

func TestNewHub(t *testing.T) {
	logger := zerolog.New(&bytes.Buffer{})
	hub := NewHub(logger)

	if hub == nil {
		t.Fatal("expected hub to be created")
	}

	if hub.clients == nil {
		t.Error("expected clients map to be initialized")
	}

	if hub.broadcast == nil || hub.register == nil || hub.unregister == nil || hub.selected == nil {
		t.Error("expected hub channels to be initialized")
	}
}

func TestHubClientCount(t *testing.T) {
	logger := zerolog.New(&bytes.Buffer{})
	hub := NewHub(logger)

	if hub.ClientCount() != 0 {
		t.Errorf("expected 0 clients, got %d", hub.ClientCount())
	}

	hub.mu.Lock()
	hub.clients[&Client{id: "test1", section: viewstate.Overview}] = true
	hub.clients[&Client{id: "test2", section: viewstate.Agents}] = true
	hub.mu.Unlock()

	if hub.ClientCount() != 2 {
		t.Errorf("expected 2 clients, got %d", hub.ClientCount())
	}
	if hub.Watching(viewstate.Overview) != 1 {
		t.Errorf("expected 1 overview viewer, got %d", hub.Watching(viewstate.Overview))
	}
	if hub.Watching(viewstate.Calls) != 0 {
		t.Errorf("expected 0 calls viewers, got %d", hub.Watching(viewstate.Calls))
	}
}

func TestHubRegisterUnregister(t *testing.T) {
	logger := zerolog.New(&bytes.Buffer{})
	hub := NewHub(logger)
	go hub.Run()

	client := &Client{
		id:      "test-client",
		hub:     hub,
		send:    make(chan []byte, 1),
		section: viewstate.Overview,
	}

	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	if hub.ClientCount() != 1 {
		t.Errorf("expected 1 client after register, got %d", hub.ClientCount())
	}

	hub.unregister <- client
	time.Sleep(10 * time.Millisecond)

	if hub.ClientCount() != 0 {
		t.Errorf("expected 0 clients after unregister, got %d", hub.ClientCount())
	}
}

func TestBroadcastSectionReachesOnlyViewers(t *testing.T) {
	logger := zerolog.New(&bytes.Buffer{})
	hub := NewHub(logger)
	go hub.Run()

	overview := &Client{id: "overview", hub: hub, send: make(chan []byte, 10), section: viewstate.Overview}
	agents := &Client{id: "agents", hub: hub, send: make(chan []byte, 10), section: viewstate.Agents}

	hub.register <- overview
	hub.register <- agents
	time.Sleep(10 * time.Millisecond)

	message := []byte(`{"type":"metrics_snapshot"}`)
	hub.BroadcastSection(viewstate.Overview, message)

	select {
	case msg := <-overview.send:
		if string(msg) != string(message) {
			t.Errorf("overview expected %s, got %s", message, msg)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("overview viewer did not receive message")
	}

	select {
	case msg := <-agents.send:
		t.Errorf("agents viewer unexpectedly received %s", msg)
	case <-time.After(50 * time.Millisecond):
	}

	hub.BroadcastSection(viewstate.Agents, []byte("agents"))
	select {
	case msg := <-agents.send:
		if string(msg) != "agents" {
			t.Errorf("agents expected agents, got %s", msg)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("agents viewer did not receive message")
	}
	select {
	case msg := <-overview.send:
		t.Errorf("overview viewer unexpectedly received %s", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSelectMovesClientAndFiresHook(t *testing.T) {
	logger := zerolog.New(&bytes.Buffer{})
	hub := NewHub(logger)

	var overviewMounts int32
	hub.OnSelect(func(s viewstate.Section) {
		if s == viewstate.Overview {
			atomic.AddInt32(&overviewMounts, 1)
		}
	})
	go hub.Run()

	client := &Client{id: "c", hub: hub, send: make(chan []byte, 10), section: viewstate.Agents}
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	hub.Select(client, viewstate.Overview)
	time.Sleep(20 * time.Millisecond)

	if hub.Watching(viewstate.Overview) != 1 || hub.Watching(viewstate.Agents) != 0 {
		t.Error("expected client to move to overview")
	}
	if atomic.LoadInt32(&overviewMounts) != 1 {
		t.Errorf("expected one overview mount, got %d", overviewMounts)
	}
}

func TestHandlerSelectMessage(t *testing.T) {
	logger := zerolog.Nop()
	hub := NewHub(logger)
	go hub.Run()

	cfg := &config.Config{
		AllowedOrigins: []string{"*"},
		PongWait:       time.Minute,
		PingPeriod:     time.Minute * 9 / 10,
		WriteWait:      time.Second,
		MaxMessageSize: 512,
	}
	server := httptest.NewServer(NewHandler(hub, cfg, logger))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?tab=agents"
	conn, _, err := gorilla.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	waitFor(t, func() bool { return hub.Watching(viewstate.Agents) == 1 })

	msg, _ := json.Marshal(ClientMessage{Type: "select", Tab: "overview"})
	if err := conn.WriteMessage(gorilla.TextMessage, msg); err != nil {
		t.Fatalf("write: %v", err)
	}
	waitFor(t, func() bool { return hub.Watching(viewstate.Overview) == 1 })

	hub.BroadcastSection(viewstate.Overview, []byte(`{"type":"metrics_unavailable"}`))
	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "metrics_unavailable") {
		t.Errorf("unexpected message %s", data)
	}
}

func TestHandlerRejectsUnknownOrigin(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	cfg := &config.Config{AllowedOrigins: []string{"http://localhost:5173"}}
	handler := NewHandler(hub, cfg, zerolog.Nop())

	req := httptest.NewRequest("GET", "/ws", nil)
	req.Header.Set("Origin", "http://evil.example")
	if handler.checkOrigin(req) {
		t.Error("expected unknown origin to be rejected")
	}

	req.Header.Set("Origin", "http://localhost:5173")
	if !handler.checkOrigin(req) {
		t.Error("expected configured origin to be accepted")
	}

	req.Header.Del("Origin")
	if !handler.checkOrigin(req) {
		t.Error("expected same-origin requests to be accepted")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

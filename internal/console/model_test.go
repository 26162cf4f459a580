package console

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dennisdiepolder/monti/opsdash/internal/types"
	"github.com/dennisdiepolder/monti/opsdash/internal/viewstate"
	"github.com/rs/zerolog"
)

// fakeBackend serves a fixed dataset; commands run synchronously in tests so
// no locking is needed
type fakeBackend struct {
	agents      []types.Agent
	calls       []types.CallLogEntry
	recordings  []types.CallRecording
	failMetrics bool
	failStatus  error
	statuses    []types.AgentStatus
	callbacks   []string
	callLoads   int
}

func newFakeBackend() *fakeBackend {
	f := &fakeBackend{
		agents: []types.Agent{
			{ID: 1, Name: "Anna", PhoneNumber: "+15550000001", Status: types.StatusAvailable},
			{ID: 2, Name: "Ben", PhoneNumber: "+15550000002", Status: types.StatusOnCall},
			{ID: 3, Name: "Cara", PhoneNumber: "+15550000003", Status: types.StatusOffline},
			{ID: 4, Name: "Dan", PhoneNumber: "+15550000004", Status: types.StatusAvailable},
		},
	}
	for i := 1; i <= 23; i++ {
		f.calls = append(f.calls, types.CallLogEntry{
			ID:           int64(i),
			CallerNumber: fmt.Sprintf("+1555100%04d", i),
			Status:       types.CallCompleted,
		})
	}
	statuses := []types.CallStatus{
		types.CallCompleted, types.CallCompleted, types.CallMissed, types.CallCompleted,
		types.CallFailed, types.CallCompleted, types.CallMissed, types.CallCompleted,
	}
	for i, status := range statuses {
		url := fmt.Sprintf("/rec_%03d.mp3", i+1)
		f.recordings = append(f.recordings, types.CallRecording{
			ID:           int64(i + 1),
			CallerNumber: fmt.Sprintf("+1555200%04d", i+1),
			AgentName:    "Anna",
			Duration:     60,
			RecordingURL: &url,
			Status:       status,
		})
	}
	return f
}

func (f *fakeBackend) ListAgents(ctx context.Context) ([]types.Agent, error) {
	out := make([]types.Agent, len(f.agents))
	copy(out, f.agents)
	return out, nil
}

func (f *fakeBackend) SetAgentStatus(ctx context.Context, id int64, status types.AgentStatus) (types.AgentPatch, error) {
	f.statuses = append(f.statuses, status)
	if f.failStatus != nil {
		return types.AgentPatch{}, f.failStatus
	}
	return types.AgentPatch{ID: &id, Status: &status}, nil
}

func (f *fakeBackend) ListCalls(ctx context.Context) ([]types.CallLogEntry, error) {
	f.callLoads++
	return f.calls, nil
}

func (f *fakeBackend) ListRecordings(ctx context.Context) ([]types.CallRecording, error) {
	return f.recordings, nil
}

func (f *fakeBackend) DailyCalls(ctx context.Context) (types.DailyCalls, error) {
	if f.failMetrics {
		return types.DailyCalls{}, errors.New("daily calls down")
	}
	return types.DailyCalls{Total: 12, Change: 20}, nil
}

func (f *fakeBackend) AvgCallDuration(ctx context.Context) (types.AvgDuration, error) {
	return types.AvgDuration{Seconds: 150}, nil
}

func (f *fakeBackend) AgentAvailability(ctx context.Context) (types.AgentAvailability, error) {
	return types.AgentAvailability{Available: 2, OnCall: 1, Offline: 1, Total: 4}, nil
}

func (f *fakeBackend) RequestCallback(ctx context.Context, phoneNumber string) error {
	f.callbacks = append(f.callbacks, phoneNumber)
	return nil
}

type harness struct {
	model   *Model
	backend *fakeBackend
	history *viewstate.History
	store   *viewstate.FileStore
	copied  []string
}

func newHarness(t *testing.T, address string) *harness {
	t.Helper()
	u, err := viewstate.ParseAddress(address)
	if err != nil {
		t.Fatalf("parse address: %v", err)
	}

	h := &harness{
		backend: newFakeBackend(),
		history: viewstate.NewHistory(u),
		store:   viewstate.NewFileStore(filepath.Join(t.TempDir(), "address")),
	}
	sync := viewstate.NewSynchronizer()
	sync.Mount(h.history)
	t.Cleanup(sync.Unmount)

	h.model = New(Options{
		Backend:        h.backend,
		Sync:           sync,
		History:        h.history,
		Store:          h.store,
		MetricsRefresh: time.Minute,
		RequestTimeout: time.Second,
		Copy: func(s string) error {
			h.copied = append(h.copied, s)
			return nil
		},
		Logger: zerolog.Nop(),
	})
	h.run(h.model.enter(sync.Section()))
	return h
}

// run executes cmd and every command it produces, feeding results back
func (h *harness) run(cmd tea.Cmd) {
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		msg := next()
		if batch, ok := msg.(tea.BatchMsg); ok {
			queue = append(queue, batch...)
			continue
		}
		_, produced := h.model.Update(msg)
		queue = append(queue, produced)
	}
}

func (h *harness) press(keys ...string) {
	for _, k := range keys {
		_, cmd := h.model.Update(keyMsg(k))
		h.run(cmd)
	}
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func (h *harness) tab() string {
	return h.history.Current().Query().Get(viewstate.QueryKey)
}

func TestInitialSectionFromAddress(t *testing.T) {
	tests := []struct {
		address string
		want    viewstate.Section
	}{
		{"", viewstate.Overview},
		{"?tab=recordings", viewstate.Recordings},
		{"?tab=bogus", viewstate.Overview},
		{"?tab=dashboard", viewstate.Overview},
		{"opsdash://dashboard?tab=calls", viewstate.Calls},
	}

	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			h := newHarness(t, tt.address)
			if got := h.model.Section(); got != tt.want {
				t.Errorf("expected %s mounted, got %s", tt.want, got)
			}
		})
	}
}

func TestSectionKeysRewriteAddress(t *testing.T) {
	h := newHarness(t, "")

	h.press("2")
	if h.model.Section() != viewstate.Agents || h.tab() != "agents" {
		t.Fatalf("after 2: section %s, tab %q", h.model.Section(), h.tab())
	}

	h.press("tab")
	if h.model.Section() != viewstate.Calls || h.tab() != "calls" {
		t.Fatalf("after tab: section %s, tab %q", h.model.Section(), h.tab())
	}

	h.press("shift+tab", "shift+tab", "shift+tab")
	if h.model.Section() != viewstate.Recordings {
		t.Fatalf("shift+tab should wrap to recordings, got %s", h.model.Section())
	}

	saved, err := h.store.Load()
	if err != nil {
		t.Fatalf("load state: %v", err)
	}
	if saved == nil || saved.Query().Get(viewstate.QueryKey) != "recordings" {
		t.Errorf("expected persisted recordings address, got %v", saved)
	}
}

func TestBackForwardFollowsHistory(t *testing.T) {
	h := newHarness(t, "")
	h.press("2", "3")

	h.press("[")
	if h.model.Section() != viewstate.Agents {
		t.Fatalf("back: expected agents, got %s", h.model.Section())
	}
	h.press("[")
	if h.model.Section() != viewstate.Overview {
		t.Fatalf("back: expected overview, got %s", h.model.Section())
	}
	if h.tab() != "" {
		t.Errorf("expected original address restored, got tab %q", h.tab())
	}

	// nothing further back
	h.press("[")
	if h.model.Section() != viewstate.Overview {
		t.Fatalf("extra back moved to %s", h.model.Section())
	}

	h.press("]")
	if h.model.Section() != viewstate.Agents || h.tab() != "agents" {
		t.Errorf("forward: section %s, tab %q", h.model.Section(), h.tab())
	}
	if !h.history.CanForward() {
		t.Error("expected calls still ahead in history")
	}
}

func TestHistoryHints(t *testing.T) {
	h := newHarness(t, "")

	tests := []struct {
		keys        []string
		wantBack    bool
		wantForward bool
	}{
		{nil, false, false},
		{[]string{"2"}, true, false},
		{[]string{"["}, false, true},
		{[]string{"]", "3", "["}, true, true},
	}

	for i, tt := range tests {
		h.press(tt.keys...)
		tabs := h.model.renderTabs()
		if got := strings.Contains(tabs, "← back"); got != tt.wantBack {
			t.Errorf("step %d: back hint = %v, want %v", i, got, tt.wantBack)
		}
		if got := strings.Contains(tabs, "forward →"); got != tt.wantForward {
			t.Errorf("step %d: forward hint = %v, want %v", i, got, tt.wantForward)
		}
	}
}

func TestListStateSurvivesSectionSwitch(t *testing.T) {
	h := newHarness(t, "?tab=calls")

	h.press("right", "right")
	if got := h.model.calls.current().Page; got != 3 {
		t.Fatalf("expected page 3, got %d", got)
	}

	h.press("1", "3")
	page := h.model.calls.current()
	if page.Page != 3 || page.From != 21 || page.To != 23 {
		t.Errorf("expected page 3 showing 21-23 after switching back, got page %d %d-%d", page.Page, page.From, page.To)
	}
	if h.backend.callLoads != 2 {
		t.Errorf("expected calls reloaded on remount, got %d loads", h.backend.callLoads)
	}

	// paging past the end stays on the last page
	h.press("right")
	if got := h.model.calls.current().Page; got != 3 {
		t.Errorf("expected page to stay 3, got %d", got)
	}
}

func TestSearchResetsToFirstPage(t *testing.T) {
	h := newHarness(t, "?tab=calls")
	h.press("right")

	h.press("/", "0023")
	page := h.model.calls.current()
	if page.Page != 1 || page.Total != 1 {
		t.Fatalf("expected one match on page 1, got page %d total %d", page.Page, page.Total)
	}

	// keys go to the search field while it has focus
	h.press("2")
	if h.model.Section() != viewstate.Calls {
		t.Fatalf("typing in search switched section to %s", h.model.Section())
	}

	h.press("esc")
	page = h.model.calls.current()
	if page.Total != 23 || h.model.calls.list.Term() != "" {
		t.Errorf("expected search cleared, got total %d term %q", page.Total, h.model.calls.list.Term())
	}
}

func TestFacetCyclesStatuses(t *testing.T) {
	h := newHarness(t, "?tab=recordings")

	want := []struct {
		facet string
		total int
	}{
		{"completed", 5},
		{"missed", 2},
		{"failed", 1},
		{"all", 8},
	}
	for _, w := range want {
		h.press("s")
		page := h.model.recordings.current()
		if got := h.model.recordings.list.Facet(); got != w.facet {
			t.Fatalf("expected facet %s, got %s", w.facet, got)
		}
		if page.Total != w.total {
			t.Errorf("facet %s: expected %d recordings, got %d", w.facet, w.total, page.Total)
		}
	}
}

func TestToggleAgent(t *testing.T) {
	h := newHarness(t, "?tab=agents")

	h.press("space")
	if len(h.backend.statuses) != 1 || h.backend.statuses[0] != types.StatusOffline {
		t.Fatalf("expected one offline request, got %v", h.backend.statuses)
	}
	agent, _ := h.model.agents.selected()
	if agent.Status != types.StatusOffline {
		t.Errorf("expected Anna offline, got %s", agent.Status)
	}
	if h.model.notice != "Anna is now offline" || h.model.noticeErr {
		t.Errorf("unexpected notice %q", h.model.notice)
	}

	h.press("down", "space")
	if last := h.backend.statuses[len(h.backend.statuses)-1]; last != types.StatusAvailable {
		t.Errorf("on_call agent should be toggled to available, got %s", last)
	}
}

func TestToggleFailureLeavesAgentUnchanged(t *testing.T) {
	h := newHarness(t, "?tab=agents")
	h.backend.failStatus = errors.New("database unavailable")

	h.press("space")
	agent, _ := h.model.agents.selected()
	if agent.Status != types.StatusAvailable {
		t.Errorf("expected status unchanged, got %s", agent.Status)
	}
	if !h.model.noticeErr || h.model.notice != "database unavailable" {
		t.Errorf("expected error notice, got %q", h.model.notice)
	}
}

func TestToggleIgnoredOutsideAgents(t *testing.T) {
	h := newHarness(t, "?tab=calls")
	h.press("space")
	if len(h.backend.statuses) != 0 {
		t.Errorf("expected no status request, got %v", h.backend.statuses)
	}
}

func TestOverviewMetrics(t *testing.T) {
	h := newHarness(t, "")
	h.backend.failMetrics = true
	h.press("r")

	if h.model.overview.outcome == nil || h.model.overview.outcome.Err == nil {
		t.Fatal("expected failed outcome")
	}
	if !strings.Contains(h.model.View(), "Metrics unavailable") {
		t.Error("expected unavailable message in view")
	}

	h.backend.failMetrics = false
	h.press("r")
	outcome := h.model.overview.outcome
	if outcome.Err != nil || outcome.Snapshot == nil || outcome.Snapshot.DailyCalls.Total != 12 {
		t.Fatalf("expected recovered snapshot, got %+v", outcome)
	}

	// a late answer from an older cycle does not replace a newer one
	h.model.Update(metricsMsg{seq: 1})
	if h.model.overview.outcome.Snapshot == nil {
		t.Error("stale metrics result replaced the latest snapshot")
	}
}

func TestCallbackPrompt(t *testing.T) {
	h := newHarness(t, "")

	h.press("c", "enter")
	if h.model.notice != "Phone number is required" || len(h.backend.callbacks) != 0 {
		t.Fatalf("expected validation notice, got %q and %v", h.model.notice, h.backend.callbacks)
	}

	h.press("+15550001111", "enter")
	if len(h.backend.callbacks) != 1 || h.backend.callbacks[0] != "+15550001111" {
		t.Fatalf("expected one callback request, got %v", h.backend.callbacks)
	}
	if h.model.notice != "Callback requested for +15550001111" {
		t.Errorf("unexpected notice %q", h.model.notice)
	}
	if h.model.callback.Focused() {
		t.Error("prompt should close after submitting")
	}
}

func TestCopyAddress(t *testing.T) {
	h := newHarness(t, "")
	h.press("2", "y")

	if len(h.copied) != 1 || h.copied[0] != "opsdash://dashboard?tab=agents" {
		t.Fatalf("unexpected clipboard writes %v", h.copied)
	}
	if h.model.notice != "Copied opsdash://dashboard?tab=agents" {
		t.Errorf("unexpected notice %q", h.model.notice)
	}
}

func TestQuitPersistsAddress(t *testing.T) {
	h := newHarness(t, "?tab=recordings")

	_, cmd := h.model.Update(keyMsg("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}

	data, err := os.ReadFile(h.store.Path())
	if err != nil {
		t.Fatalf("read state: %v", err)
	}
	if !strings.Contains(string(data), "tab=recordings") {
		t.Errorf("expected recordings persisted, got %q", data)
	}
}

func TestUnknownCallStatusIsShown(t *testing.T) {
	h := newHarness(t, "?tab=calls")
	h.backend.calls = []types.CallLogEntry{
		{ID: 1, CallerNumber: "+15559990001", Status: types.CallStatus("voicemail")},
	}
	h.press("r")

	view := h.model.View()
	if !strings.Contains(view, "voicemail (unrecognized)") {
		t.Errorf("expected unknown status in selected call line, got:\n%s", view)
	}
	if !strings.Contains(view, "+15559990001 · Unassigned") {
		t.Errorf("expected selected call caller and agent, got:\n%s", view)
	}
}

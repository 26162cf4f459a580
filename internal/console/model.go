// Package console is the operator terminal dashboard. One section is mounted
// at a time; the selection follows a navigable address that supports back,
// forward and sharing.
package console

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dennisdiepolder/monti/opsdash/internal/aggregator"
	"github.com/dennisdiepolder/monti/opsdash/internal/cache"
	"github.com/dennisdiepolder/monti/opsdash/internal/listing"
	"github.com/dennisdiepolder/monti/opsdash/internal/types"
	"github.com/dennisdiepolder/monti/opsdash/internal/upstream"
	"github.com/dennisdiepolder/monti/opsdash/internal/viewstate"
	"github.com/rs/zerolog"
)

// Backend is the call-center API the console reads from and writes to
type Backend interface {
	cache.AgentSource
	aggregator.MetricsSource
	ListCalls(ctx context.Context) ([]types.CallLogEntry, error)
	ListRecordings(ctx context.Context) ([]types.CallRecording, error)
	RequestCallback(ctx context.Context, phoneNumber string) error
}

// Options wires a Model
type Options struct {
	Backend Backend
	Sync    *viewstate.Synchronizer
	History *viewstate.History
	// Store persists the address after every navigation; may be nil
	Store          *viewstate.FileStore
	MetricsRefresh time.Duration
	RequestTimeout time.Duration
	// Copy writes to the system clipboard; defaults to clipboard.WriteAll
	Copy   func(string) error
	Logger zerolog.Logger
}

type (
	agentsLoadedMsg struct{ err error }
	callsLoadedMsg  struct {
		items []types.CallLogEntry
		err   error
		at    time.Time
	}
	recordingsLoadedMsg struct {
		items []types.CallRecording
		err   error
		at    time.Time
	}
	metricsMsg struct {
		seq     int
		outcome aggregator.Outcome
	}
	metricsTickMsg   time.Time
	statusChangedMsg struct {
		agent types.Agent
		err   error
	}
	callbackDoneMsg struct {
		phone string
		err   error
	}
	copiedMsg struct {
		address string
		err     error
	}
)

// Model is the root bubbletea model of the console
type Model struct {
	backend Backend
	roster  *cache.AgentRoster
	sync    *viewstate.Synchronizer
	history *viewstate.History
	store   *viewstate.FileStore
	copy    func(string) error
	logger  zerolog.Logger

	refresh time.Duration
	timeout time.Duration

	mounted    viewstate.Section
	overview   overviewView
	agents     *listView[types.Agent]
	calls      *listView[types.CallLogEntry]
	recordings *listView[types.CallRecording]

	callback   textinput.Model
	requesting bool
	notice     string
	noticeErr  bool

	metricsSeq int
	spinner    spinner.Model
	help       help.Model
	width      int
	height     int
}

// New creates the console model. The synchronizer is expected to be mounted
// on opts.History already.
func New(opts Options) *Model {
	copyFn := opts.Copy
	if copyFn == nil {
		copyFn = clipboard.WriteAll
	}

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = lipgloss.NewStyle().Foreground(colorTitle)

	cb := textinput.New()
	cb.Prompt = "callback number: "
	cb.Placeholder = "+1 555 123 4567"
	cb.CharLimit = 32
	cb.Width = 24
	cb.Cursor.SetMode(cursor.CursorStatic)

	return &Model{
		backend:    opts.Backend,
		roster:     cache.NewAgentRoster(opts.Backend, opts.Logger),
		sync:       opts.Sync,
		history:    opts.History,
		store:      opts.Store,
		copy:       copyFn,
		logger:     opts.Logger.With().Str("component", "console").Logger(),
		refresh:    opts.MetricsRefresh,
		timeout:    opts.RequestTimeout,
		agents:     newAgentsView(),
		calls:      newCallsView(),
		recordings: newRecordingsView(),
		callback:   cb,
		spinner:    sp,
		help:       help.New(),
	}
}

func newAgentsView() *listView[types.Agent] {
	return newListView(viewstate.Agents,
		types.Agent.SearchFields,
		types.Agent.FacetValue,
		[]string{listing.FacetAll, string(types.StatusAvailable), string(types.StatusOnCall), string(types.StatusOffline)},
		[]table.Column{
			{Title: "Name", Width: 18},
			{Title: "Phone", Width: 16},
			{Title: "Status", Width: 12},
			{Title: "Last update", Width: 20},
		},
		func(a types.Agent) table.Row {
			return table.Row{a.Name, a.PhoneNumber, string(a.Status), types.FormatTimestamp(&a.LastStatusUpdate)}
		},
	)
}

func newCallsView() *listView[types.CallLogEntry] {
	return newListView(viewstate.Calls,
		types.CallLogEntry.SearchFields,
		nil,
		nil,
		[]table.Column{
			{Title: "Caller", Width: 16},
			{Title: "Agent", Width: 16},
			{Title: "Started", Width: 20},
			{Title: "Duration", Width: 10},
			{Title: "Status", Width: 12},
		},
		func(c types.CallLogEntry) table.Row {
			duration := types.FormatDuration(c.Duration)
			if c.InProgress() {
				duration = "ongoing"
			}
			return table.Row{c.CallerNumber, c.AgentLabel(), types.FormatTimestamp(c.StartTime), duration, string(c.Status)}
		},
	)
}

func newRecordingsView() *listView[types.CallRecording] {
	return newListView(viewstate.Recordings,
		types.CallRecording.SearchFields,
		types.CallRecording.FacetValue,
		[]string{listing.FacetAll, string(types.CallCompleted), string(types.CallMissed), string(types.CallFailed)},
		[]table.Column{
			{Title: "Caller", Width: 16},
			{Title: "Agent", Width: 16},
			{Title: "Duration", Width: 9},
			{Title: "Size", Width: 9},
			{Title: "Recorded", Width: 20},
			{Title: "Status", Width: 10},
			{Title: "File", Width: 28},
		},
		func(r types.CallRecording) table.Row {
			duration := r.Duration
			file := r.DownloadName()
			if !r.Playable() {
				file = "unavailable"
			}
			return table.Row{
				r.CallerNumber,
				r.AgentName,
				types.FormatDuration(&duration),
				types.FormatFileSize(r.FileSize),
				types.FormatTimestamp(&r.RecordedAt),
				string(r.Status),
				file,
			}
		},
	)
}

func metricsTick(every time.Duration) tea.Cmd {
	return tea.Tick(every, func(t time.Time) tea.Msg { return metricsTickMsg(t) })
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, metricsTick(m.refresh), m.enter(m.sync.Section()))
}

// Section returns the mounted section
func (m *Model) Section() viewstate.Section {
	return m.mounted
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case metricsTickMsg:
		// The timer runs for the whole session but only the mounted overview fetches.
		var cmd tea.Cmd
		if m.mounted == viewstate.Overview {
			cmd = m.loadMetrics()
		}
		return m, tea.Batch(cmd, metricsTick(m.refresh))

	case metricsMsg:
		if msg.seq >= m.overview.seq {
			m.overview.apply(msg.seq, msg.outcome)
		}
		return m, nil

	case agentsLoadedMsg:
		if msg.err != nil {
			m.agents.fail(upstream.UserMessage(msg.err))
			return m, nil
		}
		m.agents.setItems(m.roster.Agents(), m.roster.FetchedAt())
		return m, nil

	case callsLoadedMsg:
		if msg.err != nil {
			m.calls.fail(upstream.UserMessage(msg.err))
			return m, nil
		}
		m.calls.setItems(msg.items, msg.at)
		return m, nil

	case recordingsLoadedMsg:
		if msg.err != nil {
			m.recordings.fail(upstream.UserMessage(msg.err))
			return m, nil
		}
		m.recordings.setItems(msg.items, msg.at)
		return m, nil

	case statusChangedMsg:
		if msg.err != nil {
			m.setNotice(upstream.UserMessage(msg.err), true)
			return m, nil
		}
		m.agents.setItems(m.roster.Agents(), m.roster.FetchedAt())
		m.setNotice(fmt.Sprintf("%s is now %s", msg.agent.Name, msg.agent.Status), false)
		return m, nil

	case callbackDoneMsg:
		m.requesting = false
		if msg.err != nil {
			m.setNotice(upstream.UserMessage(msg.err), true)
			return m, nil
		}
		m.setNotice("Callback requested for "+msg.phone, false)
		return m, nil

	case copiedMsg:
		if msg.err != nil {
			m.setNotice("Copy failed: "+msg.err.Error(), true)
			return m, nil
		}
		m.setNotice("Copied "+msg.address, false)
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.Type == tea.KeyCtrlC {
		m.persist()
		return tea.Quit
	}
	if m.callback.Focused() {
		return m.handleCallbackKey(msg)
	}
	if lv := m.activeList(); lv != nil && lv.searching() {
		switch {
		case key.Matches(msg, keys.Submit):
			lv.blurSearch()
			return nil
		case key.Matches(msg, keys.Cancel):
			lv.clearSearch()
			return nil
		}
		return lv.updateSearch(msg)
	}

	switch {
	case key.Matches(msg, keys.Quit):
		m.persist()
		return tea.Quit
	case key.Matches(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return nil
	case key.Matches(msg, keys.Overview):
		return m.selectSection(viewstate.Overview)
	case key.Matches(msg, keys.Agents):
		return m.selectSection(viewstate.Agents)
	case key.Matches(msg, keys.Calls):
		return m.selectSection(viewstate.Calls)
	case key.Matches(msg, keys.Recordings):
		return m.selectSection(viewstate.Recordings)
	case key.Matches(msg, keys.NextTab):
		return m.selectSection(m.offsetSection(1))
	case key.Matches(msg, keys.PrevTab):
		return m.selectSection(m.offsetSection(-1))
	case key.Matches(msg, keys.Back):
		if !m.history.Back() {
			return nil
		}
		return m.navigated()
	case key.Matches(msg, keys.Forward):
		if !m.history.Forward() {
			return nil
		}
		return m.navigated()
	case key.Matches(msg, keys.Copy):
		return m.copyAddress()
	case key.Matches(msg, keys.Refresh):
		return m.load(m.mounted)
	case key.Matches(msg, keys.Callback):
		m.callback.SetValue("")
		m.callback.Focus()
		return nil
	case key.Matches(msg, keys.Toggle):
		return m.toggleSelected()
	}

	lv := m.activeList()
	if lv == nil {
		return nil
	}
	switch {
	case key.Matches(msg, keys.Up):
		lv.moveUp()
	case key.Matches(msg, keys.Down):
		lv.moveDown()
	case key.Matches(msg, keys.PrevPage):
		lv.prevPage()
	case key.Matches(msg, keys.NextPage):
		lv.nextPage()
	case key.Matches(msg, keys.Facet):
		lv.cycleFacet()
	case key.Matches(msg, keys.Search):
		lv.focusSearch()
	}
	return nil
}

func (m *Model) handleCallbackKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, keys.Cancel):
		m.callback.Blur()
		return nil
	case key.Matches(msg, keys.Submit):
		phone := strings.TrimSpace(m.callback.Value())
		if phone == "" {
			m.setNotice("Phone number is required", true)
			return nil
		}
		if m.requesting {
			return nil
		}
		m.callback.Blur()
		m.requesting = true
		return m.requestCallback(phone)
	}
	var cmd tea.Cmd
	m.callback, cmd = m.callback.Update(msg)
	return cmd
}

// activeList returns the mounted tabular section, nil on the overview
func (m *Model) activeList() listSection {
	switch m.mounted {
	case viewstate.Agents:
		return m.agents
	case viewstate.Calls:
		return m.calls
	case viewstate.Recordings:
		return m.recordings
	default:
		return nil
	}
}

// listSection is the key-driven surface every listView offers
type listSection interface {
	searching() bool
	focusSearch()
	blurSearch()
	clearSearch()
	updateSearch(tea.KeyMsg) tea.Cmd
	cycleFacet()
	nextPage()
	prevPage()
	moveUp()
	moveDown()
}

func (m *Model) offsetSection(delta int) viewstate.Section {
	n := len(viewstate.Sections)
	i := (m.sync.Section().Index() + delta + n) % n
	return viewstate.Sections[i]
}

// selectSection is a user selection: the address is rewritten and pushed
func (m *Model) selectSection(sec viewstate.Section) tea.Cmd {
	m.sync.Select(sec)
	m.persist()
	return m.enter(m.sync.Section())
}

// navigated follows a back or forward move; the synchronizer already holds
// the section derived from the restored address
func (m *Model) navigated() tea.Cmd {
	m.persist()
	return m.enter(m.sync.Section())
}

// enter mounts sec and starts loading its data. Re-entering the mounted
// section is a no-op.
func (m *Model) enter(sec viewstate.Section) tea.Cmd {
	if sec == m.mounted {
		return nil
	}
	m.logger.Debug().Str("from", string(m.mounted)).Str("to", string(sec)).Msg("section mounted")
	m.mounted = sec
	return m.load(sec)
}

func (m *Model) load(sec viewstate.Section) tea.Cmd {
	switch sec {
	case viewstate.Overview:
		return m.loadMetrics()
	case viewstate.Agents:
		m.agents.loading = true
		return m.loadAgents()
	case viewstate.Calls:
		m.calls.loading = true
		return m.loadCalls()
	case viewstate.Recordings:
		m.recordings.loading = true
		return m.loadRecordings()
	}
	return nil
}

func (m *Model) loadMetrics() tea.Cmd {
	m.metricsSeq++
	seq := m.metricsSeq
	m.overview.loading = true
	backend, timeout := m.backend, m.timeout
	logger := m.logger
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		snapshot, err := aggregator.Compose(ctx, backend)
		outcome := aggregator.Outcome{At: time.Now()}
		if err != nil {
			logger.Error().Err(err).Msg("metrics composition failed")
			outcome.Err = aggregator.ErrMetricsUnavailable
		} else {
			outcome.Snapshot = &snapshot
		}
		return metricsMsg{seq: seq, outcome: outcome}
	}
}

func (m *Model) loadAgents() tea.Cmd {
	roster, timeout := m.roster, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return agentsLoadedMsg{err: roster.Refresh(ctx)}
	}
}

func (m *Model) loadCalls() tea.Cmd {
	backend, timeout := m.backend, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		items, err := backend.ListCalls(ctx)
		return callsLoadedMsg{items: items, err: err, at: time.Now()}
	}
}

func (m *Model) loadRecordings() tea.Cmd {
	backend, timeout := m.backend, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		items, err := backend.ListRecordings(ctx)
		return recordingsLoadedMsg{items: items, err: err, at: time.Now()}
	}
}

func (m *Model) toggleSelected() tea.Cmd {
	if m.mounted != viewstate.Agents {
		return nil
	}
	agent, ok := m.agents.selected()
	if !ok {
		return nil
	}
	if m.roster.Pending(agent.ID) {
		m.setNotice(cache.ErrMutationInFlight.Error(), true)
		return nil
	}

	roster, timeout := m.roster, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		updated, err := roster.Toggle(ctx, agent.ID)
		return statusChangedMsg{agent: updated, err: err}
	}
}

func (m *Model) requestCallback(phone string) tea.Cmd {
	backend, timeout := m.backend, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return callbackDoneMsg{phone: phone, err: backend.RequestCallback(ctx, phone)}
	}
}

func (m *Model) copyAddress() tea.Cmd {
	address := m.sync.Address()
	copyFn := m.copy
	return func() tea.Msg {
		return copiedMsg{address: address, err: copyFn(address)}
	}
}

func (m *Model) persist() {
	if m.store == nil {
		return
	}
	if err := m.store.Save(m.history.Current()); err != nil {
		m.logger.Warn().Err(err).Str("path", m.store.Path()).Msg("failed to persist address")
	}
}

func (m *Model) setNotice(text string, isErr bool) {
	m.notice = text
	m.noticeErr = isErr
}

func (m *Model) View() string {
	w := m.width
	if w == 0 {
		w = 120
	}

	var sections []string
	sections = append(sections, titleStyle.Width(w-2).Render(
		fmt.Sprintf("opsdash  │  %s  │  %s", m.sync.Address(), time.Now().Format("15:04:05"))))
	sections = append(sections, m.renderTabs())

	switch m.mounted {
	case viewstate.Overview:
		sections = append(sections, m.overview.render(m.spinner.View()))
	case viewstate.Agents:
		sections = append(sections, m.agents.render(w))
		if agent, ok := m.agents.selected(); ok && m.agents.loaded() {
			status := lipgloss.NewStyle().Foreground(agentStatusColor(agent.Status)).Render(string(agent.Status))
			line := fmt.Sprintf("%s · %s", agent.Name, status)
			if m.roster.Pending(agent.ID) {
				line += " " + m.spinner.View()
			}
			sections = append(sections, line)
		}
	case viewstate.Calls:
		sections = append(sections, m.calls.render(w))
		if call, ok := m.calls.selected(); ok && m.calls.loaded() {
			sections = append(sections, fmt.Sprintf("%s · %s · %s",
				call.CallerNumber, call.AgentLabel(), callStatusBadge(call.Status)))
		}
	case viewstate.Recordings:
		sections = append(sections, m.recordings.render(w))
		if rec, ok := m.recordings.selected(); ok && m.recordings.loaded() {
			sections = append(sections, fmt.Sprintf("%s · %s · %s",
				rec.CallerNumber, rec.AgentName, callStatusBadge(rec.Status)))
		}
	}

	if m.callback.Focused() {
		sections = append(sections, promptStyle.Render(m.callback.View()))
	} else if m.requesting {
		sections = append(sections, m.spinner.View()+" requesting callback...")
	}
	if m.notice != "" {
		style := noticeStyle
		if m.noticeErr {
			style = errorStyle
		}
		sections = append(sections, style.Render(m.notice))
	}
	sections = append(sections, dimStyle.Render(m.help.View(keys)))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) renderTabs() string {
	tabs := make([]string, 0, len(viewstate.Sections))
	for i, sec := range viewstate.Sections {
		label := fmt.Sprintf("%d %s", i+1, sec.Title())
		if sec == m.mounted {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, tabStyle.Render(label))
		}
	}
	if m.history.CanBack() {
		tabs = append(tabs, dimStyle.Render("  ← back"))
	}
	if m.history.CanForward() {
		tabs = append(tabs, dimStyle.Render("  forward →"))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...) + "\n"
}

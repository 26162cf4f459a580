package console

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Overview   key.Binding
	Agents     key.Binding
	Calls      key.Binding
	Recordings key.Binding
	NextTab    key.Binding
	PrevTab    key.Binding
	Back       key.Binding
	Forward    key.Binding
	Up         key.Binding
	Down       key.Binding
	PrevPage   key.Binding
	NextPage   key.Binding
	Search     key.Binding
	Facet      key.Binding
	Toggle     key.Binding
	Callback   key.Binding
	Copy       key.Binding
	Refresh    key.Binding
	Help       key.Binding
	Quit       key.Binding

	// active while a text field has focus
	Submit key.Binding
	Cancel key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextTab, k.Back, k.Forward, k.Search, k.Toggle, k.Callback, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Overview, k.Agents, k.Calls, k.Recordings, k.NextTab, k.PrevTab},
		{k.Back, k.Forward, k.Copy, k.Refresh},
		{k.Up, k.Down, k.PrevPage, k.NextPage, k.Search, k.Facet},
		{k.Toggle, k.Callback, k.Help, k.Quit},
	}
}

var keys = keyMap{
	Overview:   key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "overview")),
	Agents:     key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "agents")),
	Calls:      key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "call logs")),
	Recordings: key.NewBinding(key.WithKeys("4"), key.WithHelp("4", "recordings")),
	NextTab:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next section")),
	PrevTab:    key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("⇧tab", "prev section")),
	Back:       key.NewBinding(key.WithKeys("["), key.WithHelp("[", "back")),
	Forward:    key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "forward")),
	Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	PrevPage:   key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev page")),
	NextPage:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next page")),
	Search:     key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
	Facet:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "status filter")),
	Toggle:     key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle agent")),
	Callback:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "request callback")),
	Copy:       key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy address")),
	Refresh:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
	Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),

	Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("⏎", "apply")),
	Cancel: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
}

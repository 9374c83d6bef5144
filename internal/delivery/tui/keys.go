package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds every binding the dashboard responds to.
type KeyMap struct {
	Quit   key.Binding
	Up     key.Binding
	Down   key.Binding
	Home   key.Binding
	End    key.Binding
	Search key.Binding
	Filter key.Binding
	Cancel key.Binding

	EditTracking     key.Binding
	CycleStatus      key.Binding
	ProgressUp       key.Binding
	ProgressDown     key.Binding
	EditNotes        key.Binding
	Commit           key.Binding
	Discard          key.Binding
	CopyAddress      key.Binding
	RefreshStats     key.Binding
	ExportVisibleCSV key.Binding
}

var DefaultKeyMap = KeyMap{
	Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Up:     key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("↑/k", "up")),
	Down:   key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("↓/j", "down")),
	Home:   key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
	End:    key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "bottom")),
	Search: key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
	Filter: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "status filter")),
	Cancel: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),

	EditTracking:     key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "tracking")),
	CycleStatus:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "status")),
	ProgressUp:       key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "progress")),
	ProgressDown:     key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "progress")),
	EditNotes:        key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "notes")),
	Commit:           key.NewBinding(key.WithKeys("u", "enter"), key.WithHelp("u", "update")),
	Discard:          key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "discard")),
	CopyAddress:      key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy address")),
	RefreshStats:     key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "refresh stats")),
	ExportVisibleCSV: key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "export")),
}

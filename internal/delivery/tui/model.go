// Package tui is the interactive terminal front-end of the dashboard.
package tui

import (
	"context"
	"errors"
	"iter"
	"slices"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"orders-dashboard/internal/domain"
	"orders-dashboard/pkg/storage"
)

// Dashboard is the reconciler the TUI renders and drives.
type Dashboard interface {
	VisibleRows() iter.Seq[domain.Row]
	Stats() domain.Stats
	Loading() bool
	Connected() bool
	Search() string
	StatusFilter() string
	Changes() <-chan struct{}

	SetSearch(term string)
	SetStatusFilter(filter string) error
	SetField(id string, field domain.Field, value string) error
	CycleStatus(id string) error
	AdjustProgress(id string, steps int) error
	Discard(id string)
	Commit(ctx context.Context, id string) error
	Committing(id string) bool
	RefreshStats(ctx context.Context) (domain.Stats, error)
}

// Exporter writes rows somewhere and reports where.
type Exporter interface {
	Export(ctx context.Context, rows iter.Seq[domain.Row]) (storage.PutResult, error)
}

// Focus identifies where keystrokes go.
type Focus int

const (
	// FocusTable routes keys to table navigation and row actions.
	FocusTable Focus = iota
	// FocusSearch routes keys to the search input.
	FocusSearch
	// FocusTracking routes keys to the tracking ID input.
	FocusTracking
	// FocusNotes routes keys to the notes input.
	FocusNotes
)

const (
	// noticeFadeDelay is how long errors and info notices stay visible.
	noticeFadeDelay = 4 * time.Second

	// recentTickInterval re-renders while highlighted rows are fading.
	recentTickInterval = time.Second
)

// changeMsg is delivered whenever the dashboard state changed.
type changeMsg struct{}

// recentTickMsg drives the recent-row highlight expiry.
type recentTickMsg struct{}

// actionResultMsg is sent when a commit, refresh or export finishes.
type actionResultMsg struct {
	info string
	err  error
}

// noticeFadeMsg clears the info/error notice from the status bar.
type noticeFadeMsg struct{}

// Model is the top-level bubbletea model.
type Model struct {
	dashboard Dashboard
	exporter  Exporter
	theme     Theme
	keys      KeyMap

	width  int
	height int
	ready  bool

	rows         []domain.Row
	cursor       int
	selectedID   string
	scrollOffset int

	focus     Focus
	input     textinput.Model
	editingID string

	tickRunning     bool
	clipboardNotice string
	notice          string
	errorNotice     string
}

// NewModel builds the model. exporter may be nil.
func NewModel(dashboard Dashboard, exporter Exporter) Model {
	input := textinput.New()
	input.CharLimit = 1000

	model := Model{
		dashboard: dashboard,
		exporter:  exporter,
		theme:     DefaultTheme,
		keys:      DefaultKeyMap,
		input:     input,
	}
	model.refreshRows()
	return model
}

func (model Model) Init() tea.Cmd {
	return listenForChanges(model.dashboard.Changes())
}

// listenForChanges blocks until the dashboard signals a change.
func listenForChanges(channel <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-channel; !ok {
			return nil
		}
		return changeMsg{}
	}
}

func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.KeyMsg:
		if model.focus != FocusTable {
			return model.handleInputKeys(message)
		}
		return model.handleTableKeys(message)

	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height
		model.ready = true
		model.ensureCursorVisible()

	case changeMsg:
		model.refreshRows()
		commands := []tea.Cmd{listenForChanges(model.dashboard.Changes())}
		if !model.tickRunning && model.anyRecent() {
			model.tickRunning = true
			commands = append(commands, scheduleRecentTick())
		}
		return model, tea.Batch(commands...)

	case recentTickMsg:
		model.refreshRows()
		if model.anyRecent() {
			return model, scheduleRecentTick()
		}
		model.tickRunning = false

	case actionResultMsg:
		model.refreshRows()
		if message.err != nil {
			model.errorNotice = message.err.Error()
			model.notice = ""
		} else if message.info != "" {
			model.notice = message.info
			model.errorNotice = ""
		}
		return model, tea.Tick(noticeFadeDelay, func(time.Time) tea.Msg {
			return noticeFadeMsg{}
		})

	case noticeFadeMsg:
		model.notice = ""
		model.errorNotice = ""

	case clipboardFadeMsg:
		model.clipboardNotice = ""
	}
	return model, nil
}

func (model Model) handleTableKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, model.keys.Quit):
		return model, tea.Quit

	case key.Matches(message, model.keys.Up):
		model.moveCursor(-1)
	case key.Matches(message, model.keys.Down):
		model.moveCursor(1)
	case key.Matches(message, model.keys.Home):
		model.moveCursor(-len(model.rows))
	case key.Matches(message, model.keys.End):
		model.moveCursor(len(model.rows))

	case key.Matches(message, model.keys.Search):
		model.openInput(FocusSearch, "", model.dashboard.Search(), "name, phone or city")
		return model, textinput.Blink

	case key.Matches(message, model.keys.Cancel):
		if model.dashboard.Search() != "" {
			model.dashboard.SetSearch("")
			model.refreshRows()
		}

	case key.Matches(message, model.keys.Filter):
		next := nextFilter(model.dashboard.StatusFilter())
		if err := model.dashboard.SetStatusFilter(next); err != nil {
			model.errorNotice = err.Error()
		}
		model.cursor = 0
		model.scrollOffset = 0
		model.refreshRows()

	case key.Matches(message, model.keys.RefreshStats):
		return model, model.refreshStats()

	case key.Matches(message, model.keys.ExportVisibleCSV):
		return model, model.export()
	}

	row, ok := model.selected()
	if !ok {
		return model, nil
	}

	var err error
	switch {
	case key.Matches(message, model.keys.EditTracking):
		model.openInput(FocusTracking, row.Order.ID, row.Order.TrackingID, "tracking ID")
		return model, textinput.Blink
	case key.Matches(message, model.keys.EditNotes):
		model.openInput(FocusNotes, row.Order.ID, row.Order.Notes, "notes")
		return model, textinput.Blink
	case key.Matches(message, model.keys.CycleStatus):
		err = model.dashboard.CycleStatus(row.Order.ID)
	case key.Matches(message, model.keys.ProgressUp):
		err = model.dashboard.AdjustProgress(row.Order.ID, 1)
	case key.Matches(message, model.keys.ProgressDown):
		err = model.dashboard.AdjustProgress(row.Order.ID, -1)
	case key.Matches(message, model.keys.Discard):
		model.dashboard.Discard(row.Order.ID)
	case key.Matches(message, model.keys.Commit):
		return model, model.commit(row.Order.ID)
	case key.Matches(message, model.keys.CopyAddress):
		model.clipboardNotice = row.Order.Address
		return model, copyToClipboard(row.Order.Address)
	}
	if err != nil {
		model.errorNotice = err.Error()
	}
	model.refreshRows()
	return model, nil
}

func (model *Model) openInput(focus Focus, id, value, placeholder string) {
	model.focus = focus
	model.editingID = id
	model.input.Placeholder = placeholder
	model.input.SetValue(value)
	model.input.CursorEnd()
	model.input.Focus()
}

func (model *Model) closeInput() {
	model.focus = FocusTable
	model.editingID = ""
	model.input.Blur()
	model.input.SetValue("")
}

func (model Model) handleInputKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch message.Type {
	case tea.KeyCtrlC:
		return model, tea.Quit

	case tea.KeyEsc:
		model.closeInput()
		return model, nil

	case tea.KeyEnter:
		value := model.input.Value()
		var err error
		switch model.focus {
		case FocusSearch:
			model.dashboard.SetSearch(value)
			model.cursor = 0
			model.scrollOffset = 0
		case FocusTracking:
			err = model.dashboard.SetField(model.editingID, domain.FieldTrackingID, value)
		case FocusNotes:
			err = model.dashboard.SetField(model.editingID, domain.FieldNotes, value)
		}
		if err != nil {
			model.errorNotice = err.Error()
		}
		model.closeInput()
		model.refreshRows()
		return model, nil
	}

	var cmd tea.Cmd
	model.input, cmd = model.input.Update(message)
	if model.focus == FocusSearch {
		// Search narrows as the operator types.
		model.dashboard.SetSearch(model.input.Value())
		model.cursor = 0
		model.scrollOffset = 0
		model.refreshRows()
	}
	return model, cmd
}

func (model Model) commit(id string) tea.Cmd {
	if model.dashboard.Committing(id) {
		return nil
	}
	dashboard := model.dashboard
	return func() tea.Msg {
		if err := dashboard.Commit(context.Background(), id); err != nil {
			return actionResultMsg{err: err}
		}
		return actionResultMsg{info: "Order updated"}
	}
}

func (model Model) refreshStats() tea.Cmd {
	dashboard := model.dashboard
	return func() tea.Msg {
		if _, err := dashboard.RefreshStats(context.Background()); err != nil {
			return actionResultMsg{err: err}
		}
		return actionResultMsg{info: "Stats refreshed"}
	}
}

func (model Model) export() tea.Cmd {
	exporter := model.exporter
	rows := model.dashboard.VisibleRows()
	return func() tea.Msg {
		if exporter == nil {
			return actionResultMsg{err: domain.ErrExportUnavailable}
		}
		res, err := exporter.Export(context.Background(), rows)
		if err != nil {
			if errors.Is(err, domain.ErrNothingToExport) {
				return actionResultMsg{info: "Nothing to export"}
			}
			return actionResultMsg{err: err}
		}
		return actionResultMsg{info: "Exported to " + res.URL}
	}
}

// refreshRows re-reads the visible rows and keeps the cursor on the
// same order when it is still visible.
func (model *Model) refreshRows() {
	model.rows = slices.Collect(model.dashboard.VisibleRows())

	if model.selectedID != "" {
		for i, r := range model.rows {
			if r.Order.ID == model.selectedID {
				model.cursor = i
				model.ensureCursorVisible()
				return
			}
		}
	}
	model.cursor = model.clampedIndex(model.cursor)
	model.syncSelection()
	model.ensureCursorVisible()
}

func (model *Model) moveCursor(delta int) {
	model.cursor = model.clampedIndex(model.cursor + delta)
	model.syncSelection()
	model.ensureCursorVisible()
}

func (model *Model) syncSelection() {
	if len(model.rows) == 0 {
		model.selectedID = ""
		return
	}
	model.selectedID = model.rows[model.cursor].Order.ID
}

func (model Model) clampedIndex(position int) int {
	if len(model.rows) == 0 || position < 0 {
		return 0
	}
	if position >= len(model.rows) {
		return len(model.rows) - 1
	}
	return position
}

func (model Model) selected() (domain.Row, bool) {
	if len(model.rows) == 0 {
		return domain.Row{}, false
	}
	return model.rows[model.cursor], true
}

func (model Model) anyRecent() bool {
	for _, r := range model.rows {
		if r.Recent {
			return true
		}
	}
	return false
}

func scheduleRecentTick() tea.Cmd {
	return tea.Tick(recentTickInterval, func(time.Time) tea.Msg {
		return recentTickMsg{}
	})
}

// nextFilter cycles all → each status → all.
func nextFilter(current string) string {
	if current == domain.StatusFilterAll || current == "" {
		return string(domain.OrderStatuses[0])
	}
	status := domain.OrderStatus(current)
	if status == domain.OrderStatuses[len(domain.OrderStatuses)-1] || !status.Valid() {
		return domain.StatusFilterAll
	}
	return string(status.Next())
}

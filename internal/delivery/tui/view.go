package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/shopspring/decimal"

	"orders-dashboard/internal/domain"
	"orders-dashboard/pkg/utils"
)

// chromeHeight is every line that is not a table row: header (1), two
// rows of stat cards (3 each), search bar (1), table header (1),
// separator (1) and help bar (1).
const chromeHeight = 1 + 3 + 3 + 1 + 1 + 1 + 1

type column struct {
	title string
	width int
}

var columns = []column{
	{"", 2},
	{"Customer", 16},
	{"Phone", 13},
	{"City", 11},
	{"Address", 22},
	{"Qty", 4},
	{"Total", 10},
	{"Tracking", 14},
	{"Status", 10},
	{"Progress", 8},
	{"Notes", 18},
}

func (model Model) View() string {
	if !model.ready {
		return "Loading..."
	}
	if model.dashboard.Loading() {
		return lipgloss.Place(model.width, model.height, lipgloss.Center, lipgloss.Center,
			lipgloss.NewStyle().Foreground(model.theme.FaintText).Render("Loading orders..."))
	}

	sections := []string{
		model.renderHeader(),
		model.renderStatCards(),
		model.renderSearchBar(),
		model.renderTableHeader(),
		model.renderRows(),
		lipgloss.NewStyle().Foreground(model.theme.BorderColor).Render(strings.Repeat("─", max(model.width, 1))),
		model.renderHelp(),
	}
	return strings.Join(sections, "\n")
}

func (model Model) renderHeader() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(model.theme.HeaderForeground).Render("Orders Dashboard")

	indicator := lipgloss.NewStyle().Foreground(model.theme.OfflineColor).Render("○ Disconnected")
	if model.dashboard.Connected() {
		indicator = lipgloss.NewStyle().Foreground(model.theme.LiveColor).Render("● Live")
	}

	gap := model.width - lipgloss.Width(title) - lipgloss.Width(indicator) - 2
	if gap < 1 {
		gap = 1
	}
	return " " + title + strings.Repeat(" ", gap) + indicator
}

func (model Model) renderStatCards() string {
	s := model.dashboard.Stats()

	first := []string{
		model.card("Total", strconv.Itoa(s.Total), model.theme.HeaderForeground),
		model.card("Pending", strconv.Itoa(s.Pending), model.theme.StatusColor(domain.OrderStatusPending)),
		model.card("Confirmed", strconv.Itoa(s.Confirmed), model.theme.StatusColor(domain.OrderStatusConfirmed)),
		model.card("Delivered", strconv.Itoa(s.Delivered), model.theme.StatusColor(domain.OrderStatusDelivered)),
		model.card("Live views", strconv.Itoa(s.LiveViews), model.theme.LiveColor),
	}
	second := []string{
		model.card("Total Sales", money(s.TotalSales), model.theme.StatusColor(domain.OrderStatusDelivered)),
		model.card("Returns", strconv.Itoa(s.Returns), model.theme.StatusColor(domain.OrderStatusReturned)),
		model.card("Losses", money(s.Losses), model.theme.StatusColor(domain.OrderStatusCanceled)),
		model.card("Profit", money(s.Profit), model.theme.StatusColor(domain.OrderStatusConfirmed)),
		model.card("Visitors", fmt.Sprintf("%d / %d", s.UniqueVisitors, s.TotalViews), model.theme.FaintText),
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, first...) + "\n" +
		lipgloss.JoinHorizontal(lipgloss.Top, second...)
}

func (model Model) card(label, value string, color lipgloss.Color) string {
	style := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, true, false, true).
		BorderForeground(model.theme.BorderColor).
		Padding(0, 1).
		Width(22).
		Height(3)
	labelStyle := lipgloss.NewStyle().Foreground(model.theme.FaintText)
	valueStyle := lipgloss.NewStyle().Bold(true).Foreground(color)
	return style.Render(labelStyle.Render(label) + "\n" + valueStyle.Render(value) + "\n")
}

func (model Model) renderSearchBar() string {
	faint := lipgloss.NewStyle().Foreground(model.theme.FaintText)

	var search string
	switch model.focus {
	case FocusSearch:
		search = "Search: " + model.input.View()
	default:
		term := model.dashboard.Search()
		if term == "" {
			term = faint.Render("(none, / to search)")
		}
		search = "Search: " + term
	}

	filter := "Status: " + model.dashboard.StatusFilter()
	line := " " + search + "   " + filter

	switch model.focus {
	case FocusTracking:
		line = " Tracking ID: " + model.input.View()
	case FocusNotes:
		line = " Notes: " + model.input.View()
	}
	return line
}

func (model Model) renderTableHeader() string {
	style := lipgloss.NewStyle().Bold(true).Foreground(model.theme.FaintText)
	cells := make([]string, len(columns))
	for i, col := range columns {
		cells[i] = cell(col.title, col.width)
	}
	return style.Render(strings.Join(cells, " "))
}

func (model Model) renderRows() string {
	visible := model.visibleHeight()
	if len(model.rows) == 0 {
		empty := lipgloss.NewStyle().Foreground(model.theme.FaintText).Render("No orders found")
		return lipgloss.Place(max(model.width, 1), visible, lipgloss.Center, lipgloss.Center, empty)
	}

	end := model.scrollOffset + visible
	if end > len(model.rows) {
		end = len(model.rows)
	}

	lines := make([]string, 0, visible)
	for i := model.scrollOffset; i < end; i++ {
		lines = append(lines, model.renderRow(model.rows[i], i == model.cursor))
	}
	for len(lines) < visible {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func (model Model) renderRow(row domain.Row, selected bool) string {
	o := row.Order

	marker := " "
	if row.Dirty {
		marker = "*"
	}
	if model.dashboard.Committing(o.ID) {
		marker = "…"
	}

	values := []string{
		marker,
		o.Name,
		o.Phone,
		o.City,
		o.Address,
		strconv.Itoa(o.Quantity),
		money(o.Total),
		o.TrackingID,
		string(o.Status),
		progressBar(o.Progress),
		o.Notes,
	}

	cells := make([]string, len(columns))
	for i, col := range columns {
		cells[i] = cell(values[i], col.width)
	}
	cells[0] = lipgloss.NewStyle().Foreground(model.theme.DirtyFg).Render(cells[0])
	cells[8] = lipgloss.NewStyle().Foreground(model.theme.StatusColor(o.Status)).Render(cells[8])

	style := lipgloss.NewStyle()
	if row.Recent {
		style = style.Foreground(model.theme.RecentFg).Bold(true)
	}
	if selected {
		style = style.Background(model.theme.SelectedBg).Reverse(true)
	}
	return style.Render(strings.Join(cells, " "))
}

func (model Model) renderHelp() string {
	style := lipgloss.NewStyle().Foreground(model.theme.HelpText)

	help := " q quit  ↑↓ move  / search  f filter  t track  s status  +/- progress  n notes  u update  x discard  c copy  R stats  e export"
	if model.focus != FocusTable {
		help = " enter save  esc cancel"
	}
	if len(model.rows) > 0 {
		help += fmt.Sprintf("  %d/%d", model.cursor+1, len(model.rows))
	}

	if model.clipboardNotice != "" {
		help += "  " + lipgloss.NewStyle().Foreground(model.theme.NoticeColor).Bold(true).
			Render("Copied: "+ansi.Truncate(model.clipboardNotice, 30, "…"))
	}
	if model.notice != "" {
		help += "  " + lipgloss.NewStyle().Foreground(model.theme.NoticeColor).Render(model.notice)
	}
	if model.errorNotice != "" {
		help += "  " + lipgloss.NewStyle().Foreground(model.theme.ErrorColor).Bold(true).
			Render("Error: "+model.errorNotice)
	}
	return style.Render(help)
}

func (model Model) visibleHeight() int {
	h := model.height - chromeHeight
	if h < 1 {
		return 1
	}
	return h
}

// ensureCursorVisible adjusts scrollOffset so the cursor row is drawn.
func (model *Model) ensureCursorVisible() {
	visible := model.visibleHeight()

	maxOffset := len(model.rows) - visible
	if maxOffset < 0 {
		maxOffset = 0
	}
	if model.scrollOffset > maxOffset {
		model.scrollOffset = maxOffset
	}
	if model.cursor < model.scrollOffset {
		model.scrollOffset = model.cursor
	}
	if model.cursor >= model.scrollOffset+visible {
		model.scrollOffset = model.cursor - visible + 1
	}
}

// cell truncates s to width display columns and pads it.
func cell(s string, width int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = ansi.Truncate(s, width, "…")
	if pad := width - ansi.StringWidth(s); pad > 0 {
		s += strings.Repeat(" ", pad)
	}
	return s
}

func money(d decimal.Decimal) string {
	return "Rs. " + d.StringFixed(0)
}

func progressBar(p int) string {
	filled := utils.Clamp(p, 0, 100) / 25
	return strings.Repeat("▰", filled) + strings.Repeat("▱", 4-filled) + fmt.Sprintf("%3d", p)
}

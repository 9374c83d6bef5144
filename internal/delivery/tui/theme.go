package tui

import (
	"github.com/charmbracelet/lipgloss"

	"orders-dashboard/internal/domain"
)

// Theme is the colour palette used by the dashboard.
type Theme struct {
	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	FaintText        lipgloss.Color
	HelpText         lipgloss.Color
	SelectedBg       lipgloss.Color
	RecentFg         lipgloss.Color
	DirtyFg          lipgloss.Color
	LiveColor        lipgloss.Color
	OfflineColor     lipgloss.Color
	NoticeColor      lipgloss.Color
	ErrorColor       lipgloss.Color

	statusColors map[domain.OrderStatus]lipgloss.Color
}

var DefaultTheme = Theme{
	HeaderForeground: lipgloss.Color("255"),
	BorderColor:      lipgloss.Color("240"),
	FaintText:        lipgloss.Color("245"),
	HelpText:         lipgloss.Color("244"),
	SelectedBg:       lipgloss.Color("236"),
	RecentFg:         lipgloss.Color("214"),
	DirtyFg:          lipgloss.Color("39"),
	LiveColor:        lipgloss.Color("42"),
	OfflineColor:     lipgloss.Color("196"),
	NoticeColor:      lipgloss.Color("42"),
	ErrorColor:       lipgloss.Color("203"),

	statusColors: map[domain.OrderStatus]lipgloss.Color{
		domain.OrderStatusPending:   lipgloss.Color("220"), // yellow
		domain.OrderStatusConfirmed: lipgloss.Color("33"),  // blue
		domain.OrderStatusShipped:   lipgloss.Color("135"), // purple
		domain.OrderStatusDelivered: lipgloss.Color("42"),  // green
		domain.OrderStatusCanceled:  lipgloss.Color("196"), // red
		domain.OrderStatusReturned:  lipgloss.Color("246"), // gray
	},
}

// StatusColor returns the colour for an order status; unknown statuses
// get the faint text colour.
func (theme Theme) StatusColor(status domain.OrderStatus) lipgloss.Color {
	if c, ok := theme.statusColors[status]; ok {
		return c
	}
	return theme.FaintText
}

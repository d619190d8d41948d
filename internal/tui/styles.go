package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/dm/stockwatch/internal/model"
)

// Color constants for the dashboard palette.
var (
	colorGreen  = lipgloss.Color("#10b981")
	colorYellow = lipgloss.Color("#f59e0b")
	colorRed    = lipgloss.Color("#ef4444")
	colorGray   = lipgloss.Color("#6b7280")
	colorBlue   = lipgloss.Color("#3b82f6")
	colorCyan   = lipgloss.Color("#06b6d4")
	colorWhite  = lipgloss.Color("#f8fafc")
	colorDark   = lipgloss.Color("#1e293b")
	colorAlt    = lipgloss.Color("#0f172a")
)

// Status styles color the connection indicator.
var (
	StyleStatusGreen   = lipgloss.NewStyle().Bold(true).Foreground(colorGreen)
	StyleStatusYellow  = lipgloss.NewStyle().Bold(true).Foreground(colorYellow)
	StyleStatusRed     = lipgloss.NewStyle().Bold(true).Foreground(colorRed)
	StyleStatusUnknown = lipgloss.NewStyle().Foreground(colorGray)
)

// StyleHeader is the full-width dark header bar.
var StyleHeader = lipgloss.NewStyle().
	Background(colorDark).
	Foreground(colorWhite).
	Padding(0, 1)

// StyleSummaryCard frames each card of the overview row.
var StyleSummaryCard = lipgloss.NewStyle().
	Background(colorAlt).
	Foreground(colorWhite).
	Padding(0, 1).
	Margin(0).
	Align(lipgloss.Center)

// Utility styles.
var (
	StyleError = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	StyleDim   = lipgloss.NewStyle().Foreground(colorGray)
)

// Named color styles for cell coloring.
var (
	StyleYellow = lipgloss.NewStyle().Foreground(colorYellow)
	StyleBlue   = lipgloss.NewStyle().Foreground(colorBlue)
	StyleCyan   = lipgloss.NewStyle().Foreground(colorCyan)
	StyleRed    = lipgloss.NewStyle().Foreground(colorRed)
)

// StatusStyle returns the indicator style for a connection state.
func StatusStyle(s model.ConnectionState) lipgloss.Style {
	switch s {
	case model.Connected:
		return StyleStatusGreen
	case model.Connecting:
		return StyleStatusYellow
	case model.Disconnected:
		return StyleStatusRed
	default:
		return StyleStatusUnknown
	}
}

// AlertStyle returns the foreground style for an alert level.
func AlertStyle(l model.AlertLevel) lipgloss.Style {
	switch l {
	case model.AlertCritical:
		return StyleRed.Bold(true)
	case model.AlertWarning:
		return StyleYellow
	default:
		return StyleBlue
	}
}

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dm/stockwatch/internal/engine"
	"github.com/dm/stockwatch/internal/model"
)

// maxAlertLines caps the alert panel; the rest is summarized as "+N more".
const maxAlertLines = 5

// renderAlerts renders the latest snapshot's alerts, most severe first.
// Returns empty string when there is nothing to show.
func renderAlerts(app *App) string {
	alerts := engine.OrderedAlerts(app.latest)
	if len(alerts) == 0 {
		return ""
	}
	width := app.width
	if width <= 0 {
		width = 80
	}

	lines := []string{StyleDim.Render("Alerts  " + alertCountsLabel(engine.CountAlerts(app.latest)))}
	for i, a := range alerts {
		if i == maxAlertLines {
			lines = append(lines, StyleDim.Render(fmt.Sprintf("  +%d more", len(alerts)-maxAlertLines)))
			break
		}
		lines = append(lines, alertLine(a, width))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// alertLine renders "  ▲ WARNING  message", truncated to width.
func alertLine(a model.Alert, width int) string {
	badge := AlertStyle(a.Level).Render(alertIcon(a.Level) + " " + strings.ToUpper(string(a.Level)))
	msg := sanitize(a.Message)
	avail := width - lipgloss.Width(badge) - 4
	if avail < 1 {
		avail = 1
	}
	return "  " + badge + "  " + truncateName(msg, avail)
}

func alertIcon(l model.AlertLevel) string {
	switch l {
	case model.AlertCritical:
		return "✖"
	case model.AlertWarning:
		return "▲"
	default:
		return "●"
	}
}

// alertCountsLabel renders non-zero level counts, e.g. "1 critical, 2 warning".
func alertCountsLabel(c model.AlertCounts) string {
	var parts []string
	if c.Critical > 0 {
		parts = append(parts, fmt.Sprintf("%d critical", c.Critical))
	}
	if c.Warning > 0 {
		parts = append(parts, fmt.Sprintf("%d warning", c.Warning))
	}
	if c.Info > 0 {
		parts = append(parts, fmt.Sprintf("%d info", c.Info))
	}
	return strings.Join(parts, ", ")
}

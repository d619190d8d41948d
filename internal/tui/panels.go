package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/dm/stockwatch/internal/format"
)

// renderPanelCard renders a bordered card with a title, a value, and one
// detail line (a sparkline or a status hint).
//
// Layout (3 rows inside a rounded border):
//
//	╭──────────────────╮
//	│ Title            │   ← titleStyle
//	│ 92.5%            │   ← bold, color
//	│ ▁▂▃▅▇█▇▅▃▂       │   ← detail
//	╰──────────────────╯
func renderPanelCard(title, value, detail string, cardWidth int, color lipgloss.Color, titleStyle lipgloss.Style) string {
	const minCardWidth = 8
	if cardWidth < minCardWidth {
		cardWidth = minCardWidth
	}

	// Border (2) plus padding (2) come out of cardWidth; lipgloss Width()
	// includes padding, so the style width is cardWidth-4.
	innerWidth := cardWidth - 6
	if innerWidth < 1 {
		innerWidth = 1
	}

	valueStyle := lipgloss.NewStyle().Bold(true).Foreground(color)

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorGray).
		Padding(0, 1).
		Width(cardWidth - 4)

	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.MaxWidth(innerWidth).Render(title),
		valueStyle.MaxWidth(innerWidth).Render(value),
		lipgloss.NewStyle().MaxWidth(innerWidth).Render(detail),
	))
}

// renderTrendRow renders the placement sparkline, the trend card, and the
// media card when media is enabled.
// Wide terminals (>= 80 cols): one horizontal row.
// Narrow terminals (< 80 cols): cards stacked vertically.
// Returns empty string before any history exists and with media off.
func renderTrendRow(app *App) string {
	if len(app.history) == 0 && !app.mediaEnabled {
		return ""
	}

	width := app.width
	if width <= 0 {
		width = 80
	}
	n := 2
	if app.mediaEnabled {
		n = 3
	}

	// Each card renders at cardWidth-2 columns; n cards fill width when
	// cardWidth = (width + 2n) / n.
	cardWidth := (width + 2*n) / n
	narrow := width < 80
	if narrow {
		cardWidth = width + 2
	}
	if cardWidth < 20 {
		cardWidth = 20
	}
	innerWidth := cardWidth - 6

	series := placedSeries(app.history)
	placed := "---"
	if app.latest != nil {
		placed = format.FormatNumber(int64(app.latest.Summary.CorrectlyPlaced))
	}
	cards := []string{
		renderPanelCard(fmt.Sprintf("Correctly Placed (%d)", len(series)), placed,
			RenderSparkline(series, innerWidth, colorGreen), cardWidth, colorGreen, StyleDim),
		renderTrendCard(app, cardWidth),
	}
	if app.mediaEnabled {
		cards = append(cards, renderMediaCard(app, cardWidth))
	}

	if narrow {
		return lipgloss.JoinVertical(lipgloss.Left, cards...)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

// renderTrendCard shows average accuracy with the latest change and the
// clean streak.
func renderTrendCard(app *App, cardWidth int) string {
	tr := app.trend
	if tr.Samples == 0 {
		return renderPanelCard("Accuracy Trend", "---", StyleDim.Render("no history"), cardWidth, colorCyan, StyleDim)
	}
	value := "avg " + format.FormatPercent(tr.AvgAccuracy) + "  " + format.FormatDelta(tr.AccuracyDelta)
	detail := fmt.Sprintf("clean streak %d · avg issues %.1f", tr.CleanStreak, tr.AvgIssues)
	titleStyle := severityToStyle(accuracySeverity(tr.AvgAccuracy))
	if accuracySeverity(tr.AvgAccuracy) == severityNormal {
		titleStyle = StyleDim
	}
	return renderPanelCard("Accuracy Trend", value, StyleDim.Render(detail), cardWidth, colorCyan, titleStyle)
}

package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dm/stockwatch/internal/engine"
	"github.com/dm/stockwatch/internal/format"
)

// renderOverview renders the summary card row for the latest snapshot.
// Wide terminals (>= 80 cols): all 6 cards in a single horizontal row.
// Narrow terminals (< 80 cols): cards stacked in rows of 2.
// A detailed-counts line follows the cards when the snapshot carries one.
func renderOverview(app *App) string {
	if app.latest == nil {
		return StyleDim.Render("No detection results yet")
	}

	width := app.width
	if width <= 0 {
		width = 80
	}

	narrowMode := width < 80

	var cardWidth int
	if narrowMode {
		cardWidth = (width - 4) / 2
		if cardWidth < 10 {
			cardWidth = 10
		}
	} else {
		cardWidth = (width - 12) / 6
		if cardWidth < 8 {
			cardWidth = 8
		}
	}

	// Mini bar inner width: card width minus padding (1 char each side).
	barWidth := cardWidth - 4
	if barWidth < 4 {
		barWidth = 4
	}

	sm := app.latest.Summary

	// Card 1: accuracy with mini bar, threshold-colored.
	acc := engine.Accuracy(app.latest)
	accSev := accuracySeverity(acc)
	accVal := format.FormatPercent(acc)
	if accSev == severityCritical {
		accVal += "!"
	}
	card1 := StyleSummaryCard.
		Foreground(severityFg(accSev)).
		Bold(true).
		Width(cardWidth).
		Render(accVal + "\n" + renderMiniBar(acc, barWidth) + "\nAccuracy")

	// Card 2: detected, with the expected total when the service sends it.
	detected := format.FormatNumber(int64(sm.TotalDetected))
	if sm.TotalExpected > 0 {
		detected += "/" + format.FormatNumber(int64(sm.TotalExpected))
	}
	card2 := StyleSummaryCard.
		Foreground(colorBlue).
		Width(cardWidth).
		Render(detected + "\nDetected")

	card3 := StyleSummaryCard.
		Foreground(colorGreen).
		Width(cardWidth).
		Render(format.FormatNumber(int64(sm.CorrectlyPlaced)) + "\nCorrect")

	card4 := countCard(sm.Misplaced, "Misplaced", cardWidth)
	card5 := countCard(sm.MissingItems, "Missing", cardWidth)
	card6 := countCard(sm.ExtraItems, "Extra", cardWidth)

	var cards string
	if narrowMode {
		row1 := lipgloss.JoinHorizontal(lipgloss.Top, card1, card2)
		row2 := lipgloss.JoinHorizontal(lipgloss.Top, card3, card4)
		row3 := lipgloss.JoinHorizontal(lipgloss.Top, card5, card6)
		cards = lipgloss.JoinVertical(lipgloss.Left, row1, row2, row3)
	} else {
		cards = lipgloss.JoinHorizontal(lipgloss.Top, card1, card2, card3, card4, card5, card6)
	}

	if dc := renderDetailedCounts(app.latest.DetailedCounts, width); dc != "" {
		return lipgloss.JoinVertical(lipgloss.Left, cards, dc)
	}
	return cards
}

// countCard renders a problem count card colored by countSeverity.
func countCard(n int, label string, width int) string {
	return StyleSummaryCard.
		Foreground(severityFg(countSeverity(n))).
		Width(width).
		Render(format.FormatNumber(int64(n)) + "\n" + label)
}

// renderDetailedCounts renders per-label counts sorted by label,
// e.g. "bottle 3  cup 6  tea bottle 4".
func renderDetailedCounts(counts map[string]int, width int) string {
	if len(counts) == 0 {
		return ""
	}
	labels := make([]string, 0, len(counts))
	for l := range counts {
		labels = append(labels, l)
	}
	slices.Sort(labels)

	parts := make([]string, 0, len(labels))
	for _, l := range labels {
		parts = append(parts, fmt.Sprintf("%s %s", sanitize(l), StyleCyan.Render(format.FormatNumber(int64(counts[l])))))
	}
	return StyleDim.Render("Items: ") + lipgloss.NewStyle().MaxWidth(width).Render(strings.Join(parts, "  "))
}

// renderMiniBar renders a mini progress bar using Unicode block characters.
// Fills proportionally using "█" (U+2588) for filled and "░" (U+2591) for empty cells.
func renderMiniBar(percent float64, width int) string {
	if width <= 0 {
		return ""
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := int(percent / 100.0 * float64(width))
	if filled > width {
		filled = width
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

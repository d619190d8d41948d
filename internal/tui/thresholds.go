package tui

import "github.com/charmbracelet/lipgloss"

// severity represents the alert level for a displayed value.
type severity int

const (
	severityNormal   severity = iota
	severityWarning           // yellow
	severityCritical          // red
)

// accuracySeverity returns Warning when placement accuracy < 90%, Critical when < 70%.
func accuracySeverity(pct float64) severity {
	switch {
	case pct < 70:
		return severityCritical
	case pct < 90:
		return severityWarning
	default:
		return severityNormal
	}
}

// countSeverity grades a problem count (misplaced, missing, extra):
// Warning from 1, Critical from 3.
func countSeverity(n int) severity {
	switch {
	case n >= 3:
		return severityCritical
	case n >= 1:
		return severityWarning
	default:
		return severityNormal
	}
}

// severityFg returns the card foreground color for a severity.
func severityFg(s severity) lipgloss.Color {
	switch s {
	case severityWarning:
		return colorYellow
	case severityCritical:
		return colorRed
	default:
		return colorGreen
	}
}

// severityToStyle maps a severity level to the appropriate lipgloss style.
func severityToStyle(s severity) lipgloss.Style {
	switch s {
	case severityWarning:
		return StyleYellow
	case severityCritical:
		return StyleRed
	default:
		return lipgloss.NewStyle()
	}
}

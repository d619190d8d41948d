package tui

import (
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dm/stockwatch/internal/model"
)

// sparkBlocks is the 8-level block character set for sparklines.
var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// RenderSparkline converts a slice of float64 values into a block sparkline
// string of exactly `width` characters, colored with color.
//
// Rules:
//   - Empty values → return width spaces
//   - All zeros → return all '▁' (floor level)
//   - Values longer than width → use last width values
//   - Fewer values than width → left-pad with spaces
//   - Negative values are drawn at floor level
func RenderSparkline(values []float64, width int, color lipgloss.Color) string {
	if width <= 0 {
		return ""
	}
	if len(values) == 0 {
		return strings.Repeat(" ", width)
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}

	maxVal := slices.Max(values)

	var sb strings.Builder
	sb.WriteString(strings.Repeat(" ", width-len(values)))
	for _, v := range values {
		sb.WriteRune(sparkBlocks[sparkLevel(v, maxVal)])
	}
	return lipgloss.NewStyle().Foreground(color).Render(sb.String())
}

// sparkLevel maps v onto [0, 7] relative to maxVal.
func sparkLevel(v, maxVal float64) int {
	if maxVal <= 0 || v <= 0 {
		return 0
	}
	idx := int(v / maxVal * 7)
	return min(max(idx, 0), 7)
}

// placedSeries extracts correctly_placed counts from history, oldest first.
func placedSeries(history []*model.Snapshot) []float64 {
	out := make([]float64, 0, len(history))
	for _, s := range history {
		if s == nil {
			continue
		}
		out = append(out, float64(s.Summary.CorrectlyPlaced))
	}
	return out
}

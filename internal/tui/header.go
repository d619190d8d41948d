package tui

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"

	"github.com/dm/stockwatch/internal/format"
	"github.com/dm/stockwatch/internal/model"
)

// renderHeader renders the top header bar with source, link status, and freshness.
//
// Layout:
//
//	left:   "Stock Watch  <source>"
//	center: colored "● CONNECTED" / "● CONNECTING" / "● DISCONNECTED"
//	right:  "Last update: HH:MM:SS (12s ago)", the raw timestamp when it does
//	        not parse, or "No data yet"
func renderHeader(app *App) string {
	width := app.width
	if width <= 0 {
		width = 80
	}

	left := "Stock Watch"
	if app.source != "" {
		left += "  " + sanitize(app.source)
	}

	center := StatusStyle(app.status).Render("● " + statusLabel(app.status))

	right := "No data yet"
	switch {
	case app.hasUpdate:
		age := app.now().Sub(app.lastUpdate)
		right = "Last update: " + app.lastUpdate.Format("15:04:05") + " (" + format.FormatAge(age) + ")"
	case app.latest != nil:
		// Timestamp in a layout we cannot parse: show it as sent.
		right = "Last update: " + truncateName(sanitize(app.latest.Timestamp), 24)
	}

	// Build row: left + padding + center + padding + right, filling innerWidth.
	// StyleHeader has Padding(0, 1) so inner content width = total width - 2.
	// The left block is truncated first; the right block is dropped when
	// fewer than minLeft columns would remain for the left.
	const minLeft = 8
	innerWidth := width - 2
	centerVW := lipgloss.Width(center)
	rightVW := lipgloss.Width(right)
	avail := innerWidth - centerVW - rightVW - 2
	if avail < minLeft {
		right, rightVW = "", 0
		avail = innerWidth - centerVW - 1
	}
	if avail < minLeft {
		left = ""
	} else {
		left = truncateName(left, avail)
	}
	right = StyleDim.Render(right)
	leftVW := lipgloss.Width(left)

	spacing := innerWidth - leftVW - centerVW - rightVW
	if spacing < 0 {
		spacing = 0
	}
	leftSpacing := spacing / 2
	rightSpacing := spacing - leftSpacing

	row := left +
		strings.Repeat(" ", leftSpacing) +
		center +
		strings.Repeat(" ", rightSpacing) +
		right

	return StyleHeader.Width(width).MaxWidth(width).Render(row)
}

// statusLabel is the upper-case indicator text for a connection state.
func statusLabel(s model.ConnectionState) string {
	return strings.ToUpper(s.String())
}

// sanitize strips terminal escape sequences and control characters from
// text that originates outside the process (alert messages, labels, URLs).
func sanitize(s string) string {
	var out strings.Builder
	rs := []rune(s)
	for i := 0; i < len(rs); i++ {
		r := rs[i]
		if r == '\x1b' {
			i = skipEscape(rs, i)
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		out.WriteRune(r)
	}
	return out.String()
}

// skipEscape returns the index of the last rune of the escape sequence that
// starts at rs[i].
func skipEscape(rs []rune, i int) int {
	if i+1 >= len(rs) {
		return i
	}
	switch rs[i+1] {
	case '[': // CSI: parameters then a final byte in 0x40-0x7E
		for j := i + 2; j < len(rs); j++ {
			if rs[j] >= 0x40 && rs[j] <= 0x7E {
				return j
			}
		}
		return len(rs) - 1
	case ']': // OSC: terminated by BEL or ESC \
		for j := i + 2; j < len(rs); j++ {
			if rs[j] == '\x07' {
				return j
			}
			if rs[j] == '\x1b' && j+1 < len(rs) && rs[j+1] == '\\' {
				return j + 1
			}
		}
		return len(rs) - 1
	default:
		return i + 1
	}
}

package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"

	"github.com/dm/stockwatch/internal/engine"
	"github.com/dm/stockwatch/internal/format"
	"github.com/dm/stockwatch/internal/model"
)

// historyTable is a paginated, filterable table of past snapshots, newest
// first.
type historyTable struct {
	tableModel
	allRows     []*model.Snapshot // newest first
	displayRows []*model.Snapshot // after the filter is applied
}

// newHistoryTable returns a historyTable with the 8-column layout.
func newHistoryTable() historyTable {
	cols := []columnDef{
		{Title: "Time", Width: 20},
		{Title: "Detected", Width: 9},
		{Title: "Correct", Width: 8},
		{Title: "Misplaced", Width: 9},
		{Title: "Missing", Width: 8},
		{Title: "Extra", Width: 6},
		{Title: "Accuracy", Width: 9},
		{Title: "Alerts", Width: 7},
	}
	return historyTable{tableModel: newTableModel(cols)}
}

// SetData takes history newest first and re-applies the filter. Nil
// entries are skipped.
func (m *historyTable) SetData(recent []*model.Snapshot) {
	rows := make([]*model.Snapshot, 0, len(recent))
	for _, s := range recent {
		if s != nil {
			rows = append(rows, s)
		}
	}
	m.allRows = rows
	m.apply()
}

// Update handles keyboard events and re-applies the filter when it changes.
func (m historyTable) Update(msg tea.Msg) (historyTable, tea.Cmd) {
	prevSearch := m.search

	base, cmd := m.tableModel.Update(msg)
	m.tableModel = base

	if m.search != prevSearch {
		m.apply()
	}
	return m, cmd
}

func (m *historyTable) apply() {
	m.displayRows = filterHistory(m.allRows, m.search)
	m.clampPage(len(m.displayRows))
}

// render renders the "History" section: a header bar followed by the
// lipgloss table body for the current page.
func (m *historyTable) render(width int) string {
	pc := pageCount(len(m.displayRows), m.pageSize)
	hdr := m.renderHeader(fmt.Sprintf("History (%d)", len(m.allRows)), m.page+1, pc)

	start, end := pageBounds(len(m.displayRows), m.page, m.pageSize)
	if start == end {
		empty := "  (no history)"
		if m.search != "" {
			empty = "  (no matches)"
		}
		return lipgloss.JoinVertical(lipgloss.Left, hdr, StyleDim.Render(empty))
	}

	headers := make([]string, len(m.columns))
	for i, c := range m.columns {
		headers[i] = c.Title
	}

	page := m.displayRows[start:end]
	t := ltable.New().
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == ltable.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Foreground(colorGray)
			}
			base := lipgloss.NewStyle()
			if row%2 == 0 {
				base = base.Background(colorAlt)
			}
			if row < 0 || row >= len(page) {
				return base.Foreground(colorWhite)
			}
			s := page[row]
			switch col {
			case 2:
				return base.Foreground(colorGreen)
			case 3:
				return base.Foreground(severityFg(countSeverity(s.Summary.Misplaced)))
			case 4:
				return base.Foreground(severityFg(countSeverity(s.Summary.MissingItems)))
			case 5:
				return base.Foreground(severityFg(countSeverity(s.Summary.ExtraItems)))
			case 6:
				return base.Foreground(severityFg(accuracySeverity(engine.Accuracy(s))))
			default:
				return base.Foreground(colorWhite)
			}
		}).
		BorderStyle(lipgloss.NewStyle().Foreground(colorGray)).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(true).
		BorderColumn(false)

	if width > 0 {
		t = t.Width(width)
	}

	for _, s := range page {
		cells := make([]string, len(m.columns))
		for col := range m.columns {
			cells[col] = historyCellValue(s, col)
		}
		t = t.Row(cells...)
	}

	return lipgloss.JoinVertical(lipgloss.Left, hdr, t.String())
}

// renderHeader renders the title bar with search and page hints.
// While searching the live textinput view is shown instead of hints.
func (m *historyTable) renderHeader(title string, page, pageCount int) string {
	pageInfo := fmt.Sprintf("Page %d/%d", page, pageCount)

	var right string
	switch {
	case m.searching:
		right = "Filter: " + m.input.View()
	case m.search != "":
		right = fmt.Sprintf("filter=%q  %s", m.search, pageInfo)
	default:
		right = fmt.Sprintf("[/: filter]  [←→: page]  %s", pageInfo)
	}

	return StyleDim.Render(title + "  " + right)
}

// historyCellValue formats a snapshot field for a given column index.
func historyCellValue(s *model.Snapshot, col int) string {
	sm := s.Summary
	switch col {
	case 0:
		return truncateName(sanitize(s.Timestamp), 20)
	case 1:
		return format.FormatNumber(int64(sm.TotalDetected))
	case 2:
		return format.FormatNumber(int64(sm.CorrectlyPlaced))
	case 3:
		return format.FormatNumber(int64(sm.Misplaced))
	case 4:
		return format.FormatNumber(int64(sm.MissingItems))
	case 5:
		return format.FormatNumber(int64(sm.ExtraItems))
	case 6:
		return format.FormatPercent(engine.Accuracy(s))
	case 7:
		if len(s.Alerts) == 0 {
			return "-"
		}
		return fmt.Sprintf("%d", len(s.Alerts))
	default:
		return ""
	}
}

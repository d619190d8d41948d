// Package demo provides an offline data source: a recorded stock-check log
// parsed into snapshots and replayed over an in-process push channel.
package demo

import (
	"bufio"
	"context"
	_ "embed"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/dm/stockwatch/internal/client"
	"github.com/dm/stockwatch/internal/model"
)

//go:embed stock_check.log
var stockCheckLog string

var reLogLine = regexp.MustCompile(
	`(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}) - Expected: (\d+), Detected: (\d+), Correct: (\d+), Misplaced: (\d+), Missing: (\d+), Extra: (\d+)`)

// ParseLog reads stock-check log lines. Lines that do not match the expected
// layout are skipped.
func ParseLog(r io.Reader) ([]*model.Snapshot, error) {
	var out []*model.Snapshot
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if s := parseLine(sc.Text()); s != nil {
			out = append(out, s)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	return out, nil
}

func parseLine(line string) *model.Snapshot {
	m := reLogLine.FindStringSubmatch(line)
	if m == nil {
		return nil
	}
	n := make([]int, 6)
	for i := range n {
		// The pattern only admits digits; only overflow can fail.
		v, err := strconv.Atoi(m[i+2])
		if err != nil {
			return nil
		}
		n[i] = v
	}
	s := &model.Snapshot{
		Timestamp: m[1],
		Summary: model.Summary{
			TotalExpected:   n[0],
			TotalDetected:   n[1],
			CorrectlyPlaced: n[2],
			Misplaced:       n[3],
			MissingItems:    n[4],
			ExtraItems:      n[5],
		},
	}
	s.DetailedCounts = detailedCounts(s.Summary.TotalDetected)
	s.Alerts = alertsFor(s.Summary)
	return s
}

// detailedCounts spreads a detected total over the three stocked labels the
// way the recorded dashboard did. Each label shows at least one item.
func detailedCounts(total int) map[string]int {
	atLeastOne := func(v int) int {
		if v == 0 {
			return 1
		}
		return v
	}
	return map[string]int{
		"bottle":     atLeastOne(total / 4),
		"tea bottle": atLeastOne(total / 3),
		"cup":        atLeastOne(total / 2),
	}
}

// alertsFor mirrors the edge service's alert kinds from summary counts.
func alertsFor(sm model.Summary) []model.Alert {
	var alerts []model.Alert
	if sm.Misplaced > 0 {
		alerts = append(alerts, model.Alert{
			Level:   model.AlertWarning,
			Message: fmt.Sprintf("MISPLACED: %d item(s) out of position", sm.Misplaced),
			Kind:    "misplacement",
		})
	}
	if sm.MissingItems > 0 {
		alerts = append(alerts, model.Alert{
			Level:   model.AlertWarning,
			Message: fmt.Sprintf("MISSING: %d item(s) not found", sm.MissingItems),
			Kind:    "stockout",
		})
	}
	if sm.ExtraItems > 0 {
		alerts = append(alerts, model.Alert{
			Level:   model.AlertInfo,
			Message: fmt.Sprintf("EXTRA: %d unexpected item(s) detected", sm.ExtraItems),
			Kind:    "overstock",
		})
	}
	return alerts
}

// LogSource serves a parsed log through the same interfaces as the HTTP
// client. It is always healthy.
type LogSource struct {
	entries []*model.Snapshot
}

// NewLogSource parses the embedded stock-check log.
func NewLogSource() *LogSource {
	entries, _ := ParseLog(strings.NewReader(stockCheckLog))
	return &LogSource{entries: entries}
}

// NewLogSourceFrom parses a log from r.
func NewLogSourceFrom(r io.Reader) (*LogSource, error) {
	entries, err := ParseLog(r)
	if err != nil {
		return nil, err
	}
	return &LogSource{entries: entries}, nil
}

var (
	_ client.Source        = (*LogSource)(nil)
	_ client.HealthChecker = (*LogSource)(nil)
)

// Len returns the number of parsed entries.
func (s *LogSource) Len() int {
	return len(s.entries)
}

// LatestResults returns the last log entry, or client.ErrNoResults for an
// empty log.
func (s *LogSource) LatestResults(ctx context.Context) (*model.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(s.entries) == 0 {
		return nil, client.ErrNoResults
	}
	return s.entries[len(s.entries)-1], nil
}

// History returns every entry in log order.
func (s *LogSource) History(ctx context.Context) ([]*model.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]*model.Snapshot, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

func (s *LogSource) Health(ctx context.Context) error {
	return ctx.Err()
}

package model

import (
	"fmt"
	"time"
)

// AlertLevel is the severity of a detection alert.
type AlertLevel string

const (
	AlertInfo     AlertLevel = "info"
	AlertWarning  AlertLevel = "warning"
	AlertCritical AlertLevel = "critical"
)

// Valid reports whether l is one of the known levels.
func (l AlertLevel) Valid() bool {
	switch l {
	case AlertInfo, AlertWarning, AlertCritical:
		return true
	}
	return false
}

// Alert is a single message attached to a detection cycle.
// Kind is "misplacement", "stockout" or "overstock" when the edge service sets it.
type Alert struct {
	Level   AlertLevel `json:"level"`
	Message string     `json:"message"`
	Kind    string     `json:"type,omitempty"`
}

// Summary holds the aggregate counts of one detection cycle.
type Summary struct {
	TotalExpected   int `json:"total_expected,omitempty"`
	TotalDetected   int `json:"total_detected"`
	CorrectlyPlaced int `json:"correctly_placed"`
	Misplaced       int `json:"misplaced"`
	MissingItems    int `json:"missing_items"`
	ExtraItems      int `json:"extra_items"`
}

// Issues returns the number of missing plus extra items.
func (s Summary) Issues() int {
	return s.MissingItems + s.ExtraItems
}

// Snapshot is one detection cycle's result record. A Snapshot is never
// mutated after it has been handed to a Store; readers share the pointer.
type Snapshot struct {
	Timestamp      string         `json:"timestamp"`
	Summary        Summary        `json:"summary"`
	DetailedCounts map[string]int `json:"detailed_counts,omitempty"`
	Alerts         []Alert        `json:"alerts,omitempty"`
}

// Validate checks the shape rules applied at the wire boundary.
func (s *Snapshot) Validate() error {
	if s == nil {
		return fmt.Errorf("snapshot is nil")
	}
	if s.Timestamp == "" {
		return fmt.Errorf("snapshot timestamp is empty")
	}
	sm := s.Summary
	for name, v := range map[string]int{
		"total_detected":   sm.TotalDetected,
		"correctly_placed": sm.CorrectlyPlaced,
		"misplaced":        sm.Misplaced,
		"missing_items":    sm.MissingItems,
		"extra_items":      sm.ExtraItems,
	} {
		if v < 0 {
			return fmt.Errorf("summary.%s is negative (%d)", name, v)
		}
	}
	for label, n := range s.DetailedCounts {
		if n < 0 {
			return fmt.Errorf("detailed_counts[%q] is negative (%d)", label, n)
		}
	}
	for i, a := range s.Alerts {
		if !a.Level.Valid() {
			return fmt.Errorf("alerts[%d]: unknown level %q", i, a.Level)
		}
	}
	return nil
}

// timestampLayouts are the formats produced by the edge service
// (isoformat, with or without fraction) and by the stock-check log.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Time parses Timestamp. The second result is false when no known layout matches.
func (s *Snapshot) Time() (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s.Timestamp, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

package engine

import (
	"sort"

	"github.com/dm/stockwatch/internal/model"
)

// levelRank orders alert levels for display, most severe first.
var levelRank = map[model.AlertLevel]int{
	model.AlertCritical: 0,
	model.AlertWarning:  1,
	model.AlertInfo:     2,
}

// OrderedAlerts returns the alerts of s grouped critical, then warning,
// then info, keeping arrival order within a level. Returns an empty
// (non-nil) slice when s is nil or has no alerts.
func OrderedAlerts(s *model.Snapshot) []model.Alert {
	result := []model.Alert{}
	if s == nil {
		return result
	}
	result = append(result, s.Alerts...)
	sort.SliceStable(result, func(i, j int) bool {
		return levelRank[result[i].Level] < levelRank[result[j].Level]
	})
	return result
}

// CountAlerts tallies the alerts of s by level.
func CountAlerts(s *model.Snapshot) model.AlertCounts {
	var c model.AlertCounts
	if s == nil {
		return c
	}
	for _, a := range s.Alerts {
		switch a.Level {
		case model.AlertCritical:
			c.Critical++
		case model.AlertWarning:
			c.Warning++
		case model.AlertInfo:
			c.Info++
		}
	}
	return c
}

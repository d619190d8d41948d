package tui

import (
	"strings"

	"github.com/dm/stockwatch/internal/model"
)

// filterHistory returns the snapshots whose timestamp contains search,
// case-insensitively. An empty or blank search returns rows unchanged.
func filterHistory(rows []*model.Snapshot, search string) []*model.Snapshot {
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return rows
	}
	var out []*model.Snapshot
	for _, s := range rows {
		if strings.Contains(strings.ToLower(s.Timestamp), search) {
			out = append(out, s)
		}
	}
	return out
}

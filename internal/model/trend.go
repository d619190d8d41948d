package model

// Trend summarizes placement quality over the history window.
type Trend struct {
	// Accuracy is correctly_placed / total_detected of the latest snapshot, in percent.
	Accuracy float64
	// AccuracyDelta is the change in Accuracy relative to the previous snapshot.
	AccuracyDelta float64
	// AvgAccuracy is the mean Accuracy over the window.
	AvgAccuracy float64
	// AvgIssues is the mean of missing plus extra items over the window.
	AvgIssues float64
	// CleanStreak counts the most recent snapshots with no misplaced,
	// missing or extra items.
	CleanStreak int
	Samples     int
}

// AlertCounts tallies alerts by level.
type AlertCounts struct {
	Critical int
	Warning  int
	Info     int
}

// Total returns the number of alerts counted.
func (c AlertCounts) Total() int {
	return c.Critical + c.Warning + c.Info
}

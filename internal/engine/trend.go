package engine

import (
	"github.com/dm/stockwatch/internal/model"
)

// safeDivide returns a/b, or 0 when b is zero.
func safeDivide(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

// Accuracy returns the share of detected items that are correctly placed,
// in percent. A snapshot with nothing detected has accuracy 0.
func Accuracy(s *model.Snapshot) float64 {
	if s == nil {
		return 0
	}
	return 100 * safeDivide(float64(s.Summary.CorrectlyPlaced), float64(s.Summary.TotalDetected))
}

// clean reports whether s has no misplaced, missing or extra items.
func clean(s *model.Snapshot) bool {
	return s.Summary.Misplaced == 0 && s.Summary.Issues() == 0
}

// CalcTrend computes placement statistics over history, given oldest first.
//
// Returns a zero Trend when history is empty. AccuracyDelta is 0 when there
// is only one snapshot (no baseline).
func CalcTrend(history []*model.Snapshot) model.Trend {
	var (
		t        model.Trend
		accSum   float64
		issueSum float64
	)
	for _, s := range history {
		if s == nil {
			continue
		}
		t.Samples++
		accSum += Accuracy(s)
		issueSum += float64(s.Summary.Issues())
	}
	if t.Samples == 0 {
		return t
	}

	t.AvgAccuracy = accSum / float64(t.Samples)
	t.AvgIssues = issueSum / float64(t.Samples)

	var latest, prev *model.Snapshot
	for i := len(history) - 1; i >= 0; i-- {
		s := history[i]
		if s == nil {
			continue
		}
		if latest == nil {
			latest = s
			continue
		}
		prev = s
		break
	}
	t.Accuracy = Accuracy(latest)
	if prev != nil {
		t.AccuracyDelta = t.Accuracy - Accuracy(prev)
	}

	for i := len(history) - 1; i >= 0; i-- {
		s := history[i]
		if s == nil {
			continue
		}
		if !clean(s) {
			break
		}
		t.CleanStreak++
	}
	return t
}

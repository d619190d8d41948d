package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dm/stockwatch/internal/model"
)

func summarySnap(ts string, detected, correct, misplaced, missing, extra int) *model.Snapshot {
	return &model.Snapshot{
		Timestamp: ts,
		Summary: model.Summary{
			TotalDetected:   detected,
			CorrectlyPlaced: correct,
			Misplaced:       misplaced,
			MissingItems:    missing,
			ExtraItems:      extra,
		},
	}
}

func TestAccuracy(t *testing.T) {
	assert.Equal(t, 0.0, Accuracy(nil))
	assert.Equal(t, 0.0, Accuracy(summarySnap("T", 0, 0, 0, 0, 0)))
	assert.Equal(t, 100.0, Accuracy(summarySnap("T", 4, 4, 0, 0, 0)))
	assert.Equal(t, 75.0, Accuracy(summarySnap("T", 4, 3, 1, 0, 0)))
}

func TestCalcTrend_Empty(t *testing.T) {
	assert.Equal(t, model.Trend{}, CalcTrend(nil))
	assert.Equal(t, model.Trend{}, CalcTrend([]*model.Snapshot{nil}))
}

func TestCalcTrend_SingleSnapshot(t *testing.T) {
	tr := CalcTrend([]*model.Snapshot{summarySnap("T1", 4, 4, 0, 0, 0)})
	assert.Equal(t, 100.0, tr.Accuracy)
	assert.Equal(t, 0.0, tr.AccuracyDelta)
	assert.Equal(t, 1, tr.CleanStreak)
	assert.Equal(t, 1, tr.Samples)
}

func TestCalcTrend_Window(t *testing.T) {
	hist := []*model.Snapshot{
		summarySnap("T1", 4, 2, 2, 1, 0),
		summarySnap("T2", 4, 3, 1, 0, 1),
		summarySnap("T3", 4, 4, 0, 0, 0),
		summarySnap("T4", 2, 2, 0, 0, 0),
	}
	tr := CalcTrend(hist)

	assert.Equal(t, 100.0, tr.Accuracy)
	assert.Equal(t, 0.0, tr.AccuracyDelta)
	assert.InDelta(t, (50.0+75.0+100.0+100.0)/4, tr.AvgAccuracy, 1e-9)
	assert.InDelta(t, 0.5, tr.AvgIssues, 1e-9)
	assert.Equal(t, 2, tr.CleanStreak)
	assert.Equal(t, 4, tr.Samples)
}

func TestCalcTrend_NegativeDelta(t *testing.T) {
	tr := CalcTrend([]*model.Snapshot{
		summarySnap("T1", 4, 4, 0, 0, 0),
		summarySnap("T2", 4, 2, 2, 0, 0),
	})
	assert.Equal(t, -50.0, tr.AccuracyDelta)
	assert.Equal(t, 0, tr.CleanStreak)
}

func TestOrderedAlerts(t *testing.T) {
	s := &model.Snapshot{Timestamp: "T", Alerts: []model.Alert{
		{Level: model.AlertInfo, Message: "i1"},
		{Level: model.AlertWarning, Message: "w1"},
		{Level: model.AlertCritical, Message: "c1"},
		{Level: model.AlertWarning, Message: "w2"},
		{Level: model.AlertCritical, Message: "c2"},
	}}

	got := OrderedAlerts(s)
	msgs := make([]string, len(got))
	for i, a := range got {
		msgs[i] = a.Message
	}
	assert.Equal(t, []string{"c1", "c2", "w1", "w2", "i1"}, msgs)
	// The snapshot itself is not reordered.
	assert.Equal(t, "i1", s.Alerts[0].Message)

	assert.NotNil(t, OrderedAlerts(nil))
	assert.Empty(t, OrderedAlerts(&model.Snapshot{Timestamp: "T"}))
}

func TestCountAlerts(t *testing.T) {
	s := &model.Snapshot{Timestamp: "T", Alerts: []model.Alert{
		{Level: model.AlertCritical}, {Level: model.AlertWarning}, {Level: model.AlertWarning},
	}}
	c := CountAlerts(s)
	assert.Equal(t, model.AlertCounts{Critical: 1, Warning: 2}, c)
	assert.Equal(t, 3, c.Total())
	assert.Equal(t, model.AlertCounts{}, CountAlerts(nil))
}

package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dm/stockwatch/internal/engine"
	"github.com/dm/stockwatch/internal/model"
)

// fakeFeed is a Feed whose state is set directly by tests.
type fakeFeed struct {
	latest       *model.Snapshot
	history      []*model.Snapshot
	lastUpdate   time.Time
	hasUpdate    bool
	status       model.ConnectionState
	media        model.MediaState
	frame        engine.MediaFrame
	hasFrame     bool
	nextRetry    time.Time
	retryPending bool
	mediaOn      bool
	retries      int
	updates      chan struct{}
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{updates: make(chan struct{}, 1)}
}

func (f *fakeFeed) Latest() *model.Snapshot               { return f.latest }
func (f *fakeFeed) History() []*model.Snapshot            { return f.history }
func (f *fakeFeed) RecentHistory() []*model.Snapshot      { return newestFirst(f.history) }
func (f *fakeFeed) LastUpdate() (time.Time, bool)         { return f.lastUpdate, f.hasUpdate }
func (f *fakeFeed) Status() model.ConnectionState         { return f.status }
func (f *fakeFeed) Media() model.MediaState               { return f.media }
func (f *fakeFeed) MediaFrame() (engine.MediaFrame, bool) { return f.frame, f.hasFrame }
func (f *fakeFeed) NextMediaRetry() (time.Time, bool)     { return f.nextRetry, f.retryPending }
func (f *fakeFeed) MediaEnabled() bool                    { return f.mediaOn }
func (f *fakeFeed) Updates() <-chan struct{}              { return f.updates }
func (f *fakeFeed) RetryMedia() {
	f.retries++
	f.media.HasError = false
	f.retryPending = false
}

var fixedNow = time.Date(2025, 9, 10, 12, 0, 30, 0, time.Local)

// makeFixtureSnapshot returns a snapshot with two warnings and one info alert.
func makeFixtureSnapshot() *model.Snapshot {
	return &model.Snapshot{
		Timestamp: "2025-09-10 12:00:00",
		Summary: model.Summary{
			TotalExpected: 4, TotalDetected: 4, CorrectlyPlaced: 3,
			Misplaced: 1, MissingItems: 1, ExtraItems: 1,
		},
		DetailedCounts: map[string]int{"bottle": 1, "cup": 2, "tea bottle": 1},
		Alerts: []model.Alert{
			{Level: model.AlertInfo, Message: "EXTRA: 1 unexpected item(s) detected", Kind: "overstock"},
			{Level: model.AlertWarning, Message: "MISPLACED: 1 item(s) out of position", Kind: "misplacement"},
			{Level: model.AlertWarning, Message: "MISSING: 1 item(s) not found", Kind: "stockout"},
		},
	}
}

// newTestApp builds an App over feed with a fixed clock.
func newTestApp(feed *fakeFeed) *App {
	app := NewApp(feed, "http://edge.local:5001")
	app.now = func() time.Time { return fixedNow }
	return app
}

func connectedFeed() *fakeFeed {
	f := newFakeFeed()
	snap := makeFixtureSnapshot()
	f.latest = snap
	f.history = append(makeHistory(3), snap)
	f.status = model.Connected
	f.lastUpdate, f.hasUpdate = snap.Time()
	return f
}

func TestNewApp_CopiesFeedState(t *testing.T) {
	f := connectedFeed()
	app := newTestApp(f)

	assert.Equal(t, f.latest, app.latest)
	assert.Equal(t, model.Connected, app.status)
	assert.True(t, app.hasUpdate)
	assert.Equal(t, 4, app.trend.Samples)
	require.Len(t, app.table.displayRows, 4)
	assert.Equal(t, f.latest, app.table.displayRows[0], "history table is newest first")
}

func TestNewApp_NilFeed(t *testing.T) {
	app := NewApp(nil, "")
	assert.Nil(t, app.latest)
	assert.NotNil(t, app.Init())
	assert.NotEmpty(t, app.View())
}

func TestApp_UpdateMsgRefreshes(t *testing.T) {
	f := newFakeFeed()
	app := newTestApp(f)
	require.Nil(t, app.latest)
	require.Equal(t, model.Connecting, app.status)

	f.latest = makeFixtureSnapshot()
	f.status = model.Connected
	newModel, cmd := app.Update(UpdateMsg{})
	app = newModel.(*App)

	assert.Equal(t, f.latest, app.latest)
	assert.Equal(t, model.Connected, app.status)
	require.NotNil(t, cmd, "must keep listening for updates")
}

func TestWaitForUpdate(t *testing.T) {
	ch := make(chan struct{}, 1)
	ch <- struct{}{}
	assert.Equal(t, UpdateMsg{}, waitForUpdate(ch)())

	close(ch)
	assert.Equal(t, FeedClosedMsg{}, waitForUpdate(ch)())
}

func TestApp_FeedClosedQuits(t *testing.T) {
	app := newTestApp(newFakeFeed())
	_, cmd := app.Update(FeedClosedMsg{})
	require.NotNil(t, cmd)
	_, isQuit := cmd().(tea.QuitMsg)
	assert.True(t, isQuit)
}

func TestApp_TickRefreshesAndReschedules(t *testing.T) {
	f := newFakeFeed()
	app := newTestApp(f)
	f.status = model.Disconnected

	newModel, cmd := app.Update(TickMsg(fixedNow))
	app = newModel.(*App)
	assert.Equal(t, model.Disconnected, app.status)
	require.NotNil(t, cmd)
}

func TestApp_WindowSizeStored(t *testing.T) {
	app := newTestApp(newFakeFeed())

	newModel, cmd := app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	updated := newModel.(*App)

	assert.Equal(t, 120, updated.width)
	assert.Equal(t, 40, updated.height)
	assert.Nil(t, cmd)
}

func TestApp_QuitKey(t *testing.T) {
	app := newTestApp(newFakeFeed())

	_, cmd := app.Update(keyRunes("q"))
	require.NotNil(t, cmd)
	result := cmd()
	_, isQuit := result.(tea.QuitMsg)
	assert.True(t, isQuit, "expected tea.QuitMsg, got %T", result)
}

func TestApp_RetryKey(t *testing.T) {
	f := connectedFeed()
	f.mediaOn = true
	f.media = model.MediaState{HasError: true, RetryCount: 2}
	f.nextRetry, f.retryPending = fixedNow.Add(3*time.Second), true
	app := newTestApp(f)
	require.True(t, app.retryPending)

	newModel, _ := app.Update(keyRunes("r"))
	app = newModel.(*App)

	assert.Equal(t, 1, f.retries)
	assert.False(t, app.media.HasError)
	assert.False(t, app.retryPending)
}

func TestApp_RetryKeyNoopWithoutMedia(t *testing.T) {
	f := connectedFeed()
	app := newTestApp(f)

	_, cmd := app.Update(keyRunes("r"))
	assert.Nil(t, cmd)
	assert.Equal(t, 0, f.retries)
}

func TestApp_KeysGoToFilterWhileSearching(t *testing.T) {
	f := connectedFeed()
	f.mediaOn = true
	app := newTestApp(f)

	newModel, _ := app.Update(keyRunes("/"))
	app = newModel.(*App)
	require.True(t, app.table.searching)

	// "q" and "r" are typed into the filter instead of acting.
	newModel, _ = app.Update(keyRunes("q"))
	app = newModel.(*App)
	newModel, _ = app.Update(keyRunes("r"))
	app = newModel.(*App)
	assert.Equal(t, 0, f.retries)
	assert.Equal(t, "qr", app.table.input.Value())

	assert.Contains(t, stripANSI(renderFooter(app)), "enter: apply filter")
}

func TestApp_HelpToggle(t *testing.T) {
	app := newTestApp(newFakeFeed())
	require.False(t, app.showHelp)

	newModel, _ := app.Update(keyRunes("?"))
	app = newModel.(*App)
	assert.True(t, app.showHelp)
	assert.Contains(t, stripANSI(renderFooter(app)), "r: retry media")

	newModel, _ = app.Update(keyRunes("?"))
	app = newModel.(*App)
	assert.False(t, app.showHelp)
}

func TestApp_ArrowKeysPageHistory(t *testing.T) {
	f := connectedFeed()
	f.history = makeHistory(25)
	app := newTestApp(f)

	newModel, _ := app.Update(tea.KeyMsg{Type: tea.KeyRight})
	app = newModel.(*App)
	assert.Equal(t, 1, app.table.page)
}

func TestApp_View(t *testing.T) {
	f := connectedFeed()
	f.mediaOn = true
	f.frame = engine.MediaFrame{Data: make([]byte, 2048), ContentType: "image/jpeg", LoadedAt: fixedNow.Add(-2 * time.Second)}
	f.hasFrame = true
	app := newTestApp(f)
	app.width = 140

	out := stripANSI(app.View())
	for _, want := range []string{
		"Stock Watch", "CONNECTED", "Last update: 12:00:00 (30s ago)",
		"Alerts", "MISPLACED", "75.0%", "Accuracy", "Items:",
		"Correctly Placed (4)", "Accuracy Trend", "Live Media", "● LIVE", "2.0 KB",
		"History (4)", "? for help",
	} {
		assert.Contains(t, out, want)
	}
}

func TestRenderMiniBar(t *testing.T) {
	cases := []struct {
		percent  float64
		width    int
		wantFill int
	}{
		{0, 10, 0},
		{100, 10, 10},
		{50, 10, 5},
		{25, 8, 2},
		{75, 8, 6},
		{150, 4, 4},
		{-5, 4, 0},
	}
	for _, tc := range cases {
		result := renderMiniBar(tc.percent, tc.width)
		assert.Len(t, []rune(result), tc.width, "total bar width percent=%v", tc.percent)
		filledCount := strings.Count(result, "█")
		assert.Equal(t, tc.wantFill, filledCount, "filled count percent=%v width=%v", tc.percent, tc.width)
	}
	// Zero width returns empty string.
	assert.Equal(t, "", renderMiniBar(50, 0))
}

func TestRenderOverview_NilSnapshot(t *testing.T) {
	app := newTestApp(newFakeFeed())
	app.width = 120
	assert.Contains(t, stripANSI(renderOverview(app)), "No detection results yet")
}

func TestRenderOverview_WithSnapshot(t *testing.T) {
	app := newTestApp(connectedFeed())
	app.width = 120

	stripped := stripANSI(renderOverview(app))
	assert.Contains(t, stripped, "75.0%")
	assert.Contains(t, stripped, "4/4")
	assert.Contains(t, stripped, "Misplaced")
	assert.Contains(t, stripped, "Missing")
	assert.Contains(t, stripped, "Extra")
	assert.Contains(t, stripped, "bottle 1  cup 2  tea bottle 1")
}

func TestRenderOverview_NarrowAndZeroDetected(t *testing.T) {
	f := newFakeFeed()
	f.latest = &model.Snapshot{Timestamp: "2025-09-10 12:00:00"}
	app := newTestApp(f)
	app.width = 60

	stripped := stripANSI(renderOverview(app))
	assert.Contains(t, stripped, "0.0%!")
	assert.NotContains(t, stripped, "Items:")
}

func TestRenderAlerts(t *testing.T) {
	app := newTestApp(connectedFeed())
	app.width = 100

	lines := strings.Split(stripANSI(renderAlerts(app)), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "2 warning, 1 info")
	assert.Contains(t, lines[1], "WARNING")
	assert.Contains(t, lines[2], "WARNING")
	assert.Contains(t, lines[3], "INFO", "info alerts come after warnings")

	app.latest = &model.Snapshot{Timestamp: "x"}
	assert.Equal(t, "", renderAlerts(app))
	app.latest = nil
	assert.Equal(t, "", renderAlerts(app))
}

func TestRenderAlerts_CapsLines(t *testing.T) {
	snap := &model.Snapshot{Timestamp: "x"}
	for i := 0; i < 8; i++ {
		snap.Alerts = append(snap.Alerts, model.Alert{Level: model.AlertCritical, Message: "\x1b[31mshelf\x1b[0m"})
	}
	f := newFakeFeed()
	f.latest = snap
	app := newTestApp(f)

	out := stripANSI(renderAlerts(app))
	assert.Contains(t, out, "8 critical")
	assert.Contains(t, out, "+3 more")
	assert.Equal(t, 5, strings.Count(out, "CRITICAL"))
	assert.NotContains(t, renderAlerts(app), "\x1b[31mshelf")
}

func TestAlertCountsLabel(t *testing.T) {
	assert.Equal(t, "", alertCountsLabel(model.AlertCounts{}))
	assert.Equal(t, "1 critical, 2 info", alertCountsLabel(model.AlertCounts{Critical: 1, Info: 2}))
}

func TestRenderTrendRow(t *testing.T) {
	app := newTestApp(newFakeFeed())
	app.width = 120
	assert.Equal(t, "", renderTrendRow(app), "nothing to show without history or media")

	app = newTestApp(connectedFeed())
	app.width = 120
	out := stripANSI(renderTrendRow(app))
	assert.Contains(t, out, "Correctly Placed (4)")
	assert.Contains(t, out, "Accuracy Trend")
	assert.Contains(t, out, "clean streak 0")
	assert.NotContains(t, out, "Live Media")
}

func TestRenderMediaCard(t *testing.T) {
	f := connectedFeed()
	f.mediaOn = true
	app := newTestApp(f)

	out := stripANSI(renderMediaCard(app, 40))
	assert.Contains(t, out, "Loading...")

	f.media = model.MediaState{HasError: true, RetryCount: 2}
	f.nextRetry, f.retryPending = fixedNow.Add(2500*time.Millisecond), true
	app.refresh()
	out = stripANSI(renderMediaCard(app, 60))
	assert.Contains(t, out, "retries 2")
	assert.Contains(t, out, "● ERROR")
	assert.Contains(t, out, "retrying in 3s")

	f.media = model.MediaState{RetryCount: 2}
	f.retryPending = false
	f.frame = engine.MediaFrame{Data: make([]byte, 512), LoadedAt: fixedNow.Add(-5 * time.Second)}
	f.hasFrame = true
	app.refresh()
	out = stripANSI(renderMediaCard(app, 60))
	assert.Contains(t, out, "● LIVE")
	assert.Contains(t, out, "512 B")
	assert.Contains(t, out, "5s ago")
}

// stripANSI removes ANSI escape sequences for plain-text content assertions.
// Handles all CSI sequences (not just SGR m-terminated ones).
func stripANSI(s string) string {
	var out strings.Builder
	inEscape := false
	for _, r := range s {
		if r == '\x1b' {
			inEscape = true
			continue
		}
		if inEscape {
			// CSI final bytes are in range 0x40-0x7E (@, A-Z, [, \, ], ^, _, `, a-z, {, |, }, ~)
			if r >= 0x40 && r <= 0x7E && r != '[' {
				inEscape = false
			}
			continue
		}
		out.WriteRune(r)
	}
	return out.String()
}

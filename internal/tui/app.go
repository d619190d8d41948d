package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dm/stockwatch/internal/engine"
	"github.com/dm/stockwatch/internal/model"
)

// Feed is the read side of the sync layer that the TUI renders.
// *engine.Syncer implements it.
type Feed interface {
	Latest() *model.Snapshot
	History() []*model.Snapshot
	RecentHistory() []*model.Snapshot
	LastUpdate() (time.Time, bool)
	Status() model.ConnectionState
	Media() model.MediaState
	MediaFrame() (engine.MediaFrame, bool)
	NextMediaRetry() (time.Time, bool)
	MediaEnabled() bool
	RetryMedia()
	Updates() <-chan struct{}
}

var _ Feed = (*engine.Syncer)(nil)

// tickInterval is how often ages and countdowns are redrawn.
const tickInterval = time.Second

// App is the root Bubble Tea model for stockwatch.
type App struct {
	feed   Feed
	source string
	now    func() time.Time

	// Copied from the feed on every update or tick.
	latest       *model.Snapshot
	history      []*model.Snapshot // oldest first
	trend        model.Trend
	status       model.ConnectionState
	lastUpdate   time.Time
	hasUpdate    bool
	media        model.MediaState
	frame        engine.MediaFrame
	hasFrame     bool
	nextRetry    time.Time
	retryPending bool
	mediaEnabled bool

	table historyTable

	// Layout
	width, height int

	// UI state
	showHelp bool
}

// NewApp creates an App that renders feed. source names the data source in
// the header, usually the base URL.
func NewApp(feed Feed, source string) *App {
	app := &App{
		feed:   feed,
		source: source,
		now:    time.Now,
		table:  newHistoryTable(),
	}
	app.table.focused = true
	app.refresh()
	return app
}

// Init implements tea.Model. Starts listening to the feed and the redraw tick.
func (app *App) Init() tea.Cmd {
	if app.feed == nil {
		return tickCmd(tickInterval)
	}
	return tea.Batch(waitForUpdate(app.feed.Updates()), tickCmd(tickInterval))
}

// Update implements tea.Model. All state changes go through it.
func (app *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		app.width = msg.Width
		app.height = msg.Height

	case UpdateMsg:
		app.refresh()
		if app.feed == nil {
			return app, nil
		}
		return app, waitForUpdate(app.feed.Updates())

	case FeedClosedMsg:
		return app, tea.Quit

	case TickMsg:
		app.refresh()
		return app, tickCmd(tickInterval)

	case tea.KeyMsg:
		// While the filter input is open every key belongs to it.
		if app.table.searching {
			var cmd tea.Cmd
			app.table, cmd = app.table.Update(msg)
			return app, cmd
		}
		switch {
		case key.Matches(msg, keys.Quit):
			return app, tea.Quit
		case key.Matches(msg, keys.Retry):
			if app.feed != nil && app.mediaEnabled {
				app.feed.RetryMedia()
				app.refresh()
			}
			return app, nil
		case key.Matches(msg, keys.Help):
			app.showHelp = !app.showHelp
			return app, nil
		}
		var cmd tea.Cmd
		app.table, cmd = app.table.Update(msg)
		return app, cmd
	}

	return app, nil
}

// View implements tea.Model. Renders the full TUI.
func (app *App) View() string {
	var parts []string

	if h := renderHeader(app); h != "" {
		parts = append(parts, h)
	}
	if a := renderAlerts(app); a != "" {
		parts = append(parts, a)
	}
	if o := renderOverview(app); o != "" {
		parts = append(parts, o)
	}
	if m := renderTrendRow(app); m != "" {
		parts = append(parts, m)
	}
	if h := app.table.render(app.width); h != "" {
		parts = append(parts, h)
	}
	parts = append(parts, renderFooter(app))

	return strings.Join(parts, "\n")
}

// refresh copies the feed's current state into the view model.
func (app *App) refresh() {
	if app.feed == nil {
		return
	}
	app.latest = app.feed.Latest()
	app.history = app.feed.History()
	app.trend = engine.CalcTrend(app.history)
	app.status = app.feed.Status()
	app.lastUpdate, app.hasUpdate = app.feed.LastUpdate()
	app.mediaEnabled = app.feed.MediaEnabled()
	app.media = app.feed.Media()
	app.frame, app.hasFrame = app.feed.MediaFrame()
	app.nextRetry, app.retryPending = app.feed.NextMediaRetry()
	app.table.SetData(app.feed.RecentHistory())
}

// waitForUpdate blocks on the feed's update channel and converts the next
// signal into a message.
func waitForUpdate(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return FeedClosedMsg{}
		}
		return UpdateMsg{}
	}
}

// tickCmd schedules the next redraw after duration d.
func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

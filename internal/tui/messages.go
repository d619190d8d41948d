package tui

import "time"

// UpdateMsg signals that the feed changed and the view should re-read it.
type UpdateMsg struct{}

// FeedClosedMsg signals that the feed's update channel was closed.
type FeedClosedMsg struct{}

// TickMsg drives the once-per-second redraw of ages and countdowns.
type TickMsg time.Time

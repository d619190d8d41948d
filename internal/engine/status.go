package engine

import (
	"errors"
	"sync"

	"github.com/dm/stockwatch/internal/model"
)

var (
	// ErrClosed is returned when a component is used after Close.
	ErrClosed = errors.New("engine: component closed")
	// ErrAlreadyStarted is returned by a second Start or Open call.
	ErrAlreadyStarted = errors.New("engine: already started")
)

// Source names the component that produced a connection report.
type Source string

const (
	SourceStream Source = "stream"
	SourceProbe  Source = "probe"
	SourceSeed   Source = "seed"
)

// Report is one connection state observation.
type Report struct {
	Source Source
	State  model.ConnectionState
}

// StatusReporter receives connection state observations.
type StatusReporter interface {
	Report(src Source, state model.ConnectionState)
}

// StatusAggregator merges reports from independent sources into one status.
// The most recent report wins regardless of its source; no source has
// priority over another.
type StatusAggregator struct {
	mu       sync.Mutex
	status   model.ConnectionState
	last     Report
	reported bool
	onChange func(Report)
}

// NewStatusAggregator returns an aggregator in the Connecting state.
// onChange, if non-nil, is called synchronously after every report while the
// aggregator lock is held; it must not call back into the aggregator.
func NewStatusAggregator(onChange func(Report)) *StatusAggregator {
	return &StatusAggregator{status: model.Connecting, onChange: onChange}
}

func (a *StatusAggregator) Report(src Source, state model.ConnectionState) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.status = state
	a.last = Report{Source: src, State: state}
	a.reported = true
	if a.onChange != nil {
		a.onChange(a.last)
	}
}

// Status returns the current aggregated state.
func (a *StatusAggregator) Status() model.ConnectionState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// Last returns the most recent report. ok is false before the first report.
func (a *StatusAggregator) Last() (r Report, ok bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last, a.reported
}

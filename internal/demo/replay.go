package demo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dm/stockwatch/internal/model"
	"github.com/dm/stockwatch/internal/stream"
)

// ReplayEndpoint is the events URL to pair with Dialer in demo mode.
const ReplayEndpoint = "demo://replay"

// Dialer returns a push channel that cycles through the log, sending one
// new_processing event per interval followed by a heartbeat. Replayed
// snapshots carry the current time as their timestamp.
func (s *LogSource) Dialer(interval time.Duration) stream.Dialer {
	return stream.DialerFunc(func(ctx context.Context, _ string) (stream.Conn, error) {
		if len(s.entries) == 0 {
			return nil, fmt.Errorf("demo log is empty")
		}
		return &replayConn{
			ctx:      ctx,
			entries:  s.entries,
			interval: interval,
			now:      time.Now,
			closed:   make(chan struct{}),
		}, nil
	})
}

type replayConn struct {
	ctx      context.Context
	entries  []*model.Snapshot
	interval time.Duration
	now      func() time.Time

	next     int
	beatDue  bool
	closed   chan struct{}
	closeOne sync.Once
}

type replayEvent struct {
	Type string          `json:"type"`
	Data *model.Snapshot `json:"data"`
}

func (c *replayConn) Next() (stream.Frame, error) {
	if c.beatDue {
		c.beatDue = false
		return stream.Frame{Data: []byte(stream.HeartbeatSentinel), Comment: true}, nil
	}

	t := time.NewTimer(c.interval)
	defer t.Stop()
	select {
	case <-c.ctx.Done():
		return stream.Frame{}, c.ctx.Err()
	case <-c.closed:
		return stream.Frame{}, io.EOF
	case <-t.C:
	}

	snap := *c.entries[c.next%len(c.entries)]
	c.next++
	snap.Timestamp = c.now().Format("2006-01-02T15:04:05")

	data, err := json.Marshal(replayEvent{Type: stream.EventNewProcessing, Data: &snap})
	if err != nil {
		return stream.Frame{}, fmt.Errorf("encode replay event: %w", err)
	}
	c.beatDue = true
	return stream.Frame{Data: data}, nil
}

func (c *replayConn) Close() error {
	c.closeOne.Do(func() { close(c.closed) })
	return nil
}

package engine

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/dm/stockwatch/internal/client"
	"github.com/dm/stockwatch/internal/model"
	"github.com/dm/stockwatch/internal/stream"
)

// MockClient implements client.Source, client.HealthChecker and
// client.MediaFetcher for testing.
type MockClient struct {
	LatestFn  func(ctx context.Context) (*model.Snapshot, error)
	HistoryFn func(ctx context.Context) ([]*model.Snapshot, error)
	HealthFn  func(ctx context.Context) error
	MediaFn   func(ctx context.Context, token string) (*client.Media, error)
}

func (m *MockClient) LatestResults(ctx context.Context) (*model.Snapshot, error) {
	if m.LatestFn != nil {
		return m.LatestFn(ctx)
	}
	return snap("latest", 4), nil
}

func (m *MockClient) History(ctx context.Context) ([]*model.Snapshot, error) {
	if m.HistoryFn != nil {
		return m.HistoryFn(ctx)
	}
	return []*model.Snapshot{snap("h1", 1), snap("h2", 2)}, nil
}

func (m *MockClient) Health(ctx context.Context) error {
	if m.HealthFn != nil {
		return m.HealthFn(ctx)
	}
	return nil
}

func (m *MockClient) FetchMedia(ctx context.Context, token string) (*client.Media, error) {
	if m.MediaFn != nil {
		return m.MediaFn(ctx, token)
	}
	return &client.Media{Data: []byte{0xff, 0xd8}, ContentType: "image/jpeg"}, nil
}

// errOnce returns a function that returns err exactly once, then succeeds.
// Useful for simulating transient errors.
func errOnce(err error) func(ctx context.Context) error {
	called := false
	return func(_ context.Context) error {
		if !called {
			called = true
			return err
		}
		return nil
	}
}

var errMockFailure = errors.New("mock failure")

func snap(ts string, detected int) *model.Snapshot {
	return &model.Snapshot{
		Timestamp: ts,
		Summary:   model.Summary{TotalDetected: detected, CorrectlyPlaced: detected},
	}
}

// fakeConn is a push channel driven by the test through its channels.
type fakeConn struct {
	frames chan stream.Frame
	fail   chan error
	closed chan struct{}
	once   sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		frames: make(chan stream.Frame, 16),
		fail:   make(chan error, 1),
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) Next() (stream.Frame, error) {
	select {
	case f := <-c.frames:
		return f, nil
	case err := <-c.fail:
		return stream.Frame{}, err
	case <-c.closed:
		return stream.Frame{}, io.EOF
	}
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// fakeDialer hands out fakeConns. errFn, if set, decides the outcome of the
// nth dial (1-based).
type fakeDialer struct {
	mu    sync.Mutex
	dials int
	errFn func(n int) error
	conns chan *fakeConn
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{conns: make(chan *fakeConn, 16)}
}

func (d *fakeDialer) Dial(_ context.Context, _ string) (stream.Conn, error) {
	d.mu.Lock()
	d.dials++
	n := d.dials
	d.mu.Unlock()

	if d.errFn != nil {
		if err := d.errFn(n); err != nil {
			return nil, err
		}
	}
	c := newFakeConn()
	d.conns <- c
	return c, nil
}

func (d *fakeDialer) Dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

// statusRecorder collects every report made to an aggregator.
type statusRecorder struct {
	mu      sync.Mutex
	reports []Report
}

func (r *statusRecorder) onChange(rep Report) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, rep)
}

func (r *statusRecorder) all() []Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Report(nil), r.reports...)
}

// Package stream reads frames from the push channel and decodes them into
// typed events. Two transports are supported: server-sent events over
// http/https and WebSocket over ws/wss.
package stream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

var (
	// ErrMalformedFrame is returned when a frame is not valid JSON.
	ErrMalformedFrame = errors.New("malformed frame")
	// ErrUnexpectedShape is returned when a frame is valid JSON but does not
	// match the event structure.
	ErrUnexpectedShape = errors.New("unexpected event shape")
)

// HeartbeatSentinel is the keepalive line sent by the edge service.
const HeartbeatSentinel = ": heartbeat"

// Frame is one unit read from the push channel.
type Frame struct {
	Data []byte
	// Comment is set for SSE comment lines (lines starting with ':').
	// Data then holds the raw line.
	Comment bool
	// Oversized is set for an SSE event that exceeded MaxEventBytes. Its
	// data was dropped.
	Oversized bool
	Event     string
	ID        string
}

// IsHeartbeat reports whether f carries no payload semantics.
func IsHeartbeat(f Frame) bool {
	if f.Comment {
		return true
	}
	return string(bytes.TrimSpace(f.Data)) == HeartbeatSentinel
}

// Conn is an open push channel. Next blocks until a frame arrives or the
// channel fails. Close is safe to call more than once.
type Conn interface {
	Next() (Frame, error)
	Close() error
}

// Dialer opens a push channel. The returned Conn stays bound to ctx:
// cancelling ctx unblocks Next.
type Dialer interface {
	Dial(ctx context.Context, endpoint string) (Conn, error)
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(ctx context.Context, endpoint string) (Conn, error)

func (f DialerFunc) Dial(ctx context.Context, endpoint string) (Conn, error) {
	return f(ctx, endpoint)
}

// DialerFor picks the transport from the endpoint scheme. httpClient is used
// for SSE and must not carry an overall timeout.
func DialerFor(endpoint string, httpClient *http.Client, insecureSkipVerify bool) (Dialer, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	switch u.Scheme {
	case "http", "https":
		return NewSSEDialer(httpClient), nil
	case "ws", "wss":
		return NewWebSocketDialer(insecureSkipVerify), nil
	default:
		return nil, fmt.Errorf("unsupported push channel scheme %q", u.Scheme)
	}
}

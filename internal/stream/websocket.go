package stream

import (
	"context"
	"crypto/tls"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	handshakeTimeout = 10 * time.Second
	closeWait        = time.Second
)

// WebSocketDialer opens the push channel over ws:// or wss://. Every text or
// binary message is one frame.
type WebSocketDialer struct {
	dialer *websocket.Dialer
}

// NewWebSocketDialer returns a WebSocketDialer.
func NewWebSocketDialer(insecureSkipVerify bool) *WebSocketDialer {
	return &WebSocketDialer{
		dialer: &websocket.Dialer{
			HandshakeTimeout: handshakeTimeout,
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: insecureSkipVerify, //nolint:gosec
			},
		},
	}
}

func (d *WebSocketDialer) Dial(ctx context.Context, endpoint string) (Conn, error) {
	conn, _, err := d.dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial: %w", err)
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	return &wsConn{conn: conn, stop: stop}, nil
}

type wsConn struct {
	conn *websocket.Conn
	stop func() bool
	once sync.Once
}

func (c *wsConn) Next() (Frame, error) {
	for {
		mt, data, err := c.conn.ReadMessage()
		if err != nil {
			return Frame{}, fmt.Errorf("websocket read: %w", err)
		}
		if mt == websocket.TextMessage || mt == websocket.BinaryMessage {
			return Frame{Data: data}, nil
		}
	}
}

func (c *wsConn) Close() error {
	var err error
	c.once.Do(func() {
		c.stop()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(closeWait))
		err = c.conn.Close()
	})
	return err
}

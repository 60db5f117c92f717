package transport

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketDialer tunnels a channel through a WebSocket endpoint, for
// daemons sitting behind a websockify-style proxy. The addr passed to Dial
// is ignored; the tunnel endpoint is fixed per dialer, so command and
// notification channels each need their own URL (or a proxy that
// multiplexes by connection).
type WebSocketDialer struct {
	// URL is the ws:// or wss:// endpoint of the TCP proxy.
	URL string

	// HandshakeTimeout bounds the WebSocket upgrade. Zero means
	// DefaultDialTimeout.
	HandshakeTimeout time.Duration
}

func (d *WebSocketDialer) Dial(ctx context.Context, _ string) (net.Conn, error) {
	timeout := d.HandshakeTimeout
	if timeout == 0 {
		timeout = DefaultDialTimeout
	}
	dialer := &websocket.Dialer{HandshakeTimeout: timeout}

	ws, _, err := dialer.DialContext(ctx, d.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial %s: %w", d.URL, err)
	}
	return &wsConn{ws: ws}, nil
}

// wsConn adapts a WebSocket connection to net.Conn. Each Write becomes one
// binary message; Read drains binary messages in order, carrying leftover
// bytes across calls so the exact-read framing above it is unaffected by
// message boundaries.
type wsConn struct {
	ws     *websocket.Conn
	buffer []byte
}

func (c *wsConn) Read(p []byte) (int, error) {
	for len(c.buffer) == 0 {
		msgType, data, err := c.ws.ReadMessage()
		if err != nil {
			return 0, err
		}
		// Text and control frames are proxy chatter, not tunnel payload.
		if msgType != websocket.BinaryMessage {
			continue
		}
		c.buffer = data
	}

	n := copy(p, c.buffer)
	c.buffer = c.buffer[n:]
	return n, nil
}

func (c *wsConn) Write(p []byte) (int, error) {
	if err := c.ws.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *wsConn) Close() error                { return c.ws.Close() }
func (c *wsConn) LocalAddr() net.Addr         { return c.ws.LocalAddr() }
func (c *wsConn) RemoteAddr() net.Addr        { return c.ws.RemoteAddr() }
func (c *wsConn) SetReadDeadline(t time.Time) error  { return c.ws.SetReadDeadline(t) }
func (c *wsConn) SetWriteDeadline(t time.Time) error { return c.ws.SetWriteDeadline(t) }

func (c *wsConn) SetDeadline(t time.Time) error {
	if err := c.ws.SetReadDeadline(t); err != nil {
		return err
	}
	return c.ws.SetWriteDeadline(t)
}

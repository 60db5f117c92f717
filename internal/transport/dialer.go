// Package transport provides the stream transports the protocol client
// rides on. The daemon itself only speaks plain TCP; the WebSocket dialer
// exists for daemons reachable only through a websockify-style TCP proxy.
package transport

import (
	"context"
	"net"
	"time"
)

// DefaultDialTimeout bounds connection establishment when the caller's
// context carries no deadline of its own.
const DefaultDialTimeout = 10 * time.Second

// Dialer opens one stream to the daemon. The client dials twice per
// connection: once for the command channel, once for the notification
// channel. Implementations must return a net.Conn whose Close unblocks
// concurrent reads.
type Dialer interface {
	Dial(ctx context.Context, addr string) (net.Conn, error)
}

// TCPDialer is the standard transport: one TCP connection per channel,
// no TLS.
type TCPDialer struct {
	// Timeout bounds connection establishment. Zero means
	// DefaultDialTimeout.
	Timeout time.Duration

	// KeepAlive enables TCP keep-alives on the resulting connection so a
	// dead daemon host is eventually detected even with no traffic.
	// Zero uses the operating system default.
	KeepAlive time.Duration
}

func (d *TCPDialer) Dial(ctx context.Context, addr string) (net.Conn, error) {
	timeout := d.Timeout
	if timeout == 0 {
		timeout = DefaultDialTimeout
	}
	nd := &net.Dialer{
		Timeout:   timeout,
		KeepAlive: d.KeepAlive,
	}
	return nd.DialContext(ctx, "tcp", addr)
}

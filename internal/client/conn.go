package client

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pigwire/pigwire/internal/logging"
	"github.com/pigwire/pigwire/internal/protocol"
	"github.com/pigwire/pigwire/internal/transport"
)

// DefaultPort is the daemon's standard listen port.
const DefaultPort = 8888

// Conn is one logical connection to the daemon: a command socket used for
// serialized request/reply exchanges and a notification socket feeding the
// alert listener. Neither channel outlives the Conn; Close fans out to
// both.
type Conn struct {
	addr    string
	dialer  transport.Dialer
	timeout time.Duration

	// cmdMu linearizes all request/reply exchanges so one caller's
	// extension bytes can never be read as another caller's reply.
	cmdMu sync.Mutex
	cmd   net.Conn

	notify net.Conn
	handle uint32 // notification handle issued by the daemon

	registry *registry

	closeOnce sync.Once
	done      chan struct{} // closed once teardown has run

	causeMu sync.Mutex
	cause   error // first fatal error, nil on clean close
}

// Option configures a Conn before it connects.
type Option func(*Conn)

// WithDialer substitutes the transport used for both channels. The default
// is a plain TCP dialer.
func WithDialer(d transport.Dialer) Option {
	return func(c *Conn) { c.dialer = d }
}

// WithCommandTimeout bounds each command's reply read. Zero (the default)
// means commands may block until the daemon answers or the connection is
// closed. Expiry is surfaced as a TransportError with Timeout() == true
// and invalidates the connection.
func WithCommandTimeout(d time.Duration) Option {
	return func(c *Conn) { c.timeout = d }
}

// Open establishes both channels against the daemon at addr ("host:port";
// a bare host gets the default port). It binds the second socket as the
// notification sink and declares an empty watch mask, so a freshly opened
// connection watches no pins.
func Open(ctx context.Context, addr string, opts ...Option) (*Conn, error) {
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, fmt.Sprintf("%d", DefaultPort))
	}

	c := &Conn{
		addr:     addr,
		dialer:   &transport.TCPDialer{},
		registry: newRegistry(),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	var err error
	c.cmd, err = c.dialer.Dial(ctx, addr)
	if err != nil {
		return nil, &TransportError{Op: "dial command channel", Err: err}
	}

	c.notify, err = c.dialer.Dial(ctx, addr)
	if err != nil {
		c.cmd.Close()
		return nil, &TransportError{Op: "dial notification channel", Err: err}
	}

	initial, err := c.arm()
	if err != nil {
		c.cmd.Close()
		c.notify.Close()
		return nil, err
	}

	logging.Info("connected to daemon",
		zap.String("daemon", addr),
		zap.Uint32("notify_handle", c.handle),
	)

	go c.listen(initial)
	return c, nil
}

// arm binds the notification socket and returns the initial level bitmap
// used as the listener's diffing baseline.
//
// The bind is a three-step exchange: the in-band notify-open command is
// issued on the notification socket itself (that is how the daemon learns
// which socket is the sink and correlates it to the command connection),
// the returned handle is then passed to notify-begin on the command socket
// with an empty mask, and finally bank 1 is read so the first report diffs
// against real levels rather than zero.
func (c *Conn) arm() (uint32, error) {
	req := protocol.Request{Cmd: protocol.CmdNotifyOpenInband}
	frame, _ := req.Encode()
	if _, err := c.notify.Write(frame); err != nil {
		return 0, &TransportError{Op: "bind notification sink", Err: err}
	}
	resp, err := protocol.ReadResponse(c.notify)
	if err != nil {
		return 0, &TransportError{Op: "bind notification sink", Err: err}
	}
	if resp.Status < 0 {
		return 0, statusErr(req.Cmd, resp.Status)
	}
	c.handle = uint32(resp.Status)

	if _, err := c.call(protocol.Request{Cmd: protocol.CmdNotifyBegin, P1: c.handle, P2: 0}); err != nil {
		return 0, err
	}

	initial, err := c.callUnsigned(protocol.Request{Cmd: protocol.CmdBankRead1})
	if err != nil {
		return 0, err
	}
	return initial, nil
}

// RegisterAlert installs fn as the pin's level-change callback and adds the
// pin to the daemon's watch mask. At most one callback per pin;
// re-registering replaces the previous callback.
func (c *Conn) RegisterAlert(gpio int, fn AlertFunc) error {
	if gpio < 0 || gpio > 31 {
		return &UsageError{Reason: fmt.Sprintf("alert GPIO %d out of range 0-31", gpio)}
	}
	if fn == nil {
		return &UsageError{Reason: "nil alert callback"}
	}
	if c.isClosed() {
		return errClosed()
	}

	replaced := c.registry.register(gpio, fn)
	if replaced {
		// Mask unchanged, only the callback was swapped.
		return nil
	}
	if err := c.sendWatchMask(); err != nil {
		c.registry.unregister(gpio)
		return err
	}
	return nil
}

// UnregisterAlert removes the pin's callback and drops the pin from the
// watch mask. Unregistering a pin with no callback is a UsageError.
func (c *Conn) UnregisterAlert(gpio int) error {
	if c.isClosed() {
		return errClosed()
	}
	if !c.registry.unregister(gpio) {
		return &UsageError{Reason: fmt.Sprintf("no alert registered for GPIO %d", gpio)}
	}
	return c.sendWatchMask()
}

// sendWatchMask recomputes the full watch bitmask from the registry and
// resends it. The wire primitive takes a whole mask, not deltas, so the
// authoritative watch set lives client-side and every mutation resends
// everything.
func (c *Conn) sendWatchMask() error {
	mask := c.registry.mask()
	_, err := c.call(protocol.Request{Cmd: protocol.CmdNotifyBegin, P1: c.handle, P2: mask})
	if err != nil {
		return err
	}
	logging.Debug("watch mask updated",
		zap.String("daemon", c.addr),
		zap.String("mask", fmt.Sprintf("0x%08x", mask)),
	)
	return nil
}

// Close releases both sockets, stops the listener and clears the callback
// registry. It is idempotent: closing an already-closed connection is a
// no-op. An in-flight command or the listener's blocking read is unblocked
// by the socket close and observes a TransportError.
func (c *Conn) Close() error {
	c.teardown(nil)
	return nil
}

// Done is closed once the connection is finished, whether by Close or by a
// fatal transport/protocol failure discovered on either channel. This is
// how a connection owner learns the listener died.
func (c *Conn) Done() <-chan struct{} { return c.done }

// Err returns the fatal error that terminated the connection, or nil after
// a clean Close. Valid once Done is closed.
func (c *Conn) Err() error {
	c.causeMu.Lock()
	defer c.causeMu.Unlock()
	return c.cause
}

func (c *Conn) isClosed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// teardown performs the single irreversible shutdown: record the cause,
// close both sockets (unblocking any reader) and clear the registry.
func (c *Conn) teardown(cause error) {
	c.closeOnce.Do(func() {
		c.causeMu.Lock()
		c.cause = cause
		c.causeMu.Unlock()

		c.cmd.Close()
		c.notify.Close()
		c.registry.clear()
		close(c.done)

		if cause != nil {
			logging.Warn("connection failed",
				zap.String("daemon", c.addr),
				zap.Error(cause),
			)
		} else {
			logging.Info("connection closed", zap.String("daemon", c.addr))
		}
	})
}

// fatal invalidates the connection and returns the error the discovering
// caller should see. Partial protocol state cannot be resumed mid-frame,
// so there is no transparent retry.
func (c *Conn) fatal(err error) error {
	c.teardown(err)
	return err
}

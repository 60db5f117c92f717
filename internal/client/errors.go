package client

import (
	"errors"
	"fmt"
	"net"

	"github.com/pigwire/pigwire/internal/protocol"
)

// Failure taxonomy for the client. Every failure path surfaces one of
// these four kinds; there is no silent failure path.
//
//   - DaemonError:    negative status in a reply header. Non-fatal, the
//     connection stays usable and retry policy belongs to the caller.
//   - TransportError: socket-level failure (refused, reset, timed out).
//     Fatal: both channels are invalidated because mid-frame protocol
//     state cannot be resumed.
//   - ProtocolError:  malformed or implausible frame, meaning this client
//     and the daemon disagree about the wire format. Fatal for the same
//     reason.
//   - UsageError:     invalid local state (closed connection, unknown
//     alert pin). Recoverable, caller's responsibility.

// DaemonError reports a negative status code returned by the daemon for a
// single command. The raw code is preserved for diagnostics.
type DaemonError struct {
	Cmd    uint32
	Status int32
}

func (e *DaemonError) Error() string {
	return fmt.Sprintf("daemon rejected command %d: %s", e.Cmd, protocol.StatusText(e.Status))
}

// TransportError reports a socket-level failure. Receiving one means the
// connection has already been invalidated.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Timeout reports whether the underlying failure was a deadline expiry.
func (e *TransportError) Timeout() bool {
	var nerr net.Error
	return errors.As(e.Err, &nerr) && nerr.Timeout()
}

// ProtocolError reports a frame this client cannot reconcile with the
// documented wire format, which indicates a codec or daemon version
// mismatch. Receiving one means the connection has been invalidated.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol violation: %s", e.Reason)
}

// UsageError reports a misuse of the client's local state, such as issuing
// a command on a closed connection or unregistering a pin that has no
// callback.
type UsageError struct {
	Reason string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("usage error: %s", e.Reason)
}

// errClosed is the usage error for operations attempted after Close.
func errClosed() error {
	return &UsageError{Reason: "connection is closed"}
}

// statusErr maps a reply status to its failure outcome. Zero or positive
// status is never an error.
func statusErr(cmd uint32, status int32) error {
	if status >= 0 {
		return nil
	}
	return &DaemonError{Cmd: cmd, Status: status}
}

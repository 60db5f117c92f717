package client

import (
	"fmt"
	"time"

	"github.com/pigwire/pigwire/internal/logging"
	"github.com/pigwire/pigwire/internal/protocol"
)

// exchange performs one serialized request/reply on the command socket and
// returns the raw reply. Header and any outbound extension go out as a
// single write, and the reply's inbound extension (wantExt) is consumed in
// full before the mutex is released, so frames from concurrent callers can
// never interleave.
func (c *Conn) exchange(req protocol.Request, wantExt bool) (int32, []byte, error) {
	frame, err := req.Encode()
	if err != nil {
		return 0, nil, &UsageError{Reason: err.Error()}
	}

	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()

	if c.isClosed() {
		return 0, nil, errClosed()
	}

	logging.LogFrame("send", c.addr, frame)

	if c.timeout > 0 {
		deadline := time.Now().Add(c.timeout)
		if err := c.cmd.SetDeadline(deadline); err != nil {
			return 0, nil, c.fatal(&TransportError{Op: "set deadline", Err: err})
		}
	}

	if _, err := c.cmd.Write(frame); err != nil {
		return 0, nil, c.fatal(&TransportError{Op: "send command", Err: err})
	}

	resp, err := protocol.ReadResponse(c.cmd)
	if err != nil {
		return 0, nil, c.fatal(&TransportError{Op: "read reply", Err: err})
	}

	// The daemon echoes the command number; a mismatch means this reply
	// belongs to a frame this client never sent.
	if resp.Cmd != req.Cmd {
		return 0, nil, c.fatal(&ProtocolError{
			Reason: fmt.Sprintf("reply echoes command %d, sent %d", resp.Cmd, req.Cmd),
		})
	}

	if !wantExt || resp.Status <= 0 {
		return resp.Status, nil, nil
	}

	// Bulk reply: the status is the byte count of the trailing extension,
	// which must be drained before the next command may use this socket.
	if resp.ExtLen() > protocol.MaxExtension {
		return 0, nil, c.fatal(&ProtocolError{
			Reason: fmt.Sprintf("implausible extension length %d", resp.ExtLen()),
		})
	}
	ext, err := protocol.ReadExtension(c.cmd, resp.ExtLen())
	if err != nil {
		return 0, nil, c.fatal(&TransportError{Op: "read reply extension", Err: err})
	}
	return resp.Status, ext, nil
}

// call runs a scalar command: the reply status is either a negative error
// code or the command's result value.
func (c *Conn) call(req protocol.Request) (int32, error) {
	status, _, err := c.exchange(req, false)
	if err != nil {
		return 0, err
	}
	return status, statusErr(req.Cmd, status)
}

// callUnsigned runs a command whose result occupies the full 32-bit word
// (bank reads, ticks, version numbers) and therefore cannot be an error
// code even when the top bit is set.
func (c *Conn) callUnsigned(req protocol.Request) (uint32, error) {
	status, _, err := c.exchange(req, false)
	if err != nil {
		return 0, err
	}
	return uint32(status), nil
}

// callExt runs a bulk command whose reply carries an extension payload of
// status-many bytes.
func (c *Conn) callExt(req protocol.Request) ([]byte, error) {
	status, ext, err := c.exchange(req, true)
	if err != nil {
		return nil, err
	}
	if err := statusErr(req.Cmd, status); err != nil {
		return nil, err
	}
	return ext, nil
}

package protocol

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	// HeaderSize is the fixed size of a command or response header.
	HeaderSize = 16

	// MaxExtension is the largest extension payload accepted in either
	// direction. The daemon's own buffers are larger, but nothing this
	// client sends or expects comes close; anything beyond this indicates
	// a framing error or a daemon version mismatch.
	MaxExtension = 1 << 16
)

// Request is one command frame to be sent to the daemon. Cmd and the
// parameters are fixed by the calling operation and are not mutated after
// construction. When Ext is non-nil the encoded p3 word carries the
// extension length and Ext is appended directly after the header.
type Request struct {
	Cmd uint32
	P1  uint32
	P2  uint32
	P3  uint32
	Ext []byte
}

// Encode renders the request as a single wire buffer (header plus any
// extension). Header and extension are returned as one slice so callers can
// hand the whole frame to a single Write and never interleave with another
// frame. Parameter range validation is deliberately absent: the daemon
// validates and reports via status.
func (r *Request) Encode() ([]byte, error) {
	if len(r.Ext) > MaxExtension {
		return nil, fmt.Errorf("extension too large: %d bytes (max %d)", len(r.Ext), MaxExtension)
	}

	buf := make([]byte, HeaderSize+len(r.Ext))
	binary.LittleEndian.PutUint32(buf[0:4], r.Cmd)
	binary.LittleEndian.PutUint32(buf[4:8], r.P1)
	binary.LittleEndian.PutUint32(buf[8:12], r.P2)

	p3 := r.P3
	if r.Ext != nil {
		p3 = uint32(len(r.Ext))
	}
	binary.LittleEndian.PutUint32(buf[12:16], p3)

	copy(buf[HeaderSize:], r.Ext)
	return buf, nil
}

// Response is a decoded reply header. The daemon echoes cmd/p1/p2 from the
// request; the p3 slot is reinterpreted as a signed status.
type Response struct {
	Cmd    uint32
	P1     uint32
	P2     uint32
	Status int32
}

// ExtLen returns the number of extension bytes following the header, for
// replies to commands whose non-negative status is a byte count. A negative
// status never has an extension.
func (r *Response) ExtLen() int {
	if r.Status < 0 {
		return 0
	}
	return int(r.Status)
}

// ReadResponse reads exactly one 16-byte reply header. A short read is
// returned as-is (io.ErrUnexpectedEOF or the transport error), never as a
// partially decoded response.
func ReadResponse(rd io.Reader) (*Response, error) {
	var buf [HeaderSize]byte
	if _, err := io.ReadFull(rd, buf[:]); err != nil {
		return nil, fmt.Errorf("read response header: %w", err)
	}

	return &Response{
		Cmd:    binary.LittleEndian.Uint32(buf[0:4]),
		P1:     binary.LittleEndian.Uint32(buf[4:8]),
		P2:     binary.LittleEndian.Uint32(buf[8:12]),
		Status: int32(binary.LittleEndian.Uint32(buf[12:16])),
	}, nil
}

// ReadExtension consumes exactly n extension bytes from the stream. It must
// be called before the next command is issued on the same connection,
// otherwise the leftover bytes would be decoded as the next reply header.
func ReadExtension(rd io.Reader, n int) ([]byte, error) {
	if n < 0 || n > MaxExtension {
		return nil, fmt.Errorf("invalid extension length %d", n)
	}
	if n == 0 {
		return nil, nil
	}

	buf := make([]byte, n)
	if _, err := io.ReadFull(rd, buf); err != nil {
		return nil, fmt.Errorf("read %d-byte extension: %w", n, err)
	}
	return buf, nil
}

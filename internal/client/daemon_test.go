package client

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"sync"
	"testing"

	"github.com/pigwire/pigwire/internal/protocol"
	"github.com/pigwire/pigwire/internal/transport"
)

// fakeDaemon emulates the daemon's two-socket surface over net.Pipe: it
// answers the in-band notify-open on the notification socket, serves
// commands on the command socket, and lets tests inject level reports.
type fakeDaemon struct {
	t         *testing.T
	cmdSrv    net.Conn
	notifySrv net.Conn

	handle uint32 // handle issued for the notification sink
	levels uint32 // bank 1 snapshot served during the open handshake

	// handler answers commands the fake has no default for. Nil means
	// status 0, no extension.
	handler func(req protocol.Request) (int32, []byte)

	mu      sync.Mutex
	nbCalls []protocol.Request // every notify-begin received, in order
}

// pipeDialer hands out pre-built pipe ends in order: first Dial gets the
// command channel, second the notification channel.
type pipeDialer struct {
	mu    sync.Mutex
	conns []net.Conn
}

func (d *pipeDialer) Dial(_ context.Context, _ string) (net.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.conns) == 0 {
		return nil, errors.New("fake daemon: no more connections")
	}
	c := d.conns[0]
	d.conns = d.conns[1:]
	return c, nil
}

func startFakeDaemon(t *testing.T, levels uint32, handler func(protocol.Request) (int32, []byte)) (*fakeDaemon, transport.Dialer) {
	t.Helper()

	cmdCli, cmdSrv := net.Pipe()
	ntfCli, ntfSrv := net.Pipe()

	d := &fakeDaemon{
		t:         t,
		cmdSrv:    cmdSrv,
		notifySrv: ntfSrv,
		handle:    7,
		levels:    levels,
		handler:   handler,
	}
	go d.serveNotify()
	go d.serveCmd()

	t.Cleanup(func() {
		cmdSrv.Close()
		ntfSrv.Close()
	})

	return d, &pipeDialer{conns: []net.Conn{cmdCli, ntfCli}}
}

func (d *fakeDaemon) serveNotify() {
	req, ok := readTestRequest(d.notifySrv)
	if !ok {
		return
	}
	if req.Cmd != protocol.CmdNotifyOpenInband {
		d.t.Errorf("first frame on notify socket was command %d, want %d",
			req.Cmd, protocol.CmdNotifyOpenInband)
	}
	writeTestResponse(d.notifySrv, req, int32(d.handle), nil)
	// From here on the socket only carries reports pushed by the test.
}

func (d *fakeDaemon) serveCmd() {
	for {
		req, ok := readTestRequest(d.cmdSrv)
		if !ok {
			return
		}

		var status int32
		var ext []byte
		switch req.Cmd {
		case protocol.CmdNotifyBegin:
			d.mu.Lock()
			d.nbCalls = append(d.nbCalls, req)
			d.mu.Unlock()
		case protocol.CmdBankRead1:
			status = int32(d.levels)
		default:
			if d.handler != nil {
				status, ext = d.handler(req)
			}
		}

		writeTestResponse(d.cmdSrv, req, status, ext)
	}
}

// sendReport pushes one level report down the notification socket. It
// blocks until the listener has consumed it (net.Pipe is unbuffered),
// which gives tests a cheap happens-before edge.
func (d *fakeDaemon) sendReport(rpt protocol.Report) {
	var buf [protocol.ReportSize]byte
	binary.LittleEndian.PutUint16(buf[0:2], rpt.Seq)
	binary.LittleEndian.PutUint16(buf[2:4], rpt.Flags)
	binary.LittleEndian.PutUint32(buf[4:8], rpt.Tick)
	binary.LittleEndian.PutUint32(buf[8:12], rpt.Level)
	if _, err := d.notifySrv.Write(buf[:]); err != nil {
		d.t.Logf("sendReport: %v", err)
	}
}

// masks returns the notify-begin masks received so far.
func (d *fakeDaemon) masks() []uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]uint32, len(d.nbCalls))
	for i, req := range d.nbCalls {
		out[i] = req.P2
	}
	return out
}

// outboundExtCmds lists the commands whose request carries an extension
// payload, which the fake has to drain before the next header.
var outboundExtCmds = map[uint32]bool{
	protocol.CmdI2COpen:      true,
	protocol.CmdI2CWriteDev:  true,
	protocol.CmdI2CWriteByte: true,
	protocol.CmdSPIOpen:      true,
	protocol.CmdSPIWrite:     true,
	protocol.CmdSPIXfer:      true,
}

func readTestRequest(c net.Conn) (protocol.Request, bool) {
	var hdr [protocol.HeaderSize]byte
	if _, err := io.ReadFull(c, hdr[:]); err != nil {
		return protocol.Request{}, false
	}
	req := protocol.Request{
		Cmd: binary.LittleEndian.Uint32(hdr[0:4]),
		P1:  binary.LittleEndian.Uint32(hdr[4:8]),
		P2:  binary.LittleEndian.Uint32(hdr[8:12]),
		P3:  binary.LittleEndian.Uint32(hdr[12:16]),
	}
	if outboundExtCmds[req.Cmd] && req.P3 > 0 {
		ext := make([]byte, req.P3)
		if _, err := io.ReadFull(c, ext); err != nil {
			return protocol.Request{}, false
		}
		req.Ext = ext
	}
	return req, true
}

func writeTestResponse(c net.Conn, req protocol.Request, status int32, ext []byte) {
	buf := make([]byte, protocol.HeaderSize+len(ext))
	binary.LittleEndian.PutUint32(buf[0:4], req.Cmd)
	binary.LittleEndian.PutUint32(buf[4:8], req.P1)
	binary.LittleEndian.PutUint32(buf[8:12], req.P2)
	binary.LittleEndian.PutUint32(buf[12:16], uint32(status))
	copy(buf[protocol.HeaderSize:], ext)
	c.Write(buf)
}

// openTestConn opens a Conn against a fresh fake daemon.
func openTestConn(t *testing.T, levels uint32, handler func(protocol.Request) (int32, []byte), opts ...Option) (*Conn, *fakeDaemon) {
	t.Helper()

	daemon, dialer := startFakeDaemon(t, levels, handler)
	opts = append([]Option{WithDialer(dialer)}, opts...)
	conn, err := Open(context.Background(), "test-daemon", opts...)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn, daemon
}

// Package client speaks the pigpio daemon's socket protocol: GPIO, I2C and
// SPI operations over a command channel plus a concurrent stream of
// pin-level notifications.
//
// A Conn owns two sockets against the same daemon. The command socket
// carries strictly serialized request/reply exchanges: concurrent callers
// are safe, each exchange (header, outbound extension, reply header,
// inbound extension) happens under one mutex hold so frames never
// interleave. The notification socket is read by a single listener
// goroutine that XOR-diffs each level snapshot against the previous one
// and dispatches per-pin callbacks registered with RegisterAlert.
//
//	conn, err := client.Open(ctx, "raspberrypi:8888")
//	if err != nil { ... }
//	defer conn.Close()
//
//	conn.RegisterAlert(17, func(gpio, level int, tick uint32) {
//	    fmt.Printf("GPIO %d -> %d at %d\n", gpio, level, tick)
//	})
//
// Failures come in four kinds. A DaemonError is a per-command rejection
// (bad pin, bad mode, not permitted) and leaves the connection usable.
// TransportError and ProtocolError are fatal: the connection invalidates
// itself, both sockets close, and Done/Err expose the cause. UsageError
// reports local misuse such as commands on a closed connection. Nothing
// retries automatically; retry policy belongs to the caller.
package client

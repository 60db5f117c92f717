// Package protocol implements the binary wire format spoken by the pigpio
// daemon's socket interface.
//
// # Command channel
//
// Every command is a fixed 16-byte header of four little-endian uint32
// words:
//
//	[0-3]   cmd     Command number (see the Cmd* constants)
//	[4-7]   p1      First parameter (typically a GPIO number or handle)
//	[8-11]  p2      Second parameter
//	[12-15] p3      Third parameter; when the command carries an extension
//	                payload this word holds the extension byte count
//
// Commands that carry extra data (I2C block writes, SPI transfers) append
// the extension bytes immediately after the header. The daemon replies with
// a header of the same shape in which the p3 slot is reinterpreted as a
// signed 32-bit status: negative values are error codes (see status.go),
// non-negative values are either the command's result or the byte count of
// an extension payload that follows the reply header.
//
// # Notification channel
//
// A second socket carries a continuous stream of fixed 12-byte level
// reports:
//
//	[0-1]  seqno   Report sequence number (wraps)
//	[2-3]  flags   Watchdog/alive/event flags, see the Flag* constants
//	[4-7]  tick    Daemon microsecond tick (wraps ~72 minutes)
//	[8-11] level   Bitmap of the current level of GPIO 0-31
//
// Reports are a full level snapshot, not a delta; consumers diff successive
// bitmaps to recover edges (see internal/client).
//
// All reads use io.ReadFull so a short read surfaces as a transport error,
// never as a truncated frame.
package protocol

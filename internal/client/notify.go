package client

import (
	"go.uber.org/zap"

	"github.com/pigwire/pigwire/internal/logging"
	"github.com/pigwire/pigwire/internal/protocol"
)

// listen is the notification channel's read loop: one goroutine per
// connection, started by Open and stopped by Close or a read failure.
//
// The daemon reports the full current level snapshot in every record, not
// a delta, so the listener recovers per-pin edges by XOR-diffing against
// the previous bitmap. prev is owned exclusively by this goroutine.
// Diffing against the latest received bitmap also makes sequence gaps
// harmless: a dropped record loses intermediate toggles but never corrupts
// the level a callback observes.
func (c *Conn) listen(initial uint32) {
	prev := initial
	var lastSeq uint16
	haveSeq := false

	for {
		rpt, err := protocol.ReadReport(c.notify)
		if err != nil {
			if c.isClosed() {
				// Teardown closed the socket under us; clean exit.
				return
			}
			// The listener must not die silently: invalidate the whole
			// connection so owners blocked on Done learn about it.
			c.fatal(&TransportError{Op: "read notification", Err: err})
			return
		}

		logging.LogReport(c.addr, rpt.Seq, rpt.Flags, rpt.Tick, rpt.Level)

		if haveSeq && rpt.Seq != lastSeq+1 {
			// Gaps mean the daemon dropped reports; tolerated, not an error.
			logging.Debug("report sequence gap",
				zap.String("daemon", c.addr),
				zap.Uint16("expected", lastSeq+1),
				zap.Uint16("got", rpt.Seq),
			)
		}
		lastSeq = rpt.Seq
		haveSeq = true

		switch {
		case rpt.IsWatchdog():
			c.dispatchWatchdog(rpt)
		case rpt.Flags != 0:
			// Keep-alive or event report: no level information.
		default:
			prev = c.dispatchLevels(prev, rpt)
		}
	}
}

// dispatchLevels invokes the callback of every registered pin whose level
// differs from the previous snapshot and returns the new baseline.
func (c *Conn) dispatchLevels(prev uint32, rpt protocol.Report) uint32 {
	changed := prev ^ rpt.Level
	if changed == 0 {
		return rpt.Level
	}

	// Snapshot first: a dispatch in progress completes against the
	// callbacks that were active when the record was decoded.
	for gpio, fn := range c.registry.snapshot() {
		if changed&(1<<uint(gpio)) == 0 {
			continue
		}
		level := int(rpt.Level>>uint(gpio)) & 1
		c.registry.recordLevel(gpio, level)
		fn(gpio, level, rpt.Tick)
	}
	return rpt.Level
}

// dispatchWatchdog reports a watchdog expiry to the affected pin's
// callback, if any. Watchdog records carry no level snapshot, so the
// diffing baseline is untouched.
func (c *Conn) dispatchWatchdog(rpt protocol.Report) {
	gpio := rpt.WatchdogGPIO()
	if fn := c.registry.lookup(gpio); fn != nil {
		fn(gpio, LevelTimeout, rpt.Tick)
	}
}

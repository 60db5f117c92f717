package protocol

import (
	"encoding/binary"
	"fmt"
	"io"
)

// ReportSize is the fixed size of one level report on the notification
// socket.
const ReportSize = 12

// Report flag bits. When FlagWatchdog is set the report is a watchdog
// timeout for a single GPIO rather than a level snapshot; the GPIO number
// is in the low bits of the flags word.
const (
	FlagGPIOMask = 0x001f // Low 5 bits: GPIO number for watchdog reports
	FlagWatchdog = 1 << 5 // Watchdog timeout expired for FlagGPIOMask GPIO
	FlagAlive    = 1 << 6 // Keep-alive report, levels unchanged
	FlagEvent    = 1 << 7 // Event report (events are not exposed here)
)

// Report is one decoded notification record: a full snapshot of the levels
// of GPIO 0-31 at the given tick. Seq increases by one per report on a
// healthy connection; gaps mean the daemon dropped reports and are
// tolerated, since each report is self-contained.
type Report struct {
	Seq   uint16
	Flags uint16
	Tick  uint32
	Level uint32
}

// IsWatchdog reports whether this record is a watchdog timeout rather than
// a level snapshot.
func (r Report) IsWatchdog() bool { return r.Flags&FlagWatchdog != 0 }

// WatchdogGPIO returns the GPIO a watchdog report refers to. Only
// meaningful when IsWatchdog is true.
func (r Report) WatchdogGPIO() int { return int(r.Flags & FlagGPIOMask) }

func (r Report) String() string {
	return fmt.Sprintf("Report{seq=%d, flags=0x%04x, tick=%d, level=0x%08x}",
		r.Seq, r.Flags, r.Tick, r.Level)
}

// ReadReport reads exactly one 12-byte report from the notification
// stream. Short reads surface as transport errors.
func ReadReport(rd io.Reader) (Report, error) {
	var buf [ReportSize]byte
	if _, err := io.ReadFull(rd, buf[:]); err != nil {
		return Report{}, fmt.Errorf("read report: %w", err)
	}
	return DecodeReport(buf[:]), nil
}

// DecodeReport decodes a 12-byte report buffer. The caller guarantees the
// length.
func DecodeReport(buf []byte) Report {
	return Report{
		Seq:   binary.LittleEndian.Uint16(buf[0:2]),
		Flags: binary.LittleEndian.Uint16(buf[2:4]),
		Tick:  binary.LittleEndian.Uint32(buf[4:8]),
		Level: binary.LittleEndian.Uint32(buf[8:12]),
	}
}

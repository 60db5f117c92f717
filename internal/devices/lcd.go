// Package devices contains drivers built on top of the daemon client's
// caller-facing surface. They contain no protocol logic of their own;
// everything rides on plain GPIO operations.
package devices

import (
	"fmt"
	"time"
)

// GPIO is the slice of the client surface the drivers need. *client.Conn
// satisfies it.
type GPIO interface {
	SetMode(gpio, mode int) error
	Write(gpio, level int) error
}

const gpioOutput = 1

// HD44780 command bytes.
const (
	lcdClearDisplay   = 0x01
	lcdReturnHome     = 0x02
	lcdEntryModeSet   = 0x04
	lcdDisplayControl = 0x08
	lcdFunctionSet    = 0x20
	lcdSetDDRAMAddr   = 0x80
)

// Entry mode flags.
const (
	lcdEntryLeft           = 0x02
	lcdEntryShiftDecrement = 0x00
)

// Display control flags.
const (
	lcdDisplayOn = 0x04
	lcdCursorOff = 0x00
	lcdBlinkOff  = 0x00
)

// Function set flags.
const (
	lcd4BitMode = 0x00
	lcd2Line    = 0x08
	lcd5x8Dots  = 0x00
)

// lineAddress maps display line to its DDRAM base address.
var lineAddress = [4]byte{0x00, 0x40, 0x14, 0x54}

// LCD drives an HD44780-compatible character display in 4-bit mode over
// seven GPIO pins: register select, read/write, enable and data bits 4-7.
type LCD struct {
	gpio GPIO

	rs, rw, enable     int
	db4, db5, db6, db7 int

	displayMode  byte
	functionMode byte
	entryMode    byte
}

// NewLCD initializes the display: all seven pins become outputs, then the
// controller is forced into 4-bit mode with the datasheet's wake-up
// sequence (three 8-bit function-set nibbles with settling delays, then
// the switch to 4-bit).
func NewLCD(gpio GPIO, rs, rw, enable, db4, db5, db6, db7 int) (*LCD, error) {
	l := &LCD{
		gpio:         gpio,
		rs:           rs,
		rw:           rw,
		enable:       enable,
		db4:          db4,
		db5:          db5,
		db6:          db6,
		db7:          db7,
		displayMode:  lcdDisplayControl | lcdDisplayOn | lcdCursorOff | lcdBlinkOff,
		functionMode: lcdFunctionSet | lcd4BitMode | lcd2Line | lcd5x8Dots,
		entryMode:    lcdEntryModeSet | lcdEntryLeft | lcdEntryShiftDecrement,
	}

	for _, pin := range []int{rs, rw, enable, db4, db5, db6, db7} {
		if err := gpio.SetMode(pin, gpioOutput); err != nil {
			return nil, fmt.Errorf("lcd pin %d: %w", pin, err)
		}
	}
	if err := gpio.Write(enable, 0); err != nil {
		return nil, err
	}

	if err := l.init(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *LCD) init() error {
	time.Sleep(50 * time.Millisecond)

	// Wake-up: 8-bit function set three times, then drop to 4-bit.
	for i := 0; i < 3; i++ {
		if err := l.writeNibble(false, 0b0011); err != nil {
			return err
		}
		time.Sleep(4500 * time.Microsecond)
	}
	if err := l.writeNibble(false, 0b0010); err != nil {
		return err
	}

	if err := l.writeByte(false, l.functionMode); err != nil {
		return err
	}
	if err := l.writeByte(false, l.displayMode); err != nil {
		return err
	}
	if err := l.writeByte(false, l.entryMode); err != nil {
		return err
	}
	return l.Clear()
}

// Clear blanks the display and homes the cursor.
func (l *LCD) Clear() error {
	if err := l.writeByte(false, lcdClearDisplay); err != nil {
		return err
	}
	// Clear is the slowest instruction on the controller.
	time.Sleep(2 * time.Millisecond)
	return nil
}

// Home returns the cursor to the top-left without clearing.
func (l *LCD) Home() error {
	if err := l.writeByte(false, lcdReturnHome); err != nil {
		return err
	}
	time.Sleep(2 * time.Millisecond)
	return nil
}

// SetCursor positions the cursor at the given zero-based line and column.
func (l *LCD) SetCursor(line, col int) error {
	if line < 0 || line >= len(lineAddress) {
		return fmt.Errorf("lcd line %d out of range", line)
	}
	addr := lineAddress[line] + byte(col)
	return l.writeByte(false, lcdSetDDRAMAddr|(addr&0x7f))
}

// WriteString writes text at the current cursor position. Only ASCII maps
// directly to the controller's character ROM.
func (l *LCD) WriteString(text string) error {
	for i := 0; i < len(text); i++ {
		if err := l.writeByte(true, text[i]); err != nil {
			return err
		}
	}
	return nil
}

// writeByte sends one instruction or data byte as two nibbles, high first.
func (l *LCD) writeByte(data bool, value byte) error {
	if err := l.writeNibble(data, value>>4); err != nil {
		return err
	}
	return l.writeNibble(data, value&0x0f)
}

// writeNibble places one nibble on DB4-DB7 and pulses enable to latch it.
func (l *LCD) writeNibble(data bool, nibble byte) error {
	rs := 0
	if data {
		rs = 1
	}
	writes := []struct {
		pin   int
		level int
	}{
		{l.rs, rs},
		{l.rw, 0}, // always a write cycle
		{l.db7, int(nibble>>3) & 1},
		{l.db6, int(nibble>>2) & 1},
		{l.db5, int(nibble>>1) & 1},
		{l.db4, int(nibble) & 1},
	}
	for _, w := range writes {
		if err := l.gpio.Write(w.pin, w.level); err != nil {
			return err
		}
	}
	return l.pulseEnable()
}

// pulseEnable latches the data lines on the enable pin's falling edge.
func (l *LCD) pulseEnable() error {
	if err := l.gpio.Write(l.enable, 1); err != nil {
		return err
	}
	if err := l.gpio.Write(l.enable, 0); err != nil {
		return err
	}
	return nil
}

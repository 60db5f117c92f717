package client

import "github.com/pigwire/pigwire/internal/protocol"

// GPIO modes accepted by SetMode.
const (
	Input  = protocol.ModeInput
	Output = protocol.ModeOutput
)

// Pull-up/down settings accepted by SetPullUpDown.
const (
	PullOff  = protocol.PudOff
	PullDown = protocol.PudDown
	PullUp   = protocol.PudUp
)

// SetMode sets the pin's function (Input, Output or one of the alternate
// functions). Range checking is the daemon's: bad pins come back as a
// DaemonError.
func (c *Conn) SetMode(gpio, mode int) error {
	_, err := c.call(protocol.Request{Cmd: protocol.CmdModeSet, P1: uint32(gpio), P2: uint32(mode)})
	return err
}

// GetMode returns the pin's current function.
func (c *Conn) GetMode(gpio int) (int, error) {
	v, err := c.call(protocol.Request{Cmd: protocol.CmdModeGet, P1: uint32(gpio)})
	return int(v), err
}

// SetPullUpDown configures the pin's internal pull resistor.
func (c *Conn) SetPullUpDown(gpio, pud int) error {
	_, err := c.call(protocol.Request{Cmd: protocol.CmdPudSet, P1: uint32(gpio), P2: uint32(pud)})
	return err
}

// Read returns the pin's current level.
func (c *Conn) Read(gpio int) (int, error) {
	v, err := c.call(protocol.Request{Cmd: protocol.CmdGPIORead, P1: uint32(gpio)})
	return int(v), err
}

// Write drives the pin to the given level (0 or 1).
func (c *Conn) Write(gpio, level int) error {
	_, err := c.call(protocol.Request{Cmd: protocol.CmdWrite, P1: uint32(gpio), P2: uint32(level)})
	return err
}

// SetPWMDutycycle starts PWM on the pin. The default range maps 0-255 to
// 0-100% duty.
func (c *Conn) SetPWMDutycycle(gpio, duty int) error {
	_, err := c.call(protocol.Request{Cmd: protocol.CmdPWM, P1: uint32(gpio), P2: uint32(duty)})
	return err
}

// GetPWMDutycycle returns the pin's current PWM dutycycle.
func (c *Conn) GetPWMDutycycle(gpio int) (int, error) {
	v, err := c.call(protocol.Request{Cmd: protocol.CmdGetDutycycle, P1: uint32(gpio)})
	return int(v), err
}

// SetPWMRange sets the dutycycle range for the pin.
func (c *Conn) SetPWMRange(gpio, rng int) error {
	_, err := c.call(protocol.Request{Cmd: protocol.CmdPRS, P1: uint32(gpio), P2: uint32(rng)})
	return err
}

// SetPWMFrequency sets the PWM frequency (in hertz) for the pin, returning
// the frequency actually set.
func (c *Conn) SetPWMFrequency(gpio, hz int) (int, error) {
	v, err := c.call(protocol.Request{Cmd: protocol.CmdPFS, P1: uint32(gpio), P2: uint32(hz)})
	return int(v), err
}

// SetServoPulsewidth starts servo pulses on the pin: 0 is off, otherwise
// 500 (fully counter-clockwise) to 2500 (fully clockwise) microseconds.
func (c *Conn) SetServoPulsewidth(gpio, us int) error {
	_, err := c.call(protocol.Request{Cmd: protocol.CmdServo, P1: uint32(gpio), P2: uint32(us)})
	return err
}

// GetServoPulsewidth returns the pin's current servo pulsewidth.
func (c *Conn) GetServoPulsewidth(gpio int) (int, error) {
	v, err := c.call(protocol.Request{Cmd: protocol.CmdGetServoWidth, P1: uint32(gpio)})
	return int(v), err
}

// SetWatchdog arms a watchdog on the pin: if no level change is reported
// for timeoutMs milliseconds the pin's alert callback fires with
// LevelTimeout. A timeout of 0 cancels the watchdog.
func (c *Conn) SetWatchdog(gpio, timeoutMs int) error {
	_, err := c.call(protocol.Request{Cmd: protocol.CmdWatchdog, P1: uint32(gpio), P2: uint32(timeoutMs)})
	return err
}

// ReadBank1 returns the levels of GPIO 0-31 as a bitmap.
func (c *Conn) ReadBank1() (uint32, error) {
	return c.callUnsigned(protocol.Request{Cmd: protocol.CmdBankRead1})
}

// Tick returns the daemon's current microsecond tick. The tick wraps
// around roughly every 72 minutes.
func (c *Conn) Tick() (uint32, error) {
	return c.callUnsigned(protocol.Request{Cmd: protocol.CmdTick})
}

// HardwareRevision returns the board's hardware revision number.
func (c *Conn) HardwareRevision() (uint32, error) {
	return c.callUnsigned(protocol.Request{Cmd: protocol.CmdHwVer})
}

// DaemonVersion returns the daemon's software version number.
func (c *Conn) DaemonVersion() (uint32, error) {
	return c.callUnsigned(protocol.Request{Cmd: protocol.CmdVersion})
}

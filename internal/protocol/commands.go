package protocol

// Command numbers understood by the pigpio daemon's socket interface.
// The numeric values are fixed by the daemon and must not be reordered.
const (
	CmdModeSet  = 0 // Set GPIO mode (p1=gpio, p2=mode)
	CmdModeGet  = 1 // Get GPIO mode (p1=gpio)
	CmdPudSet   = 2 // Set pull-up/down (p1=gpio, p2=pud)
	CmdGPIORead = 3 // Read GPIO level (p1=gpio)
	CmdWrite    = 4 // Write GPIO level (p1=gpio, p2=level)
	CmdPWM      = 5 // Set PWM dutycycle (p1=gpio, p2=duty)
	CmdPRS      = 6 // Set PWM range (p1=gpio, p2=range)
	CmdPFS      = 7 // Set PWM frequency (p1=gpio, p2=freq)
	CmdServo    = 8 // Set servo pulsewidth (p1=gpio, p2=us)
	CmdWatchdog = 9 // Set GPIO watchdog (p1=gpio, p2=ms)

	CmdBankRead1 = 10 // Read levels of bank 1 (GPIO 0-31)
	CmdBankRead2 = 11 // Read levels of bank 2 (GPIO 32-53)

	CmdTick  = 16 // Get current daemon tick
	CmdHwVer = 17 // Get hardware revision

	CmdNotifyOpen  = 18 // Request a notification handle (pipe variant)
	CmdNotifyBegin = 19 // Start notifications (p1=handle, p2=pin mask)
	CmdNotifyPause = 20 // Pause notifications (p1=handle)
	CmdNotifyClose = 21 // Close a notification handle (p1=handle)

	CmdGetDutycycle  = 83 // Get PWM dutycycle (p1=gpio)
	CmdGetServoWidth = 84 // Get servo pulsewidth (p1=gpio)

	CmdVersion = 26 // Get daemon software version

	CmdI2COpen      = 54 // Open I2C device (p1=bus, p2=addr, ext=flags)
	CmdI2CClose     = 55 // Close I2C handle (p1=handle)
	CmdI2CReadDev   = 56 // Read raw bytes (p1=handle, p2=count)
	CmdI2CWriteDev  = 57 // Write raw bytes (p1=handle, ext=data)
	CmdI2CReadByte  = 61 // Read byte register (p1=handle, p2=reg)
	CmdI2CWriteByte = 62 // Write byte register (p1=handle, p2=reg, ext=val)

	CmdSPIOpen  = 71 // Open SPI channel (p1=chan, p2=baud, ext=flags)
	CmdSPIClose = 72 // Close SPI handle (p1=handle)
	CmdSPIRead  = 73 // Read bytes (p1=handle, p2=count)
	CmdSPIWrite = 74 // Write bytes (p1=handle, ext=data)
	CmdSPIXfer  = 75 // Full-duplex transfer (p1=handle, ext=data)

	// CmdNotifyOpenInband is sent on the notification socket itself; the
	// daemon binds that socket as the report sink and returns the handle
	// to pass to CmdNotifyBegin on the command socket.
	CmdNotifyOpenInband = 99
)

// GPIO modes (p2 of CmdModeSet).
const (
	ModeInput  = 0
	ModeOutput = 1
	ModeAlt0   = 4
	ModeAlt1   = 5
	ModeAlt2   = 6
	ModeAlt3   = 7
	ModeAlt4   = 3
	ModeAlt5   = 2
)

// Pull-up/down settings (p2 of CmdPudSet).
const (
	PudOff  = 0
	PudDown = 1
	PudUp   = 2
)

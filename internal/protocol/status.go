package protocol

import "fmt"

// statusText maps the daemon's negative status codes to symbolic names.
// The table is data, not logic: it is consulted only for diagnostics and
// never drives control flow. Codes absent from the table are reported as
// "daemon error N" with the raw value preserved.
var statusText = map[int32]string{
	-1:  "initialisation failed",
	-2:  "bad user GPIO number",
	-3:  "bad GPIO number",
	-4:  "bad GPIO mode",
	-5:  "bad level",
	-6:  "bad pull-up/down",
	-7:  "bad pulsewidth",
	-8:  "bad dutycycle",
	-15: "bad watchdog timeout",
	-21: "bad dutycycle range",
	-24: "no handle available",
	-25: "unknown handle",
	-28: "bad socket port",
	-31: "not initialised",
	-41: "no permission to update GPIO",
	-42: "no permission to update one or more GPIO",
	-50: "GPIO already in use",
	-58: "no memory",
	-59: "socket read failed",
	-60: "socket write failed",
	-71: "I2C open failed",
	-72: "serial open failed",
	-73: "SPI open failed",
	-74: "bad I2C bus",
	-75: "bad I2C address",
	-76: "bad SPI channel",
	-77: "bad open flags",
	-78: "bad SPI speed",
	-81: "message too big",
	-82: "bad memory allocation mode",
	-83: "too many SPI/I2C segments",
	-84: "bad SPI/I2C segment",
	-85: "bad SMBus command",
	-86: "not an I2C GPIO",
	-87: "bad I2C write length",
	-88: "bad I2C read length",
	-89: "bad I2C command",
	-90: "bad I2C baud rate",
}

// StatusText returns the symbolic description of a negative daemon status.
// Unknown codes get a generic description that preserves the raw value.
func StatusText(status int32) string {
	if text, ok := statusText[status]; ok {
		return text
	}
	return fmt.Sprintf("daemon error %d", status)
}

// KnownStatus reports whether the status code has a symbolic mapping.
func KnownStatus(status int32) bool {
	_, ok := statusText[status]
	return ok
}

package client

import (
	"fmt"

	"github.com/pigwire/pigwire/internal/protocol"
)

// SPIOpen returns a handle to the given SPI channel at baud bits per
// second. flags select mode, chip-select polarity and wire format; 0 is
// mode 0 with active-low CE.
func (c *Conn) SPIOpen(channel, baud int, flags uint32) (int, error) {
	v, err := c.call(protocol.Request{
		Cmd: protocol.CmdSPIOpen,
		P1:  uint32(channel),
		P2:  uint32(baud),
		Ext: u32ext(flags),
	})
	return int(v), err
}

// SPIClose releases the handle.
func (c *Conn) SPIClose(handle int) error {
	_, err := c.call(protocol.Request{Cmd: protocol.CmdSPIClose, P1: uint32(handle)})
	return err
}

// SPIRead clocks count bytes in from the device.
func (c *Conn) SPIRead(handle, count int) ([]byte, error) {
	if count <= 0 || count > protocol.MaxExtension {
		return nil, &UsageError{Reason: fmt.Sprintf("SPI read count %d out of range", count)}
	}
	return c.callExt(protocol.Request{
		Cmd: protocol.CmdSPIRead,
		P1:  uint32(handle),
		P2:  uint32(count),
	})
}

// SPIWrite clocks data out to the device.
func (c *Conn) SPIWrite(handle int, data []byte) error {
	if len(data) == 0 {
		return &UsageError{Reason: "empty SPI write"}
	}
	_, err := c.call(protocol.Request{
		Cmd: protocol.CmdSPIWrite,
		P1:  uint32(handle),
		Ext: data,
	})
	return err
}

// SPIXfer clocks data out while simultaneously clocking the same number of
// bytes in: the outbound extension carries the write data, the reply
// extension carries what the device answered.
func (c *Conn) SPIXfer(handle int, data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, &UsageError{Reason: "empty SPI transfer"}
	}
	return c.callExt(protocol.Request{
		Cmd: protocol.CmdSPIXfer,
		P1:  uint32(handle),
		Ext: data,
	})
}

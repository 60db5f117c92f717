package client

import (
	"encoding/binary"
	"fmt"

	"github.com/pigwire/pigwire/internal/protocol"
)

// u32ext encodes a single uint32 as the little-endian extension payload
// several open/write commands require.
func u32ext(v uint32) []byte {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	return buf[:]
}

// I2COpen returns a handle to the device at addr on the given bus. flags
// is reserved by the daemon and should normally be 0.
func (c *Conn) I2COpen(bus, addr int, flags uint32) (int, error) {
	v, err := c.call(protocol.Request{
		Cmd: protocol.CmdI2COpen,
		P1:  uint32(bus),
		P2:  uint32(addr),
		Ext: u32ext(flags),
	})
	return int(v), err
}

// I2CClose releases the handle.
func (c *Conn) I2CClose(handle int) error {
	_, err := c.call(protocol.Request{Cmd: protocol.CmdI2CClose, P1: uint32(handle)})
	return err
}

// I2CReadDevice reads count raw bytes from the device. The reply carries
// the data as an extension payload.
func (c *Conn) I2CReadDevice(handle, count int) ([]byte, error) {
	if count <= 0 || count > protocol.MaxExtension {
		return nil, &UsageError{Reason: fmt.Sprintf("I2C read count %d out of range", count)}
	}
	return c.callExt(protocol.Request{
		Cmd: protocol.CmdI2CReadDev,
		P1:  uint32(handle),
		P2:  uint32(count),
	})
}

// I2CWriteDevice writes raw bytes to the device, sent as an extension
// payload after the header.
func (c *Conn) I2CWriteDevice(handle int, data []byte) error {
	if len(data) == 0 {
		return &UsageError{Reason: "empty I2C write"}
	}
	_, err := c.call(protocol.Request{
		Cmd: protocol.CmdI2CWriteDev,
		P1:  uint32(handle),
		Ext: data,
	})
	return err
}

// I2CReadByteData reads the 8-bit register reg.
func (c *Conn) I2CReadByteData(handle int, reg byte) (byte, error) {
	v, err := c.call(protocol.Request{
		Cmd: protocol.CmdI2CReadByte,
		P1:  uint32(handle),
		P2:  uint32(reg),
	})
	return byte(v), err
}

// I2CWriteByteData writes val to the 8-bit register reg. The value rides
// as a 4-byte extension per the daemon's convention for this command.
func (c *Conn) I2CWriteByteData(handle int, reg, val byte) error {
	_, err := c.call(protocol.Request{
		Cmd: protocol.CmdI2CWriteByte,
		P1:  uint32(handle),
		P2:  uint32(reg),
		Ext: u32ext(uint32(val)),
	})
	return err
}

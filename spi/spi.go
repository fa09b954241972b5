// Package spi provides the byte transfer peripherals that can be attached
// behind an SPI controller. A transfer is full duplex: every byte sent to the
// peripheral returns exactly one byte from it.
package spi

// Idle is the byte returned by a peripheral with nothing to say, as seen on
// a pulled up MISO line.
const Idle = byte(0xff)

// Peripheral is a device on the far side of an SPI bus.
type Peripheral interface {
	// Transmit sends a byte to the peripheral and returns the byte it
	// shifted back.
	Transmit(value byte) byte
	// Reset returns the peripheral to its power on state.
	Reset()
}

// Container is an attachment point for a single SPI peripheral. It may be
// empty, and the attached peripheral may change at any time.
type Container struct {
	peripheral Peripheral
}

// Register attaches a peripheral, replacing any previous one.
func (c *Container) Register(p Peripheral) {
	c.peripheral = p
}

// Unregister detaches the peripheral.
func (c *Container) Unregister() {
	c.peripheral = nil
}

// Registered returns the attached peripheral.
func (c *Container) Registered() (p Peripheral, ok bool) {
	p = c.peripheral
	ok = p != nil
	return
}

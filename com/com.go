// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package com models the COM block of the SoC: a memory mapped SPI
// controller with a 16-bit transmit/receive pair and two interrupt sources,
// transfer complete and hold.
//
// Each write to TX shifts the low byte and then the high byte through the
// attached SPI peripheral, and the two replies land in RX. If IntEna is set,
// the transfer also latches the SPI_INT event.
//
// Events follow the usual status/pending/enable triple. Status is the
// momentary event, pending is its sticky latch, cleared by writing 1, and
// enable masks pending from the IRQ line.
package com

import (
	"fmt"
	"iter"

	"github.com/ezrec/comsoc/gpio"
	"github.com/ezrec/comsoc/internal"
	"github.com/ezrec/comsoc/register"
	"github.com/ezrec/comsoc/spi"
)

// Register offsets.
const (
	COM_TX         = uint32(0x00) // Transmit, write only.
	COM_RX         = uint32(0x04) // Receive, read only.
	COM_CONTROL    = uint32(0x08) // IntEna, AutoHold.
	COM_STATUS     = uint32(0x0c) // Tip, Hold.
	COM_EV_STATUS  = uint32(0x10) // Event status.
	COM_EV_PENDING = uint32(0x14) // Event pending, write one to clear.
	COM_EV_ENABLE  = uint32(0x18) // Event enable.

	COM_SIZE = uint32(0x100) // Size of the register window.
)

// Register bits.
const (
	CONTROL_INT_ENA   = uint32(1 << 0)
	CONTROL_AUTO_HOLD = uint32(1 << 1)

	STATUS_TIP  = uint32(1 << 0)
	STATUS_HOLD = uint32(1 << 1)

	EV_SPI_INT  = uint32(1 << 0) // Transfer complete event.
	EV_SPI_HOLD = uint32(1 << 1) // Hold line event.
)

var _com_defines = map[string]uint32{
	"COM_SIZE":          COM_SIZE,
	"CONTROL_INT_ENA":   CONTROL_INT_ENA,
	"CONTROL_AUTO_HOLD": CONTROL_AUTO_HOLD,
	"STATUS_TIP":        STATUS_TIP,
	"STATUS_HOLD":       STATUS_HOLD,
	"EV_SPI_INT":        EV_SPI_INT,
	"EV_SPI_HOLD":       EV_SPI_HOLD,
}

// Com is the COM peripheral state.
type Com struct {
	spi.Container // Attached SPI peripheral.

	IRQ *gpio.Line // Interrupt request output.

	regs *register.Collection

	rx       *register.Value
	intEna   *register.Flag
	autoHold *register.Flag
	tip      *register.Flag
	hold     *register.Flag

	spiIntStatus   *register.Flag
	spiHoldStatus  *register.Flag
	spiIntPending  *register.Flag
	spiHoldPending *register.Flag
	spiIntEnable   *register.Flag
	spiHoldEnable  *register.Flag
}

// NewCom creates a COM peripheral with no SPI peripheral attached.
func NewCom() (com *Com) {
	com = &Com{
		IRQ:  &gpio.Line{},
		regs: register.NewCollection(),
	}

	update := register.WithChange(func(_, _ uint32) { com.updateInterrupts() })

	com.regs.Define(COM_TX, "COM_TX").
		WithValueField(0, 16, register.Write, "TX", register.WithWrite(com.writeTx))

	com.rx = com.regs.Define(COM_RX, "COM_RX").
		WithValueField(0, 16, register.Read, "RX")

	control := com.regs.Define(COM_CONTROL, "COM_CONTROL")
	com.intEna = control.WithFlag(0, register.ReadWrite, "IntEna")
	com.autoHold = control.WithFlag(1, register.ReadWrite, "AutoHold")

	status := com.regs.Define(COM_STATUS, "COM_STATUS")
	com.tip = status.WithFlag(0, register.Read, "Tip")
	com.hold = status.WithFlag(1, register.Read, "Hold")

	evStatus := com.regs.Define(COM_EV_STATUS, "COM_EV_STATUS")
	com.spiIntStatus = evStatus.WithFlag(0, register.Read, "SpiInt")
	com.spiHoldStatus = evStatus.WithFlag(1, register.Read, "SpiHold")

	evPending := com.regs.Define(COM_EV_PENDING, "COM_EV_PENDING")
	com.spiIntPending = evPending.WithFlag(0, register.Read|register.WriteOneToClear, "SpiInt", update)
	com.spiHoldPending = evPending.WithFlag(1, register.Read|register.WriteOneToClear, "SpiHold", update)

	evEnable := com.regs.Define(COM_EV_ENABLE, "COM_EV_ENABLE")
	com.spiIntEnable = evEnable.WithFlag(0, register.ReadWrite, "SpiInt", update)
	com.spiHoldEnable = evEnable.WithFlag(1, register.ReadWrite, "SpiHold", update)

	com.Reset()

	return
}

// writeTx shifts the two bytes of a TX write through the SPI peripheral.
func (com *Com) writeTx(_, value uint32) (err error) {
	// TODO: skip the transfer when AutoHold is set and the hold line is
	// asserted, once the hold line is wired to an input.
	p, ok := com.Registered()
	if !ok {
		err = ErrNoPeripheral
		return
	}

	rx := uint32(p.Transmit(byte(value)))
	rx |= uint32(p.Transmit(byte(value>>8))) << 8
	com.rx.Set(rx)

	if com.intEna.Value() {
		com.spiIntStatus.Set(true)
		com.updateInterrupts()
		com.spiIntStatus.Set(false)
	}

	return
}

// Size of the register window, in bytes.
func (com *Com) Size() uint32 {
	return COM_SIZE
}

// ReadDoubleWord reads the register at a byte offset.
// Unmapped offsets read as zero.
func (com *Com) ReadDoubleWord(offset uint32) uint32 {
	return com.regs.Read(offset)
}

// WriteDoubleWord writes the register at a byte offset.
// Unmapped offsets ignore the write. A TX write with no SPI peripheral
// attached fails with ErrNoPeripheral.
func (com *Com) WriteDoubleWord(offset uint32, value uint32) error {
	return com.regs.Write(offset, value)
}

// Reset clears the event status, pending and enable registers, which drops
// the IRQ line. Control, status and RX keep their values.
func (com *Com) Reset() {
	com.spiIntStatus.Set(false)
	com.spiHoldStatus.Set(false)
	com.spiIntPending.Set(false)
	com.spiHoldPending.Set(false)
	com.spiIntEnable.Set(false)
	com.spiHoldEnable.Set(false)

	com.updateInterrupts()
}

// Registers iterates over the register definitions, in offset order.
func (com *Com) Registers() iter.Seq[*register.Register] {
	return com.regs.Registers()
}

// Defines returns the register offsets and bits as script equates.
func (com *Com) Defines() iter.Seq2[string, string] {
	return internal.ConcatDefines(com.regs.Defines(), internal.HexDefines(_com_defines))
}

// String returns the register and field state as text.
func (com *Com) String() (text string) {
	fields := []struct {
		name string
		flag *register.Flag
	}{
		{"IntEna", com.intEna},
		{"AutoHold", com.autoHold},
		{"Tip", com.tip},
		{"Hold", com.hold},
		{"SpiIntStatus", com.spiIntStatus},
		{"SpiHoldStatus", com.spiHoldStatus},
		{"SpiIntPending", com.spiIntPending},
		{"SpiHoldPending", com.spiHoldPending},
		{"SpiIntEnable", com.spiIntEnable},
		{"SpiHoldEnable", com.spiHoldEnable},
	}

	text = fmt.Sprintf("% 14s: %04X\n", "RX", com.rx.Value())
	for _, field := range fields {
		text += fmt.Sprintf("% 14s: %v\n", field.name, field.flag.Value())
	}
	text += fmt.Sprintf("% 14s: %v\n", "IRQ", com.IRQ.IsSet())

	return
}

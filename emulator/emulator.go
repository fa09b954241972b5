// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package emulator ties a COM block, the system bus it sits on and its SPI
// peripheral together, and runs bus scripts against them.
package emulator

import (
	"iter"
	"log"

	"go.starlark.net/starlark"

	"github.com/ezrec/comsoc/bus"
	"github.com/ezrec/comsoc/com"
	"github.com/ezrec/comsoc/gpio"
	"github.com/ezrec/comsoc/internal"
	"github.com/ezrec/comsoc/spi"
)

const (
	COM_BASE = uint32(0xe000_0000) // Default COM block base address.
)

// Emulator state. Bus + COM block + attached SPI peripheral.
type Emulator struct {
	Verbose bool     // If set, enables verbose logging.
	Bus     bus.Bus  // System bus.
	Com     *com.Com // COM block, mapped at Base.
	Base    uint32   // Base address of the COM block.
	Program *Program // Currently running bus script.

	Last uint32 // Value of the last bus read.

	ip int // Index of the next statement.
}

// NewEmulator creates a new emulator with the COM block mapped at base.
func NewEmulator(base uint32) (emu *Emulator, err error) {
	emu = &Emulator{
		Com:     com.NewCom(),
		Base:    base,
		Program: &Program{},
	}

	err = emu.Bus.Map(base, "COM", emu.Com)
	if err != nil {
		emu = nil
		return
	}

	emu.Com.IRQ.Connect(func(level bool) {
		if emu.Verbose {
			log.Printf("irq %v", level)
		}
	})

	return
}

// Attach connects an SPI peripheral to the COM block.
// A nil peripheral detaches the current one.
func (emu *Emulator) Attach(p spi.Peripheral) {
	if p == nil {
		emu.Com.Unregister()
		return
	}

	emu.Com.Register(p)
}

// Irq returns the COM interrupt line.
func (emu *Emulator) Irq() *gpio.Line {
	return emu.Com.IRQ
}

// Defines returns an iterator over all of the defines. Register names give
// bus addresses.
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	abs := map[string]uint32{
		"COM_BASE": emu.Base,
		"SPI_IDLE": uint32(spi.Idle),
	}
	for reg := range emu.Com.Registers() {
		abs[reg.Name] = emu.Base + reg.Offset
	}

	return internal.ConcatDefines(emu.Com.Defines(), internal.HexDefines(abs))
}

// Parser returns a script parser with the emulator defines predefined.
func (emu *Emulator) Parser() (ps *Parser) {
	ps = &Parser{Verbose: emu.Verbose}
	for name, value := range emu.Defines() {
		ps.Predefine(name, value)
	}

	return
}

// Reset the bus devices and the attached peripheral.
func (emu *Emulator) Reset() {
	emu.Bus.Reset()

	if p, ok := emu.Com.Registered(); ok {
		p.Reset()
	}

	emu.Last = 0
}

// Rewind moves back to the first statement of the program.
func (emu *Emulator) Rewind() {
	emu.ip = 0
}

// LineNo returns the line number of the next statement, or 0 at the end.
func (emu *Emulator) LineNo() int {
	if emu.ip < len(emu.Program.Statements) {
		return emu.Program.Statements[emu.ip].LineNo
	}

	return 0
}

// Read32 reads a bus address, recording the value in Last.
func (emu *Emulator) Read32(addr uint32) (value uint32, err error) {
	value, err = emu.Bus.Read32(addr)
	if err != nil {
		return
	}

	emu.Last = value
	if emu.Verbose {
		log.Printf("read  %#08x -> %#08x", addr, value)
	}

	return
}

// Write32 writes a bus address.
func (emu *Emulator) Write32(addr uint32, value uint32) (err error) {
	if emu.Verbose {
		log.Printf("write %#08x <- %#08x", addr, value)
	}

	err = emu.Bus.Write32(addr, value)
	return
}

// Tick executes a single script statement.
func (emu *Emulator) Tick() (done bool, err error) {
	if emu.ip >= len(emu.Program.Statements) {
		done = true
		return
	}

	st := &emu.Program.Statements[emu.ip]
	emu.ip++

	defer func() {
		if err != nil {
			err = &ErrRuntime{LineNo: st.LineNo, Err: err}
		}
	}()

	args := make([]uint32, len(st.Args))
	extra := starlark.StringDict{
		"LAST": starlark.MakeUint64(uint64(emu.Last)),
	}
	for n, arg := range st.Args {
		args[n], err = evaluate(arg, st.Equate, extra)
		if err != nil {
			return
		}
	}

	switch st.Op {
	case OP_WRITE:
		err = emu.Write32(args[0], args[1])
	case OP_READ:
		_, err = emu.Read32(args[0])
	case OP_EXPECT:
		mask := ^uint32(0)
		if len(args) > 2 {
			mask = args[2]
		}
		var value uint32
		value, err = emu.Read32(args[0])
		if err == nil && value&mask != args[1]&mask {
			err = &ErrExpect{Addr: args[0], Want: args[1], Got: value, Mask: mask}
		}
	case OP_IRQ:
		want := args[0] != 0
		if emu.Irq().IsSet() != want {
			err = &ErrIrq{Want: want}
		}
	case OP_RESET:
		emu.Reset()
	}

	return
}

// Run executes a program from the start, until it ends or fails.
func (emu *Emulator) Run(prog *Program) (err error) {
	emu.Program = prog
	emu.Rewind()

	for done, err := emu.Tick(); !done; done, err = emu.Tick() {
		if err != nil {
			return err
		}
	}

	return
}

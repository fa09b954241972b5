// Package register models a collection of 32-bit memory mapped registers,
// each built from named bit fields with their own access mode and side
// effect callbacks.
//
// A collection is declared once, when the owning peripheral is created, and
// then dispatched by offset:
//
//	regs := register.NewCollection()
//	regs.Define(0x08, "CONTROL").
//		WithFlag(0, register.ReadWrite, "IntEna")
//
// Reads compose the readable fields of the register, writes apply each
// field's mode in turn, then run the change callbacks of the fields whose
// value moved.
package register

import (
	"fmt"
	"iter"
	"maps"
	"slices"
)

// FieldMode is the access policy of a field.
type FieldMode uint8

const (
	Read            FieldMode = 1 << iota // Field value is visible on read.
	Write                                 // Written value replaces the field.
	WriteOneToClear                       // Written 1 bits clear the field.

	ReadWrite = Read | Write // Plain storage.
)

// CanRead returns true if the field is visible on read.
func (mode FieldMode) CanRead() bool {
	return mode&Read != 0
}

// CanWrite returns true if a bus write can modify the field.
func (mode FieldMode) CanWrite() bool {
	return mode&(Write|WriteOneToClear) != 0
}

// ChangeFunc is called with the old and new value of a field after a
// register write has modified it.
type ChangeFunc func(old, value uint32)

// WriteFunc is called with the old and written value of a field during a
// register write. A non-nil error aborts the write.
type WriteFunc func(old, value uint32) error

// Option configures a field.
type Option func(f *field)

// WithChange installs a change callback.
func WithChange(fn ChangeFunc) Option {
	return func(f *field) {
		f.change = fn
	}
}

// WithWrite installs a write callback.
func WithWrite(fn WriteFunc) Option {
	return func(f *field) {
		f.write = fn
	}
}

// field is the shared implementation behind Flag and Value.
type field struct {
	name     string
	position uint
	width    uint
	mode     FieldMode
	value    uint32
	change   ChangeFunc
	write    WriteFunc
}

func (f *field) mask() uint32 {
	if f.width == 32 {
		return ^uint32(0)
	}
	return (uint32(1) << f.width) - 1
}

// extract the field bits from a register value.
func (f *field) extract(value uint32) uint32 {
	return (value >> f.position) & f.mask()
}

// Register is a single double word register.
type Register struct {
	Name   string // Name of the register.
	Offset uint32 // Byte offset in the collection.

	fields []*field
	used   uint32
}

func (reg *Register) add(f *field) {
	if f.width == 0 || f.position+f.width > 32 {
		panic(fmt.Sprintf("register %v: field %v [%d:%d) out of range",
			reg.Name, f.name, f.position, f.position+f.width))
	}

	bits := f.mask() << f.position
	if reg.used&bits != 0 {
		panic(fmt.Sprintf("register %v: field %v overlaps", reg.Name, f.name))
	}

	reg.used |= bits
	reg.fields = append(reg.fields, f)
}

// WithFlag adds a single bit field to the register and returns it.
func (reg *Register) WithFlag(bit uint, mode FieldMode, name string, opts ...Option) *Flag {
	f := &field{name: name, position: bit, width: 1, mode: mode}
	for _, opt := range opts {
		opt(f)
	}
	reg.add(f)

	return &Flag{f: f}
}

// WithValueField adds a multi-bit field to the register and returns it.
func (reg *Register) WithValueField(position, width uint, mode FieldMode, name string, opts ...Option) *Value {
	f := &field{name: name, position: position, width: width, mode: mode}
	for _, opt := range opts {
		opt(f)
	}
	reg.add(f)

	return &Value{f: f}
}

// Read composes the readable fields of the register.
func (reg *Register) Read() (value uint32) {
	for _, f := range reg.fields {
		if f.mode.CanRead() {
			value |= f.value << f.position
		}
	}

	return
}

// Write applies a bus write to every field of the register. All write
// callbacks run before any field is stored, so a failed write leaves the
// register untouched.
func (reg *Register) Write(value uint32) (err error) {
	type pending struct {
		f    *field
		old  uint32
		next uint32
	}

	var writes []pending

	for _, f := range reg.fields {
		if !f.mode.CanWrite() {
			continue
		}

		old := f.value
		bits := f.extract(value)

		next := old
		if f.mode&Write != 0 {
			next = bits
		}
		if f.mode&WriteOneToClear != 0 {
			next &^= bits
		}

		if f.write != nil {
			err = f.write(old, bits)
			if err != nil {
				return
			}
		}

		writes = append(writes, pending{f: f, old: old, next: next})
	}

	for _, w := range writes {
		// Write only fields never hold their value.
		if w.f.mode.CanRead() {
			w.f.value = w.next
		}
	}

	for _, w := range writes {
		if w.f.change != nil && w.f.value != w.old {
			w.f.change(w.old, w.f.value)
		}
	}

	return
}

// Fields returns the names of the fields, in declaration order.
func (reg *Register) Fields() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, f := range reg.fields {
			if !yield(f.name) {
				return
			}
		}
	}
}

// Collection is a set of registers addressed by byte offset.
type Collection struct {
	registers map[uint32]*Register
}

// NewCollection creates an empty register collection.
func NewCollection() *Collection {
	return &Collection{
		registers: make(map[uint32]*Register),
	}
}

// Define declares a new register at a double word aligned offset.
func (col *Collection) Define(offset uint32, name string) *Register {
	if offset&3 != 0 {
		panic(fmt.Sprintf("register %v: offset %#x is not double word aligned", name, offset))
	}
	if _, ok := col.registers[offset]; ok {
		panic(fmt.Sprintf("register %v: offset %#x already defined", name, offset))
	}

	reg := &Register{Name: name, Offset: offset}
	col.registers[offset] = reg

	return reg
}

// Lookup returns the register at an offset.
func (col *Collection) Lookup(offset uint32) (reg *Register, ok bool) {
	reg, ok = col.registers[offset]
	return
}

// Read returns the value of the register at an offset.
// Undefined offsets read as zero.
func (col *Collection) Read(offset uint32) uint32 {
	reg, ok := col.registers[offset]
	if !ok {
		return 0
	}

	return reg.Read()
}

// Write stores a value to the register at an offset.
// Writes to undefined offsets are ignored.
func (col *Collection) Write(offset uint32, value uint32) (err error) {
	reg, ok := col.registers[offset]
	if !ok {
		return
	}

	err = reg.Write(value)
	if err != nil {
		err = &ErrField{Register: reg.Name, Offset: offset, Err: err}
	}

	return
}

// Registers iterates over the registers in offset order.
func (col *Collection) Registers() iter.Seq[*Register] {
	return func(yield func(*Register) bool) {
		for _, offset := range slices.Sorted(maps.Keys(col.registers)) {
			if !yield(col.registers[offset]) {
				return
			}
		}
	}
}

// Defines returns the register names and their offsets, suitable for use
// as script equates.
func (col *Collection) Defines() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for reg := range col.Registers() {
			if !yield(reg.Name, fmt.Sprintf("%#x", reg.Offset)) {
				return
			}
		}
	}
}

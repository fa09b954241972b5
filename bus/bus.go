// Package bus provides a 32-bit system bus, routing double word accesses to
// the memory mapped devices attached to it.
package bus

import (
	"cmp"
	"iter"
	"slices"
)

// Device is a memory mapped peripheral addressed in double words.
type Device interface {
	// ReadDoubleWord reads the double word at a device relative offset.
	ReadDoubleWord(offset uint32) uint32
	// WriteDoubleWord writes the double word at a device relative offset.
	WriteDoubleWord(offset uint32, value uint32) error
	// Size of the device window, in bytes.
	Size() uint32
}

// Resetter is implemented by devices that have a reset state.
type Resetter interface {
	Reset()
}

// Mapping places a device on the bus.
type Mapping struct {
	Base   uint32 // First address of the window.
	Name   string // Name of the device.
	Device Device // Device at the window.
}

// Contains returns true if the address is in the mapping window.
func (m *Mapping) Contains(addr uint32) bool {
	return addr >= m.Base && uint64(addr) < m.end()
}

func (m *Mapping) end() uint64 {
	return uint64(m.Base) + uint64(m.Device.Size())
}

// Bus is the system bus.
type Bus struct {
	mappings []*Mapping // Sorted by base address.
}

// Map attaches a device at a base address.
func (bus *Bus) Map(base uint32, name string, dev Device) (err error) {
	m := &Mapping{Base: base, Name: name, Device: dev}
	if dev.Size() == 0 || m.end() > 1<<32 {
		err = &ErrMap{Name: name, Base: base, Err: ErrMapRange}
		return
	}

	for _, other := range bus.mappings {
		if uint64(m.Base) < other.end() && uint64(other.Base) < m.end() {
			err = &ErrMap{Name: name, Base: base, Err: ErrMapOverlap}
			return
		}
	}

	bus.mappings = append(bus.mappings, m)
	slices.SortFunc(bus.mappings, func(a, b *Mapping) int {
		return cmp.Compare(a.Base, b.Base)
	})

	return
}

// Mappings iterates over the mapped devices, in address order.
func (bus *Bus) Mappings() iter.Seq[*Mapping] {
	return slices.Values(bus.mappings)
}

// decode finds the mapping for a double word access.
func (bus *Bus) decode(addr uint32) (m *Mapping, err error) {
	if addr&3 != 0 {
		err = ErrUnaligned
		return
	}

	n, found := slices.BinarySearchFunc(bus.mappings, addr, func(m *Mapping, addr uint32) int {
		return cmp.Compare(m.Base, addr)
	})
	if !found {
		n--
	}
	if n >= 0 && bus.mappings[n].Contains(addr) {
		m = bus.mappings[n]
		return
	}

	err = ErrUnmapped
	return
}

// Read32 reads a double word from the bus.
func (bus *Bus) Read32(addr uint32) (value uint32, err error) {
	m, err := bus.decode(addr)
	if err != nil {
		err = &ErrBusFault{Addr: addr, Err: err}
		return
	}

	value = m.Device.ReadDoubleWord(addr - m.Base)
	return
}

// Write32 writes a double word to the bus.
func (bus *Bus) Write32(addr uint32, value uint32) (err error) {
	m, err := bus.decode(addr)
	if err == nil {
		err = m.Device.WriteDoubleWord(addr-m.Base, value)
	}
	if err != nil {
		err = &ErrBusFault{Addr: addr, Write: true, Err: err}
	}

	return
}

// Reset resets every mapped device that supports it.
func (bus *Bus) Reset() {
	for _, m := range bus.mappings {
		if r, ok := m.Device.(Resetter); ok {
			r.Reset()
		}
	}
}

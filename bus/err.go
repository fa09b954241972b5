package bus

import (
	"errors"

	"github.com/ezrec/comsoc/translate"
)

var f = translate.From

var (
	// Access errors
	ErrUnaligned = errors.New(f("unaligned access"))
	ErrUnmapped  = errors.New(f("no device mapped"))

	// Mapping errors
	ErrMapOverlap = errors.New(f("overlaps another device"))
	ErrMapRange   = errors.New(f("window outside the address space"))
)

// ErrBusFault reports a failed bus access.
type ErrBusFault struct {
	Addr  uint32
	Write bool
	Err   error
}

func (err *ErrBusFault) Error() string {
	if err.Write {
		return f("bus write %#08x: %v", err.Addr, err.Err)
	}
	return f("bus read %#08x: %v", err.Addr, err.Err)
}

func (err *ErrBusFault) Unwrap() error {
	return err.Err
}

// ErrMap reports a device that could not be mapped.
type ErrMap struct {
	Name string
	Base uint32
	Err  error
}

func (err *ErrMap) Error() string {
	return f("map %v at %#08x: %v", err.Name, err.Base, err.Err)
}

func (err *ErrMap) Unwrap() error {
	return err.Err
}

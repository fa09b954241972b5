package register

import (
	"github.com/ezrec/comsoc/translate"
)

var f = translate.From

// ErrField reports a register write aborted by a field side effect.
type ErrField struct {
	Register string
	Offset   uint32
	Err      error
}

func (err *ErrField) Error() string {
	return f("register %v (%#x) %v", err.Register, err.Offset, err.Err)
}

func (err *ErrField) Unwrap() error {
	return err.Err
}

package spi

import (
	"errors"

	"github.com/ezrec/comsoc/translate"
)

var f = translate.From

var (
	// Script errors
	ErrScriptTransmit = errors.New(f("transmit(value, state) not defined"))
	ErrScriptReply    = errors.New(f("transmit did not return an int"))
)

// ErrScript reports a failure in a Starlark peripheral script.
type ErrScript struct {
	Name string
	Err  error
}

func (err *ErrScript) Error() string {
	return f("script %v: %v", err.Name, err.Err)
}

func (err *ErrScript) Unwrap() error {
	return err.Err
}

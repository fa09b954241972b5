package emulator

import (
	"errors"

	"github.com/ezrec/comsoc/translate"
)

var f = translate.From

var (
	// Script syntax errors
	ErrEquateSyntax    = errors.New(f(".equ syntax"))
	ErrEquateDuplicate = errors.New(f(".equ duplicated"))
	ErrOpInvalid       = errors.New(f("operation invalid"))
	ErrArgCount        = errors.New(f("wrong number of arguments"))
)

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	LineNo int
	Op     Op
	Err    error
}

func (err *ErrRuntime) Error() string {
	return f("line %d %v: %v", err.LineNo, err.Op, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}

// ErrSyntax indicates the location of a script syntax error.
type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err *ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err *ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

// ErrExpect is a failed expect statement.
type ErrExpect struct {
	Addr uint32
	Want uint32
	Got  uint32
	Mask uint32
}

func (err *ErrExpect) Error() string {
	return f("expect %#08x: want %#08x got %#08x (mask %#08x)", err.Addr, err.Want, err.Got, err.Mask)
}

// ErrIrq is a failed irq statement.
type ErrIrq struct {
	Want bool
}

func (err *ErrIrq) Error() string {
	return f("irq: want %v got %v", err.Want, !err.Want)
}

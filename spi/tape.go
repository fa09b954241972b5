package spi

import (
	"io"
)

// maxEmptyReads is how many (0, nil) reads Input may return in a row before
// it is treated as exhausted.
const maxEmptyReads = 100

// Tape is a peripheral backed by byte streams. Every byte sent is written to
// Output, and each reply is the next byte read from Input.
type Tape struct {
	Input  io.Reader
	Output io.Writer

	exhausted bool
}

var _ Peripheral = (*Tape)(nil)

// Transmit writes the byte to Output, and returns the next Input byte, or
// Idle once Input has run dry.
func (tp *Tape) Transmit(value byte) byte {
	if tp.Output != nil {
		tp.Output.Write([]byte{value})
	}

	if tp.Input == nil || tp.exhausted {
		return Idle
	}

	var one [1]byte
	for range maxEmptyReads {
		n, err := tp.Input.Read(one[:])
		if n == 1 {
			return one[0]
		}
		if err != nil {
			break
		}
	}

	// Input failed, or stopped making progress.
	tp.exhausted = true
	return Idle
}

// Reset allows the input to be read again, if a new stream was installed.
func (tp *Tape) Reset() {
	tp.exhausted = false
}

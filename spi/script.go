package spi

import (
	"log"
	"math/big"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Script is a peripheral whose replies are computed by a Starlark program.
//
// The program must define transmit(value, state), returning the reply byte
// as an int. state is a dict preserved between calls. If the program defines
// reset(state), it is called when the peripheral is reset, after state has
// been emptied.
type Script struct {
	Verbose bool // If set, logs each transfer.

	name     string
	thread   *starlark.Thread
	transmit starlark.Callable
	reset    starlark.Callable
	state    *starlark.Dict
}

var _ Peripheral = (*Script)(nil)

// scriptPredeclared are the names visible to every script.
var scriptPredeclared = starlark.StringDict{
	"IDLE": starlark.MakeInt(int(Idle)),
}

// NewScript compiles a Starlark program. src may be anything accepted by
// starlark.ExecFileOptions: a string, a []byte or an io.Reader.
func NewScript(name string, src any) (sc *Script, err error) {
	thread := &starlark.Thread{
		Name: name,
		Print: func(_ *starlark.Thread, msg string) {
			log.Printf("%v: %v", name, msg)
		},
	}

	opts := syntax.FileOptions{}
	globals, err := starlark.ExecFileOptions(&opts, thread, name, src, scriptPredeclared)
	if err != nil {
		err = &ErrScript{Name: name, Err: err}
		return
	}

	transmit, ok := globals["transmit"].(starlark.Callable)
	if !ok {
		err = &ErrScript{Name: name, Err: ErrScriptTransmit}
		return
	}

	sc = &Script{
		name:     name,
		thread:   thread,
		transmit: transmit,
		state:    starlark.NewDict(0),
	}

	if reset, ok := globals["reset"].(starlark.Callable); ok {
		sc.reset = reset
	}

	return
}

// Name of the script.
func (sc *Script) Name() string {
	return sc.name
}

// Transmit calls the script's transmit function. Script failures are logged,
// and reply Idle.
func (sc *Script) Transmit(value byte) (reply byte) {
	reply = Idle

	args := starlark.Tuple{starlark.MakeInt(int(value)), sc.state}
	rc, err := starlark.Call(sc.thread, sc.transmit, args, nil)
	if err != nil {
		log.Printf("%v", &ErrScript{Name: sc.name, Err: err})
		return
	}

	v, ok := rc.(starlark.Int)
	if !ok {
		log.Printf("%v", &ErrScript{Name: sc.name, Err: ErrScriptReply})
		return
	}

	// Only the low byte goes back on the wire.
	reply = byte(new(big.Int).And(v.BigInt(), big.NewInt(0xff)).Uint64())

	if sc.Verbose {
		log.Printf("%v: %#02x -> %#02x", sc.name, value, reply)
	}

	return
}

// Reset empties the script state and calls the script's reset function.
func (sc *Script) Reset() {
	sc.state = starlark.NewDict(0)

	if sc.reset == nil {
		return
	}

	_, err := starlark.Call(sc.thread, sc.reset, starlark.Tuple{sc.state}, nil)
	if err != nil {
		log.Printf("%v", &ErrScript{Name: sc.name, Err: err})
	}
}

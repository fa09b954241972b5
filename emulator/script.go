// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Op is a bus script operation.
type Op int

//go:generate go tool stringer -linecomment -type=Op
const (
	OP_WRITE  = Op(0) // write
	OP_READ   = Op(1) // read
	OP_EXPECT = Op(2) // expect
	OP_IRQ    = Op(3) // irq
	OP_RESET  = Op(4) // reset
)

// opInfo is the argument count of each operation, by spelling.
//
//	write ADDR VALUE
//	read ADDR
//	expect ADDR VALUE [MASK]
//	irq LEVEL
//	reset
var opInfo = map[string]struct {
	op      Op
	minArgs int
	maxArgs int
}{
	OP_WRITE.String():  {OP_WRITE, 2, 2},
	OP_READ.String():   {OP_READ, 1, 1},
	OP_EXPECT.String(): {OP_EXPECT, 2, 3},
	OP_IRQ.String():    {OP_IRQ, 1, 1},
	OP_RESET.String():  {OP_RESET, 0, 0},
}

// Statement is a single parsed script line.
type Statement struct {
	LineNo int      // Source line number.
	Line   string   // Source text.
	Op     Op       // Operation.
	Args   []string // Arguments, with equates expanded.

	// Equates defined before the statement, visible to $(...) arguments.
	Equate map[string]string
}

// Program is a parsed bus script.
type Program struct {
	Statements []Statement
	Equate     map[string]string // Equates in effect at the end of parsing.

	scope map[string]string // Equate snapshot shared by statements, nil if stale.
}

// Parser reads bus scripts.
type Parser struct {
	Verbose bool // If set, logs each parsed statement.

	predefine map[string]string
}

// Predefine defines an equate visible to every parsed script.
func (ps *Parser) Predefine(equ string, value string) {
	if ps.predefine == nil {
		ps.predefine = map[string]string{equ: value}
	} else {
		ps.predefine[equ] = value
	}
}

// reWord splits a line into words, keeping $(...) expressions whole.
var reWord = regexp.MustCompile(`\$\([^\$]*\)|\S+`)

// Parse reads a bus script.
func (ps *Parser) Parse(input io.Reader) (prog *Program, err error) {
	prog = &Program{
		Equate: maps.Clone(ps.predefine),
	}
	if prog.Equate == nil {
		prog.Equate = map[string]string{}
	}

	scanner := bufio.NewScanner(input)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := scanner.Text()

		err = ps.parseLine(prog, line, lineno)
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
			return
		}
	}

	err = scanner.Err()
	return
}

// parseLine parses a single line into the program.
func (ps *Parser) parseLine(prog *Program, line string, lineno int) (err error) {
	text, _, _ := strings.Cut(line, "#")
	words := reWord.FindAllString(text, -1)
	if len(words) == 0 {
		return
	}

	// .equ NAME VALUE
	if words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := prog.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		prog.Equate[words[1]] = words[2]
		prog.scope = nil
		return
	}

	info, ok := opInfo[strings.ToLower(words[0])]
	if !ok {
		err = ErrOpInvalid
		return
	}

	args := words[1:]
	if len(args) < info.minArgs || len(args) > info.maxArgs {
		err = ErrArgCount
		return
	}

	for n, arg := range args {
		equate, ok := prog.Equate[arg]
		if ok {
			args[n] = equate
		}
	}

	if ps.Verbose {
		log.Printf("%d: %v %v", lineno, info.op, args)
	}

	if prog.scope == nil {
		prog.scope = maps.Clone(prog.Equate)
	}

	prog.Statements = append(prog.Statements, Statement{
		LineNo: lineno,
		Line:   line,
		Op:     info.op,
		Args:   args,
		Equate: prog.scope,
	})

	return
}

// valueOf returns the value of a number.
func valueOf(word string) (value uint32, err error) {
	invert := false
	if len(word) > 1 && word[0] == '~' {
		invert = true
		word = word[1:]
	}

	v64, err := strconv.ParseInt(word, 0, 33)
	if err != nil || v64 > 0xffffffff || v64 < -int64(0x80000000) {
		err = ErrParseNumber(word)
		return
	}

	value = uint32(v64)
	if invert {
		value = ^value
	}

	return
}

// evaluate returns the value of a statement argument. $(...) arguments are
// evaluated as Starlark expressions, with every numeric equate in scope.
func evaluate(arg string, equate map[string]string, extra starlark.StringDict) (value uint32, err error) {
	if !strings.HasPrefix(arg, "$(") || !strings.HasSuffix(arg, ")") {
		value, err = valueOf(arg)
		return
	}

	expr := arg[2 : len(arg)-1]

	pred := starlark.StringDict{}
	for key, str := range equate {
		value32, err := valueOf(str)
		if err != nil {
			// Ignore non-numeric equates.
			continue
		}
		pred[key] = starlark.MakeUint64(uint64(value32))
	}
	for key, val := range extra {
		pred[key] = val
	}

	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrParseExpression(expr), err)
		return
	}

	st_int, ok := dict["rc"].(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok || st_int64 > 0xffffffff || st_int64 < -int64(0x80000000) {
		err = ErrParseExpression(expr)
		return
	}

	value = uint32(st_int64)
	return
}

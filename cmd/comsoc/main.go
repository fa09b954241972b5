// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"flag"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/ezrec/comsoc/emulator"
	"github.com/ezrec/comsoc/spi"
)

func main() {
	var script string
	var peripheral string
	var starScript string
	var input string
	var output string
	var base string
	var verbose bool

	flag.StringVar(&script, "s", "-", "Bus script to run")
	flag.StringVar(&peripheral, "p", "echo", "SPI peripheral: echo, tape, script or none")
	flag.StringVar(&starScript, "x", "", ".star file for the script peripheral")
	flag.StringVar(&input, "i", "", "Tape peripheral input")
	flag.StringVar(&output, "o", "", "Tape peripheral output")
	flag.StringVar(&base, "b", "0x"+strconv.FormatUint(uint64(emulator.COM_BASE), 16), "COM block base address")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	base64, err := strconv.ParseUint(base, 0, 32)
	if err != nil {
		log.Fatalf("-b %v: %v", base, err)
	}

	emu, err := emulator.NewEmulator(uint32(base64))
	if err != nil {
		log.Fatal(err)
	}
	emu.Verbose = verbose

	switch peripheral {
	case "echo":
		emu.Attach(&spi.Echo{})
	case "tape":
		tape := &spi.Tape{}
		if len(input) != 0 {
			inf, err := os.Open(input)
			if err != nil {
				log.Fatalf("%v: %v", input, err)
			}
			defer inf.Close()
			tape.Input = inf
		}
		if len(output) != 0 {
			ouf, err := os.Create(output)
			if err != nil {
				log.Fatalf("%v: %v", output, err)
			}
			defer ouf.Close()
			tape.Output = ouf
		}
		emu.Attach(tape)
	case "script":
		src, err := os.ReadFile(starScript)
		if err != nil {
			log.Fatalf("-x %v: %v", starScript, err)
		}
		sc, err := spi.NewScript(starScript, src)
		if err != nil {
			log.Fatal(err)
		}
		sc.Verbose = verbose
		emu.Attach(sc)
	case "none":
	default:
		log.Fatalf("-p %v: unknown peripheral", peripheral)
	}

	var inf io.Reader = os.Stdin
	if script != "-" {
		f, err := os.Open(script)
		if err != nil {
			log.Fatalf("%v: %v", script, err)
		}
		defer f.Close()
		inf = f
	}

	prog, err := emu.Parser().Parse(inf)
	if err != nil {
		log.Fatalf("%v: %v", script, err)
	}

	emu.Reset()
	err = emu.Run(prog)
	if verbose {
		log.Printf("\n%v", emu.Com)
	}
	if err != nil {
		log.Fatalf("%v: %v", script, err)
	}
}

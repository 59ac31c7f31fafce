// Command i8086run loads a flat binary image and steps the machine
// through it, optionally tracing each decoded instruction.
package main

import (
	"flag"
	"fmt"
	"os"

	"go8086vm/machine"
	"go8086vm/machine/disasm"
)

func main() {
	steps := flag.Int("steps", 1000, "maximum number of instructions to execute")
	trace := flag.Bool("disasm", false, "print each instruction before executing it")
	dump := flag.Bool("dump", true, "dump final register state")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: i8086run [-steps N] [-disasm] [-dump=false] <program>")
		os.Exit(2)
	}

	if err := run(flag.Arg(0), *steps, *trace, *dump); err != nil {
		fmt.Fprintln(os.Stderr, "i8086run:", err)
		os.Exit(1)
	}
}

func run(path string, maxSteps int, trace, dump bool) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening program: %w", err)
	}
	defer f.Close()

	m := machine.NewMachine()
	if err := m.LoadProgramReader(f); err != nil {
		return fmt.Errorf("loading program: %w", err)
	}

	for i := 0; i < maxSteps; i++ {
		if trace {
			ip := m.GetRegister(machine.IP)
			opcode := m.Memory().ReadByte(ip)
			rest := m.Memory().Bytes()[int(ip)+1:]
			if text, _, err := disasm.One(opcode, rest); err == nil {
				fmt.Printf("%04X  %s\n", ip, text)
			}
		}
		if err := m.Step(); err != nil {
			if dump {
				m.DumpState(os.Stdout)
			}
			return fmt.Errorf("step %d: %w", i, err)
		}
	}

	if dump {
		m.DumpState(os.Stdout)
	}
	return nil
}

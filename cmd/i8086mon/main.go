// Command i8086mon is an interactive monitor for stepping a loaded
// program one instruction at a time, setting breakpoints, running free
// until one is hit, and inspecting registers, flags, and memory in
// between.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/term"

	"go8086vm/machine"
	"go8086vm/machine/disasm"
)

// runBudget bounds a free-run "continue" so a program with no
// breakpoint ahead of it cannot hang the monitor forever.
const runBudget = 1_000_000

func main() {
	path := flag.String("program", "", "flat binary program to load")
	flag.Parse()

	mon := &monitor{m: machine.NewMachine(), breakpoints: map[uint16]bool{}}
	if *path != "" {
		f, err := os.Open(*path)
		if err != nil {
			fmt.Fprintln(os.Stderr, "i8086mon:", err)
			os.Exit(1)
		}
		err = mon.m.LoadProgramReader(f)
		f.Close()
		if err != nil {
			fmt.Fprintln(os.Stderr, "i8086mon:", err)
			os.Exit(1)
		}
	}

	t := term.NewTerminal(struct {
		io.Reader
		io.Writer
	}{os.Stdin, os.Stdout}, "8086> ")

	fmt.Fprintln(os.Stdout, "i8086mon - type 'help' for commands")
	for {
		line, err := t.ReadLine()
		if err != nil {
			if err != io.EOF {
				fmt.Fprintln(os.Stderr, "i8086mon:", err)
			}
			return
		}

		cmd := parseCommand(line)
		if cmd.name == "" {
			continue
		}
		if !mon.dispatch(t, cmd) {
			return
		}
	}
}

// monitorCommand is a parsed monitor input line: a command name and its
// whitespace-separated arguments.
type monitorCommand struct {
	name string
	args []string
}

func parseCommand(input string) monitorCommand {
	input = strings.TrimSpace(input)
	if input == "" {
		return monitorCommand{}
	}
	fields := strings.Fields(input)
	return monitorCommand{name: strings.ToLower(fields[0]), args: fields[1:]}
}

// parseAddress accepts $hex, 0xhex, #decimal, or bare hex, matching the
// conventions of classic machine-code monitors.
func parseAddress(s string) (uint16, bool) {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "#"):
		v, err := strconv.ParseUint(s[1:], 10, 16)
		return uint16(v), err == nil
	case strings.HasPrefix(s, "$"):
		v, err := strconv.ParseUint(s[1:], 16, 16)
		return uint16(v), err == nil
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		v, err := strconv.ParseUint(s[2:], 16, 16)
		return uint16(v), err == nil
	default:
		v, err := strconv.ParseUint(s, 16, 16)
		return uint16(v), err == nil
	}
}

var registerByName = map[string]machine.Reg{
	"ax": machine.AX, "bx": machine.BX, "cx": machine.CX, "dx": machine.DX,
	"sp": machine.SP, "bp": machine.BP, "si": machine.SI, "di": machine.DI,
	"cs": machine.CS, "ds": machine.DS, "ss": machine.SS, "es": machine.ES,
	"ip": machine.IP, "f": machine.F,
	"al": machine.AL, "ah": machine.AH, "bl": machine.BL, "bh": machine.BH,
	"cl": machine.CL, "ch": machine.CH, "dl": machine.DL, "dh": machine.DH,
}

// monitor holds the state that must survive across dispatch calls: the
// machine itself and the breakpoints set on it.
type monitor struct {
	m           *machine.Machine
	breakpoints map[uint16]bool
}

// dispatch executes one parsed command, writing its output to out. It
// returns false when the monitor should exit.
func (mon *monitor) dispatch(out io.Writer, cmd monitorCommand) bool {
	m := mon.m
	switch cmd.name {
	case "help", "?":
		fmt.Fprintln(out, "commands: step [n], continue, regs, set <reg> <val>,")
		fmt.Fprintln(out, "  mem <addr> [count], disasm <addr> [count],")
		fmt.Fprintln(out, "  break <addr>, bc <addr>|*, bl, reset, quit")

	case "step", "s":
		n := 1
		if len(cmd.args) > 0 {
			if v, err := strconv.Atoi(cmd.args[0]); err == nil {
				n = v
			}
		}
		for i := 0; i < n; i++ {
			if err := m.Step(); err != nil {
				fmt.Fprintln(out, "fault:", err)
				break
			}
		}
		m.DumpState(out)

	case "continue", "run", "g":
		mon.runFree(out)

	case "regs", "r":
		m.DumpState(out)

	case "set":
		if len(cmd.args) != 2 {
			fmt.Fprintln(out, "usage: set <reg> <value>")
			break
		}
		reg, ok := registerByName[strings.ToLower(cmd.args[0])]
		if !ok {
			fmt.Fprintln(out, "unknown register:", cmd.args[0])
			break
		}
		v, ok := parseAddress(cmd.args[1])
		if !ok {
			fmt.Fprintln(out, "bad value:", cmd.args[1])
			break
		}
		m.SetRegister(reg, v)

	case "mem", "m":
		if len(cmd.args) < 1 {
			fmt.Fprintln(out, "usage: mem <addr> [count]")
			break
		}
		addr, ok := parseAddress(cmd.args[0])
		if !ok {
			fmt.Fprintln(out, "bad address:", cmd.args[0])
			break
		}
		count := 16
		if len(cmd.args) > 1 {
			if v, err := strconv.Atoi(cmd.args[1]); err == nil {
				count = v
			}
		}
		dumpMemory(out, m, addr, count)

	case "disasm", "d":
		if len(cmd.args) < 1 {
			fmt.Fprintln(out, "usage: disasm <addr> [count]")
			break
		}
		addr, ok := parseAddress(cmd.args[0])
		if !ok {
			fmt.Fprintln(out, "bad address:", cmd.args[0])
			break
		}
		count := 10
		if len(cmd.args) > 1 {
			if v, err := strconv.Atoi(cmd.args[1]); err == nil {
				count = v
			}
		}
		for _, line := range disasm.Disassemble(m.Memory(), addr, count) {
			fmt.Fprintf(out, "%04X  %s\n", line.Addr, line.Text)
		}

	case "break", "b":
		if len(cmd.args) < 1 {
			fmt.Fprintln(out, "usage: break <addr>")
			break
		}
		addr, ok := parseAddress(cmd.args[0])
		if !ok {
			fmt.Fprintln(out, "bad address:", cmd.args[0])
			break
		}
		mon.breakpoints[addr] = true
		fmt.Fprintf(out, "breakpoint set at %04X\n", addr)

	case "bc":
		if len(cmd.args) < 1 {
			fmt.Fprintln(out, "usage: bc <addr>|*")
			break
		}
		if cmd.args[0] == "*" {
			mon.breakpoints = map[uint16]bool{}
			fmt.Fprintln(out, "all breakpoints cleared")
			break
		}
		addr, ok := parseAddress(cmd.args[0])
		if !ok {
			fmt.Fprintln(out, "bad address:", cmd.args[0])
			break
		}
		if mon.breakpoints[addr] {
			delete(mon.breakpoints, addr)
			fmt.Fprintf(out, "breakpoint cleared at %04X\n", addr)
		} else {
			fmt.Fprintf(out, "no breakpoint at %04X\n", addr)
		}

	case "bl":
		mon.listBreakpoints(out)

	case "reset":
		m.Reset()

	case "quit", "q", "exit":
		return false

	default:
		fmt.Fprintln(out, "unknown command:", cmd.name)
	}
	return true
}

func (mon *monitor) listBreakpoints(out io.Writer) {
	if len(mon.breakpoints) == 0 {
		fmt.Fprintln(out, "no breakpoints set")
		return
	}
	addrs := make([]uint16, 0, len(mon.breakpoints))
	for addr := range mon.breakpoints {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	for _, addr := range addrs {
		fmt.Fprintf(out, "%04X\n", addr)
	}
}

// runFree steps the machine until a breakpoint's IP is reached, a fault
// occurs, the step budget runs out, or the user interrupts with
// Ctrl-C, whichever comes first.
func (mon *monitor) runFree(out io.Writer) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	steps := 0
	for steps < runBudget {
		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "interrupted")
			mon.m.DumpState(out)
			return
		default:
		}

		if err := mon.m.Step(); err != nil {
			fmt.Fprintln(out, "fault:", err)
			mon.m.DumpState(out)
			return
		}
		steps++

		if mon.breakpoints[mon.m.GetRegister(machine.IP)] {
			fmt.Fprintf(out, "breakpoint hit at %04X (%d steps)\n", mon.m.GetRegister(machine.IP), steps)
			mon.m.DumpState(out)
			return
		}
	}
	fmt.Fprintf(out, "step budget exhausted (%d steps)\n", runBudget)
	mon.m.DumpState(out)
}

func dumpMemory(out io.Writer, m *machine.Machine, addr uint16, count int) {
	bytes := m.Memory().Bytes()
	for i := 0; i < count; i += 16 {
		fmt.Fprintf(out, "%04X ", int(addr)+i)
		for j := 0; j < 16 && i+j < count; j++ {
			idx := int(addr) + i + j
			if idx >= len(bytes) {
				break
			}
			fmt.Fprintf(out, "%02X ", bytes[idx])
		}
		fmt.Fprintln(out)
	}
}

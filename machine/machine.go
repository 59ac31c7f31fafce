// machine.go - the Machine type: register file + linear memory,
// program loading, and the fetch-decode-execute step loop (C7).
//
// (c) 2024-2026 go8086vm contributors - GPLv3 or later
package machine

import (
	"fmt"
	"io"
)

// Machine is the whole virtual CPU: registers, memory, and the
// fetch-decode-execute step. It is single-threaded and owned
// exclusively by whichever goroutine drives it.
type Machine struct {
	regs RegisterFile
	mem  LinearMemory
}

// NewMachine constructs a machine with zeroed memory and registers,
// except SP which starts at a non-zero stack top.
func NewMachine() *Machine {
	m := &Machine{}
	m.Reset()
	return m
}

// Reset returns the machine to its power-on state.
func (m *Machine) Reset() {
	m.regs.Reset()
	m.mem.Reset()
}

// LoadProgram copies program into the start of memory. The program
// must fit within MemorySize.
func (m *Machine) LoadProgram(program []byte) error {
	if len(program) > MemorySize {
		return fmt.Errorf("%w: %d bytes into %d", ErrProgramTooLarge, len(program), MemorySize)
	}
	copy(m.mem.Bytes(), program)
	return nil
}

// LoadProgramReader reads all of r and loads it as the program.
func (m *Machine) LoadProgramReader(r io.Reader) error {
	program, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("reading program: %w", err)
	}
	return m.LoadProgram(program)
}

// GetRegister and SetRegister give hosts and tests direct register
// access.
func (m *Machine) GetRegister(r Reg) uint16     { return m.regs.Get(r) }
func (m *Machine) SetRegister(r Reg, v uint16)  { m.regs.Set(r, v) }

// Memory exposes the linear memory for read/write access and test
// setup.
func (m *Machine) Memory() *LinearMemory { return &m.mem }

// EffectiveAddress resolves a decoded memory operand against the
// current register file: displacement + base + index, mod 2^16.
func (m *Machine) EffectiveAddress(addr MemAddress) uint16 {
	ea := addr.Displacement
	if addr.HasBase {
		ea += m.regs.Get(addr.Base)
	}
	if addr.HasIndex {
		ea += m.regs.Get(addr.Index)
	}
	return ea
}

// Step fetches the opcode at IP, decodes it, executes it, and
// advances IP by the instruction's size unless execution set IP
// itself (the jump family). It returns any decode error or any fault
// (memory-bounds violation, divide by zero) raised during execution.
func (m *Machine) Step() (err error) {
	defer func() {
		if r := recover(); r != nil {
			if f, ok := r.(machineFault); ok {
				err = f.err
				return
			}
			panic(r)
		}
	}()

	ip := m.regs.Get(IP)
	opcodeByte := m.mem.ReadByte(ip)
	rest := m.mem.Bytes()[int(ip)+1:]

	instr, decodeErr := Decode(opcodeByte, rest)
	if decodeErr != nil {
		return decodeErr
	}

	jumped := m.RunInstruction(instr)
	if !jumped {
		m.regs.Set(IP, ip+instr.Size)
	}
	return nil
}

// DumpState writes a human-readable register/flag snapshot to w. The
// exact format is a diagnostic convenience, not a contract.
func (m *Machine) DumpState(w io.Writer) {
	fmt.Fprintf(w, "AX=%04X BX=%04X CX=%04X DX=%04X\n",
		m.regs.Get(AX), m.regs.Get(BX), m.regs.Get(CX), m.regs.Get(DX))
	fmt.Fprintf(w, "SP=%04X BP=%04X SI=%04X DI=%04X\n",
		m.regs.Get(SP), m.regs.Get(BP), m.regs.Get(SI), m.regs.Get(DI))
	fmt.Fprintf(w, "CS=%04X DS=%04X SS=%04X ES=%04X IP=%04X\n",
		m.regs.Get(CS), m.regs.Get(DS), m.regs.Get(SS), m.regs.Get(ES), m.regs.Get(IP))
	fmt.Fprintf(w, "F=%04X [%s]\n", m.regs.Get(F), m.flagString())
}

func (m *Machine) flagString() string {
	set := func(flag Flag, name string) string {
		if m.GetFlag(flag) {
			return name
		}
		return "-"
	}
	return set(OVERFLOW, "O") + set(DIRECTION, "D") + set(INTERRUPT, "I") +
		set(TRAP, "T") + set(SIGN, "S") + set(ZERO, "Z") +
		set(AUXILIARY, "A") + set(PARITY, "P") + set(CARRY, "C")
}

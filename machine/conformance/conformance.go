// Package conformance runs gzip+JSON single-step fixture files against
// the machine package, in the shape popularized by the SingleStepTests
// per-opcode 8086/8088 test suites: each fixture names an instruction's
// encoding plus an initial and a final machine state, and a pass means
// the decode-then-execute step produces exactly that final state.
package conformance

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"

	"go8086vm/machine"
)

// TestCase is one fixture: a named instruction encoding plus the state
// it should start and end in.
type TestCase struct {
	Name    string `json:"name"`
	Initial State  `json:"initial"`
	Final   State  `json:"final"`
}

// State is a full machine snapshot: every architectural register plus a
// sparse list of [address, byte] RAM entries.
type State struct {
	Regs Regs       `json:"regs"`
	RAM  [][]uint32 `json:"ram"`
}

// Regs mirrors the fixture JSON's register block.
type Regs struct {
	AX    uint16 `json:"ax"`
	BX    uint16 `json:"bx"`
	CX    uint16 `json:"cx"`
	DX    uint16 `json:"dx"`
	SI    uint16 `json:"si"`
	DI    uint16 `json:"di"`
	BP    uint16 `json:"bp"`
	SP    uint16 `json:"sp"`
	IP    uint16 `json:"ip"`
	CS    uint16 `json:"cs"`
	DS    uint16 `json:"ds"`
	ES    uint16 `json:"es"`
	SS    uint16 `json:"ss"`
	Flags uint16 `json:"flags"`
}

// regFields pairs each Regs field with the machine.Reg it maps to, so
// apply/compare can iterate instead of repeating themselves per field.
var regFields = []struct {
	name string
	reg  machine.Reg
	get  func(Regs) uint16
}{
	{"AX", machine.AX, func(r Regs) uint16 { return r.AX }},
	{"BX", machine.BX, func(r Regs) uint16 { return r.BX }},
	{"CX", machine.CX, func(r Regs) uint16 { return r.CX }},
	{"DX", machine.DX, func(r Regs) uint16 { return r.DX }},
	{"SI", machine.SI, func(r Regs) uint16 { return r.SI }},
	{"DI", machine.DI, func(r Regs) uint16 { return r.DI }},
	{"BP", machine.BP, func(r Regs) uint16 { return r.BP }},
	{"SP", machine.SP, func(r Regs) uint16 { return r.SP }},
	{"IP", machine.IP, func(r Regs) uint16 { return r.IP }},
	{"CS", machine.CS, func(r Regs) uint16 { return r.CS }},
	{"DS", machine.DS, func(r Regs) uint16 { return r.DS }},
	{"ES", machine.ES, func(r Regs) uint16 { return r.ES }},
	{"SS", machine.SS, func(r Regs) uint16 { return r.SS }},
}

// flagMask covers the nine named flag bits of the F register; fixtures
// may carry other bits (reserved or unimplemented) that are not
// compared.
const flagMask = uint16(machine.CARRY | machine.PARITY | machine.AUXILIARY |
	machine.ZERO | machine.SIGN | machine.TRAP | machine.INTERRUPT |
	machine.DIRECTION | machine.OVERFLOW)

// LoadFile reads a gzip-compressed JSON array of TestCase from path.
func LoadFile(path string) ([]TestCase, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening fixture file: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("reading gzip fixture: %w", err)
	}
	defer gz.Close()

	var cases []TestCase
	if err := json.NewDecoder(gz).Decode(&cases); err != nil {
		return nil, fmt.Errorf("decoding fixture JSON: %w", err)
	}
	return cases, nil
}

// Result reports whether a single test case passed and, if not, every
// field that mismatched.
type Result struct {
	Name       string
	Passed     bool
	Mismatches []string
}

// Run applies tc.Initial, executes a single machine step, and compares
// the resulting state against tc.Final.
func Run(tc TestCase) Result {
	result := Result{Name: tc.Name, Passed: true}
	mismatch := func(format string, args ...any) {
		result.Passed = false
		result.Mismatches = append(result.Mismatches, fmt.Sprintf(format, args...))
	}

	m := machine.NewMachine()
	applyState(m, tc.Initial)

	if err := m.Step(); err != nil {
		mismatch("step failed: %v", err)
		return result
	}

	for _, f := range regFields {
		if got, want := m.GetRegister(f.reg), f.get(tc.Final.Regs); got != want {
			mismatch("%s: got 0x%04X, want 0x%04X", f.name, got, want)
		}
	}

	gotFlags := m.GetRegister(machine.F) & flagMask
	wantFlags := tc.Final.Regs.Flags & flagMask
	if gotFlags != wantFlags {
		mismatch("flags: got 0x%04X, want 0x%04X", gotFlags, wantFlags)
	}

	for _, entry := range tc.Final.RAM {
		if len(entry) < 2 {
			continue
		}
		addr, want := uint16(entry[0]), byte(entry[1])
		if got := m.Memory().ReadByte(addr); got != want {
			mismatch("RAM[0x%04X]: got 0x%02X, want 0x%02X", addr, got, want)
		}
	}

	return result
}

func applyState(m *machine.Machine, s State) {
	for _, f := range regFields {
		m.SetRegister(f.reg, f.get(s.Regs))
	}
	m.SetRegister(machine.F, s.Regs.Flags)

	for _, entry := range s.RAM {
		if len(entry) < 2 {
			continue
		}
		m.Memory().WriteByte(uint16(entry[0]), byte(entry[1]))
	}
}

// machine_test.go - Machine step-loop and loader unit tests
//
// (c) 2024-2026 go8086vm contributors - GPLv3 or later

package machine

import (
	"bytes"
	"errors"
	"testing"
)

func TestMachine_ResetStartsWithDefaultStackPointer(t *testing.T) {
	m := NewMachine()
	if got := m.GetRegister(SP); got != defaultStackPointer {
		t.Fatalf("SP: got %d, want %d", got, defaultStackPointer)
	}
}

func TestMachine_LoadProgramTooLarge(t *testing.T) {
	m := NewMachine()
	err := m.LoadProgram(make([]byte, MemorySize+1))
	if !errors.Is(err, ErrProgramTooLarge) {
		t.Fatalf("expected ErrProgramTooLarge, got %v", err)
	}
}

func TestMachine_LoadProgramReader(t *testing.T) {
	m := NewMachine()
	err := m.LoadProgramReader(bytes.NewReader([]byte{0x90, 0x90}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := m.Memory().ReadByte(0); got != 0x90 {
		t.Fatalf("got 0x%02X, want 0x90", got)
	}
}

func TestMachine_StepAdvancesIPBySize(t *testing.T) {
	m := NewMachine()
	// MOV AL,0x42 (2 bytes) then MOV AH,0x7A (2 bytes)
	program := []byte{0xB0, 0x42, 0xB4, 0x7A}
	if err := m.LoadProgram(program); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := m.Step(); err != nil {
		t.Fatalf("step 1: unexpected error: %v", err)
	}
	if got := m.GetRegister(IP); got != 2 {
		t.Fatalf("IP after step 1: got %d, want 2", got)
	}
	if got := m.GetRegister(AL); got != 0x42 {
		t.Fatalf("AL: got 0x%02X, want 0x42", got)
	}

	if err := m.Step(); err != nil {
		t.Fatalf("step 2: unexpected error: %v", err)
	}
	if got := m.GetRegister(IP); got != 4 {
		t.Fatalf("IP after step 2: got %d, want 4", got)
	}
	if got := m.GetRegister(AH); got != 0x7A {
		t.Fatalf("AH: got 0x%02X, want 0x7A", got)
	}
	if got := m.GetRegister(AX); got != 0x7A42 {
		t.Fatalf("AX: got 0x%04X, want 0x7A42", got)
	}
}

func TestMachine_StepDoesNotAdvanceIPOnJump(t *testing.T) {
	m := NewMachine()
	// JMP short -2: the offset is added to the jump's own IP (0), so IP
	// becomes 0xFFFE; advancing by the 2-byte size afterwards would
	// instead give 0.
	program := []byte{0xEB, 0xFE}
	if err := m.LoadProgram(program); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.Step(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := m.GetRegister(IP); got != 0xFFFE {
		t.Fatalf("IP: got 0x%04X, want 0xFFFE (jump target, no size advance)", got)
	}
}

func TestMachine_StepReturnsDecodeError(t *testing.T) {
	m := NewMachine()
	if err := m.LoadProgram([]byte{0xF1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := m.Step()
	if !errors.Is(err, ErrInvalidOpcode) {
		t.Fatalf("expected ErrInvalidOpcode, got %v", err)
	}
}

func TestMachine_StepConvertsFaultToError(t *testing.T) {
	m := NewMachine()
	m.SetRegister(CX, 0)
	// DIV16 CX with CX=0: 0xF7 ModR/M mod=11 reg=110(div) rm=001(CX)
	if err := m.LoadProgram([]byte{0xF7, 0b11_110_001}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := m.Step()
	if !errors.Is(err, ErrDivideByZero) {
		t.Fatalf("expected ErrDivideByZero, got %v", err)
	}
}

func TestMachine_PushPopExactStackBytes(t *testing.T) {
	m := NewMachine()
	sp0 := m.GetRegister(SP)
	m.SetRegister(BX, 0x1234)

	// PUSH BX (0x53) then POP CX (0x59)
	if err := m.LoadProgram([]byte{0x53, 0x59}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.Step(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lo := m.Memory().ReadByte(sp0 - 2)
	hi := m.Memory().ReadByte(sp0 - 1)
	if lo != 0x34 || hi != 0x12 {
		t.Fatalf("stack bytes: got %02X %02X, want 34 12", lo, hi)
	}

	if err := m.Step(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := m.GetRegister(CX); got != 0x1234 {
		t.Fatalf("CX after pop: got 0x%04X, want 0x1234", got)
	}
	if got := m.GetRegister(SP); got != sp0 {
		t.Fatalf("SP: got 0x%04X, want 0x%04X", got, sp0)
	}
}

func TestMachine_EffectiveAddressCombinesBaseAndIndex(t *testing.T) {
	m := NewMachine()
	m.SetRegister(BX, 0x0100)
	m.SetRegister(SI, 0x0010)
	addr := MemAddress{Base: BX, HasBase: true, Index: SI, HasIndex: true, Displacement: 0x0D0C}

	if got := m.EffectiveAddress(addr); got != 0x0100+0x0010+0x0D0C {
		t.Fatalf("got 0x%04X, want 0x%04X", got, uint16(0x0100+0x0010+0x0D0C))
	}
}

func TestMachine_DumpStateDoesNotPanic(t *testing.T) {
	m := NewMachine()
	var buf bytes.Buffer
	m.DumpState(&buf)
	if buf.Len() == 0 {
		t.Fatal("expected DumpState to write something")
	}
}

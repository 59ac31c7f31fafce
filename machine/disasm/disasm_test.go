package disasm

import (
	"testing"

	"go8086vm/machine"
)

func TestOne_MovImm8(t *testing.T) {
	text, size, err := One(0xB0, []byte{0x42})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "MOV AL, 0x42" {
		t.Errorf("got %q", text)
	}
	if size != 2 {
		t.Errorf("got size %d, want 2", size)
	}
}

func TestOne_MovRegMemWithBaseIndexDisp(t *testing.T) {
	data := []byte{0b10_001_000, 0x0C, 0x0D}
	text, _, err := One(0x8B, data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "MOV CX, [BX+SI+0x0D0C]" {
		t.Errorf("got %q", text)
	}
}

func TestOne_InvalidOpcode(t *testing.T) {
	_, _, err := One(0xF1, nil)
	if err == nil {
		t.Fatal("expected error for invalid opcode")
	}
}

func TestDisassemble_StopsOnInvalidOpcode(t *testing.T) {
	var mem machine.LinearMemory
	mem.WriteByte(0, 0x90) // NOP
	mem.WriteByte(1, 0xF1) // invalid

	lines := Disassemble(&mem, 0, 5)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %+v", len(lines), lines)
	}
	if lines[0].Text != "NOP" {
		t.Errorf("line 0: got %q", lines[0].Text)
	}
	if lines[1].Text != "???" {
		t.Errorf("line 1: got %q", lines[1].Text)
	}
}

func TestDisassemble_MultipleInstructionsAdvanceByExactSize(t *testing.T) {
	var mem machine.LinearMemory
	copy(mem.Bytes(), []byte{0xB0, 0x42, 0xB4, 0x7A, 0x90})

	lines := Disassemble(&mem, 0, 3)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0].Addr != 0 || lines[1].Addr != 2 || lines[2].Addr != 4 {
		t.Fatalf("unexpected addresses: %+v", lines)
	}
}

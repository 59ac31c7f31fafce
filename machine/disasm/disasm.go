// Package disasm renders decoded instructions as Intel-syntax text, for
// the interactive monitor and the stepper CLI's -disasm flag.
package disasm

import (
	"fmt"
	"strings"

	"go8086vm/machine"
)

// Line is one disassembled instruction: its address, the number of
// bytes it occupies, and its rendered mnemonic.
type Line struct {
	Addr uint16
	Size uint16
	Text string
}

// Disassemble decodes count instructions starting at addr and renders
// each as Intel-syntax text. Decoding stops early, with a "???"
// trailing line, if a byte sequence fails to decode.
func Disassemble(mem *machine.LinearMemory, addr uint16, count int) []Line {
	var lines []Line
	data := mem.Bytes()

	for i := 0; i < count; i++ {
		if int(addr) >= len(data) {
			break
		}
		opcode := data[addr]
		rest := data[int(addr)+1:]

		instr, err := machine.Decode(opcode, rest)
		if err != nil {
			lines = append(lines, Line{Addr: addr, Size: 1, Text: "???"})
			break
		}

		lines = append(lines, Line{
			Addr: addr,
			Size: instr.Size,
			Text: renderInstruction(instr),
		})
		addr += instr.Size
	}
	return lines
}

// One decodes and renders the single instruction whose opcode byte is
// opcode and whose remaining bytes start at data, returning its text
// and total size in bytes.
func One(opcode byte, data []byte) (text string, size uint16, err error) {
	instr, err := machine.Decode(opcode, data)
	if err != nil {
		return "", 0, err
	}
	return renderInstruction(instr), instr.Size, nil
}

func renderInstruction(instr machine.Instruction) string {
	switch instr.Kind {
	case machine.KindNoop:
		return "NOP"

	case machine.KindMovImm8:
		return fmt.Sprintf("MOV %s, 0x%02X", instr.Reg, instr.Imm8)
	case machine.KindMovImm16:
		return fmt.Sprintf("MOV %s, 0x%04X", instr.Reg, instr.Imm16)
	case machine.KindMov:
		return fmt.Sprintf("MOV %s, %s", renderOperand(instr.Dest), renderOperand(instr.Src))
	case machine.KindMovAccMem:
		if instr.AccIsDest {
			return fmt.Sprintf("MOV %s, [0x%04X]", instr.AccReg, instr.AccPointer)
		}
		return fmt.Sprintf("MOV [0x%04X], %s", instr.AccPointer, instr.AccReg)

	case machine.KindPush:
		return fmt.Sprintf("PUSH %s", instr.Reg)
	case machine.KindPop:
		return fmt.Sprintf("POP %s", instr.Reg)

	case machine.KindAdd:
		return binaryMnemonic("ADD", instr)
	case machine.KindSub:
		return binaryMnemonic("SUB", instr)
	case machine.KindAnd:
		return binaryMnemonic("AND", instr)
	case machine.KindOr:
		return binaryMnemonic("OR", instr)

	case machine.KindAddAcc8:
		return fmt.Sprintf("ADD AL, 0x%02X", instr.Imm8)
	case machine.KindAddAcc16:
		return fmt.Sprintf("ADD AX, 0x%04X", instr.Imm16)
	case machine.KindSubAcc8:
		return fmt.Sprintf("SUB AL, 0x%02X", instr.Imm8)
	case machine.KindSubAcc16:
		return fmt.Sprintf("SUB AX, 0x%04X", instr.Imm16)
	case machine.KindAndAcc8:
		return fmt.Sprintf("AND AL, 0x%02X", instr.Imm8)
	case machine.KindAndAcc16:
		return fmt.Sprintf("AND AX, 0x%04X", instr.Imm16)
	case machine.KindOrAcc8:
		return fmt.Sprintf("OR AL, 0x%02X", instr.Imm8)
	case machine.KindOrAcc16:
		return fmt.Sprintf("OR AX, 0x%04X", instr.Imm16)

	case machine.KindInc:
		return fmt.Sprintf("INC %s", instr.Reg)
	case machine.KindDec:
		return fmt.Sprintf("DEC %s", instr.Reg)

	case machine.KindMul8:
		return fmt.Sprintf("MUL %s", renderOperand(instr.Operand))
	case machine.KindMul16:
		return fmt.Sprintf("MUL %s", renderOperand(instr.Operand))
	case machine.KindDiv8:
		return fmt.Sprintf("DIV %s", renderOperand(instr.Operand))
	case machine.KindDiv16:
		return fmt.Sprintf("DIV %s", renderOperand(instr.Operand))

	case machine.KindJmpShort:
		return fmt.Sprintf("JMP SHORT %+d", instr.Rel8)
	case machine.KindJmpNear:
		return fmt.Sprintf("JMP %+d", instr.Rel16)
	case machine.KindJmpFar:
		return fmt.Sprintf("JMP FAR 0x%04X:0x%04X", instr.FarSegment, instr.FarOffset)
	case machine.KindJz:
		return fmt.Sprintf("JZ %+d", instr.Rel8)
	case machine.KindJnz:
		return fmt.Sprintf("JNZ %+d", instr.Rel8)

	default:
		return "???"
	}
}

func binaryMnemonic(mnemonic string, instr machine.Instruction) string {
	return fmt.Sprintf("%s %s, %s", mnemonic, renderOperand(instr.Dest), renderOperand(instr.Src))
}

func renderOperand(op machine.Operand) string {
	if !op.IsMemory {
		return op.Reg.String()
	}

	var parts []string
	if op.Mem.HasBase {
		parts = append(parts, op.Mem.Base.String())
	}
	if op.Mem.HasIndex {
		parts = append(parts, op.Mem.Index.String())
	}
	inner := strings.Join(parts, "+")

	switch {
	case op.Mem.DisplacementSize == 0:
		return fmt.Sprintf("[%s]", inner)
	case inner == "":
		return fmt.Sprintf("[0x%04X]", op.Mem.Displacement)
	default:
		return fmt.Sprintf("[%s+0x%04X]", inner, op.Mem.Displacement)
	}
}

// instruction.go - opcode classification and the decoded instruction
// tagged union (C5).
//
// (c) 2024-2026 go8086vm contributors - GPLv3 or later
package machine

// Kind tags which case of Instruction is populated.
type Kind int

const (
	KindNoop Kind = iota
	KindMovImm8
	KindMovImm16
	KindMov
	KindMovAccMem
	KindPush
	KindPop
	KindAdd
	KindSub
	KindAnd
	KindOr
	KindAddAcc8
	KindAddAcc16
	KindSubAcc8
	KindSubAcc16
	KindAndAcc8
	KindAndAcc16
	KindOrAcc8
	KindOrAcc16
	KindInc
	KindDec
	KindMul8
	KindMul16
	KindDiv8
	KindDiv16
	KindJmpShort
	KindJmpNear
	KindJmpFar
	KindJz
	KindJnz
)

// Instruction is the decoder's output: a closed tagged union. Only the
// fields relevant to Kind are meaningful; it is never stored beyond
// one decode-execute step.
type Instruction struct {
	Kind Kind
	Size uint16

	Reg  Reg  // MovImm8/16, Push, Pop, Inc, Dec
	Imm8 byte // MovImm8, AddAcc8, SubAcc8, AndAcc8, OrAcc8
	Imm16 uint16 // MovImm16, AddAcc16, SubAcc16, AndAcc16, OrAcc16

	Dest, Src Operand // Mov, Add, Sub, And, Or
	Is8Bit    bool

	AccIsDest  bool       // MovAccMem: true = reg<-mem, false = mem<-reg
	AccReg     Reg        // MovAccMem: AL or AX
	AccPointer uint16     // MovAccMem: absolute memory pointer

	Operand Operand // Mul8/16, Div8/16

	Rel8  int8  // JmpShort, Jz, Jnz
	Rel16 int16 // JmpNear

	FarSegment uint16 // JmpFar
	FarOffset  uint16 // JmpFar
}

// Decode classifies opcode and consumes as many of the following
// bytes (data) as the encoding requires, returning the decoded
// instruction and its total size including the opcode byte.
func Decode(opcode byte, data []byte) (Instruction, error) {
	switch {
	case opcode == 0x90:
		return Instruction{Kind: KindNoop, Size: 1}, nil

	case opcode >= 0x00 && opcode <= 0x03:
		return decodeAluRm(KindAdd, opcode, data)
	case opcode == 0x04:
		return Instruction{Kind: KindAddAcc8, Imm8: data[0], Size: 2}, nil
	case opcode == 0x05:
		return Instruction{Kind: KindAddAcc16, Imm16: le16(data), Size: 3}, nil

	case opcode >= 0x08 && opcode <= 0x0B:
		return decodeAluRm(KindOr, opcode, data)
	case opcode == 0x0C:
		return Instruction{Kind: KindOrAcc8, Imm8: data[0], Size: 2}, nil
	case opcode == 0x0D:
		return Instruction{Kind: KindOrAcc16, Imm16: le16(data), Size: 3}, nil

	case opcode >= 0x20 && opcode <= 0x23:
		return decodeAluRm(KindAnd, opcode, data)
	case opcode == 0x24:
		return Instruction{Kind: KindAndAcc8, Imm8: data[0], Size: 2}, nil
	case opcode == 0x25:
		return Instruction{Kind: KindAndAcc16, Imm16: le16(data), Size: 3}, nil

	case opcode >= 0x28 && opcode <= 0x2B:
		return decodeAluRm(KindSub, opcode, data)
	case opcode == 0x2C:
		return Instruction{Kind: KindSubAcc8, Imm8: data[0], Size: 2}, nil
	case opcode == 0x2D:
		return Instruction{Kind: KindSubAcc16, Imm16: le16(data), Size: 3}, nil

	case opcode >= 0x40 && opcode <= 0x47:
		return Instruction{Kind: KindInc, Reg: regTable16[opcode-0x40], Size: 1}, nil
	case opcode >= 0x48 && opcode <= 0x4F:
		return Instruction{Kind: KindDec, Reg: regTable16[opcode-0x48], Size: 1}, nil
	case opcode >= 0x50 && opcode <= 0x57:
		return Instruction{Kind: KindPush, Reg: regTable16[opcode-0x50], Size: 1}, nil
	case opcode >= 0x58 && opcode <= 0x5F:
		return Instruction{Kind: KindPop, Reg: regTable16[opcode-0x58], Size: 1}, nil

	case opcode == 0x74:
		return Instruction{Kind: KindJz, Rel8: int8(data[0]), Size: 2}, nil
	case opcode == 0x75:
		return Instruction{Kind: KindJnz, Rel8: int8(data[0]), Size: 2}, nil

	case opcode >= 0x88 && opcode <= 0x8B:
		dest, src, is8Bit, consumed, err := decodeOperands(opcode, data)
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Kind: KindMov, Dest: dest, Src: src, Is8Bit: is8Bit, Size: uint16(1 + consumed)}, nil

	case opcode >= 0xA0 && opcode <= 0xA3:
		return decodeMovAccMem(opcode, data)

	case opcode >= 0xB0 && opcode <= 0xBF:
		return decodeMovImm(opcode, data)

	case opcode == 0xE9:
		return Instruction{Kind: KindJmpNear, Rel16: int16(le16(data)), Size: 3}, nil
	case opcode == 0xEA:
		offset := le16(data)
		segment := le16(data[2:])
		return Instruction{Kind: KindJmpFar, FarOffset: offset, FarSegment: segment, Size: 5}, nil
	case opcode == 0xEB:
		return Instruction{Kind: KindJmpShort, Rel8: int8(data[0]), Size: 2}, nil

	case opcode == 0xF6 || opcode == 0xF7:
		return decodeMulDiv(opcode, data)

	default:
		return Instruction{}, invalidOpcodef(opcode)
	}
}

func le16(data []byte) uint16 {
	return uint16(data[0]) | uint16(data[1])<<8
}

// decodeAluRm handles the ADD/OR/AND/SUB r/m,r and r,r/m forms, which
// all share the same ModR/M dispatch and differ only by Kind.
func decodeAluRm(kind Kind, opcode byte, data []byte) (Instruction, error) {
	dest, src, is8Bit, consumed, err := decodeOperands(opcode, data)
	if err != nil {
		return Instruction{}, err
	}
	return Instruction{Kind: kind, Dest: dest, Src: src, Is8Bit: is8Bit, Size: uint16(1 + consumed)}, nil
}

// decodeMovImm handles 0xB0-0xBF: MOV reg,imm. Bit 3 of the opcode
// selects 16-bit (set) vs 8-bit (clear); the low 3 bits select the
// register under that width.
func decodeMovImm(opcode byte, data []byte) (Instruction, error) {
	is16 := opcode&0x08 != 0
	code := opcode & 0x07
	reg, err := RegisterFromCode(code, !is16)
	if err != nil {
		return Instruction{}, err
	}
	if is16 {
		return Instruction{Kind: KindMovImm16, Reg: reg, Imm16: le16(data), Size: 3}, nil
	}
	return Instruction{Kind: KindMovImm8, Reg: reg, Imm8: data[0], Size: 2}, nil
}

// decodeMovAccMem handles 0xA0-0xA3: MOV AL/AX <-> [imm16].
func decodeMovAccMem(opcode byte, data []byte) (Instruction, error) {
	is16 := opcode&0x01 != 0
	accIsDest := opcode&0x02 == 0 // A0/A1 load accumulator; A2/A3 store it
	reg := Reg(AL)
	if is16 {
		reg = AX
	}
	ptr := le16(data)
	return Instruction{
		Kind:       KindMovAccMem,
		AccIsDest:  accIsDest,
		AccReg:     reg,
		AccPointer: ptr,
		Size:       3,
	}, nil
}

// decodeMulDiv handles 0xF6/0xF7: the ModR/M REG field selects MUL
// (anything but 110) or DIV (110); direction bits are ignored.
func decodeMulDiv(opcode byte, data []byte) (Instruction, error) {
	is8Bit := opcode&0x01 == 0
	operand, subOp, consumed, err := decodeSingleOperand(is8Bit, data)
	if err != nil {
		return Instruction{}, err
	}
	size := uint16(1 + consumed)

	isDiv := subOp == 0b110
	switch {
	case is8Bit && !isDiv:
		return Instruction{Kind: KindMul8, Operand: operand, Size: size}, nil
	case is8Bit && isDiv:
		return Instruction{Kind: KindDiv8, Operand: operand, Size: size}, nil
	case !is8Bit && !isDiv:
		return Instruction{Kind: KindMul16, Operand: operand, Size: size}, nil
	default:
		return Instruction{Kind: KindDiv16, Operand: operand, Size: size}, nil
	}
}

// modrm.go - ModR/M addressing-mode byte decoding
//
// (c) 2024-2026 go8086vm contributors - GPLv3 or later
package machine

// MemAddress is a decoded memory operand: an optional base register,
// an optional index register, and a displacement of its own size.
// Effective address = displacement + base + index, mod 2^16.
type MemAddress struct {
	Base             Reg
	HasBase          bool
	Index            Reg
	HasIndex         bool
	Displacement     uint16
	DisplacementSize uint8 // 0, 1, or 2 bytes
}

// Operand is either a register or a memory address.
type Operand struct {
	IsMemory bool
	Reg      Reg
	Mem      MemAddress
}

func regOperand(r Reg) Operand { return Operand{Reg: r} }
func memOperand(m MemAddress) Operand { return Operand{IsMemory: true, Mem: m} }

// modRM holds the three fields of a ModR/M byte.
type modRM struct {
	mod byte // bits 7-6
	reg byte // bits 5-3
	rm  byte // bits 2-0
}

func decodeModRMByte(b byte) modRM {
	return modRM{
		mod: (b >> 6) & 0b11,
		reg: (b >> 3) & 0b111,
		rm:  b & 0b111,
	}
}

// effectiveAddressTable maps the r/m field (for mod != 11) to its
// base/index register pairing, per the 8086 addressing-mode table.
// rm=110 is special-cased by the caller (direct 16-bit address at
// mod=00, [BP] with no index at mod=01/10).
type baseIndexPair struct {
	base     Reg
	hasBase  bool
	index    Reg
	hasIndex bool
}

var effectiveAddressTable = [8]baseIndexPair{
	0b000: {base: BX, hasBase: true, index: SI, hasIndex: true},
	0b001: {base: BX, hasBase: true, index: DI, hasIndex: true},
	0b010: {base: BP, hasBase: true, index: SI, hasIndex: true},
	0b011: {base: BP, hasBase: true, index: DI, hasIndex: true},
	0b100: {index: SI, hasIndex: true},
	0b101: {index: DI, hasIndex: true},
	0b110: {base: BP, hasBase: true}, // overridden at mod=00, see below
	0b111: {base: BX, hasBase: true},
}

// decodeMemoryOperand reads the displacement (if any) following the
// ModR/M byte and builds the memory operand for a non-register r/m.
// data is the byte slice starting at the ModR/M byte itself, so
// displacement bytes are data[1:].
func decodeMemoryOperand(rm byte, mod byte, data []byte) MemAddress {
	pair := effectiveAddressTable[rm]

	var addr MemAddress
	var dispSize uint8
	switch mod {
	case 0b00:
		if rm == 0b110 {
			// Direct 16-bit address: no base, no index, 2-byte disp.
			dispSize = 2
			addr.HasBase, addr.HasIndex = false, false
		} else {
			dispSize = 0
			addr.Base, addr.HasBase = pair.base, pair.hasBase
			addr.Index, addr.HasIndex = pair.index, pair.hasIndex
		}
	case 0b01:
		dispSize = 1
		addr.Base, addr.HasBase = pair.base, pair.hasBase
		addr.Index, addr.HasIndex = pair.index, pair.hasIndex
	case 0b10:
		dispSize = 2
		addr.Base, addr.HasBase = pair.base, pair.hasBase
		addr.Index, addr.HasIndex = pair.index, pair.hasIndex
	}

	switch dispSize {
	case 1:
		addr.Displacement = uint16(data[1])
	case 2:
		addr.Displacement = uint16(data[1]) | uint16(data[2])<<8
	}
	addr.DisplacementSize = dispSize
	return addr
}

// dispSizeFor reports how many displacement bytes mod/rm consumes,
// without needing the displacement bytes themselves. The decoders
// take their sizes from decodeMemoryOperand's DisplacementSize
// instead and do not call it.
func dispSizeFor(mod, rm byte) uint8 {
	switch mod {
	case 0b00:
		if rm == 0b110 {
			return 2
		}
		return 0
	case 0b01:
		return 1
	case 0b10:
		return 2
	default:
		return 0
	}
}

// decodeOperands implements the two-operand ModR/M forms (ADD/SUB/
// AND/OR/MOV r/m,r and r,r/m). opcode supplies the direction (bit 1)
// and width (bit 0) bits; data starts at the ModR/M byte.
//
// Returns dest, src, is8Bit, and the number of bytes consumed from
// data (ModR/M byte plus any displacement).
func decodeOperands(opcode byte, data []byte) (dest, src Operand, is8Bit bool, consumed int, err error) {
	destIsRM := opcode&0b10 == 0
	is8Bit = opcode&0b01 == 0

	m := decodeModRMByte(data[0])
	reg, err := RegisterFromCode(m.reg, is8Bit)
	if err != nil {
		return Operand{}, Operand{}, false, 0, err
	}

	if m.mod == 0b11 {
		rm, err := RegisterFromCode(m.rm, is8Bit)
		if err != nil {
			return Operand{}, Operand{}, false, 0, err
		}
		if destIsRM {
			return regOperand(rm), regOperand(reg), is8Bit, 1, nil
		}
		return regOperand(reg), regOperand(rm), is8Bit, 1, nil
	}

	addr := decodeMemoryOperand(m.rm, m.mod, data)
	rmOperand := memOperand(addr)
	consumed = 1 + int(addr.DisplacementSize)
	if destIsRM {
		return rmOperand, regOperand(reg), is8Bit, consumed, nil
	}
	return regOperand(reg), rmOperand, is8Bit, consumed, nil
}

// decodeSingleOperand implements the single-operand ModR/M forms used
// by MUL/DIV (0xF6/0xF7). The REG field of ModR/M is a sub-opcode
// selector, not part of the operand; is8Bit comes from the opcode's
// low bit, ignoring direction entirely.
func decodeSingleOperand(is8Bit bool, data []byte) (operand Operand, subOp byte, consumed int, err error) {
	m := decodeModRMByte(data[0])
	subOp = m.reg

	if m.mod == 0b11 {
		rm, err := RegisterFromCode(m.rm, is8Bit)
		if err != nil {
			return Operand{}, 0, 0, err
		}
		return regOperand(rm), subOp, 1, nil
	}

	addr := decodeMemoryOperand(m.rm, m.mod, data)
	return memOperand(addr), subOp, 1 + int(addr.DisplacementSize), nil
}

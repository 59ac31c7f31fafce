// memory.go - fixed-size linear memory with little-endian word access
//
// (c) 2024-2026 go8086vm contributors - GPLv3 or later
package machine

import "encoding/binary"

// MemorySize is the size, in bytes, of the machine's linear address
// space. Addresses are unsigned 16-bit; an access at or beyond this
// size is out of range and faults.
const MemorySize = 16 * 1024

// LinearMemory is a flat byte array addressed by uint16.
type LinearMemory struct {
	data [MemorySize]byte
}

// ReadByte reads one byte. Out-of-range access is fatal.
func (m *LinearMemory) ReadByte(addr uint16) byte {
	if int(addr) >= len(m.data) {
		faultf(memoryBoundsf(int(addr)))
	}
	return m.data[addr]
}

// WriteByte writes one byte. Out-of-range access is fatal.
func (m *LinearMemory) WriteByte(addr uint16, v byte) {
	if int(addr) >= len(m.data) {
		faultf(memoryBoundsf(int(addr)))
	}
	m.data[addr] = v
}

// ReadWord reads a little-endian 16-bit word at addr and addr+1.
func (m *LinearMemory) ReadWord(addr uint16) uint16 {
	if int(addr)+1 >= len(m.data) {
		faultf(memoryBoundsf(int(addr) + 1))
	}
	return binary.LittleEndian.Uint16(m.data[addr:])
}

// WriteWord writes a little-endian 16-bit word at addr and addr+1.
func (m *LinearMemory) WriteWord(addr uint16, v uint16) {
	if int(addr)+1 >= len(m.data) {
		faultf(memoryBoundsf(int(addr) + 1))
	}
	binary.LittleEndian.PutUint16(m.data[addr:], v)
}

// Bytes exposes the raw backing array for test setup and loaders. The
// returned slice aliases the memory's storage.
func (m *LinearMemory) Bytes() []byte {
	return m.data[:]
}

// Reset zeroes every byte.
func (m *LinearMemory) Reset() {
	for i := range m.data {
		m.data[i] = 0
	}
}

// errors.go - sentinel errors for the 8086-subset core
//
// (c) 2024-2026 go8086vm contributors - GPLv3 or later
package machine

import (
	"errors"
	"fmt"
)

// Sentinel errors. Decode-time violations are returned by value so
// callers (and tests) can assert on them with errors.Is. Execution-time
// violations are raised as panics carrying one of these sentinels and
// are converted back into errors at the Step boundary.
var (
	ErrInvalidOpcode       = errors.New("invalid opcode")
	ErrInvalidRegisterCode = errors.New("invalid register code")
	ErrMemoryBounds        = errors.New("memory access out of bounds")
	ErrDivideByZero        = errors.New("divide by zero")
	ErrProgramTooLarge     = errors.New("program larger than memory")
)

func invalidOpcodef(b byte) error {
	return fmt.Errorf("%w: 0x%02X", ErrInvalidOpcode, b)
}

func invalidRegisterCodef(code byte, is8Bit bool) error {
	return fmt.Errorf("%w: %03b (8-bit=%v)", ErrInvalidRegisterCode, code, is8Bit)
}

func memoryBoundsf(addr int) error {
	return fmt.Errorf("%w: address 0x%04X", ErrMemoryBounds, addr)
}

// faultf panics with an execution-time error that Step recovers from.
type machineFault struct{ err error }

func faultf(err error) {
	panic(machineFault{err})
}

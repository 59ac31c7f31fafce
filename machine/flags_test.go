// flags_test.go - flag register unit tests
//
// (c) 2024-2026 go8086vm contributors - GPLv3 or later

package machine

import "testing"

func TestFlags_SetGetRoundTrip(t *testing.T) {
	m := NewMachine()
	flags := []Flag{CARRY, PARITY, AUXILIARY, ZERO, SIGN, TRAP, INTERRUPT, DIRECTION, OVERFLOW}

	for _, fl := range flags {
		m.SetFlag(fl, true)
		if !m.GetFlag(fl) {
			t.Errorf("flag 0x%04X: expected set", fl)
		}
		m.SetFlag(fl, false)
		if m.GetFlag(fl) {
			t.Errorf("flag 0x%04X: expected clear", fl)
		}
	}
}

func TestFlags_IndependentBits(t *testing.T) {
	m := NewMachine()
	m.SetFlag(CARRY, true)
	m.SetFlag(ZERO, true)

	if !m.GetFlag(CARRY) || !m.GetFlag(ZERO) {
		t.Fatal("expected both CARRY and ZERO set")
	}
	if m.GetFlag(SIGN) || m.GetFlag(PARITY) {
		t.Fatal("expected unrelated flags to remain clear")
	}

	m.SetFlag(CARRY, false)
	if m.GetFlag(CARRY) {
		t.Error("CARRY should be clear")
	}
	if !m.GetFlag(ZERO) {
		t.Error("clearing CARRY must not clear ZERO")
	}
}

func TestUpdateZeroFlag(t *testing.T) {
	m := NewMachine()

	m.UpdateZeroFlag(0)
	if !m.GetFlag(ZERO) {
		t.Error("UpdateZeroFlag(0) should set ZERO")
	}

	m.UpdateZeroFlag(1)
	if m.GetFlag(ZERO) {
		t.Error("UpdateZeroFlag(nonzero) should clear ZERO")
	}
}

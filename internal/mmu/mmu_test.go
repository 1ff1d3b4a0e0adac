package mmu

import (
	"testing"

	"github.com/nd100vm/nd100/internal/interrupt"
	"github.com/nd100vm/nd100/internal/memory"
	"github.com/nd100vm/nd100/internal/register"
)

func newTestMMU() (*MMU, *register.File) {
	regs := register.New()
	mem := memory.New(1 << 16)
	intr := interrupt.New(regs)
	m := New(MMS2, regs, mem, intr)
	return m, regs
}

func TestPagingOffReturnsIdentity(t *testing.T) {
	m, regs := newTestMMU()
	regs.SetStsBit(register.StsPONI, false)
	phys, f := m.Translate(0x1234, Read, false)
	if f != NoFault || phys != 0x1234 {
		t.Fatalf("got %#04x,%v want 0x1234,NoFault", phys, f)
	}
}

func TestPageNotInMemoryFaultsPF(t *testing.T) {
	m, regs := newTestMMU()
	regs.SetStsBit(register.StsPONI, true)
	regs.PCR[0] = 0 // ring 0, page table 0
	// PTE left zero => WPM|RPM|FPM all clear => page fault
	_, f := m.Translate(0x0000, Read, false)
	if f != FaultPageFault {
		t.Fatalf("fault = %v, want FaultPageFault", f)
	}
	if regs.PGS&(1<<14) == 0 {
		t.Fatal("PGS permit-violation bit should be set on page fault")
	}
}

func TestRingProtectionMPV(t *testing.T) {
	m, regs := newTestMMU()
	regs.SetStsBit(register.StsPONI, true)
	regs.PCR[0] = 0 // current ring 0
	// Install an entry with RPM permit but ring requirement 2 (> current ring 0).
	entry := uint32(peRPM) | (2 << peRingShift)
	m.setPTE(0, 0, entry)
	_, f := m.Translate(0x0000, Read, false)
	if f != FaultMPV {
		t.Fatalf("fault = %v, want FaultMPV", f)
	}
}

func TestSuccessfulTranslationSetsPGU(t *testing.T) {
	m, regs := newTestMMU()
	regs.SetStsBit(register.StsPONI, true)
	regs.PCR[0] = 0
	entry := uint32(peRPM) // ring 0 required, read permitted
	m.setPTE(0, 0, entry)
	phys, f := m.Translate(0x0000, Read, false)
	if f != NoFault {
		t.Fatalf("unexpected fault %v", f)
	}
	if phys != 0 {
		t.Fatalf("phys = %#x, want 0", phys)
	}
	got := m.pte(0, 0)
	if got&pePGU == 0 {
		t.Fatal("PGU should be set after a successful translation")
	}
	if got&peWIP != 0 {
		t.Fatal("WIP should not be set on a read")
	}
}

func TestWriteSetsWIP(t *testing.T) {
	m, regs := newTestMMU()
	regs.SetStsBit(register.StsPONI, true)
	regs.PCR[0] = 0
	entry := uint32(peWPM)
	m.setPTE(0, 0, entry)
	_, f := m.Translate(0x0000, Write, false)
	if f != NoFault {
		t.Fatalf("unexpected fault %v", f)
	}
	if m.pte(0, 0)&peWIP == 0 {
		t.Fatal("WIP should be set after a write translation")
	}
}

func TestOutOfRangePhysicalFaults(t *testing.T) {
	regs := register.New()
	mem := memory.New(16) // tiny memory
	intr := interrupt.New(regs)
	m := New(MMS2, regs, mem, intr)
	regs.SetStsBit(register.StsPONI, true)
	regs.PCR[0] = 0
	entry := uint32(peRPM) // PPN defaults to 0, but DIP from a high VPN pushes phys out of range
	m.setPTE(0, 0, entry)
	_, f := m.Translate(0x0200, Read, false) // VPN 0, DIP 0x200 -> phys 0x200 >= 16
	if f != FaultOutOfRange {
		t.Fatalf("fault = %v, want FaultOutOfRange", f)
	}
}

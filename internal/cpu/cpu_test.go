package cpu

import (
	"testing"

	"github.com/nd100vm/nd100/internal/interrupt"
	"github.com/nd100vm/nd100/internal/memory"
	"github.com/nd100vm/nd100/internal/mmu"
	"github.com/nd100vm/nd100/internal/register"
)

func newTestCPU() *CPU {
	regs := register.New()
	mem := memory.New(1 << 16)
	intr := interrupt.New(regs)
	m := mmu.New(mmu.MMS2, regs, mem, intr)
	return New(regs, mem, m, intr, nil)
}

func TestSTAThenLDA(t *testing.T) {
	c := newTestCPU()
	c.Regs.SetPC(0x100)
	c.Regs.SetReg(register.A, 0x1234)

	// STA (P)+10 octal = mode 0, disp 010
	c.dispatch(0004010)
	v, ok := c.Mem.Read(uint32(c.Regs.PC() - 1 + 010))
	if !ok || v != 0x1234 {
		t.Fatalf("STA wrote %#x ok=%v, want 0x1234", v, ok)
	}

	c.Regs.SetReg(register.A, 0)
	c.dispatch(0044010) // LDA same EA
	if c.Regs.Reg(register.A) != 0x1234 {
		t.Fatalf("LDA got %#x, want 0x1234", c.Regs.Reg(register.A))
	}
}

func TestADDSetsOverflow(t *testing.T) {
	c := newTestCPU()
	c.Regs.SetReg(register.A, 0x7FFF)
	c.Mem.Write(0x50, 1, memory.Word)
	c.Regs.SetPC(0x10)
	// ADD (P)+disp where disp resolves to 0x50: P-1=0xF, disp=0x41
	c.Regs.SetPC(0x10)
	c.Mem.Write(0x10, 1, memory.Word)
	c.dispatch(0060000 | 0x41)
	if c.Regs.Reg(register.A) != 0x8000 {
		t.Fatalf("A = %#x, want 0x8000", c.Regs.Reg(register.A))
	}
	if !c.Regs.StsBit(register.StsO) {
		t.Fatal("O should be set on signed overflow")
	}
}

func TestJAZSetsCarryOnZero(t *testing.T) {
	c := newTestCPU()
	c.Regs.SetReg(register.A, 0)
	c.Regs.SetPC(0x101) // P already advanced past the JAZ at 0x100
	c.dispatch(0131000) // JAZ, disp 0
	if !c.Regs.StsBit(register.StsC) {
		t.Fatal("JAZ should set C when A==0")
	}
	if c.Regs.PC() != 0x100 {
		t.Fatalf("PC = %#x, want unchanged 0x100 (disp 0)", c.Regs.PC())
	}
}

func TestIllegalInstructionTrapsAndRestarts(t *testing.T) {
	c := newTestCPU()
	c.Regs.SetPC(0x200)
	c.Regs.SetReg(register.A, 0)
	c.dispatch(0140200) // unassigned USER1 opcode -> illegal
	if c.Regs.IID&interrupt.SubIllegal == 0 {
		t.Fatalf("expected illegal-instruction sub-bit set, IID=%#x", c.Regs.IID)
	}
}

func TestROPSwap(t *testing.T) {
	c := newTestCPU()
	// SWAP source=A(5) dest=X(7): operand bits sr=5,dr=7,RAD=0,op=0(SWAP)
	c.Regs.SetReg(register.A, 0x00AA)
	c.Regs.SetReg(register.X, 0x00BB)
	operand := uint16(0144000) | (5 << 3) | 7
	c.dispatch(operand)
	if c.Regs.Reg(register.X) != 0x00AA || c.Regs.Reg(register.A) != 0x00BB {
		t.Fatalf("SWAP: A=%#x X=%#x", c.Regs.Reg(register.A), c.Regs.Reg(register.X))
	}
}

func TestWAITHaltsWhenIONIOff(t *testing.T) {
	c := newTestCPU()
	c.Regs.SetStsBit(register.StsIONI, false)
	c.Regs.SetStsBit(register.StsPONI, false) // paging off => checkPriv passes
	c.dispatch(0151000)
	if !c.Halted {
		t.Fatal("WAIT with IONI off should halt the CPU")
	}
}

func TestSABSetsSignExtendedB(t *testing.T) {
	c := newTestCPU()
	c.dispatch(0170000 | 0xFF) // SAB -1
	if c.Regs.Reg(register.B) != 0xFFFF {
		t.Fatalf("B = %#x, want 0xFFFF", c.Regs.Reg(register.B))
	}
}

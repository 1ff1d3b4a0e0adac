// Package cpu implements the ND-100/ND-110 instruction dispatcher and
// instruction semantics: a 65,536-entry opcode table, effective-address
// computation, and the memory-reference, jump, byte, register, bit,
// shift, system, stack-frame, multiply/divide, and I/O instruction
// groups.
package cpu

import (
	"github.com/nd100vm/nd100/internal/device"
	"github.com/nd100vm/nd100/internal/interrupt"
	"github.com/nd100vm/nd100/internal/memory"
	"github.com/nd100vm/nd100/internal/mmu"
	"github.com/nd100vm/nd100/internal/register"
)

// CPU ties together the register file, memory, MMU, interrupt
// controller and device layer, and dispatches fetched instruction words
// through a function-pointer table exactly as wide as the 16-bit
// opcode space.
type CPU struct {
	Regs  *register.File
	Mem   *memory.Memory
	MMU   *mmu.MMU
	Intr  *interrupt.Controller
	Devs  device.Manager
	table [65536]InstrFunc

	// EA/UseAPT are the last computed effective address and its
	// alternate-page-table flag, exposed the way New_GetEffectiveAddr's
	// out-parameter is to every memory-reference instruction.
	EA     uint16
	UseAPT bool

	Halted bool
}

// New builds a CPU bound to the given subsystems and installs every
// instruction handler into the dispatch table.
func New(regs *register.File, mem *memory.Memory, m *mmu.MMU, intr *interrupt.Controller, devs device.Manager) *CPU {
	c := &CPU{Regs: regs, Mem: mem, MMU: m, Intr: intr, Devs: devs}
	c.setupInstructions()
	return c
}

// addExact installs handler at exactly one opcode.
func (c *CPU) addExact(opcode uint16, h InstrFunc) {
	c.table[opcode] = h
}

// addRange installs handler across [start,stop] inclusive.
func (c *CPU) addRange(start, stop uint16, h InstrFunc) {
	for op := uint32(start); op <= uint32(stop); op++ {
		c.table[uint16(op)] = h
	}
}

// addMask installs handler at every opcode whose bits outside mask are
// free to vary, i.e. every op such that op&mask == base&mask.
func (c *CPU) addMask(base, mask uint16, h InstrFunc) {
	free := ^mask
	// Enumerate every combination of the free bits by walking them as a
	// submask of free, the same way Instruction_Add_Mask iterates.
	sub := uint32(0)
	for {
		op := uint16(uint32(base&mask) | sub)
		c.table[op] = h
		if sub == uint32(free) {
			break
		}
		sub = (sub - uint32(free)) & uint32(free)
	}
}

func illegalInstr(c *CPU, operand uint16) Trap {
	c.Intr.Interrupt(14, interrupt.SubIllegal)
	return Restart
}

// Step fetches and executes one instruction at the current P, handling
// restart on trap exactly once (the interrupt controller has already
// recorded the fault; Step simply leaves P unchanged for a restart).
func (c *CPU) Step() {
	if c.Halted {
		return
	}
	p := c.Regs.PC()
	phys, fault := c.MMU.Translate(p, mmu.Fetch|mmu.Read, false)
	if fault != mmu.NoFault {
		c.raiseMMUFault(fault, true)
		return
	}
	word, ok := c.Mem.Read(phys)
	if !ok {
		c.Intr.Interrupt(14, interrupt.SubMemOutRange)
		return
	}
	c.Regs.SetPC(p + 1)
	c.dispatch(word)
}

// dispatch runs the handler for operand, used both for normal fetch and
// for EXR (execute-from-register), which does not advance P beforehand.
func (c *CPU) dispatch(operand uint16) {
	h := c.table[operand]
	if h == nil {
		h = illegalInstr
	}
	trap := h(c, operand)
	if trap == Restart {
		c.Regs.SetPC(c.Regs.PC() - 1)
	}
}

func (c *CPU) raiseMMUFault(fault mmu.Fault, isFetch bool) {
	switch fault {
	case mmu.FaultPageFault:
		c.Intr.Interrupt(14, interrupt.SubPageFault)
	case mmu.FaultMPV:
		c.Intr.Interrupt(14, interrupt.SubMPV)
	case mmu.FaultOutOfRange:
		c.Intr.Interrupt(14, interrupt.SubMemOutRange)
	}
}

// readMem/writeMem translate virt through the MMU and access physical
// memory, raising the appropriate interrupt and returning ok=false on
// any fault so the caller can request a restart.
func (c *CPU) readMem(virt uint16, useAPT bool) (value uint16, ok bool) {
	phys, fault := c.MMU.Translate(virt, mmu.Read, useAPT)
	if fault != mmu.NoFault {
		c.raiseMMUFault(fault, false)
		return 0, false
	}
	v, rok := c.Mem.Read(phys)
	if !rok {
		c.Intr.Interrupt(14, interrupt.SubMemOutRange)
		return 0, false
	}
	return v, true
}

func (c *CPU) writeMem(virt uint16, value uint16, useAPT bool) bool {
	phys, fault := c.MMU.Translate(virt, mmu.Write, useAPT)
	if fault != mmu.NoFault {
		c.raiseMMUFault(fault, false)
		return false
	}
	if !c.Mem.Write(phys, value, memory.Word) {
		c.Intr.Interrupt(14, interrupt.SubMemOutRange)
		return false
	}
	return true
}

func (c *CPU) writeMemByte(virt uint16, value uint16, useAPT bool, sel Sel) bool {
	phys, fault := c.MMU.Translate(virt, mmu.Write, useAPT)
	if fault != mmu.NoFault {
		c.raiseMMUFault(fault, false)
		return false
	}
	s := memory.Word
	if sel == SelMSB {
		s = memory.MSB
	} else if sel == SelLSB {
		s = memory.LSB
	}
	if !c.Mem.Write(phys, value, s) {
		c.Intr.Interrupt(14, interrupt.SubMemOutRange)
		return false
	}
	return true
}

func (c *CPU) readIndirect(virt uint16, useAPT bool) (uint16, bool) {
	return c.readMem(virt, useAPT)
}

// signExtend sign-extends an 8-bit displacement per the PDP-style
// 2's-complement rule used throughout the instruction set.
func signExtend(x uint16) int16 {
	v := int16(x & 0xFF)
	if x&(1<<7) != 0 {
		v |= ^int16(0xFF)
	}
	return v
}

// effectiveAddress mirrors New_GetEffectiveAddr: decode the 11-bit
// displacement+mode field of a memory-reference instruction, computing
// the virtual address and whether it resolves through the alternate
// page table. P has already been advanced past this instruction by
// Step, so the "current P" used by (P)+disp modes is P-1.
func (c *CPU) effectiveAddress(instr uint16) (ea uint16, useAPT bool) {
	disp := signExtend(instr & 0xFF)
	p := c.Regs.PC() - 1
	x := c.Regs.Reg(register.X)
	b := c.Regs.Reg(register.B)

	switch (instr >> 8) & 0x07 {
	case 0: // (P)+disp
		return uint16(int32(p) + int32(disp)), false
	case 1: // (B)+disp
		return b + uint16(disp), true
	case 2: // ((P)+disp)
		addr := uint16(int32(p) + int32(disp))
		v, _ := c.readIndirect(addr, false)
		return v, true
	case 3: // ((B)+disp)
		addr := b + uint16(disp)
		v, _ := c.readIndirect(addr, true)
		return v, true
	case 4: // (X)+disp
		return x + uint16(disp), true
	case 5: // (B)+disp+(X)
		return b + x + uint16(disp), true
	case 6: // ((P)+disp)+(X)
		addr := uint16(int32(p) + int32(disp))
		v, _ := c.readIndirect(addr, false)
		return x + v, true
	case 7: // ((B)+disp)+(X)
		addr := b + uint16(disp)
		v, _ := c.readIndirect(addr, true)
		return x + v, true
	}
	return 0, false
}

// doAdd mirrors do_add: computes a+b+k as a 17-bit sum, updates carry
// (C) unconditionally, and sets O/Q on same-sign-operands-opposite-sign-
// result overflow; Q is cleared (never O) when no overflow occurs.
func (c *CPU) doAdd(a, b, k uint16) uint16 {
	tmp := uint32(a) + uint32(b) + uint32(k)
	c.Regs.SetStsBit(register.StsC, tmp&0xFFFF0000 != 0)

	sameSign := (a^b)&(1<<15) == 0
	result := uint16(tmp)
	if sameSign && (a^result)&(1<<15) != 0 {
		c.Regs.SetStsBit(register.StsO, true)
		c.Regs.SetStsBit(register.StsQ, true)
	} else {
		c.Regs.SetStsBit(register.StsQ, false)
	}
	return result
}

// checkPriv mirrors CheckPriv: privileged instructions run when paging
// is off, or when the current ring is 2 or 3; otherwise it raises the
// privileged-instruction sub-interrupt and returns false.
func (c *CPU) checkPriv() bool {
	if !c.Regs.StsBit(register.StsPONI) {
		return true
	}
	pcr := c.Regs.PCR[c.Regs.CurrLevel()]
	ring := pcr & 0x03
	if ring == 2 || ring == 3 {
		return true
	}
	c.Intr.Interrupt(14, interrupt.SubPrivileged)
	return false
}

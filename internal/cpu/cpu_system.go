package cpu

import (
	"github.com/nd100vm/nd100/internal/interrupt"
	"github.com/nd100vm/nd100/internal/register"
)

// setupSystem installs the privileged system-register and mode-control
// instructions: TRA/TRR/MCL/MST, SRB/LRB, EXAM/DEPO, IRW/IRR, ION/IOF/
// PON/POF/PION/PIOF/SEX/REX, WAIT, MON, and EXR.
func (c *CPU) setupSystem() {
	c.addMask(0150000, 0xFFF0, opTRA)
	c.addMask(0150100, 0xFFF0, opTRR)
	c.addMask(0150200, 0xFFF0, opMCL)
	c.addMask(0150300, 0xFFF0, opMST)

	c.addExact(0150400, opOPCOM)
	c.addExact(0150401, opIOF)
	c.addExact(0150402, opION)
	c.addExact(0150404, opPOF)
	c.addExact(0150405, opPIOF)
	c.addExact(0150406, opSEX)
	c.addExact(0150407, opREX)
	c.addExact(0150410, opPON)
	c.addExact(0150412, opPION)

	c.addExact(0150416, opEXAM)
	c.addExact(0150417, opDEPO)

	c.addMask(0151000, 0xFF00, opWAIT)
	c.addMask(0152402, 0xFF07, opSRB)
	c.addMask(0152600, 0xFF07, opLRB)
	c.addMask(0153000, 0xFF00, opMON)
	c.addMask(0153400, 0xFF80, opIRW)
	c.addMask(0153600, 0xFF80, opIRR)

	c.addMask(0140600, 0xFFC0, opEXR)
}

// opTRA copies one of the named system registers into A; TRA clears
// the PGS/PEA/PES locks it reads through, following the lock discipline
// internal/register implements.
func opTRA(c *CPU, operand uint16) Trap {
	if !c.checkPriv() {
		return Restart
	}
	switch operand & 0x0F {
	case 00: // PANS
		c.Regs.SetReg(register.A, c.Regs.PANS)
	case 01: // STS
		c.Regs.SetReg(register.A, c.Regs.Sts())
	case 02: // OPR
		c.Regs.SetReg(register.A, c.Regs.OPR)
	case 03: // PGS
		c.Regs.SetReg(register.A, c.Regs.ReadPGS())
	case 04: // PVL
		c.Regs.SetReg(register.A, (c.Regs.PVL&0x0F)<<3|0xD782)
	case 05: // IIC
		c.Regs.SetReg(register.A, c.Intr.CalcIIC())
	case 06: // PID
		c.Regs.SetReg(register.A, c.Regs.PID)
	case 07: // PIE
		c.Regs.SetReg(register.A, c.Regs.PIE)
	case 010: // CSR
		c.Regs.SetReg(register.A, (1<<2)|(1<<3))
	case 011: // ACTL
		c.Regs.SetReg(register.A, 1<<uint(c.Regs.CurrLevel()))
	case 012: // ALD
		c.Regs.SetReg(register.A, c.Regs.ALD)
	case 013: // PES
		c.Regs.SetReg(register.A, c.Regs.PES)
	case 014: // PGC/PCR, level from A on entry
		level := (c.Regs.Reg(register.A) >> 3) & 0x0F
		c.Regs.SetReg(register.A, c.Regs.PCR[level]&^(1<<15))
	case 015: // PEA
		c.Regs.SetReg(register.A, c.Regs.ReadPEA())
		c.Regs.ReadPES()
	}
	return NoTrap
}

func opTRR(c *CPU, operand uint16) Trap {
	if !c.checkPriv() {
		return Restart
	}
	a := c.Regs.Reg(register.A)
	switch operand & 0x0F {
	case 00: // PANC
		c.Regs.PANC = a
	case 01: // STS (low byte only)
		c.Regs.SetStsBit(register.StsPTM, a&1 != 0)
		for bit := 1; bit < 8; bit++ {
			c.Regs.SetStsBit(bit, a&(1<<uint(bit)) != 0)
		}
	case 02: // LMP
		c.Regs.LMP = a
	case 03: // PGC/PCR
		level := (a >> 3) & 0x0F
		c.Regs.PCR[level] = a
	case 05: // IIE
		c.Regs.IIE = a
		c.Regs.CHKIT = true
	case 06: // PID
		c.Regs.PID = a
		c.Regs.CHKIT = true
	case 07: // PIE
		c.Regs.PIE = a
		c.Regs.CHKIT = true
	case 010: // CCL
		c.Regs.CCL = a
	case 015: // ECCR
		c.Regs.ECCR = a
	}
	return NoTrap
}

func opMCL(c *CPU, operand uint16) Trap {
	if !c.checkPriv() {
		return Restart
	}
	a := c.Regs.Reg(register.A)
	switch operand & 0x0F {
	case 01: // STS
		sts := c.Regs.Sts() &^ (a & 0x00FF)
		for bit := 0; bit < 8; bit++ {
			c.Regs.SetStsBit(bit, sts&(1<<uint(bit)) != 0)
		}
	case 06: // PID
		c.Regs.PID &^= a
	case 07: // PIE
		c.Regs.PIE &^= a
	}
	return NoTrap
}

func opMST(c *CPU, operand uint16) Trap {
	if !c.checkPriv() {
		return Restart
	}
	a := c.Regs.Reg(register.A)
	switch operand & 0x0F {
	case 01: // STS
		sts := c.Regs.Sts() | (a & 0x00FF)
		for bit := 0; bit < 8; bit++ {
			c.Regs.SetStsBit(bit, sts&(1<<uint(bit)) != 0)
		}
	case 06: // PID
		c.Regs.PID |= a
		c.Regs.CHKIT = true
	case 07: // PIE
		c.Regs.PIE |= a
		c.Regs.CHKIT = true
	}
	return NoTrap
}

func opOPCOM(c *CPU, operand uint16) Trap {
	if !c.checkPriv() {
		return Restart
	}
	c.Halted = true
	return NoTrap
}

func opION(c *CPU, operand uint16) Trap {
	c.Regs.SetStsBit(register.StsIONI, true)
	c.Regs.CHKIT = true
	return NoTrap
}

func opIOF(c *CPU, operand uint16) Trap {
	if !c.checkPriv() {
		return Restart
	}
	c.Regs.SetStsBit(register.StsIONI, false)
	return NoTrap
}

func opPON(c *CPU, operand uint16) Trap {
	c.Regs.SetStsBit(register.StsPONI, true)
	return NoTrap
}

func opPOF(c *CPU, operand uint16) Trap {
	if !c.checkPriv() {
		return Restart
	}
	c.Regs.SetStsBit(register.StsPONI, false)
	return NoTrap
}

func opPION(c *CPU, operand uint16) Trap {
	c.Regs.SetStsBit(register.StsIONI, true)
	c.Regs.SetStsBit(register.StsPONI, true)
	c.Regs.CHKIT = true
	return NoTrap
}

func opPIOF(c *CPU, operand uint16) Trap {
	if !c.checkPriv() {
		return Restart
	}
	c.Regs.SetStsBit(register.StsIONI, false)
	c.Regs.SetStsBit(register.StsPONI, false)
	return NoTrap
}

func opSEX(c *CPU, operand uint16) Trap {
	if !c.checkPriv() {
		return Restart
	}
	c.Regs.SetStsBit(register.StsSEXI, true)
	return NoTrap
}

func opREX(c *CPU, operand uint16) Trap {
	if !c.checkPriv() {
		return Restart
	}
	c.Regs.SetStsBit(register.StsSEXI, false)
	return NoTrap
}

// opEXAM/opDEPO access physical memory directly at the 24-bit address
// formed from A (high byte) and D (low word), bypassing the MMU.
func opEXAM(c *CPU, operand uint16) Trap {
	if !c.checkPriv() {
		return Restart
	}
	addr := uint32(c.Regs.Reg(register.A)&0xFF)<<16 | uint32(c.Regs.Reg(register.D))
	v, _ := c.Mem.Read(addr)
	c.Regs.SetReg(register.T, v)
	return NoTrap
}

func opDEPO(c *CPU, operand uint16) Trap {
	if !c.checkPriv() {
		return Restart
	}
	addr := uint32(c.Regs.Reg(register.A)&0xFF)<<16 | uint32(c.Regs.Reg(register.D))
	c.Mem.Write(addr, c.Regs.Reg(register.T), 0)
	return NoTrap
}

// opIRW/opIRR are inter-register write/read across levels; writing A
// to A on the current level, or P to P on the current level, is a
// documented no-op.
func opIRW(c *CPU, operand uint16) Trap {
	if !c.checkPriv() {
		return Restart
	}
	level := int((operand >> 3) & 0x0F)
	dr := int(operand & 0x07)
	if level == c.Regs.CurrLevel() && (dr == register.A || dr == register.P) {
		return NoTrap
	}
	c.Regs.SetRegAt(level, dr, c.Regs.Reg(register.A))
	return NoTrap
}

func opIRR(c *CPU, operand uint16) Trap {
	if !c.checkPriv() {
		return Restart
	}
	level := int((operand >> 3) & 0x0F)
	sr := int(operand & 0x07)
	if sr == register.STS {
		c.Regs.SetReg(register.A, c.Regs.RegAt(level, register.STS)&0xFF)
		return NoTrap
	}
	c.Regs.SetReg(register.A, c.Regs.RegAt(level, sr))
	return NoTrap
}

// opSRB/opLRB save/load an 8-word register block (P,X,T,A,D,L,STS,B)
// through the alternate page table at the address in X.
func opSRB(c *CPU, operand uint16) Trap {
	if !c.checkPriv() {
		return Restart
	}
	lvl := int((operand >> 3) & 0x0F)
	addr := c.Regs.Reg(register.X)
	vals := [8]uint16{
		c.Regs.RegAt(lvl, register.P),
		c.Regs.RegAt(lvl, register.X),
		c.Regs.RegAt(lvl, register.T),
		c.Regs.RegAt(lvl, register.A),
		c.Regs.RegAt(lvl, register.D),
		c.Regs.RegAt(lvl, register.L),
		c.Regs.RegAt(lvl, register.STS) & 0xFF,
		c.Regs.RegAt(lvl, register.B),
	}
	for i, v := range vals {
		if !c.writeMem(addr+uint16(i), v, true) {
			return Restart
		}
	}
	return NoTrap
}

func opLRB(c *CPU, operand uint16) Trap {
	if !c.checkPriv() {
		return Restart
	}
	lvl := int((operand >> 3) & 0x0F)
	addr := c.Regs.Reg(register.X)

	read := func(off uint16) (uint16, bool) { return c.readMem(addr+off, true) }

	if lvl != c.Regs.CurrLevel() {
		if v, ok := read(0); ok {
			c.Regs.SetRegAt(lvl, register.P, v)
		} else {
			return Restart
		}
	}
	fields := []int{register.X, register.T, register.A, register.D, register.L}
	for i, f := range fields {
		v, ok := read(uint16(i + 1))
		if !ok {
			return Restart
		}
		c.Regs.SetRegAt(lvl, f, v)
	}
	if v, ok := read(6); ok {
		c.Regs.SetRegAt(lvl, register.STS, v&0xFF)
	} else {
		return Restart
	}
	if v, ok := read(7); ok {
		c.Regs.SetRegAt(lvl, register.B, v)
	} else {
		return Restart
	}
	return NoTrap
}

// opWAIT gives up the current level: if the interrupt system is off,
// the CPU halts; otherwise the level's PID bit clears and CHKIT
// requests a level-switch recompute.
func opWAIT(c *CPU, operand uint16) Trap {
	if !c.checkPriv() {
		return Restart
	}
	if !c.Regs.StsBit(register.StsIONI) {
		c.Halted = true
		return NoTrap
	}
	if c.Regs.CurrLevel() == 0 {
		return NoTrap
	}
	c.Regs.PID &^= 1 << uint(c.Regs.CurrLevel())
	c.Regs.CHKIT = true
	return NoTrap
}

// opMON raises a level-14 monitor-call interrupt carrying the 9-bit
// monitor number (sign-extended) in level 14's T register.
func opMON(c *CPU, operand uint16) Trap {
	num := operand & 0x1FF
	if c.Regs.CurrLevel() >= 14 {
		return NoTrap
	}
	if num&(1<<8) != 0 {
		num |= 0xFE00
	}
	c.Regs.SetRegAt(14, register.T, num)
	c.Intr.Interrupt(14, interrupt.SubMonitorCall)
	c.Regs.CHKIT = true
	return NoTrap
}

// opEXR executes the instruction held in a source register without
// advancing P; EXR of EXR is illegal and sets STS.Z instead of
// recursing.
func opEXR(c *CPU, operand uint16) Trap {
	sr := int((operand >> 3) & 0x07)
	var instr uint16
	if sr != 0 {
		instr = c.Regs.Reg(sr)
	}
	if instr&0xFFC0 == 0140600 {
		c.Regs.SetStsBit(register.StsZ, true)
		return NoTrap
	}
	c.dispatch(instr)
	return NoTrap
}

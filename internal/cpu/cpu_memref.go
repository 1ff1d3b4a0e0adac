package cpu

import "github.com/nd100vm/nd100/internal/register"

// setupMemRef installs the memory-reference group: STZ/STA/STT/STX/STD/
// STF/LDA/LDT/LDX/LDD/LDF, ADD/SUB/AND/ORA/MIN, JMP/JPL, the
// conditional jumps, and SKP. Opcodes are grounded on the opcode table
// populated by Setup_Instructions.
func (c *CPU) setupMemRef() {
	c.addMask(0000000, 0xF800, opSTZ)
	c.addMask(0004000, 0xF800, opSTA)
	c.addMask(0010000, 0xF800, opSTT)
	c.addMask(0014000, 0xF800, opSTX)
	c.addMask(0020000, 0xF800, opSTD)
	c.addMask(0024000, 0xF800, opLDD)
	c.addMask(0030000, 0xF800, opSTF)
	c.addMask(0034000, 0xF800, opLDF)
	c.addMask(0040000, 0xF800, opMIN)
	c.addMask(0044000, 0xF800, opLDA)
	c.addMask(0050000, 0xF800, opLDT)
	c.addMask(0054000, 0xF800, opLDX)
	c.addMask(0060000, 0xF800, opADD)
	c.addMask(0064000, 0xF800, opSUB)
	c.addMask(0070000, 0xF800, opAND)
	c.addMask(0074000, 0xF800, opORA)

	c.addMask(0124000, 0xF800, opJMP)
	c.addMask(0134000, 0xF800, opJPL)

	c.addMask(0130000, 0xFF00, opJAP)
	c.addMask(0130400, 0xFF00, opJAN)
	c.addMask(0131000, 0xFF00, opJAZ)
	c.addMask(0131400, 0xFF00, opJAF)
	c.addMask(0132000, 0xFF00, opJPC)
	c.addMask(0132400, 0xFF00, opJNC)
	c.addMask(0133000, 0xFF00, opJXZ)
	c.addMask(0133400, 0xFF00, opJXN)

	c.addMask(0140000, 0xF8C0, opSKP)
}

func opSTZ(c *CPU, operand uint16) Trap {
	ea, apt := c.effectiveAddress(operand)
	if !c.writeMem(ea, 0, apt) {
		return Restart
	}
	return NoTrap
}

func opSTA(c *CPU, operand uint16) Trap {
	ea, apt := c.effectiveAddress(operand)
	if !c.writeMem(ea, c.Regs.Reg(register.A), apt) {
		return Restart
	}
	return NoTrap
}

func opSTT(c *CPU, operand uint16) Trap {
	ea, apt := c.effectiveAddress(operand)
	if !c.writeMem(ea, c.Regs.Reg(register.T), apt) {
		return Restart
	}
	return NoTrap
}

func opSTX(c *CPU, operand uint16) Trap {
	ea, apt := c.effectiveAddress(operand)
	if !c.writeMem(ea, c.Regs.Reg(register.X), apt) {
		return Restart
	}
	return NoTrap
}

func opSTD(c *CPU, operand uint16) Trap {
	ea, apt := c.effectiveAddress(operand)
	if !c.writeMem(ea, c.Regs.Reg(register.A), apt) {
		return Restart
	}
	if !c.writeMem(ea+1, c.Regs.Reg(register.D), apt) {
		return Restart
	}
	return NoTrap
}

func opSTF(c *CPU, operand uint16) Trap {
	ea, apt := c.effectiveAddress(operand)
	if !c.writeMem(ea, c.Regs.Reg(register.T), apt) {
		return Restart
	}
	if !c.writeMem(ea+1, c.Regs.Reg(register.A), apt) {
		return Restart
	}
	if !c.writeMem(ea+2, c.Regs.Reg(register.D), apt) {
		return Restart
	}
	return NoTrap
}

func opLDA(c *CPU, operand uint16) Trap {
	ea, apt := c.effectiveAddress(operand)
	v, ok := c.readMem(ea, apt)
	if !ok {
		return Restart
	}
	c.Regs.SetReg(register.A, v)
	return NoTrap
}

func opLDT(c *CPU, operand uint16) Trap {
	ea, apt := c.effectiveAddress(operand)
	v, ok := c.readMem(ea, apt)
	if !ok {
		return Restart
	}
	c.Regs.SetReg(register.T, v)
	return NoTrap
}

func opLDX(c *CPU, operand uint16) Trap {
	ea, apt := c.effectiveAddress(operand)
	v, ok := c.readMem(ea, apt)
	if !ok {
		return Restart
	}
	c.Regs.SetReg(register.X, v)
	return NoTrap
}

func opLDD(c *CPU, operand uint16) Trap {
	ea, apt := c.effectiveAddress(operand)
	a, ok := c.readMem(ea, apt)
	if !ok {
		return Restart
	}
	d, ok := c.readMem(ea+1, apt)
	if !ok {
		return Restart
	}
	c.Regs.SetReg(register.A, a)
	c.Regs.SetReg(register.D, d)
	return NoTrap
}

func opLDF(c *CPU, operand uint16) Trap {
	ea, apt := c.effectiveAddress(operand)
	t, ok := c.readMem(ea, apt)
	if !ok {
		return Restart
	}
	a, ok := c.readMem(ea+1, apt)
	if !ok {
		return Restart
	}
	d, ok := c.readMem(ea+2, apt)
	if !ok {
		return Restart
	}
	c.Regs.SetReg(register.T, t)
	c.Regs.SetReg(register.A, a)
	c.Regs.SetReg(register.D, d)
	return NoTrap
}

func opMIN(c *CPU, operand uint16) Trap {
	ea, apt := c.effectiveAddress(operand)
	v, ok := c.readMem(ea, apt)
	if !ok {
		return Restart
	}
	v++
	if !c.writeMem(ea, v, apt) {
		return Restart
	}
	c.Regs.SetReg(register.A, v)
	return NoTrap
}

func opADD(c *CPU, operand uint16) Trap {
	ea, apt := c.effectiveAddress(operand)
	v, ok := c.readMem(ea, apt)
	if !ok {
		return Restart
	}
	c.Regs.SetReg(register.A, c.doAdd(c.Regs.Reg(register.A), v, 0))
	return NoTrap
}

func opSUB(c *CPU, operand uint16) Trap {
	ea, apt := c.effectiveAddress(operand)
	v, ok := c.readMem(ea, apt)
	if !ok {
		return Restart
	}
	c.Regs.SetReg(register.A, c.doAdd(c.Regs.Reg(register.A), ^v, 1))
	return NoTrap
}

func opAND(c *CPU, operand uint16) Trap {
	ea, apt := c.effectiveAddress(operand)
	v, ok := c.readMem(ea, apt)
	if !ok {
		return Restart
	}
	c.Regs.SetReg(register.A, c.Regs.Reg(register.A)&v)
	return NoTrap
}

func opORA(c *CPU, operand uint16) Trap {
	ea, apt := c.effectiveAddress(operand)
	v, ok := c.readMem(ea, apt)
	if !ok {
		return Restart
	}
	c.Regs.SetReg(register.A, c.Regs.Reg(register.A)|v)
	return NoTrap
}

func opJMP(c *CPU, operand uint16) Trap {
	ea, _ := c.effectiveAddress(operand)
	c.Regs.SetPC(ea)
	return NoTrap
}

func opJPL(c *CPU, operand uint16) Trap {
	ea, _ := c.effectiveAddress(operand)
	c.Regs.SetReg(register.L, c.Regs.PC())
	c.Regs.SetPC(ea)
	return NoTrap
}

// condJump sign-extends the low 8 bits of operand and, if match is
// true, adds the displacement to P-1 (the address of this instruction).
func (c *CPU) condJump(operand uint16, match bool) {
	if !match {
		return
	}
	disp := signExtend(operand)
	p := c.Regs.PC() - 1
	c.Regs.SetPC(uint16(int32(p) + int32(disp)))
}

func opJAP(c *CPU, operand uint16) Trap {
	a := int16(c.Regs.Reg(register.A))
	c.condJump(operand, a > 0)
	return NoTrap
}

func opJAN(c *CPU, operand uint16) Trap {
	a := int16(c.Regs.Reg(register.A))
	c.condJump(operand, a < 0)
	return NoTrap
}

func opJAZ(c *CPU, operand uint16) Trap {
	a := c.Regs.Reg(register.A)
	c.Regs.SetStsBit(register.StsC, a == 0)
	c.condJump(operand, a == 0)
	return NoTrap
}

func opJAF(c *CPU, operand uint16) Trap {
	a := c.Regs.Reg(register.A)
	c.condJump(operand, a != 0)
	return NoTrap
}

func opJPC(c *CPU, operand uint16) Trap {
	x := c.Regs.Reg(register.X) + 1
	c.Regs.SetReg(register.X, x)
	c.condJump(operand, c.Regs.StsBit(register.StsC))
	return NoTrap
}

func opJNC(c *CPU, operand uint16) Trap {
	x := c.Regs.Reg(register.X) + 1
	c.Regs.SetReg(register.X, x)
	c.condJump(operand, !c.Regs.StsBit(register.StsC))
	return NoTrap
}

func opJXZ(c *CPU, operand uint16) Trap {
	x := c.Regs.Reg(register.X)
	c.condJump(operand, x == 0)
	return NoTrap
}

func opJXN(c *CPU, operand uint16) Trap {
	x := int16(c.Regs.Reg(register.X))
	c.condJump(operand, x < 0)
	return NoTrap
}

// opSKP decodes one of the 16 "skip if condition" tests against D, A or
// the level's X register and advances P an extra word on match.
func opSKP(c *CPU, operand uint16) Trap {
	regSel := (operand >> 6) & 0x03
	cond := operand & 0x07
	var v uint16
	switch regSel {
	case 0:
		v = c.Regs.Reg(register.D)
	case 1:
		v = c.Regs.Reg(register.A)
	default:
		v = c.Regs.Reg(register.X)
	}
	sv := int16(v)
	var match bool
	switch cond {
	case 0: // skip if zero
		match = v == 0
	case 1: // skip if not zero
		match = v != 0
	case 2: // skip if positive
		match = sv > 0
	case 3: // skip if negative
		match = sv < 0
	case 4: // skip if positive or zero
		match = sv >= 0
	case 5: // skip if negative or zero
		match = sv <= 0
	}
	if match {
		c.Regs.SetPC(c.Regs.PC() + 1)
	}
	return NoTrap
}

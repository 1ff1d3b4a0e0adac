package cpu

import "github.com/nd100vm/nd100/internal/register"

// setupStack installs the stack-frame convention instructions INIT,
// ENTR, LEAVE, and ELEAV, each reading a small parameter block that
// follows the instruction in memory.
func (c *CPU) setupStack() {
	c.addExact(0140134, opINIT)
	c.addExact(0140135, opENTR)
	c.addExact(0140136, opLEAVE)
	c.addExact(0140137, opELEAV)
}

// opINIT establishes a new stack frame from the 4-word parameter block
// at P..P+3 (demand, start, maxsize, flag), skipping 5 or 6 words
// depending on overflow/flag mismatch, per the ND-100 stack convention.
func opINIT(c *CPU, operand uint16) Trap {
	p := c.Regs.PC()
	demand, ok := c.readMem(p, false)
	if !ok {
		return Restart
	}
	start, ok := c.readMem(p+1, false)
	if !ok {
		return Restart
	}
	maxsize, ok := c.readMem(p+2, false)
	if !ok {
		return Restart
	}
	flag, ok := c.readMem(p+3, false)
	if !ok {
		return Restart
	}

	if start+128+demand-122 > start+maxsize {
		c.Regs.SetPC(p + 5)
		return NoTrap
	}
	sts := c.Regs.Reg(register.STS)
	if flag&1 != sts&1 {
		c.Regs.SetPC(p + 5)
		return NoTrap
	}

	l := c.Regs.Reg(register.L)
	b := c.Regs.Reg(register.B)
	if !c.writeMem(start, l+1, false) { // LINK
		return Restart
	}
	if !c.writeMem(start+1, b, false) { // PREVB
		return Restart
	}
	if !c.writeMem(start+3, start+maxsize, false) { // SMAX
		return Restart
	}
	newB := start + 128
	if !c.writeMem(start+2, newB+demand-122, false) { // STP
		return Restart
	}
	c.Regs.SetReg(register.B, newB)
	c.Regs.SetPC(p + 6)
	return NoTrap
}

// opENTR grows the current frame by the demand at P, chaining a new
// frame header the way INIT does; stack overflow skips one extra word.
func opENTR(c *CPU, operand uint16) Trap {
	p := c.Regs.PC()
	demand, ok := c.readMem(p, false)
	if !ok {
		return Restart
	}
	b := c.Regs.Reg(register.B)
	smax, ok := c.readMem(b-125, false)
	if !ok {
		return Restart
	}
	if b+demand-122 > smax {
		c.Regs.SetPC(p + 1)
		return NoTrap
	}
	stp, ok := c.readMem(b-126, false)
	if !ok {
		return Restart
	}
	oldB := b
	newB := stp + 128
	l := c.Regs.Reg(register.L)

	if !c.writeMem(newB-128, l+1, false) {
		return Restart
	}
	if !c.writeMem(newB-127, oldB, false) {
		return Restart
	}
	if !c.writeMem(newB-125, smax, false) {
		return Restart
	}
	if !c.writeMem(newB-126, newB+demand-122, false) {
		return Restart
	}
	c.Regs.SetReg(register.B, newB)
	c.Regs.SetPC(p + 2)
	return NoTrap
}

// opLEAVE restores P and B from the current frame's header words.
func opLEAVE(c *CPU, operand uint16) Trap {
	b := c.Regs.Reg(register.B)
	p, ok := c.readMem(b-128, false)
	if !ok {
		return Restart
	}
	newB, ok := c.readMem(b-127, false)
	if !ok {
		return Restart
	}
	c.Regs.SetPC(p)
	c.Regs.SetReg(register.B, newB)
	return NoTrap
}

// opELEAV is LEAVE's error-return form: it decrements the frame's link
// count, records A as the error code, then unwinds exactly as LEAVE.
func opELEAV(c *CPU, operand uint16) Trap {
	b := c.Regs.Reg(register.B)
	link, ok := c.readMem(b-128, false)
	if !ok {
		return Restart
	}
	if !c.writeMem(b-128, link-1, false) {
		return Restart
	}
	if !c.writeMem(b-123, c.Regs.Reg(register.A), false) {
		return Restart
	}
	p, ok := c.readMem(b-128, false)
	if !ok {
		return Restart
	}
	newB, ok := c.readMem(b-127, false)
	if !ok {
		return Restart
	}
	c.Regs.SetPC(p)
	c.Regs.SetReg(register.B, newB)
	return NoTrap
}

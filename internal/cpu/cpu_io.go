package cpu

import (
	"github.com/nd100vm/nd100/internal/interrupt"
	"github.com/nd100vm/nd100/internal/register"
)

// setupIO installs IOT (treated as illegal, per decision), IOX, IOXT,
// and the four IDENT PLxx forms.
func (c *CPU) setupIO() {
	c.addMask(0160000, 0xF800, opIOT)
	c.addMask(0164000, 0xF800, opIOX)
	c.addExact(0150415, opIOXT)

	c.addExact(0143604, opIdentPL10)
	c.addExact(0143611, opIdentPL11)
	c.addExact(0143622, opIdentPL12)
	c.addExact(0143643, opIdentPL13)
}

// IOT is privileged when ring 0/1 and illegal when ring 2/3; no ND-1
// teletype-IO emulation layer exists here, so it always resolves to the
// illegal-instruction path once privilege is confirmed.
func opIOT(c *CPU, operand uint16) Trap {
	if !c.checkPriv() {
		return Restart
	}
	return illegalInstr(c, operand)
}

// updateMemoryIO intercepts the in-memory I/O register window
// (0x8000-0x81FF), notably ECCR at 0x804D, rather than dispatching to
// the device layer.
func (c *CPU) updateMemoryIO() bool {
	t := c.Regs.Reg(register.T)
	if t < 0x8000 || t > 0x81FF {
		return false
	}
	if t == 0x804D {
		c.Regs.ECCR = c.Regs.Reg(register.A)
		return true
	}
	return false
}

func opIOX(c *CPU, operand uint16) Trap {
	if !c.checkPriv() {
		return Restart
	}
	if !c.updateMemoryIO() {
		a := c.Regs.Reg(register.A)
		c.Regs.SetReg(register.A, c.Devs.IOOp(operand&0x7FF, a))
	}
	return NoTrap
}

func opIOXT(c *CPU, operand uint16) Trap {
	if !c.checkPriv() {
		return Restart
	}
	if !c.updateMemoryIO() {
		a := c.Regs.Reg(register.A)
		c.Regs.SetReg(register.A, c.Devs.IOOp(c.Regs.Reg(register.T), a))
	}
	return NoTrap
}

// doIdent queries the device layer for the highest-priority requester
// at level, loading its identification code into A; absent a response,
// it raises an IOX-error sub-interrupt except at level 13 (the RTC,
// whose absence is routinely ignored).
func (c *CPU) doIdent(level int) {
	id := c.Devs.Ident(level)
	if id >= 0 {
		c.Regs.SetReg(register.A, uint16(id))
		return
	}
	c.Regs.SetReg(register.A, 0)
	if level != 13 {
		c.Intr.Interrupt(14, interrupt.SubIOXError)
	}
}

func opIdentPL10(c *CPU, operand uint16) Trap {
	if !c.checkPriv() {
		return Restart
	}
	c.doIdent(10)
	return NoTrap
}

func opIdentPL11(c *CPU, operand uint16) Trap {
	if !c.checkPriv() {
		return Restart
	}
	c.doIdent(11)
	return NoTrap
}

func opIdentPL12(c *CPU, operand uint16) Trap {
	if !c.checkPriv() {
		return Restart
	}
	c.doIdent(12)
	return NoTrap
}

func opIdentPL13(c *CPU, operand uint16) Trap {
	if !c.checkPriv() {
		return Restart
	}
	c.doIdent(13)
	return NoTrap
}

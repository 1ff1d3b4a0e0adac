package cpu

import "github.com/nd100vm/nd100/internal/register"

func (c *CPU) setupROP() {
	c.addRange(0144000, 0147777, opROP)
}

// opROP decodes a register operation: SWAP/RAND/REXO/RORA (logical
// family) or RADD/RSUB/ADC-variants (arithmetic family), selected by
// bit 10 (RAD), with CM1 (complement source) and CLD (clear
// destination) modifiers and 3-bit source/destination register fields.
// Destination 0 is a no-op, except the arithmetic family still clears
// carry.
func opROP(c *CPU, operand uint16) Trap {
	rad := (operand >> 10) & 1
	cm1 := (operand>>7)&1 != 0
	cld := (operand>>6)&1 != 0
	sr := int((operand >> 3) & 0x07)
	dr := int(operand & 0x07)

	var source uint16
	if sr != 0 {
		source = c.Regs.Reg(sr)
	}

	if rad == 0 {
		if dr == 0 {
			return NoTrap
		}
		op := (operand >> 8) & 0x03
		dest := c.Regs.Reg(dr)
		switch op {
		case 0: // SWAP
			newDest := source
			if cm1 {
				newDest = ^source
			}
			c.Regs.SetReg(dr, newDest)
			if cld {
				c.Regs.SetReg(sr, 0)
			} else {
				c.Regs.SetReg(sr, dest)
			}
		case 1: // RAND
			s := source
			if cm1 {
				s = ^source
			}
			v := dest & s
			if cld {
				v = 0
			}
			c.Regs.SetReg(dr, v)
		case 2: // REXO
			s := source
			if cm1 {
				s = ^source
			}
			if cld {
				c.Regs.SetReg(dr, s)
			} else {
				c.Regs.SetReg(dr, dest^s)
			}
		case 3: // RORA
			s := source
			if cm1 {
				s = ^source
			}
			if cld {
				c.Regs.SetReg(dr, s)
			} else {
				c.Regs.SetReg(dr, dest|s)
			}
		}
		return NoTrap
	}

	// Arithmetic family.
	if dr == 0 {
		c.Regs.SetStsBit(register.StsC, false)
		return NoTrap
	}
	dest := c.Regs.Reg(dr)
	var result uint16
	switch (operand >> 7) & 0x07 {
	case 0: // RADD
		result = c.doAdd(dest, source, 0)
	case 1: // RADD CM1
		result = c.doAdd(dest, ^source, 0)
	case 2: // RADD AD1
		result = c.doAdd(dest, source, 1)
	case 3: // RADD AD1 CM1
		result = c.doAdd(dest, ^source, 1)
	case 4: // RADD ADC
		result = c.doAdd(dest, source, b2u16(c.Regs.StsBit(register.StsC)))
	case 5: // RADD ADC CM1
		result = c.doAdd(dest, ^source, b2u16(c.Regs.StsBit(register.StsC)))
	default: // no-op
		result = dest
	}
	c.Regs.SetReg(dr, result)
	return NoTrap
}

func b2u16(b bool) uint16 {
	if b {
		return 1
	}
	return 0
}

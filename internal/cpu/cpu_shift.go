package cpu

import "github.com/nd100vm/nd100/internal/register"

// setupShift installs SHT/SHD/SHA/SAD. All four share a 6-bit signed
// shift count (bit 5 is sign, bits 0-4 magnitude) and a 2-bit
// shift-type field: plain, rotate, zero-insert, or link-insert via
// STS.M.
func (c *CPU) setupShift() {
	c.addMask(0154000, 0xF980, opShift) // SHT
	c.addMask(0154200, 0xF980, opShift) // SHD
	c.addMask(0154400, 0xF980, opShift) // SHA
	c.addMask(0154600, 0xF980, opShift) // SAD
}

// shiftReg16 mirrors ShiftReg: shifts reg by the decoded count and
// direction, updating STS.M to the last bit shifted out.
func (c *CPU) shiftReg16(reg, instr uint16) uint16 {
	isNeg := instr&0x20 != 0
	count := instr & 0x3F
	if isNeg {
		count = (^(count | 0xFFC0) + 1) & 0x3F
	}
	shiftType := (instr >> 9) & 0x03
	m := uint16(0)
	if c.Regs.StsBit(register.StsM) {
		m = 1
	}
	tmp := m

	for i := uint16(1); i <= count; i++ {
		if isNeg {
			tmp = reg & 1
		} else {
			tmp = (reg >> 15) & 1
		}
		msb := (reg >> 15) & 1
		if isNeg {
			reg >>= 1
		} else {
			reg <<= 1
		}
		switch shiftType {
		case 0: // plain
			if isNeg {
				reg = (reg & 0x7FFF) | (msb << 15)
			} else {
				reg &= 0xFFFE
			}
		case 1: // rotate
			if isNeg {
				reg = (reg & 0x7FFF) | (tmp << 15)
			} else {
				reg = (reg & 0xFFFE) | tmp
			}
		case 2: // zero-insert
			if isNeg {
				reg &= 0x7FFF
			} else {
				reg &= 0xFFFE
			}
		case 3: // link-insert
			if isNeg {
				reg = (reg & 0x7FFF) | (m << 15)
			} else {
				reg = (reg & 0xFFFE) | m
			}
		}
	}
	c.Regs.SetStsBit(register.StsM, tmp != 0)
	return reg
}

// shiftReg32 is SAD's 32-bit variant, operating over the (A,D) pair.
func (c *CPU) shiftReg32(reg uint32, instr uint16) uint32 {
	isNeg := instr&0x20 != 0
	count := instr & 0x3F
	if isNeg {
		count = (^(count | 0xFFC0) + 1) & 0x3F
	}
	shiftType := (instr >> 9) & 0x03
	m := uint32(0)
	if c.Regs.StsBit(register.StsM) {
		m = 1
	}
	tmp := m

	for i := uint16(1); i <= count; i++ {
		if isNeg {
			tmp = reg & 1
		} else {
			tmp = (reg >> 31) & 1
		}
		msb := (reg >> 31) & 1
		if isNeg {
			reg >>= 1
		} else {
			reg <<= 1
		}
		switch shiftType {
		case 0:
			if isNeg {
				reg = (reg & 0x7FFFFFFF) | (msb << 31)
			} else {
				reg &= 0xFFFFFFFE
			}
		case 1:
			if isNeg {
				reg = (reg & 0x7FFFFFFF) | (tmp << 31)
			} else {
				reg = (reg & 0xFFFFFFFE) | tmp
			}
		case 2:
			if isNeg {
				reg &= 0x7FFFFFFF
			} else {
				reg &= 0xFFFFFFFE
			}
		case 3:
			if isNeg {
				reg = (reg & 0x7FFFFFFF) | (m << 31)
			} else {
				reg = (reg & 0xFFFFFFFE) | m
			}
		}
	}
	c.Regs.SetStsBit(register.StsM, tmp != 0)
	return reg
}

func opShift(c *CPU, operand uint16) Trap {
	switch (operand >> 7) & 0x03 {
	case 0: // SHT
		c.Regs.SetReg(register.T, c.shiftReg16(c.Regs.Reg(register.T), operand))
	case 1: // SHD
		c.Regs.SetReg(register.D, c.shiftReg16(c.Regs.Reg(register.D), operand))
	case 2: // SHA
		c.Regs.SetReg(register.A, c.shiftReg16(c.Regs.Reg(register.A), operand))
	case 3: // SAD
		double := uint32(c.Regs.Reg(register.A))<<16 | uint32(c.Regs.Reg(register.D))
		double = c.shiftReg32(double, operand)
		c.Regs.SetReg(register.A, uint16(double>>16))
		c.Regs.SetReg(register.D, uint16(double))
	}
	return NoTrap
}

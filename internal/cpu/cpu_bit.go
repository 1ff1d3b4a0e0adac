package cpu

import "github.com/nd100vm/nd100/internal/register"

// setupBit installs the bit-test/bit-set family (do_bops' 16 variants)
// and the short-literal AAA/AAB/AAT/AAX/SAA/SAB/SAT/SAX instructions
// that share its opcode neighborhood.
func (c *CPU) setupBit() {
	c.addRange(0174000, 0177777, opBOPS)

	c.addMask(0170000, 0xFF00, opSAB)
	c.addMask(0170400, 0xFF00, opSAA)
	c.addMask(0171000, 0xFF00, opSAT)
	c.addMask(0171400, 0xFF00, opSAX)
	c.addMask(0172000, 0xFF00, opAAB)
	c.addMask(0172400, 0xFF00, opAAA)
	c.addMask(0173000, 0xFF00, opAAT)
	c.addMask(0173400, 0xFF00, opAAX)
}

// getBit reads bit bn of register regnum (index 0 = STS, reading the
// full 16-bit shared/per-level composite), matching getbit.
func (c *CPU) getBit(regnum, bn int) bool {
	if regnum == register.STS {
		return (c.Regs.Sts()>>uint(bn))&1 != 0
	}
	return (c.Regs.Reg(regnum)>>uint(bn))&1 != 0
}

// setBit writes bit bn of register regnum, matching setbit (STS bits
// above 7 route to the shared status word).
func (c *CPU) setBit(regnum, bn int, val bool) {
	if regnum == register.STS {
		c.Regs.SetStsBit(bn, val)
		return
	}
	v := c.Regs.Reg(regnum)
	if val {
		v |= 1 << uint(bn)
	} else {
		v &^= 1 << uint(bn)
	}
	c.Regs.SetReg(regnum, v)
}

// opBOPS decodes the 16 bit-operation variants: BSET (4), BSKP (4),
// BSTC/BSTA/BLDC/BLDA/BANC/BAND/BORC/BORA, all reading/writing bit
// number (operand&0x78)>>3 of register operand&0x07 (register 0 is
// STS) against STS.K.
func opBOPS(c *CPU, operand uint16) Trap {
	bn := int((operand & 0x78) >> 3)
	dr := int(operand & 0x07)
	k := c.Regs.StsBit(register.StsK)

	switch (operand & 0x780) >> 7 {
	case 0: // BSET ZRO
		c.setBit(dr, bn, false)
	case 1: // BSET ONE
		c.setBit(dr, bn, true)
	case 2: // BSET BCM
		c.setBit(dr, bn, !c.getBit(dr, bn))
	case 3: // BSET BAC
		c.setBit(dr, bn, k)
	case 4: // BSKP ZRO
		if !c.getBit(dr, bn) {
			c.Regs.SetPC(c.Regs.PC() + 1)
		}
	case 5: // BSKP ONE
		if c.getBit(dr, bn) {
			c.Regs.SetPC(c.Regs.PC() + 1)
		}
	case 6: // BSKP BCM
		if !c.getBit(dr, bn) == k {
			c.Regs.SetPC(c.Regs.PC() + 1)
		}
	case 7: // BSKP BAC
		if c.getBit(dr, bn) == k {
			c.Regs.SetPC(c.Regs.PC() + 1)
		}
	case 8: // BSTC
		c.setBit(dr, bn, !k)
		c.Regs.SetStsBit(register.StsK, true)
	case 9: // BSTA
		c.setBit(dr, bn, k)
		c.Regs.SetStsBit(register.StsK, false)
	case 10: // BLDC
		c.Regs.SetStsBit(register.StsK, !c.getBit(dr, bn))
	case 11: // BLDA
		c.Regs.SetStsBit(register.StsK, c.getBit(dr, bn))
	case 12: // BANC
		c.Regs.SetStsBit(register.StsK, !c.getBit(dr, bn) && k)
	case 13: // BAND
		c.Regs.SetStsBit(register.StsK, c.getBit(dr, bn) && k)
	case 14: // BORC
		c.Regs.SetStsBit(register.StsK, !c.getBit(dr, bn) || k)
	case 15: // BORA
		c.Regs.SetStsBit(register.StsK, c.getBit(dr, bn) || k)
	}
	return NoTrap
}

func opSAA(c *CPU, operand uint16) Trap {
	c.Regs.SetReg(register.A, uint16(signExtend(operand&0xFF)))
	return NoTrap
}

func opSAB(c *CPU, operand uint16) Trap {
	c.Regs.SetReg(register.B, uint16(signExtend(operand&0xFF)))
	return NoTrap
}

func opSAT(c *CPU, operand uint16) Trap {
	c.Regs.SetReg(register.T, uint16(signExtend(operand&0xFF)))
	return NoTrap
}

func opSAX(c *CPU, operand uint16) Trap {
	c.Regs.SetReg(register.X, uint16(signExtend(operand&0xFF)))
	return NoTrap
}

func opAAA(c *CPU, operand uint16) Trap {
	c.Regs.SetReg(register.A, c.doAdd(c.Regs.Reg(register.A), uint16(signExtend(operand&0xFF)), 0))
	return NoTrap
}

func opAAB(c *CPU, operand uint16) Trap {
	c.Regs.SetReg(register.B, c.doAdd(c.Regs.Reg(register.B), uint16(signExtend(operand&0xFF)), 0))
	return NoTrap
}

func opAAT(c *CPU, operand uint16) Trap {
	c.Regs.SetReg(register.T, c.doAdd(c.Regs.Reg(register.T), uint16(signExtend(operand&0xFF)), 0))
	return NoTrap
}

func opAAX(c *CPU, operand uint16) Trap {
	c.Regs.SetReg(register.X, c.doAdd(c.Regs.Reg(register.X), uint16(signExtend(operand&0xFF)), 0))
	return NoTrap
}

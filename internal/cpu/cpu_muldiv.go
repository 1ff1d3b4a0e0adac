package cpu

import "github.com/nd100vm/nd100/internal/register"

func (c *CPU) setupMulDiv() {
	c.addMask(0120000, 0xF800, opMPY)
	c.addMask(0141200, 0xFFC0, opRMPY)
	c.addMask(0141600, 0xFFC0, opRDIV)
}

// opMPY multiplies A by the effective-address operand as signed 16-bit
// values, keeping only the low 16 bits of the product in A.
func opMPY(c *CPU, operand uint16) Trap {
	a := int32(int16(c.Regs.Reg(register.A)))
	ea, apt := c.effectiveAddress(operand)
	mem, ok := c.readMem(ea, apt)
	if !ok {
		return Restart
	}
	b := int32(int16(mem))

	result := a * b
	c.Regs.SetStsBit(register.StsQ, false)
	if result < -32768 || result > 32767 {
		c.Regs.SetStsBit(register.StsQ, true)
		c.Regs.SetStsBit(register.StsO, true)
	}
	c.Regs.SetReg(register.A, uint16(int16(result)))
	return NoTrap
}

// opRMPY is the register-to-register 16x16->32 signed multiply, result
// in (A,D); carry reflects a result wider than 16 bits.
func opRMPY(c *CPU, operand uint16) Trap {
	sr := (operand & 0x38) >> 3
	dr := operand & 0x07

	var source, dest int32
	if sr != 0 {
		source = int32(int16(c.Regs.Reg(int(sr))))
	}
	if dr != 0 {
		dest = int32(int16(c.Regs.Reg(int(dr))))
	}

	minusCnt := 0
	if source < 0 {
		source = -source
		minusCnt++
	}
	if dest < 0 {
		dest = -dest
		minusCnt++
	}

	result := source * dest
	c.Regs.SetStsBit(register.StsQ, false)
	if result > 0x7FFFFFFF {
		c.Regs.SetStsBit(register.StsQ, true)
		c.Regs.SetStsBit(register.StsO, true)
	}
	c.Regs.SetStsBit(register.StsC, result&^0xFFFF != 0)

	if minusCnt == 1 {
		result = -result
	}
	c.Regs.SetReg(register.A, uint16((result>>16)&0xFFFF))
	c.Regs.SetReg(register.D, uint16(result&0xFFFF))
	return NoTrap
}

// opRDIV divides the 32-bit (A,D) dividend by a register operand,
// setting STS.Z on division by zero or quotient overflow.
func opRDIV(c *CPU, operand uint16) Trap {
	dividend := int32(c.Regs.Reg(register.A))<<16 | int32(c.Regs.Reg(register.D))
	dr := (operand & 0x38) >> 3
	var divisor int32
	if dr != 0 {
		divisor = int32(int16(c.Regs.Reg(int(dr))))
	}
	if divisor == 0 {
		c.Regs.SetStsBit(register.StsZ, true)
		return NoTrap
	}

	quotient := dividend / divisor
	remainder := dividend - quotient*divisor

	c.Regs.SetStsBit(register.StsC, quotient&^0xFFFF != 0)
	if quotient < -32768 || quotient > 32767 {
		c.Regs.SetStsBit(register.StsZ, true)
		return NoTrap
	}
	c.Regs.SetReg(register.A, uint16(quotient))
	c.Regs.SetReg(register.D, uint16(remainder))
	return NoTrap
}

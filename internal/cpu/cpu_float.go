package cpu

import "github.com/nd100vm/nd100/internal/register"

// setupFloat installs the floating-point memory-reference group FAD/
// FSB/FMU/FDV over the (T,A,D) register triplet, using a normalized
// 32-bit signed-fraction mantissa (A high, D low) with a 16-bit signed
// binary exponent in T. float64 is used as the working precision for
// the arithmetic itself; only the final result is renormalized back
// into the triplet.
func (c *CPU) setupFloat() {
	c.addMask(0100000, 0xF800, opFAD)
	c.addMask(0104000, 0xF800, opFSB)
	c.addMask(0110000, 0xF800, opFMU)
	c.addMask(0114000, 0xF800, opFDV)
}

func triplet(t, a, d uint16) float64 {
	mantissa := int32(uint32(a)<<16 | uint32(d))
	return float64(mantissa) / float64(1<<31) * pow2(int16(t))
}

func pow2(exp int16) float64 {
	v := 1.0
	if exp >= 0 {
		for i := int16(0); i < exp; i++ {
			v *= 2
		}
		return v
	}
	for i := int16(0); i > exp; i-- {
		v /= 2
	}
	return v
}

// fromFloat renormalizes f back into a (T,A,D) triplet, scaling the
// mantissa to fill [-1,1) and recording the binary exponent in T.
func fromFloat(f float64) (t, a, d uint16) {
	if f == 0 {
		return 0, 0, 0
	}
	exp := int16(0)
	mag := f
	if mag < 0 {
		mag = -mag
	}
	for mag >= 1 {
		mag /= 2
		exp++
	}
	for mag < 0.5 {
		mag *= 2
		exp--
	}
	mantissa := int32(f / pow2(exp) * float64(1<<31))
	return uint16(exp), uint16(uint32(mantissa) >> 16), uint16(mantissa)
}

func (c *CPU) readFloatMem(ea uint16, apt bool) (t, a, d uint16, ok bool) {
	t, ok = c.readMem(ea, apt)
	if !ok {
		return
	}
	a, ok = c.readMem(ea+1, apt)
	if !ok {
		return
	}
	d, ok = c.readMem(ea+2, apt)
	return
}

func (c *CPU) storeFloatResult(f float64) {
	t, a, d := fromFloat(f)
	c.Regs.SetReg(register.T, t)
	c.Regs.SetReg(register.A, a)
	c.Regs.SetReg(register.D, d)
}

func opFAD(c *CPU, operand uint16) Trap {
	ea, apt := c.effectiveAddress(operand)
	bt, ba, bd, ok := c.readFloatMem(ea, apt)
	if !ok {
		return Restart
	}
	av := triplet(c.Regs.Reg(register.T), c.Regs.Reg(register.A), c.Regs.Reg(register.D))
	bv := triplet(bt, ba, bd)
	c.storeFloatResult(av + bv)
	return NoTrap
}

func opFSB(c *CPU, operand uint16) Trap {
	ea, apt := c.effectiveAddress(operand)
	bt, ba, bd, ok := c.readFloatMem(ea, apt)
	if !ok {
		return Restart
	}
	av := triplet(c.Regs.Reg(register.T), c.Regs.Reg(register.A), c.Regs.Reg(register.D))
	bv := triplet(bt, ba, bd)
	c.storeFloatResult(av - bv)
	return NoTrap
}

func opFMU(c *CPU, operand uint16) Trap {
	ea, apt := c.effectiveAddress(operand)
	bt, ba, bd, ok := c.readFloatMem(ea, apt)
	if !ok {
		return Restart
	}
	av := triplet(c.Regs.Reg(register.T), c.Regs.Reg(register.A), c.Regs.Reg(register.D))
	bv := triplet(bt, ba, bd)
	c.storeFloatResult(av * bv)
	return NoTrap
}

func opFDV(c *CPU, operand uint16) Trap {
	ea, apt := c.effectiveAddress(operand)
	bt, ba, bd, ok := c.readFloatMem(ea, apt)
	if !ok {
		return Restart
	}
	av := triplet(c.Regs.Reg(register.T), c.Regs.Reg(register.A), c.Regs.Reg(register.D))
	bv := triplet(bt, ba, bd)
	if bv == 0 {
		c.Regs.SetStsBit(register.StsZ, true)
		return NoTrap
	}
	c.storeFloatResult(av / bv)
	return NoTrap
}

package cpu

import "github.com/nd100vm/nd100/internal/register"

// setupByte installs BFILL, MOVB, MOVBF, LBYT, SBYT: the byte-pointer
// instructions that interpret T/X as a (word, half) byte cursor. Bit 15
// of T selects MSB vs LSB half-word; bit 14 selects the alternate page
// table.
func (c *CPU) setupByte() {
	c.addExact(0140130, opBFILL)
	c.addExact(0140131, opMOVB)
	c.addExact(0140132, opMOVBF)
	c.addMask(0142200, 0xFFC0, opLBYT)
	c.addMask(0142600, 0xFFC0, opSBYT)
}

// opBFILL fills (T&0xFFF) bytes starting at the X/T byte cursor with
// the low byte of A, then clears T's byte count (bits 0-11), keeps T
// bits 12-14, sets T bit 15 to the half-word bit of the next byte, and
// leaves X pointing past the last byte written.
func opBFILL(c *CPU, operand uint16) Trap {
	t := c.Regs.Reg(register.T)
	x := c.Regs.Reg(register.X)
	useAPT := t&(1<<14) != 0
	thebyte := c.Regs.Reg(register.A) & 0xFF

	right := uint16(0)
	if t&(1<<15) != 0 {
		right = 1
	}
	length := t & 0x0FFF

	var i uint16
	addr := x
	for i = 0; i < length; i++ {
		addr = x + (i+right)>>1
		sel := SelMSB
		if (i+right)&1 != 0 {
			sel = SelLSB
		}
		if !c.writeMemByte(addr, thebyte, useAPT, sel) {
			return Restart
		}
	}

	final := (i + right) & 1
	c.Regs.SetReg(register.T, (t&0x7000)|(final<<15))
	c.Regs.SetReg(register.X, x+(i+right)>>1)
	return NoTrap
}

// byteCursor decodes the T/X byte pointer used by LBYT/SBYT/MOVB/MOVBF:
// the word address is T+X>>1 and the half is selected by X's low bit.
func byteCursor(t, x uint16) (addr uint16, lsb bool) {
	return t + (x >> 1), x&1 != 0
}

func opLBYT(c *CPU, operand uint16) Trap {
	t := c.Regs.Reg(register.T)
	x := c.Regs.Reg(register.X)
	addr, lsb := byteCursor(t, x)
	v, ok := c.readMem(addr, true)
	if !ok {
		return Restart
	}
	if lsb {
		c.Regs.SetReg(register.A, v&0xFF)
	} else {
		c.Regs.SetReg(register.A, (v>>8)&0xFF)
	}
	return NoTrap
}

func opSBYT(c *CPU, operand uint16) Trap {
	t := c.Regs.Reg(register.T)
	x := c.Regs.Reg(register.X)
	addr, lsb := byteCursor(t, x)
	sel := SelMSB
	if lsb {
		sel = SelLSB
	}
	if !c.writeMemByte(addr, c.Regs.Reg(register.A), true, sel) {
		return Restart
	}
	return NoTrap
}

// opMOVB moves a single byte from the source cursor (T,X) to the
// destination cursor (D,X), advancing both
// cursors by one byte. The active path only (no destination/source
// overlap tracking) is implemented; overlap detection is MOVBF's job.
func opMOVB(c *CPU, operand uint16) Trap {
	t := c.Regs.Reg(register.T)
	x := c.Regs.Reg(register.X)
	srcAddr, srcLSB := byteCursor(t, x)
	v, ok := c.readMem(srcAddr, true)
	if !ok {
		return Restart
	}
	var b uint16
	if srcLSB {
		b = v & 0xFF
	} else {
		b = (v >> 8) & 0xFF
	}

	d := c.Regs.Reg(register.D)
	dstAddr, dstLSB := byteCursor(d, x)
	sel := SelMSB
	if dstLSB {
		sel = SelLSB
	}
	if !c.writeMemByte(dstAddr, b, true, sel) {
		return Restart
	}

	c.Regs.SetReg(register.X, x+1)
	c.Regs.SetPC(c.Regs.PC() + 1) // skip return
	return NoTrap
}

// opMOVBF is MOVB's block form: it additionally checks for destination/
// source byte-range overlap and withholds the skip return when found.
func opMOVBF(c *CPU, operand uint16) Trap {
	t := c.Regs.Reg(register.T)
	d := c.Regs.Reg(register.D)
	x := c.Regs.Reg(register.X)
	length := c.Regs.Reg(register.A)

	srcStart := t + (x >> 1)
	dstStart := d + (x >> 1)
	srcEnd := t + ((x + length) >> 1)
	dstEnd := d + ((x + length) >> 1)
	overlap := srcStart <= dstEnd && dstStart <= srcEnd

	if overlap {
		return NoTrap // no skip return: caller must retry with non-overlapping ranges
	}

	for i := uint16(0); i < length; i++ {
		srcAddr, srcLSB := byteCursor(t, x+i)
		v, ok := c.readMem(srcAddr, true)
		if !ok {
			return Restart
		}
		var b uint16
		if srcLSB {
			b = v & 0xFF
		} else {
			b = (v >> 8) & 0xFF
		}
		dstAddr, dstLSB := byteCursor(d, x+i)
		sel := SelMSB
		if dstLSB {
			sel = SelLSB
		}
		if !c.writeMemByte(dstAddr, b, true, sel) {
			return Restart
		}
	}

	c.Regs.SetReg(register.X, x+length)
	c.Regs.SetPC(c.Regs.PC() + 1) // skip return
	return NoTrap
}

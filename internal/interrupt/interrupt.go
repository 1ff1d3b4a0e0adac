// Package interrupt implements the ND-100 priority-encoded interrupt
// controller: external PID/PIE, internal IID/IIE/IIC, and the
// CHKIT-driven level switch.
package interrupt

import "github.com/nd100vm/nd100/internal/register"

// Internal interrupt sub-bits, level 14.
const (
	SubMonitorCall  = 1 << 1 // Monitor call
	SubMPV          = 1 << 2 // Memory protection violation
	SubPageFault    = 1 << 3 // Page fault
	SubIllegal      = 1 << 4 // Illegal instruction
	SubError        = 1 << 5 // Error indicator (Z)
	SubPrivileged   = 1 << 6 // Privileged instruction
	SubIOXError     = 1 << 7 // IOX error
	SubMemParity    = 1 << 8 // Memory parity error
	SubMemOutRange  = 1 << 9 // Memory out of range
	SubPowerFail    = 1 << 10
	restartSubMask  = SubMPV | SubPageFault | SubIllegal
	deviceBitsMask  = 0xBC00 // bits 10-13 and 15
)

// Controller computes priority levels and performs level switches over
// a shared register.File.
type Controller struct {
	Regs *register.File
}

// New returns a Controller bound to the given register file.
func New(regs *register.File) *Controller {
	return &Controller{Regs: regs}
}

// CalcPK returns the highest set bit of PID & PIE, or 0 if none is set.
func (c *Controller) CalcPK() int {
	active := c.Regs.PID & c.Regs.PIE
	if active == 0 {
		return 0
	}
	for lvl := 15; lvl >= 0; lvl-- {
		if active&(1<<uint(lvl)) != 0 {
			return lvl
		}
	}
	return 0
}

// CalcIIC returns the highest set bit (0-10) of IID & IIE, or 0 if none.
func (c *Controller) CalcIIC() uint16 {
	active := c.Regs.IID & c.Regs.IIE
	if active == 0 {
		return 0
	}
	for i := 10; i >= 0; i-- {
		if active&(1<<uint(i)) != 0 {
			return uint16(i)
		}
	}
	return 0
}

// recalcInternal mirrors the source's recalcInternalInterruptBits: folds
// the STS Z bit into IID bit 5, and if any internal cause is both
// detected and enabled, requests level 14 and recomputes IIC.
func (c *Controller) recalcInternal() {
	if c.Regs.StsBit(register.StsZ) {
		c.Regs.IID |= SubError
	}
	if c.Regs.IID&c.Regs.IIE != 0 {
		c.Regs.PID |= 1 << 14
		c.Regs.IIC = c.CalcIIC()
		c.Regs.CHKIT = true
	}
}

// Interrupt raises an interrupt at the given level (0-15). For level 14,
// sub is OR'd into IID first. Restart reports whether this interrupt
// must unwind the in-flight instruction via the dispatcher's fault
// escape (MPV, page fault, or illegal instruction).
func (c *Controller) Interrupt(level int, sub uint16) (restart bool) {
	if level == 14 {
		c.Regs.IID |= sub
		if c.Regs.IID&c.Regs.IIE != 0 {
			c.Regs.PID |= 1 << 14
		}
	} else {
		c.Regs.PID |= 1 << uint(level)
	}

	c.recalcInternal()
	c.Regs.CHKIT = true

	return level == 14 && sub&restartSubMask != 0
}

// DeviceInterrupt ORs bits 10-13 and 15 of bits into PID, matching the
// source's device_interrupt. CHKIT is set only when PID actually changes.
func (c *Controller) DeviceInterrupt(bits uint16) {
	before := c.Regs.PID
	c.Regs.PID |= bits & deviceBitsMask
	if before != c.Regs.PID {
		c.Regs.CHKIT = true
	}
}

// CheckAndSwitch performs the per-tick level-switch check: if CHKIT is
// set, it is cleared, internal bits are recomputed, and — if the
// interrupt system is enabled and the computed priority differs from
// the current level — PVL is saved and the level is switched.
func (c *Controller) CheckAndSwitch() (switched bool) {
	if !c.Regs.CHKIT {
		return false
	}
	c.Regs.CHKIT = false
	c.recalcInternal()

	if !c.Regs.StsBit(register.StsIONI) {
		return false
	}

	pk := c.CalcPK()
	pil := c.Regs.CurrLevel()
	if pk == pil {
		return false
	}
	c.Regs.PVL = uint16(pil)
	c.Regs.SetLevel(pk)
	return true
}

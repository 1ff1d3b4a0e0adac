package cpu

// setupInstructions installs every instruction group into the dispatch
// table. Opcodes this emulator does not implement (ND110-only CX
// extensions and the decimal/BCD group) fall through to illegalInstr,
// which is
// installed implicitly: the dispatch table's zero value is a nil
// InstrFunc, and dispatch substitutes illegalInstr for any nil entry.
func (c *CPU) setupInstructions() {
	c.setupMemRef()
	c.setupByte()
	c.setupROP()
	c.setupBit()
	c.setupShift()
	c.setupSystem()
	c.setupStack()
	c.setupMulDiv()
	c.setupFloat()
	c.setupIO()
	c.setupStubs()
}

// setupStubs installs no-op handlers for instructions this emulator
// deliberately treats as inert: the segment/paging bulk-update helpers
// (SETPT/CLEPT/CLNREENT/CHREENT-PAGES/CLEPU), which this emulator's MMU
// updates page-by-page instead of through the original's bulk X/T-
// pointed table walk.
func (c *CPU) setupStubs() {
	c.addExact(0140300, opPrivNoop) // SETPT
	c.addExact(0140301, opPrivNoop) // CLEPT
	c.addExact(0140302, opPrivNoop) // CLNREENT
	c.addExact(0140303, opPrivNoop) // CHREENT-PAGES
	c.addExact(0140304, opPrivNoop) // CLEPU
}

func opPrivNoop(c *CPU, operand uint16) Trap {
	if !c.checkPriv() {
		return Restart
	}
	return NoTrap
}

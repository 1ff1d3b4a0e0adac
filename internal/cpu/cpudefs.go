package cpu

// InstrFunc is one opcode handler: given the full 16-bit instruction
// word, it performs the instruction's effect against a *CPU and returns
// a Trap describing any fault the dispatcher must raise afterward.
type InstrFunc func(c *CPU, operand uint16) Trap

// Trap is returned by an instruction handler to request a restart of
// the current instruction (NoTrap otherwise). This replaces the
// original's panic/recover-style longjmp/setjmp re-entry with ordinary
// control flow: Step re-dispatches at the same PC when Restart is
// requested, after the handler has raised the corresponding interrupt.
type Trap int

const (
	NoTrap Trap = iota
	Restart
)

// Sel is which half of a word a byte-oriented instruction touches.
type Sel int

const (
	SelWord Sel = iota
	SelMSB
	SelLSB
)


// Package vm bundles every piece of mutable ND-100 virtual-machine
// state — memory, registers, MMU, interrupt controller, instruction
// dispatcher, device manager, breakpoints, and debugger coordination —
// into one value, generalized from cpuState's package-global fields
// into an explicit struct passed to every subordinate constructor.
package vm

import (
	"log/slog"

	"github.com/nd100vm/nd100/internal/breakpoint"
	"github.com/nd100vm/nd100/internal/cpu"
	"github.com/nd100vm/nd100/internal/debugger"
	"github.com/nd100vm/nd100/internal/device"
	"github.com/nd100vm/nd100/internal/interrupt"
	"github.com/nd100vm/nd100/internal/memory"
	"github.com/nd100vm/nd100/internal/mmu"
	"github.com/nd100vm/nd100/internal/register"
)

// Trace carries the per-instruction fetch/store addresses and values
// the run loop reports at the DISP/INST debug level, generalized from
// cpuState's perEnb/perFetch/perStore/perReg fields into a value
// written once per Cycle rather than read from package globals.
type Trace struct {
	Enabled bool
	PC      uint16
	Operand uint16
}

// Vm is the top-level value bundling every piece of mutable VM state.
// Device callbacks and subordinate constructors receive *Vm (or a
// narrower interface view of it) explicitly rather than reaching for
// package-level globals.
type Vm struct {
	Memory      *memory.Memory
	Registers   *register.File
	Mmu         *mmu.MMU
	Interrupts  *interrupt.Controller
	Dispatcher  *cpu.CPU
	Devices     device.Manager
	Breakpoints *breakpoint.Manager
	DebugState  *debugger.State
	Logger      *slog.Logger

	Trace Trace

	idleTicks  int
	leftLevel0 bool
}

// New builds a Vm from a page-table mode, a word count, and a device
// manager. logger may be nil, in which case slog.Default() is used.
func New(mmuType mmu.Type, memWords int, devs device.Manager, logger *slog.Logger) *Vm {
	if logger == nil {
		logger = slog.Default()
	}

	regs := register.New()
	mem := memory.New(memWords)
	intr := interrupt.New(regs)
	m := mmu.New(mmuType, regs, mem, intr)
	dispatcher := cpu.New(regs, mem, m, intr, devs)

	return &Vm{
		Memory:      mem,
		Registers:   regs,
		Mmu:         m,
		Interrupts:  intr,
		Dispatcher:  dispatcher,
		Devices:     devs,
		Breakpoints: breakpoint.New(),
		DebugState:  debugger.New(),
		Logger:      logger,
	}
}

// Cycle runs one tick: poll devices for interrupt requests, check for
// a pending level switch, and execute one instruction through the
// dispatcher. It returns the stop reason the debugger should act on,
// or debugger.StopNone if the cycle completed without one.
func (v *Vm) Cycle() debugger.StopReason {
	if v.Dispatcher.Halted {
		v.DebugState.SetRunMode(debugger.RunShutdown)
		return debugger.StopNone
	}

	if v.Devices != nil {
		v.Interrupts.DeviceInterrupt(v.Devices.Poll())
	}
	v.Interrupts.CheckAndSwitch()

	if v.Registers.CurrLevel() != 0 {
		v.leftLevel0 = true
	}

	pc := v.Registers.PC()
	if entry, stepHit := v.Breakpoints.CheckForBreakpoint(pc); entry != nil || stepHit {
		v.DebugState.SetStopReason(debugger.StopBreakpoint)
		return debugger.StopBreakpoint
	}

	v.Dispatcher.Step()
	v.Breakpoints.StepOne()

	if v.Trace.Enabled {
		v.Trace.PC = pc
		v.Trace.Operand = v.Registers.PC()
		v.Logger.Debug("instruction trace", "pc", pc, "nextPC", v.Trace.Operand)
	}

	// Once the CPU has run at level 0 and returned there, consecutive
	// idle ticks (still at level 0, no device requesting) are counted
	// so a front end can throttle its tick rate; activating this
	// before the CPU has ever left level 0 would idle-sleep during
	// boot before SINTRAN has even started the scheduler.
	if v.leftLevel0 && v.Registers.CurrLevel() == 0 {
		v.idleTicks++
	} else {
		v.idleTicks = 0
	}

	return debugger.StopNone
}

// IdleTicks reports the number of consecutive level-0 ticks observed
// since the CPU last left level 0, for a front end's idle-sleep
// heuristic.
func (v *Vm) IdleTicks() int {
	return v.idleTicks
}

// Reset clears memory, registers, and the MMU's runtime state back to
// their power-on values. Breakpoints and debugger coordination state
// are left untouched, matching the teacher's own split between a
// machine reset and a debugger session reset.
func (v *Vm) Reset() {
	v.Memory.Reset()
	v.Registers.Reset()
	v.idleTicks = 0
	v.leftLevel0 = false
}

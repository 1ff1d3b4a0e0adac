package vm

import (
	"testing"

	"github.com/nd100vm/nd100/internal/breakpoint"
	"github.com/nd100vm/nd100/internal/debugger"
	"github.com/nd100vm/nd100/internal/mmu"
)

type fakeDevices struct {
	polled int
	bits   uint16
}

func (f *fakeDevices) IOOp(ioAddr uint16, regA uint16) uint16 { return 0 }
func (f *fakeDevices) Ident(level int) int                    { return -1 }
func (f *fakeDevices) Poll() uint16 {
	f.polled++
	return f.bits
}

func TestNewBundlesSubsystems(t *testing.T) {
	v := New(mmu.MMS1, 1<<16, nil, nil)
	if v.Memory == nil || v.Registers == nil || v.Mmu == nil || v.Interrupts == nil ||
		v.Dispatcher == nil || v.Breakpoints == nil || v.DebugState == nil || v.Logger == nil {
		t.Fatal("New() left a subsystem nil")
	}
}

func TestCyclePollsDevicesAndSteps(t *testing.T) {
	devs := &fakeDevices{}
	v := New(mmu.MMS1, 1<<16, devs, nil)

	pc := v.Registers.PC()
	v.Memory.Write(uint32(pc), 0140200, 0) // unassigned USER1 opcode
	reason := v.Cycle()
	if reason != debugger.StopNone {
		t.Fatalf("Cycle() reason = %v, want StopNone", reason)
	}
	if devs.polled != 1 {
		t.Errorf("Poll() called %d times, want 1", devs.polled)
	}
	// The fetched word (0140200) is illegal, so the instruction traps and
	// restarts: P should end back where it started.
	if got := v.Registers.PC(); got != pc {
		t.Errorf("PC = %o after trap-restart, want unchanged %o", got, pc)
	}
}

func TestCycleStopsOnHalt(t *testing.T) {
	v := New(mmu.MMS1, 1<<16, nil, nil)
	v.Dispatcher.Halted = true
	v.Cycle()
	if v.DebugState.RunMode() != debugger.RunShutdown {
		t.Errorf("RunMode = %v, want RunShutdown after halt", v.DebugState.RunMode())
	}
}

func TestCycleStopsOnBreakpoint(t *testing.T) {
	v := New(mmu.MMS1, 1<<16, nil, nil)
	v.Breakpoints.Add(v.Registers.PC(), breakpoint.TypeUser, "", "", "")
	reason := v.Cycle()
	if reason != debugger.StopBreakpoint {
		t.Errorf("Cycle() reason = %v, want StopBreakpoint", reason)
	}
}

func TestIdleTicksCountsAfterLeavingLevel0(t *testing.T) {
	v := New(mmu.MMS1, 1<<16, nil, nil)
	v.Cycle()
	if v.IdleTicks() != 0 {
		t.Errorf("IdleTicks() = %d before ever leaving level 0, want 0", v.IdleTicks())
	}
}

func TestResetClearsMemoryAndRegisters(t *testing.T) {
	v := New(mmu.MMS1, 1<<16, nil, nil)
	v.Memory.Write(0, 0x1234, 0)
	v.Registers.SetPC(0x500)
	v.Reset()
	if got := v.Registers.PC(); got != 0 {
		t.Errorf("PC after Reset() = %#x, want 0", got)
	}
	word, _ := v.Memory.Read(0)
	if word != 0 {
		t.Errorf("memory[0] after Reset() = %#x, want 0", word)
	}
}

package parser

import (
	"testing"

	"github.com/nd100vm/nd100/internal/breakpoint"
	"github.com/nd100vm/nd100/internal/core"
	"github.com/nd100vm/nd100/internal/debugger"
	"github.com/nd100vm/nd100/internal/mmu"
	"github.com/nd100vm/nd100/internal/vm"
)

func newTestCore(t *testing.T) *core.Core {
	t.Helper()
	v := vm.New(mmu.MMS1, 1<<12, nil, nil)
	return core.New(v, 4)
}

func TestProcessCommandUnknown(t *testing.T) {
	co := newTestCore(t)
	if _, err := ProcessCommand("bogus", co); err == nil {
		t.Error("ProcessCommand() with an unknown command did not error")
	}
}

func TestProcessCommandTooShort(t *testing.T) {
	co := newTestCore(t)
	// "s" is shorter than the minimum match length of every command
	// starting with s (step, show, stop).
	if _, err := ProcessCommand("s", co); err == nil {
		t.Error("ProcessCommand() with a too-short prefix did not error")
	}
}

func TestBreakAndDelete(t *testing.T) {
	co := newTestCore(t)
	if _, err := ProcessCommand("break 001000", co); err != nil {
		t.Fatalf("break: %v", err)
	}
	entries := co.Vm().Breakpoints.Check(0o1000)
	if len(entries) != 1 || entries[0].Type != breakpoint.TypeUser {
		t.Fatalf("break did not install a user breakpoint: %+v", entries)
	}

	if _, err := ProcessCommand("delete 001000", co); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if entries := co.Vm().Breakpoints.Check(0o1000); len(entries) != 0 {
		t.Errorf("delete left breakpoints behind: %+v", entries)
	}
}

func TestBreakTemporary(t *testing.T) {
	co := newTestCore(t)
	if _, err := ProcessCommand("break 002000 temp", co); err != nil {
		t.Fatalf("break: %v", err)
	}
	entries := co.Vm().Breakpoints.Check(0o2000)
	if len(entries) != 1 || entries[0].Type != breakpoint.TypeTemporary {
		t.Fatalf("break temp did not install a temporary breakpoint: %+v", entries)
	}
}

func TestWatchRejectsBadMode(t *testing.T) {
	co := newTestCore(t)
	if _, err := ProcessCommand("watch 001000 bogus", co); err == nil {
		t.Error("watch with an invalid mode did not error")
	}
}

func TestWatchAndUnwatch(t *testing.T) {
	co := newTestCore(t)
	if _, err := ProcessCommand("watch 001000 w", co); err != nil {
		t.Fatalf("watch: %v", err)
	}
	if !co.Vm().Breakpoints.CheckWatch(0o1000, breakpoint.WatchWrite) {
		t.Fatal("watch did not arm a write watchpoint")
	}
	if _, err := ProcessCommand("unwatch 001000", co); err != nil {
		t.Fatalf("unwatch: %v", err)
	}
	if co.Vm().Breakpoints.CheckWatch(0o1000, breakpoint.WatchWrite) {
		t.Error("unwatch left the watchpoint armed")
	}
}

func TestDepositAndExamine(t *testing.T) {
	co := newTestCore(t)
	if _, err := ProcessCommand("deposit 000010 123456", co); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	word, ok := co.Vm().Memory.Read(0o10)
	if !ok || word != 0o123456 {
		t.Fatalf("deposit wrote %06o ok=%v, want 123456", word, ok)
	}
	// examine only needs to not error; it writes to stdout.
	if _, err := ProcessCommand("examine 000010 2", co); err != nil {
		t.Fatalf("examine: %v", err)
	}
}

func TestDepositOutOfRange(t *testing.T) {
	co := newTestCore(t)
	if _, err := ProcessCommand("deposit 177777 000001", co); err == nil {
		t.Error("deposit past the end of memory did not error")
	}
}

func TestDisassemble(t *testing.T) {
	co := newTestCore(t)
	if _, err := ProcessCommand("disassemble 000000", co); err != nil {
		t.Fatalf("disassemble: %v", err)
	}
}

func TestQuitReturnsTrue(t *testing.T) {
	co := newTestCore(t)
	quit, err := ProcessCommand("quit", co)
	if err != nil {
		t.Fatalf("quit: %v", err)
	}
	if !quit {
		t.Error("quit command did not signal REPL exit")
	}
}

func TestCompleteCmdListsPrefixMatches(t *testing.T) {
	matches := CompleteCmd("br")
	found := false
	for _, m := range matches {
		if m == "break" {
			found = true
		}
	}
	if !found {
		t.Errorf("CompleteCmd(%q) = %v, want it to include %q", "br", matches, "break")
	}
}

func TestParseAddressRejectsGarbage(t *testing.T) {
	line := cmdLine{line: "89abcdef"}
	if _, err := line.parseAddress(); err == nil {
		t.Error("parseAddress() accepted non-octal digits")
	}
}

func TestGetTokenSkipsComment(t *testing.T) {
	line := cmdLine{line: "  # a comment"}
	if tok := line.getToken(); tok != "" {
		t.Errorf("getToken() on a comment-only line = %q, want empty", tok)
	}
}

func TestStepRunsOneCycle(t *testing.T) {
	co := newTestCore(t)
	if _, err := ProcessCommand("step", co); err != nil {
		t.Fatalf("step: %v", err)
	}
	if co.Vm().DebugState.RunMode() != debugger.RunPaused {
		t.Errorf("RunMode() after step = %v, want RunPaused", co.Vm().DebugState.RunMode())
	}
}

package debugger

import "testing"

func TestNewDefaultsToRunning(t *testing.T) {
	s := New()
	if s.RunMode() != RunRunning {
		t.Fatalf("RunMode() = %v, want RunRunning", s.RunMode())
	}
	if s.StopReason() != StopNone {
		t.Fatalf("StopReason() = %v, want StopNone", s.StopReason())
	}
	if s.Enabled() {
		t.Fatal("debugger should start disabled until Enable is called")
	}
}

func TestPauseHandshake(t *testing.T) {
	s := New()
	s.RequestPause(true)
	if !s.PauseRequested() {
		t.Fatal("PauseRequested should reflect RequestPause(true)")
	}
	s.SetControlGranted(true)
	if !s.ControlGranted() {
		t.Fatal("ControlGranted should reflect SetControlGranted(true)")
	}
	s.RequestPause(false)
	if s.PauseRequested() {
		t.Fatal("PauseRequested should clear after RequestPause(false)")
	}
}

func TestRunModeAndStopReason(t *testing.T) {
	s := New()
	s.SetRunMode(RunBreakpoint)
	s.SetStopReason(StopBreakpoint)
	if s.RunMode() != RunBreakpoint || s.StopReason() != StopBreakpoint {
		t.Fatalf("got mode=%v reason=%v, want RunBreakpoint/StopBreakpoint", s.RunMode(), s.StopReason())
	}
}

func TestStackTrace(t *testing.T) {
	s := New()
	s.PushFrame(Frame{PC: 1, EntryPoint: 0x100})
	s.PushFrame(Frame{PC: 2, EntryPoint: 0x200})

	trace := s.StackTrace()
	if len(trace) != 2 || trace[0].PC != 1 || trace[1].PC != 2 {
		t.Fatalf("StackTrace() = %v, want [{PC:1} {PC:2}]", trace)
	}

	f, ok := s.PopFrame()
	if !ok || f.PC != 2 {
		t.Fatalf("PopFrame() = %v,%v, want the most recently pushed frame", f, ok)
	}
	if len(s.StackTrace()) != 1 {
		t.Fatal("PopFrame should remove exactly one frame")
	}
}

func TestStackTraceDropsOldestWhenFull(t *testing.T) {
	s := New()
	for i := 0; i < maxStackFrames+5; i++ {
		s.PushFrame(Frame{PC: uint16(i)})
	}
	trace := s.StackTrace()
	if len(trace) != maxStackFrames {
		t.Fatalf("len(StackTrace()) = %d, want %d", len(trace), maxStackFrames)
	}
	if trace[0].PC != 5 {
		t.Fatalf("oldest retained frame PC = %d, want 5 (the first 5 should have been dropped)", trace[0].PC)
	}
	if trace[maxStackFrames-1].PC != uint16(maxStackFrames+4) {
		t.Fatalf("newest frame PC = %d, want %d", trace[maxStackFrames-1].PC, maxStackFrames+4)
	}
}

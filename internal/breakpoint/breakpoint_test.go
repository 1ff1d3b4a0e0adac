package breakpoint

import "testing"

func TestAddAndCheck(t *testing.T) {
	m := New()
	m.Add(0x100, TypeUser, "", "", "")

	got := m.Check(0x100)
	if len(got) != 1 || got[0].Type != TypeUser {
		t.Fatalf("Check(0x100) = %v, want one TypeUser entry", got)
	}
	if len(m.Check(0x200)) != 0 {
		t.Fatal("Check at an address with no breakpoint should return nothing")
	}
}

func TestTemporaryBeatsUser(t *testing.T) {
	m := New()
	m.Add(0x100, TypeUser, "", "", "")
	m.Add(0x100, TypeTemporary, "", "", "")

	got := m.Check(0x100)
	if len(got) != 1 || got[0].Type != TypeTemporary {
		t.Fatalf("Check(0x100) = %v, want the temporary breakpoint to take priority", got)
	}
}

func TestDuplicateTemporaryRejected(t *testing.T) {
	m := New()
	m.Add(0x100, TypeTemporary, "", "", "")
	m.Add(0x100, TypeTemporary, "", "", "")

	if len(m.byAddress[0x100]) != 1 {
		t.Fatalf("got %d temporary entries at 0x100, want 1", len(m.byAddress[0x100]))
	}
}

func TestCheckForBreakpointHitCountAndAutoRemove(t *testing.T) {
	m := New()
	m.Add(0x100, TypeTemporary, "", "", "")

	hit, stepHit := m.CheckForBreakpoint(0x100)
	if stepHit {
		t.Fatal("no step armed, stepHit should be false")
	}
	if hit == nil || hit.HitCount != 1 {
		t.Fatalf("hit = %v, want HitCount 1", hit)
	}
	if len(m.Check(0x100)) != 0 {
		t.Fatal("temporary breakpoint should auto-remove after being hit")
	}
}

func TestStepOne(t *testing.T) {
	m := New()
	m.StepOne()

	_, stepHit := m.CheckForBreakpoint(0x42)
	if !stepHit {
		t.Fatal("armed single step should report stepHit on the next check")
	}
	_, stepHit = m.CheckForBreakpoint(0x43)
	if stepHit {
		t.Fatal("step counter should disarm itself after firing once")
	}
}

func TestRemoveByType(t *testing.T) {
	m := New()
	m.Add(0x100, TypeUser, "", "", "")
	m.Add(0x100, TypeData, "", "", "")

	m.Remove(0x100, int(TypeUser))
	got := m.Check(0x100)
	if len(got) != 1 || got[0].Type != TypeData {
		t.Fatalf("Remove(TypeUser) left %v, want only TypeData", got)
	}

	m.Remove(0x100, -1)
	if len(m.Check(0x100)) != 0 {
		t.Fatal("Remove with type -1 should remove every entry at the address")
	}
}

func TestWatchpoints(t *testing.T) {
	m := New()
	m.AddWatch(0x200, WatchWrite)

	if !m.CheckWatch(0x200, WatchWrite) {
		t.Fatal("expected a write watch to match a write access")
	}
	if m.CheckWatch(0x200, WatchRead) {
		t.Fatal("a write-only watch should not match a read access")
	}

	m.RemoveWatch(0x200)
	if m.CheckWatch(0x200, WatchWrite) {
		t.Fatal("watch should no longer match after removal")
	}
}

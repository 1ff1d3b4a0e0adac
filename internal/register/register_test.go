package register

import "testing"

func TestLevelSwitchPreservesPerLevelBanks(t *testing.T) {
	f := New()
	f.SetLevel(3)
	f.SetReg(A, 0x1111)
	f.SetLevel(5)
	f.SetReg(A, 0x2222)
	f.SetLevel(3)
	if got := f.Reg(A); got != 0x1111 {
		t.Fatalf("level 3 A = %#04x, want 0x1111", got)
	}
}

func TestStsSharedAndPerLevelBits(t *testing.T) {
	f := New()
	f.SetLevel(2)
	f.SetStsBit(StsIONI, true)
	f.SetStsBit(StsC, true)
	f.SetLevel(9)
	if !f.StsBit(StsIONI) {
		t.Fatal("IONI should be shared across levels")
	}
	if f.StsBit(StsC) {
		t.Fatal("C should be per-level and not visible at level 9")
	}
	f.SetLevel(2)
	if !f.StsBit(StsC) {
		t.Fatal("C should persist on level 2")
	}
}

func TestZBitSetsCHKIT(t *testing.T) {
	f := New()
	if f.CHKIT {
		t.Fatal("CHKIT should start false")
	}
	f.SetStsBit(StsZ, true)
	if !f.CHKIT {
		t.Fatal("setting Z should set CHKIT")
	}
}

func TestPGSLockDiscipline(t *testing.T) {
	f := New()
	f.WritePGS(0x1234)
	f.WritePGS(0x5678) // ignored, still locked
	if v := f.ReadPGS(); v != 0x1234 {
		t.Fatalf("PGS = %#04x, want 0x1234", v)
	}
	f.WritePGS(0xABCD) // now unlocked, should take
	if v := f.ReadPGS(); v != 0xABCD {
		t.Fatalf("PGS = %#04x, want 0xABCD", v)
	}
}

func TestSRBLRBDoesNotDisturbCurrentLevelP(t *testing.T) {
	f := New()
	f.SetLevel(3)
	f.SetPC(0x0500)
	saved := f.RegAt(3, P)
	f.SetRegAt(3, A, 0x9999)
	f.SetRegAt(3, P, saved) // LRB at the current level must restore the same P
	if f.PC() != 0x0500 {
		t.Fatalf("P disturbed: %#04x", f.PC())
	}
}

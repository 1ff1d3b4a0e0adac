package interrupt

import (
	"testing"

	"github.com/nd100vm/nd100/internal/register"
)

func TestPriorityEncodingInvariant(t *testing.T) {
	regs := register.New()
	ctl := New(regs)
	regs.PID = (1 << 11) | (1 << 13)
	regs.PIE = 0xFFFF
	pk := ctl.CalcPK()
	if pk != 13 {
		t.Fatalf("pk = %d, want 13", pk)
	}
	if (regs.PID&regs.PIE)>>uint(pk)&1 != 1 {
		t.Fatal("pk bit must be set")
	}
}

func TestCalcPKZeroWhenNoneActive(t *testing.T) {
	regs := register.New()
	ctl := New(regs)
	if pk := ctl.CalcPK(); pk != 0 {
		t.Fatalf("pk = %d, want 0", pk)
	}
}

func TestIICRangeAndZero(t *testing.T) {
	regs := register.New()
	ctl := New(regs)
	if ctl.CalcIIC() != 0 {
		t.Fatal("IIC should be 0 when IID&IIE==0")
	}
	regs.IID = 1 << 7
	regs.IIE = 0x7FF
	if got := ctl.CalcIIC(); got != 7 {
		t.Fatalf("IIC = %d, want 7", got)
	}
}

func TestIllegalInstructionRequestsRestart(t *testing.T) {
	regs := register.New()
	ctl := New(regs)
	regs.IIE = SubIllegal
	restart := ctl.Interrupt(14, SubIllegal)
	if !restart {
		t.Fatal("illegal instruction sub-bit must request restart")
	}
	if regs.PID&(1<<14) == 0 {
		t.Fatal("PID bit 14 must be set")
	}
	if regs.IID&SubIllegal == 0 {
		t.Fatal("IID illegal bit must be set")
	}
}

func TestMonitorCallDoesNotRestart(t *testing.T) {
	regs := register.New()
	ctl := New(regs)
	if ctl.Interrupt(14, SubMonitorCall) {
		t.Fatal("monitor call must not request restart")
	}
}

func TestCheckAndSwitchLevelChange(t *testing.T) {
	regs := register.New()
	ctl := New(regs)
	regs.SetStsBit(register.StsIONI, true)
	regs.PIE = 0xFFFF
	ctl.DeviceInterrupt(1 << 13)
	if !regs.CHKIT {
		t.Fatal("device interrupt should set CHKIT")
	}
	switched := ctl.CheckAndSwitch()
	if !switched {
		t.Fatal("expected a level switch")
	}
	if regs.CurrLevel() != 13 {
		t.Fatalf("current level = %d, want 13", regs.CurrLevel())
	}
	if regs.PVL != 0 {
		t.Fatalf("PVL = %d, want 0", regs.PVL)
	}
}

func TestDeviceInterruptMasksIrrelevantBits(t *testing.T) {
	regs := register.New()
	ctl := New(regs)
	ctl.DeviceInterrupt(0xFFFF)
	if regs.PID != deviceBitsMask {
		t.Fatalf("PID = %#04x, want only device bits %#04x", regs.PID, deviceBitsMask)
	}
}

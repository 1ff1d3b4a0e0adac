package debugconfig

import (
	"testing"

	config "github.com/nd100vm/nd100/config/configparser"
)

func TestSetDebugUnknownCategory(t *testing.T) {
	if err := SetDebug(0, "trace", true); err == nil {
		t.Error("SetDebug(0, ...) succeeded for an unregistered category bit")
	}
}

func TestSetDebugAndEnabled(t *testing.T) {
	if err := SetDebug(MMU, "fault", true); err != nil {
		t.Fatalf("SetDebug() error = %v", err)
	}
	if !Enabled(MMU, "FAULT") {
		t.Error("Enabled(MMU, \"FAULT\") = false, want true (case-insensitive)")
	}
	if Enabled(INTR, "fault") {
		t.Error("Enabled(INTR, \"fault\") = true, want false (different category)")
	}

	if err := SetDebug(MMU, "fault", false); err != nil {
		t.Fatalf("SetDebug() error = %v", err)
	}
	if Enabled(MMU, "fault") {
		t.Error("Enabled(MMU, \"fault\") = true after disabling")
	}
}

func TestDebugModelHandlerParsesLevels(t *testing.T) {
	other := "trace"
	opts := []config.Option{
		{Name: "fault"},
		{Name: "request", Value: []*string{&other}},
	}
	if err := setDebug(0, "MMU", opts); err != nil {
		t.Fatalf("setDebug() error = %v", err)
	}
	if !Enabled(MMU, "fault") {
		t.Error("setDebug() did not enable the bare option name")
	}
	if !Enabled(MMU, "request") {
		t.Error("setDebug() did not enable the option carrying a comma value")
	}
	if !Enabled(MMU, "trace") {
		t.Error("setDebug() did not enable the comma value itself")
	}
}

func TestDebugModelHandlerUnknownCategory(t *testing.T) {
	opts := []config.Option{{Name: "x"}}
	if err := setDebug(0, "BOGUS", opts); err == nil {
		t.Error("setDebug() succeeded for an unregistered category name")
	}
}

func TestDebugModelHandlerRequiresAtLeastOneLevel(t *testing.T) {
	if err := setDebug(0, "CMD", nil); err == nil {
		t.Error("setDebug() succeeded with no levels")
	}
}

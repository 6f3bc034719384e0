package led

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewForModel(t *testing.T) {
	tests := []struct {
		model     string
		wantSysfs bool
		wantLED   string
	}{
		{"FriendlyElec NanoPC-T6", true, "sys_led"},
		{"Xunlong Orange Pi 5 Plus", true, "green_led"},
		{"Raspberry Pi 4 Model B Rev 1.4", true, "ACT"},
		{"ZynqMP ZCU106 RevA", true, "heartbeat"},
		{"unknown", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			ctrl := newForModel(tt.model, "/nonexistent", quiet)

			s, ok := ctrl.(*sysfs)
			if ok != tt.wantSysfs {
				t.Fatalf("controller = %T, want sysfs %t", ctrl, tt.wantSysfs)
			}
			if ok && s.leds[StatusLED] != tt.wantLED {
				t.Errorf("status LED = %q, want %q", s.leds[StatusLED], tt.wantLED)
			}
		})
	}
}

func TestDetectBoard(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model")
	if err := os.WriteFile(path, []byte("FriendlyElec NanoPC-T6\x00"), 0o644); err != nil {
		t.Fatal(err)
	}

	if got := detectBoard(path); got != "FriendlyElec NanoPC-T6" {
		t.Errorf("detectBoard() = %q", got)
	}
	if got := detectBoard(filepath.Join(t.TempDir(), "missing")); got != "unknown" {
		t.Errorf("detectBoard(missing) = %q, want unknown", got)
	}
}

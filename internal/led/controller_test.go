package led

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestNoopController(t *testing.T) {
	ctrl := newNoop(quiet)

	if err := ctrl.Set("system", PatternSolid); err != nil {
		t.Errorf("Set() returned error: %v", err)
	}
	if names := ctrl.Names(); len(names) != 0 {
		t.Errorf("Names() = %v, want empty", names)
	}
	if patterns := ctrl.Patterns(); len(patterns) != 0 {
		t.Errorf("Patterns() = %v, want empty", patterns)
	}
}

// fakeLED creates an LED class directory with empty attribute files.
func fakeLED(t *testing.T, dir string) string {
	t.Helper()
	root := t.TempDir()
	path := filepath.Join(root, dir)
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatal(err)
	}
	return root
}

func readAttr(t *testing.T, root, dir, attr string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, dir, attr))
	if err != nil {
		t.Fatalf("read %s: %v", attr, err)
	}
	return string(data)
}

func TestSysfsPatterns(t *testing.T) {
	tests := []struct {
		pattern Pattern
		want    map[string]string
	}{
		{PatternSolid, map[string]string{"trigger": "none", "brightness": "1"}},
		{PatternOff, map[string]string{"trigger": "none", "brightness": "0"}},
		{PatternBlink, map[string]string{"trigger": "timer", "delay_on": "500", "delay_off": "500"}},
		{PatternHeartbeat, map[string]string{"trigger": "heartbeat"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.pattern), func(t *testing.T) {
			root := fakeLED(t, "sys_led")
			ctrl := newSysfs(root, map[string]string{"system": "sys_led"})

			if err := ctrl.Set("system", tt.pattern); err != nil {
				t.Fatalf("Set() error = %v", err)
			}
			for attr, want := range tt.want {
				if got := readAttr(t, root, "sys_led", attr); got != want {
					t.Errorf("%s = %q, want %q", attr, got, want)
				}
			}
		})
	}
}

func TestSysfsErrors(t *testing.T) {
	root := fakeLED(t, "sys_led")
	ctrl := newSysfs(root, map[string]string{"system": "sys_led", "user": "usr_led"})

	if err := ctrl.Set("nonexistent", PatternSolid); err == nil {
		t.Error("Set() with unknown LED should fail")
	}
	if err := ctrl.Set("user", PatternSolid); err == nil {
		t.Error("Set() with missing sysfs directory should fail")
	}
	if err := ctrl.Set("system", Pattern("strobe")); err == nil {
		t.Error("Set() with unknown pattern should fail")
	}
}

func TestSysfsNames(t *testing.T) {
	ctrl := newSysfs(t.TempDir(), map[string]string{"user": "usr_led", "system": "sys_led"})

	if got, want := ctrl.Names(), []string{"system", "user"}; !slices.Equal(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
	if !slices.Contains(ctrl.Patterns(), PatternBlink) {
		t.Errorf("Patterns() = %v, missing blink", ctrl.Patterns())
	}
}

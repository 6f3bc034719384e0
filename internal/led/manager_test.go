package led

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/smazurov/sdinode/internal/events"
)

type mockController struct {
	mu    sync.Mutex
	calls []setCall
}

type setCall struct {
	name    string
	pattern Pattern
}

func (m *mockController) Set(name string, pattern Pattern) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, setCall{name, pattern})
	return nil
}

func (m *mockController) Names() []string     { return []string{StatusLED} }
func (m *mockController) Patterns() []Pattern { return []Pattern{PatternSolid, PatternBlink} }

func (m *mockController) snapshot() []setCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]setCall(nil), m.calls...)
}

func (m *mockController) last() (setCall, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return setCall{}, false
	}
	return m.calls[len(m.calls)-1], true
}

// waitFor polls until the last Set call used pattern.
func waitFor(t *testing.T, ctrl *mockController, pattern Pattern) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if c, ok := ctrl.last(); ok && c.pattern == pattern {
			if c.name != StatusLED {
				t.Errorf("LED = %q, want %q", c.name, StatusLED)
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	c, _ := ctrl.last()
	t.Fatalf("last pattern = %q, want %q", c.pattern, pattern)
}

func TestManagerFollowsLockState(t *testing.T) {
	ctrl := &mockController{}
	bus := events.New()

	mgr := NewManager(ctrl, bus, quiet)
	mgr.Start()
	defer mgr.Stop()

	waitFor(t, ctrl, PatternBlink)

	bus.Publish(events.StreamUp(events.StreamUpEvent{TraceID: "a", Format: "1920x1080p60"}))
	waitFor(t, ctrl, PatternSolid)
	if !mgr.Locked() {
		t.Error("Locked() = false after stream up")
	}

	bus.Publish(events.StreamDown(events.StreamDownEvent{TraceID: "a"}))
	waitFor(t, ctrl, PatternBlink)
	if mgr.Locked() {
		t.Error("Locked() = true after stream down")
	}
}

func TestManagerBackToBackUpDown(t *testing.T) {
	const cycles = 200

	ctrl := &mockController{}
	bus := events.New()

	mgr := NewManager(ctrl, bus, quiet)
	mgr.Start()
	defer mgr.Stop()

	for i := range cycles {
		trace := fmt.Sprintf("trace-%d", i)
		bus.Publish(events.StreamUp(events.StreamUpEvent{TraceID: trace}))
		bus.Publish(events.StreamDown(events.StreamDownEvent{TraceID: trace}))
	}

	// One blink from Start plus one Set per event.
	want := 1 + 2*cycles
	deadline := time.Now().Add(2 * time.Second)
	var calls []setCall
	for time.Now().Before(deadline) {
		if calls = ctrl.snapshot(); len(calls) >= want {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if len(calls) != want {
		t.Fatalf("got %d Set calls, want %d", len(calls), want)
	}

	for i, c := range calls[1:] {
		wantPattern := PatternSolid
		if i%2 == 1 {
			wantPattern = PatternBlink
		}
		if c.pattern != wantPattern {
			t.Fatalf("call %d pattern = %q, want %q", i+1, c.pattern, wantPattern)
		}
	}
	if mgr.Locked() {
		t.Error("Locked() = true after the last stream down")
	}
}

func TestManagerStop(t *testing.T) {
	ctrl := &mockController{}
	bus := events.New()

	mgr := NewManager(ctrl, bus, quiet)
	mgr.Start()
	mgr.Stop()

	waitFor(t, ctrl, PatternOff)

	bus.Publish(events.StreamUp(events.StreamUpEvent{TraceID: "b"}))
	time.Sleep(20 * time.Millisecond)
	if c, _ := ctrl.last(); c.pattern != PatternOff {
		t.Errorf("pattern after Stop = %q, want off", c.pattern)
	}
}

func TestManagerController(t *testing.T) {
	ctrl := &mockController{}
	mgr := NewManager(ctrl, events.New(), quiet)

	if got := mgr.Controller(); got != ctrl {
		t.Error("Controller() did not return the original controller")
	}
}

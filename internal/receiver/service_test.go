package receiver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/smazurov/sdinode/internal/events"
	"github.com/smazurov/sdinode/internal/metrics"
	"github.com/smazurov/sdinode/pkg/sdirx"
	"github.com/smazurov/sdinode/pkg/vidc"
)

// fakeIRQ delivers interrupt counts pushed by the test and records unmasks.
type fakeIRQ struct {
	counts chan uint32
	mu     sync.Mutex
	unmask int
	err    error
}

func newFakeIRQ() *fakeIRQ {
	return &fakeIRQ{counts: make(chan uint32)}
}

func (f *fakeIRQ) Wait(ctx context.Context) (uint32, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case c, ok := <-f.counts:
		if !ok {
			return 0, errors.New("irq closed")
		}
		return c, nil
	}
}

func (f *fakeIRQ) Unmask() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unmask++
	return f.err
}

func (f *fakeIRQ) unmasks() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unmask
}

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func newService(t *testing.T, irq InterruptSource) (*Service, *sdirx.MemRegisters, *events.Bus) {
	t.Helper()
	regs := sdirx.NewMemRegisters()
	regs.Set(sdirx.RegIntMask, uint32(sdirx.IntrAll))
	bus := events.New()
	device := "/dev/uio-" + t.Name()
	metrics.DeleteReceiverMetrics(device)
	t.Cleanup(func() { metrics.DeleteReceiverMetrics(device) })
	s, err := New(Options{Device: device, Registers: regs, IRQ: irq, Bus: bus, Logger: quiet})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s, regs, bus
}

// subscribeStreams splits stream state events into stream-up and
// stream-down channels.
func subscribeStreams(t *testing.T, bus *events.Bus) (<-chan events.StreamUpEvent, <-chan events.StreamDownEvent) {
	t.Helper()
	up := make(chan events.StreamUpEvent, 4)
	down := make(chan events.StreamDownEvent, 4)
	t.Cleanup(bus.Subscribe(func(e events.StreamStateEvent) {
		if e.Up != nil {
			up <- *e.Up
		}
		if e.Down != nil {
			down <- *e.Down
		}
	}))
	return up, down
}

func raiseLock(regs *sdirx.MemRegisters, tr sdirx.Transport) {
	w := sdirx.EncodeStatus(tr)
	regs.Set(sdirx.RegModeDetSts, w.ModeDet)
	regs.Set(sdirx.RegTSDetSts, w.TSDet)
	regs.Set(sdirx.RegSbRxTData, w.TData)
	regs.Set(sdirx.RegIntStatus, uint32(sdirx.IntrVideoLock))
}

func TestNewValidation(t *testing.T) {
	bus := events.New()
	if _, err := New(Options{Bus: bus}); err == nil {
		t.Error("New() without registers should fail")
	}
	if _, err := New(Options{Registers: sdirx.NewMemRegisters()}); err == nil {
		t.Error("New() without a bus should fail")
	}
}

func TestStreamUpPublishesEvent(t *testing.T) {
	s, regs, bus := newService(t, nil)
	up, _ := subscribeStreams(t, bus)

	regs.Set(sdirx.RegST352Valid, 0x1)
	regs.Set(sdirx.RegST352DS0, 0x89CA0B01)
	raiseLock(regs, sdirx.Transport{Mode: sdirx.Mode3G, IsLevelB3G: true, ActiveStreams: sdirx.Streams2, Family: sdirx.FamilySMPTE274, Rate: sdirx.Rate29_97, IsFractional: true})

	if got := s.handleInterrupt(); got != sdirx.IntrVideoLock {
		t.Fatalf("handleInterrupt() = %#x, want lock", got)
	}

	select {
	case e := <-up:
		if e.Format != "1920x1080i120" || !e.Supported || !e.Interlaced {
			t.Errorf("event format = %s supported=%t interlaced=%t", e.Format, e.Supported, e.Interlaced)
		}
		if e.Mode != "3G" || !e.LevelB || e.ActiveStreams != 2 || e.FrameRate != 30 || !e.Fractional {
			t.Errorf("event transport = %+v", e)
		}
		if e.PayloadID != 0x89CA0B01 {
			t.Errorf("PayloadID = %#x", e.PayloadID)
		}
		if _, err := uuid.Parse(e.TraceID); err != nil {
			t.Errorf("TraceID %q is not a UUID: %v", e.TraceID, err)
		}
	case <-time.After(time.Second):
		t.Fatal("no StreamUpEvent")
	}

	st := s.Status()
	if !st.Locked || st.TraceID == "" || st.LockedSince == nil {
		t.Errorf("status = %+v, want locked with trace id", st)
	}
	if st.Format == nil || st.Format.ID != vidc.VM1920x1080I120 {
		t.Errorf("status format = %+v", st.Format)
	}
	if len(st.Streams) != sdirx.MaxDataStreams || st.Streams[0].PayloadID != 0x89CA0B01 {
		t.Errorf("status streams = %+v", st.Streams)
	}
	if st.Counters.Locks != 1 || st.Counters.Interrupts != 1 {
		t.Errorf("counters = %+v", st.Counters)
	}
	if m := st.Metrics; m == nil || !m.Locked || m.Locks != 1 || m.Format != "1920x1080i120" || m.Interrupts["lock"] != 1 {
		t.Errorf("status metrics = %+v, want one lock at 1920x1080i120", m)
	}
}

func TestStreamDownCarriesTraceID(t *testing.T) {
	s, regs, bus := newService(t, nil)
	up, down := subscribeStreams(t, bus)

	raiseLock(regs, sdirx.Transport{Mode: sdirx.ModeHD, Family: sdirx.FamilySMPTE274, Rate: sdirx.Rate60, Scan: 1})
	s.handleInterrupt()
	lockEvent := <-up

	regs.Set(sdirx.RegIntStatus, uint32(sdirx.IntrVideoUnlock))
	s.handleInterrupt()

	select {
	case e := <-down:
		if e.TraceID != lockEvent.TraceID {
			t.Errorf("down trace id = %q, want %q", e.TraceID, lockEvent.TraceID)
		}
	case <-time.After(time.Second):
		t.Fatal("no StreamDownEvent")
	}

	st := s.Status()
	if st.Locked || st.TraceID != "" || st.LockedSince != nil || st.Format != nil {
		t.Errorf("status after unlock = %+v", st)
	}
	if st.Video.FormatID != vidc.FormatUnsupported {
		t.Errorf("video after unlock = %+v", st.Video)
	}
}

func TestUnlockWithoutLock(t *testing.T) {
	s, regs, bus := newService(t, nil)
	_, down := subscribeStreams(t, bus)

	regs.Set(sdirx.RegIntStatus, uint32(sdirx.IntrVideoUnlock))
	s.handleInterrupt()

	select {
	case e := <-down:
		if e.TraceID != "" {
			t.Errorf("TraceID = %q, want empty", e.TraceID)
		}
	case <-time.After(time.Second):
		t.Fatal("no StreamDownEvent")
	}
}

func TestLockAndUnlockInOneSnapshotStayOrdered(t *testing.T) {
	const cycles = 200

	s, regs, bus := newService(t, nil)
	states := make(chan events.StreamStateEvent, 2*cycles)
	defer bus.Subscribe(func(e events.StreamStateEvent) { states <- e })()

	for range cycles {
		raiseLock(regs, sdirx.Transport{Mode: sdirx.ModeHD, Family: sdirx.FamilySMPTE274, Rate: sdirx.Rate60, Scan: 1})
		regs.Set(sdirx.RegIntStatus, uint32(sdirx.IntrAll))
		if got := s.handleInterrupt(); got != sdirx.IntrAll {
			t.Fatalf("handleInterrupt() = %#x, want lock and unlock", got)
		}
	}

	var traceID string
	for i := range 2 * cycles {
		var e events.StreamStateEvent
		select {
		case e = <-states:
		case <-time.After(time.Second):
			t.Fatalf("received %d of %d stream state events", i, 2*cycles)
		}

		if i%2 == 0 {
			if !e.Locked || e.Up == nil {
				t.Fatalf("event %d = %+v, want stream up", i, e)
			}
			traceID = e.Up.TraceID
			continue
		}
		if e.Locked || e.Down == nil {
			t.Fatalf("event %d = %+v, want stream down", i, e)
		}
		if e.Down.TraceID != traceID {
			t.Errorf("event %d: down trace id = %q, want %q", i, e.Down.TraceID, traceID)
		}
	}

	if st := s.Status(); st.Locked || st.Counters.Locks != cycles || st.Counters.Unlocks != cycles {
		t.Errorf("status = %+v, want unlocked after %d lock/unlock pairs", st, cycles)
	}
}

func TestLockRejectedPublishesEvent(t *testing.T) {
	s, regs, bus := newService(t, nil)
	rejected := make(chan events.LockRejectedEvent, 1)
	defer bus.Subscribe(func(e events.LockRejectedEvent) { rejected <- e })()
	up, _ := subscribeStreams(t, bus)

	raiseLock(regs, sdirx.Transport{Mode: sdirx.ModeHD, Family: sdirx.FamilySMPTE274, Rate: sdirx.Rate60})
	regs.Set(sdirx.RegTSDetSts, regs.Read(sdirx.RegTSDetSts)&^sdirx.TSDetLockedMask)
	s.handleInterrupt()

	select {
	case e := <-rejected:
		if !e.ModeLocked || e.TimingLocked {
			t.Errorf("event = %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("no LockRejectedEvent")
	}

	select {
	case e := <-up:
		t.Errorf("unexpected StreamUpEvent %+v", e)
	case <-time.After(20 * time.Millisecond):
	}

	if st := s.Status(); st.Locked || st.Counters.Rejected != 1 {
		t.Errorf("status = %+v", st)
	}
}

func TestSpuriousInterrupt(t *testing.T) {
	s, regs, _ := newService(t, nil)
	regs.Set(sdirx.RegIntStatus, 0x100)
	if got := s.handleInterrupt(); got != 0 {
		t.Errorf("handleInterrupt() = %#x, want 0", got)
	}
	if c := s.Status().Counters; c.Spurious != 1 || c.Interrupts != 1 {
		t.Errorf("counters = %+v", c)
	}
}

func TestInterruptMask(t *testing.T) {
	s, regs, bus := newService(t, nil)
	changed := make(chan events.InterruptMaskChangedEvent, 1)
	defer bus.Subscribe(func(e events.InterruptMaskChangedEvent) { changed <- e })()

	if lock, unlock := s.InterruptMask(); lock || unlock {
		t.Fatalf("InterruptMask() = %t, %t; want both masked", lock, unlock)
	}

	s.SetInterruptMask(true, false)
	if got := regs.Read(sdirx.RegIntMask); got != uint32(sdirx.IntrVideoUnlock) {
		t.Errorf("INT_MSK = %#x, want unlock masked", got)
	}
	if lock, unlock := s.InterruptMask(); !lock || unlock {
		t.Errorf("InterruptMask() = %t, %t; want true, false", lock, unlock)
	}

	select {
	case e := <-changed:
		if !e.Lock || e.Unlock {
			t.Errorf("event = %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("no InterruptMaskChangedEvent")
	}
}

func TestRunServicesInterrupts(t *testing.T) {
	irq := newFakeIRQ()
	s, regs, bus := newService(t, irq)
	up, _ := subscribeStreams(t, bus)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	raiseLock(regs, sdirx.Transport{Mode: sdirx.Mode12G, Family: sdirx.FamilySMPTE2048, Rate: sdirx.Rate50})
	irq.counts <- 1

	select {
	case e := <-up:
		if e.Format != "4096x2160p50" {
			t.Errorf("Format = %s, want 4096x2160p50", e.Format)
		}
	case <-time.After(time.Second):
		t.Fatal("no StreamUpEvent from Run")
	}

	if lock, unlock := s.InterruptMask(); !lock || !unlock {
		t.Errorf("Run should enable both interrupts, got %t, %t", lock, unlock)
	}

	// Skipping kernel counts 2..4 is reported as missed.
	regs.Set(sdirx.RegIntStatus, uint32(sdirx.IntrVideoUnlock))
	irq.counts <- 5

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if n := irq.unmasks(); n != 3 {
		t.Errorf("Unmask called %d times, want 3", n)
	}
	if lock, unlock := s.InterruptMask(); lock || unlock {
		t.Error("interrupts should be masked after Run returns")
	}
	if c := s.Status().Counters; c.Missed != 3 || c.Unlocks != 1 {
		t.Errorf("counters = %+v, want 3 missed and 1 unlock", c)
	}
}

func TestRunErrors(t *testing.T) {
	s, _, _ := newService(t, nil)
	if err := s.Run(context.Background()); err == nil {
		t.Error("Run() without an interrupt source should fail")
	}

	irq := newFakeIRQ()
	irq.err = errors.New("unmask failed")
	s, _, _ = newService(t, irq)
	if err := s.Run(context.Background()); err == nil {
		t.Error("Run() should report an unmask failure")
	}

	irq = newFakeIRQ()
	close(irq.counts)
	s, _, _ = newService(t, irq)
	if err := s.Run(context.Background()); err == nil {
		t.Error("Run() should report a wait failure")
	}
}

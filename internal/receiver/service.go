// Package receiver runs the interrupt loop of one SDI receiver instance and
// publishes its lock state on the event bus.
package receiver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/smazurov/sdinode/internal/events"
	"github.com/smazurov/sdinode/internal/metrics"
	"github.com/smazurov/sdinode/pkg/sdirx"
	"github.com/smazurov/sdinode/pkg/vidc"
)

// InterruptSource delivers the receiver's interrupt line. Wait blocks until
// the next interrupt and returns the running interrupt count. Unmask
// re-enables the line once the interrupt has been serviced.
type InterruptSource interface {
	Wait(ctx context.Context) (uint32, error)
	Unmask() error
}

// Options configures a Service.
type Options struct {
	// Device labels logs and metrics, usually the UIO node path.
	Device    string
	Registers sdirx.Registers
	IRQ       InterruptSource
	Bus       *events.Bus
	Logger    *slog.Logger
}

// Service owns an sdirx.Receiver. All access to the receiver goes through
// the service mutex.
type Service struct {
	device string
	irq    InterruptSource
	bus    *events.Bus
	logger *slog.Logger

	mu        sync.Mutex
	rx        *sdirx.Receiver
	locked    bool
	traceID   string
	lockedAt  time.Time
	counters  Counters
	lastCount uint32
}

// New creates a Service. The receiver's stream-up and stream-down callbacks
// are bound to the service.
func New(opts Options) (*Service, error) {
	if opts.Registers == nil {
		return nil, errors.New("receiver: registers are required")
	}
	if opts.Bus == nil {
		return nil, errors.New("receiver: event bus is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Device == "" {
		opts.Device = "sdirx"
	}

	s := &Service{
		device: opts.Device,
		irq:    opts.IRQ,
		bus:    opts.Bus,
		logger: opts.Logger.With("device", opts.Device),
	}
	s.rx = sdirx.New(opts.Registers,
		sdirx.WithLogger(s.logger),
		sdirx.WithLockRejectedHook(s.lockRejected))

	if err := s.rx.SetCallback(sdirx.HandlerStreamUp, onStreamUp, s); err != nil {
		return nil, fmt.Errorf("receiver: bind stream-up: %w", err)
	}
	if err := s.rx.SetCallback(sdirx.HandlerStreamDown, onStreamDown, s); err != nil {
		return nil, fmt.Errorf("receiver: bind stream-down: %w", err)
	}
	return s, nil
}

func onStreamUp(ref any) { ref.(*Service).streamUp() }
func onStreamDown(ref any) { ref.(*Service).streamDown() }

// Device returns the device label.
func (s *Service) Device() string {
	return s.device
}

// Run enables the lock and unlock interrupts and services them until ctx is
// done. Interrupts are masked again and the device's metric series removed
// on return. It returns nil on cancellation.
func (s *Service) Run(ctx context.Context) error {
	if s.irq == nil {
		return errors.New("receiver: no interrupt source")
	}

	s.mu.Lock()
	s.rx.IntrEnable(sdirx.IntrAll)
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.rx.IntrDisable(sdirx.IntrAll)
		s.mu.Unlock()
		metrics.DeleteReceiverMetrics(s.device)
	}()

	if err := s.irq.Unmask(); err != nil {
		return fmt.Errorf("receiver: unmask: %w", err)
	}
	s.logger.Info("Receiver started")

	for {
		count, err := s.irq.Wait(ctx)
		if err != nil {
			if ctx.Err() != nil {
				s.logger.Info("Receiver stopped")
				return nil
			}
			return fmt.Errorf("receiver: wait for interrupt: %w", err)
		}

		s.service(count)

		if err := s.irq.Unmask(); err != nil {
			return fmt.Errorf("receiver: unmask: %w", err)
		}
	}
}

// service handles one interrupt delivery. count is the kernel's running
// interrupt count.
func (s *Service) service(count uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastCount != 0 && count > s.lastCount+1 {
		missed := count - s.lastCount - 1
		s.counters.Missed += uint64(missed)
		s.logger.Warn("Missed receiver interrupts", "missed", missed, "count", count)
	}
	s.lastCount = count

	s.handleLocked()
}

// handleInterrupt services pending interrupts once without waiting for the
// interrupt line.
func (s *Service) handleInterrupt() sdirx.IntrMask {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handleLocked()
}

func (s *Service) handleLocked() sdirx.IntrMask {
	s.counters.Interrupts++
	pending := s.rx.HandleInterrupt()
	if pending&sdirx.IntrVideoLock != 0 {
		metrics.RecordInterrupt(s.device, "lock")
	}
	if pending&sdirx.IntrVideoUnlock != 0 {
		metrics.RecordInterrupt(s.device, "unlock")
	}
	if pending == 0 {
		s.counters.Spurious++
		s.logger.Debug("Interrupt with no lock or unlock status")
	}
	return pending
}

// streamUp runs inside rx.HandleInterrupt with s.mu held.
func (s *Service) streamUp() {
	tr := s.rx.Transport()
	st, _ := s.rx.Stream(0)
	class := sdirx.Classify(tr)

	s.locked = true
	s.traceID = uuid.NewString()
	s.lockedAt = time.Now()
	s.counters.Locks++

	format := st.Video.FormatID.String()
	s.logger.Info("Video locked",
		"trace_id", s.traceID,
		"format", format,
		"mode", tr.Mode.String(),
		"family", tr.Family.String(),
		"fractional", tr.IsFractional)

	metrics.RecordLock(s.device, format, tr.Mode.String(), class.Rate.Hz())

	s.bus.Publish(events.StreamUp(events.StreamUpEvent{
		TraceID:       s.traceID,
		Mode:          tr.Mode.String(),
		LevelB:        tr.IsLevelB3G,
		ActiveStreams: tr.ActiveStreams.Count(),
		Family:        tr.Family.String(),
		Format:        format,
		Supported:     st.Video.FormatID.Supported(),
		Interlaced:    st.Video.IsInterlaced,
		FrameRate:     class.Rate.Hz(),
		Fractional:    tr.IsFractional,
		PayloadID:     st.PayloadID,
		Timestamp:     s.lockedAt.Format(time.RFC3339),
	}))
}

// streamDown runs inside rx.HandleInterrupt with s.mu held.
func (s *Service) streamDown() {
	var lockedFor time.Duration
	if s.locked {
		lockedFor = time.Since(s.lockedAt)
	}
	traceID := s.traceID

	s.locked = false
	s.traceID = ""
	s.lockedAt = time.Time{}
	s.counters.Unlocks++

	s.logger.Info("Video unlocked", "trace_id", traceID, "locked_for", lockedFor)
	metrics.RecordUnlock(s.device, lockedFor)

	s.bus.Publish(events.StreamDown(events.StreamDownEvent{
		TraceID:   traceID,
		Timestamp: time.Now().Format(time.RFC3339),
	}))
}

// lockRejected runs inside rx.HandleInterrupt with s.mu held.
func (s *Service) lockRejected(r sdirx.LockRejection) {
	s.counters.Rejected++

	reason := "mode_and_timing"
	switch {
	case r.Status.ModeLocked:
		reason = "timing"
	case r.Status.TimingLocked:
		reason = "mode"
	}
	metrics.RecordLockRejected(s.device, reason)

	s.bus.Publish(events.LockRejectedEvent{
		ModeLocked:   r.Status.ModeLocked,
		TimingLocked: r.Status.TimingLocked,
		ModeDet:      r.Words.ModeDet,
		TSDet:        r.Words.TSDet,
		Timestamp:    time.Now().Format(time.RFC3339),
	})
}

// SetInterruptMask enables or disables the lock and unlock interrupts.
func (s *Service) SetInterruptMask(lock, unlock bool) {
	s.mu.Lock()
	apply := func(enabled bool, m sdirx.IntrMask) {
		if enabled {
			s.rx.IntrEnable(m)
		} else {
			s.rx.IntrDisable(m)
		}
	}
	apply(lock, sdirx.IntrVideoLock)
	apply(unlock, sdirx.IntrVideoUnlock)
	s.mu.Unlock()

	s.logger.Info("Interrupt mask changed", "lock", lock, "unlock", unlock)
	s.bus.Publish(events.InterruptMaskChangedEvent{
		Lock:      lock,
		Unlock:    unlock,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// InterruptMask reports which of the lock and unlock interrupts are enabled.
func (s *Service) InterruptMask() (lock, unlock bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	masked := s.rx.MaskedInterrupts()
	return masked&sdirx.IntrVideoLock == 0, masked&sdirx.IntrVideoUnlock == 0
}

// Status returns a snapshot of the receiver state.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		Device:    s.device,
		Locked:    s.locked,
		TraceID:   s.traceID,
		Transport: s.rx.Transport(),
		Counters:  s.counters,
		Metrics:   metrics.GetReceiverMetrics(s.device),
	}
	if s.locked {
		since := s.lockedAt
		st.LockedSince = &since
	}
	for i := 0; i < sdirx.MaxDataStreams; i++ {
		stream, _ := s.rx.Stream(i)
		st.Streams = append(st.Streams, stream)
	}
	st.Video = st.Streams[0].Video
	if f, ok := st.Video.FormatID.Format(); ok {
		st.Format = &f
	}
	return st
}

// Status is a point-in-time copy of the service state.
type Status struct {
	Device      string            `json:"device"`
	Locked      bool              `json:"locked"`
	TraceID     string            `json:"trace_id,omitempty"`
	LockedSince *time.Time        `json:"locked_since,omitempty"`
	Transport   sdirx.Transport   `json:"transport"`
	Video       sdirx.VideoStream `json:"video"`
	Format      *vidc.Format      `json:"format,omitempty"`
	Streams     []sdirx.Stream    `json:"streams"`
	Counters    Counters          `json:"counters"`

	// Metrics mirrors the Prometheus series of this device. Nil until the
	// first interrupt is recorded.
	Metrics *metrics.ReceiverMetrics `json:"metrics,omitempty"`
}

// Counters accumulate over the lifetime of the service.
type Counters struct {
	Interrupts uint64 `json:"interrupts"`
	Locks      uint64 `json:"locks"`
	Unlocks    uint64 `json:"unlocks"`
	Rejected   uint64 `json:"rejected"`
	Spurious   uint64 `json:"spurious"`
	Missed     uint64 `json:"missed"`
}

// Package sdirx services the lock and unlock interrupts of an SDI receiver
// core. It decodes the detection status registers into transport parameters,
// classifies them against the vidc format catalog and notifies the stream-up
// and stream-down callbacks.
//
// A Receiver is not safe for concurrent use. HandleInterrupt and the
// callbacks it invokes run synchronously on the caller's goroutine.
package sdirx

import (
	"fmt"
	"log/slog"
	"reflect"

	"github.com/smazurov/sdinode/pkg/vidc"
)

// MaxDataStreams is the number of data streams the receiver tracks.
const MaxDataStreams = 8

// IntrMask selects receiver interrupt sources.
type IntrMask uint32

// Interrupt sources.
const (
	IntrVideoLock   IntrMask = 0x1
	IntrVideoUnlock IntrMask = 0x2

	// IntrAll selects every source the receiver services.
	IntrAll = IntrVideoLock | IntrVideoUnlock
)

// HandlerType selects a callback slot.
type HandlerType int

// Callback slots.
const (
	HandlerStreamDown HandlerType = iota + 1
	HandlerStreamUp
)

func (h HandlerType) String() string {
	switch h {
	case HandlerStreamDown:
		return "stream-down"
	case HandlerStreamUp:
		return "stream-up"
	default:
		return fmt.Sprintf("handler(%d)", int(h))
	}
}

// Callback is invoked with the reference it was registered with.
type Callback func(ref any)

type binding struct {
	fn  Callback
	ref any
	set bool
}

func (b binding) fire() {
	if b.set {
		b.fn(b.ref)
	}
}

// VideoStream describes the video carried by a data stream.
type VideoStream struct {
	PixPerClk    vidc.PixelsPerClock `json:"pix_per_clk"`
	ColorDepth   vidc.ColorDepth     `json:"color_depth"`
	ColorFormat  vidc.ColorFormat    `json:"color_format"`
	IsInterlaced bool                `json:"is_interlaced"`
	FormatID     vidc.FormatID       `json:"format_id"`
	Timing       vidc.Timing         `json:"timing"`
}

// Stream is the state kept per data stream. Only stream 0 carries a
// classified VideoStream.
type Stream struct {
	PayloadID uint32      `json:"payload_id"`
	Video     VideoStream `json:"video"`
}

// LockRejection describes a lock interrupt whose status words did not report
// both mode and timing lock.
type LockRejection struct {
	Status LockStatus
	Words  StatusWords
}

// Option configures a Receiver.
type Option func(*Receiver)

// WithLogger sets the logger used for warnings and debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Receiver) {
		r.logger = logger
	}
}

// WithLockRejectedHook installs a function called, synchronously, whenever a
// lock interrupt is ignored because the lock bits disagree.
func WithLockRejectedHook(fn func(LockRejection)) Option {
	return func(r *Receiver) {
		r.onLockRejected = fn
	}
}

// Receiver holds the state of one SDI receiver instance.
type Receiver struct {
	regs      Registers
	logger    *slog.Logger
	transport Transport
	streams   [MaxDataStreams]Stream

	streamUp   binding
	streamDown binding

	onLockRejected func(LockRejection)
}

// New creates a Receiver over regs with reset stream state.
func New(regs Registers, opts ...Option) *Receiver {
	r := &Receiver{
		regs:   regs,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.ResetStream()
	return r
}

// Transport returns the transport parameters of the last lock.
func (r *Receiver) Transport() Transport {
	return r.transport
}

// Stream returns the state of data stream id. ok is false when id is out of
// range.
func (r *Receiver) Stream(id int) (Stream, bool) {
	if id < 0 || id >= MaxDataStreams {
		return Stream{}, false
	}
	return r.streams[id], true
}

// SetCallback binds fn and ref to the given slot, replacing any previous
// binding. It returns ErrInvalidParam for an unknown slot, a nil fn or a nil
// ref, including a typed nil pointer, map, slice, channel or func, and leaves
// the bindings untouched in that case.
func (r *Receiver) SetCallback(kind HandlerType, fn Callback, ref any) error {
	if fn == nil || isNil(ref) {
		return newError(ErrCodeInvalidParam, fmt.Sprintf("nil callback or reference for %s", kind), nil)
	}

	switch kind {
	case HandlerStreamDown:
		r.streamDown = binding{fn: fn, ref: ref, set: true}
	case HandlerStreamUp:
		r.streamUp = binding{fn: fn, ref: ref, set: true}
	default:
		return newError(ErrCodeInvalidParam, fmt.Sprintf("unknown handler type %s", kind), nil)
	}
	return nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface, reflect.UnsafePointer:
		return rv.IsNil()
	default:
		return false
	}
}

// IntrEnable unmasks the given interrupt sources.
func (r *Receiver) IntrEnable(mask IntrMask) {
	v := r.regs.Read(RegIntMask)
	r.regs.Write(RegIntMask, v&^uint32(mask))
}

// IntrDisable masks the given interrupt sources.
func (r *Receiver) IntrDisable(mask IntrMask) {
	v := r.regs.Read(RegIntMask)
	r.regs.Write(RegIntMask, v|uint32(mask))
}

// MaskedInterrupts returns the sources currently masked in hardware.
func (r *Receiver) MaskedInterrupts() IntrMask {
	return IntrMask(r.regs.Read(RegIntMask)) & IntrAll
}

// HandleInterrupt services pending lock and unlock interrupts. Each pending
// source is cleared before its handler runs; when both are pending the lock
// handler runs first. Other status bits are ignored. The serviced sources are
// returned.
func (r *Receiver) HandleInterrupt() IntrMask {
	pending := IntrMask(r.regs.Read(RegIntStatus)) & IntrAll

	if pending&IntrVideoLock != 0 {
		r.clearInterrupt(IntrVideoLock)
		r.onVideoLocked()
	}

	if pending&IntrVideoUnlock != 0 {
		r.clearInterrupt(IntrVideoUnlock)
		r.onVideoUnlocked()
	}

	return pending
}

func (r *Receiver) clearInterrupt(mask IntrMask) {
	r.regs.Write(RegIntClear, uint32(mask))
	r.regs.Write(RegIntClear, 0)
}

// PayloadID returns the ST 352 payload identifier of data stream id, or zero
// when the hardware has not flagged it valid.
func (r *Receiver) PayloadID(id int) uint32 {
	if id < 0 || id >= MaxDataStreams {
		return 0
	}
	if (r.regs.Read(RegST352Valid)>>uint(id))&0x1 == 0 {
		return 0
	}
	return r.regs.Read(RegST352DS0 + uint32(id)*4)
}

// ResetStream clears the transport parameters and every data stream to
// their defaults. No registers are accessed.
func (r *Receiver) ResetStream() {
	r.transport = Transport{}
	for i := range r.streams {
		r.streams[i] = Stream{Video: defaultVideoStream()}
	}
}

func defaultVideoStream() VideoStream {
	return VideoStream{
		PixPerClk:   vidc.PPC2,
		ColorDepth:  vidc.BPC10,
		ColorFormat: vidc.ColorYCbCr422,
		FormatID:    vidc.FormatUnsupported,
	}
}

func (r *Receiver) onVideoLocked() {
	words := StatusWords{
		ModeDet: r.regs.Read(RegModeDetSts),
		TSDet:   r.regs.Read(RegTSDetSts),
	}

	lock := DecodeLock(words.ModeDet, words.TSDet)
	if !lock.Locked() {
		r.logger.Warn("Video lock interrupt without mode and timing lock",
			"mode_locked", lock.ModeLocked,
			"timing_locked", lock.TimingLocked,
			"mode_det", fmt.Sprintf("0x%08x", words.ModeDet),
			"ts_det", fmt.Sprintf("0x%08x", words.TSDet))
		if r.onLockRejected != nil {
			r.onLockRejected(LockRejection{Status: lock, Words: words})
		}
		return
	}

	words.TData = r.regs.Read(RegSbRxTData)
	transport, _ := DecodeTransport(words)

	// Clear the error and EDH counters accumulated under the previous lock.
	r.regs.Write(RegStatReset, StatResetClearErr|StatResetClearEDH)
	r.regs.Write(RegStatReset, 0)

	r.transport = transport
	for i := range r.streams {
		r.streams[i].PayloadID = r.PayloadID(i)
	}

	video := &r.streams[0].Video
	timing := video.Timing
	*video = defaultVideoStream()
	video.Timing = timing

	class := Classify(transport)
	video.FormatID = class.FormatID
	video.IsInterlaced = class.Interlaced
	if t, ok := vidc.TimingFor(class.FormatID); ok {
		video.Timing = t
	}

	r.logger.Debug("Video locked",
		"transport", transport.String(),
		"format", class.FormatID.String(),
		"interlaced", class.Interlaced,
		"payload_id", fmt.Sprintf("0x%08x", r.streams[0].PayloadID))

	r.streamUp.fire()
}

func (r *Receiver) onVideoUnlocked() {
	r.ResetStream()
	r.logger.Debug("Video unlocked")
	r.streamDown.fire()
}

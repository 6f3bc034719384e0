package events

// Event type constants for kelindar/event.
const (
	TypeStreamState uint32 = iota + 1
	TypeLockRejected
	TypeInterruptMaskChanged
	TypeLogEntry
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// StreamStateEvent is published on every accepted lock and every unlock.
// Lock and unlock share this one type so each subscriber sees them in the
// order they happened. Exactly one of Up and Down is set.
type StreamStateEvent struct {
	Locked bool             `json:"locked" doc:"Receiver lock state after this event"`
	Up     *StreamUpEvent   `json:"up,omitempty" doc:"Set when the receiver locked"`
	Down   *StreamDownEvent `json:"down,omitempty" doc:"Set when the receiver unlocked"`
}

// Type returns the event type identifier for StreamStateEvent.
func (e StreamStateEvent) Type() uint32 { return TypeStreamState }

// StreamUp wraps up in a locked StreamStateEvent.
func StreamUp(up StreamUpEvent) StreamStateEvent {
	return StreamStateEvent{Locked: true, Up: &up}
}

// StreamDown wraps down in an unlocked StreamStateEvent.
func StreamDown(down StreamDownEvent) StreamStateEvent {
	return StreamStateEvent{Down: &down}
}

// StreamUpEvent describes an accepted lock and the classified video.
type StreamUpEvent struct {
	TraceID       string `json:"trace_id" example:"0b7e5c1e-3c1a-4d35-9f1e-6a1b1b0b9d7e" doc:"Identifier of this lock session"`
	Mode          string `json:"mode" example:"3G" doc:"Detected SDI mode"`
	LevelB        bool   `json:"level_b" doc:"3G level B mapping"`
	ActiveStreams int    `json:"active_streams" example:"1" doc:"Number of active data streams"`
	Family        string `json:"family" example:"SMPTE ST 274" doc:"Transport family"`
	Format        string `json:"format" example:"1920x1080p60" doc:"Classified video format"`
	Supported     bool   `json:"supported" doc:"Whether the format is in the catalog"`
	Interlaced    bool   `json:"interlaced" doc:"Interlaced scan"`
	FrameRate     int    `json:"frame_rate" example:"60" doc:"Frame-rate bucket in Hz"`
	Fractional    bool   `json:"fractional" doc:"1000/1001 rate"`
	PayloadID     uint32 `json:"payload_id" example:"2308112385" doc:"ST 352 payload identifier of stream 0"`
	Timestamp     string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// StreamDownEvent describes a lost lock.
type StreamDownEvent struct {
	TraceID   string `json:"trace_id" doc:"Identifier of the lock session that ended, empty if none"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// LockRejectedEvent is published when a lock interrupt arrives without both
// mode and timing lock.
type LockRejectedEvent struct {
	ModeLocked   bool   `json:"mode_locked" doc:"Mode detector lock bit"`
	TimingLocked bool   `json:"timing_locked" doc:"Transport stream lock bit"`
	ModeDet      uint32 `json:"mode_det" doc:"Raw mode detection status word"`
	TSDet        uint32 `json:"ts_det" doc:"Raw transport detection status word"`
	Timestamp    string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for LockRejectedEvent.
func (e LockRejectedEvent) Type() uint32 { return TypeLockRejected }

// InterruptMaskChangedEvent is published after the interrupt mask is changed
// through the API.
type InterruptMaskChangedEvent struct {
	Lock      bool   `json:"lock" doc:"Lock interrupt enabled"`
	Unlock    bool   `json:"unlock" doc:"Unlock interrupt enabled"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for InterruptMaskChangedEvent.
func (e InterruptMaskChangedEvent) Type() uint32 { return TypeInterruptMaskChanged }

// LogEntryEvent carries one log record to SSE clients.
type LogEntryEvent struct {
	Seq        uint64         `json:"seq" example:"42" doc:"Monotonic sequence number for deduplication"`
	Timestamp  string         `json:"timestamp" example:"2025-01-09T10:30:00.123Z" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"receiver" doc:"Source module"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured log attributes"`
}

// Type returns the event type identifier for LogEntryEvent.
func (e LogEntryEvent) Type() uint32 { return TypeLogEntry }

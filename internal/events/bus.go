package events

import (
	"github.com/kelindar/event"
)

// Bus wraps a kelindar/event dispatcher.
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus.
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish delivers ev to every subscriber of its concrete type.
// Usage: bus.Publish(StreamUp(StreamUpEvent{...}))
func (b *Bus) Publish(ev Event) {
	switch e := ev.(type) {
	case StreamStateEvent:
		event.Publish(b.dispatcher, e)
	case LockRejectedEvent:
		event.Publish(b.dispatcher, e)
	case InterruptMaskChangedEvent:
		event.Publish(b.dispatcher, e)
	case LogEntryEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe registers handler for the event type named by its parameter and
// returns the unsubscribe function. Unknown handler types get a no-op.
// Usage: unsub := bus.Subscribe(func(e StreamStateEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(StreamStateEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(LockRejectedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(InterruptMaskChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(LogEntryEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}

package events

import "github.com/kelindar/event"

// SubscribeToChannel forwards events of type T into ch for huma's SSE select
// loop. Events are dropped while ch is full.
func SubscribeToChannel[T Event](bus *Bus, ch chan<- any) func() {
	return event.Subscribe(bus.dispatcher, func(e T) {
		select {
		case ch <- e:
		default:
		}
	})
}

package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/smazurov/sdinode/internal/events"
	"github.com/smazurov/sdinode/internal/receiver"
)

// registerSSERoutes registers the receiver event stream.
func (s *Server) registerSSERoutes() {
	if s.eventBus == nil {
		return
	}

	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Receiver status on connect, then lock, unlock, rejected lock and interrupt mask events",
		Tags:        []string{"events"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"receiver-status":        receiver.Status{},
		"stream-up":              events.StreamUpEvent{},
		"stream-down":            events.StreamDownEvent{},
		"lock-rejected":          events.LockRejectedEvent{},
		"interrupt-mask-changed": events.InterruptMaskChangedEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		eventCh := make(chan any, 16)

		unsubscribers := []func(){
			events.SubscribeToChannel[events.StreamStateEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.LockRejectedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.InterruptMaskChangedEvent](s.eventBus, eventCh),
		}
		defer func() {
			for _, unsub := range unsubscribers {
				unsub()
			}
		}()

		if s.options.Receiver != nil {
			if err := send.Data(s.options.Receiver.Status()); err != nil {
				return
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				if err := send.Data(sseMessage(event)); err != nil {
					return
				}
			}
		}
	})
}

// sseMessage unwraps stream state events into their stream-up or
// stream-down payload.
func sseMessage(event any) any {
	state, ok := event.(events.StreamStateEvent)
	if !ok {
		return event
	}
	if state.Up != nil {
		return *state.Up
	}
	if state.Down != nil {
		return *state.Down
	}
	return event
}

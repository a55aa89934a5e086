package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/smazurov/mixnode/internal/events"
)

// registerSSERoutes registers the native Huma SSE endpoint.
func (s *Server) registerSSERoutes() {
	// Register SSE endpoint with event type mapping
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Real-time event stream for output negotiation, frame drops, layer changes and end of stream",
		Tags:        []string{"events"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"output-negotiated": events.OutputNegotiatedEvent{},
		"frame-dropped":     events.FrameDroppedEvent{},
		"layer-created":     events.LayerCreatedEvent{},
		"layer-updated":     events.LayerUpdatedEvent{},
		"layer-deleted":     events.LayerDeletedEvent{},
		"end-of-stream":     events.EndOfStreamEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		// Create event channel for this connection
		eventCh := make(chan any, 10)

		// Subscribe to all event types using event bus
		unsubscribers := []func(){
			events.SubscribeToChannel[events.OutputNegotiatedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.FrameDroppedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.LayerCreatedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.LayerUpdatedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.LayerDeletedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.EndOfStreamEvent](s.eventBus, eventCh),
		}
		defer func() {
			for _, unsub := range unsubscribers {
				unsub()
			}
		}()

		// Keep connection alive and forward events
		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				// Send event using Huma's SSE sender with error handling
				if err := send.Data(event); err != nil {
					// Connection failed, clean up and exit
					return
				}
			}
		}
	})
}

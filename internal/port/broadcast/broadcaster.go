// Package broadcast defines the port for pushing real-time factory events to
// connected dashboard clients.
package broadcast

import "context"

// Broadcaster sends a typed event to all connected clients.
type Broadcaster interface {
	BroadcastEvent(ctx context.Context, eventType string, payload any)
}

// Noop is a Broadcaster that drops all events.
type Noop struct{}

// BroadcastEvent discards the event.
func (Noop) BroadcastEvent(context.Context, string, any) {}

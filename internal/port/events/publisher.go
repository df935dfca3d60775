// Package events defines the port for publishing factory lifecycle events
// to external consumers.
package events

import "context"

// Subjects published by the factory.
const (
	SubjectAgentCreated   = "factory.agents.created"
	SubjectAgentCompleted = "factory.agents.completed"
	SubjectAgentFailed    = "factory.agents.failed"
	SubjectAgentRecovered = "factory.agents.recovered"
	SubjectFactoryReset   = "factory.reset"
)

// Publisher sends factory events to a message broker. Publishing is best
// effort; callers log and continue on error.
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// Noop is a Publisher that discards all events. Used when no broker is
// configured.
type Noop struct{}

// Publish discards the event.
func (Noop) Publish(context.Context, string, []byte) error { return nil }

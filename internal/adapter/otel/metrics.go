package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all factory metric instruments.
type Metrics struct {
	AgentsCreated   metric.Int64Counter
	AgentsCompleted metric.Int64Counter
	AgentsFailed    metric.Int64Counter
	TickDuration    metric.Float64Histogram
}

// NewMetrics creates all metric instruments against the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(scopeName)
	m := &Metrics{}
	var err error

	m.AgentsCreated, err = meter.Int64Counter("factory.agents.created",
		metric.WithDescription("Number of agents created"))
	if err != nil {
		return nil, err
	}

	m.AgentsCompleted, err = meter.Int64Counter("factory.agents.completed",
		metric.WithDescription("Number of agents that completed production"))
	if err != nil {
		return nil, err
	}

	m.AgentsFailed, err = meter.Int64Counter("factory.agents.failed",
		metric.WithDescription("Number of agents that entered the error state"))
	if err != nil {
		return nil, err
	}

	m.TickDuration, err = meter.Float64Histogram("factory.tick.duration_seconds",
		metric.WithDescription("Pipeline tick duration in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

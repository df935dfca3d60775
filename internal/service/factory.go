// Package service implements the factory use cases: agent creation, the
// production pipeline tick, fault injection and recovery, metrics derivation,
// and the tick scheduler.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	factoryotel "github.com/Moeabdelaziz007/axiom-factory/internal/adapter/otel"
	"github.com/Moeabdelaziz007/axiom-factory/internal/adapter/ws"
	"github.com/Moeabdelaziz007/axiom-factory/internal/domain/agent"
	"github.com/Moeabdelaziz007/axiom-factory/internal/domain/stage"
	"github.com/Moeabdelaziz007/axiom-factory/internal/port/broadcast"
	"github.com/Moeabdelaziz007/axiom-factory/internal/port/events"
	"github.com/Moeabdelaziz007/axiom-factory/internal/port/persistence"
	"github.com/Moeabdelaziz007/axiom-factory/internal/port/signing"
)

const (
	// defaultFailureRate is the probability, per active agent per tick, of a
	// simulated production fault. Applied per tick, not per stage or per
	// lifetime, so long-running agents accumulate independent chances.
	defaultFailureRate = 0.002

	// defaultRetention is how long terminal agents stay in the registry
	// before they are reaped.
	defaultRetention = 5 * time.Minute

	// Stage progress advances by a bounded random increment each tick.
	progressMin = 10.0
	progressMax = 20.0
)

// Factory owns the agent registry and drives agents through the production
// pipeline. Construct with NewFactory; there is no package-level instance.
type Factory struct {
	plan        stage.Plan
	registry    *Registry
	store       persistence.Store
	signer      signing.Signer
	publisher   events.Publisher
	hub         broadcast.Broadcaster
	failureRate float64
	retention   time.Duration
	instruments *factoryotel.Metrics

	rng *rand.Rand
	now func() time.Time

	// Session counters back the lifetime metrics when persistence is
	// unavailable.
	sessionCreated atomic.Int64
	sessionWallets atomic.Int64
}

// Option configures a Factory.
type Option func(*Factory)

// WithClock overrides the time source, letting tests single-step the
// pipeline deterministically.
func WithClock(now func() time.Time) Option {
	return func(f *Factory) { f.now = now }
}

// WithRand overrides the randomness source for progress increments and
// failure draws, making tick sequences reproducible.
func WithRand(rng *rand.Rand) Option {
	return func(f *Factory) { f.rng = rng }
}

// WithFailureRate overrides the per-agent per-tick simulated failure
// probability. Zero disables simulated faults.
func WithFailureRate(rate float64) Option {
	return func(f *Factory) { f.failureRate = rate }
}

// WithRetention overrides how long terminal agents are kept before reaping.
func WithRetention(d time.Duration) Option {
	return func(f *Factory) { f.retention = d }
}

// WithPublisher attaches an event publisher.
func WithPublisher(p events.Publisher) Option {
	return func(f *Factory) { f.publisher = p }
}

// WithBroadcaster attaches a real-time broadcaster.
func WithBroadcaster(b broadcast.Broadcaster) Option {
	return func(f *Factory) { f.hub = b }
}

// WithInstruments attaches OpenTelemetry instruments for lifecycle counters.
func WithInstruments(m *factoryotel.Metrics) Option {
	return func(f *Factory) { f.instruments = m }
}

// NewFactory creates a Factory over the given stage plan, persistence store,
// and signer.
func NewFactory(plan stage.Plan, store persistence.Store, signer signing.Signer, opts ...Option) (*Factory, error) {
	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("stage plan: %w", err)
	}

	f := &Factory{
		plan:        plan,
		registry:    NewRegistry(),
		store:       store,
		signer:      signer,
		publisher:   events.Noop{},
		hub:         broadcast.Noop{},
		failureRate: defaultFailureRate,
		retention:   defaultRetention,
		rng:         rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// CreateAgent validates the type, inserts a new agent at the first stage, and
// returns a snapshot. The unknown-type case is the only operation in the
// factory that reports failure as an error value.
func (f *Factory) CreateAgent(ctx context.Context, typ agent.Type) (*agent.Agent, error) {
	req := agent.CreateRequest{Type: typ}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := f.now()
	id := uuid.NewString()
	a := &agent.Agent{
		ID:             id,
		DisplayName:    agent.DisplayName(typ, shortID(id)),
		Type:           typ,
		Status:         f.plan.StatusFor(0),
		Stage:          0,
		CreatedAt:      now,
		StartedAt:      now,
		StageEnteredAt: now,
	}

	// uuid ids are collision-free under concurrent creation; a duplicate
	// here would mean a broken uuid source.
	if !f.registry.Insert(a) {
		return nil, fmt.Errorf("agent id collision: %s", id)
	}

	f.sessionCreated.Add(1)
	f.bumpCounter(ctx, persistence.KeyLifetimeCreated)
	if f.instruments != nil {
		f.instruments.AgentsCreated.Add(ctx, 1)
	}
	f.publishAgent(ctx, events.SubjectAgentCreated, a)

	return a.Clone(), nil
}

// GetAgent returns a snapshot of the agent with the given id, or false if it
// is unknown. Unknown ids are an ordinary outcome, not an error.
func (f *Factory) GetAgent(id string) (*agent.Agent, bool) {
	return f.registry.Get(id)
}

// ListAgents returns snapshots of all live agents in creation order.
func (f *Factory) ListAgents() []*agent.Agent {
	return f.registry.List()
}

// Plan returns the factory's stage plan.
func (f *Factory) Plan() stage.Plan {
	return f.plan
}

// Reset clears the registry and removes every persisted key. The scheduler
// wraps this in a stop/restart cycle; see Scheduler.ResetFactory.
func (f *Factory) Reset(ctx context.Context) {
	f.registry.Clear()
	f.sessionCreated.Store(0)
	f.sessionWallets.Store(0)

	for _, key := range persistence.AllKeys() {
		if err := f.store.Remove(ctx, key); err != nil {
			slog.Warn("persistence remove failed", "key", key, "error", err)
		}
	}

	f.publish(ctx, events.SubjectFactoryReset, map[string]string{"at": f.now().UTC().Format(time.RFC3339)})
	f.hub.BroadcastEvent(ctx, ws.EventFactoryReset, struct{}{})
	slog.Info("factory reset")
}

// bumpCounter increments a persisted counter, tolerating any store failure.
func (f *Factory) bumpCounter(ctx context.Context, key string) {
	current := f.readCounter(ctx, key)
	if err := f.store.Set(ctx, key, strconv.FormatInt(current+1, 10)); err != nil {
		slog.Warn("persistence set failed", "key", key, "error", err)
	}
}

// readCounter reads a persisted counter, defaulting to 0 on any failure.
func (f *Factory) readCounter(ctx context.Context, key string) int64 {
	raw, ok, err := f.store.Get(ctx, key)
	if err != nil {
		slog.Warn("persistence get failed", "key", key, "error", err)
		return 0
	}
	if !ok {
		return 0
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		slog.Warn("persisted counter malformed", "key", key, "value", raw)
		return 0
	}
	return n
}

// publishAgent publishes an agent lifecycle event and mirrors it to the
// real-time hub. Both paths are best effort.
func (f *Factory) publishAgent(ctx context.Context, subject string, a *agent.Agent) {
	f.publish(ctx, subject, ws.AgentStatusEvent{
		AgentID:         a.ID,
		Type:            string(a.Type),
		Status:          string(a.Status),
		Stage:           a.Stage,
		OverallProgress: a.OverallProgress,
		Error:           a.Error,
	})
	f.hub.BroadcastEvent(ctx, ws.EventAgentStatus, ws.AgentStatusEvent{
		AgentID:         a.ID,
		Type:            string(a.Type),
		Status:          string(a.Status),
		Stage:           a.Stage,
		OverallProgress: a.OverallProgress,
		Error:           a.Error,
	})
}

func (f *Factory) publish(ctx context.Context, subject string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal event payload", "subject", subject, "error", err)
		return
	}
	if err := f.publisher.Publish(ctx, subject, data); err != nil {
		slog.Warn("event publish failed", "subject", subject, "error", err)
	}
}

// shortID returns the leading segment of a uuid for display names.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

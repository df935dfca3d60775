package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	factoryotel "github.com/Moeabdelaziz007/axiom-factory/internal/adapter/otel"
)

// DefaultTickInterval is the production tick period.
const DefaultTickInterval = time.Second

// Scheduler drives the pipeline with a fixed-interval ticker. Start and Stop
// are idempotent; stopping freezes all agents in place and restarting resumes
// without loss of in-memory state.
type Scheduler struct {
	factory  *Factory
	interval time.Duration
	otel     *factoryotel.Metrics

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewScheduler creates a scheduler over the factory. A non-positive interval
// defaults to DefaultTickInterval.
func NewScheduler(f *Factory, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &Scheduler{factory: f, interval: interval}
}

// SetInstruments attaches OpenTelemetry instruments recorded on each tick.
func (s *Scheduler) SetInstruments(m *factoryotel.Metrics) {
	s.otel = m
}

// Start begins ticking in a background goroutine. The loop runs until Stop;
// it is deliberately detached from any request context. Calling Start on a
// running scheduler has no additional effect.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.running = true
	s.wg.Add(1)
	go s.loop(ctx)
	slog.Info("simulation started", "interval", s.interval)
}

// Stop cancels the tick loop and waits for the in-flight tick to finish.
// Calling Stop on a stopped scheduler has no effect.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
	slog.Info("simulation stopped")
}

// Running reports whether the tick loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// ResetFactory stops the scheduler, clears the registry and all persisted
// counters, then restarts ticking. ctx scopes only the persistence cleanup.
func (s *Scheduler) ResetFactory(ctx context.Context) {
	s.Stop()
	s.factory.Reset(ctx)
	s.Start()
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	start := time.Now()
	s.factory.Advance(ctx)
	if s.otel != nil {
		s.otel.TickDuration.Record(ctx, time.Since(start).Seconds())
	}
}

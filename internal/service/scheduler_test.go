package service

import (
	"context"
	"testing"
	"time"

	"github.com/Moeabdelaziz007/axiom-factory/internal/domain/agent"
)

func TestSchedulerStartStopIdempotent(t *testing.T) {
	tf := newTestFactory(t)
	s := NewScheduler(tf.Factory, 10*time.Millisecond)

	if s.Running() {
		t.Fatal("new scheduler reports running")
	}

	s.Start()
	s.Start()
	if !s.Running() {
		t.Fatal("Running() = false after Start")
	}

	s.Stop()
	s.Stop()
	if s.Running() {
		t.Fatal("Running() = true after Stop")
	}

	// Restart after a stop works.
	s.Start()
	if !s.Running() {
		t.Fatal("Running() = false after restart")
	}
	s.Stop()
}

func TestSchedulerTicksThePipeline(t *testing.T) {
	tf := newTestFactory(t)
	s := NewScheduler(tf.Factory, time.Millisecond)

	a, err := tf.CreateAgent(context.Background(), agent.TypeTrader)
	if err != nil {
		t.Fatalf("CreateAgent: %v", err)
	}

	s.Start()
	defer s.Stop()

	deadline := time.After(5 * time.Second)
	for {
		cur, ok := tf.GetAgent(a.ID)
		if !ok {
			t.Fatal("agent disappeared")
		}
		if cur.Status == agent.StatusCompleted {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("agent never completed under the scheduler; status=%q overall=%v",
				cur.Status, cur.OverallProgress)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestSchedulerStopFreezesState(t *testing.T) {
	tf := newTestFactory(t)
	s := NewScheduler(tf.Factory, time.Millisecond)

	a, err := tf.CreateAgent(context.Background(), agent.TypeScout)
	if err != nil {
		t.Fatalf("CreateAgent: %v", err)
	}

	s.Start()
	time.Sleep(20 * time.Millisecond)
	s.Stop()

	frozen, _ := tf.GetAgent(a.ID)
	time.Sleep(20 * time.Millisecond)
	after, _ := tf.GetAgent(a.ID)
	if after.OverallProgress != frozen.OverallProgress || after.Stage != frozen.Stage {
		t.Error("agent state changed while the scheduler was stopped")
	}
}

func TestSchedulerResetFactory(t *testing.T) {
	tf := newTestFactory(t)
	s := NewScheduler(tf.Factory, time.Millisecond)

	if _, err := tf.CreateAgent(context.Background(), agent.TypeAnalyst); err != nil {
		t.Fatalf("CreateAgent: %v", err)
	}
	s.Start()
	defer s.Stop()

	s.ResetFactory(context.Background())

	if got := len(tf.ListAgents()); got != 0 {
		t.Errorf("factory holds %d agents after reset", got)
	}
	if !s.Running() {
		t.Error("scheduler not running after ResetFactory")
	}
}

func TestSchedulerDefaultsInterval(t *testing.T) {
	tf := newTestFactory(t)
	s := NewScheduler(tf.Factory, 0)
	if s.interval != DefaultTickInterval {
		t.Errorf("interval = %v, want %v", s.interval, DefaultTickInterval)
	}
}

package service

import (
	"context"
	"testing"
	"time"

	"github.com/Moeabdelaziz007/axiom-factory/internal/domain/agent"
)

// maxTicks bounds tick loops; at the minimum per-tick increment an agent
// clears all six stages well within this.
const maxTicks = 200

func tickUntilTerminal(t *testing.T, tf *testFactory, id string) *agent.Agent {
	t.Helper()
	ctx := context.Background()
	for range maxTicks {
		tf.Advance(ctx)
		tf.clock.Advance(time.Second)
		a, ok := tf.GetAgent(id)
		if !ok {
			t.Fatal("agent disappeared mid-production")
		}
		if a.Status.IsTerminal() {
			return a
		}
	}
	t.Fatal("agent did not reach a terminal state")
	return nil
}

func TestAgentCompletesProduction(t *testing.T) {
	tf := newTestFactory(t)

	a, err := tf.CreateAgent(context.Background(), agent.TypeTrader)
	if err != nil {
		t.Fatalf("CreateAgent: %v", err)
	}

	final := tickUntilTerminal(t, tf, a.ID)

	if final.Status != agent.StatusCompleted {
		t.Fatalf("status = %q, want completed (failure rate is zero)", final.Status)
	}
	if final.OverallProgress != 100 {
		t.Errorf("OverallProgress = %v, want 100", final.OverallProgress)
	}
	if final.StageProgress != 100 {
		t.Errorf("StageProgress = %v, want 100", final.StageProgress)
	}
	if final.Stage != tf.Plan().Len()-1 {
		t.Errorf("Stage = %d, want %d", final.Stage, tf.Plan().Len()-1)
	}
	if final.CompletedAt == nil {
		t.Error("CompletedAt not set")
	}
	if final.Wallet == "" {
		t.Error("completed agent has no wallet")
	}
	if len(final.Tools) == 0 {
		t.Error("completed agent has no tools")
	}
}

func TestOverallProgressMonotonic(t *testing.T) {
	tf := newTestFactory(t)
	ctx := context.Background()

	a, err := tf.CreateAgent(ctx, agent.TypeAnalyst)
	if err != nil {
		t.Fatalf("CreateAgent: %v", err)
	}

	last := 0.0
	for range maxTicks {
		tf.Advance(ctx)
		cur, ok := tf.GetAgent(a.ID)
		if !ok {
			t.Fatal("agent disappeared")
		}
		if cur.OverallProgress < last {
			t.Fatalf("overall progress went backwards: %v -> %v", last, cur.OverallProgress)
		}
		last = cur.OverallProgress
		if cur.Status.IsTerminal() {
			return
		}
	}
	t.Fatal("agent never finished")
}

func TestProvisioningAssignsOnce(t *testing.T) {
	tf := newTestFactory(t)
	ctx := context.Background()

	a, err := tf.CreateAgent(ctx, agent.TypeScout)
	if err != nil {
		t.Fatalf("CreateAgent: %v", err)
	}

	provisionIdx := tf.Plan().ProvisionIndex
	var wallet string
	for range maxTicks {
		tf.Advance(ctx)
		cur, ok := tf.GetAgent(a.ID)
		if !ok {
			t.Fatal("agent disappeared")
		}
		if cur.Stage < provisionIdx && cur.Wallet != "" {
			t.Fatalf("wallet assigned at stage %d, before provisioning", cur.Stage)
		}
		if cur.Stage >= provisionIdx && !cur.Status.IsTerminal() && cur.Wallet == "" {
			t.Fatalf("no wallet at stage %d", cur.Stage)
		}
		if cur.Wallet != "" {
			if wallet == "" {
				wallet = cur.Wallet
			} else if cur.Wallet != wallet {
				t.Fatalf("wallet changed mid-run: %s -> %s", wallet, cur.Wallet)
			}
		}
		if cur.Status.IsTerminal() {
			break
		}
	}

	if len(tf.signer.calls) != 1 {
		t.Errorf("DeriveAddress called %d times, want 1", len(tf.signer.calls))
	}
	if got := tf.signer.calls[0]; got != "m/44'/60'/0'/0/"+a.ID {
		t.Errorf("derivation path = %q", got)
	}

	snap := tf.Metrics(ctx)
	if snap.LifetimeWalletsAllocated != 1 {
		t.Errorf("LifetimeWalletsAllocated = %d, want 1", snap.LifetimeWalletsAllocated)
	}
}

func TestWalletDerivationFailureIsNonFatal(t *testing.T) {
	tf := newTestFactory(t)
	tf.signer.fail = true
	ctx := context.Background()

	a, err := tf.CreateAgent(ctx, agent.TypeCreator)
	if err != nil {
		t.Fatalf("CreateAgent: %v", err)
	}

	final := tickUntilTerminal(t, tf, a.ID)
	if final.Status != agent.StatusCompleted {
		t.Fatalf("status = %q, derivation failure must not fail the agent", final.Status)
	}
	if final.Wallet != "" {
		t.Error("wallet set despite failing signer")
	}
	if len(final.Tools) == 0 {
		t.Error("tool loadout must be assigned even when derivation fails")
	}
}

func TestSimulatedFaultPreemptsProgress(t *testing.T) {
	// Rate 1 guarantees the failure draw wins on the first tick.
	tf := newTestFactory(t, WithFailureRate(1))
	ctx := context.Background()

	a, err := tf.CreateAgent(ctx, agent.TypeTrader)
	if err != nil {
		t.Fatalf("CreateAgent: %v", err)
	}
	tf.Advance(ctx)

	got, ok := tf.GetAgent(a.ID)
	if !ok {
		t.Fatal("agent disappeared")
	}
	if got.Status != agent.StatusError {
		t.Fatalf("status = %q, want error", got.Status)
	}
	if got.StageProgress != 0 {
		t.Errorf("StageProgress = %v, the failing tick must not also advance", got.StageProgress)
	}
	if got.Error == "" {
		t.Error("failed agent carries no reason")
	}
	if got.CompletedAt == nil {
		t.Error("CompletedAt not set on failure")
	}

	// Terminal agents receive no further ticks.
	tf.Advance(ctx)
	again, _ := tf.GetAgent(a.ID)
	if again.StageProgress != 0 || again.Status != agent.StatusError {
		t.Error("terminal agent was ticked")
	}
}

func TestPopulationAccounting(t *testing.T) {
	tf := newTestFactory(t, WithFailureRate(0.3))
	ctx := context.Background()

	for range 20 {
		if _, err := tf.CreateAgent(ctx, agent.TypeGuardian); err != nil {
			t.Fatalf("CreateAgent: %v", err)
		}
	}

	for range 10 {
		tf.Advance(ctx)
		snap := tf.Metrics(ctx)
		total := snap.ActiveCount + snap.CompletedCount + snap.FailedCount
		if total != tf.registry.Len() {
			t.Fatalf("active+completed+failed = %d, registry = %d", total, tf.registry.Len())
		}
	}
}

func TestReapRemovesExpiredTerminals(t *testing.T) {
	tf := newTestFactory(t, WithFailureRate(1), WithRetention(time.Minute))
	ctx := context.Background()

	a, err := tf.CreateAgent(ctx, agent.TypeScout)
	if err != nil {
		t.Fatalf("CreateAgent: %v", err)
	}
	tf.Advance(ctx) // fails immediately

	tf.clock.Advance(30 * time.Second)
	tf.Advance(ctx)
	if _, ok := tf.GetAgent(a.ID); !ok {
		t.Fatal("agent reaped inside the retention window")
	}

	tf.clock.Advance(2 * time.Minute)
	tf.Advance(ctx)
	if _, ok := tf.GetAgent(a.ID); ok {
		t.Fatal("agent survived past the retention window")
	}
}

func TestAdvanceWithEmptyRegistry(t *testing.T) {
	tf := newTestFactory(t)
	// Must be a no-op, not a panic.
	tf.Advance(context.Background())
	if got := tf.registry.Len(); got != 0 {
		t.Errorf("registry = %d after empty tick", got)
	}
}

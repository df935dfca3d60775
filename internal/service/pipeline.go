package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/Moeabdelaziz007/axiom-factory/internal/domain/agent"
	"github.com/Moeabdelaziz007/axiom-factory/internal/port/events"
	"github.com/Moeabdelaziz007/axiom-factory/internal/port/persistence"
)

// simulatedFaultReason is recorded on agents that fail the per-tick draw.
const simulatedFaultReason = "production fault detected during assembly"

// Advance runs one pipeline tick: every non-terminal agent is evaluated
// exactly once, then terminal agents past the retention window are reaped.
// A fault in one agent's transition never prevents the rest of the fleet from
// advancing.
func (f *Factory) Advance(ctx context.Context) {
	now := f.now()

	var completed, failed []*agent.Agent
	var walletsAllocated int

	f.registry.withLock(func(agents map[string]*agent.Agent) {
		for _, a := range agents {
			if a.Status.IsTerminal() {
				continue
			}
			hadWallet := a.Wallet != ""
			f.advanceOne(a, now)
			if !hadWallet && a.Wallet != "" {
				walletsAllocated++
			}
			switch a.Status {
			case agent.StatusCompleted:
				completed = append(completed, a.Clone())
			case agent.StatusError:
				failed = append(failed, a.Clone())
			}
		}
	})

	// Counter writes happen outside the registry lock so a slow store never
	// blocks readers.
	for range walletsAllocated {
		f.sessionWallets.Add(1)
		f.bumpCounter(ctx, persistence.KeyLifetimeWallets)
	}

	for _, a := range completed {
		if f.instruments != nil {
			f.instruments.AgentsCompleted.Add(ctx, 1)
		}
		f.publishAgent(ctx, events.SubjectAgentCompleted, a)
	}
	for _, a := range failed {
		if f.instruments != nil {
			f.instruments.AgentsFailed.Add(ctx, 1)
		}
		f.publishAgent(ctx, events.SubjectAgentFailed, a)
	}

	if reaped := f.registry.reap(now, f.retention); reaped > 0 {
		slog.Debug("reaped terminal agents", "count", reaped)
	}
}

// advanceOne applies the per-tick transition rule to a single agent. Any
// panic from a single transition is contained so the tick keeps processing
// the remaining agents.
func (f *Factory) advanceOne(a *agent.Agent, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("agent transition panicked", "agent", a.ID, "panic", r)
		}
	}()

	// The failure draw preempts the normal progress update for this tick.
	if f.failureRate > 0 && f.rng.Float64() < f.failureRate {
		f.fail(a, simulatedFaultReason, now)
		return
	}

	a.StageProgress += progressMin + f.rng.Float64()*(progressMax-progressMin)
	if a.StageProgress < 100 {
		a.OverallProgress = f.overall(a)
		return
	}
	a.StageProgress = 100

	if a.Stage == f.plan.Len()-1 {
		a.Status = agent.StatusCompleted
		a.OverallProgress = 100
		t := now
		a.CompletedAt = &t
		return
	}

	a.Stage++
	a.Status = f.plan.StatusFor(a.Stage)
	a.StageProgress = 0
	a.StageEnteredAt = now
	a.OverallProgress = f.overall(a)

	if a.Stage == f.plan.ProvisionIndex {
		f.provision(a)
	}
}

// overall recomputes overall progress from completed stages plus the current
// stage fraction.
func (f *Factory) overall(a *agent.Agent) float64 {
	return (float64(a.Stage) + a.StageProgress/100) / float64(f.plan.Len()) * 100
}

// fail moves an agent to the terminal error state.
func (f *Factory) fail(a *agent.Agent, reason string, now time.Time) {
	a.Status = agent.StatusError
	a.Error = reason
	t := now
	a.CompletedAt = &t
}

// provision assigns the agent's wallet address and tool loadout on first
// entry to the designated stage. Attributes already set from the current run
// survive; recovery clears them for the next run.
func (f *Factory) provision(a *agent.Agent) {
	if a.Tools == nil {
		a.Tools = agent.Loadout(a.Type)
	}

	if a.Wallet != "" {
		return
	}
	addr, err := f.signer.DeriveAddress(derivationPath(a.ID))
	if err != nil {
		// The agent keeps producing without a wallet; allocation is not
		// retried within this run.
		slog.Warn("wallet derivation failed", "agent", a.ID, "error", err)
		return
	}
	a.Wallet = addr
}

// derivationPath returns the deterministic key derivation path for an agent.
func derivationPath(id string) string {
	return "m/44'/60'/0'/0/" + id
}

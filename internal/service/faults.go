package service

import (
	"context"

	"github.com/Moeabdelaziz007/axiom-factory/internal/domain/agent"
	"github.com/Moeabdelaziz007/axiom-factory/internal/port/events"
)

// defaultInjectedReason is used when InjectFailure is called without a reason.
const defaultInjectedReason = "failure injected by operator"

// InjectFailure forces the agent into the terminal error state. Returns
// false, with no state mutation, when the id is unknown or the agent is
// already terminal.
func (f *Factory) InjectFailure(ctx context.Context, id, reason string) bool {
	if reason == "" {
		reason = defaultInjectedReason
	}

	var snapshot *agent.Agent
	ok := f.registry.mutate(id, func(a *agent.Agent) {
		if a.Status.IsTerminal() {
			return
		}
		f.fail(a, reason, f.now())
		snapshot = a.Clone()
	})
	if !ok || snapshot == nil {
		return false
	}

	f.publishAgent(ctx, events.SubjectAgentFailed, snapshot)
	return true
}

// Recover resets a failed agent to the first stage for a fresh production
// run. Returns false, with no state mutation, when the id is unknown or the
// agent is not in the error state. Derived attributes are cleared; the next
// run re-assigns them.
func (f *Factory) Recover(ctx context.Context, id string) bool {
	var snapshot *agent.Agent
	ok := f.registry.mutate(id, func(a *agent.Agent) {
		if a.Status != agent.StatusError {
			return
		}
		now := f.now()
		a.Status = f.plan.StatusFor(0)
		a.Stage = 0
		a.StageProgress = 0
		a.OverallProgress = 0
		a.Error = ""
		a.CompletedAt = nil
		a.Wallet = ""
		a.Tools = nil
		a.StartedAt = now
		a.StageEnteredAt = now
		snapshot = a.Clone()
	})
	if !ok || snapshot == nil {
		return false
	}

	f.publishAgent(ctx, events.SubjectAgentRecovered, snapshot)
	return true
}

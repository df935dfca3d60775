// Package stage defines the static, ordered production stage plan the
// pipeline advances agents through.
package stage

import (
	"errors"
	"fmt"
	"time"

	"github.com/Moeabdelaziz007/axiom-factory/internal/domain/agent"
)

var (
	ErrNoStages            = errors.New("plan must have at least one stage")
	ErrDuplicateStageID    = errors.New("stage ids must be unique")
	ErrNonPositiveDuration = errors.New("stage duration must be positive")
	ErrProvisionOutOfRange = errors.New("provision stage index out of range")
)

// Stage is one ordered phase of the pipeline.
type Stage struct {
	ID       string        `json:"id" yaml:"id"`
	Label    string        `json:"label" yaml:"label"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// HourlyThroughput returns the nominal number of agents this stage can pass
// per hour, derived from its duration.
func (s Stage) HourlyThroughput() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return float64(time.Hour) / float64(s.Duration)
}

// Plan is an immutable ordered sequence of stages. ProvisionIndex designates
// the stage whose first entry assigns an agent's wallet and tool loadout.
type Plan struct {
	Stages         []Stage `yaml:"stages"`
	ProvisionIndex int     `yaml:"provision_index"`
}

// Default returns the stock six-stage production plan.
func Default() Plan {
	return Plan{
		Stages: []Stage{
			{ID: "blueprint", Label: "Blueprint Compilation", Duration: 30 * time.Second},
			{ID: "provisioning", Label: "Model Provisioning", Duration: 60 * time.Second},
			{ID: "toolchain", Label: "Toolchain Integration", Duration: 45 * time.Second},
			{ID: "wallet", Label: "Wallet Provisioning", Duration: 20 * time.Second},
			{ID: "calibration", Label: "Behavior Calibration", Duration: 60 * time.Second},
			{ID: "inspection", Label: "Final Inspection", Duration: 25 * time.Second},
		},
		ProvisionIndex: 3,
	}
}

// Validate checks the plan for structural correctness.
func (p Plan) Validate() error {
	if len(p.Stages) == 0 {
		return ErrNoStages
	}
	seen := make(map[string]struct{}, len(p.Stages))
	for i, s := range p.Stages {
		if s.ID == "" {
			return fmt.Errorf("stage %d: id is required", i)
		}
		if _, dup := seen[s.ID]; dup {
			return fmt.Errorf("stage %d (%s): %w", i, s.ID, ErrDuplicateStageID)
		}
		seen[s.ID] = struct{}{}
		if s.Duration <= 0 {
			return fmt.Errorf("stage %d (%s): %w", i, s.ID, ErrNonPositiveDuration)
		}
	}
	if p.ProvisionIndex < 0 || p.ProvisionIndex >= len(p.Stages) {
		return ErrProvisionOutOfRange
	}
	return nil
}

// Len returns the number of stages.
func (p Plan) Len() int { return len(p.Stages) }

// StatusFor returns the agent status for the stage at index i.
func (p Plan) StatusFor(i int) agent.Status {
	return agent.Status(p.Stages[i].ID)
}

// IndexOf returns the stage index for an active status, or -1 if the status
// does not name a stage in this plan.
func (p Plan) IndexOf(s agent.Status) int {
	for i, st := range p.Stages {
		if agent.Status(st.ID) == s {
			return i
		}
	}
	return -1
}

// TotalDuration returns the nominal end-to-end production time.
func (p Plan) TotalDuration() time.Duration {
	var total time.Duration
	for _, s := range p.Stages {
		total += s.Duration
	}
	return total
}

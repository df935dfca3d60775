package stage

import (
	"errors"
	"testing"
	"time"

	"github.com/Moeabdelaziz007/axiom-factory/internal/domain/agent"
)

func TestDefaultPlanIsValid(t *testing.T) {
	p := Default()
	if err := p.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if p.Len() != 6 {
		t.Errorf("Default().Len() = %d, want 6", p.Len())
	}
	if p.Stages[p.ProvisionIndex].ID != "wallet" {
		t.Errorf("provision stage = %q, want wallet", p.Stages[p.ProvisionIndex].ID)
	}
}

func TestPlanValidate(t *testing.T) {
	valid := Stage{ID: "s1", Label: "Stage", Duration: time.Second}

	tests := []struct {
		name string
		plan Plan
		want error
	}{
		{"empty", Plan{}, ErrNoStages},
		{
			"duplicate id",
			Plan{Stages: []Stage{valid, valid}},
			ErrDuplicateStageID,
		},
		{
			"zero duration",
			Plan{Stages: []Stage{{ID: "s1", Label: "Stage"}}},
			ErrNonPositiveDuration,
		},
		{
			"provision index past end",
			Plan{Stages: []Stage{valid}, ProvisionIndex: 1},
			ErrProvisionOutOfRange,
		},
		{
			"negative provision index",
			Plan{Stages: []Stage{valid}, ProvisionIndex: -1},
			ErrProvisionOutOfRange,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.plan.Validate()
			if !errors.Is(err, tc.want) {
				t.Errorf("Validate() = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestStatusForAndIndexOf(t *testing.T) {
	p := Default()
	for i := range p.Stages {
		status := p.StatusFor(i)
		if got := p.IndexOf(status); got != i {
			t.Errorf("IndexOf(StatusFor(%d)) = %d", i, got)
		}
		if status.IsTerminal() {
			t.Errorf("stage status %q is terminal", status)
		}
	}
	if got := p.IndexOf(agent.StatusCompleted); got != -1 {
		t.Errorf("IndexOf(completed) = %d, want -1", got)
	}
}

func TestHourlyThroughput(t *testing.T) {
	s := Stage{ID: "s1", Duration: 30 * time.Second}
	if got := s.HourlyThroughput(); got != 120 {
		t.Errorf("HourlyThroughput() = %v, want 120", got)
	}
	if got := (Stage{ID: "s2"}).HourlyThroughput(); got != 0 {
		t.Errorf("zero-duration HourlyThroughput() = %v, want 0", got)
	}
}

func TestTotalDuration(t *testing.T) {
	p := Default()
	want := 240 * time.Second
	if got := p.TotalDuration(); got != want {
		t.Errorf("TotalDuration() = %v, want %v", got, want)
	}
}

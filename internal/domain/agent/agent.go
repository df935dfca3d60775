// Package agent defines the Agent domain entity produced by the factory pipeline.
package agent

import (
	"fmt"
	"time"

	"github.com/Moeabdelaziz007/axiom-factory/internal/domain"
)

// Type categorizes an agent and determines the tool loadout it receives
// when it reaches the provisioning stage.
type Type string

const (
	TypeTrader   Type = "trader"
	TypeAnalyst  Type = "analyst"
	TypeCreator  Type = "creator"
	TypeGuardian Type = "guardian"
	TypeScout    Type = "scout"
)

// AllTypes lists every recognized agent type in a stable order.
func AllTypes() []Type {
	return []Type{TypeTrader, TypeAnalyst, TypeCreator, TypeGuardian, TypeScout}
}

// ValidType reports whether t is a recognized agent type.
func ValidType(t Type) bool {
	switch t {
	case TypeTrader, TypeAnalyst, TypeCreator, TypeGuardian, TypeScout:
		return true
	}
	return false
}

// displayNames maps each type to the cosmetic name prefix used at creation.
var displayNames = map[Type]string{
	TypeTrader:   "Axiom Trader",
	TypeAnalyst:  "Axiom Analyst",
	TypeCreator:  "Axiom Creator",
	TypeGuardian: "Axiom Guardian",
	TypeScout:    "Axiom Scout",
}

// toolLoadouts maps each type to the tools assigned at the provisioning stage.
var toolLoadouts = map[Type][]string{
	TypeTrader:   {"dex-swap", "price-oracle", "portfolio-tracker", "risk-limits"},
	TypeAnalyst:  {"market-data", "chart-generator", "sentiment-feed"},
	TypeCreator:  {"content-drafter", "image-synth", "scheduler"},
	TypeGuardian: {"anomaly-watch", "policy-check", "alert-dispatch"},
	TypeScout:    {"chain-indexer", "mempool-watch"},
}

// DisplayName returns the cosmetic name for an agent of type t with the
// given short suffix.
func DisplayName(t Type, suffix string) string {
	return fmt.Sprintf("%s %s", displayNames[t], suffix)
}

// Loadout returns a copy of the tool list assigned to type t.
func Loadout(t Type) []string {
	tools := toolLoadouts[t]
	out := make([]string, len(tools))
	copy(out, tools)
	return out
}

// Status represents the current pipeline state of an agent. Active agents
// carry the id of the stage they occupy; the two terminal states are fixed.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// IsTerminal reports whether s is a terminal state. Terminal agents receive
// no further progress ticks until an explicit recovery.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Agent represents one simulated unit of work progressing through the
// production pipeline.
type Agent struct {
	ID              string     `json:"id"`
	DisplayName     string     `json:"display_name"`
	Type            Type       `json:"type"`
	Status          Status     `json:"status"`
	Stage           int        `json:"stage"`
	OverallProgress float64    `json:"overall_progress"`
	StageProgress   float64    `json:"stage_progress"`
	Wallet          string     `json:"wallet,omitempty"`
	Tools           []string   `json:"tools,omitempty"`
	Error           string     `json:"error,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	StartedAt       time.Time  `json:"started_at"`
	StageEnteredAt  time.Time  `json:"stage_entered_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

// Clone returns a deep copy so callers never alias registry memory.
func (a *Agent) Clone() *Agent {
	out := *a
	if a.Tools != nil {
		out.Tools = make([]string, len(a.Tools))
		copy(out.Tools, a.Tools)
	}
	if a.CompletedAt != nil {
		t := *a.CompletedAt
		out.CompletedAt = &t
	}
	return &out
}

// CreateRequest holds the caller input for creating a new agent.
type CreateRequest struct {
	Type Type `json:"type"`
}

// Validate checks the request. An unknown type is the one caller error the
// factory surfaces as an error value rather than a boolean outcome.
func (r CreateRequest) Validate() error {
	if !ValidType(r.Type) {
		return fmt.Errorf("%w: unknown agent type %q", domain.ErrValidation, r.Type)
	}
	return nil
}

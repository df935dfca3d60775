// Package metrics defines the derived factory metrics types. Snapshots are
// recomputed from the live registry plus lifetime counters on every query and
// are never a source of truth themselves.
package metrics

import "time"

// Snapshot is a point-in-time view of factory throughput and health.
type Snapshot struct {
	ActiveCount              int       `json:"active_count"`
	CompletedCount           int       `json:"completed_count"`
	FailedCount              int       `json:"failed_count"`
	AverageProductionSeconds float64   `json:"average_production_seconds"`
	CurrentProductionRate    int       `json:"current_production_rate"`
	Efficiency               float64   `json:"efficiency"`
	TotalToolCount           int       `json:"total_tool_count"`
	LifetimeCreated          int64     `json:"lifetime_created"`
	LifetimeWalletsAllocated int64     `json:"lifetime_wallets_allocated"`
	GeneratedAt              time.Time `json:"generated_at"`
}

// StageStatus is one assembly-line row: live occupancy and wait statistics
// for a single pipeline stage.
type StageStatus struct {
	StageID            string  `json:"stage_id"`
	Label              string  `json:"label"`
	Occupancy          int     `json:"occupancy"`
	AverageWaitSeconds float64 `json:"average_wait_seconds"`
	HourlyThroughput   float64 `json:"hourly_throughput"`
	Efficiency         float64 `json:"efficiency"`
}

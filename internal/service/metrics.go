package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/Moeabdelaziz007/axiom-factory/internal/domain/agent"
	"github.com/Moeabdelaziz007/axiom-factory/internal/domain/metrics"
	"github.com/Moeabdelaziz007/axiom-factory/internal/port/persistence"
)

// productionRateWindow is the trailing window for the completion rate.
const productionRateWindow = time.Hour

// Metrics derives a fresh snapshot from the live registry and the persisted
// lifetime counters, then writes the snapshot back through the store for
// cross-session continuity. The write-back is best effort and never fails
// the read path.
func (f *Factory) Metrics(ctx context.Context) metrics.Snapshot {
	now := f.now()
	agents := f.registry.List()

	snap := metrics.Snapshot{GeneratedAt: now}

	var totalProduction time.Duration
	for _, a := range agents {
		snap.TotalToolCount += len(a.Tools)
		switch a.Status {
		case agent.StatusCompleted:
			snap.CompletedCount++
			if a.CompletedAt != nil {
				totalProduction += a.CompletedAt.Sub(a.StartedAt)
				if now.Sub(*a.CompletedAt) <= productionRateWindow {
					snap.CurrentProductionRate++
				}
			}
		case agent.StatusError:
			snap.FailedCount++
		default:
			snap.ActiveCount++
		}
	}

	if snap.CompletedCount > 0 {
		snap.AverageProductionSeconds = totalProduction.Seconds() / float64(snap.CompletedCount)
	}

	// 100% until the first terminal outcome exists.
	terminal := snap.CompletedCount + snap.FailedCount
	if terminal == 0 {
		snap.Efficiency = 100
	} else {
		snap.Efficiency = float64(snap.CompletedCount) / float64(terminal) * 100
	}

	snap.LifetimeCreated = f.lifetimeCounter(ctx, persistence.KeyLifetimeCreated, f.sessionCreated.Load())
	snap.LifetimeWalletsAllocated = f.lifetimeCounter(ctx, persistence.KeyLifetimeWallets, f.sessionWallets.Load())

	f.persistSnapshot(ctx, snap)
	return snap
}

// lifetimeCounter reads a persisted counter, falling back to the in-memory
// session count when the store cannot serve it.
func (f *Factory) lifetimeCounter(ctx context.Context, key string, session int64) int64 {
	raw, ok, err := f.store.Get(ctx, key)
	if err != nil {
		slog.Warn("persistence get failed", "key", key, "error", err)
		return session
	}
	if !ok {
		return session
	}
	n, perr := strconv.ParseInt(raw, 10, 64)
	if perr != nil {
		slog.Warn("persisted counter malformed", "key", key, "value", raw)
		return session
	}
	return n
}

// persistSnapshot writes the snapshot and its timestamp through the store.
func (f *Factory) persistSnapshot(ctx context.Context, snap metrics.Snapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		slog.Error("marshal metrics snapshot", "error", err)
		return
	}
	if err := f.store.Set(ctx, persistence.KeySnapshot, string(data)); err != nil {
		slog.Warn("persistence set failed", "key", persistence.KeySnapshot, "error", err)
		return
	}
	if err := f.store.Set(ctx, persistence.KeyUpdatedAt, snap.GeneratedAt.UTC().Format(time.RFC3339)); err != nil {
		slog.Warn("persistence set failed", "key", persistence.KeyUpdatedAt, "error", err)
	}
}

// AssemblyLineStatus returns live per-stage occupancy and wait statistics.
func (f *Factory) AssemblyLineStatus() []metrics.StageStatus {
	now := f.now()
	agents := f.registry.List()

	rows := make([]metrics.StageStatus, f.plan.Len())
	waits := make([]time.Duration, f.plan.Len())
	for i, st := range f.plan.Stages {
		rows[i] = metrics.StageStatus{
			StageID:          st.ID,
			Label:            st.Label,
			HourlyThroughput: st.HourlyThroughput(),
		}
	}

	for _, a := range agents {
		if a.Status.IsTerminal() {
			continue
		}
		rows[a.Stage].Occupancy++
		waits[a.Stage] += now.Sub(a.StageEnteredAt)
	}

	for i, st := range f.plan.Stages {
		if rows[i].Occupancy == 0 {
			rows[i].Efficiency = 100
			continue
		}
		avg := waits[i] / time.Duration(rows[i].Occupancy)
		rows[i].AverageWaitSeconds = avg.Seconds()
		// Dwell at or under the nominal duration counts as fully efficient.
		eff := float64(st.Duration) / float64(avg) * 100
		if eff > 100 {
			eff = 100
		}
		rows[i].Efficiency = eff
	}

	return rows
}

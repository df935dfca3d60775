// Package persistence defines the durable key/value store port used for
// lifetime counters and metrics snapshots. All factory state besides these
// keys lives in memory; persistence is strictly best effort and every call
// site tolerates failure.
package persistence

import "context"

// Namespace prefixes every key the factory persists.
const Namespace = "axiom:factory:"

// Logical keys persisted by the factory.
const (
	KeyLifetimeCreated = Namespace + "lifetime_created"
	KeyLifetimeWallets = Namespace + "lifetime_wallets"
	KeySnapshot        = Namespace + "last_snapshot"
	KeyUpdatedAt       = Namespace + "updated_at"
)

// AllKeys lists every key the factory owns, in a stable order.
func AllKeys() []string {
	return []string{KeyLifetimeCreated, KeyLifetimeWallets, KeySnapshot, KeyUpdatedAt}
}

// Store is the port interface for durable key/value state.
type Store interface {
	// Get returns the value for key and whether it exists.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores value under key, overwriting any previous value.
	Set(ctx context.Context, key, value string) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
}

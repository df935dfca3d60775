// Package tiered implements the persistence port with a ristretto L1 read
// cache in front of a durable L2 store. Counter reads on the metrics path hit
// the cache; writes go through to L2 and update L1.
package tiered

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/Moeabdelaziz007/axiom-factory/internal/port/persistence"
)

// l1TTL bounds staleness for entries that were backfilled from L2.
const l1TTL = 5 * time.Minute

// Store combines an in-process ristretto cache with a durable backing store.
type Store struct {
	cache *ristretto.Cache[string, string]
	l2    persistence.Store
}

// New creates a tiered store over l2. maxCostBytes is the maximum total size
// of cached values in bytes.
func New(l2 persistence.Store, maxCostBytes int64) (*Store, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[string, string]{
		NumCounters: maxCostBytes / 100 * 10, // ~10x expected items
		MaxCost:     maxCostBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Store{cache: cache, l2: l2}, nil
}

// Get checks L1, then L2. On L2 hit, backfills L1.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	if v, found := s.cache.Get(key); found {
		return v, true, nil
	}

	v, found, err := s.l2.Get(ctx, key)
	if err != nil {
		return "", false, err
	}
	if found {
		s.cache.SetWithTTL(key, v, int64(len(v)), l1TTL)
		return v, true, nil
	}
	return "", false, nil
}

// Set writes through to L2 and updates L1.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.l2.Set(ctx, key, value); err != nil {
		return err
	}
	s.cache.SetWithTTL(key, value, int64(len(value)), l1TTL)
	// Make the write visible to immediate readers.
	s.cache.Wait()
	return nil
}

// Remove deletes from both levels.
func (s *Store) Remove(ctx context.Context, key string) error {
	s.cache.Del(key)
	return s.l2.Remove(ctx, key)
}

// Close releases cache resources.
func (s *Store) Close() {
	s.cache.Close()
}

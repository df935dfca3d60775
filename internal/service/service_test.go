package service

import (
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/Moeabdelaziz007/axiom-factory/internal/adapter/memstore"
	"github.com/Moeabdelaziz007/axiom-factory/internal/domain/stage"
)

// stubSigner derives predictable addresses without touching real key material.
type stubSigner struct {
	mu    sync.Mutex
	calls []string
	fail  bool
}

func (s *stubSigner) DeriveAddress(path string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return "", errDerive
	}
	s.calls = append(s.calls, path)
	return "0xstub-" + path, nil
}

func (s *stubSigner) SignPayload(path string, payload []byte) ([]byte, error) {
	return []byte("sig"), nil
}

var errDerive = &deriveError{}

type deriveError struct{}

func (*deriveError) Error() string { return "derivation unavailable" }

// fakeClock is a settable time source for single-stepping the pipeline.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testFactory struct {
	*Factory
	store  *memstore.Store
	signer *stubSigner
	clock  *fakeClock
}

// newTestFactory builds a factory with a seeded rng, a fake clock, an
// in-memory store, and simulated failures disabled unless an option says
// otherwise.
func newTestFactory(t *testing.T, opts ...Option) *testFactory {
	t.Helper()

	store := memstore.New()
	signer := &stubSigner{}
	clock := newFakeClock()

	base := []Option{
		WithClock(clock.Now),
		WithRand(rand.New(rand.NewPCG(1, 2))),
		WithFailureRate(0),
	}
	f, err := NewFactory(stage.Default(), store, signer, append(base, opts...)...)
	if err != nil {
		t.Fatalf("NewFactory: %v", err)
	}
	return &testFactory{Factory: f, store: store, signer: signer, clock: clock}
}

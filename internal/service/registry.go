package service

import (
	"sync"
	"time"

	"github.com/Moeabdelaziz007/axiom-factory/internal/domain/agent"
)

// Registry holds all live agent entities keyed by id. The pipeline tick is
// the single logical writer for entity state; creation and admin operations
// are atomic point mutations under the same lock, so readers always observe a
// fully settled view.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]*agent.Agent
	order  []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{agents: make(map[string]*agent.Agent)}
}

// Insert adds a new agent. Returns false if the id already exists.
func (r *Registry) Insert(a *agent.Agent) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.agents[a.ID]; exists {
		return false
	}
	r.agents[a.ID] = a
	r.order = append(r.order, a.ID)
	return true
}

// Get returns a snapshot of the agent with the given id.
func (r *Registry) Get(id string) (*agent.Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.agents[id]
	if !ok {
		return nil, false
	}
	return a.Clone(), true
}

// List returns snapshots of all agents in creation order.
func (r *Registry) List() []*agent.Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*agent.Agent, 0, len(r.agents))
	for _, id := range r.order {
		out = append(out, r.agents[id].Clone())
	}
	return out
}

// Len returns the number of live agents.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.agents)
}

// Clear removes every agent.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents = make(map[string]*agent.Agent)
	r.order = nil
}

// mutate runs fn under the write lock against the live entity. Returns false
// if the id is unknown.
func (r *Registry) mutate(id string, fn func(*agent.Agent)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.agents[id]
	if !ok {
		return false
	}
	fn(a)
	return true
}

// withLock runs fn while holding the write lock, giving the pipeline tick
// exclusive access to the full live set for one atomic pass.
func (r *Registry) withLock(fn func(map[string]*agent.Agent)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r.agents)
}

// removeLocked deletes id from the live set. Callers must hold the write lock
// (used from within withLock).
func (r *Registry) removeLocked(id string) {
	delete(r.agents, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// reap removes terminal agents whose completion is older than retention.
// Returns the number removed.
func (r *Registry) reap(now time.Time, retention time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed int
	for id, a := range r.agents {
		if a.Status.IsTerminal() && a.CompletedAt != nil && now.Sub(*a.CompletedAt) > retention {
			r.removeLocked(id)
			removed++
		}
	}
	return removed
}

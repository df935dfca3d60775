package http

import (
	"net/http"

	"github.com/Moeabdelaziz007/axiom-factory/internal/domain/agent"
	"github.com/Moeabdelaziz007/axiom-factory/internal/service"
)

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	Factory   *service.Factory
	Scheduler *service.Scheduler
}

// okResponse reports the boolean outcome of an admin operation.
type okResponse struct {
	OK bool `json:"ok"`
}

// CreateAgent handles POST /api/v1/agents.
func (h *Handlers) CreateAgent(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[agent.CreateRequest](w, r)
	if !ok {
		return
	}

	a, err := h.Factory.CreateAgent(r.Context(), req.Type)
	if err != nil {
		writeDomainError(w, err, "create agent")
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// GetAgent handles GET /api/v1/agents/{id}.
func (h *Handlers) GetAgent(w http.ResponseWriter, r *http.Request) {
	a, ok := h.Factory.GetAgent(urlParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "agent not found")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// ListAgents handles GET /api/v1/agents.
func (h *Handlers) ListAgents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Factory.ListAgents())
}

// AssemblyLine handles GET /api/v1/assembly-line.
func (h *Handlers) AssemblyLine(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Factory.AssemblyLineStatus())
}

// Metrics handles GET /api/v1/metrics.
func (h *Handlers) Metrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Factory.Metrics(r.Context()))
}

// failRequest is the optional body for failure injection.
type failRequest struct {
	Reason string `json:"reason"`
}

// InjectFailure handles POST /api/v1/agents/{id}/fail. A false outcome means
// the agent is unknown or already terminal.
func (h *Handlers) InjectFailure(w http.ResponseWriter, r *http.Request) {
	var req failRequest
	if r.ContentLength > 0 {
		var ok bool
		if req, ok = readJSON[failRequest](w, r); !ok {
			return
		}
	}

	ok := h.Factory.InjectFailure(r.Context(), urlParam(r, "id"), req.Reason)
	writeJSON(w, http.StatusOK, okResponse{OK: ok})
}

// RecoverAgent handles POST /api/v1/agents/{id}/recover. A false outcome
// means the agent is unknown or not in the error state.
func (h *Handlers) RecoverAgent(w http.ResponseWriter, r *http.Request) {
	ok := h.Factory.Recover(r.Context(), urlParam(r, "id"))
	writeJSON(w, http.StatusOK, okResponse{OK: ok})
}

// ResetFactory handles POST /api/v1/factory/reset.
func (h *Handlers) ResetFactory(w http.ResponseWriter, r *http.Request) {
	h.Scheduler.ResetFactory(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// StartSimulation handles POST /api/v1/factory/start.
func (h *Handlers) StartSimulation(w http.ResponseWriter, _ *http.Request) {
	h.Scheduler.Start()
	w.WriteHeader(http.StatusNoContent)
}

// StopSimulation handles POST /api/v1/factory/stop.
func (h *Handlers) StopSimulation(w http.ResponseWriter, _ *http.Request) {
	h.Scheduler.Stop()
	w.WriteHeader(http.StatusNoContent)
}

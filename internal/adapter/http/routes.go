package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Route("/api/v1", func(r chi.Router) {
		// Version
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version":"0.1.0"}`))
		})

		// Agents
		r.Post("/agents", h.CreateAgent)
		r.Get("/agents", h.ListAgents)
		r.Get("/agents/{id}", h.GetAgent)
		r.Post("/agents/{id}/fail", h.InjectFailure)
		r.Post("/agents/{id}/recover", h.RecoverAgent)

		// Factory status
		r.Get("/assembly-line", h.AssemblyLine)
		r.Get("/metrics", h.Metrics)

		// Simulation control
		r.Post("/factory/reset", h.ResetFactory)
		r.Post("/factory/start", h.StartSimulation)
		r.Post("/factory/stop", h.StopSimulation)
	})
}

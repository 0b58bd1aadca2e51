package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the health endpoints and all /api/v1 routes on r.
// idempotency, when non-nil, wraps every POST route.
func MountRoutes(r chi.Router, h *Handlers, idempotency func(http.Handler) http.Handler) {
	r.Get("/health", h.Health)
	r.Get("/health/ready", h.Ready)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"version": Version})
		})

		r.Group(func(r chi.Router) {
			if idempotency != nil {
				r.Use(idempotency)
			}
			r.Post("/orchestrate", h.Orchestrate)
			r.Post("/swarm/runs", h.StartSwarmRun)
		})

		// Swarm run history
		r.Get("/swarm/runs/{id}", handleGet(h.Swarm.GetRun, "swarm run not found"))
		r.Get("/swarm/runs/{id}/steps", handleListByID(h.Swarm.ListSteps, "swarm run not found"))
		r.Get("/swarm/runs/{id}/messages", handleListByID(h.Swarm.ListMessages, "swarm run not found"))
		r.Get("/swarm/runs/{id}/handoffs", handleListByID(h.Swarm.ListHandoffs, "swarm run not found"))
		r.Get("/swarm/runs/{id}/snapshot", handleGet(h.Swarm.Snapshot, "swarm run not found"))

		// Registry and audit trail
		r.Get("/agents", h.ListAgents)
		r.Get("/audit", h.ListAudit)

		// Websockets
		if h.Discussions != nil {
			r.Get("/discussions/ws", h.Discussions.ServeHTTP)
		}
		if h.Events != nil {
			r.Get("/ws", h.Events.ServeHTTP)
		}
	})
}

package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers, handleWS http.HandlerFunc) {
	r.Get("/health", h.Health)
	r.Get("/ws", handleWS)

	r.Route("/api/v1", func(r chi.Router) {
		// Version
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version":"0.1.0"}`))
		})

		// Orchestrations
		r.Post("/orchestrations", h.CreateOrchestration)
		r.Get("/orchestrations", h.ListOrchestrations)
		r.Get("/orchestrations/{id}", h.GetOrchestration)
		r.Post("/orchestrations/{id}/resume", h.ResumeOrchestration)
		r.Post("/orchestrations/{id}/cancel", h.CancelOrchestration)
		r.Get("/orchestrations/{id}/messages", h.ListOrchestrationMessages)
		r.Get("/orchestrations/{id}/subtasks", h.ListOrchestrationSubtasks)
	})
}

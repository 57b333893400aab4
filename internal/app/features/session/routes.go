// internal/app/features/session/routes.go
package session

import "github.com/go-chi/chi/v5"

// MountRoutes registers the session endpoints on the supplied router.
func MountRoutes(r chi.Router, h *Handler) {
	r.Post("/session", h.Create)
	r.Delete("/session", h.Destroy)
}

// internal/app/features/health/routes.go
package health

import "github.com/go-chi/chi/v5"

// Routes builds the subrouter mounted at /health: a single GET
// reporting process liveness and MongoDB reachability.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Status)
	return r
}

package health

import "github.com/go-chi/chi/v5"

// Routes serves readiness at the mount root and liveness at /live. Both
// answer HEAD for load balancers that check status without a body.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Serve)
	r.Head("/", h.Serve)
	r.Get("/live", h.ServeLive)
	r.Head("/live", h.ServeLive)
	return r
}

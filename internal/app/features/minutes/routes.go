// internal/app/features/minutes/routes.go
package minutes

import "github.com/go-chi/chi/v5"

// Routes returns the router mounted at /api/assemblies/{id}/minutes.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeMinutes)
	r.Post("/", h.HandleGenerate)
	r.Put("/", h.HandleUpdate)

	r.Post("/submit", h.HandleSubmit)
	r.Post("/approve", h.HandleApprove)
	r.Post("/publish", h.HandlePublish)

	return r
}

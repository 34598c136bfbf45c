// internal/app/features/assemblies/routes.go
package assemblies

import "github.com/go-chi/chi/v5"

// Routes returns the router mounted at /api/assemblies. Callers must be
// signed-in operators; tenant checks happen per assembly.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)

	r.Route("/{id}", func(ar chi.Router) {
		ar.Get("/", h.ServeAssembly)
		ar.Put("/", h.HandleUpdate)
		ar.Delete("/", h.HandleDelete)

		ar.Post("/start", h.HandleStart)
		ar.Post("/finish", h.HandleFinish)
		ar.Post("/cancel", h.HandleCancel)

		ar.Post("/checkin-token", h.HandleCheckinToken)
		ar.Post("/otp", h.HandleGenerateOTP)
		ar.Get("/otp", h.ServeOTP)

		ar.Get("/events", h.ServeEvents)
	})

	return r
}

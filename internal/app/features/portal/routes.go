// internal/app/features/portal/routes.go
package portal

import "github.com/go-chi/chi/v5"

// CheckinRoutes returns the router mounted at /public/checkin.
func CheckinRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/{token}", h.ServeToken)
	r.Post("/{token}", h.HandleCheckin)
	r.Post("/{token}/checkout", h.HandleCheckout)
	r.Post("/{token}/otp/validate", h.HandleValidateOTP)

	return r
}

// SessionRoutes returns the router mounted at /public/session.
func SessionRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Route("/{sessionToken}", func(sr chi.Router) {
		sr.Get("/", h.ServeSession)
		sr.Get("/agenda", h.ServeAgenda)
		sr.Get("/votes", h.ServeVotes)
		sr.Get("/items/{itemID}", h.ServeItem)
		sr.Post("/items/{itemID}/vote", h.HandleVote)
	})

	return r
}

// internal/app/features/agenda/routes.go
package agenda

import "github.com/go-chi/chi/v5"

// ItemRoutes returns the router mounted at /api/assemblies/{id}/items.
func ItemRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)

	r.Route("/{itemID}", func(ir chi.Router) {
		ir.Get("/", h.ServeItem)
		ir.Put("/", h.HandleUpdate)
		ir.Delete("/", h.HandleDelete)

		ir.Post("/start-voting", h.HandleStartVoting)
		ir.Post("/close-voting", h.HandleCloseVoting)
		ir.Get("/result", h.ServeResult)

		ir.Post("/otp", h.HandleGenerateOTP)
		ir.Get("/otp", h.ServeOTP)
	})

	return r
}

// VoteRoutes returns the router mounted at /api/items.
func VoteRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/{itemID}/votes", h.HandleCastVote)
	r.Get("/{itemID}/votes", h.ServeSummary)
	r.Get("/{itemID}/votes/{participantID}", h.ServeCheckVoted)

	return r
}

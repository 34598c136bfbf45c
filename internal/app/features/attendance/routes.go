// internal/app/features/attendance/routes.go
package attendance

import "github.com/go-chi/chi/v5"

// AttendanceRoutes returns the router mounted at /api/assemblies/{id}/attendance.
func AttendanceRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeStatus)
	return r
}

// ParticipantRoutes returns the router mounted at /api/assemblies/{id}/participants.
func ParticipantRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeList)
	r.Post("/", h.HandleRegister)
	r.Get("/present", h.ServePresent)

	r.Route("/{participantID}", func(pr chi.Router) {
		pr.Put("/weight", h.HandleWeight)
		pr.Post("/approve", h.HandleApprove)
		pr.Post("/reject", h.HandleReject)
		pr.Delete("/", h.HandleRemove)
	})

	return r
}

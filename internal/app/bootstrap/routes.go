// internal/app/bootstrap/routes.go
package bootstrap

import (
	"errors"
	"net/http"

	agendafeature "github.com/condovote/assemblyhub/internal/app/features/agenda"
	announcementsfeature "github.com/condovote/assemblyhub/internal/app/features/announcements"
	assembliesfeature "github.com/condovote/assemblyhub/internal/app/features/assemblies"
	attendancefeature "github.com/condovote/assemblyhub/internal/app/features/attendance"
	auditlogfeature "github.com/condovote/assemblyhub/internal/app/features/auditlog"
	errorsfeature "github.com/condovote/assemblyhub/internal/app/features/errors"
	healthfeature "github.com/condovote/assemblyhub/internal/app/features/health"
	minutesfeature "github.com/condovote/assemblyhub/internal/app/features/minutes"
	portalfeature "github.com/condovote/assemblyhub/internal/app/features/portal"
	announcementstore "github.com/condovote/assemblyhub/internal/app/store/announcements"
	"github.com/condovote/assemblyhub/internal/app/system/auditlog"
	"github.com/condovote/assemblyhub/internal/app/system/auth"
	"github.com/condovote/assemblyhub/internal/app/system/authz"
	"github.com/condovote/assemblyhub/internal/app/system/metrics"
	"github.com/condovote/assemblyhub/internal/app/system/requestid"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// Startup have completed. AssemblyHub serves three surfaces:
//   - /api: operator endpoints behind a bearer token and an operator role
//   - /public: participant check-in and the voting portal, gated by
//     check-in links, session tokens and one-time codes
//   - /health and /metrics for orchestrators and scrapers
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	rt := deps.Runtime
	if rt == nil || rt.Service == nil {
		return nil, errors.New("build handler: startup did not run")
	}

	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(rt.Metrics.Middleware)
	r.Use(auditlog.Middleware)

	errorsHandler := errorsfeature.NewHandler(logger)
	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	if appCfg.MetricsEnabled {
		r.Handle("/metrics", metrics.Handler(rt.Registry))
	}

	// Participant surface. No operator identity; throttled per address.
	portalHandler := portalfeature.NewHandler(rt.Service, rt.Limiter, logger)
	r.Mount("/public/checkin", portalfeature.CheckinRoutes(portalHandler))
	r.Mount("/public/session", portalfeature.SessionRoutes(portalHandler))

	// Operator surface. Tenant checks happen per resource in the features.
	r.Route("/api", func(api chi.Router) {
		api.Use(rt.Verifier.LoadUser)
		api.Use(auth.RequireRole(authz.OperatorRoles...))
		api.Use(auditlog.ActorMiddleware)

		assembliesHandler := assembliesfeature.NewHandler(rt.Service, rt.Audit, logger)
		api.Mount("/assemblies", assembliesfeature.Routes(assembliesHandler))

		agendaHandler := agendafeature.NewHandler(rt.Service, logger)
		api.Mount("/assemblies/{id}/items", agendafeature.ItemRoutes(agendaHandler))
		api.Mount("/items", agendafeature.VoteRoutes(agendaHandler))

		attendanceHandler := attendancefeature.NewHandler(rt.Service, logger)
		api.Mount("/assemblies/{id}/participants", attendancefeature.ParticipantRoutes(attendanceHandler))
		api.Mount("/assemblies/{id}/attendance", attendancefeature.AttendanceRoutes(attendanceHandler))

		minutesHandler := minutesfeature.NewHandler(rt.Service, logger)
		api.Mount("/assemblies/{id}/minutes", minutesfeature.Routes(minutesHandler))

		announcementsHandler := announcementsfeature.NewHandler(announcementstore.New(deps.MongoDatabase), logger)
		api.Mount("/announcements", announcementsfeature.Routes(announcementsHandler))

		auditHandler := auditlogfeature.NewHandler(rt.Audit, logger)
		api.Mount("/audit", auditlogfeature.Routes(auditHandler))
	})

	return r, nil
}

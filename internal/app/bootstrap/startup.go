// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"time"

	"github.com/condovote/assemblyhub/internal/app/governance"
	agendaitemstore "github.com/condovote/assemblyhub/internal/app/store/agendaitems"
	"github.com/condovote/assemblyhub/internal/app/store/announcements"
	assemblystore "github.com/condovote/assemblyhub/internal/app/store/assemblies"
	"github.com/condovote/assemblyhub/internal/app/store/audit"
	directorystore "github.com/condovote/assemblyhub/internal/app/store/directory"
	"github.com/condovote/assemblyhub/internal/app/system/auditlog"
	"github.com/condovote/assemblyhub/internal/app/system/auth"
	"github.com/condovote/assemblyhub/internal/app/system/metrics"
	"github.com/condovote/assemblyhub/internal/app/system/ratelimit"
	"github.com/condovote/assemblyhub/internal/app/system/timeouts"
	"github.com/condovote/assemblyhub/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// Runtime is the set of long-lived collaborators built once at startup.
type Runtime struct {
	Service  *governance.Service
	Audit    *audit.Store
	Verifier *auth.Verifier
	Limiter  *ratelimit.OTPLimiter
	Cleanup  *workers.OTPCleanup
	Metrics  *metrics.Metrics
	Registry *prometheus.Registry
}

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It wires
// the governance engine and the request-path collaborators into deps.Runtime.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.Runtime == nil {
		return errors.New("startup: runtime not allocated")
	}

	timeouts.Configure(timeouts.Config{
		Short:  appCfg.TimeoutShort,
		Medium: appCfg.TimeoutMedium,
		Long:   appCfg.TimeoutLong,
	})

	loc, err := time.LoadLocation(appCfg.MinutesTimeZone)
	if err != nil {
		return err
	}

	verifier, err := auth.NewVerifier(appCfg.JWTSecret, logger)
	if err != nil {
		logger.Error("token verifier init failed", zap.Error(err))
		return err
	}

	db := deps.MongoDatabase
	auditStore := audit.New(db)
	auditLogger := auditlog.New(auditStore, logger, auditlog.Config{
		Governance: appCfg.AuditLogGovernance,
		Attendance: appCfg.AuditLogAttendance,
	})

	m := metrics.New()
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		metrics.NewStoreCollector(db, timeouts.Medium()),
	)
	m.Register(registry)

	svc := governance.New(governance.Deps{
		DB:        db,
		Directory: directorystore.New(db),
		Announcer: announcements.New(db),
		Audit:     auditLogger,
		Metrics:   m,
		Log:       logger,
	}, governance.Config{
		CheckinOTPTTL:    appCfg.CheckinOTPTTL,
		VotingOTPTTL:     appCfg.VotingOTPTTL,
		MinutesLocation:  loc,
		AnnounceOnCreate: appCfg.AnnounceOnCreate,
	})

	*deps.Runtime = Runtime{
		Service:  svc,
		Audit:    auditStore,
		Verifier: verifier,
		Limiter:  ratelimit.NewOTPLimiter(appCfg.OTPAttemptsPerMinute),
		Metrics:  m,
		Registry: registry,
	}
	if appCfg.OTPCleanupInterval > 0 {
		deps.Runtime.Cleanup = workers.NewOTPCleanup(assemblystore.New(db), agendaitemstore.New(db), logger, appCfg.OTPCleanupInterval)
		deps.Runtime.Cleanup.Start()
	}
	logger.Info("governance engine ready",
		zap.Duration("checkin_otp_ttl", appCfg.CheckinOTPTTL),
		zap.Duration("voting_otp_ttl", appCfg.VotingOTPTTL),
		zap.String("minutes_time_zone", loc.String()))
	return nil
}

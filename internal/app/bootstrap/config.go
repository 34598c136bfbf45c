// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/condovote/assemblyhub/internal/app/system/otp"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// minJWTSecretLen is the shortest accepted HS256 signing secret.
const minJWTSecretLen = 32

// appConfigKeys defines the configuration keys for AssemblyHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, jwt_secret, etc.
//   - Environment variables: ASSEMBLYHUB_MONGO_URI, ASSEMBLYHUB_JWT_SECRET, etc.
//   - Command-line flags: --mongo_uri, --jwt_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "assembly_hub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	{Name: "jwt_secret", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "HS256 secret for operator bearer tokens (must be strong in production)"},

	// One-time codes
	{Name: "checkin_otp_ttl", Default: "10m", Desc: "Lifetime of the check-in code (e.g., 10m)"},
	{Name: "voting_otp_ttl", Default: "5m", Desc: "Lifetime of an item's voting code (e.g., 5m)"},
	{Name: "otp_attempts_per_minute", Default: 10, Desc: "Code attempts allowed per client address per minute"},
	{Name: "otp_cleanup_interval", Default: "1m", Desc: "How often expired codes are removed (0 disables the worker)"},

	// Minutes
	{Name: "minutes_time_zone", Default: "America/Sao_Paulo", Desc: "IANA time zone for dates in the minutes"},

	// Audit logging settings
	{Name: "audit_log_governance", Default: "all", Desc: "Operator event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_attendance", Default: "all", Desc: "Check-in event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	{Name: "announce_on_create", Default: true, Desc: "Announce newly scheduled assemblies to residents"},
	{Name: "metrics_enabled", Default: true, Desc: "Serve Prometheus metrics at /metrics"},

	// Store timeouts
	{Name: "timeout_short", Default: "5s", Desc: "Timeout for single-document store operations"},
	{Name: "timeout_medium", Default: "10s", Desc: "Timeout for list and count store operations"},
	{Name: "timeout_long", Default: "30s", Desc: "Timeout for minutes generation and schema setup"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, ASSEMBLYHUB_* for app) and
// flags, merged with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "ASSEMBLYHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		JWTSecret: appValues.String("jwt_secret"),

		CheckinOTPTTL:        appValues.Duration("checkin_otp_ttl", otp.DefaultCheckinTTL),
		VotingOTPTTL:         appValues.Duration("voting_otp_ttl", otp.DefaultVotingTTL),
		OTPAttemptsPerMinute: appValues.Int("otp_attempts_per_minute"),
		OTPCleanupInterval:   appValues.Duration("otp_cleanup_interval", time.Minute),

		MinutesTimeZone: appValues.String("minutes_time_zone"),

		AuditLogGovernance: appValues.String("audit_log_governance"),
		AuditLogAttendance: appValues.String("audit_log_attendance"),

		AnnounceOnCreate: appValues.Bool("announce_on_create"),
		MetricsEnabled:   appValues.Bool("metrics_enabled"),

		TimeoutShort:  appValues.Duration("timeout_short", 5*time.Second),
		TimeoutMedium: appValues.Duration("timeout_medium", 10*time.Second),
		TimeoutLong:   appValues.Duration("timeout_long", 30*time.Second),
	}

	return coreCfg, appCfg, nil
}

var auditModes = map[string]bool{"all": true, "db": true, "log": true, "off": true}

// ValidateConfig performs app-specific config validation.
//
// AssemblyHub validates the MongoDB URI, the signing secret, the code
// lifetimes and the minutes time zone before attempting to connect.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.MongoDatabase == "" {
		return fmt.Errorf("mongo_database must not be empty")
	}
	if len(appCfg.JWTSecret) < minJWTSecretLen {
		return fmt.Errorf("jwt_secret must be at least %d characters", minJWTSecretLen)
	}
	if appCfg.CheckinOTPTTL <= 0 || appCfg.VotingOTPTTL <= 0 {
		return fmt.Errorf("checkin_otp_ttl and voting_otp_ttl must be positive")
	}
	if appCfg.OTPAttemptsPerMinute <= 0 {
		return fmt.Errorf("otp_attempts_per_minute must be positive")
	}
	if appCfg.OTPCleanupInterval < 0 {
		return fmt.Errorf("otp_cleanup_interval must not be negative")
	}
	if _, err := time.LoadLocation(appCfg.MinutesTimeZone); err != nil {
		return fmt.Errorf("invalid minutes_time_zone %q: %w", appCfg.MinutesTimeZone, err)
	}
	for name, v := range map[string]string{
		"audit_log_governance": appCfg.AuditLogGovernance,
		"audit_log_attendance": appCfg.AuditLogAttendance,
	} {
		if !auditModes[v] {
			return fmt.Errorf("%s must be one of all, db, log, off (got %q)", name, v)
		}
	}
	if coreCfg != nil && coreCfg.Env == "prod" && appCfg.JWTSecret == "dev-only-change-me-please-0123456789ABCDEF" {
		return fmt.Errorf("jwt_secret must be changed in production")
	}
	return nil
}

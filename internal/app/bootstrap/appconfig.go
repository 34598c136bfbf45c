// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration (ports, TLS, logging level,
// CORS and body limits live in CoreConfig).
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Operator authentication. Bearer tokens are HS256 JWTs signed with this secret.
	JWTSecret string

	// One-time code lifetimes
	CheckinOTPTTL time.Duration // check-in code shown at the venue
	VotingOTPTTL  time.Duration // per-item voting code

	// Background sweep of expired codes; zero disables it
	OTPCleanupInterval time.Duration

	// Minutes rendering
	MinutesTimeZone string // IANA zone used for dates and times in the minutes

	// Public endpoints
	OTPAttemptsPerMinute int // per client address; per check-in link is 5x this

	// Audit logging: "all" (db+log), "db", "log", or "off"
	AuditLogGovernance string
	AuditLogAttendance string

	// Post an announcement to residents when an assembly is scheduled
	AnnounceOnCreate bool

	// Expose Prometheus metrics at /metrics
	MetricsEnabled bool

	// Store operation timeouts (zero keeps the defaults)
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration
}

// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"

	"github.com/condovote/assemblyhub/internal/app/store/audit"
	"github.com/condovote/assemblyhub/internal/app/system/auth"
	"github.com/condovote/assemblyhub/internal/app/system/ratelimit"
	"github.com/condovote/assemblyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Config holds audit logging configuration.
type Config struct {
	// Governance controls logging for operator actions (lifecycle, agenda, votes, minutes).
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Governance string
	// Attendance controls logging for participant actions (check-in, checkout, failed codes).
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Attendance string
}

// Logger writes the event trail to MongoDB (via audit.Store) and to
// structured logs (via zap).
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

type metaKey struct{}

type requestMeta struct {
	IP        string
	UserAgent string
	ActorID   string
}

func metaFrom(ctx context.Context) requestMeta {
	if m, ok := ctx.Value(metaKey{}).(requestMeta); ok {
		return m
	}
	return requestMeta{}
}

// WithRequest records the client address and user agent of r on ctx.
func WithRequest(ctx context.Context, r *http.Request) context.Context {
	m := metaFrom(ctx)
	m.IP = ratelimit.ClientIP(r)
	m.UserAgent = r.UserAgent()
	return context.WithValue(ctx, metaKey{}, m)
}

// WithActor records the acting identity on ctx.
func WithActor(ctx context.Context, actorID string) context.Context {
	m := metaFrom(ctx)
	m.ActorID = actorID
	return context.WithValue(ctx, metaKey{}, m)
}

// Middleware attaches request metadata for every event logged while serving r.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithRequest(r.Context(), r)))
	})
}

// ActorMiddleware records the signed-in user as the actor of events logged
// while serving r. It must run after auth.Verifier.LoadUser.
func ActorMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u, ok := auth.CurrentUser(r); ok {
			r = r.WithContext(WithActor(r.Context(), u.ID))
		}
		next.ServeHTTP(w, r)
	})
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
	}

	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if event.ActorID != "" {
		fields = append(fields, zap.String("actor_id", event.ActorID))
	}
	if event.AssemblyID != nil {
		fields = append(fields, zap.String("assembly_id", event.AssemblyID.Hex()))
	}
	if event.AgendaItemID != nil {
		fields = append(fields, zap.String("item_id", event.AgendaItemID.Hex()))
	}
	if event.ParticipantID != nil {
		fields = append(fields, zap.String("participant_id", event.ParticipantID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
// A failed write is logged and never returned; the trail must not fail the
// operation it describes.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryGovernance:
		setting = l.config.Governance
	case audit.CategoryAttendance:
		setting = l.config.Attendance
	}
	if setting == "" {
		setting = "all"
	}
	if setting == "off" {
		return
	}

	meta := metaFrom(ctx)
	if event.IP == "" {
		event.IP = meta.IP
	}
	if event.UserAgent == "" {
		event.UserAgent = meta.UserAgent
	}
	if event.ActorID == "" {
		event.ActorID = meta.ActorID
	}

	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}

	if setting == "all" || setting == "db" {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// --- Governance events ---

// Assembly logs a lifecycle event of a.
func (l *Logger) Assembly(ctx context.Context, eventType string, a models.Assembly) {
	l.Log(ctx, audit.Event{
		Category:   audit.CategoryGovernance,
		EventType:  eventType,
		TenantID:   oidPtr(a.TenantID),
		AssemblyID: oidPtr(a.ID),
		Success:    true,
		Details:    map[string]string{"status": a.Status},
	})
}

// Item logs a voting event of an agenda item.
func (l *Logger) Item(ctx context.Context, eventType string, it models.AgendaItem) {
	details := map[string]string{"status": it.Status}
	if it.Result != "" {
		details["result"] = it.Result
	}
	l.Log(ctx, audit.Event{
		Category:     audit.CategoryGovernance,
		EventType:    eventType,
		TenantID:     oidPtr(it.TenantID),
		AssemblyID:   oidPtr(it.AssemblyID),
		AgendaItemID: oidPtr(it.ID),
		Success:      true,
		Details:      details,
	})
}

// VoteCast logs a recorded vote. The choice is not recorded.
func (l *Logger) VoteCast(ctx context.Context, tenantID primitive.ObjectID, v models.Vote) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryGovernance,
		EventType:     audit.EventVoteCast,
		TenantID:      oidPtr(tenantID),
		AssemblyID:    oidPtr(v.AssemblyID),
		AgendaItemID:  oidPtr(v.AgendaItemID),
		ParticipantID: oidPtr(v.ParticipantID),
		Success:       true,
		Details: map[string]string{
			"cast_by": v.CastBy,
			"weight":  v.VotingWeight.String(),
		},
	})
}

// Participant logs a registry change of p.
func (l *Logger) Participant(ctx context.Context, eventType string, p models.Participant) {
	details := map[string]string{
		"unit":            p.UnitIdentifier,
		"approval_status": p.ApprovalStatus,
		"weight":          p.VotingWeight.String(),
	}
	if p.RejectionReason != "" {
		details["rejection_reason"] = p.RejectionReason
	}
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryGovernance,
		EventType:     eventType,
		TenantID:      oidPtr(p.TenantID),
		AssemblyID:    oidPtr(p.AssemblyID),
		ParticipantID: oidPtr(p.ID),
		Success:       true,
		Details:       details,
	})
}

// Minutes logs a minutes workflow event.
func (l *Logger) Minutes(ctx context.Context, eventType string, m models.Minutes) {
	l.Log(ctx, audit.Event{
		Category:   audit.CategoryGovernance,
		EventType:  eventType,
		TenantID:   oidPtr(m.TenantID),
		AssemblyID: oidPtr(m.AssemblyID),
		Success:    true,
		Details:    map[string]string{"status": m.Status},
	})
}

// --- Attendance events ---

// Attendance logs a successful check-in, re-entry or checkout.
func (l *Logger) Attendance(ctx context.Context, eventType string, p models.Participant) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAttendance,
		EventType:     eventType,
		TenantID:      oidPtr(p.TenantID),
		AssemblyID:    oidPtr(p.AssemblyID),
		ParticipantID: oidPtr(p.ID),
		Success:       true,
		Details:       map[string]string{"unit": p.UnitIdentifier},
	})
}

// CheckinFailed logs a rejected check-in attempt.
func (l *Logger) CheckinFailed(ctx context.Context, a models.Assembly, unitID, reason string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAttendance,
		EventType:     audit.EventCheckinFailed,
		TenantID:      oidPtr(a.TenantID),
		AssemblyID:    oidPtr(a.ID),
		Success:       false,
		FailureReason: reason,
		Details:       map[string]string{"unit_id": unitID},
	})
}

func oidPtr(id primitive.ObjectID) *primitive.ObjectID {
	if id.IsZero() {
		return nil
	}
	return &id
}

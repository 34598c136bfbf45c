// Package governance is the assembly governance and voting engine: the
// assembly lifecycle, the agenda item state machine, code-gated check-in
// and voting, the weighted vote ledger, attendance and the minutes.
//
// Every method is safe for concurrent use. Uniqueness guarantees (one vote
// per item and participant, one voting item per assembly, one seat per unit)
// are enforced by storage indexes; the service maps index violations to
// apperr codes. Authorization is the caller's concern.
package governance

import (
	"context"
	"errors"
	"strings"
	"time"

	agendaitemstore "github.com/condovote/assemblyhub/internal/app/store/agendaitems"
	assemblystore "github.com/condovote/assemblyhub/internal/app/store/assemblies"
	directorystore "github.com/condovote/assemblyhub/internal/app/store/directory"
	minutesstore "github.com/condovote/assemblyhub/internal/app/store/minutes"
	participantstore "github.com/condovote/assemblyhub/internal/app/store/participants"
	votestore "github.com/condovote/assemblyhub/internal/app/store/votes"
	"github.com/condovote/assemblyhub/internal/app/system/apperr"
	"github.com/condovote/assemblyhub/internal/app/system/auditlog"
	"github.com/condovote/assemblyhub/internal/app/system/clock"
	"github.com/condovote/assemblyhub/internal/app/system/metrics"
	"github.com/condovote/assemblyhub/internal/app/system/minutesdoc"
	"github.com/condovote/assemblyhub/internal/app/system/otp"
	"github.com/condovote/assemblyhub/internal/app/system/txn"
	"github.com/condovote/assemblyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Directory resolves tenants, units and residents. Implementations return
// an error matching directorystore.ErrNotFound for missing records.
type Directory interface {
	FindTenant(ctx context.Context, id primitive.ObjectID) (models.Tenant, error)
	FindUnit(ctx context.Context, tenantID, unitID primitive.ObjectID) (models.Unit, error)
	FindResident(ctx context.Context, id primitive.ObjectID) (models.Resident, error)
	CountUnits(ctx context.Context, tenantID primitive.ObjectID) (int64, error)
}

// Announcer delivers best-effort notices to a tenant's residents.
type Announcer interface {
	SendAnnouncement(ctx context.Context, tenantID primitive.ObjectID, title, body string) error
}

// Config holds the tunables of the engine.
type Config struct {
	CheckinOTPTTL    time.Duration
	VotingOTPTTL     time.Duration
	MinutesLocation  *time.Location
	AnnounceOnCreate bool
}

// Deps are the collaborators of the engine. Directory is required; nil
// Clock and Random fall back to the system clock and crypto/rand, and
// nil Announcer, Audit, Metrics and Log disable those side effects.
type Deps struct {
	DB        *mongo.Database
	Directory Directory
	Announcer Announcer
	Clock     clock.Clock
	Random    clock.Random
	Audit     *auditlog.Logger
	Metrics   *metrics.Metrics
	Log       *zap.Logger
}

// Service is the governance engine.
type Service struct {
	db           *mongo.Database
	assemblies   *assemblystore.Store
	items        *agendaitemstore.Store
	participants *participantstore.Store
	votes        *votestore.Store
	minutes      *minutesstore.Store

	directory Directory
	announcer Announcer
	clock     clock.Clock
	random    clock.Random

	checkinOTP *otp.Issuer
	votingOTP  *otp.Issuer
	renderer   *minutesdoc.Renderer
	announce   bool

	audit   *auditlog.Logger
	metrics *metrics.Metrics
	log     *zap.Logger
}

// New wires a Service.
func New(deps Deps, cfg Config) *Service {
	if deps.Clock == nil {
		deps.Clock = clock.System{}
	}
	if deps.Random == nil {
		deps.Random = clock.Secure{}
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if cfg.CheckinOTPTTL <= 0 {
		cfg.CheckinOTPTTL = otp.DefaultCheckinTTL
	}
	if cfg.VotingOTPTTL <= 0 {
		cfg.VotingOTPTTL = otp.DefaultVotingTTL
	}

	return &Service{
		db:           deps.DB,
		assemblies:   assemblystore.New(deps.DB),
		items:        agendaitemstore.New(deps.DB),
		participants: participantstore.New(deps.DB),
		votes:        votestore.New(deps.DB),
		minutes:      minutesstore.New(deps.DB),
		directory:    deps.Directory,
		announcer:    deps.Announcer,
		clock:        deps.Clock,
		random:       deps.Random,
		checkinOTP:   otp.NewIssuer(deps.Clock, deps.Random, cfg.CheckinOTPTTL),
		votingOTP:    otp.NewIssuer(deps.Clock, deps.Random, cfg.VotingOTPTTL),
		renderer:     minutesdoc.New(cfg.MinutesLocation),
		announce:     cfg.AnnounceOnCreate,
		audit:        deps.Audit,
		metrics:      deps.Metrics,
		log:          deps.Log,
	}
}

func (s *Service) now() time.Time {
	return s.clock.Now().UTC()
}

func (s *Service) inTxn(ctx context.Context, fn func(ctx context.Context) error) error {
	return txn.Run(ctx, s.db, s.log, fn)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Loaders                                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

func (s *Service) loadAssembly(ctx context.Context, id primitive.ObjectID) (models.Assembly, error) {
	a, err := s.assemblies.GetByID(ctx, id)
	if errors.Is(err, assemblystore.ErrNotFound) {
		return a, apperr.NotFound("assembly not found")
	}
	return a, err
}

func (s *Service) loadItem(ctx context.Context, id primitive.ObjectID) (models.AgendaItem, error) {
	it, err := s.items.GetByID(ctx, id)
	if errors.Is(err, agendaitemstore.ErrNotFound) {
		return it, apperr.NotFound("agenda item not found")
	}
	return it, err
}

func (s *Service) loadParticipant(ctx context.Context, assemblyID, id primitive.ObjectID) (models.Participant, error) {
	p, err := s.participants.GetByID(ctx, id)
	if errors.Is(err, participantstore.ErrNotFound) || (err == nil && p.AssemblyID != assemblyID) {
		return models.Participant{}, apperr.NotFound("participant not found")
	}
	return p, err
}

func (s *Service) findUnit(ctx context.Context, tenantID, unitID primitive.ObjectID) (models.Unit, error) {
	u, err := s.directory.FindUnit(ctx, tenantID, unitID)
	if errors.Is(err, directorystore.ErrNotFound) {
		return u, apperr.NotFound("unit not found")
	}
	return u, err
}

func (s *Service) findResident(ctx context.Context, tenantID, id primitive.ObjectID) (models.Resident, error) {
	r, err := s.directory.FindResident(ctx, id)
	if errors.Is(err, directorystore.ErrNotFound) || (err == nil && r.TenantID != tenantID) {
		return models.Resident{}, apperr.NotFound("resident not found")
	}
	return r, err
}

func requireText(value, field string) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", apperr.Validation(field + " is required")
	}
	return v, nil
}

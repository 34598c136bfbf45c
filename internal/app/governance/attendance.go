package governance

import (
	"context"
	"errors"
	"strings"
	"time"

	assemblystore "github.com/condovote/assemblyhub/internal/app/store/assemblies"
	"github.com/condovote/assemblyhub/internal/app/store/audit"
	participantstore "github.com/condovote/assemblyhub/internal/app/store/participants"
	"github.com/condovote/assemblyhub/internal/app/system/apperr"
	"github.com/condovote/assemblyhub/internal/app/system/presence"
	"github.com/condovote/assemblyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// checkinTokenBytes is the entropy of a public check-in token.
const checkinTokenBytes = 24

// CheckinRequest is a participant's public check-in.
type CheckinRequest struct {
	CheckinToken  string
	UnitID        primitive.ObjectID
	OTP           string
	ResidentID    *primitive.ObjectID
	ProxyName     string
	ProxyDocument string
}

// CheckinResult is the outcome of a check-in. SessionToken is only ever
// returned here; the service keeps its digest.
type CheckinResult struct {
	Participant  models.Participant
	SessionToken string
	Reentry      bool
}

// TokenInfo describes the assembly behind a public check-in token.
type TokenInfo struct {
	AssemblyID  primitive.ObjectID `json:"assembly_id"`
	Title       string             `json:"title"`
	Status      string             `json:"status"`
	ScheduledAt time.Time          `json:"scheduled_at"`
	TenantName  string             `json:"tenant_name"`
}

// GenerateCheckinToken replaces the public check-in token of an assembly
// that is scheduled or in progress.
func (s *Service) GenerateCheckinToken(ctx context.Context, assemblyID primitive.ObjectID) (string, error) {
	a, err := s.loadAssembly(ctx, assemblyID)
	if err != nil {
		return "", err
	}
	if a.IsTerminal() {
		return "", apperr.InvalidState("assembly is finished or cancelled")
	}
	token, err := s.random.Token(checkinTokenBytes)
	if err != nil {
		return "", err
	}
	_, err = s.assemblies.SetCheckinToken(ctx, assemblyID, token, s.now())
	switch {
	case errors.Is(err, assemblystore.ErrStateChanged):
		return "", apperr.InvalidState("assembly is finished or cancelled")
	case errors.Is(err, assemblystore.ErrDuplicateToken):
		return "", apperr.Conflict("token collision, try again")
	case err != nil:
		return "", err
	}
	return token, nil
}

// ValidateToken resolves a public check-in token.
func (s *Service) ValidateToken(ctx context.Context, token string) (TokenInfo, error) {
	a, err := s.assemblyByToken(ctx, token)
	if err != nil {
		return TokenInfo{}, err
	}
	info := TokenInfo{
		AssemblyID:  a.ID,
		Title:       a.Title,
		Status:      a.Status,
		ScheduledAt: a.ScheduledAt,
	}
	if t, err := s.directory.FindTenant(ctx, a.TenantID); err == nil {
		info.TenantName = t.Name
	} else {
		s.log.Warn("tenant lookup failed", zap.String("tenant_id", a.TenantID.Hex()), zap.Error(err))
	}
	return info, nil
}

// Checkin admits a unit's representative. A unit that left may re-enter;
// a unit that is present is rejected. Each successful check-in mints a new
// session token.
func (s *Service) Checkin(ctx context.Context, req CheckinRequest) (CheckinResult, error) {
	a, err := s.assemblyByToken(ctx, req.CheckinToken)
	if err != nil {
		return CheckinResult{}, err
	}
	if a.IsTerminal() {
		return CheckinResult{}, apperr.Validation("assembly is not accepting check-ins")
	}
	if !s.checkinOTP.Validate(a.CheckinOTP, req.OTP) {
		s.metrics.OTPRejected(subjectCheckin)
		s.audit.CheckinFailed(ctx, a, req.UnitID.Hex(), "invalid or expired code")
		return CheckinResult{}, apperr.Unauthorized("invalid or expired code")
	}
	unit, err := s.findUnit(ctx, a.TenantID, req.UnitID)
	if err != nil {
		return CheckinResult{}, err
	}

	proxyName := strings.TrimSpace(req.ProxyName)
	if req.ResidentID == nil && proxyName == "" {
		return CheckinResult{}, apperr.Validation("resident or proxy name is required")
	}
	var residentName string
	if req.ResidentID != nil {
		r, err := s.findResident(ctx, a.TenantID, *req.ResidentID)
		if err != nil {
			return CheckinResult{}, err
		}
		residentName = r.FullName
	}

	token, hash, err := s.newSession()
	if err != nil {
		return CheckinResult{}, err
	}
	now := s.now()

	existing, err := s.participants.GetByUnit(ctx, a.ID, unit.ID)
	switch {
	case err == nil:
		if existing.IsPresent() {
			return CheckinResult{}, apperr.Conflict("unit is already checked in")
		}
		var proxy *participantstore.Proxy
		doc := strings.TrimSpace(req.ProxyDocument)
		if proxyName != "" && (proxyName != existing.ProxyName || doc != existing.ProxyDocument) {
			proxy = &participantstore.Proxy{Name: proxyName, Document: doc}
		}
		p, err := s.participants.Reenter(ctx, existing.ID, now, proxy, hash)
		if errors.Is(err, participantstore.ErrStateChanged) {
			return CheckinResult{}, apperr.Conflict("unit is already checked in")
		}
		if err != nil {
			return CheckinResult{}, err
		}
		// An operator-registered unit has never been in the room; its first
		// check-in is not a re-entry.
		if existing.JoinedAt == nil {
			s.checkedIn(ctx, p, audit.EventCheckin)
			return CheckinResult{Participant: p, SessionToken: token}, nil
		}
		s.checkedIn(ctx, p, audit.EventReentry)
		return CheckinResult{Participant: p, SessionToken: token, Reentry: true}, nil

	case errors.Is(err, participantstore.ErrNotFound):
		approval := models.ApprovalApproved
		if proxyName != "" {
			approval = models.ApprovalPending
		}
		p, err := s.participants.Create(ctx, models.Participant{
			AssemblyID:       a.ID,
			TenantID:         a.TenantID,
			UnitID:           unit.ID,
			UnitIdentifier:   unit.Identifier,
			ResidentID:       req.ResidentID,
			ResidentName:     residentName,
			ProxyName:        proxyName,
			ProxyDocument:    strings.TrimSpace(req.ProxyDocument),
			JoinedAt:         &now,
			VotingWeight:     models.DefaultWeight,
			ApprovalStatus:   approval,
			SessionTokenHash: &hash,
			CreatedAt:        now,
		})
		if errors.Is(err, participantstore.ErrDuplicateUnit) {
			return CheckinResult{}, apperr.Conflict("unit is already checked in")
		}
		if err != nil {
			return CheckinResult{}, err
		}
		s.checkedIn(ctx, p, audit.EventCheckin)
		return CheckinResult{Participant: p, SessionToken: token}, nil

	default:
		return CheckinResult{}, err
	}
}

func (s *Service) checkedIn(ctx context.Context, p models.Participant, event string) {
	s.log.Info("participant checked in",
		zap.String("assembly_id", p.AssemblyID.Hex()),
		zap.String("participant_id", p.ID.Hex()),
		zap.String("unit", p.UnitIdentifier),
		zap.Bool("reentry", event == audit.EventReentry))
	s.metrics.Checkin(event)
	s.audit.Attendance(ctx, event, p)
}

// Checkout records a present participant leaving.
func (s *Service) Checkout(ctx context.Context, checkinToken string, participantID primitive.ObjectID) (models.Participant, error) {
	a, err := s.assemblyByToken(ctx, checkinToken)
	if err != nil {
		return models.Participant{}, err
	}
	p, err := s.loadParticipant(ctx, a.ID, participantID)
	if err != nil {
		return models.Participant{}, err
	}
	if p.JoinedAt == nil {
		return models.Participant{}, apperr.InvalidState("participant has not checked in")
	}
	if p.LeftAt != nil {
		return models.Participant{}, apperr.InvalidState("participant has already checked out")
	}

	out, err := s.participants.Checkout(ctx, participantID, s.now())
	if errors.Is(err, participantstore.ErrStateChanged) {
		return models.Participant{}, apperr.InvalidState("participant has already checked out")
	}
	if err != nil {
		return models.Participant{}, err
	}

	s.log.Info("participant checked out",
		zap.String("assembly_id", out.AssemblyID.Hex()),
		zap.String("participant_id", out.ID.Hex()))
	s.metrics.Checkin(audit.EventCheckout)
	s.audit.Attendance(ctx, audit.EventCheckout, out)
	return out, nil
}

// GetAttendanceStatus returns the live attendance and quorum snapshot.
func (s *Service) GetAttendanceStatus(ctx context.Context, assemblyID primitive.ObjectID) (presence.Status, error) {
	a, err := s.loadAssembly(ctx, assemblyID)
	if err != nil {
		return presence.Status{}, err
	}
	ps, err := s.participants.ListByAssembly(ctx, assemblyID)
	if err != nil {
		return presence.Status{}, err
	}
	units, err := s.directory.CountUnits(ctx, a.TenantID)
	if err != nil {
		return presence.Status{}, err
	}
	return presence.Compute(ps, units), nil
}

// ListPresentParticipants returns the participants currently in the room.
func (s *Service) ListPresentParticipants(ctx context.Context, assemblyID primitive.ObjectID) ([]models.Participant, error) {
	if _, err := s.loadAssembly(ctx, assemblyID); err != nil {
		return nil, err
	}
	return s.participants.ListPresent(ctx, assemblyID)
}

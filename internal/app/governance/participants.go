package governance

import (
	"context"
	"errors"
	"strings"

	"github.com/condovote/assemblyhub/internal/app/store/audit"
	participantstore "github.com/condovote/assemblyhub/internal/app/store/participants"
	"github.com/condovote/assemblyhub/internal/app/system/apperr"
	"github.com/condovote/assemblyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// NewParticipant is an operator's manual registration of a unit. A nil
// Weight registers the default weight of 1.
type NewParticipant struct {
	UnitID        primitive.ObjectID
	ResidentID    *primitive.ObjectID
	ProxyName     string
	ProxyDocument string
	Weight        *models.Weight
}

// RegisterParticipant seats a unit at an assembly without checking it in.
// Operator registrations are approved.
func (s *Service) RegisterParticipant(ctx context.Context, assemblyID primitive.ObjectID, in NewParticipant) (models.Participant, error) {
	a, err := s.loadAssembly(ctx, assemblyID)
	if err != nil {
		return models.Participant{}, err
	}
	if a.IsTerminal() {
		return models.Participant{}, apperr.InvalidState("assembly is finished or cancelled")
	}
	unit, err := s.findUnit(ctx, a.TenantID, in.UnitID)
	if err != nil {
		return models.Participant{}, err
	}
	proxyName := strings.TrimSpace(in.ProxyName)
	if in.ResidentID == nil && proxyName == "" {
		return models.Participant{}, apperr.Validation("resident or proxy name is required")
	}
	weight := models.DefaultWeight
	if in.Weight != nil {
		if err := validateWeight(*in.Weight); err != nil {
			return models.Participant{}, err
		}
		weight = *in.Weight
	}

	p := models.Participant{
		AssemblyID:     a.ID,
		TenantID:       a.TenantID,
		UnitID:         unit.ID,
		UnitIdentifier: unit.Identifier,
		ResidentID:     in.ResidentID,
		ProxyName:      proxyName,
		ProxyDocument:  strings.TrimSpace(in.ProxyDocument),
		VotingWeight:   weight,
		ApprovalStatus: models.ApprovalApproved,
		CreatedAt:      s.now(),
	}
	if in.ResidentID != nil {
		r, err := s.findResident(ctx, a.TenantID, *in.ResidentID)
		if err != nil {
			return models.Participant{}, err
		}
		p.ResidentName = r.FullName
	}

	p, err = s.participants.Create(ctx, p)
	if errors.Is(err, participantstore.ErrDuplicateUnit) {
		return models.Participant{}, apperr.Conflict("unit is already registered for this assembly")
	}
	if err != nil {
		return models.Participant{}, err
	}
	s.participantChanged(ctx, audit.EventParticipantAdded, p)
	return p, nil
}

// ListParticipants returns every participant of an assembly.
func (s *Service) ListParticipants(ctx context.Context, assemblyID primitive.ObjectID) ([]models.Participant, error) {
	if _, err := s.loadAssembly(ctx, assemblyID); err != nil {
		return nil, err
	}
	return s.participants.ListByAssembly(ctx, assemblyID)
}

// UpdateWeight changes a participant's voting weight. Votes already cast
// keep the weight they were cast with.
func (s *Service) UpdateWeight(ctx context.Context, assemblyID, participantID primitive.ObjectID, w models.Weight) (models.Participant, error) {
	if err := validateWeight(w); err != nil {
		return models.Participant{}, err
	}
	if _, err := s.loadParticipant(ctx, assemblyID, participantID); err != nil {
		return models.Participant{}, err
	}
	p, err := s.participants.UpdateWeight(ctx, participantID, w, s.now())
	if err != nil {
		return models.Participant{}, s.participantGone(err)
	}
	s.participantChanged(ctx, audit.EventParticipantWeight, p)
	return p, nil
}

// ApproveParticipant approves a participant.
func (s *Service) ApproveParticipant(ctx context.Context, assemblyID, participantID primitive.ObjectID) (models.Participant, error) {
	if _, err := s.loadParticipant(ctx, assemblyID, participantID); err != nil {
		return models.Participant{}, err
	}
	p, err := s.participants.SetApproval(ctx, participantID, models.ApprovalApproved, "", s.now())
	if err != nil {
		return models.Participant{}, s.participantGone(err)
	}
	s.participantChanged(ctx, audit.EventParticipantOK, p)
	return p, nil
}

// RejectParticipant rejects a participant. The reason is required.
func (s *Service) RejectParticipant(ctx context.Context, assemblyID, participantID primitive.ObjectID, reason string) (models.Participant, error) {
	reason, err := requireText(reason, "rejection reason")
	if err != nil {
		return models.Participant{}, err
	}
	if _, err := s.loadParticipant(ctx, assemblyID, participantID); err != nil {
		return models.Participant{}, err
	}
	p, err := s.participants.SetApproval(ctx, participantID, models.ApprovalRejected, reason, s.now())
	if err != nil {
		return models.Participant{}, s.participantGone(err)
	}
	s.participantChanged(ctx, audit.EventParticipantDenied, p)
	return p, nil
}

// RemoveParticipant deletes a participant that has not voted.
func (s *Service) RemoveParticipant(ctx context.Context, assemblyID, participantID primitive.ObjectID) error {
	p, err := s.loadParticipant(ctx, assemblyID, participantID)
	if err != nil {
		return err
	}
	voted, err := s.votes.HasVoted(ctx, participantID)
	if err != nil {
		return err
	}
	if voted {
		return apperr.PreconditionFailed("participant has already voted")
	}
	if _, err := s.participants.Delete(ctx, participantID); err != nil {
		return err
	}
	s.participantChanged(ctx, audit.EventParticipantRemove, p)
	return nil
}

func (s *Service) participantChanged(ctx context.Context, event string, p models.Participant) {
	s.log.Info("participant updated",
		zap.String("assembly_id", p.AssemblyID.Hex()),
		zap.String("participant_id", p.ID.Hex()),
		zap.String("event", event))
	s.audit.Participant(ctx, event, p)
}

// participantGone maps a lost update on a participant deleted concurrently.
func (s *Service) participantGone(err error) error {
	if errors.Is(err, participantstore.ErrStateChanged) {
		return apperr.NotFound("participant not found")
	}
	return err
}

func validateWeight(w models.Weight) error {
	if !w.Decimal.IsPositive() {
		return apperr.Validation("voting weight must be positive")
	}
	return nil
}

package governance

import (
	"context"
	"errors"

	agendaitemstore "github.com/condovote/assemblyhub/internal/app/store/agendaitems"
	participantstore "github.com/condovote/assemblyhub/internal/app/store/participants"
	votestore "github.com/condovote/assemblyhub/internal/app/store/votes"
	"github.com/condovote/assemblyhub/internal/app/system/apperr"
	"github.com/condovote/assemblyhub/internal/app/system/tally"
	"github.com/condovote/assemblyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// CastVote records an operator-entered vote of a participant on an item.
func (s *Service) CastVote(ctx context.Context, itemID, participantID primitive.ObjectID, choice string) (models.Vote, error) {
	if !models.IsValidChoice(choice) {
		return models.Vote{}, apperr.Validation("choice must be YES, NO or ABSTENTION")
	}
	it, err := s.loadItem(ctx, itemID)
	if err != nil {
		return models.Vote{}, err
	}
	return s.castVote(ctx, it, participantID, choice, models.CastByOperator)
}

// CastVoteBySession records a participant's own vote. The session must be
// allowed to vote and code must be the item's current voting code.
func (s *Service) CastVoteBySession(ctx context.Context, sessionToken string, itemID primitive.ObjectID, code, choice string) (models.Vote, error) {
	if !models.IsValidChoice(choice) {
		return models.Vote{}, apperr.Validation("choice must be YES, NO or ABSTENTION")
	}
	sess, err := s.ValidateSession(ctx, sessionToken)
	if err != nil {
		return models.Vote{}, err
	}
	if !sess.CanVote {
		return models.Vote{}, apperr.Forbidden("participant is not allowed to vote")
	}
	it, err := s.loadItem(ctx, itemID)
	if err != nil {
		return models.Vote{}, err
	}
	if it.AssemblyID != sess.Assembly.ID {
		return models.Vote{}, apperr.NotFound("agenda item not found")
	}
	if it.Status != models.ItemVoting {
		return models.Vote{}, apperr.InvalidState("item is not open for voting")
	}
	if !s.votingOTP.Validate(it.VotingOTP, code) {
		s.metrics.OTPRejected(subjectVoting)
		return models.Vote{}, apperr.Unauthorized("invalid or expired code")
	}
	return s.castVote(ctx, it, sess.Participant.ID, choice, models.CastByParticipant)
}

func (s *Service) castVote(ctx context.Context, it models.AgendaItem, participantID primitive.ObjectID, choice, castBy string) (models.Vote, error) {
	if it.Status != models.ItemVoting {
		return models.Vote{}, apperr.InvalidState("item is not open for voting")
	}
	p, err := s.participants.GetByID(ctx, participantID)
	if errors.Is(err, participantstore.ErrNotFound) {
		return models.Vote{}, apperr.NotFound("participant not found")
	}
	if err != nil {
		return models.Vote{}, err
	}
	if p.AssemblyID != it.AssemblyID {
		return models.Vote{}, apperr.Validation("participant does not belong to this assembly")
	}

	var v models.Vote
	err = s.inTxn(ctx, func(ctx context.Context) error {
		if err := s.items.AdmitVote(ctx, it.ID, s.now()); err != nil {
			if errors.Is(err, agendaitemstore.ErrStateChanged) {
				return apperr.InvalidState("item is not open for voting")
			}
			return err
		}
		created, err := s.votes.Create(ctx, models.Vote{
			AssemblyID:    it.AssemblyID,
			AgendaItemID:  it.ID,
			ParticipantID: p.ID,
			UnitID:        p.UnitID,
			Choice:        choice,
			VotingWeight:  p.VotingWeight,
			CastBy:        castBy,
			CastAt:        s.now(),
		})
		if errors.Is(err, votestore.ErrDuplicateVote) {
			s.metrics.VoteConflict()
			return apperr.Conflict("participant has already voted on this item")
		}
		v = created
		return err
	})
	if err != nil {
		return models.Vote{}, err
	}

	s.log.Info("vote cast",
		zap.String("assembly_id", v.AssemblyID.Hex()),
		zap.String("item_id", v.AgendaItemID.Hex()),
		zap.String("participant_id", v.ParticipantID.Hex()),
		zap.String("cast_by", castBy))
	s.metrics.VoteCast(castBy)
	s.audit.VoteCast(ctx, it.TenantID, v)
	return v, nil
}

// GetSummary tallies the votes of an item.
func (s *Service) GetSummary(ctx context.Context, itemID primitive.ObjectID) (tally.Result, error) {
	return s.GetVoteResult(ctx, itemID)
}

// CheckVoted reports whether a participant voted on an item and returns
// the vote when it did.
func (s *Service) CheckVoted(ctx context.Context, itemID, participantID primitive.ObjectID) (bool, *models.Vote, error) {
	it, err := s.loadItem(ctx, itemID)
	if err != nil {
		return false, nil, err
	}
	if _, err := s.loadParticipant(ctx, it.AssemblyID, participantID); err != nil {
		return false, nil, err
	}
	v, err := s.votes.Get(ctx, itemID, participantID)
	if errors.Is(err, votestore.ErrNotFound) {
		return false, nil, nil
	}
	if err != nil {
		return false, nil, err
	}
	return true, &v, nil
}

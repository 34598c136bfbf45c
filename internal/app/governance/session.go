package governance

import (
	"context"
	"encoding/hex"
	"errors"

	participantstore "github.com/condovote/assemblyhub/internal/app/store/participants"
	votestore "github.com/condovote/assemblyhub/internal/app/store/votes"
	"github.com/condovote/assemblyhub/internal/app/system/apperr"
	"github.com/condovote/assemblyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/blake2b"
)

// sessionTokenBytes is the entropy of a participant session token.
const sessionTokenBytes = 32

// Session is the capability carried by a participant's session token.
type Session struct {
	Participant models.Participant
	Assembly    models.Assembly
	CanVote     bool
}

// PortalItem is an agenda item as seen by a participant.
type PortalItem struct {
	Item     models.AgendaItem
	HasVoted bool
	Vote     *models.Vote
}

// HashSessionToken returns the stored digest of a session token.
func HashSessionToken(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (s *Service) newSession() (token, hash string, err error) {
	token, err = s.random.Token(sessionTokenBytes)
	if err != nil {
		return "", "", err
	}
	return token, HashSessionToken(token), nil
}

// ValidateSession resolves a session token. The participant must be
// present; CanVote additionally requires approval and an assembly in
// progress.
func (s *Service) ValidateSession(ctx context.Context, token string) (Session, error) {
	if token == "" {
		return Session{}, apperr.Unauthorized("invalid session")
	}
	p, err := s.participants.GetBySessionHash(ctx, HashSessionToken(token))
	if errors.Is(err, participantstore.ErrNotFound) {
		return Session{}, apperr.Unauthorized("invalid session")
	}
	if err != nil {
		return Session{}, err
	}
	if p.JoinedAt == nil {
		return Session{}, apperr.Unauthorized("participant has not checked in")
	}
	if p.LeftAt != nil {
		return Session{}, apperr.Unauthorized("participant has checked out")
	}
	a, err := s.loadAssembly(ctx, p.AssemblyID)
	if err != nil {
		return Session{}, err
	}
	return Session{
		Participant: p,
		Assembly:    a,
		CanVote:     p.ApprovalStatus == models.ApprovalApproved && a.Status == models.AssemblyInProgress,
	}, nil
}

// SessionAgenda returns the agenda of the session's assembly.
func (s *Service) SessionAgenda(ctx context.Context, token string) (Session, []models.AgendaItem, error) {
	sess, err := s.ValidateSession(ctx, token)
	if err != nil {
		return Session{}, nil, err
	}
	items, err := s.items.ListByAssembly(ctx, sess.Assembly.ID)
	if err != nil {
		return Session{}, nil, err
	}
	return sess, items, nil
}

// SessionItem returns one agenda item with the participant's own vote.
func (s *Service) SessionItem(ctx context.Context, token string, itemID primitive.ObjectID) (PortalItem, error) {
	sess, err := s.ValidateSession(ctx, token)
	if err != nil {
		return PortalItem{}, err
	}
	it, err := s.loadItem(ctx, itemID)
	if err != nil {
		return PortalItem{}, err
	}
	if it.AssemblyID != sess.Assembly.ID {
		return PortalItem{}, apperr.NotFound("agenda item not found")
	}
	out := PortalItem{Item: it}
	v, err := s.votes.Get(ctx, itemID, sess.Participant.ID)
	switch {
	case err == nil:
		out.HasVoted, out.Vote = true, &v
	case !errors.Is(err, votestore.ErrNotFound):
		return PortalItem{}, err
	}
	return out, nil
}

// SessionVotes returns every vote the session's participant cast.
func (s *Service) SessionVotes(ctx context.Context, token string) ([]models.Vote, error) {
	sess, err := s.ValidateSession(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.votes.ListByParticipant(ctx, sess.Participant.ID)
}

package governance

import (
	"context"
	"errors"

	agendaitemstore "github.com/condovote/assemblyhub/internal/app/store/agendaitems"
	assemblystore "github.com/condovote/assemblyhub/internal/app/store/assemblies"
	"github.com/condovote/assemblyhub/internal/app/store/audit"
	"github.com/condovote/assemblyhub/internal/app/system/apperr"
	"github.com/condovote/assemblyhub/internal/app/system/otp"
	"github.com/condovote/assemblyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Subjects of rejected codes, used as metric labels.
const (
	subjectCheckin = "checkin"
	subjectVoting  = "voting"
)

var errNoActiveCode = apperr.NotFound("no active code")

// GenerateCheckinOTP issues a new check-in code for an assembly that is
// neither finished nor cancelled. The previous code stops being valid.
func (s *Service) GenerateCheckinOTP(ctx context.Context, assemblyID primitive.ObjectID) (otp.Status, error) {
	a, err := s.loadAssembly(ctx, assemblyID)
	if err != nil {
		return otp.Status{}, err
	}
	if a.IsTerminal() {
		return otp.Status{}, apperr.InvalidState("assembly is finished or cancelled")
	}
	code, err := s.checkinOTP.Issue()
	if err != nil {
		return otp.Status{}, err
	}
	a, err = s.assemblies.SetCheckinOTP(ctx, assemblyID, code)
	if errors.Is(err, assemblystore.ErrStateChanged) {
		return otp.Status{}, apperr.InvalidState("assembly is finished or cancelled")
	}
	if err != nil {
		return otp.Status{}, err
	}

	s.audit.Assembly(ctx, audit.EventCheckinOTPIssued, a)
	st, _ := s.checkinOTP.Peek(&code)
	return st, nil
}

// GetCheckinOTP returns the active check-in code without regenerating it.
func (s *Service) GetCheckinOTP(ctx context.Context, assemblyID primitive.ObjectID) (otp.Status, error) {
	a, err := s.loadAssembly(ctx, assemblyID)
	if err != nil {
		return otp.Status{}, err
	}
	st, ok := s.checkinOTP.Peek(a.CheckinOTP)
	if !ok {
		return otp.Status{}, errNoActiveCode
	}
	return st, nil
}

// GenerateVotingOTP replaces the voting code of an item that is voting.
func (s *Service) GenerateVotingOTP(ctx context.Context, itemID primitive.ObjectID) (otp.Status, error) {
	it, err := s.loadItem(ctx, itemID)
	if err != nil {
		return otp.Status{}, err
	}
	if it.Status != models.ItemVoting {
		return otp.Status{}, apperr.InvalidState("item is not open for voting")
	}
	code, err := s.votingOTP.Issue()
	if err != nil {
		return otp.Status{}, err
	}
	it, err = s.items.SetVotingOTP(ctx, itemID, code)
	if errors.Is(err, agendaitemstore.ErrStateChanged) {
		return otp.Status{}, apperr.InvalidState("item is not open for voting")
	}
	if err != nil {
		return otp.Status{}, err
	}

	s.audit.Item(ctx, audit.EventVotingOTPIssued, it)
	st, _ := s.votingOTP.Peek(&code)
	return st, nil
}

// GetVotingOTP returns the active voting code of an item.
func (s *Service) GetVotingOTP(ctx context.Context, itemID primitive.ObjectID) (otp.Status, error) {
	it, err := s.loadItem(ctx, itemID)
	if err != nil {
		return otp.Status{}, err
	}
	st, ok := s.votingOTP.Peek(it.VotingOTP)
	if !ok {
		return otp.Status{}, errNoActiveCode
	}
	return st, nil
}

// ValidateCheckinOTP checks a candidate code against the assembly behind a
// public check-in token. The code is not consumed.
func (s *Service) ValidateCheckinOTP(ctx context.Context, checkinToken, candidate string) (bool, error) {
	a, err := s.assemblyByToken(ctx, checkinToken)
	if err != nil {
		return false, err
	}
	ok := s.checkinOTP.Validate(a.CheckinOTP, candidate)
	if !ok {
		s.metrics.OTPRejected(subjectCheckin)
	}
	return ok, nil
}

func (s *Service) assemblyByToken(ctx context.Context, token string) (models.Assembly, error) {
	a, err := s.assemblies.GetByCheckinToken(ctx, token)
	if errors.Is(err, assemblystore.ErrNotFound) {
		return a, apperr.NotFound("check-in link not found")
	}
	return a, err
}

package governance

import (
	"context"
	"errors"

	"github.com/condovote/assemblyhub/internal/app/store/audit"
	minutesstore "github.com/condovote/assemblyhub/internal/app/store/minutes"
	"github.com/condovote/assemblyhub/internal/app/system/apperr"
	"github.com/condovote/assemblyhub/internal/app/system/htmlsanitize"
	"github.com/condovote/assemblyhub/internal/app/system/minutesdoc"
	"github.com/condovote/assemblyhub/internal/app/system/presence"
	"github.com/condovote/assemblyhub/internal/app/system/tally"
	"github.com/condovote/assemblyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// MinutesChanges are manual edits of generated minutes. Nil fields are
// unchanged.
type MinutesChanges struct {
	Content *string
	Summary *string
}

// GenerateMinutes rebuilds the minutes of a finished assembly from the
// stored items, votes and participants. Draft and pending-review minutes
// are overwritten; approved or published minutes are not.
func (s *Service) GenerateMinutes(ctx context.Context, assemblyID primitive.ObjectID) (models.Minutes, error) {
	a, err := s.loadAssembly(ctx, assemblyID)
	if err != nil {
		return models.Minutes{}, err
	}
	if a.Status != models.AssemblyFinished {
		return models.Minutes{}, apperr.InvalidState("minutes can only be generated for finished assemblies")
	}

	in, err := s.minutesInput(ctx, a)
	if err != nil {
		return models.Minutes{}, err
	}

	m, err := s.minutes.SaveGenerated(ctx, models.Minutes{
		AssemblyID:        a.ID,
		TenantID:          a.TenantID,
		Content:           s.renderer.Content(in),
		Summary:           s.renderer.Summary(in),
		VoteSummary:       in.Items,
		AttendanceSummary: in.Attendance,
		GeneratedAt:       s.now(),
	})
	if errors.Is(err, minutesstore.ErrStateChanged) {
		return models.Minutes{}, apperr.InvalidState("approved or published minutes cannot be regenerated")
	}
	if err != nil {
		return models.Minutes{}, err
	}

	s.log.Info("minutes generated", zap.String("assembly_id", a.ID.Hex()))
	s.audit.Minutes(ctx, audit.EventMinutesGenerated, m)
	return m, nil
}

func (s *Service) minutesInput(ctx context.Context, a models.Assembly) (minutesdoc.Input, error) {
	in := minutesdoc.Input{Assembly: a}
	if t, err := s.directory.FindTenant(ctx, a.TenantID); err == nil {
		in.TenantName = t.Name
	} else {
		s.log.Warn("tenant lookup failed", zap.String("tenant_id", a.TenantID.Hex()), zap.Error(err))
	}

	items, err := s.items.ListByAssembly(ctx, a.ID)
	if err != nil {
		return in, err
	}
	in.Items = make([]models.ItemVoteSummary, 0, len(items))
	for _, it := range items {
		votes, err := s.votes.ListByItem(ctx, it.ID)
		if err != nil {
			return in, err
		}
		in.Items = append(in.Items, itemSummary(it, tally.Compute(votes, it.QuorumType)))
	}

	ps, err := s.participants.ListByAssembly(ctx, a.ID)
	if err != nil {
		return in, err
	}
	units, err := s.directory.CountUnits(ctx, a.TenantID)
	if err != nil {
		return in, err
	}
	in.Attendance = attendanceSummary(ps, presence.Compute(ps, units))
	return in, nil
}

func itemSummary(it models.AgendaItem, r tally.Result) models.ItemVoteSummary {
	sum := models.ItemVoteSummary{
		AgendaItemID:    it.ID,
		OrderIndex:      it.OrderIndex,
		Title:           it.Title,
		Description:     it.Description,
		Status:          it.Status,
		QuorumType:      it.QuorumType,
		YesCount:        r.YesCount,
		NoCount:         r.NoCount,
		AbstentionCount: r.AbstentionCount,
		TotalVotes:      r.TotalVotes,
		WeightedYes:     r.WeightedYes,
		WeightedNo:      r.WeightedNo,
		WeightedAbst:    r.WeightedAbst,
		WeightedTotal:   r.WeightedTotal,
	}
	if it.Status == models.ItemClosed {
		sum.Result = r.Label()
		sum.Approved = r.Approved
		sum.QuorumApproved = r.QuorumApproved
	}
	return sum
}

func attendanceSummary(ps []models.Participant, st presence.Status) models.AttendanceSummary {
	out := models.AttendanceSummary{
		TotalUnits:          st.TotalUnits,
		TotalRegistered:     st.TotalRegistered,
		TotalCheckedIn:      st.TotalCheckedIn,
		TotalCheckedOut:     st.TotalCheckedOut,
		CurrentlyPresent:    st.CurrentlyPresent,
		TotalVotingWeight:   st.TotalVotingWeight,
		PresentVotingWeight: st.PresentVotingWeight,
		QuorumPercentage:    st.QuorumPercentage,
		Participants:        make([]models.AttendanceEntry, 0, len(ps)),
	}
	for _, p := range ps {
		out.Participants = append(out.Participants, models.AttendanceEntry{
			ParticipantID:      p.ID,
			UnitIdentifier:     p.UnitIdentifier,
			RepresentativeName: p.RepresentativeName(),
			IsProxy:            p.IsProxy(),
			VotingWeight:       p.VotingWeight,
			JoinedAt:           p.JoinedAt,
			LeftAt:             p.LeftAt,
		})
	}
	return out
}

// GetMinutes returns the minutes of an assembly.
func (s *Service) GetMinutes(ctx context.Context, assemblyID primitive.ObjectID) (models.Minutes, error) {
	m, err := s.minutes.GetByAssembly(ctx, assemblyID)
	if errors.Is(err, minutesstore.ErrNotFound) {
		return m, apperr.NotFound("minutes not found")
	}
	return m, err
}

// UpdateMinutes edits unpublished minutes. Markup is stripped.
func (s *Service) UpdateMinutes(ctx context.Context, assemblyID primitive.ObjectID, ch MinutesChanges) (models.Minutes, error) {
	if ch.Content == nil && ch.Summary == nil {
		return models.Minutes{}, apperr.Validation("content or summary is required")
	}
	if ch.Content != nil {
		c := htmlsanitize.PlainText(*ch.Content)
		ch.Content = &c
	}
	if ch.Summary != nil {
		sm := htmlsanitize.PlainText(*ch.Summary)
		ch.Summary = &sm
	}
	return s.minutesStep(ctx, assemblyID, "published minutes cannot be edited", "", func() (models.Minutes, error) {
		return s.minutes.UpdateText(ctx, assemblyID, ch.Content, ch.Summary, s.now())
	})
}

// SubmitMinutes sends draft minutes for review.
func (s *Service) SubmitMinutes(ctx context.Context, assemblyID primitive.ObjectID) (models.Minutes, error) {
	return s.minutesStep(ctx, assemblyID, "only draft minutes can be submitted for review", "", func() (models.Minutes, error) {
		return s.minutes.SubmitForReview(ctx, assemblyID, s.now())
	})
}

// ApproveMinutes approves unpublished minutes.
func (s *Service) ApproveMinutes(ctx context.Context, assemblyID primitive.ObjectID, approverID *primitive.ObjectID) (models.Minutes, error) {
	return s.minutesStep(ctx, assemblyID, "published minutes cannot be approved", audit.EventMinutesApproved, func() (models.Minutes, error) {
		return s.minutes.Approve(ctx, assemblyID, approverID, s.now())
	})
}

// PublishMinutes publishes approved minutes. Published minutes are final.
func (s *Service) PublishMinutes(ctx context.Context, assemblyID primitive.ObjectID) (models.Minutes, error) {
	return s.minutesStep(ctx, assemblyID, "only approved minutes can be published", audit.EventMinutesPublished, func() (models.Minutes, error) {
		return s.minutes.Publish(ctx, assemblyID, s.now())
	})
}

func (s *Service) minutesStep(ctx context.Context, assemblyID primitive.ObjectID, msg, event string, step func() (models.Minutes, error)) (models.Minutes, error) {
	if _, err := s.GetMinutes(ctx, assemblyID); err != nil {
		return models.Minutes{}, err
	}
	m, err := step()
	if errors.Is(err, minutesstore.ErrStateChanged) {
		return models.Minutes{}, apperr.InvalidState(msg)
	}
	if err != nil {
		return models.Minutes{}, err
	}
	s.log.Info("minutes updated",
		zap.String("assembly_id", m.AssemblyID.Hex()),
		zap.String("status", m.Status))
	if event != "" {
		s.audit.Minutes(ctx, event, m)
	}
	return m, nil
}

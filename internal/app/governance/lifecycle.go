package governance

import (
	"context"
	"errors"
	"fmt"
	"time"

	assemblystore "github.com/condovote/assemblyhub/internal/app/store/assemblies"
	"github.com/condovote/assemblyhub/internal/app/store/audit"
	"github.com/condovote/assemblyhub/internal/app/system/apperr"
	"github.com/condovote/assemblyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// NewAssembly is the input of CreateAssembly.
type NewAssembly struct {
	TenantID    primitive.ObjectID
	Title       string
	Description string
	ScheduledAt time.Time
	CreatedByID *primitive.ObjectID
}

// AssemblyChanges carries the editable fields of a scheduled assembly.
// Nil fields are unchanged.
type AssemblyChanges struct {
	Title       *string
	Description *string
	ScheduledAt *time.Time
}

// CreateAssembly schedules a new assembly and announces it.
func (s *Service) CreateAssembly(ctx context.Context, in NewAssembly) (models.Assembly, error) {
	title, err := requireText(in.Title, "title")
	if err != nil {
		return models.Assembly{}, err
	}
	if in.ScheduledAt.IsZero() {
		return models.Assembly{}, apperr.Validation("scheduled_at is required")
	}
	if in.TenantID.IsZero() {
		return models.Assembly{}, apperr.Validation("tenant is required")
	}

	a, err := s.assemblies.Create(ctx, models.Assembly{
		TenantID:    in.TenantID,
		Title:       title,
		Description: in.Description,
		ScheduledAt: in.ScheduledAt.UTC(),
		CreatedByID: in.CreatedByID,
		CreatedAt:   s.now(),
	})
	if err != nil {
		return models.Assembly{}, err
	}

	s.log.Info("assembly created",
		zap.String("assembly_id", a.ID.Hex()),
		zap.String("tenant_id", a.TenantID.Hex()))
	s.audit.Assembly(ctx, audit.EventAssemblyCreated, a)
	s.announceAssembly(ctx, a)
	return a, nil
}

// announceAssembly notifies residents. Failures are logged and dropped.
func (s *Service) announceAssembly(ctx context.Context, a models.Assembly) {
	if !s.announce || s.announcer == nil {
		return
	}
	when := a.ScheduledAt.In(s.renderer.Location())
	body := fmt.Sprintf("Assembleia convocada para %s às %s.", when.Format("02/01/2006"), when.Format("15h04"))
	if a.Description != "" {
		body += "\n\n" + a.Description
	}
	if err := s.announcer.SendAnnouncement(ctx, a.TenantID, "Assembleia: "+a.Title, body); err != nil {
		s.log.Warn("assembly announcement failed",
			zap.String("assembly_id", a.ID.Hex()),
			zap.Error(err))
	}
}

// ListAssemblies returns a tenant's assemblies, most recently scheduled
// first. An empty status lists all.
func (s *Service) ListAssemblies(ctx context.Context, tenantID primitive.ObjectID, status string) ([]models.Assembly, error) {
	if status != "" && !models.IsValidAssemblyStatus(status) {
		return nil, apperr.Validation("unknown status " + status)
	}
	return s.assemblies.List(ctx, tenantID, status)
}

// GetAssembly returns one assembly.
func (s *Service) GetAssembly(ctx context.Context, id primitive.ObjectID) (models.Assembly, error) {
	return s.loadAssembly(ctx, id)
}

// UpdateAssembly edits a scheduled assembly.
func (s *Service) UpdateAssembly(ctx context.Context, id primitive.ObjectID, ch AssemblyChanges) (models.Assembly, error) {
	a, err := s.loadAssembly(ctx, id)
	if err != nil {
		return a, err
	}
	if a.Status != models.AssemblyScheduled {
		return models.Assembly{}, apperr.InvalidState("only scheduled assemblies can be edited")
	}

	title, desc, when := a.Title, a.Description, a.ScheduledAt
	if ch.Title != nil {
		if title, err = requireText(*ch.Title, "title"); err != nil {
			return models.Assembly{}, err
		}
	}
	if ch.Description != nil {
		desc = *ch.Description
	}
	if ch.ScheduledAt != nil {
		if ch.ScheduledAt.IsZero() {
			return models.Assembly{}, apperr.Validation("scheduled_at is required")
		}
		when = ch.ScheduledAt.UTC()
	}

	updated, err := s.assemblies.UpdateInfo(ctx, id, title, desc, when, s.now())
	if errors.Is(err, assemblystore.ErrStateChanged) {
		return models.Assembly{}, apperr.InvalidState("only scheduled assemblies can be edited")
	}
	return updated, err
}

// StartAssembly opens a scheduled assembly.
func (s *Service) StartAssembly(ctx context.Context, id primitive.ObjectID) (models.Assembly, error) {
	return s.transition(ctx, id, []string{models.AssemblyScheduled}, models.AssemblyInProgress,
		"only scheduled assemblies can be started", audit.EventAssemblyStarted)
}

// FinishAssembly closes an assembly in progress. It fails while any agenda
// item is open for voting.
func (s *Service) FinishAssembly(ctx context.Context, id primitive.ObjectID) (models.Assembly, error) {
	var out models.Assembly
	err := s.inTxn(ctx, func(ctx context.Context) error {
		a, err := s.loadAssembly(ctx, id)
		if err != nil {
			return err
		}
		if a.Status != models.AssemblyInProgress {
			return apperr.InvalidState("only assemblies in progress can be finished")
		}
		open, err := s.items.CountVoting(ctx, id)
		if err != nil {
			return err
		}
		if open > 0 {
			return apperr.PreconditionFailed("open voting in progress")
		}
		out, err = s.assemblies.Transition(ctx, id, []string{models.AssemblyInProgress}, models.AssemblyFinished, s.now())
		if errors.Is(err, assemblystore.ErrStateChanged) {
			return apperr.InvalidState("only assemblies in progress can be finished")
		}
		return err
	})
	if err != nil {
		return models.Assembly{}, err
	}
	s.transitioned(ctx, out, audit.EventAssemblyFinished)
	return out, nil
}

// CancelAssembly cancels a scheduled or running assembly and clears its
// check-in code.
func (s *Service) CancelAssembly(ctx context.Context, id primitive.ObjectID) (models.Assembly, error) {
	return s.transition(ctx, id, []string{models.AssemblyScheduled, models.AssemblyInProgress}, models.AssemblyCancelled,
		"finished or cancelled assemblies cannot be cancelled", audit.EventAssemblyCancelled)
}

func (s *Service) transition(ctx context.Context, id primitive.ObjectID, from []string, to, msg, event string) (models.Assembly, error) {
	if _, err := s.loadAssembly(ctx, id); err != nil {
		return models.Assembly{}, err
	}
	a, err := s.assemblies.Transition(ctx, id, from, to, s.now())
	if errors.Is(err, assemblystore.ErrStateChanged) {
		return models.Assembly{}, apperr.InvalidState(msg)
	}
	if err != nil {
		return models.Assembly{}, err
	}
	s.transitioned(ctx, a, event)
	return a, nil
}

func (s *Service) transitioned(ctx context.Context, a models.Assembly, event string) {
	s.log.Info("assembly status changed",
		zap.String("assembly_id", a.ID.Hex()),
		zap.String("status", a.Status))
	s.metrics.Transition("assembly", a.Status)
	s.audit.Assembly(ctx, event, a)
}

// DeleteAssembly removes an assembly that is not in progress together with
// its agenda items, participants, votes and minutes.
func (s *Service) DeleteAssembly(ctx context.Context, id primitive.ObjectID) error {
	a, err := s.loadAssembly(ctx, id)
	if err != nil {
		return err
	}
	if a.Status == models.AssemblyInProgress {
		return apperr.InvalidState("assemblies in progress cannot be deleted")
	}

	err = s.inTxn(ctx, func(ctx context.Context) error {
		n, err := s.assemblies.Delete(ctx, id)
		if err != nil {
			return err
		}
		if n == 0 {
			return apperr.InvalidState("assemblies in progress cannot be deleted")
		}
		if _, err := s.votes.DeleteByAssembly(ctx, id); err != nil {
			return err
		}
		if _, err := s.items.DeleteByAssembly(ctx, id); err != nil {
			return err
		}
		if _, err := s.participants.DeleteByAssembly(ctx, id); err != nil {
			return err
		}
		_, err = s.minutes.DeleteByAssembly(ctx, id)
		return err
	})
	if err != nil {
		return err
	}

	s.log.Info("assembly deleted", zap.String("assembly_id", id.Hex()))
	s.audit.Assembly(ctx, audit.EventAssemblyDeleted, a)
	return nil
}

package governance

import (
	"context"
	"errors"

	agendaitemstore "github.com/condovote/assemblyhub/internal/app/store/agendaitems"
	assemblystore "github.com/condovote/assemblyhub/internal/app/store/assemblies"
	"github.com/condovote/assemblyhub/internal/app/store/audit"
	"github.com/condovote/assemblyhub/internal/app/system/apperr"
	"github.com/condovote/assemblyhub/internal/app/system/tally"
	"github.com/condovote/assemblyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// NewItem is the input of CreateItem. A nil OrderIndex appends the item to
// the end of the agenda.
type NewItem struct {
	Title          string
	Description    string
	RequiresQuorum bool
	QuorumType     string
	OrderIndex     *int
}

// ItemChanges carries the editable fields of an agenda item. Nil fields are
// unchanged. Status is not editable; it only moves through StartVoting and
// CloseVoting.
type ItemChanges struct {
	Title          *string
	Description    *string
	RequiresQuorum *bool
	QuorumType     *string
	OrderIndex     *int
}

// CreateItem adds an item to a scheduled assembly.
func (s *Service) CreateItem(ctx context.Context, assemblyID primitive.ObjectID, in NewItem) (models.AgendaItem, error) {
	title, err := requireText(in.Title, "title")
	if err != nil {
		return models.AgendaItem{}, err
	}
	quorum := in.QuorumType
	if quorum == "" {
		quorum = models.QuorumSimple
	}
	if !models.IsValidQuorumType(quorum) {
		return models.AgendaItem{}, apperr.Validation("unknown quorum type " + quorum)
	}
	if in.OrderIndex != nil && *in.OrderIndex < 0 {
		return models.AgendaItem{}, apperr.Validation("order_index must not be negative")
	}

	a, err := s.loadAssembly(ctx, assemblyID)
	if err != nil {
		return models.AgendaItem{}, err
	}
	if a.Status != models.AssemblyScheduled {
		return models.AgendaItem{}, apperr.InvalidState("items can only be added to scheduled assemblies")
	}

	var item models.AgendaItem
	err = s.inTxn(ctx, func(ctx context.Context) error {
		if err := s.assemblies.TouchAgenda(ctx, assemblyID); err != nil {
			if errors.Is(err, assemblystore.ErrStateChanged) {
				return apperr.InvalidState("items can only be added to scheduled assemblies")
			}
			return err
		}
		var index int
		if in.OrderIndex != nil {
			index = *in.OrderIndex
		} else {
			last, ok, err := s.items.MaxOrderIndex(ctx, assemblyID)
			if err != nil {
				return err
			}
			if ok {
				index = last + 1
			}
		}

		created, err := s.items.Create(ctx, models.AgendaItem{
			AssemblyID:     assemblyID,
			TenantID:       a.TenantID,
			OrderIndex:     index,
			Title:          title,
			Description:    in.Description,
			RequiresQuorum: in.RequiresQuorum,
			QuorumType:     quorum,
			CreatedAt:      s.now(),
		})
		item = created
		return err
	})
	if err != nil {
		return models.AgendaItem{}, err
	}
	return item, nil
}

// ListItems returns the agenda of an assembly in order.
func (s *Service) ListItems(ctx context.Context, assemblyID primitive.ObjectID) ([]models.AgendaItem, error) {
	if _, err := s.loadAssembly(ctx, assemblyID); err != nil {
		return nil, err
	}
	return s.items.ListByAssembly(ctx, assemblyID)
}

// GetItem returns one agenda item.
func (s *Service) GetItem(ctx context.Context, itemID primitive.ObjectID) (models.AgendaItem, error) {
	return s.loadItem(ctx, itemID)
}

// UpdateItem edits an item that is not closed.
func (s *Service) UpdateItem(ctx context.Context, itemID primitive.ObjectID, ch ItemChanges) (models.AgendaItem, error) {
	it, err := s.loadItem(ctx, itemID)
	if err != nil {
		return it, err
	}
	if it.Status == models.ItemClosed {
		return models.AgendaItem{}, apperr.InvalidState("closed items cannot be edited or reopened")
	}

	u := agendaitemstore.Update{
		Description:    ch.Description,
		RequiresQuorum: ch.RequiresQuorum,
		OrderIndex:     ch.OrderIndex,
	}
	if ch.Title != nil {
		title, err := requireText(*ch.Title, "title")
		if err != nil {
			return models.AgendaItem{}, err
		}
		u.Title = &title
	}
	if ch.QuorumType != nil {
		if !models.IsValidQuorumType(*ch.QuorumType) {
			return models.AgendaItem{}, apperr.Validation("unknown quorum type " + *ch.QuorumType)
		}
		u.QuorumType = ch.QuorumType
	}
	if ch.OrderIndex != nil {
		if *ch.OrderIndex < 0 {
			return models.AgendaItem{}, apperr.Validation("order_index must not be negative")
		}
	}

	updated, err := s.items.UpdateInfo(ctx, itemID, u, s.now())
	if errors.Is(err, agendaitemstore.ErrStateChanged) {
		return models.AgendaItem{}, apperr.InvalidState("closed items cannot be edited or reopened")
	}
	return updated, err
}

// DeleteItem removes a pending item.
func (s *Service) DeleteItem(ctx context.Context, itemID primitive.ObjectID) error {
	it, err := s.loadItem(ctx, itemID)
	if err != nil {
		return err
	}
	if it.Status != models.ItemPending {
		return apperr.InvalidState("only pending items can be deleted")
	}
	n, err := s.items.Delete(ctx, itemID)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.InvalidState("only pending items can be deleted")
	}
	return nil
}

// StartVoting opens a pending item of an assembly in progress and issues
// its voting code. At most one item per assembly is open at a time.
func (s *Service) StartVoting(ctx context.Context, itemID primitive.ObjectID) (models.AgendaItem, error) {
	var out models.AgendaItem
	err := s.inTxn(ctx, func(ctx context.Context) error {
		it, err := s.loadItem(ctx, itemID)
		if err != nil {
			return err
		}
		if it.Status != models.ItemPending {
			return apperr.InvalidState("only pending items can be opened for voting")
		}
		a, err := s.loadAssembly(ctx, it.AssemblyID)
		if err != nil {
			return err
		}
		if a.Status != models.AssemblyInProgress {
			return apperr.InvalidState("assembly is not in progress")
		}
		open, err := s.items.CountVoting(ctx, it.AssemblyID)
		if err != nil {
			return err
		}
		if open > 0 {
			return apperr.PreconditionFailed("another item is already open for voting")
		}

		code, err := s.votingOTP.Issue()
		if err != nil {
			return err
		}
		out, err = s.items.StartVoting(ctx, itemID, code)
		switch {
		case errors.Is(err, agendaitemstore.ErrVotingInProgress):
			return apperr.PreconditionFailed("another item is already open for voting")
		case errors.Is(err, agendaitemstore.ErrStateChanged):
			return apperr.InvalidState("only pending items can be opened for voting")
		}
		return err
	})
	if err != nil {
		return models.AgendaItem{}, err
	}

	s.log.Info("voting started",
		zap.String("assembly_id", out.AssemblyID.Hex()),
		zap.String("item_id", out.ID.Hex()))
	s.metrics.Transition("item", models.ItemVoting)
	s.audit.Item(ctx, audit.EventVotingStarted, out)
	return out, nil
}

// CloseVoting closes an open item, stores its formatted result and drops
// its voting code.
func (s *Service) CloseVoting(ctx context.Context, itemID primitive.ObjectID) (models.AgendaItem, tally.Result, error) {
	it, err := s.loadItem(ctx, itemID)
	if err != nil {
		return it, tally.Result{}, err
	}
	if it.Status != models.ItemVoting {
		return models.AgendaItem{}, tally.Result{}, apperr.InvalidState("item is not open for voting")
	}

	// Closing first freezes the vote set: AdmitVote fails from here on, and
	// inside the transaction an in-flight vote conflicts with the close.
	var (
		closed models.AgendaItem
		res    tally.Result
	)
	err = s.inTxn(ctx, func(ctx context.Context) error {
		if _, err := s.items.CloseVoting(ctx, itemID, s.now()); err != nil {
			if errors.Is(err, agendaitemstore.ErrStateChanged) {
				return apperr.InvalidState("item is not open for voting")
			}
			return err
		}
		votes, err := s.votes.ListByItem(ctx, itemID)
		if err != nil {
			return err
		}
		res = tally.Compute(votes, it.QuorumType)
		closed, err = s.items.SetResult(ctx, itemID, res.Format())
		return err
	})
	if err != nil {
		return models.AgendaItem{}, tally.Result{}, err
	}

	s.log.Info("voting closed",
		zap.String("assembly_id", closed.AssemblyID.Hex()),
		zap.String("item_id", closed.ID.Hex()),
		zap.String("result", closed.Result))
	s.metrics.Transition("item", models.ItemClosed)
	s.audit.Item(ctx, audit.EventVotingClosed, closed)
	return closed, res, nil
}

// GetVoteResult tallies the votes of an item in any status.
func (s *Service) GetVoteResult(ctx context.Context, itemID primitive.ObjectID) (tally.Result, error) {
	it, err := s.loadItem(ctx, itemID)
	if err != nil {
		return tally.Result{}, err
	}
	votes, err := s.votes.ListByItem(ctx, itemID)
	if err != nil {
		return tally.Result{}, err
	}
	return tally.Compute(votes, it.QuorumType), nil
}

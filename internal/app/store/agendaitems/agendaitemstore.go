// internal/app/store/agendaitems/agendaitemstore.go
package agendaitemstore

import (
	"context"
	"errors"
	"time"

	"github.com/condovote/assemblyhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound = errors.New("agenda item not found")
	// ErrVotingInProgress is returned when another item of the same
	// assembly already holds the voting slot.
	ErrVotingInProgress = errors.New("another item is already open for voting")
	ErrStateChanged     = errors.New("agenda item status changed")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("agenda_items")}
}

// Update carries the editable fields of an item. Nil fields are unchanged.
type Update struct {
	Title          *string
	Description    *string
	RequiresQuorum *bool
	QuorumType     *string
	OrderIndex     *int
}

func (s *Store) Create(ctx context.Context, item models.AgendaItem) (models.AgendaItem, error) {
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	item.ID = primitive.NewObjectID()
	item.Status = models.ItemPending
	item.UpdatedAt = item.CreatedAt
	if _, err := s.c.InsertOne(ctx, item); err != nil {
		return models.AgendaItem{}, err
	}
	return item, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.AgendaItem, error) {
	var item models.AgendaItem
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&item); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.AgendaItem{}, ErrNotFound
		}
		return models.AgendaItem{}, err
	}
	return item, nil
}

// ListByAssembly returns the agenda in order. Ties on order_index fall back
// to insertion order.
func (s *Store) ListByAssembly(ctx context.Context, assemblyID primitive.ObjectID) ([]models.AgendaItem, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "order_index", Value: 1},
		{Key: "created_at", Value: 1},
		{Key: "_id", Value: 1},
	})
	cur, err := s.c.Find(ctx, bson.M{"assembly_id": assemblyID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.AgendaItem{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MaxOrderIndex returns the highest order index of the assembly's items.
// ok is false when the assembly has no items.
func (s *Store) MaxOrderIndex(ctx context.Context, assemblyID primitive.ObjectID) (last int, ok bool, err error) {
	var item models.AgendaItem
	err = s.c.FindOne(ctx,
		bson.M{"assembly_id": assemblyID},
		options.FindOne().SetSort(bson.D{{Key: "order_index", Value: -1}}).SetProjection(bson.M{"order_index": 1}),
	).Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return item.OrderIndex, true, nil
}

// CountVoting returns how many items of the assembly are open for voting.
func (s *Store) CountVoting(ctx context.Context, assemblyID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"assembly_id": assemblyID, "status": models.ItemVoting})
}

// UpdateInfo applies u to an item that is not closed.
func (s *Store) UpdateInfo(ctx context.Context, id primitive.ObjectID, u Update, now time.Time) (models.AgendaItem, error) {
	set := bson.M{"updated_at": now}
	if u.Title != nil {
		set["title"] = *u.Title
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.RequiresQuorum != nil {
		set["requires_quorum"] = *u.RequiresQuorum
	}
	if u.QuorumType != nil {
		set["quorum_type"] = *u.QuorumType
	}
	if u.OrderIndex != nil {
		set["order_index"] = *u.OrderIndex
	}
	return s.conditional(ctx,
		bson.M{"_id": id, "status": bson.M{"$ne": models.ItemClosed}},
		bson.M{"$set": set},
	)
}

// StartVoting opens a pending item and stores its first voting code.
// The partial unique index on voting items turns a concurrent second
// opener into ErrVotingInProgress.
func (s *Store) StartVoting(ctx context.Context, id primitive.ObjectID, code models.OTP) (models.AgendaItem, error) {
	item, err := s.conditional(ctx,
		bson.M{"_id": id, "status": models.ItemPending},
		bson.M{"$set": bson.M{
			"status":            models.ItemVoting,
			"voting_started_at": code.IssuedAt,
			"voting_otp":        code,
			"updated_at":        code.IssuedAt,
		}},
	)
	if err != nil && wafflemongo.IsDup(err) {
		return models.AgendaItem{}, ErrVotingInProgress
	}
	return item, err
}

// SetVotingOTP overwrites the voting code of an item that is voting.
func (s *Store) SetVotingOTP(ctx context.Context, id primitive.ObjectID, code models.OTP) (models.AgendaItem, error) {
	return s.conditional(ctx,
		bson.M{"_id": id, "status": models.ItemVoting},
		bson.M{"$set": bson.M{"voting_otp": code, "updated_at": code.IssuedAt}},
	)
}

// AdmitVote stamps a voting item before a vote is stored. It fails with
// ErrStateChanged once the item has left the voting state, and inside a
// transaction it conflicts with a concurrent CloseVoting.
func (s *Store) AdmitVote(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.ItemVoting},
		bson.M{"$set": bson.M{"last_vote_at": at}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrStateChanged
	}
	return nil
}

// CloseVoting moves a voting item to closed and drops its code. The result
// is written afterwards with SetResult, once the vote set can no longer grow.
func (s *Store) CloseVoting(ctx context.Context, id primitive.ObjectID, at time.Time) (models.AgendaItem, error) {
	return s.conditional(ctx,
		bson.M{"_id": id, "status": models.ItemVoting},
		bson.M{
			"$set": bson.M{
				"status":          models.ItemClosed,
				"voting_ended_at": at,
				"updated_at":      at,
			},
			"$unset": bson.M{"voting_otp": ""},
		},
	)
}

// SetResult records the formatted outcome of a closed item.
func (s *Store) SetResult(ctx context.Context, id primitive.ObjectID, result string) (models.AgendaItem, error) {
	return s.conditional(ctx,
		bson.M{"_id": id, "status": models.ItemClosed},
		bson.M{"$set": bson.M{"result": result}},
	)
}

// Delete removes a pending item. Returns the number of documents deleted.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "status": models.ItemPending})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByAssembly removes every item of an assembly.
func (s *Store) DeleteByAssembly(ctx context.Context, assemblyID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"assembly_id": assemblyID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *Store) conditional(ctx context.Context, filter, update bson.M) (models.AgendaItem, error) {
	var item models.AgendaItem
	err := s.c.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&item)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.AgendaItem{}, ErrStateChanged
		}
		return models.AgendaItem{}, err
	}
	return item, nil
}

// ClearExpiredVotingOTP removes voting codes that expired before now.
func (s *Store) ClearExpiredVotingOTP(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"voting_otp.expires_at": bson.M{"$lt": now}},
		bson.M{"$unset": bson.M{"voting_otp": ""}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

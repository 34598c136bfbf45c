// internal/app/store/votes/votestore.go
package votestore

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
	ErrNotFound = errors.New("vote not found")
	// ErrDuplicateVote is returned by the unique (agenda_item_id,
	// participant_id) index.
	ErrDuplicateVote = errors.New("participant has already voted on this item")
)

// Store is append-only: votes are never updated, and only removed together
// with their assembly.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("votes")}
}

func (s *Store) Create(ctx context.Context, v models.Vote) (models.Vote, error) {
	if v.CastAt.IsZero() {
		v.CastAt = time.Now().UTC()
	}
	v.ID = primitive.NewObjectID()
	if _, err := s.c.InsertOne(ctx, v); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Vote{}, ErrDuplicateVote
		}
		return models.Vote{}, err
	}
	return v, nil
}

// Get returns the vote of a participant on an item.
func (s *Store) Get(ctx context.Context, itemID, participantID primitive.ObjectID) (models.Vote, error) {
	var v models.Vote
	err := s.c.FindOne(ctx, bson.M{"agenda_item_id": itemID, "participant_id": participantID}).Decode(&v)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Vote{}, ErrNotFound
		}
		return models.Vote{}, err
	}
	return v, nil
}

// ListByItem returns every vote on an item in cast order.
func (s *Store) ListByItem(ctx context.Context, itemID primitive.ObjectID) ([]models.Vote, error) {
	return s.list(ctx, bson.M{"agenda_item_id": itemID})
}

// ListByParticipant returns every vote a participant cast.
func (s *Store) ListByParticipant(ctx context.Context, participantID primitive.ObjectID) ([]models.Vote, error) {
	return s.list(ctx, bson.M{"participant_id": participantID})
}

func (s *Store) list(ctx context.Context, filter bson.M) ([]models.Vote, error) {
	opts := options.Find().SetSort(bson.D{{Key: "cast_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Vote{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// HasVoted reports whether the participant cast any vote.
func (s *Store) HasVoted(ctx context.Context, participantID primitive.ObjectID) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"participant_id": participantID}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteByAssembly removes every vote of an assembly.
func (s *Store) DeleteByAssembly(ctx context.Context, assemblyID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"assembly_id": assemblyID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

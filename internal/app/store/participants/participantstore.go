// internal/app/store/participants/participantstore.go
package participantstore

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
	ErrNotFound      = errors.New("participant not found")
	ErrDuplicateUnit = errors.New("unit is already registered for this assembly")
	// ErrStateChanged is returned when a presence compare-and-set loses.
	ErrStateChanged = errors.New("participant presence changed")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("assembly_participants")}
}

// Proxy carries a new representative installed on re-entry. A new
// representative puts the participant back into pending approval.
type Proxy struct {
	Name     string
	Document string
}

func (s *Store) Create(ctx context.Context, p models.Participant) (models.Participant, error) {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	p.ID = primitive.NewObjectID()
	p.UpdatedAt = p.CreatedAt
	if p.VotingWeight.Decimal.IsZero() {
		p.VotingWeight = models.DefaultWeight
	}
	if p.ApprovalStatus == "" {
		p.ApprovalStatus = models.ApprovalPending
	}
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Participant{}, ErrDuplicateUnit
		}
		return models.Participant{}, err
	}
	return p, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Participant, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetByUnit returns the seat of a unit at an assembly.
func (s *Store) GetByUnit(ctx context.Context, assemblyID, unitID primitive.ObjectID) (models.Participant, error) {
	return s.findOne(ctx, bson.M{"assembly_id": assemblyID, "unit_id": unitID})
}

// GetBySessionHash resolves a participant from a session token digest.
func (s *Store) GetBySessionHash(ctx context.Context, hash string) (models.Participant, error) {
	if hash == "" {
		return models.Participant{}, ErrNotFound
	}
	return s.findOne(ctx, bson.M{"session_token_hash": hash})
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (models.Participant, error) {
	var p models.Participant
	if err := s.c.FindOne(ctx, filter).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Participant{}, ErrNotFound
		}
		return models.Participant{}, err
	}
	return p, nil
}

// ListByAssembly returns every participant of an assembly, by unit.
func (s *Store) ListByAssembly(ctx context.Context, assemblyID primitive.ObjectID) ([]models.Participant, error) {
	return s.list(ctx, bson.M{"assembly_id": assemblyID})
}

// ListPresent returns the participants currently in the room.
func (s *Store) ListPresent(ctx context.Context, assemblyID primitive.ObjectID) ([]models.Participant, error) {
	return s.list(ctx, bson.M{
		"assembly_id": assemblyID,
		"joined_at":   bson.M{"$ne": nil},
		"left_at":     nil,
	})
}

func (s *Store) list(ctx context.Context, filter bson.M) ([]models.Participant, error) {
	opts := options.Find().SetSort(bson.D{{Key: "unit_identifier", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Participant{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Reenter marks a participant who is not currently present as joined again.
// The filter is the compare-and-set guard: a participant already present
// yields ErrStateChanged.
func (s *Store) Reenter(ctx context.Context, id primitive.ObjectID, at time.Time, proxy *Proxy, sessionHash string) (models.Participant, error) {
	set := bson.M{
		"joined_at":          at,
		"session_token_hash": sessionHash,
		"updated_at":         at,
	}
	unset := bson.M{"left_at": ""}
	if proxy != nil {
		set["proxy_name"] = proxy.Name
		set["proxy_document"] = proxy.Document
		set["approval_status"] = models.ApprovalPending
		unset["rejection_reason"] = ""
	}
	filter := bson.M{
		"_id": id,
		"$or": bson.A{
			bson.M{"joined_at": nil},
			bson.M{"left_at": bson.M{"$ne": nil}},
		},
	}
	p, err := s.conditional(ctx, filter, bson.M{"$set": set, "$unset": unset})
	if err != nil && wafflemongo.IsDup(err) {
		return models.Participant{}, ErrStateChanged
	}
	return p, err
}

// Checkout records the participant leaving. Only a present participant
// can check out.
func (s *Store) Checkout(ctx context.Context, id primitive.ObjectID, at time.Time) (models.Participant, error) {
	return s.conditional(ctx,
		bson.M{"_id": id, "joined_at": bson.M{"$ne": nil}, "left_at": nil},
		bson.M{"$set": bson.M{"left_at": at, "updated_at": at}},
	)
}

// UpdateWeight changes the participant's voting weight. Votes already cast
// keep their own snapshot.
func (s *Store) UpdateWeight(ctx context.Context, id primitive.ObjectID, w models.Weight, now time.Time) (models.Participant, error) {
	return s.conditional(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"voting_weight": w, "updated_at": now}})
}

// SetApproval records an approval decision.
func (s *Store) SetApproval(ctx context.Context, id primitive.ObjectID, status, reason string, now time.Time) (models.Participant, error) {
	set := bson.M{"approval_status": status, "updated_at": now}
	update := bson.M{"$set": set}
	if reason != "" {
		set["rejection_reason"] = reason
	} else {
		update["$unset"] = bson.M{"rejection_reason": ""}
	}
	return s.conditional(ctx, bson.M{"_id": id}, update)
}

// Delete removes a participant. Returns the number of documents deleted.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByAssembly removes every participant of an assembly.
func (s *Store) DeleteByAssembly(ctx context.Context, assemblyID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"assembly_id": assemblyID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *Store) conditional(ctx context.Context, filter, update bson.M) (models.Participant, error) {
	var p models.Participant
	err := s.c.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Participant{}, ErrStateChanged
		}
		return models.Participant{}, err
	}
	return p, nil
}

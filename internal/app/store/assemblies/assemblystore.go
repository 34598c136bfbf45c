// internal/app/store/assemblies/assemblystore.go
package assemblystore

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
	ErrNotFound       = errors.New("assembly not found")
	ErrDuplicateToken = errors.New("check-in token already in use")
	// ErrStateChanged is returned when a conditional update finds the
	// assembly in a status other than the one it was filtered on.
	ErrStateChanged = errors.New("assembly status changed")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("assemblies")}
}

// Create inserts a new scheduled assembly.
func (s *Store) Create(ctx context.Context, a models.Assembly) (models.Assembly, error) {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	a.ID = primitive.NewObjectID()
	a.Status = models.AssemblyScheduled
	a.AgendaRev = 0
	a.UpdatedAt = a.CreatedAt
	if _, err := s.c.InsertOne(ctx, a); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Assembly{}, ErrDuplicateToken
		}
		return models.Assembly{}, err
	}
	return a, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Assembly, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetByCheckinToken resolves the assembly behind a public check-in token.
func (s *Store) GetByCheckinToken(ctx context.Context, token string) (models.Assembly, error) {
	if token == "" {
		return models.Assembly{}, ErrNotFound
	}
	return s.findOne(ctx, bson.M{"checkin_token": token})
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (models.Assembly, error) {
	var a models.Assembly
	if err := s.c.FindOne(ctx, filter).Decode(&a); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Assembly{}, ErrNotFound
		}
		return models.Assembly{}, err
	}
	return a, nil
}

// List returns a tenant's assemblies, most recently scheduled first.
// An empty status returns every status.
func (s *Store) List(ctx context.Context, tenantID primitive.ObjectID, status string) ([]models.Assembly, error) {
	filter := bson.M{"tenant_id": tenantID}
	if status != "" {
		filter["status"] = status
	}
	opts := options.Find().SetSort(bson.D{{Key: "scheduled_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Assembly{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateInfo rewrites the descriptive fields while the assembly is scheduled.
func (s *Store) UpdateInfo(ctx context.Context, id primitive.ObjectID, title, description string, scheduledAt, now time.Time) (models.Assembly, error) {
	set := bson.M{
		"title":        title,
		"description":  description,
		"scheduled_at": scheduledAt,
		"updated_at":   now,
	}
	return s.conditional(ctx, bson.M{"_id": id, "status": models.AssemblyScheduled}, bson.M{"$set": set})
}

// Transition moves the assembly from one of the given states to `to` and
// stamps the matching timestamp. Cancelling also clears the check-in code.
func (s *Store) Transition(ctx context.Context, id primitive.ObjectID, from []string, to string, at time.Time) (models.Assembly, error) {
	set := bson.M{"status": to, "updated_at": at}
	update := bson.M{}
	switch to {
	case models.AssemblyInProgress:
		set["started_at"] = at
	case models.AssemblyFinished:
		set["finished_at"] = at
	case models.AssemblyCancelled:
		set["cancelled_at"] = at
		update["$unset"] = bson.M{"checkin_otp": ""}
	}
	update["$set"] = set
	return s.conditional(ctx, bson.M{"_id": id, "status": bson.M{"$in": from}}, update)
}

// SetCheckinToken replaces the public check-in token.
func (s *Store) SetCheckinToken(ctx context.Context, id primitive.ObjectID, token string, now time.Time) (models.Assembly, error) {
	a, err := s.conditional(ctx,
		bson.M{"_id": id, "status": bson.M{"$in": []string{models.AssemblyScheduled, models.AssemblyInProgress}}},
		bson.M{"$set": bson.M{"checkin_token": token, "updated_at": now}},
	)
	if err != nil && wafflemongo.IsDup(err) {
		return models.Assembly{}, ErrDuplicateToken
	}
	return a, err
}

// SetCheckinOTP overwrites the check-in code. Last writer wins.
func (s *Store) SetCheckinOTP(ctx context.Context, id primitive.ObjectID, code models.OTP) (models.Assembly, error) {
	return s.conditional(ctx,
		bson.M{"_id": id, "status": bson.M{"$in": []string{models.AssemblyScheduled, models.AssemblyInProgress}}},
		bson.M{"$set": bson.M{"checkin_otp": code, "updated_at": code.IssuedAt}},
	)
}

// TouchAgenda bumps the agenda revision of a scheduled assembly. Inside a
// transaction the write makes concurrent agenda changes conflict.
func (s *Store) TouchAgenda(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.conditional(ctx,
		bson.M{"_id": id, "status": models.AssemblyScheduled},
		bson.M{"$inc": bson.M{"agenda_rev": 1}},
	)
	return err
}

// Delete removes an assembly that is not in progress.
// Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "status": bson.M{"$ne": models.AssemblyInProgress}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *Store) conditional(ctx context.Context, filter, update bson.M) (models.Assembly, error) {
	var a models.Assembly
	err := s.c.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&a)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Assembly{}, ErrStateChanged
		}
		return models.Assembly{}, err
	}
	return a, nil
}

// ClearExpiredCheckinOTP removes check-in codes that expired before now.
func (s *Store) ClearExpiredCheckinOTP(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"checkin_otp.expires_at": bson.M{"$lt": now}},
		bson.M{"$unset": bson.M{"checkin_otp": ""}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

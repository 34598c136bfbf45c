// internal/app/store/minutes/minutesstore.go
package minutesstore

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
	ErrNotFound = errors.New("minutes not found")
	// ErrStateChanged is returned when the minutes are not in a status the
	// requested change is allowed from.
	ErrStateChanged = errors.New("minutes status does not allow this change")
)

// Regenerable lists the states in which minutes may be regenerated.
var Regenerable = []string{models.MinutesDraft, models.MinutesPendingReview}

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("minutes")}
}

func (s *Store) GetByAssembly(ctx context.Context, assemblyID primitive.ObjectID) (models.Minutes, error) {
	var m models.Minutes
	if err := s.c.FindOne(ctx, bson.M{"assembly_id": assemblyID}).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Minutes{}, ErrNotFound
		}
		return models.Minutes{}, err
	}
	return m, nil
}

// SaveGenerated writes freshly generated minutes. It creates the document
// as a draft, or overwrites one that is still regenerable; the status of an
// existing document is left as is. Approved or published minutes match
// neither branch and the upsert collides with the unique assembly index.
func (s *Store) SaveGenerated(ctx context.Context, m models.Minutes) (models.Minutes, error) {
	now := m.GeneratedAt
	update := bson.M{
		"$set": bson.M{
			"tenant_id":          m.TenantID,
			"content":            m.Content,
			"summary":            m.Summary,
			"vote_summary":       m.VoteSummary,
			"attendance_summary": m.AttendanceSummary,
			"generated_at":       m.GeneratedAt,
			"updated_at":         now,
		},
		"$setOnInsert": bson.M{
			"_id":        primitive.NewObjectID(),
			"status":     models.MinutesDraft,
			"created_at": now,
		},
	}
	filter := bson.M{"assembly_id": m.AssemblyID, "status": bson.M{"$in": Regenerable}}

	var out models.Minutes
	err := s.c.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&out)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.Minutes{}, ErrStateChanged
		}
		return models.Minutes{}, err
	}
	return out, nil
}

// UpdateText edits content and/or summary of unpublished minutes.
func (s *Store) UpdateText(ctx context.Context, assemblyID primitive.ObjectID, content, summary *string, now time.Time) (models.Minutes, error) {
	set := bson.M{"updated_at": now}
	if content != nil {
		set["content"] = *content
	}
	if summary != nil {
		set["summary"] = *summary
	}
	return s.conditional(ctx,
		bson.M{"assembly_id": assemblyID, "status": bson.M{"$ne": models.MinutesPublished}},
		bson.M{"$set": set},
	)
}

// SubmitForReview moves a draft to pending_review.
func (s *Store) SubmitForReview(ctx context.Context, assemblyID primitive.ObjectID, now time.Time) (models.Minutes, error) {
	return s.conditional(ctx,
		bson.M{"assembly_id": assemblyID, "status": models.MinutesDraft},
		bson.M{"$set": bson.M{"status": models.MinutesPendingReview, "updated_at": now}},
	)
}

// Approve approves unpublished minutes on behalf of approver.
func (s *Store) Approve(ctx context.Context, assemblyID primitive.ObjectID, approver *primitive.ObjectID, now time.Time) (models.Minutes, error) {
	set := bson.M{"status": models.MinutesApproved, "approved_at": now, "updated_at": now}
	if approver != nil {
		set["approved_by_id"] = *approver
	}
	return s.conditional(ctx,
		bson.M{"assembly_id": assemblyID, "status": bson.M{"$ne": models.MinutesPublished}},
		bson.M{"$set": set},
	)
}

// Publish freezes approved minutes.
func (s *Store) Publish(ctx context.Context, assemblyID primitive.ObjectID, now time.Time) (models.Minutes, error) {
	return s.conditional(ctx,
		bson.M{"assembly_id": assemblyID, "status": models.MinutesApproved},
		bson.M{"$set": bson.M{"status": models.MinutesPublished, "published_at": now, "updated_at": now}},
	)
}

// DeleteByAssembly removes the minutes of an assembly.
func (s *Store) DeleteByAssembly(ctx context.Context, assemblyID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"assembly_id": assemblyID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *Store) conditional(ctx context.Context, filter, update bson.M) (models.Minutes, error) {
	var m models.Minutes
	err := s.c.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Minutes{}, ErrStateChanged
		}
		return models.Minutes{}, err
	}
	return m, nil
}

// internal/app/store/announcements/store.go
package announcements

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Announcement is a notice queued for a condominium's residents. Delivery
// belongs to the notification service, which reads this collection.
type Announcement struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	TenantID  primitive.ObjectID `bson:"tenant_id" json:"tenant_id"`
	Title     string             `bson:"title" json:"title"`
	Body      string             `bson:"body" json:"body"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("announcements")}
}

// SendAnnouncement queues an announcement for a tenant.
func (s *Store) SendAnnouncement(ctx context.Context, tenantID primitive.ObjectID, title, body string) error {
	_, err := s.c.InsertOne(ctx, Announcement{
		ID:        primitive.NewObjectID(),
		TenantID:  tenantID,
		Title:     title,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	})
	return err
}

// ListByTenant returns a tenant's most recent announcements.
func (s *Store) ListByTenant(ctx context.Context, tenantID primitive.ObjectID, limit int64) ([]Announcement, error) {
	if limit <= 0 {
		limit = 50
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit)
	cur, err := s.c.Find(ctx, bson.M{"tenant_id": tenantID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []Announcement{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

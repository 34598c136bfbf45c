// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event categories
const (
	CategoryGovernance = "governance" // operator actions: lifecycle, agenda, votes, minutes
	CategoryAttendance = "attendance" // participant actions: check-in, checkout, code checks
)

// Governance event types
const (
	EventAssemblyCreated   = "assembly_created"
	EventAssemblyStarted   = "assembly_started"
	EventAssemblyFinished  = "assembly_finished"
	EventAssemblyCancelled = "assembly_cancelled"
	EventAssemblyDeleted   = "assembly_deleted"
	EventCheckinOTPIssued  = "checkin_otp_issued"
	EventVotingStarted     = "voting_started"
	EventVotingClosed      = "voting_closed"
	EventVotingOTPIssued   = "voting_otp_issued"
	EventVoteCast          = "vote_cast"
	EventParticipantAdded  = "participant_registered"
	EventParticipantWeight = "participant_weight_changed"
	EventParticipantOK     = "participant_approved"
	EventParticipantDenied = "participant_rejected"
	EventParticipantRemove = "participant_removed"
	EventMinutesGenerated  = "minutes_generated"
	EventMinutesApproved   = "minutes_approved"
	EventMinutesPublished  = "minutes_published"
)

// Attendance event types
const (
	EventCheckin       = "checkin"
	EventReentry       = "reentry"
	EventCheckout      = "checkout"
	EventCheckinFailed = "checkin_failed"
)

// Event represents one entry of an assembly's event trail.
type Event struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time           `bson:"created_at" json:"created_at"`
	TenantID  *primitive.ObjectID `bson:"tenant_id,omitempty" json:"tenant_id,omitempty"`

	// Event classification
	Category  string `bson:"category" json:"category"`
	EventType string `bson:"event_type" json:"event_type"`

	// Subject
	AssemblyID    *primitive.ObjectID `bson:"assembly_id,omitempty" json:"assembly_id,omitempty"`
	AgendaItemID  *primitive.ObjectID `bson:"agenda_item_id,omitempty" json:"agenda_item_id,omitempty"`
	ParticipantID *primitive.ObjectID `bson:"participant_id,omitempty" json:"participant_id,omitempty"`

	// Who and from where. ActorID is the external identity subject.
	ActorID   string `bson:"actor_id,omitempty" json:"actor_id,omitempty"`
	IP        string `bson:"ip,omitempty" json:"ip,omitempty"`
	UserAgent string `bson:"user_agent,omitempty" json:"-"`

	// Outcome
	Success       bool   `bson:"success" json:"success"`
	FailureReason string `bson:"failure_reason,omitempty" json:"failure_reason,omitempty"`

	Details map[string]string `bson:"details,omitempty" json:"details,omitempty"`
}

// QueryFilter defines filters for querying events.
type QueryFilter struct {
	TenantID      *primitive.ObjectID
	AssemblyID    *primitive.ObjectID
	ParticipantID *primitive.ObjectID
	Category      string
	EventType     string
	StartTime     *time.Time
	EndTime       *time.Time
	Limit         int64
	Offset        int64
}

// Store manages event trail records.
type Store struct {
	c *mongo.Collection
}

// New creates a new audit Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_events")}
}

// Log records an event.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, event)
	return err
}

func (f QueryFilter) query() bson.M {
	query := bson.M{}
	if f.TenantID != nil {
		query["tenant_id"] = *f.TenantID
	}
	if f.AssemblyID != nil {
		query["assembly_id"] = *f.AssemblyID
	}
	if f.ParticipantID != nil {
		query["participant_id"] = *f.ParticipantID
	}
	if f.Category != "" {
		query["category"] = f.Category
	}
	if f.EventType != "" {
		query["event_type"] = f.EventType
	}
	if f.StartTime != nil || f.EndTime != nil {
		timeQuery := bson.M{}
		if f.StartTime != nil {
			timeQuery["$gte"] = *f.StartTime
		}
		if f.EndTime != nil {
			timeQuery["$lte"] = *f.EndTime
		}
		query["created_at"] = timeQuery
	}
	return query
}

// Query retrieves events matching the filter, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit).
		SetSkip(filter.Offset)

	cursor, err := s.c.Find(ctx, filter.query(), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	events := []Event{}
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// CountByFilter returns the count of events matching the filter.
func (s *Store) CountByFilter(ctx context.Context, filter QueryFilter) (int64, error) {
	return s.c.CountDocuments(ctx, filter.query())
}

// ListByAssembly retrieves the most recent events of one assembly.
func (s *Store) ListByAssembly(ctx context.Context, assemblyID primitive.ObjectID, limit int64) ([]Event, error) {
	return s.Query(ctx, QueryFilter{AssemblyID: &assemblyID, Limit: limit})
}

package validators_test

import (
	"context"
	"testing"
	"time"

	"github.com/condovote/assemblyhub/internal/app/system/validators"
	"github.com/condovote/assemblyhub/internal/domain/models"
	"github.com/condovote/assemblyhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func setup(t *testing.T) (*mongo.Database, context.Context) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	t.Cleanup(cancel)
	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	return db, ctx
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db, ctx := setup(t)
	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesCollections(t *testing.T) {
	db, ctx := setup(t)

	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		t.Fatalf("ListCollectionNames failed: %v", err)
	}
	collMap := make(map[string]bool)
	for _, name := range names {
		collMap[name] = true
	}

	for _, expected := range []string{
		"assemblies", "agenda_items", "assembly_participants",
		"votes", "minutes", "audit_events", "announcements",
	} {
		if !collMap[expected] {
			t.Errorf("expected collection %q to exist", expected)
		}
	}
}

func TestAssembliesValidator(t *testing.T) {
	db, ctx := setup(t)
	coll := db.Collection("assemblies")

	tests := []struct {
		name    string
		doc     bson.M
		wantErr bool
	}{
		{"missing required fields", bson.M{"title": "AGO"}, true},
		{"valid", bson.M{
			"tenant_id": primitive.NewObjectID(), "title": "AGO 2026",
			"status": models.AssemblyScheduled, "scheduled_at": time.Now(),
		}, false},
		{"unknown status", bson.M{
			"tenant_id": primitive.NewObjectID(), "title": "AGO 2026",
			"status": "paused", "scheduled_at": time.Now(),
		}, true},
		{"blank title", bson.M{
			"tenant_id": primitive.NewObjectID(), "title": "   ",
			"status": models.AssemblyScheduled, "scheduled_at": time.Now(),
		}, true},
		{"malformed otp", bson.M{
			"tenant_id": primitive.NewObjectID(), "title": "AGO 2026",
			"status": models.AssemblyScheduled, "scheduled_at": time.Now(),
			"checkin_otp": bson.M{"code": "12ab", "expires_at": time.Now()},
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := coll.InsertOne(ctx, tt.doc)
			if (err != nil) != tt.wantErr {
				t.Errorf("InsertOne err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAgendaItemsValidator_InvalidQuorumType(t *testing.T) {
	db, ctx := setup(t)
	_, err := db.Collection("agenda_items").InsertOne(ctx, bson.M{
		"assembly_id": primitive.NewObjectID(),
		"tenant_id":   primitive.NewObjectID(),
		"title":       "Obras",
		"order_index": 0,
		"status":      models.ItemPending,
		"quorum_type": "majority",
	})
	if err == nil {
		t.Error("expected validation error for unknown quorum type")
	}
}

func TestVotesValidator(t *testing.T) {
	db, ctx := setup(t)
	coll := db.Collection("votes")

	valid := models.Vote{
		ID:            primitive.NewObjectID(),
		AssemblyID:    primitive.NewObjectID(),
		AgendaItemID:  primitive.NewObjectID(),
		ParticipantID: primitive.NewObjectID(),
		UnitID:        primitive.NewObjectID(),
		Choice:        models.ChoiceYes,
		VotingWeight:  models.DefaultWeight,
		CastBy:        models.CastByOperator,
		CastAt:        time.Now(),
	}
	if _, err := coll.InsertOne(ctx, valid); err != nil {
		t.Fatalf("insert valid vote failed: %v", err)
	}

	invalid := valid
	invalid.ID = primitive.NewObjectID()
	invalid.AgendaItemID = primitive.NewObjectID()
	invalid.Choice = "MAYBE"
	if _, err := coll.InsertOne(ctx, invalid); err == nil {
		t.Error("expected validation error for unknown choice")
	}
}

func TestParticipantsValidator_WeightMustBeDecimal(t *testing.T) {
	db, ctx := setup(t)
	_, err := db.Collection("assembly_participants").InsertOne(ctx, bson.M{
		"assembly_id":     primitive.NewObjectID(),
		"tenant_id":       primitive.NewObjectID(),
		"unit_id":         primitive.NewObjectID(),
		"voting_weight":   "one",
		"approval_status": models.ApprovalApproved,
	})
	if err == nil {
		t.Error("expected validation error for string weight")
	}
}

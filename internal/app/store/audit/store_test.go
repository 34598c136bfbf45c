package audit_test

import (
	"testing"
	"time"

	"github.com/condovote/assemblyhub/internal/app/store/audit"
	"github.com/condovote/assemblyhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_LogAndListByAssembly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	assemblyID := primitive.NewObjectID()
	participantID := primitive.NewObjectID()
	for _, et := range []string{audit.EventCheckin, audit.EventCheckout, audit.EventReentry} {
		err := store.Log(ctx, audit.Event{
			Category:      audit.CategoryAttendance,
			EventType:     et,
			AssemblyID:    &assemblyID,
			ParticipantID: &participantID,
			Success:       true,
		})
		if err != nil {
			t.Fatalf("Log(%s) failed: %v", et, err)
		}
	}
	other := primitive.NewObjectID()
	if err := store.Log(ctx, audit.Event{Category: audit.CategoryGovernance, EventType: audit.EventAssemblyCreated, AssemblyID: &other}); err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	events, err := store.ListByAssembly(ctx, assemblyID, 10)
	if err != nil {
		t.Fatalf("ListByAssembly failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	for _, e := range events {
		if e.ID.IsZero() {
			t.Error("expected ID to be auto-generated")
		}
		if e.CreatedAt.IsZero() {
			t.Error("expected CreatedAt to be auto-set")
		}
	}
}

func TestStore_QueryFilters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tenant := primitive.NewObjectID()
	past := time.Now().Add(-2 * time.Hour).UTC()
	_ = store.Log(ctx, audit.Event{TenantID: &tenant, Category: audit.CategoryGovernance, EventType: audit.EventVoteCast, CreatedAt: past})
	_ = store.Log(ctx, audit.Event{TenantID: &tenant, Category: audit.CategoryGovernance, EventType: audit.EventVoteCast})
	_ = store.Log(ctx, audit.Event{TenantID: &tenant, Category: audit.CategoryAttendance, EventType: audit.EventCheckinFailed})

	n, err := store.CountByFilter(ctx, audit.QueryFilter{TenantID: &tenant, EventType: audit.EventVoteCast})
	if err != nil {
		t.Fatalf("CountByFilter failed: %v", err)
	}
	if n != 2 {
		t.Errorf("vote_cast count: got %d, want 2", n)
	}

	since := time.Now().Add(-time.Hour)
	recent, err := store.Query(ctx, audit.QueryFilter{TenantID: &tenant, StartTime: &since})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(recent) != 2 {
		t.Errorf("recent events: got %d, want 2", len(recent))
	}

	att, err := store.Query(ctx, audit.QueryFilter{Category: audit.CategoryAttendance})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(att) != 1 || att[0].EventType != audit.EventCheckinFailed {
		t.Errorf("attendance events: got %+v", att)
	}
}

package testutil

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/condovote/assemblyhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// Tenant is a directory tenant together with its units.
type Tenant struct {
	models.Tenant
	Units []models.Unit
}

// CreateTenant creates a tenant with the given number of units, named
// "Bloco A - 101", "Bloco A - 102", ...
func (f *Fixtures) CreateTenant(ctx context.Context, name string, units int) Tenant {
	f.t.Helper()

	tenant := models.Tenant{ID: primitive.NewObjectID(), Name: name}
	if _, err := f.db.Collection("tenants").InsertOne(ctx, tenant); err != nil {
		f.t.Fatalf("failed to create test tenant: %v", err)
	}

	out := Tenant{Tenant: tenant}
	for i := 0; i < units; i++ {
		u := models.Unit{
			ID:         primitive.NewObjectID(),
			TenantID:   tenant.ID,
			Identifier: fmt.Sprintf("Bloco A - %d", 101+i),
		}
		if _, err := f.db.Collection("units").InsertOne(ctx, u); err != nil {
			f.t.Fatalf("failed to create test unit: %v", err)
		}
		out.Units = append(out.Units, u)
	}
	return out
}

// CreateResident registers a resident of the given unit.
func (f *Fixtures) CreateResident(ctx context.Context, unit models.Unit, fullName string) models.Resident {
	f.t.Helper()

	r := models.Resident{
		ID:       primitive.NewObjectID(),
		TenantID: unit.TenantID,
		UnitID:   unit.ID,
		FullName: fullName,
	}
	if _, err := f.db.Collection("residents").InsertOne(ctx, r); err != nil {
		f.t.Fatalf("failed to create test resident: %v", err)
	}
	return r
}

// CreateAssembly inserts an assembly in the given status directly.
func (f *Fixtures) CreateAssembly(ctx context.Context, tenantID primitive.ObjectID, title, status string) models.Assembly {
	f.t.Helper()

	now := time.Now().UTC()
	a := models.Assembly{
		ID:          primitive.NewObjectID(),
		TenantID:    tenantID,
		Title:       title,
		Status:      status,
		ScheduledAt: now.Add(24 * time.Hour),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	switch status {
	case models.AssemblyInProgress:
		a.StartedAt = &now
	case models.AssemblyFinished:
		a.StartedAt = &now
		a.FinishedAt = &now
	case models.AssemblyCancelled:
		a.CancelledAt = &now
	}
	if _, err := f.db.Collection("assemblies").InsertOne(ctx, a); err != nil {
		f.t.Fatalf("failed to create test assembly: %v", err)
	}
	return a
}

// CreateAgendaItem inserts an item of the assembly in the given status.
func (f *Fixtures) CreateAgendaItem(ctx context.Context, a models.Assembly, orderIndex int, status string) models.AgendaItem {
	f.t.Helper()

	now := time.Now().UTC()
	item := models.AgendaItem{
		ID:         primitive.NewObjectID(),
		AssemblyID: a.ID,
		TenantID:   a.TenantID,
		OrderIndex: orderIndex,
		Title:      fmt.Sprintf("Item %d", orderIndex+1),
		QuorumType: models.QuorumSimple,
		Status:     status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if status != models.ItemPending {
		item.VotingStartedAt = &now
	}
	if status == models.ItemClosed {
		item.VotingEndedAt = &now
	}
	if _, err := f.db.Collection("agenda_items").InsertOne(ctx, item); err != nil {
		f.t.Fatalf("failed to create test agenda item: %v", err)
	}
	return item
}

// CreateParticipant seats a unit at the assembly as an approved resident.
// A nil joinedAt leaves the participant registered but not checked in.
func (f *Fixtures) CreateParticipant(ctx context.Context, a models.Assembly, unit models.Unit, w models.Weight, joinedAt *time.Time) models.Participant {
	f.t.Helper()

	now := time.Now().UTC()
	p := models.Participant{
		ID:             primitive.NewObjectID(),
		AssemblyID:     a.ID,
		TenantID:       a.TenantID,
		UnitID:         unit.ID,
		UnitIdentifier: unit.Identifier,
		ResidentName:   "Morador " + unit.Identifier,
		JoinedAt:       joinedAt,
		VotingWeight:   w,
		ApprovalStatus: models.ApprovalApproved,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := f.db.Collection("assembly_participants").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test participant: %v", err)
	}
	return p
}

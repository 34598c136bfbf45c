package auditlog_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/condovote/assemblyhub/internal/app/features/auditlog"
	"github.com/condovote/assemblyhub/internal/app/store/audit"
	"github.com/condovote/assemblyhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type listBody struct {
	Events []struct {
		EventType  string `json:"event_type"`
		Category   string `json:"category"`
		AssemblyID string `json:"assembly_id"`
	} `json:"events"`
	Page       int      `json:"page"`
	TotalPages int      `json:"total_pages"`
	Total      int64    `json:"total"`
	HasNext    bool     `json:"has_next"`
	EventTypes []string `json:"event_types"`
}

type env struct {
	router   http.Handler
	store    *audit.Store
	tenant   primitive.ObjectID
	assembly primitive.ObjectID
}

func newEnv(t *testing.T) env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := audit.New(db)
	e := env{
		router:   auditlog.Routes(auditlog.NewHandler(store, zap.NewNop())),
		store:    store,
		tenant:   primitive.NewObjectID(),
		assembly: primitive.NewObjectID(),
	}
	other := primitive.NewObjectID()
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	events := []audit.Event{
		{TenantID: &e.tenant, AssemblyID: &e.assembly, Category: audit.CategoryGovernance, EventType: audit.EventAssemblyCreated, CreatedAt: base},
		{TenantID: &e.tenant, AssemblyID: &e.assembly, Category: audit.CategoryGovernance, EventType: audit.EventAssemblyStarted, CreatedAt: base.Add(24 * time.Hour)},
		{TenantID: &e.tenant, AssemblyID: &e.assembly, Category: audit.CategoryAttendance, EventType: audit.EventCheckin, CreatedAt: base.Add(25 * time.Hour)},
		{TenantID: &e.tenant, Category: audit.CategoryGovernance, EventType: audit.EventAssemblyCreated, CreatedAt: base.Add(48 * time.Hour)},
		{TenantID: &other, Category: audit.CategoryGovernance, EventType: audit.EventAssemblyCreated, CreatedAt: base},
	}
	for _, ev := range events {
		ev.Success = true
		if err := store.Log(ctx, ev); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}
	return e
}

func (e env) list(t *testing.T, query string, user testutil.TestUser) listBody {
	t.Helper()
	rec := testutil.NewRecorder()
	e.router.ServeHTTP(rec, testutil.WithUser(testutil.NewRequest(http.MethodGet, "/"+query), user))
	rec.AssertStatus(t, http.StatusOK)
	var body listBody
	rec.DecodeJSON(t, &body)
	return body
}

func TestServeList_ScopedToTenant(t *testing.T) {
	e := newEnv(t)

	body := e.list(t, "", testutil.AdminUser(e.tenant))
	if body.Total != 4 || len(body.Events) != 4 {
		t.Fatalf("got total=%d events=%d, want 4", body.Total, len(body.Events))
	}
	// Newest first.
	if body.Events[0].AssemblyID != "" {
		t.Errorf("expected the latest event first, got %+v", body.Events[0])
	}
	if body.Page != 1 || body.TotalPages != 1 || body.HasNext {
		t.Errorf("pagination: got page=%d total_pages=%d has_next=%v", body.Page, body.TotalPages, body.HasNext)
	}
}

func TestServeList_Filters(t *testing.T) {
	e := newEnv(t)
	admin := testutil.AdminUser(e.tenant)

	tests := []struct {
		name  string
		query string
		want  int64
	}{
		{"category", "?category=attendance", 1},
		{"event type", "?event_type=assembly_created", 2},
		{"assembly", "?assembly_id=" + e.assembly.Hex(), 3},
		{"start date", "?start_date=2026-03-11", 3},
		{"end date inclusive", "?end_date=2026-03-11", 3},
		{"date range", "?start_date=2026-03-11&end_date=2026-03-11", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := e.list(t, tt.query, admin)
			if body.Total != tt.want {
				t.Errorf("total: got %d, want %d", body.Total, tt.want)
			}
		})
	}

	body := e.list(t, "?category=attendance", admin)
	if len(body.EventTypes) != 4 {
		t.Errorf("event_types for attendance: got %v", body.EventTypes)
	}
}

func TestServeList_SuperAdminNamesTenant(t *testing.T) {
	e := newEnv(t)

	body := e.list(t, fmt.Sprintf("?tenant_id=%s", e.tenant.Hex()), testutil.SuperAdminUser())
	if body.Total != 4 {
		t.Errorf("total: got %d, want 4", body.Total)
	}
}

func TestServeList_Paging(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for i := 0; i < 60; i++ {
		if err := e.store.Log(ctx, audit.Event{TenantID: &e.tenant, Category: audit.CategoryAttendance, EventType: audit.EventCheckout}); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	admin := testutil.AdminUser(e.tenant)
	first := e.list(t, "", admin)
	if len(first.Events) != 50 || first.TotalPages != 2 || !first.HasNext {
		t.Errorf("page 1: got %d events, total_pages=%d has_next=%v", len(first.Events), first.TotalPages, first.HasNext)
	}
	second := e.list(t, "?page=2", admin)
	if len(second.Events) != 14 || second.HasNext {
		t.Errorf("page 2: got %d events, has_next=%v", len(second.Events), second.HasNext)
	}
}

func TestServeList_Rejections(t *testing.T) {
	e := newEnv(t)

	tests := []struct {
		name  string
		query string
		user  testutil.TestUser
		want  int
	}{
		{"syndic", "", testutil.SyndicUser(e.tenant), http.StatusForbidden},
		{"other tenant", "?tenant_id=" + primitive.NewObjectID().Hex(), testutil.AdminUser(e.tenant), http.StatusForbidden},
		{"unknown category", "?category=billing", testutil.AdminUser(e.tenant), http.StatusBadRequest},
		{"bad assembly id", "?assembly_id=nope", testutil.AdminUser(e.tenant), http.StatusBadRequest},
		{"bad date", "?start_date=10/03/2026", testutil.AdminUser(e.tenant), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			e.router.ServeHTTP(rec, testutil.WithUser(testutil.NewRequest(http.MethodGet, "/"+tt.query), tt.user))
			rec.AssertStatus(t, tt.want)
		})
	}

	rec := testutil.NewRecorder()
	e.router.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/"))
	rec.AssertStatus(t, http.StatusUnauthorized)
}

package assemblies_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/condovote/assemblyhub/internal/app/features/assemblies"
	"github.com/condovote/assemblyhub/internal/app/governance"
	"github.com/condovote/assemblyhub/internal/app/store/audit"
	directorystore "github.com/condovote/assemblyhub/internal/app/store/directory"
	"github.com/condovote/assemblyhub/internal/app/system/auditlog"
	"github.com/condovote/assemblyhub/internal/domain/models"
	"github.com/condovote/assemblyhub/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type env struct {
	router http.Handler
	fx     *testutil.Fixtures
	tenant testutil.Tenant
}

func newEnv(t *testing.T) env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	auditStore := audit.New(db)
	svc := governance.New(governance.Deps{
		DB:        db,
		Directory: directorystore.New(db),
		Audit:     auditlog.New(auditStore, zap.NewNop(), auditlog.Config{Governance: "db", Attendance: "db"}),
	}, governance.Config{})

	r := chi.NewRouter()
	r.Use(auditlog.ActorMiddleware)
	r.Mount("/api/assemblies", assemblies.Routes(assemblies.NewHandler(svc, auditStore, zap.NewNop())))

	return env{router: r, fx: fx, tenant: fx.CreateTenant(ctx, "Residencial Aurora", 4)}
}

func (e env) do(req *http.Request) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestCreateAndGet(t *testing.T) {
	e := newEnv(t)
	user := testutil.SyndicUser(e.tenant.ID)

	rec := e.do(testutil.NewAuthenticatedRequest(http.MethodPost, "/api/assemblies", map[string]any{
		"title":        "AGO 2026",
		"description":  "Prestação de contas",
		"scheduled_at": time.Now().Add(48 * time.Hour).UTC(),
	}, user))
	rec.AssertStatus(t, http.StatusCreated)

	var created models.Assembly
	rec.DecodeJSON(t, &created)
	if created.TenantID != e.tenant.ID {
		t.Errorf("tenant: got %s, want %s", created.TenantID.Hex(), e.tenant.ID.Hex())
	}
	if created.Status != models.AssemblyScheduled {
		t.Errorf("status: got %q, want scheduled", created.Status)
	}
	if created.CreatedByID == nil || created.CreatedByID.Hex() != user.ID {
		t.Errorf("created_by_id: got %v, want %s", created.CreatedByID, user.ID)
	}

	rec = e.do(testutil.NewAuthenticatedRequest(http.MethodGet, "/api/assemblies/"+created.ID.Hex(), nil, user))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "AGO 2026")
}

func TestCreate_RejectsInvalidBody(t *testing.T) {
	e := newEnv(t)
	user := testutil.AdminUser(e.tenant.ID)

	tests := []struct {
		name string
		body any
	}{
		{"missing title", map[string]any{"scheduled_at": time.Now().Add(time.Hour)}},
		{"missing date", map[string]any{"title": "AGO"}},
		{"unknown field", map[string]any{"title": "AGO", "scheduled_at": time.Now().Add(time.Hour), "quorum": 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.do(testutil.NewAuthenticatedRequest(http.MethodPost, "/api/assemblies", tt.body, user))
			rec.AssertStatus(t, http.StatusBadRequest)
			rec.AssertContains(t, `"error":"validation"`)
		})
	}
}

func TestOtherTenantIsForbidden(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := e.fx.CreateAssembly(ctx, e.tenant.ID, "AGO", models.AssemblyScheduled)
	other := e.fx.CreateTenant(ctx, "Edifício Solar", 1)
	outsider := testutil.SyndicUser(other.ID)

	for _, req := range []*http.Request{
		testutil.NewAuthenticatedRequest(http.MethodGet, "/api/assemblies/"+a.ID.Hex(), nil, outsider),
		testutil.NewAuthenticatedRequest(http.MethodPost, "/api/assemblies/"+a.ID.Hex()+"/start", nil, outsider),
		testutil.NewAuthenticatedRequest(http.MethodDelete, "/api/assemblies/"+a.ID.Hex(), nil, outsider),
	} {
		rec := e.do(req)
		rec.AssertStatus(t, http.StatusForbidden)
	}

	// A superadmin crosses tenants.
	rec := e.do(testutil.NewAuthenticatedRequest(http.MethodGet, "/api/assemblies/"+a.ID.Hex(), nil, testutil.SuperAdminUser()))
	rec.AssertStatus(t, http.StatusOK)
}

func TestList_ScopedToCallerTenant(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	e.fx.CreateAssembly(ctx, e.tenant.ID, "Ours", models.AssemblyScheduled)
	other := e.fx.CreateTenant(ctx, "Edifício Solar", 1)
	e.fx.CreateAssembly(ctx, other.ID, "Theirs", models.AssemblyScheduled)

	rec := e.do(testutil.NewAuthenticatedRequest(http.MethodGet, "/api/assemblies", nil, testutil.SyndicUser(e.tenant.ID)))
	rec.AssertStatus(t, http.StatusOK)

	var body struct {
		Assemblies []models.Assembly `json:"assemblies"`
	}
	rec.DecodeJSON(t, &body)
	if len(body.Assemblies) != 1 || body.Assemblies[0].Title != "Ours" {
		t.Errorf("expected only own tenant's assembly, got %+v", body.Assemblies)
	}

	rec = e.do(testutil.NewAuthenticatedRequest(http.MethodGet, "/api/assemblies?tenant_id="+other.ID.Hex(), nil, testutil.SyndicUser(e.tenant.ID)))
	rec.AssertStatus(t, http.StatusForbidden)
}

func TestLifecycleAndEvents(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := testutil.AdminUser(e.tenant.ID)
	a := e.fx.CreateAssembly(ctx, e.tenant.ID, "AGE", models.AssemblyScheduled)
	base := "/api/assemblies/" + a.ID.Hex()

	rec := e.do(testutil.NewAuthenticatedRequest(http.MethodPost, base+"/checkin-token", nil, user))
	rec.AssertStatus(t, http.StatusCreated)
	rec.AssertContains(t, "checkin_token")

	rec = e.do(testutil.NewAuthenticatedRequest(http.MethodPost, base+"/start", nil, user))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"status":"in_progress"`)

	// Starting twice is a state conflict.
	rec = e.do(testutil.NewAuthenticatedRequest(http.MethodPost, base+"/start", nil, user))
	rec.AssertStatus(t, http.StatusConflict)

	rec = e.do(testutil.NewAuthenticatedRequest(http.MethodPost, base+"/otp", nil, user))
	rec.AssertStatus(t, http.StatusCreated)
	var st struct {
		Code string `json:"code"`
	}
	rec.DecodeJSON(t, &st)
	if len(st.Code) != 6 {
		t.Errorf("expected six-digit code, got %q", st.Code)
	}

	rec = e.do(testutil.NewAuthenticatedRequest(http.MethodPost, base+"/finish", nil, user))
	rec.AssertStatus(t, http.StatusOK)

	rec = e.do(testutil.NewAuthenticatedRequest(http.MethodGet, base+"/events", nil, user))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "assembly_started")
	rec.AssertContains(t, user.ID)
}

func TestGet_MalformedAndMissingID(t *testing.T) {
	e := newEnv(t)
	user := testutil.SuperAdminUser()

	rec := e.do(testutil.NewAuthenticatedRequest(http.MethodGet, "/api/assemblies/not-an-id", nil, user))
	rec.AssertStatus(t, http.StatusBadRequest)

	rec = e.do(testutil.NewAuthenticatedRequest(http.MethodGet, "/api/assemblies/"+e.tenant.ID.Hex(), nil, user))
	rec.AssertStatus(t, http.StatusNotFound)
}

package governance_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/condovote/assemblyhub/internal/app/governance"
	directorystore "github.com/condovote/assemblyhub/internal/app/store/directory"
	"github.com/condovote/assemblyhub/internal/app/system/apperr"
	"github.com/condovote/assemblyhub/internal/app/system/clock"
	"github.com/condovote/assemblyhub/internal/domain/models"
	"github.com/condovote/assemblyhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// seqRandom yields distinct, predictable codes and tokens.
type seqRandom struct {
	mu sync.Mutex
	n  int64
}

func (r *seqRandom) Int(min, max int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.n++
	return min + (r.n*7919)%(max-min+1), nil
}

func (r *seqRandom) Token(n int) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.n++
	return fmt.Sprintf("%0*x", n*2, r.n), nil
}

type failingAnnouncer struct{ calls int }

func (a *failingAnnouncer) SendAnnouncement(context.Context, primitive.ObjectID, string, string) error {
	a.calls++
	return errors.New("smtp unreachable")
}

type harness struct {
	svc    *governance.Service
	db     *mongo.Database
	fx     *testutil.Fixtures
	clock  *clock.Fixed
	tenant testutil.Tenant
}

var t0 = time.Date(2026, 3, 10, 22, 0, 0, 0, time.UTC)

func newHarness(t *testing.T, units int) (*harness, context.Context) {
	t.Helper()
	return newHarnessWith(t, units, nil)
}

func newHarnessWith(t *testing.T, units int, announcer governance.Announcer) (*harness, context.Context) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	t.Cleanup(cancel)

	clk := clock.NewFixed(t0)
	svc := governance.New(governance.Deps{
		DB:        db,
		Directory: directorystore.New(db),
		Announcer: announcer,
		Clock:     clk,
		Random:    &seqRandom{},
	}, governance.Config{AnnounceOnCreate: announcer != nil})

	return &harness{
		svc:    svc,
		db:     db,
		fx:     fx,
		clock:  clk,
		tenant: fx.CreateTenant(ctx, "Residencial Aurora", units),
	}, ctx
}

// scheduled creates a scheduled assembly with a check-in token.
func (h *harness) scheduled(t *testing.T, ctx context.Context) (models.Assembly, string) {
	t.Helper()
	a, err := h.svc.CreateAssembly(ctx, governance.NewAssembly{
		TenantID:    h.tenant.ID,
		Title:       "Assembleia Geral Ordinária",
		ScheduledAt: t0.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("CreateAssembly failed: %v", err)
	}
	token, err := h.svc.GenerateCheckinToken(ctx, a.ID)
	if err != nil {
		t.Fatalf("GenerateCheckinToken failed: %v", err)
	}
	return a, token
}

// running creates an assembly in progress with a check-in token and an
// active check-in code.
func (h *harness) running(t *testing.T, ctx context.Context) (models.Assembly, string, string) {
	t.Helper()
	a, token := h.scheduled(t, ctx)
	a, err := h.svc.StartAssembly(ctx, a.ID)
	if err != nil {
		t.Fatalf("StartAssembly failed: %v", err)
	}
	st, err := h.svc.GenerateCheckinOTP(ctx, a.ID)
	if err != nil {
		t.Fatalf("GenerateCheckinOTP failed: %v", err)
	}
	return a, token, st.Code
}

func (h *harness) checkinResident(t *testing.T, ctx context.Context, token, code string, unit models.Unit) governance.CheckinResult {
	t.Helper()
	r := h.fx.CreateResident(ctx, unit, "Morador "+unit.Identifier)
	res, err := h.svc.Checkin(ctx, governance.CheckinRequest{
		CheckinToken: token,
		UnitID:       unit.ID,
		OTP:          code,
		ResidentID:   &r.ID,
	})
	if err != nil {
		t.Fatalf("Checkin(%s) failed: %v", unit.Identifier, err)
	}
	return res
}

// voting creates an item on a scheduled assembly, starts the assembly and
// opens the item.
func (h *harness) voting(t *testing.T, ctx context.Context) (models.Assembly, models.AgendaItem, string, string) {
	t.Helper()
	a, token := h.scheduled(t, ctx)
	it, err := h.svc.CreateItem(ctx, a.ID, governance.NewItem{Title: "Aprovação das contas"})
	if err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}
	if a, err = h.svc.StartAssembly(ctx, a.ID); err != nil {
		t.Fatalf("StartAssembly failed: %v", err)
	}
	st, err := h.svc.GenerateCheckinOTP(ctx, a.ID)
	if err != nil {
		t.Fatalf("GenerateCheckinOTP failed: %v", err)
	}
	if it, err = h.svc.StartVoting(ctx, it.ID); err != nil {
		t.Fatalf("StartVoting failed: %v", err)
	}
	return a, it, token, st.Code
}

func wantCode(t *testing.T, err error, want *apperr.Error) {
	t.Helper()
	if !errors.Is(err, want) {
		t.Fatalf("expected %s error, got %v", want.Code, err)
	}
}

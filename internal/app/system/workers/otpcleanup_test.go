package workers

import (
	"testing"
	"time"

	agendaitemstore "github.com/condovote/assemblyhub/internal/app/store/agendaitems"
	assemblystore "github.com/condovote/assemblyhub/internal/app/store/assemblies"
	"github.com/condovote/assemblyhub/internal/domain/models"
	"github.com/condovote/assemblyhub/internal/testutil"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestOTPCleanup_Sweep(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	assemblies := assemblystore.New(db)
	items := agendaitemstore.New(db)
	now := time.Now().UTC()

	tenant := fx.CreateTenant(ctx, "Residencial Aurora", 0)
	expired := fx.CreateAssembly(ctx, tenant.ID, "AGO", models.AssemblyInProgress)
	active := fx.CreateAssembly(ctx, tenant.ID, "AGE", models.AssemblyInProgress)
	item := fx.CreateAgendaItem(ctx, expired, 0, models.ItemVoting)

	old := models.OTP{Code: "123456", IssuedAt: now.Add(-20 * time.Minute), ExpiresAt: now.Add(-10 * time.Minute)}
	fresh := models.OTP{Code: "654321", IssuedAt: now, ExpiresAt: now.Add(10 * time.Minute)}
	if _, err := assemblies.SetCheckinOTP(ctx, expired.ID, old); err != nil {
		t.Fatalf("SetCheckinOTP failed: %v", err)
	}
	if _, err := assemblies.SetCheckinOTP(ctx, active.ID, fresh); err != nil {
		t.Fatalf("SetCheckinOTP failed: %v", err)
	}
	if _, err := items.SetVotingOTP(ctx, item.ID, old); err != nil {
		t.Fatalf("SetVotingOTP failed: %v", err)
	}

	w := NewOTPCleanup(assemblies, items, zap.NewNop(), time.Minute)
	w.now = func() time.Time { return now }

	if got := w.Sweep(ctx); got != 2 {
		t.Errorf("Sweep: got %d removed, want 2", got)
	}

	a, err := assemblies.GetByID(ctx, expired.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if a.CheckinOTP != nil {
		t.Error("expected expired check-in code to be removed")
	}
	a, err = assemblies.GetByID(ctx, active.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if a.CheckinOTP == nil || a.CheckinOTP.Code != fresh.Code {
		t.Error("expected active check-in code to be kept")
	}
	it, err := items.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if it.VotingOTP != nil {
		t.Error("expected expired voting code to be removed")
	}

	if got := w.Sweep(ctx); got != 0 {
		t.Errorf("second Sweep: got %d removed, want 0", got)
	}
}

func TestOTPCleanup_StartStop(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	w := NewOTPCleanup(nil, nil, zap.NewNop(), time.Hour)
	w.Start()
	w.Stop()
}

package auditlog_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/condovote/assemblyhub/internal/app/store/audit"
	"github.com/condovote/assemblyhub/internal/app/system/auditlog"
	"github.com/condovote/assemblyhub/internal/app/system/auth"
	"github.com/condovote/assemblyhub/internal/domain/models"
	"github.com/condovote/assemblyhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_NilLogger(t *testing.T) {
	var logger *auditlog.Logger
	ctx := context.Background()

	logger.Log(ctx, audit.Event{EventType: "test"})
	logger.Assembly(ctx, audit.EventAssemblyStarted, models.Assembly{})
	logger.Attendance(ctx, audit.EventCheckin, models.Participant{})
}

func TestLogger_ConfigModes(t *testing.T) {
	tests := []struct {
		mode     string
		wantDB   bool
		wantLogs bool
	}{
		{"all", true, true},
		{"db", true, false},
		{"log", false, true},
		{"off", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			db := testutil.SetupTestDB(t)
			store := audit.New(db)
			core, logs := observer.New(zap.InfoLevel)
			ctx, cancel := testutil.TestContext()
			defer cancel()

			logger := auditlog.New(store, zap.New(core), auditlog.Config{
				Governance: tt.mode,
				Attendance: tt.mode,
			})

			a := models.Assembly{ID: primitive.NewObjectID(), TenantID: primitive.NewObjectID(), Status: models.AssemblyInProgress}
			logger.Assembly(ctx, audit.EventAssemblyStarted, a)

			events, err := store.ListByAssembly(ctx, a.ID, 10)
			if err != nil {
				t.Fatalf("ListByAssembly failed: %v", err)
			}
			if got := len(events) == 1; got != tt.wantDB {
				t.Errorf("stored events: got %d, wantDB %v", len(events), tt.wantDB)
			}
			if got := logs.FilterMessage("audit event").Len() == 1; got != tt.wantLogs {
				t.Errorf("zap entries: got %d, wantLogs %v", logs.FilterMessage("audit event").Len(), tt.wantLogs)
			}
		})
	}
}

func TestLogger_RequestMetadata(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Governance: "db", Attendance: "db"})

	assemblyID := primitive.NewObjectID()
	var served bool
	h := auditlog.Middleware(auditlog.ActorMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.CheckinFailed(r.Context(), models.Assembly{ID: assemblyID}, "unit-1", "invalid code")
		served = true
	})))

	req := httptest.NewRequest("POST", "/public/checkin/tok", nil)
	req.RemoteAddr = "192.0.2.10:4000"
	req.Header.Set("User-Agent", "TestBrowser/1.0")
	req = auth.WithTestUser(req, &auth.SessionUser{ID: "user-42", Role: "syndic"})
	h.ServeHTTP(httptest.NewRecorder(), req)
	if !served {
		t.Fatal("handler not called")
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	events, err := store.ListByAssembly(ctx, assemblyID, 10)
	if err != nil {
		t.Fatalf("ListByAssembly failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e := events[0]
	if e.IP != "192.0.2.10" {
		t.Errorf("IP: got %q", e.IP)
	}
	if e.UserAgent != "TestBrowser/1.0" {
		t.Errorf("UserAgent: got %q", e.UserAgent)
	}
	if e.ActorID != "user-42" {
		t.Errorf("ActorID: got %q", e.ActorID)
	}
	if e.Success || e.FailureReason != "invalid code" {
		t.Errorf("expected failed event with reason, got %+v", e)
	}
}

func TestLogger_VoteCastOmitsChoice(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Governance: "db"})
	ctx, cancel := testutil.TestContext()
	defer cancel()

	v := models.Vote{
		AssemblyID:    primitive.NewObjectID(),
		AgendaItemID:  primitive.NewObjectID(),
		ParticipantID: primitive.NewObjectID(),
		Choice:        models.ChoiceNo,
		VotingWeight:  models.WeightFromInt(2),
		CastBy:        models.CastByParticipant,
	}
	logger.VoteCast(ctx, primitive.NewObjectID(), v)

	events, err := store.ListByAssembly(ctx, v.AssemblyID, 10)
	if err != nil {
		t.Fatalf("ListByAssembly failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if _, ok := events[0].Details["choice"]; ok {
		t.Error("vote choice must not be recorded in the trail")
	}
	if events[0].Details["weight"] != "2" {
		t.Errorf("weight detail: got %q", events[0].Details["weight"])
	}
}

package minutesstore_test

import (
	"errors"
	"testing"
	"time"

	minutesstore "github.com/condovote/assemblyhub/internal/app/store/minutes"
	"github.com/condovote/assemblyhub/internal/domain/models"
	"github.com/condovote/assemblyhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func generated(assemblyID primitive.ObjectID, content string) models.Minutes {
	return models.Minutes{
		AssemblyID:  assemblyID,
		TenantID:    primitive.NewObjectID(),
		Content:     content,
		Summary:     "resumo",
		GeneratedAt: time.Now().UTC(),
	}
}

func TestStore_SaveGenerated(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := minutesstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	aid := primitive.NewObjectID()

	first, err := store.SaveGenerated(ctx, generated(aid, "v1"))
	if err != nil {
		t.Fatalf("SaveGenerated failed: %v", err)
	}
	if first.Status != models.MinutesDraft || first.ID == primitive.NilObjectID {
		t.Errorf("unexpected minutes %+v", first)
	}

	if _, err := store.SubmitForReview(ctx, aid, time.Now()); err != nil {
		t.Fatalf("SubmitForReview failed: %v", err)
	}

	// Regenerating keeps the id and the current status.
	second, err := store.SaveGenerated(ctx, generated(aid, "v2"))
	if err != nil {
		t.Fatalf("SaveGenerated (regenerate) failed: %v", err)
	}
	if second.ID != first.ID || second.Content != "v2" || second.Status != models.MinutesPendingReview {
		t.Errorf("unexpected regenerated minutes %+v", second)
	}

	if _, err := store.Approve(ctx, aid, nil, time.Now()); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if _, err := store.SaveGenerated(ctx, generated(aid, "v3")); !errors.Is(err, minutesstore.ErrStateChanged) {
		t.Errorf("expected ErrStateChanged regenerating approved minutes, got %v", err)
	}

	got, err := store.GetByAssembly(ctx, aid)
	if err != nil {
		t.Fatalf("GetByAssembly failed: %v", err)
	}
	if got.Content != "v2" {
		t.Errorf("Content: got %q, want v2", got.Content)
	}
}

func TestStore_Workflow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := minutesstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	aid := primitive.NewObjectID()
	if _, err := store.SaveGenerated(ctx, generated(aid, "v1")); err != nil {
		t.Fatalf("SaveGenerated failed: %v", err)
	}
	now := time.Now().UTC()

	if _, err := store.Publish(ctx, aid, now); !errors.Is(err, minutesstore.ErrStateChanged) {
		t.Errorf("expected ErrStateChanged publishing a draft, got %v", err)
	}

	summary := "novo resumo"
	edited, err := store.UpdateText(ctx, aid, nil, &summary, now)
	if err != nil {
		t.Fatalf("UpdateText failed: %v", err)
	}
	if edited.Summary != summary || edited.Content != "v1" {
		t.Errorf("unexpected edited minutes %+v", edited)
	}

	approver := primitive.NewObjectID()
	approved, err := store.Approve(ctx, aid, &approver, now)
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if approved.ApprovedByID == nil || *approved.ApprovedByID != approver {
		t.Errorf("ApprovedByID: got %v", approved.ApprovedByID)
	}

	published, err := store.Publish(ctx, aid, now)
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if published.Status != models.MinutesPublished || published.PublishedAt == nil {
		t.Errorf("unexpected published minutes %+v", published)
	}

	if _, err := store.UpdateText(ctx, aid, &summary, nil, now); !errors.Is(err, minutesstore.ErrStateChanged) {
		t.Errorf("expected ErrStateChanged editing published minutes, got %v", err)
	}
	if _, err := store.Approve(ctx, aid, nil, now); !errors.Is(err, minutesstore.ErrStateChanged) {
		t.Errorf("expected ErrStateChanged approving published minutes, got %v", err)
	}

	if n, err := store.DeleteByAssembly(ctx, aid); err != nil || n != 1 {
		t.Errorf("DeleteByAssembly: n=%d err=%v", n, err)
	}
	if _, err := store.GetByAssembly(ctx, aid); !errors.Is(err, minutesstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

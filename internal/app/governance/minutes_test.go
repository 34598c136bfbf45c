package governance_test

import (
	"strings"
	"testing"

	"github.com/condovote/assemblyhub/internal/app/governance"
	"github.com/condovote/assemblyhub/internal/app/system/apperr"
	"github.com/condovote/assemblyhub/internal/domain/models"
	"github.com/condovote/assemblyhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// finishedWithVotes runs a full assembly: two items, one voted and closed,
// one never opened.
func finishedWithVotes(t *testing.T, h *harness) models.Assembly {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a, token := h.scheduled(t, ctx)
	voted, err := h.svc.CreateItem(ctx, a.ID, governance.NewItem{Title: "Aprovação das contas"})
	if err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}
	if _, err := h.svc.CreateItem(ctx, a.ID, governance.NewItem{Title: "Pintura da fachada"}); err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}
	if _, err := h.svc.StartAssembly(ctx, a.ID); err != nil {
		t.Fatalf("StartAssembly failed: %v", err)
	}
	st, err := h.svc.GenerateCheckinOTP(ctx, a.ID)
	if err != nil {
		t.Fatalf("GenerateCheckinOTP failed: %v", err)
	}
	if _, err := h.svc.StartVoting(ctx, voted.ID); err != nil {
		t.Fatalf("StartVoting failed: %v", err)
	}
	for i, choice := range []string{models.ChoiceYes, models.ChoiceYes, models.ChoiceNo} {
		p := h.checkinResident(t, ctx, token, st.Code, h.tenant.Units[i]).Participant
		if _, err := h.svc.CastVote(ctx, voted.ID, p.ID, choice); err != nil {
			t.Fatalf("CastVote failed: %v", err)
		}
	}
	if _, _, err := h.svc.CloseVoting(ctx, voted.ID); err != nil {
		t.Fatalf("CloseVoting failed: %v", err)
	}
	a, err = h.svc.FinishAssembly(ctx, a.ID)
	if err != nil {
		t.Fatalf("FinishAssembly failed: %v", err)
	}
	return a
}

func TestGenerateMinutes_RequiresFinished(t *testing.T) {
	h, ctx := newHarness(t, 0)
	a, _, _ := h.running(t, ctx)

	_, err := h.svc.GenerateMinutes(ctx, a.ID)
	wantCode(t, err, apperr.ErrInvalidState)

	_, err = h.svc.GetMinutes(ctx, a.ID)
	wantCode(t, err, apperr.ErrNotFound)
}

func TestGenerateMinutes_Content(t *testing.T) {
	h, ctx := newHarness(t, 10)
	a := finishedWithVotes(t, h)

	m, err := h.svc.GenerateMinutes(ctx, a.ID)
	if err != nil {
		t.Fatalf("GenerateMinutes failed: %v", err)
	}
	if m.Status != models.MinutesDraft {
		t.Errorf("status: got %q, want draft", m.Status)
	}
	if len(m.VoteSummary) != 2 {
		t.Fatalf("vote summary items: got %d, want 2", len(m.VoteSummary))
	}
	first, second := m.VoteSummary[0], m.VoteSummary[1]
	if first.Result != "Aprovado" || !first.Approved || first.YesCount != 2 || first.NoCount != 1 {
		t.Errorf("first item summary: %+v", first)
	}
	if second.Status != models.ItemPending || second.Result != "" || second.TotalVotes != 0 {
		t.Errorf("second item summary: %+v", second)
	}

	att := m.AttendanceSummary
	if att.TotalUnits != 10 || att.CurrentlyPresent != 3 || att.QuorumPercentage != 30 || len(att.Participants) != 3 {
		t.Errorf("attendance summary: %+v", att)
	}

	for _, want := range []string{"ATA DA ASSEMBLEIA", "RESIDENCIAL AURORA", "Aprovação das contas", "Resultado: Aprovado", "Item não submetido à votação."} {
		if !strings.Contains(m.Content, want) {
			t.Errorf("content missing %q", want)
		}
	}
	if !strings.Contains(m.Summary, "Foram votados 1 de 2 itens da pauta: 1 aprovado(s) e 0 reprovado(s).") {
		t.Errorf("summary: %q", m.Summary)
	}
}

func TestMinutesWorkflow(t *testing.T) {
	h, ctx := newHarness(t, 3)
	a := finishedWithVotes(t, h)

	first, err := h.svc.GenerateMinutes(ctx, a.ID)
	if err != nil {
		t.Fatalf("GenerateMinutes failed: %v", err)
	}
	content := "<p>Ata revisada</p>"
	edited, err := h.svc.UpdateMinutes(ctx, a.ID, governance.MinutesChanges{Content: &content})
	if err != nil {
		t.Fatalf("UpdateMinutes failed: %v", err)
	}
	if edited.Content != "Ata revisada" {
		t.Errorf("content not sanitized: %q", edited.Content)
	}

	// Regenerating overwrites the draft in place.
	again, err := h.svc.GenerateMinutes(ctx, a.ID)
	if err != nil {
		t.Fatalf("regenerate failed: %v", err)
	}
	if again.ID != first.ID || again.Content != first.Content {
		t.Error("expected the draft to be overwritten in place")
	}

	_, err = h.svc.PublishMinutes(ctx, a.ID)
	wantCode(t, err, apperr.ErrInvalidState)

	review, err := h.svc.SubmitMinutes(ctx, a.ID)
	if err != nil || review.Status != models.MinutesPendingReview {
		t.Fatalf("SubmitMinutes: status %q err %v", review.Status, err)
	}
	if _, err := h.svc.GenerateMinutes(ctx, a.ID); err != nil {
		t.Fatalf("regenerate while pending review failed: %v", err)
	}

	approver := primitive.NewObjectID()
	approved, err := h.svc.ApproveMinutes(ctx, a.ID, &approver)
	if err != nil {
		t.Fatalf("ApproveMinutes failed: %v", err)
	}
	if approved.Status != models.MinutesApproved || approved.ApprovedAt == nil || *approved.ApprovedByID != approver {
		t.Errorf("unexpected approved minutes %+v", approved)
	}

	_, err = h.svc.GenerateMinutes(ctx, a.ID)
	wantCode(t, err, apperr.ErrInvalidState)

	published, err := h.svc.PublishMinutes(ctx, a.ID)
	if err != nil {
		t.Fatalf("PublishMinutes failed: %v", err)
	}
	if published.Status != models.MinutesPublished || published.PublishedAt == nil {
		t.Errorf("unexpected published minutes %+v", published)
	}

	_, err = h.svc.UpdateMinutes(ctx, a.ID, governance.MinutesChanges{Content: &content})
	wantCode(t, err, apperr.ErrInvalidState)
	_, err = h.svc.ApproveMinutes(ctx, a.ID, nil)
	wantCode(t, err, apperr.ErrInvalidState)
	_, err = h.svc.UpdateMinutes(ctx, a.ID, governance.MinutesChanges{})
	wantCode(t, err, apperr.ErrValidation)
}

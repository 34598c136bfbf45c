package tally

import (
	"testing"

	"github.com/condovote/assemblyhub/internal/domain/models"
)

func vote(choice string, weight string) models.Vote {
	w, err := models.ParseWeight(weight)
	if err != nil {
		panic(err)
	}
	return models.Vote{Choice: choice, VotingWeight: w}
}

func TestCompute_WeightedScenario(t *testing.T) {
	votes := []models.Vote{
		vote(models.ChoiceYes, "1"),
		vote(models.ChoiceYes, "2"),
		vote(models.ChoiceNo, "1"),
	}
	r := Compute(votes, models.QuorumSimple)

	if r.YesCount != 2 || r.NoCount != 1 || r.AbstentionCount != 0 || r.TotalVotes != 3 {
		t.Errorf("counts: got yes=%d no=%d abst=%d total=%d", r.YesCount, r.NoCount, r.AbstentionCount, r.TotalVotes)
	}
	if r.WeightedYes.String() != "3" {
		t.Errorf("WeightedYes: got %s, want 3", r.WeightedYes)
	}
	if r.WeightedNo.String() != "1" {
		t.Errorf("WeightedNo: got %s, want 1", r.WeightedNo)
	}
	if r.WeightedTotal.String() != "4" {
		t.Errorf("WeightedTotal: got %s, want 4", r.WeightedTotal)
	}
	if r.YesPercentage != 75.0 {
		t.Errorf("YesPercentage: got %v, want 75", r.YesPercentage)
	}
	if r.NoPercentage != 25.0 {
		t.Errorf("NoPercentage: got %v, want 25", r.NoPercentage)
	}
	if !r.Approved || r.Label() != ResultApproved {
		t.Errorf("expected %q, got %q", ResultApproved, r.Label())
	}
	if !r.QuorumApproved {
		t.Error("expected simple quorum approval at 75%")
	}
}

func TestCompute_NoVotes(t *testing.T) {
	r := Compute(nil, models.QuorumSimple)
	if r.TotalVotes != 0 || !r.WeightedTotal.IsZero() {
		t.Errorf("expected empty tally, got %+v", r)
	}
	if r.YesPercentage != 0 || r.NoPercentage != 0 || r.AbstPercentage != 0 {
		t.Error("expected zero percentages when total weight is zero")
	}
	if r.Approved || r.QuorumApproved {
		t.Error("empty tally must not be approved")
	}
	if r.Label() != ResultRejected {
		t.Errorf("Label: got %q, want %q", r.Label(), ResultRejected)
	}
}

func TestCompute_CountBasedApprovalDiffersFromWeight(t *testing.T) {
	// Two light YES votes outnumber one heavy NO vote.
	votes := []models.Vote{
		vote(models.ChoiceYes, "0.5"),
		vote(models.ChoiceYes, "0.5"),
		vote(models.ChoiceNo, "3"),
	}
	r := Compute(votes, models.QuorumSimple)
	if !r.Approved {
		t.Error("display result is count based and should be approved")
	}
	if r.QuorumApproved {
		t.Error("weighted simple majority should not be reached")
	}
	if r.YesPercentage != 25.0 {
		t.Errorf("YesPercentage: got %v, want 25", r.YesPercentage)
	}
}

func TestCompute_Rounding(t *testing.T) {
	votes := []models.Vote{
		vote(models.ChoiceYes, "1"),
		vote(models.ChoiceNo, "1"),
		vote(models.ChoiceAbstention, "1"),
	}
	r := Compute(votes, models.QuorumSimple)
	if r.YesPercentage != 33.33 {
		t.Errorf("YesPercentage: got %v, want 33.33", r.YesPercentage)
	}
	if r.Approved {
		t.Error("tie must not be approved")
	}
}

func TestCompute_QuorumTypes(t *testing.T) {
	tests := []struct {
		name       string
		quorumType string
		votes      []models.Vote
		want       bool
	}{
		{"simple exactly half", models.QuorumSimple,
			[]models.Vote{vote(models.ChoiceYes, "1"), vote(models.ChoiceNo, "1")}, false},
		{"simple abstention in denominator", models.QuorumSimple,
			[]models.Vote{vote(models.ChoiceYes, "1"), vote(models.ChoiceAbstention, "1")}, false},
		{"qualified exactly two thirds", models.QuorumQualified,
			[]models.Vote{vote(models.ChoiceYes, "2"), vote(models.ChoiceNo, "1")}, true},
		{"qualified below two thirds", models.QuorumQualified,
			[]models.Vote{vote(models.ChoiceYes, "1.99"), vote(models.ChoiceNo, "1")}, false},
		{"unanimous all yes", models.QuorumUnanimous,
			[]models.Vote{vote(models.ChoiceYes, "1"), vote(models.ChoiceYes, "2.5")}, true},
		{"unanimous one abstention", models.QuorumUnanimous,
			[]models.Vote{vote(models.ChoiceYes, "1"), vote(models.ChoiceAbstention, "1")}, false},
		{"unknown type falls back to simple", "",
			[]models.Vote{vote(models.ChoiceYes, "2"), vote(models.ChoiceNo, "1")}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compute(tt.votes, tt.quorumType).QuorumApproved; got != tt.want {
				t.Errorf("QuorumApproved: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	votes := []models.Vote{
		vote(models.ChoiceYes, "1"),
		vote(models.ChoiceNo, "1"),
		vote(models.ChoiceNo, "1"),
		vote(models.ChoiceAbstention, "1"),
	}
	got := Compute(votes, models.QuorumSimple).Format()
	want := "Reprovado - Sim: 1, Não: 2, Abstenção: 1"
	if got != want {
		t.Errorf("Format: got %q, want %q", got, want)
	}
}

// Package tally computes vote results for an agenda item.
//
// Counts are unweighted; sums and percentages are weighted by the vote's
// snapshotted voting weight. The display result ("Aprovado"/"Reprovado") is
// decided by unweighted counts. QuorumApproved is the weight-based,
// quorum-type aware outcome and is reported alongside it.
package tally

import (
	"fmt"

	"github.com/condovote/assemblyhub/internal/domain/models"
	"github.com/shopspring/decimal"
)

const (
	ResultApproved = "Aprovado"
	ResultRejected = "Reprovado"
)

var (
	hundred = decimal.NewFromInt(100)
	two     = decimal.NewFromInt(2)
	three   = decimal.NewFromInt(3)
)

// Result is the tally of one agenda item.
type Result struct {
	YesCount        int           `json:"yes_count"`
	NoCount         int           `json:"no_count"`
	AbstentionCount int           `json:"abstention_count"`
	TotalVotes      int           `json:"total_votes"`
	WeightedYes     models.Weight `json:"weighted_yes"`
	WeightedNo      models.Weight `json:"weighted_no"`
	WeightedAbst    models.Weight `json:"weighted_abstention"`
	WeightedTotal   models.Weight `json:"weighted_total"`
	YesPercentage   float64       `json:"yes_percentage"`
	NoPercentage    float64       `json:"no_percentage"`
	AbstPercentage  float64       `json:"abstention_percentage"`
	Approved        bool          `json:"approved"`
	QuorumType      string        `json:"quorum_type,omitempty"`
	QuorumApproved  bool          `json:"quorum_approved"`
}

// Compute tallies votes. quorumType selects the QuorumApproved threshold;
// unknown or empty types are treated as simple majority.
func Compute(votes []models.Vote, quorumType string) Result {
	var r Result
	yes, no, abst := decimal.Zero, decimal.Zero, decimal.Zero

	for _, v := range votes {
		w := v.VotingWeight.Decimal
		switch v.Choice {
		case models.ChoiceYes:
			r.YesCount++
			yes = yes.Add(w)
		case models.ChoiceNo:
			r.NoCount++
			no = no.Add(w)
		case models.ChoiceAbstention:
			r.AbstentionCount++
			abst = abst.Add(w)
		default:
			continue
		}
		r.TotalVotes++
	}

	total := yes.Add(no).Add(abst)
	r.WeightedYes = models.NewWeight(yes)
	r.WeightedNo = models.NewWeight(no)
	r.WeightedAbst = models.NewWeight(abst)
	r.WeightedTotal = models.NewWeight(total)

	r.YesPercentage = percent(yes, total)
	r.NoPercentage = percent(no, total)
	r.AbstPercentage = percent(abst, total)

	r.Approved = r.YesCount > r.NoCount
	r.QuorumType = quorumType
	r.QuorumApproved = quorumApproved(yes, total, quorumType)
	return r
}

// Label is the display result of r.
func (r Result) Label() string {
	if r.Approved {
		return ResultApproved
	}
	return ResultRejected
}

// Format renders the persisted result string of a closed item.
func (r Result) Format() string {
	return fmt.Sprintf("%s - Sim: %d, Não: %d, Abstenção: %d",
		r.Label(), r.YesCount, r.NoCount, r.AbstentionCount)
}

func percent(part, total decimal.Decimal) float64 {
	if total.IsZero() {
		return 0
	}
	f, _ := part.Div(total).Mul(hundred).Round(2).Float64()
	return f
}

func quorumApproved(yes, total decimal.Decimal, quorumType string) bool {
	if total.IsZero() {
		return false
	}
	switch quorumType {
	case models.QuorumQualified:
		// yes/total >= 2/3
		return yes.Mul(three).GreaterThanOrEqual(total.Mul(two))
	case models.QuorumUnanimous:
		return yes.Equal(total)
	default:
		return yes.Mul(two).GreaterThan(total)
	}
}

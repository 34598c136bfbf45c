// Package presence derives attendance and quorum figures from participant
// rows. The same rows feed the live attendance view and the minutes.
package presence

import (
	"github.com/condovote/assemblyhub/internal/domain/models"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Status is an attendance snapshot of one assembly.
type Status struct {
	TotalUnits          int64         `json:"total_units"`
	TotalRegistered     int           `json:"total_registered"`
	TotalCheckedIn      int           `json:"total_checked_in"`
	TotalCheckedOut     int           `json:"total_checked_out"`
	CurrentlyPresent    int           `json:"currently_present"`
	TotalVotingWeight   models.Weight `json:"total_voting_weight"`
	PresentVotingWeight models.Weight `json:"present_voting_weight"`
	QuorumPercentage    float64       `json:"quorum_percentage"`
}

// Compute classifies each participant as registered, checked in, checked
// out and currently present, and sums voting weights.
func Compute(participants []models.Participant, totalUnits int64) Status {
	s := Status{TotalUnits: totalUnits, TotalRegistered: len(participants)}
	total, present := decimal.Zero, decimal.Zero

	for _, p := range participants {
		total = total.Add(p.VotingWeight.Decimal)
		if p.JoinedAt != nil {
			s.TotalCheckedIn++
		}
		if p.LeftAt != nil {
			s.TotalCheckedOut++
		}
		if p.IsPresent() {
			s.CurrentlyPresent++
			present = present.Add(p.VotingWeight.Decimal)
		}
	}

	s.TotalVotingWeight = models.NewWeight(total)
	s.PresentVotingWeight = models.NewWeight(present)
	s.QuorumPercentage = QuorumPercentage(s.CurrentlyPresent, totalUnits)
	return s
}

// QuorumPercentage is present/totalUnits*100 rounded to two decimals, or 0
// when totalUnits is not positive.
func QuorumPercentage(present int, totalUnits int64) float64 {
	if totalUnits <= 0 {
		return 0
	}
	f, _ := decimal.NewFromInt(int64(present)).
		Div(decimal.NewFromInt(totalUnits)).
		Mul(hundred).
		Round(2).
		Float64()
	return f
}

// Present filters participants to those currently present.
func Present(participants []models.Participant) []models.Participant {
	out := make([]models.Participant, 0, len(participants))
	for _, p := range participants {
		if p.IsPresent() {
			out = append(out, p)
		}
	}
	return out
}

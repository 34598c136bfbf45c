// internal/domain/models/agendaitem.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Agenda item states. closed is terminal.
const (
	ItemPending = "pending"
	ItemVoting  = "voting"
	ItemClosed  = "closed"
)

// Quorum types carried as advisory metadata on an agenda item.
const (
	QuorumSimple    = "simple"    // more than 50% of weighted votes
	QuorumQualified = "qualified" // at least 2/3 of weighted votes
	QuorumUnanimous = "unanimous" // 100% of weighted votes
)

// QuorumTypes lists every valid quorum type.
var QuorumTypes = []string{QuorumSimple, QuorumQualified, QuorumUnanimous}

// AgendaItem is one discrete matter voted on within an assembly.
// At most one item per assembly may be in the voting state; a partial
// unique index on (assembly_id) where status == "voting" backs this.
type AgendaItem struct {
	ID         primitive.ObjectID `bson:"_id" json:"id"`
	AssemblyID primitive.ObjectID `bson:"assembly_id" json:"assembly_id"`
	TenantID   primitive.ObjectID `bson:"tenant_id" json:"tenant_id"`
	OrderIndex int                `bson:"order_index" json:"order_index"`

	Title          string `bson:"title" json:"title"`
	Description    string `bson:"description" json:"description"`
	RequiresQuorum bool   `bson:"requires_quorum" json:"requires_quorum"`
	QuorumType     string `bson:"quorum_type" json:"quorum_type"`

	Status          string     `bson:"status" json:"status"`
	VotingStartedAt *time.Time `bson:"voting_started_at,omitempty" json:"voting_started_at,omitempty"`
	VotingEndedAt   *time.Time `bson:"voting_ended_at,omitempty" json:"voting_ended_at,omitempty"`
	Result          string     `bson:"result,omitempty" json:"result,omitempty"`

	VotingOTP  *OTP       `bson:"voting_otp,omitempty" json:"-"`
	LastVoteAt *time.Time `bson:"last_vote_at,omitempty" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsValidQuorumType reports whether q is a known quorum type.
func IsValidQuorumType(q string) bool {
	for _, v := range QuorumTypes {
		if v == q {
			return true
		}
	}
	return false
}

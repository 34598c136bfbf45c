// internal/domain/models/participant.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Participant approval states.
const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

// Participant is one unit's seat at one assembly.
// Exactly one document per (assembly_id, unit_id).
//
// The unit is represented either by a resident or by a proxy (at least one
// of ResidentID / ProxyName is set). JoinedAt/LeftAt describe the current
// presence interval; a participant who left may re-enter, which resets
// JoinedAt and clears LeftAt.
type Participant struct {
	ID             primitive.ObjectID  `bson:"_id" json:"id"`
	AssemblyID     primitive.ObjectID  `bson:"assembly_id" json:"assembly_id"`
	TenantID       primitive.ObjectID  `bson:"tenant_id" json:"tenant_id"`
	UnitID         primitive.ObjectID  `bson:"unit_id" json:"unit_id"`
	UnitIdentifier string              `bson:"unit_identifier" json:"unit_identifier"`
	ResidentID     *primitive.ObjectID `bson:"resident_id,omitempty" json:"resident_id,omitempty"`
	ResidentName   string              `bson:"resident_name,omitempty" json:"resident_name,omitempty"`
	ProxyName      string              `bson:"proxy_name,omitempty" json:"proxy_name,omitempty"`
	ProxyDocument  string              `bson:"proxy_document,omitempty" json:"proxy_document,omitempty"`

	JoinedAt *time.Time `bson:"joined_at,omitempty" json:"joined_at,omitempty"`
	LeftAt   *time.Time `bson:"left_at,omitempty" json:"left_at,omitempty"`

	VotingWeight Weight `bson:"voting_weight" json:"voting_weight"`

	ApprovalStatus  string `bson:"approval_status" json:"approval_status"`
	RejectionReason string `bson:"rejection_reason,omitempty" json:"rejection_reason,omitempty"`

	// SessionTokenHash is the digest of the participant's session token.
	SessionTokenHash *string `bson:"session_token_hash,omitempty" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsPresent reports whether the participant is currently in the room.
func (p Participant) IsPresent() bool {
	return p.JoinedAt != nil && p.LeftAt == nil
}

// IsProxy reports whether the unit is represented by a proxy.
func (p Participant) IsProxy() bool {
	return p.ProxyName != ""
}

// RepresentativeName returns the proxy name when present, else the resident's.
func (p Participant) RepresentativeName() string {
	if p.ProxyName != "" {
		return p.ProxyName
	}
	return p.ResidentName
}

// internal/domain/models/minutes.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Minutes workflow states.
const (
	MinutesDraft         = "draft"
	MinutesPendingReview = "pending_review"
	MinutesApproved      = "approved"
	MinutesPublished     = "published"
)

// Minutes is the generated record of an assembly. One per assembly.
// Regenerable while draft or pending_review; frozen once published.
type Minutes struct {
	ID                primitive.ObjectID `bson:"_id" json:"id"`
	AssemblyID        primitive.ObjectID `bson:"assembly_id" json:"assembly_id"`
	TenantID          primitive.ObjectID `bson:"tenant_id" json:"tenant_id"`
	Content           string             `bson:"content" json:"content"`
	Summary           string             `bson:"summary" json:"summary"`
	VoteSummary       []ItemVoteSummary  `bson:"vote_summary" json:"vote_summary"`
	AttendanceSummary AttendanceSummary  `bson:"attendance_summary" json:"attendance_summary"`
	Status            string             `bson:"status" json:"status"`

	GeneratedAt  time.Time           `bson:"generated_at" json:"generated_at"`
	ApprovedByID *primitive.ObjectID `bson:"approved_by_id,omitempty" json:"approved_by_id,omitempty"`
	ApprovedAt   *time.Time          `bson:"approved_at,omitempty" json:"approved_at,omitempty"`
	PublishedAt  *time.Time          `bson:"published_at,omitempty" json:"published_at,omitempty"`
	CreatedAt    time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time           `bson:"updated_at" json:"updated_at"`
}

// ItemVoteSummary is the frozen outcome of one agenda item.
type ItemVoteSummary struct {
	AgendaItemID    primitive.ObjectID `bson:"agenda_item_id" json:"agenda_item_id"`
	OrderIndex      int                `bson:"order_index" json:"order_index"`
	Title           string             `bson:"title" json:"title"`
	Description     string             `bson:"description,omitempty" json:"description,omitempty"`
	Status          string             `bson:"status" json:"status"`
	QuorumType      string             `bson:"quorum_type" json:"quorum_type"`
	YesCount        int                `bson:"yes_count" json:"yes_count"`
	NoCount         int                `bson:"no_count" json:"no_count"`
	AbstentionCount int                `bson:"abstention_count" json:"abstention_count"`
	TotalVotes      int                `bson:"total_votes" json:"total_votes"`
	WeightedYes     Weight             `bson:"weighted_yes" json:"weighted_yes"`
	WeightedNo      Weight             `bson:"weighted_no" json:"weighted_no"`
	WeightedAbst    Weight             `bson:"weighted_abstention" json:"weighted_abstention"`
	WeightedTotal   Weight             `bson:"weighted_total" json:"weighted_total"`
	Result          string             `bson:"result" json:"result"`
	Approved        bool               `bson:"approved" json:"approved"`
	QuorumApproved  bool               `bson:"quorum_approved" json:"quorum_approved"`
}

// AttendanceSummary is the frozen attendance snapshot of an assembly.
type AttendanceSummary struct {
	TotalUnits          int64             `bson:"total_units" json:"total_units"`
	TotalRegistered     int               `bson:"total_registered" json:"total_registered"`
	TotalCheckedIn      int               `bson:"total_checked_in" json:"total_checked_in"`
	TotalCheckedOut     int               `bson:"total_checked_out" json:"total_checked_out"`
	CurrentlyPresent    int               `bson:"currently_present" json:"currently_present"`
	TotalVotingWeight   Weight            `bson:"total_voting_weight" json:"total_voting_weight"`
	PresentVotingWeight Weight            `bson:"present_voting_weight" json:"present_voting_weight"`
	QuorumPercentage    float64           `bson:"quorum_percentage" json:"quorum_percentage"`
	Participants        []AttendanceEntry `bson:"participants" json:"participants"`
}

// AttendanceEntry is one participant's line in the attendance summary.
type AttendanceEntry struct {
	ParticipantID      primitive.ObjectID `bson:"participant_id" json:"participant_id"`
	UnitIdentifier     string             `bson:"unit_identifier" json:"unit_identifier"`
	RepresentativeName string             `bson:"representative_name" json:"representative_name"`
	IsProxy            bool               `bson:"is_proxy" json:"is_proxy"`
	VotingWeight       Weight             `bson:"voting_weight" json:"voting_weight"`
	JoinedAt           *time.Time         `bson:"joined_at,omitempty" json:"joined_at,omitempty"`
	LeftAt             *time.Time         `bson:"left_at,omitempty" json:"left_at,omitempty"`
}

// internal/domain/models/vote.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Vote choices.
const (
	ChoiceYes        = "YES"
	ChoiceNo         = "NO"
	ChoiceAbstention = "ABSTENTION"
)

// Vote origins.
const (
	CastByOperator    = "operator"    // recorded by the syndic/admin on behalf of a unit
	CastByParticipant = "participant" // cast from the participant's own device
)

// Vote is one participant's ballot on one agenda item.
// Exactly one document per (agenda_item_id, participant_id). VotingWeight is
// a snapshot copied from the participant at cast time; votes are never
// updated or deleted except through assembly cascade deletion.
type Vote struct {
	ID            primitive.ObjectID `bson:"_id" json:"id"`
	AssemblyID    primitive.ObjectID `bson:"assembly_id" json:"assembly_id"`
	AgendaItemID  primitive.ObjectID `bson:"agenda_item_id" json:"agenda_item_id"`
	ParticipantID primitive.ObjectID `bson:"participant_id" json:"participant_id"`
	UnitID        primitive.ObjectID `bson:"unit_id" json:"unit_id"`
	Choice        string             `bson:"choice" json:"choice"`
	VotingWeight  Weight             `bson:"voting_weight" json:"voting_weight"`
	CastBy        string             `bson:"cast_by" json:"cast_by"`
	CastAt        time.Time          `bson:"cast_at" json:"cast_at"`
}

// IsValidChoice reports whether c is a known vote choice.
func IsValidChoice(c string) bool {
	return c == ChoiceYes || c == ChoiceNo || c == ChoiceAbstention
}

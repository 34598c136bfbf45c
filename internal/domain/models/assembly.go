// internal/domain/models/assembly.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Assembly lifecycle states.
//
// Transitions are one-directional: scheduled → in_progress → finished.
// cancelled is reachable from scheduled or in_progress.
const (
	AssemblyScheduled  = "scheduled"
	AssemblyInProgress = "in_progress"
	AssemblyFinished   = "finished"
	AssemblyCancelled  = "cancelled"
)

// AssemblyStatuses lists every valid assembly status.
var AssemblyStatuses = []string{AssemblyScheduled, AssemblyInProgress, AssemblyFinished, AssemblyCancelled}

// Assembly is one scheduled condominium meeting.
//
// NOTE:
//   - CheckinToken is the public, opaque token printed as a QR code at the
//     door. At most one is active; generating a new one replaces it.
//   - CheckinOTP is owned by the OTP issuer; nothing else writes it.
//   - AgendaRev changes whenever an item is added. It carries no meaning
//     beyond serializing concurrent agenda writes.
type Assembly struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	TenantID    primitive.ObjectID `bson:"tenant_id" json:"tenant_id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Status      string             `bson:"status" json:"status"`

	ScheduledAt time.Time  `bson:"scheduled_at" json:"scheduled_at"`
	StartedAt   *time.Time `bson:"started_at,omitempty" json:"started_at,omitempty"`
	FinishedAt  *time.Time `bson:"finished_at,omitempty" json:"finished_at,omitempty"`
	CancelledAt *time.Time `bson:"cancelled_at,omitempty" json:"cancelled_at,omitempty"`

	CheckinToken *string `bson:"checkin_token,omitempty" json:"-"`
	CheckinOTP   *OTP    `bson:"checkin_otp,omitempty" json:"-"`

	AgendaRev int `bson:"agenda_rev" json:"-"`

	CreatedByID *primitive.ObjectID `bson:"created_by_id,omitempty" json:"created_by_id,omitempty"`
	CreatedAt   time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time           `bson:"updated_at" json:"updated_at"`
}

// IsTerminal reports whether the assembly can no longer change state.
func (a Assembly) IsTerminal() bool {
	return a.Status == AssemblyFinished || a.Status == AssemblyCancelled
}

// IsValidAssemblyStatus reports whether s is a known assembly status.
func IsValidAssemblyStatus(s string) bool {
	for _, v := range AssemblyStatuses {
		if v == s {
			return true
		}
	}
	return false
}

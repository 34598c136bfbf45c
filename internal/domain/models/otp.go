// internal/domain/models/otp.go
package models

import "time"

// OTP is a short-lived numeric code attached to whichever entity is its
// subject (an assembly's check-in or an agenda item's voting). Only the OTP
// issuer writes these fields; a new issue overwrites the previous code.
type OTP struct {
	Code      string    `bson:"code" json:"code"`
	IssuedAt  time.Time `bson:"issued_at" json:"issued_at"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
}

// Active reports whether the code is still valid at now.
func (o *OTP) Active(now time.Time) bool {
	return o != nil && o.Code != "" && !now.After(o.ExpiresAt)
}

// Package otp issues and validates the short-lived six-digit codes that gate
// assembly check-in and per-item voting.
//
// Codes are broadcast codes: validation never consumes them. A code stays
// valid until it expires or a newer code replaces it on the same subject.
package otp

import (
	"crypto/subtle"
	"math"
	"strconv"
	"time"

	"github.com/condovote/assemblyhub/internal/app/system/clock"
	"github.com/condovote/assemblyhub/internal/domain/models"
)

const (
	// CodeMin and CodeMax bound the uniform code range.
	CodeMin = 100000
	CodeMax = 999999

	// DefaultCheckinTTL is the validity window of an assembly check-in code.
	DefaultCheckinTTL = 10 * time.Minute
	// DefaultVotingTTL is the validity window of an agenda item voting code.
	DefaultVotingTTL = 5 * time.Minute
)

// Issuer mints codes for a single subject kind with a fixed validity window.
type Issuer struct {
	clock clock.Clock
	rand  clock.Random
	ttl   time.Duration
}

// NewIssuer returns an Issuer. A non-positive ttl panics.
func NewIssuer(c clock.Clock, r clock.Random, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		panic("otp: ttl must be positive")
	}
	return &Issuer{clock: c, rand: r, ttl: ttl}
}

// TTL returns the validity window.
func (i *Issuer) TTL() time.Duration { return i.ttl }

// Issue draws a fresh code. The caller stores it on the subject, replacing
// whatever code was there.
func (i *Issuer) Issue() (models.OTP, error) {
	n, err := i.rand.Int(CodeMin, CodeMax)
	if err != nil {
		return models.OTP{}, err
	}
	now := i.clock.Now()
	return models.OTP{
		Code:      strconv.FormatInt(n, 10),
		IssuedAt:  now,
		ExpiresAt: now.Add(i.ttl),
	}, nil
}

// Status is the result of peeking at a subject's current code.
type Status struct {
	Code             string    `json:"code"`
	ExpiresAt        time.Time `json:"expires_at"`
	RemainingSeconds int       `json:"remaining_seconds"`
}

// Peek returns the active code and its remaining lifetime. ok is false when
// there is no code or it has expired. Peek never issues a code.
func (i *Issuer) Peek(current *models.OTP) (Status, bool) {
	now := i.clock.Now()
	if !current.Active(now) {
		return Status{}, false
	}
	remaining := current.ExpiresAt.Sub(now).Seconds()
	return Status{
		Code:             current.Code,
		ExpiresAt:        current.ExpiresAt,
		RemainingSeconds: int(math.Ceil(remaining)),
	}, true
}

// Validate reports whether candidate matches the active code.
func (i *Issuer) Validate(current *models.OTP, candidate string) bool {
	if candidate == "" || !current.Active(i.clock.Now()) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(current.Code), []byte(candidate)) == 1
}

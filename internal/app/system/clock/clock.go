// Package clock provides the time source and the cryptographically strong
// random generator consumed by OTP and token generation. Tests substitute
// Fixed and a deterministic Random.
package clock

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"sync"
	"time"
)

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// Random produces uniformly distributed integers and opaque tokens.
type Random interface {
	// Int returns a uniform integer in [min, max].
	Int(min, max int64) (int64, error)
	// Token returns n random bytes hex-encoded.
	Token(n int) (string, error)
}

// System is the wall clock, in UTC.
type System struct{}

func (System) Now() time.Time { return time.Now().UTC() }

// Secure draws from crypto/rand.
type Secure struct{}

func (Secure) Int(min, max int64) (int64, error) {
	if max < min {
		return 0, fmt.Errorf("clock: invalid range [%d, %d]", min, max)
	}
	n, err := rand.Int(rand.Reader, big.NewInt(max-min+1))
	if err != nil {
		return 0, fmt.Errorf("clock: crypto/rand: %w", err)
	}
	return min + n.Int64(), nil
}

func (Secure) Token(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("clock: crypto/rand: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Fixed is a manually advanced clock for tests.
type Fixed struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixed returns a clock frozen at t.
func NewFixed(t time.Time) *Fixed {
	return &Fixed{now: t.UTC()}
}

func (f *Fixed) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Advance moves the clock forward by d.
func (f *Fixed) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

// Set moves the clock to t.
func (f *Fixed) Set(t time.Time) {
	f.mu.Lock()
	f.now = t.UTC()
	f.mu.Unlock()
}

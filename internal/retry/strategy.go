// Package retry holds the backoff policy used by the transfer loop and the
// classification rules that decide which failures are worth another attempt.
package retry

import (
	"math"
	"math/rand/v2"
	"time"
)

// Strategy is an immutable backoff policy. The zero value never retries.
type Strategy struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	BackoffFactor float64
	MaxDelay      time.Duration
	Jitter        bool
}

// Named presets, mildest to most patient.
var (
	Disabled     = Strategy{}
	Fast         = Strategy{MaxAttempts: 5, InitialDelay: 500 * time.Millisecond, BackoffFactor: 1.5, MaxDelay: 10 * time.Second, Jitter: true}
	Standard     = Strategy{MaxAttempts: 3, InitialDelay: time.Second, BackoffFactor: 2.0, MaxDelay: 30 * time.Second, Jitter: true}
	Conservative = Strategy{MaxAttempts: 2, InitialDelay: 3 * time.Second, BackoffFactor: 3.0, MaxDelay: 2 * time.Minute, Jitter: true}
)

// Preset returns the named preset, or Standard for an unrecognized name.
func Preset(name string) Strategy {
	switch name {
	case "disabled":
		return Disabled
	case "fast":
		return Fast
	case "standard":
		return Standard
	case "conservative":
		return Conservative
	}
	return Standard
}

// Delay returns the backoff before retry number attempt (0-based). With
// jitter enabled the result lands in [base, 1.25*base), never below the
// un-jittered base.
func (s Strategy) Delay(attempt int) time.Duration {
	if attempt < 0 {
		return 0
	}
	// Clamp in float space: the product overflows time.Duration long before
	// attempt counts get interesting.
	base := s.MaxDelay
	if f := float64(s.InitialDelay) * math.Pow(s.BackoffFactor, float64(attempt)); f < float64(s.MaxDelay) {
		base = time.Duration(f)
	}
	if s.Jitter && base > 0 {
		if extra := int64(base) / 4; extra > 0 {
			base += time.Duration(rand.Int64N(extra))
		}
	}
	return base
}

// CanRetry reports whether retry number attempt (0-based) is still within
// budget.
func (s Strategy) CanRetry(attempt int) bool {
	return attempt < s.MaxAttempts
}

// ShouldRetry reports whether err is worth retry number attempt. Cancellation
// and pause are handled by the caller before this is consulted.
func (s Strategy) ShouldRetry(err error, attempt int) bool {
	if !s.CanRetry(attempt) {
		return false
	}
	return Retryable(err)
}

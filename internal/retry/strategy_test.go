package retry

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"syscall"
	"testing"
	"time"

	"github.com/tanq16/revup/internal/errs"
)

func TestDelayMonotonicWithoutJitter(t *testing.T) {
	s := Strategy{MaxAttempts: 10, InitialDelay: 100 * time.Millisecond, BackoffFactor: 2.0, MaxDelay: 5 * time.Second}
	prev := time.Duration(-1)
	capped := false
	for attempt := range 12 {
		d := s.Delay(attempt)
		if d < prev {
			t.Fatalf("Delay(%d) = %v, below previous %v", attempt, d, prev)
		}
		if capped && d != s.MaxDelay {
			t.Fatalf("Delay(%d) = %v after reaching cap %v", attempt, d, s.MaxDelay)
		}
		if d == s.MaxDelay {
			capped = true
		}
		prev = d
	}
	if !capped {
		t.Fatal("delay never reached MaxDelay")
	}
}

func TestDelayLargeAttemptStaysAtCap(t *testing.T) {
	// The exponential product leaves int64 range around attempt 33 here; the
	// result must stay pinned to MaxDelay, never wrap negative.
	s := Strategy{MaxAttempts: 100, InitialDelay: time.Second, BackoffFactor: 2.0, MaxDelay: 30 * time.Second}
	for _, attempt := range []int{5, 33, 40, 63, 64, 99} {
		if d := s.Delay(attempt); d != s.MaxDelay {
			t.Errorf("Delay(%d) = %v, want %v", attempt, d, s.MaxDelay)
		}
	}
}

func TestDelayNegativeAttempt(t *testing.T) {
	if d := Standard.Delay(-1); d != 0 {
		t.Fatalf("Delay(-1) = %v, want 0", d)
	}
}

func TestDelayJitterBounds(t *testing.T) {
	s := Strategy{MaxAttempts: 5, InitialDelay: 200 * time.Millisecond, BackoffFactor: 2.0, MaxDelay: 2 * time.Second, Jitter: true}
	for attempt := range 8 {
		base := Strategy{
			MaxAttempts: s.MaxAttempts, InitialDelay: s.InitialDelay,
			BackoffFactor: s.BackoffFactor, MaxDelay: s.MaxDelay,
		}.Delay(attempt)
		for range 50 {
			d := s.Delay(attempt)
			if d < base {
				t.Fatalf("Delay(%d) = %v, below un-jittered base %v", attempt, d, base)
			}
			if float64(d) > float64(s.MaxDelay)*1.25 {
				t.Fatalf("Delay(%d) = %v, above 1.25x cap", attempt, d)
			}
			if float64(d) > float64(base)*1.25 {
				t.Fatalf("Delay(%d) = %v, above 1.25x base %v", attempt, d, base)
			}
		}
	}
}

func TestCanRetryBoundary(t *testing.T) {
	for _, s := range []Strategy{Fast, Standard, Conservative} {
		if s.CanRetry(s.MaxAttempts) {
			t.Errorf("CanRetry(%d) = true with MaxAttempts %d", s.MaxAttempts, s.MaxAttempts)
		}
		if !s.CanRetry(s.MaxAttempts - 1) {
			t.Errorf("CanRetry(%d) = false with MaxAttempts %d", s.MaxAttempts-1, s.MaxAttempts)
		}
	}
	if Disabled.CanRetry(0) {
		t.Error("Disabled preset allowed a retry")
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestRetryableClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"network code", errs.New(errs.CodeNetwork, "connect refused"), true},
		{"timeout code", errs.New(errs.CodeTimeout, "deadline"), true},
		{"connection code", errs.New(errs.CodeConnection, "reset"), true},
		{"server code", errs.New(errs.CodeServer, "internal"), true},
		{"service unavailable code", errs.New(errs.CodeServiceUnavailable, "maintenance"), true},
		{"parse code", errs.New(errs.CodeParse, "bad json"), false},
		{"invalid response code", errs.New(errs.CodeInvalidResponse, "not a map"), false},
		{"missing url code", errs.New(errs.CodeMissingURL, "no url"), false},
		{"file code", errs.New(errs.CodeFile, "disk full"), false},
		{"checksum code", errs.New(errs.CodeChecksumMismatch, "digest differs"), false},
		{"permission code", errs.New(errs.CodePermissionDenied, "no access"), false},
		{"platform code", errs.New(errs.CodePlatform, "unsupported"), false},
		{"unknown code with retryable cause", errs.Wrap("SOMETHING_NEW", timeoutErr{}, "wrapped"), true},
		{"unknown code with terminal cause", errs.Wrap("SOMETHING_NEW", &fs.PathError{Op: "open", Path: "x", Err: syscall.ENOSPC}, "wrapped"), false},
		{"unknown code without cause", errs.New("SOMETHING_NEW", "opaque"), false},
		{"net timeout", timeoutErr{}, true},
		{"connection reset", &net.OpError{Op: "read", Err: syscall.ECONNRESET}, true},
		{"connection refused via url.Error", &url.Error{Op: "Get", URL: "http://x", Err: syscall.ECONNREFUSED}, true},
		{"http 500 in message", errors.New("unexpected status code: 500"), true},
		{"http 502 in message", errors.New("server responded 502 Bad Gateway"), true},
		{"http 503 in message", errors.New("unexpected status code: 503"), true},
		{"http 504 in message", errors.New("unexpected status code: 504"), true},
		{"http 404 in message", errors.New("unexpected status code: 404"), false},
		{"port containing 500", errors.New("dial tcp 10.0.0.1:5000: no route to host"), false},
		{"byte count containing 502", errors.New("wrote 15023 of 20000 bytes"), false},
		{"standalone 503 with punctuation", errors.New("gateway said 503, giving up"), true},
		{"http 401 in message", errors.New("unexpected status code: 401"), false},
		{"path error", &fs.PathError{Op: "open", Path: "out", Err: syscall.EACCES}, false},
		{"opaque", errors.New("something odd happened"), false},
		{"wrapped retryable", fmt.Errorf("attempt failed: %w", timeoutErr{}), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Retryable(tt.err); got != tt.want {
				t.Errorf("Retryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestShouldRetryExhaustsBudget(t *testing.T) {
	s := Strategy{MaxAttempts: 2, InitialDelay: time.Millisecond, BackoffFactor: 2.0, MaxDelay: time.Second}
	err := errs.New(errs.CodeNetwork, "reset")
	if !s.ShouldRetry(err, 0) || !s.ShouldRetry(err, 1) {
		t.Fatal("retryable error refused within budget")
	}
	if s.ShouldRetry(err, 2) {
		t.Fatal("retry allowed past MaxAttempts")
	}
	if s.ShouldRetry(errs.New(errs.CodeParse, "bad"), 0) {
		t.Fatal("terminal error retried with budget remaining")
	}
}

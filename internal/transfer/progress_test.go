package transfer

import (
	"testing"
	"time"
)

func TestSpeedMeterWindow(t *testing.T) {
	now := time.Now()
	m := newSpeedMeter()
	m.now = func() time.Time { return now }

	if m.Speed() != 0 {
		t.Fatal("empty meter reported a speed")
	}

	m.Add(1000)
	now = now.Add(time.Second)
	m.Add(1000)
	now = now.Add(time.Second)
	m.Add(1000)

	// 3000 bytes over a 2s span.
	if got := m.Speed(); got < 1499 || got > 1501 {
		t.Fatalf("Speed() = %v, want ~1500", got)
	}

	// Advance past the window; all samples evict.
	now = now.Add(4 * time.Second)
	if got := m.Speed(); got != 0 {
		t.Fatalf("Speed() after window = %v, want 0", got)
	}
}

func TestSpeedMeterEvictsOldSamples(t *testing.T) {
	now := time.Now()
	m := newSpeedMeter()
	m.now = func() time.Time { return now }

	m.Add(1_000_000) // will fall out of the window
	now = now.Add(5 * time.Second)
	m.Add(600)
	now = now.Add(time.Second)
	m.Add(600)

	// Only the two recent samples count: 1200 bytes over 1s.
	if got := m.Speed(); got < 1199 || got > 1201 {
		t.Fatalf("Speed() = %v, want ~1200", got)
	}
}

func TestETASeconds(t *testing.T) {
	tests := []struct {
		name       string
		downloaded int64
		total      int64
		speed      float64
		want       int64
	}{
		{"half done", 500, 1000, 100, 5},
		{"no speed", 500, 1000, 0, -1},
		{"unknown total", 500, 0, 100, -1},
		{"done", 1000, 1000, 100, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := etaSeconds(tt.downloaded, tt.total, tt.speed); got != tt.want {
				t.Errorf("etaSeconds(%d, %d, %v) = %d, want %d", tt.downloaded, tt.total, tt.speed, got, tt.want)
			}
		})
	}
}

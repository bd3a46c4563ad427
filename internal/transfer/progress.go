package transfer

import "time"

const speedWindow = 3 * time.Second

type sample struct {
	at    time.Time
	bytes int64
}

// speedMeter computes transfer speed over a sliding window of recent chunk
// samples. Not safe for concurrent use; the owner serializes access.
type speedMeter struct {
	samples []sample
	now     func() time.Time
}

func newSpeedMeter() *speedMeter {
	return &speedMeter{now: time.Now}
}

func (m *speedMeter) Add(bytes int64) {
	now := m.now()
	m.samples = append(m.samples, sample{at: now, bytes: bytes})
	m.evict(now)
}

// Speed returns bytes/sec over the window, or 0 when there is not enough
// history to measure.
func (m *speedMeter) Speed() float64 {
	if len(m.samples) == 0 {
		return 0
	}
	now := m.now()
	m.evict(now)
	if len(m.samples) == 0 {
		return 0
	}
	windowMs := now.Sub(m.samples[0].at).Milliseconds()
	if windowMs <= 0 {
		return 0
	}
	var total int64
	for _, s := range m.samples {
		total += s.bytes
	}
	return float64(total) * 1000 / float64(windowMs)
}

func (m *speedMeter) Reset() {
	m.samples = m.samples[:0]
}

func (m *speedMeter) evict(now time.Time) {
	cutoff := now.Add(-speedWindow)
	idx := 0
	for idx < len(m.samples) && m.samples[idx].at.Before(cutoff) {
		idx++
	}
	if idx > 0 {
		m.samples = append(m.samples[:0], m.samples[idx:]...)
	}
}

// etaSeconds estimates remaining transfer time, or -1 when speed or total is
// unknown.
func etaSeconds(downloaded, total int64, speed float64) int64 {
	if speed <= 0 || total <= 0 || downloaded > total {
		return -1
	}
	return int64(float64(total-downloaded) / speed)
}

package transfer

import "sync"

type Status string

const (
	StatusIdle        Status = "idle"
	StatusDownloading Status = "downloading"
	StatusPaused      Status = "paused"
	StatusDownloaded  Status = "downloaded"
	StatusError       Status = "error"
	StatusCanceled    Status = "canceled"
)

type EventType string

const (
	EventStatus   EventType = "status"
	EventProgress EventType = "progress"
	EventError    EventType = "error"
)

// Event is a broadcast from a Downloader: a status transition, a progress
// sample, or a surfaced error. ID is the Downloader's transfer ID.
type Event struct {
	ID       string
	Type     EventType
	Status   Status
	Progress *Progress
	Err      error
}

// Progress is a point-in-time snapshot of a transfer.
type Progress struct {
	DownloadedBytes int64
	TotalBytes      int64 // 0 when unknown
	Speed           float64
	ETASeconds      int64 // -1 when unknown
	Attempt         int
}

// notifier fans events out to registered observers in production order.
// Observers registered after an event was produced do not see it.
type notifier struct {
	mu        sync.Mutex
	observers []func(Event)
}

func (n *notifier) subscribe(fn func(Event)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.observers = append(n.observers, fn)
}

func (n *notifier) publish(e Event) {
	n.mu.Lock()
	observers := make([]func(Event), len(n.observers))
	copy(observers, n.observers)
	n.mu.Unlock()
	for _, fn := range observers {
		fn(e)
	}
}

// Package diag broadcasts structured render errors to subscribers such
// as editor tooling. The broadcast path is independent of the HTTP
// response path: a request that fails still produces exactly one
// diagnostic event, whether the boundary served a detailed error page
// or a generic one.
package diag

import (
	"log/slog"
	"sync"
	"time"
)

// Event kinds, derived from the pipeline error taxonomy.
const (
	KindComponentNotFound = "component_not_found"
	KindInvalidRequest    = "invalid_request"
	KindScript            = "script"
	KindTemplate          = "template"
	KindInternal          = "internal"
)

// Event is one broadcast diagnostic.
type Event struct {
	At      time.Time `json:"at"`
	Kind    string    `json:"kind"`
	Message string    `json:"message"`

	// Err is the original error, for in-process subscribers.
	Err error `json:"-"`
}

// subscriberBuffer is the per-subscriber channel depth. A subscriber
// that falls this far behind starts losing events instead of blocking
// the render path.
const subscriberBuffer = 16

// Broadcaster fans diagnostic events out to subscribers. Delivery is
// best-effort: slow subscribers drop events, they never block.
type Broadcaster struct {
	classify func(error) string
	logger   *slog.Logger

	mu   sync.Mutex
	subs map[chan Event]struct{}
}

// NewBroadcaster creates a Broadcaster. The classifier maps an error to
// an event kind; nil installs a classifier that reports KindInternal
// for everything, which callers usually override via Classify.
func NewBroadcaster(logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{
		classify: func(error) string { return KindInternal },
		logger:   logger.With("component", "diag"),
		subs:     make(map[chan Event]struct{}),
	}
}

// Classify installs the error classifier used for subsequent events.
// Not safe to call concurrently with Broadcast; install it at startup.
func (b *Broadcaster) Classify(fn func(error) string) {
	if fn != nil {
		b.classify = fn
	}
}

// Subscribe registers a new subscriber and returns its event channel
// together with a cancel function. The channel is closed on cancel.
func (b *Broadcaster) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// SubscriberCount returns the number of live subscribers.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Broadcast sends one event for the given error to every subscriber.
func (b *Broadcaster) Broadcast(err error) {
	if err == nil {
		return
	}
	ev := Event{
		At:      time.Now(),
		Kind:    b.classify(err),
		Message: err.Error(),
		Err:     err,
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
			b.logger.Debug("dropping diagnostic for slow subscriber", "kind", ev.Kind)
		}
	}
}

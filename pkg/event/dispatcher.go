package event

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/cjzdmj1997/parrot-mocker-web/pkg/logging"
)

// DefaultSubscriberBuffer is the channel depth per subscriber.
const DefaultSubscriberBuffer = 64

// Dispatcher fans events out to per-client subscribers. Publishing never
// blocks: events for a subscriber whose buffer is full are dropped and
// counted. Safe for concurrent use.
type Dispatcher struct {
	mu      sync.RWMutex
	subs    map[string]map[*subscriber]bool // clientID -> subscriber set
	buffer  int
	dropped atomic.Int64
	log     *slog.Logger
}

var _ Publisher = (*Dispatcher)(nil)

type subscriber struct {
	ch chan Event
}

// NewDispatcher creates a dispatcher. A bufferSize of zero or less takes
// DefaultSubscriberBuffer.
func NewDispatcher(bufferSize int, log *slog.Logger) *Dispatcher {
	if bufferSize <= 0 {
		bufferSize = DefaultSubscriberBuffer
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Dispatcher{
		subs:   make(map[string]map[*subscriber]bool),
		buffer: bufferSize,
		log:    log,
	}
}

// Subscribe registers an observer for one client's events. The returned
// cancel function unregisters the observer and closes the channel; it is safe
// to call more than once.
func (d *Dispatcher) Subscribe(clientID string) (<-chan Event, func()) {
	sub := &subscriber{ch: make(chan Event, d.buffer)}

	d.mu.Lock()
	if d.subs[clientID] == nil {
		d.subs[clientID] = make(map[*subscriber]bool)
	}
	d.subs[clientID][sub] = true
	d.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			d.mu.Lock()
			if set, ok := d.subs[clientID]; ok {
				delete(set, sub)
				if len(set) == 0 {
					delete(d.subs, clientID)
				}
			}
			d.mu.Unlock()
			close(sub.ch)
		})
	}
	return sub.ch, cancel
}

// Publish delivers an event to every subscriber of the client. Clients with
// no subscribers drop the event silently. The sends happen under the read
// lock: cancel closes a subscriber channel only after removing it under the
// write lock, so no send can race the close.
func (d *Dispatcher) Publish(clientID, topic string, payload any) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	set := d.subs[clientID]
	if len(set) == 0 {
		return
	}

	e := newEvent(clientID, topic, payload)
	for sub := range set {
		select {
		case sub.ch <- e:
		default:
			d.dropped.Add(1)
			d.log.Warn("event dropped, subscriber buffer full",
				"clientID", clientID, "topic", topic)
		}
	}
}

// SubscriberCount returns the number of active subscribers for a client.
func (d *Dispatcher) SubscriberCount(clientID string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.subs[clientID])
}

// Dropped returns how many events have been discarded because a subscriber
// buffer was full.
func (d *Dispatcher) Dropped() int64 {
	return d.dropped.Load()
}

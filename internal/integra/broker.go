package integra

import (
	"sync"
	"time"

	"github.com/muurk/integra-bridge/internal/protocol"
)

// broker multicasts zone snapshots. Each subscriber has a one-slot mailbox
// that only ever holds the newest snapshot, so a slow reader skips stale
// values instead of blocking the executor.
type broker struct {
	mu     sync.RWMutex
	subs   map[int]chan protocol.ZoneStates
	nextID int
	latest  protocol.ZoneStates
	seen    bool
	updated time.Time
	closed  bool
}

func newBroker() *broker {
	return &broker{subs: make(map[int]chan protocol.ZoneStates)}
}

func (b *broker) subscribe() (<-chan protocol.ZoneStates, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan protocol.ZoneStates, 1)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if sub, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(sub)
			}
		})
	}
	return ch, cancel
}

func (b *broker) publish(zones protocol.ZoneStates) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.latest = zones
	b.seen = true
	b.updated = time.Now()
	for _, ch := range b.subs {
		// Replace an unread snapshot with the newer one.
		select {
		case <-ch:
		default:
		}
		ch <- zones
	}
}

func (b *broker) snapshot() (protocol.ZoneStates, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.latest, b.seen
}

// lastPublish returns when the latest snapshot was published, or the zero
// time before the first one.
func (b *broker) lastPublish() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.updated
}

func (b *broker) count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// closeAll ends every subscription.
func (b *broker) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}

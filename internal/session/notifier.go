package session

import (
	"sync"
	"time"
)

// EventType names a session change.
type EventType string

const (
	InitialSession EventType = "INITIAL_SESSION"
	SignedIn       EventType = "SIGNED_IN"
	SignedOut      EventType = "SIGNED_OUT"
)

// Event is published whenever a user signs in or out.
type Event struct {
	Type   EventType `json:"type"`
	UserID string    `json:"user_id"`
	At     time.Time `json:"at"`
}

// EventHandler receives published events. Handlers run on the publisher's
// goroutine and must not block.
type EventHandler func(Event)

// Notifier fans session events out to subscribers.
type Notifier interface {
	Publish(Event)
	Subscribe(EventHandler) (unsubscribe func())
}

// Broadcaster is the in-process Notifier.
type Broadcaster struct {
	mu   sync.RWMutex
	next uint64
	subs map[uint64]EventHandler
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[uint64]EventHandler)}
}

func (b *Broadcaster) Publish(e Event) {
	b.mu.RLock()
	handlers := make([]EventHandler, 0, len(b.subs))
	for _, h := range b.subs {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(e)
	}
}

func (b *Broadcaster) Subscribe(h EventHandler) func() {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = h
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// Len reports the number of live subscriptions.
func (b *Broadcaster) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

package session

import (
	"context"
	"sync"
)

// Holder keeps one caller's current session up to date. Init fetches the
// session once and subscribes to change events; Close releases the
// subscription. Events for other users are ignored.
type Holder struct {
	notifier Notifier
	fetch    func(ctx context.Context) (*Session, error)

	mu          sync.Mutex
	current     *Session
	userID      string
	events      chan Event
	unsubscribe func()
	closed      bool
}

func NewHolder(n Notifier, fetch func(ctx context.Context) (*Session, error)) *Holder {
	return &Holder{notifier: n, fetch: fetch, events: make(chan Event, 8)}
}

// Init must be called once before Events is read.
func (h *Holder) Init(ctx context.Context) (*Session, error) {
	s, err := h.fetch(ctx)
	if err != nil && err != ErrNoSession {
		return nil, err
	}

	h.mu.Lock()
	h.current = s
	if s != nil {
		h.userID = s.User.ID
	}
	h.mu.Unlock()

	h.unsubscribe = h.notifier.Subscribe(h.handle)
	return s, nil
}

func (h *Holder) handle(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed || (h.userID != "" && e.UserID != h.userID) {
		return
	}
	if e.Type == SignedOut {
		h.current = nil
	}
	select {
	case h.events <- e:
	default:
	}
}

// Events delivers session changes until Close.
func (h *Holder) Events() <-chan Event {
	return h.events
}

func (h *Holder) Current() *Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

func (h *Holder) Close() {
	if h.unsubscribe != nil {
		h.unsubscribe()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.closed {
		h.closed = true
		close(h.events)
	}
}

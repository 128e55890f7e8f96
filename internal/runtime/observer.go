package runtime

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/statelab/internal/logging"
	"github.com/aretw0/statelab/pkg/domain"
	"github.com/mohae/deepcopy"
)

type subscription struct {
	id uint64
	fn func(domain.Snapshot)
}

// Hub delivers snapshots to listeners synchronously, in registration order.
// A panicking listener is logged and skipped; the others still receive the snapshot.
type Hub struct {
	logger *slog.Logger

	mu        sync.Mutex
	nextID    uint64
	listeners []subscription
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Hub{logger: logger}
}

// Subscribe registers fn and returns its unsubscribe function.
func (h *Hub) Subscribe(fn func(domain.Snapshot)) func() {
	if fn == nil {
		return func() {}
	}

	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.listeners = append(h.listeners, subscription{id: id, fn: fn})
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			for i, s := range h.listeners {
				if s.id == id {
					h.listeners = append(h.listeners[:i:i], h.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

// Len returns the number of listeners.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.listeners)
}

// Notify hands every listener its own copy of snap.
func (h *Hub) Notify(snap domain.Snapshot) {
	h.mu.Lock()
	listeners := make([]subscription, len(h.listeners))
	copy(listeners, h.listeners)
	h.mu.Unlock()

	for _, s := range listeners {
		h.deliver(s, deepcopy.Copy(snap).(domain.Snapshot))
	}
}

func (h *Hub) deliver(s subscription, snap domain.Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("Listener failed", "listener", s.id, "err", fmt.Sprint(r))
		}
	}()
	s.fn(snap)
}

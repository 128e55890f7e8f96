package http

import (
	"log/slog"
	"sync"
)

// StreamManager fans snapshot diffs out to the connected SSE clients.
type StreamManager struct {
	logger *slog.Logger

	mu          sync.RWMutex
	subscribers map[chan<- string]struct{}
}

// NewStreamManager creates an empty manager.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	return &StreamManager{
		logger:      logger,
		subscribers: make(map[chan<- string]struct{}),
	}
}

// Subscribe registers a client channel and returns it with its cancel function.
func (sm *StreamManager) Subscribe() (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	sm.subscribers[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			delete(sm.subscribers, ch)
			close(ch)
		})
	}
}

// Len returns the number of connected clients.
func (sm *StreamManager) Len() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers)
}

// Broadcast delivers msg to every client without blocking.
func (sm *StreamManager) Broadcast(msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	sm.logger.Debug("Broadcasting diff", "clients", len(sm.subscribers), "payload_size", len(msg))
	for ch := range sm.subscribers {
		select {
		case ch <- msg:
		default:
			// Drop message if channel is full (slow client)
			sm.logger.Warn("SSE client buffer full, dropping message")
		}
	}
}

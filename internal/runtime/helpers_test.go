package runtime_test

import (
	"bytes"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/statelab/pkg/domain"
)

// toggleConfig is the light switch used across the engine tests.
func toggleConfig() *domain.Configuration {
	return &domain.Configuration{
		ID:           "toggle",
		InitialState: "off",
		Context:      map[string]any{"count": 0},
		States: map[string]domain.StateNode{
			"off": {
				Label: "Off",
				On: map[string]domain.Transition{
					"toggle": {To: "on", Action: "context.count = (context.count||0)+1"},
				},
			},
			"on": {
				On: map[string]domain.Transition{
					"toggle": {To: "off"},
					"break":  {To: "off", Action: `context.count = context.count + "x"`},
				},
			},
		},
	}
}

// stepClock returns a deterministic clock advancing one second per call.
func stepClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

// syncBuffer is a goroutine-safe log sink.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newCapturingLogger() (*slog.Logger, *syncBuffer) {
	buf := &syncBuffer{}
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}

package services

import (
	"log/slog"
	"sync"
	"time"
)

type EventType string

const (
	EventTypeHop    EventType = "hop"
	EventTypeStatus EventType = "status"
	EventTypeError  EventType = "error"
)

// Event is one observable moment of a pipeline run, streamed to SSE
// subscribers.
type Event struct {
	RunID     string
	Type      EventType
	Agent     string
	Data      string // JSON payload or raw text
	Timestamp int64
}

type EventBus struct {
	logger *slog.Logger
	mu     sync.RWMutex
	subs   map[string][]chan Event // Key: RunID
}

func NewEventBus(logger *slog.Logger) *EventBus {
	return &EventBus{
		logger: logger,
		subs:   make(map[string][]chan Event),
	}
}

// Subscribe returns a channel that receives events for a specific run
func (b *EventBus) Subscribe(runID string) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, 100) // Buffer to prevent blocking publisher
	b.subs[runID] = append(b.subs[runID], ch)

	// Unsubscribe function
	unsub := func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		subscribers := b.subs[runID]
		for i, sub := range subscribers {
			if sub == ch {
				close(ch)
				b.subs[runID] = append(subscribers[:i], subscribers[i+1:]...)
				break
			}
		}
		if len(b.subs[runID]) == 0 {
			delete(b.subs, runID)
		}
	}

	return ch, unsub
}

// Publish sends an event to all subscribers of the run
func (b *EventBus) Publish(e Event) {
	if e.Timestamp == 0 {
		e.Timestamp = time.Now().Unix()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	subscribers, ok := b.subs[e.RunID]
	if !ok {
		return
	}

	for _, ch := range subscribers {
		select {
		case ch <- e:
		default:
			// If channel is full, drop event to prevent blocking the run
			b.logger.Warn("event bus channel full, dropping event", "run_id", e.RunID)
		}
	}
}

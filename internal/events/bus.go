// Package events provides the in-process pub/sub bus connecting modules
// to each other and to the live event stream.
package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// EventType identifies a category of system event.
type EventType string

const (
	SpotCreated         EventType = "spot.created"
	SpotUpdated         EventType = "spot.updated"
	SpotDeleted         EventType = "spot.deleted"
	ProfileSaved        EventType = "profile.saved"
	AnalysisCompleted   EventType = "analysis.completed"
	BackupCompleted     EventType = "backup.completed"
	SystemStatusChanged EventType = "system.status_changed"
)

// Event is one published occurrence. Data is event-type specific and must
// be JSON-serializable for the stream handler.
type Event struct {
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// Handler receives published events. Handlers must not block; slow
// consumers should buffer internally.
type Handler func(*Event)

// Bus is a synchronous in-process publish/subscribe bus. Subscribing
// returns an unsubscribe function; both operations are safe for
// concurrent use.
type Bus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[EventType]map[int]Handler
	log      zerolog.Logger
}

// NewBus creates an event bus.
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		handlers: make(map[EventType]map[int]Handler),
		log:      log.With().Str("module", "events").Logger(),
	}
}

// Subscribe registers a handler for one event type and returns the
// function that removes it again.
func (b *Bus) Subscribe(t EventType, h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	if b.handlers[t] == nil {
		b.handlers[t] = make(map[int]Handler)
	}
	b.handlers[t][id] = h

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers[t], id)
	}
}

// Publish delivers an event to every subscriber of its type, synchronously
// and in unspecified order. The timestamp is stamped here if unset.
func (b *Bus) Publish(t EventType, data interface{}) {
	event := &Event{Type: t, Timestamp: time.Now().UTC(), Data: data}

	b.mu.RLock()
	subs := make([]Handler, 0, len(b.handlers[t]))
	for _, h := range b.handlers[t] {
		subs = append(subs, h)
	}
	b.mu.RUnlock()

	b.log.Debug().Str("event_type", string(t)).Int("subscribers", len(subs)).Msg("Publishing event")

	for _, h := range subs {
		h(event)
	}
}

package loader

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType identifies a lifecycle event kind.
type EventType string

const (
	EventLoaded            EventType = "extension.loaded"
	EventLoadError         EventType = "extension.load_error"
	EventActivated         EventType = "extension.activated"
	EventActivationError   EventType = "extension.activation_error"
	EventDeactivated       EventType = "extension.deactivated"
	EventDeactivationError EventType = "extension.deactivation_error"
)

// Event is a lifecycle notification. Events are fire-and-forget, not
// a transactional log; a given extension's events fire in the order
// its state actually changed.
type Event struct {
	ID          string    `json:"id"`
	Type        EventType `json:"type"`
	ExtensionID string    `json:"extensionId"`
	Timestamp   time.Time `json:"timestamp"`
	Error       string    `json:"error,omitempty"`
}

// EventHandler receives lifecycle events.
type EventHandler func(Event)

// EventBus is an in-process publish/subscribe channel for lifecycle
// events, keyed by event kind.
type EventBus struct {
	mu       sync.RWMutex
	handlers map[EventType][]EventHandler
}

// NewEventBus creates an empty event bus.
func NewEventBus() *EventBus {
	return &EventBus{
		handlers: make(map[EventType][]EventHandler),
	}
}

// On subscribes a handler to an event kind.
func (b *EventBus) On(t EventType, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[t] = append(b.handlers[t], handler)
}

// Emit delivers an event synchronously to every subscriber of its
// kind, in subscription order.
func (b *EventBus) Emit(t EventType, extensionID string, cause error) Event {
	event := Event{
		ID:          uuid.New().String(),
		Type:        t,
		ExtensionID: extensionID,
		Timestamp:   time.Now(),
	}
	if cause != nil {
		event.Error = cause.Error()
	}

	b.mu.RLock()
	handlers := make([]EventHandler, len(b.handlers[t]))
	copy(handlers, b.handlers[t])
	b.mu.RUnlock()

	for _, handler := range handlers {
		handler(event)
	}

	return event
}

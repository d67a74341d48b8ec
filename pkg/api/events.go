package api

import (
	"net/http"
	"sync"

	"github.com/wovenlabs/loom/pkg/httputil"
	"github.com/wovenlabs/loom/pkg/loader"
)

// eventBufferSize caps how many lifecycle events the API retains for
// introspection. Older events are dropped.
const eventBufferSize = 256

// eventBuffer records recent lifecycle events in arrival order.
type eventBuffer struct {
	mu     sync.Mutex
	events []loader.Event
}

// subscribe attaches the buffer to every lifecycle event kind.
func (b *eventBuffer) subscribe(ld *loader.Loader) {
	kinds := []loader.EventType{
		loader.EventLoaded,
		loader.EventLoadError,
		loader.EventActivated,
		loader.EventActivationError,
		loader.EventDeactivated,
		loader.EventDeactivationError,
	}
	for _, kind := range kinds {
		ld.On(kind, b.record)
	}
}

func (b *eventBuffer) record(event loader.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.events = append(b.events, event)
	if len(b.events) > eventBufferSize {
		b.events = b.events[len(b.events)-eventBufferSize:]
	}
}

// snapshot returns a copy of the retained events, oldest first.
func (b *eventBuffer) snapshot() []loader.Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	events := make([]loader.Event, len(b.events))
	copy(events, b.events)
	return events
}

// listEvents handles GET /lifecycle/events. An optional ?extension=
// query filters to a single extension's events.
func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	events := s.events.snapshot()

	if extensionID := httputil.ParseQueryString(r, "extension", ""); extensionID != "" {
		filtered := events[:0]
		for _, event := range events {
			if event.ExtensionID == extensionID {
				filtered = append(filtered, event)
			}
		}
		events = filtered
	}

	httputil.WriteSuccess(w, map[string]interface{}{
		"events": events,
		"count":  len(events),
	})
}

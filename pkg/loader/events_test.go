package loader

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEventBus_Emit tests synchronous delivery in subscription order
func TestEventBus_Emit(t *testing.T) {
	bus := NewEventBus()

	var got []string
	bus.On(EventActivated, func(e Event) { got = append(got, "first") })
	bus.On(EventActivated, func(e Event) { got = append(got, "second") })
	bus.On(EventDeactivated, func(e Event) { got = append(got, "wrong-kind") })

	event := bus.Emit(EventActivated, "flow-designer", nil)

	assert.Equal(t, []string{"first", "second"}, got)
	assert.Equal(t, EventActivated, event.Type)
	assert.Equal(t, "flow-designer", event.ExtensionID)
	assert.NotEmpty(t, event.ID)
	assert.False(t, event.Timestamp.IsZero())
	assert.Empty(t, event.Error)
}

// TestEventBus_ErrorEvents tests that the cause is carried as a string
func TestEventBus_ErrorEvents(t *testing.T) {
	bus := NewEventBus()

	var got Event
	bus.On(EventLoadError, func(e Event) { got = e })

	bus.Emit(EventLoadError, "broken-ext", errors.New("resolver exploded"))

	assert.Equal(t, "resolver exploded", got.Error)
	assert.Equal(t, "broken-ext", got.ExtensionID)
}

// TestEventBus_UniqueIDs tests that every event gets its own id
func TestEventBus_UniqueIDs(t *testing.T) {
	bus := NewEventBus()

	e1 := bus.Emit(EventLoaded, "ext-one", nil)
	e2 := bus.Emit(EventLoaded, "ext-one", nil)

	require.NotEmpty(t, e1.ID)
	assert.NotEqual(t, e1.ID, e2.ID)
}

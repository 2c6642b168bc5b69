package realtime

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBusDispatchInRegistrationOrder(t *testing.T) {
	b := newBus()
	var order []string

	b.subscribe("evt", func(json.RawMessage) { order = append(order, "first") })
	b.subscribe("evt", func(json.RawMessage) { order = append(order, "second") })
	b.subscribe("evt", func(json.RawMessage) { order = append(order, "third") })

	b.dispatch("evt", nil)
	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestBusUnsubscribe(t *testing.T) {
	b := newBus()
	var calls int

	sub := b.subscribe("evt", func(json.RawMessage) { calls++ })
	keep := b.subscribe("evt", func(json.RawMessage) { calls += 10 })

	b.unsubscribe("evt", sub)
	b.dispatch("evt", nil)
	assert.Equal(t, 10, calls)

	// Unsubscribing twice or with the zero subscription is harmless.
	b.unsubscribe("evt", sub)
	b.unsubscribe("evt", 0)
	b.dispatch("evt", nil)
	assert.Equal(t, 20, calls)
	_ = keep
}

func TestBusDispatchUnknownEvent(t *testing.T) {
	b := newBus()
	b.dispatch("nobody-listens", json.RawMessage(`{}`))
}

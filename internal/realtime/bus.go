package realtime

import (
	"encoding/json"
	"sync"
)

// Handler receives the raw payload of a dispatched event.
type Handler func(payload json.RawMessage)

// Subscription identifies one registered handler. The zero value is inert.
type Subscription int

// bus fans events out to subscribers. Fan-out order is the registration
// order; that ordering is a contract, not an accident of implementation.
type bus struct {
	mu   sync.RWMutex
	next Subscription
	subs map[string][]registration
}

type registration struct {
	id Subscription
	fn Handler
}

func newBus() *bus {
	return &bus{subs: make(map[string][]registration)}
}

func (b *bus) subscribe(event string, fn Handler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	b.subs[event] = append(b.subs[event], registration{id: b.next, fn: fn})
	return b.next
}

func (b *bus) unsubscribe(event string, id Subscription) {
	if id == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	regs := b.subs[event]
	for i, reg := range regs {
		if reg.id == id {
			b.subs[event] = append(regs[:i:i], regs[i+1:]...)
			return
		}
	}
}

func (b *bus) dispatch(event string, payload json.RawMessage) {
	b.mu.RLock()
	regs := make([]registration, len(b.subs[event]))
	copy(regs, b.subs[event])
	b.mu.RUnlock()

	for _, reg := range regs {
		reg.fn(payload)
	}
}

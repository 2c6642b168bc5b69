package sync

import (
	"encoding/json"
	stdsync "sync"
	"testing"

	"breadshare-client/internal/realtime"
)

// fakeRealtime is an in-process stand-in for the connection manager: Push
// feeds an event straight to subscribed handlers and Emit just records.
type fakeRealtime struct {
	mu       stdsync.Mutex
	next     realtime.Subscription
	handlers map[realtime.Subscription]registration
	emitted  []emittedEvent
}

type registration struct {
	event string
	fn    realtime.Handler
}

type emittedEvent struct {
	event   string
	payload any
}

func newFakeRealtime() *fakeRealtime {
	return &fakeRealtime{handlers: make(map[realtime.Subscription]registration)}
}

func (f *fakeRealtime) On(event string, fn realtime.Handler) realtime.Subscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	f.handlers[f.next] = registration{event: event, fn: fn}
	return f.next
}

func (f *fakeRealtime) Off(event string, sub realtime.Subscription) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.handlers, sub)
}

func (f *fakeRealtime) Emit(event string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emitted = append(f.emitted, emittedEvent{event: event, payload: payload})
}

// Push marshals payload and invokes every handler subscribed to event.
func (f *fakeRealtime) Push(t *testing.T, event string, payload any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal push payload: %v", err)
	}
	f.mu.Lock()
	var fns []realtime.Handler
	for sub := realtime.Subscription(1); sub <= f.next; sub++ {
		if reg, ok := f.handlers[sub]; ok && reg.event == event {
			fns = append(fns, reg.fn)
		}
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(raw)
	}
}

func (f *fakeRealtime) emittedEvents() []emittedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]emittedEvent, len(f.emitted))
	copy(out, f.emitted)
	return out
}

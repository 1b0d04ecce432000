package cascade

import "sync"

// Listener receives an emitted event payload.
type Listener func(payload any)

// EventBus is a small synchronous pub/sub table: name -> ordered listener
// set. Listeners run synchronously in registration order; a panicking
// listener is recovered so it cannot block listeners registered after it.
//
// Used by the DataSourceRegistry ("registered", "default-registered",
// "connected", "disconnected") and by Driver ("connected", "disconnected"),
// per spec.md §6 and §9.
type EventBus struct {
	mu        sync.Mutex
	listeners map[string][]*subscription
	seq       uint64
}

type subscription struct {
	id   uint64
	fn   Listener
	once bool
}

// NewEventBus returns an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{listeners: make(map[string][]*subscription)}
}

// On registers fn to run on every future Emit(name, ...) and returns an id
// usable with Off.
func (b *EventBus) On(name string, fn Listener) uint64 {
	return b.add(name, fn, false)
}

// Once registers fn to run exactly once.
func (b *EventBus) Once(name string, fn Listener) uint64 {
	return b.add(name, fn, true)
}

func (b *EventBus) add(name string, fn Listener, once bool) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	sub := &subscription{id: b.seq, fn: fn, once: once}
	b.listeners[name] = append(b.listeners[name], sub)
	return sub.id
}

// Off removes the listener registered under id, across all event names.
func (b *EventBus) Off(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for name, subs := range b.listeners {
		for i, s := range subs {
			if s.id == id {
				b.listeners[name] = append(subs[:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Emit runs every listener registered for name, in registration order. A
// listener that panics is recovered and does not stop the remaining
// listeners from running.
func (b *EventBus) Emit(name string, payload any) {
	b.mu.Lock()
	subs := append([]*subscription(nil), b.listeners[name]...)
	var remaining []*subscription
	for _, s := range b.listeners[name] {
		if !s.once {
			remaining = append(remaining, s)
		}
	}
	b.listeners[name] = remaining
	b.mu.Unlock()

	for _, s := range subs {
		b.runListener(s.fn, payload)
	}
}

func (b *EventBus) runListener(fn Listener, payload any) {
	defer func() { _ = recover() }()
	fn(payload)
}

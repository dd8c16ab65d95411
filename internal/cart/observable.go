package cart

import "sync"

// Observable is a minimal observable store: a value plus a set of
// subscribers notified after every mutation. Badge counters and totals
// rendered elsewhere stay consistent without polling.
type Observable[T any] struct {
	mu    sync.RWMutex
	value T
	subs  map[int]func(T)
	next  int
}

// NewObservable creates an observable store holding initial.
func NewObservable[T any](initial T) *Observable[T] {
	return &Observable[T]{
		value: initial,
		subs:  make(map[int]func(T)),
	}
}

// Snapshot returns the current value.
func (o *Observable[T]) Snapshot() T {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.value
}

// Mutate applies fn to the current value and notifies every subscriber with
// the result. Subscribers run outside the lock so one slow view cannot
// block another mutation.
func (o *Observable[T]) Mutate(fn func(T) T) T {
	o.mu.Lock()
	o.value = fn(o.value)
	next := o.value
	subs := make([]func(T), 0, len(o.subs))
	for _, sub := range o.subs {
		subs = append(subs, sub)
	}
	o.mu.Unlock()

	for _, sub := range subs {
		sub(next)
	}
	return next
}

// Subscribe registers fn for change notifications and returns an
// unsubscribe function.
func (o *Observable[T]) Subscribe(fn func(T)) func() {
	o.mu.Lock()
	id := o.next
	o.next++
	o.subs[id] = fn
	o.mu.Unlock()

	return func() {
		o.mu.Lock()
		delete(o.subs, id)
		o.mu.Unlock()
	}
}

// Package stream provides the hot broadcast primitive the state stores use
// to push snapshots at their consumers: publishing replaces the latest
// value and synchronously notifies every subscriber, and a new subscriber
// immediately receives the latest value (never older history).
package stream

import "sync"

// Broadcast is a latest-value pub/sub channel.
type Broadcast[T any] struct {
	mu     sync.Mutex
	latest T
	seeded bool
	subs   map[int]func(T)
	nextID int
}

// Subscription is a handle to one subscriber.
type Subscription struct {
	cancel func()
	once   sync.Once
}

// Unsubscribe removes the subscriber. It is idempotent.
func (s *Subscription) Unsubscribe() {
	s.once.Do(s.cancel)
}

func New[T any]() *Broadcast[T] {
	return &Broadcast[T]{subs: make(map[int]func(T))}
}

// NewSeeded returns a Broadcast whose latest value is already set, so the
// first subscriber sees v without waiting for a publish.
func NewSeeded[T any](v T) *Broadcast[T] {
	b := New[T]()
	b.latest = v
	b.seeded = true
	return b
}

// Subscribe registers fn and, when a latest value exists, invokes it with
// that value before returning. fn runs synchronously on the publisher's
// goroutine; it must not call back into the Broadcast.
func (b *Broadcast[T]) Subscribe(fn func(T)) *Subscription {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	replay, seeded := b.latest, b.seeded
	b.mu.Unlock()

	if seeded {
		fn(replay)
	}

	return &Subscription{cancel: func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}}
}

// Publish stores v as the latest value and notifies all subscribers.
func (b *Broadcast[T]) Publish(v T) {
	b.mu.Lock()
	b.latest = v
	b.seeded = true
	fns := make([]func(T), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

// Latest returns the most recently published value, if any.
func (b *Broadcast[T]) Latest() (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.latest, b.seeded
}

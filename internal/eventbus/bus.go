// Package eventbus provides a typed fan-out bus. Publishing never blocks: an
// event is dropped for a subscriber whose buffer is full.
package eventbus

import (
	"context"
	"sync"
	"sync/atomic"
)

// Bus fans events of type T out to subscribers.
type Bus[T any] struct {
	mu      sync.RWMutex
	subs    []chan T
	buffer  int
	closed  bool
	dropped atomic.Int64
}

// New creates a Bus whose subscriber channels hold buffer events.
func New[T any](buffer int) *Bus[T] {
	if buffer <= 0 {
		buffer = 16
	}
	return &Bus[T]{buffer: buffer}
}

// Publish sends e to every subscriber with room for it.
func (b *Bus[T]) Publish(e T) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
			b.dropped.Add(1)
		}
	}
}

// Subscribe registers a subscriber. The channel is closed by Unsubscribe or
// Close.
func (b *Bus[T]) Subscribe() <-chan T {
	ch := make(chan T, b.buffer)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.subs = append(b.subs, ch)
	return ch
}

// Unsubscribe removes sub and closes it.
func (b *Bus[T]) Unsubscribe(sub <-chan T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, ch := range b.subs {
		if ch == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			close(ch)
			return
		}
	}
}

// Close closes every subscriber. Later publishes are ignored.
func (b *Bus[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}

// Dropped returns the number of deliveries skipped because a subscriber was
// full.
func (b *Bus[T]) Dropped() int64 { return b.dropped.Load() }

// Consume subscribes fn to the bus in a new goroutine. It returns a wait
// function that blocks until every event delivered before the bus was closed
// or ctx was done has been handled.
func (b *Bus[T]) Consume(ctx context.Context, fn func(T)) (wait func()) {
	sub := b.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer b.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-sub:
				if !ok {
					return
				}
				fn(e)
			}
		}
	}()
	return func() { <-done }
}

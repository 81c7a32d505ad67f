package plugins

import (
	"sync"
	"sync/atomic"
)

// Lazy holds a value that is computed on first use and then reused.
//
// Concurrent first readers block until the single computation finishes and
// all observe the same value.
type Lazy[T any] struct {
	once    sync.Once
	fn      func() T
	value   T
	created atomic.Bool
}

// NewLazy wraps fn without calling it
func NewLazy[T any](fn func() T) *Lazy[T] {
	return &Lazy[T]{fn: fn}
}

// NewLazyValue returns a Lazy that is already resolved to v
func NewLazyValue[T any](v T) *Lazy[T] {
	l := &Lazy[T]{value: v}
	l.once.Do(func() {})
	l.created.Store(true)
	return l
}

// Value returns the computed value, running the computation if needed
func (l *Lazy[T]) Value() T {
	l.once.Do(func() {
		defer l.created.Store(true)
		l.value = l.fn()
		l.fn = nil
	})
	return l.value
}

// IsValueCreated reports whether the value has been computed
func (l *Lazy[T]) IsValueCreated() bool {
	return l.created.Load()
}

// Package deferred provides a single-assignment result container. A
// Deferred is settled at most once, by Resolve or Reject, and any number of
// observers see that one outcome regardless of whether they start waiting
// before or after settlement.
package deferred

import (
	"context"
	"sync"
)

// Deferred holds a value of type T that is produced at most once.
type Deferred[T any] struct {
	once sync.Once
	done chan struct{}
	val  T
	err  error
}

// New creates an unsettled Deferred.
func New[T any]() *Deferred[T] {
	return &Deferred[T]{done: make(chan struct{})}
}

// Resolve settles the deferred with a value. It reports whether this call
// performed the settlement; later calls to Resolve or Reject are no-ops.
func (d *Deferred[T]) Resolve(val T) bool {
	settled := false
	d.once.Do(func() {
		d.val = val
		settled = true
		close(d.done)
	})
	return settled
}

// Reject settles the deferred with an error. It reports whether this call
// performed the settlement; later calls to Resolve or Reject are no-ops.
func (d *Deferred[T]) Reject(err error) bool {
	settled := false
	d.once.Do(func() {
		d.err = err
		settled = true
		close(d.done)
	})
	return settled
}

// Done returns a channel closed once the deferred settles.
func (d *Deferred[T]) Done() <-chan struct{} {
	return d.done
}

// Settled reports whether the deferred has been resolved or rejected.
func (d *Deferred[T]) Settled() bool {
	select {
	case <-d.done:
		return true
	default:
		return false
	}
}

// Await blocks until the deferred settles or ctx is cancelled, then returns
// the settled outcome. Cancellation does not settle the deferred; a later
// Await still observes the eventual outcome.
func (d *Deferred[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-d.done:
		return d.val, d.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Run executes fn in its own goroutine and returns a Deferred settled with
// fn's outcome. It bridges blocking call sites into an awaitable value.
func Run[T any](fn func() (T, error)) *Deferred[T] {
	d := New[T]()
	go func() {
		val, err := fn()
		if err != nil {
			d.Reject(err)
			return
		}
		d.Resolve(val)
	}()
	return d
}

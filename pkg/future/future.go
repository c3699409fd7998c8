// Package future provides a single-assignment completion handle for work that
// runs on background goroutines.
package future

import (
	"context"
	"sync"
)

// Future is completed exactly once with a value or an error. Callers that must
// not block select on Done or register a callback with OnComplete.
type Future[T any] struct {
	done      chan struct{}
	mu        sync.Mutex
	completed bool
	value     T
	err       error
	callbacks []func(T, error)
}

// New returns a pending future and the function that completes it. Calls to
// the completion function after the first are ignored.
func New[T any]() (*Future[T], func(T, error)) {
	f := &Future[T]{done: make(chan struct{})}
	return f, f.complete
}

// Completed returns an already completed future.
func Completed[T any](value T, err error) *Future[T] {
	f, complete := New[T]()
	complete(value, err)
	return f
}

// Failed returns a future completed with err.
func Failed[T any](err error) *Future[T] {
	var zero T
	return Completed(zero, err)
}

func (f *Future[T]) complete(value T, err error) {
	f.mu.Lock()
	if f.completed {
		f.mu.Unlock()
		return
	}
	f.completed = true
	f.value = value
	f.err = err
	callbacks := f.callbacks
	f.callbacks = nil
	close(f.done)
	f.mu.Unlock()

	for _, cb := range callbacks {
		cb(value, err)
	}
}

// Done is closed once the future completes.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Poll returns the outcome without blocking; ok is false while pending.
func (f *Future[T]) Poll() (value T, err error, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.completed {
		var zero T
		return zero, nil, false
	}
	return f.value, f.err, true
}

// OnComplete registers fn to run once the future completes. fn runs on the
// completing goroutine, or on a new goroutine when the future has already
// completed, never on the caller's goroutine.
func (f *Future[T]) OnComplete(fn func(T, error)) {
	f.mu.Lock()
	if !f.completed {
		f.callbacks = append(f.callbacks, fn)
		f.mu.Unlock()
		return
	}
	value, err := f.value, f.err
	f.mu.Unlock()
	go fn(value, err)
}

// Await blocks until completion or until ctx is done.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Result blocks until completion. It is the synchronous convenience wrapper
// and must only be used from background goroutines.
func (f *Future[T]) Result() (T, error) {
	<-f.done
	return f.value, f.err
}

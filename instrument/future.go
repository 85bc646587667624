package instrument

import (
	"context"
	"sync"

	"github.com/loomkit/loom/pkg/stdx"
)

// Future is the single-result side of an asynchronous operation. It is
// completed exactly once; later completions are ignored.
type Future[T any] struct {
	done chan struct{}
	once sync.Once
	val  T
	err  error
}

// NewFuture returns an unresolved future.
func NewFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Complete resolves the future with a value.
func (f *Future[T]) Complete(val T) {
	f.once.Do(func() {
		f.val = val
		close(f.done)
	})
}

// Fail resolves the future with an error.
func (f *Future[T]) Fail(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

// Await blocks until the future resolves or ctx is done. Cancellation
// returns ctx.Err without consuming the eventual result; a later Await
// can still observe it.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		return stdx.Zero[T](), ctx.Err()
	}
}

// Go runs fn on its own goroutine and returns the future of its result.
func Go[T any](fn func() (T, error)) *Future[T] {
	f := NewFuture[T]()
	go func() {
		val, err := fn()
		if err != nil {
			f.Fail(err)
			return
		}
		f.Complete(val)
	}()
	return f
}

// Resolved returns a future that already holds val.
func Resolved[T any](val T) *Future[T] {
	f := NewFuture[T]()
	f.Complete(val)
	return f
}

// Failed returns a future that already holds err.
func Failed[T any](err error) *Future[T] {
	f := NewFuture[T]()
	f.Fail(err)
	return f
}

// Item is one element of an asynchronous stream: a value or a production
// failure, never both.
type Item[T any] struct {
	Value T
	Err   error
}

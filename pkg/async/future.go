package async

import (
	"context"
	"fmt"
	"sync"
)

// Pending is satisfied by any deferred value regardless of its result type.
// Template helpers return it to hand the engine work that settles later.
type Pending interface {
	AwaitValue(ctx context.Context) (any, error)
}

// Future is a value that settles exactly once, either resolved with a result
// or rejected with an error. Waiters never block the producer.
type Future[T any] struct {
	done chan struct{}
	once sync.Once
	val  T
	err  error
}

var _ Pending = (*Future[string])(nil)

// New returns an unsettled future.
func New[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Resolved returns a future already settled with v.
func Resolved[T any](v T) *Future[T] {
	f := New[T]()
	f.Resolve(v)
	return f
}

// Rejected returns a future already settled with err.
func Rejected[T any](err error) *Future[T] {
	f := New[T]()
	f.Reject(err)
	return f
}

// Go runs fn on a new goroutine and settles the returned future with its
// result. A panic inside fn rejects the future instead of crashing the process.
func Go[T any](fn func() (T, error)) *Future[T] {
	f := New[T]()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				f.Reject(fmt.Errorf("async: panic: %v", r))
			}
		}()
		v, err := fn()
		if err != nil {
			f.Reject(err)
			return
		}
		f.Resolve(v)
	}()
	return f
}

// Resolve settles the future with v. It reports false when the future was
// already settled.
func (f *Future[T]) Resolve(v T) bool {
	return f.settle(v, nil)
}

// Reject settles the future with err. A nil err is replaced so that waiters can
// always tell a rejection apart from a zero-value result.
func (f *Future[T]) Reject(err error) bool {
	if err == nil {
		err = fmt.Errorf("async: rejected without error")
	}
	var zero T
	return f.settle(zero, err)
}

func (f *Future[T]) settle(v T, err error) bool {
	settled := false
	f.once.Do(func() {
		f.val = v
		f.err = err
		settled = true
		close(f.done)
	})
	return settled
}

// Done is closed once the future settles.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the future settles or ctx is done. Giving up on the wait
// does not stop the work producing the value.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// AwaitValue implements Pending.
func (f *Future[T]) AwaitValue(ctx context.Context) (any, error) {
	v, err := f.Await(ctx)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Then invokes fn with the settled result on a separate goroutine.
func (f *Future[T]) Then(fn func(T, error)) {
	if fn == nil {
		return
	}
	go func() {
		<-f.done
		fn(f.val, f.err)
	}()
}

package async_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-view/pkg/async"
)

func TestFutureSettlesOnce(t *testing.T) {
	f := async.New[string]()
	if !f.Resolve("first") {
		t.Fatalf("expected first resolve to settle")
	}
	if f.Resolve("second") {
		t.Fatalf("expected second resolve to be ignored")
	}
	if f.Reject(errors.New("late")) {
		t.Fatalf("expected late reject to be ignored")
	}

	got, err := f.Await(context.Background())
	if err != nil {
		t.Fatalf("await: %v", err)
	}
	if got != "first" {
		t.Fatalf("expected first, got %q", got)
	}
}

func TestGoRecoversPanics(t *testing.T) {
	f := async.Go(func() (int, error) {
		panic("boom")
	})

	_, err := f.Await(context.Background())
	if err == nil || err.Error() != "async: panic: boom" {
		t.Fatalf("expected panic error, got %v", err)
	}
}

func TestAwaitHonoursContextWithoutStoppingWork(t *testing.T) {
	release := make(chan struct{})
	f := async.Go(func() (string, error) {
		<-release
		return "done", nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := f.Await(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	close(release)
	got, err := f.Await(context.Background())
	if err != nil || got != "done" {
		t.Fatalf("expected work to complete, got %q %v", got, err)
	}
}

func TestThenReceivesRejection(t *testing.T) {
	want := errors.New("nope")
	f := async.Rejected[string](want)

	got := make(chan error, 1)
	f.Then(func(_ string, err error) { got <- err })

	select {
	case err := <-got:
		if !errors.Is(err, want) {
			t.Fatalf("expected %v, got %v", want, err)
		}
	case <-time.After(time.Second):
		t.Fatalf("callback not invoked")
	}
}

func TestAwaitValueAsPending(t *testing.T) {
	var p async.Pending = async.Resolved(42)
	v, err := p.AwaitValue(context.Background())
	if err != nil {
		t.Fatalf("await value: %v", err)
	}
	if v != 42 {
		t.Fatalf("expected 42, got %v", v)
	}
}

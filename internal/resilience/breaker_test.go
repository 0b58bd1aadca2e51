package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errTest = errors.New("service unavailable")

func fail(context.Context) error { return errTest }
func succeed(context.Context) error { return nil }

func trip(t *testing.T, b *Breaker, n int) {
	t.Helper()
	for range n {
		_ = b.Do(context.Background(), fail)
	}
}

func TestClosedStateAllowsCalls(t *testing.T) {
	b := NewBreaker(3, time.Second)
	called := false
	err := b.Do(context.Background(), func(context.Context) error {
		called = true
		return nil
	})
	if err != nil || !called {
		t.Fatalf("expected call to pass, err=%v called=%v", err, called)
	}
	if b.State() != StateClosed {
		t.Errorf("state = %s", b.State())
	}
}

func TestOpensAfterMaxFailures(t *testing.T) {
	b := NewBreaker(3, time.Second)
	trip(t, b, 3)

	if err := b.Do(context.Background(), succeed); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if b.State() != StateOpen {
		t.Errorf("state = %s, want open", b.State())
	}
}

func TestHalfOpenSuccessCloses(t *testing.T) {
	now := time.Now()
	b := NewBreaker(2, time.Second)
	b.now = func() time.Time { return now }
	trip(t, b, 2)

	if err := b.Do(context.Background(), succeed); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}

	now = now.Add(2 * time.Second)
	if b.State() != StateHalfOpen {
		t.Fatalf("state = %s, want half-open", b.State())
	}
	if err := b.Do(context.Background(), succeed); err != nil {
		t.Fatalf("probe rejected: %v", err)
	}
	if b.State() != StateClosed {
		t.Fatalf("state = %s, want closed", b.State())
	}
}

func TestHalfOpenFailureReopens(t *testing.T) {
	now := time.Now()
	b := NewBreaker(2, time.Second)
	b.now = func() time.Time { return now }
	trip(t, b, 2)

	now = now.Add(2 * time.Second)
	_ = b.Do(context.Background(), fail)

	if err := b.Do(context.Background(), succeed); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen after reopen, got %v", err)
	}
}

func TestHalfOpenAllowsSingleProbe(t *testing.T) {
	now := time.Now()
	b := NewBreaker(1, time.Second)
	b.now = func() time.Time { return now }
	trip(t, b, 1)
	now = now.Add(2 * time.Second)

	release := make(chan struct{})
	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- b.Do(context.Background(), func(context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	if err := b.Do(context.Background(), succeed); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("second call during probe = %v, want ErrCircuitOpen", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("probe: %v", err)
	}
	if b.State() != StateClosed {
		t.Errorf("state = %s after successful probe", b.State())
	}
}

func TestCanceledContextNotCounted(t *testing.T) {
	b := NewBreaker(1, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := b.Do(ctx, func(ctx context.Context) error { return ctx.Err() })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if b.State() != StateClosed {
		t.Errorf("caller cancellation must not trip the breaker, state = %s", b.State())
	}
}

func TestSuccessResetsFailureCount(t *testing.T) {
	b := NewBreaker(3, time.Second)
	trip(t, b, 2)
	_ = b.Do(context.Background(), succeed)
	trip(t, b, 2)

	if err := b.Do(context.Background(), succeed); err != nil {
		t.Fatalf("expected closed circuit, got %v", err)
	}
}

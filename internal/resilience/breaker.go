// Package resilience provides reliability patterns for external service calls.
package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned when the circuit breaker is open and rejecting calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State is the externally visible breaker state.
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half-open"
)

// Breaker opens after maxFailures consecutive failures and rejects calls
// until timeout has elapsed. It then lets exactly one probe through; the
// probe's outcome closes or reopens the circuit.
type Breaker struct {
	mu          sync.Mutex
	state       State
	failures    int
	probing     bool
	maxFailures int
	timeout     time.Duration
	openedAt    time.Time
	now         func() time.Time
}

// NewBreaker creates a circuit breaker.
func NewBreaker(maxFailures int, timeout time.Duration) *Breaker {
	return &Breaker{
		state:       StateClosed,
		maxFailures: max(maxFailures, 1),
		timeout:     timeout,
		now:         time.Now,
	}
}

// Do runs fn unless the circuit is open. Errors caused by the caller's
// context ending are returned but not counted as failures.
func (b *Breaker) Do(ctx context.Context, fn func(context.Context) error) error {
	probe, ok := b.acquire()
	if !ok {
		return ErrCircuitOpen
	}

	err := fn(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()
	if probe {
		b.probing = false
	}

	switch {
	case err == nil:
		b.failures = 0
		b.state = StateClosed
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		if probe {
			b.state = StateOpen
		}
	default:
		b.failures++
		if b.state == StateHalfOpen || b.failures >= b.maxFailures {
			b.state = StateOpen
			b.openedAt = b.now()
		}
	}
	return err
}

// State reports the current state, promoting open to half-open once the
// timeout has elapsed.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.timeout {
		return StateHalfOpen
	}
	return b.state
}

func (b *Breaker) acquire() (probe, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return false, true
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.timeout {
			return false, false
		}
		b.state = StateHalfOpen
		b.probing = true
		return true, true
	case StateHalfOpen:
		if b.probing {
			return false, false
		}
		b.probing = true
		return true, true
	}
	return false, false
}

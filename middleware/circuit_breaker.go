package middleware

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/connorjcantrell/dbpool/factory"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

// CircuitBreaker wraps a Factory and stops calling Open once the backing
// store looks dead, so a saturated pool does not hammer it with one connect
// attempt per waiting checkout.
type CircuitBreaker[C any] struct {
	Threshold    int           // Number of consecutive open failures before opening
	ResetTimeout time.Duration // Time to wait before a half-open probe

	next factory.Factory[C]

	mu          sync.Mutex
	state       State
	failures    int
	lastFailure time.Time
	probing     bool
}

func NewCircuitBreaker[C any](next factory.Factory[C], threshold int, resetTimeout time.Duration) *CircuitBreaker[C] {
	return &CircuitBreaker[C]{
		Threshold:    threshold,
		ResetTimeout: resetTimeout,
		next:         next,
		state:        StateClosed,
	}
}

// State reports the breaker's current state.
func (cb *CircuitBreaker[C]) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker[C]) Open(ctx context.Context) (C, error) {
	var zero C

	cb.mu.Lock()
	if cb.state == StateOpen {
		if time.Since(cb.lastFailure) > cb.ResetTimeout {
			cb.state = StateHalfOpen
			cb.probing = false
		} else {
			cb.mu.Unlock()
			return zero, ErrCircuitOpen
		}
	}
	if cb.state == StateHalfOpen {
		if cb.probing {
			// One probe at a time while half-open.
			cb.mu.Unlock()
			return zero, ErrCircuitOpen
		}
		cb.probing = true
	}
	cb.mu.Unlock()

	conn, err := cb.next.Open(ctx)

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err != nil {
		cb.failures++
		cb.lastFailure = time.Now()
		if cb.state == StateHalfOpen || cb.failures >= cb.Threshold {
			cb.state = StateOpen
		}
		cb.probing = false
		return zero, err
	}
	cb.state = StateClosed
	cb.failures = 0
	cb.probing = false
	return conn, nil
}

func (cb *CircuitBreaker[C]) Check(ctx context.Context, conn C) bool {
	return cb.next.Check(ctx, conn)
}

func (cb *CircuitBreaker[C]) Close(conn C) error {
	return cb.next.Close(conn)
}

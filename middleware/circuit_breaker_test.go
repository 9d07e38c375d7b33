package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type stubConn struct{}

// flakyFactory fails Open until recovered is set.
type flakyFactory struct {
	mu        sync.Mutex
	calls     int
	recovered bool
}

func (f *flakyFactory) Open(ctx context.Context) (*stubConn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if !f.recovered {
		return nil, errors.New("connection refused")
	}
	return &stubConn{}, nil
}

func (f *flakyFactory) Check(ctx context.Context, c *stubConn) bool { return true }

func (f *flakyFactory) Close(c *stubConn) error { return nil }

func (f *flakyFactory) recover() {
	f.mu.Lock()
	f.recovered = true
	f.mu.Unlock()
}

func (f *flakyFactory) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestCircuitBreakerTripsAfterThreshold(t *testing.T) {
	f := &flakyFactory{}
	cb := NewCircuitBreaker[*stubConn](f, 2, time.Hour)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := cb.Open(ctx); err == nil {
			t.Fatal("expected open failure")
		}
	}
	if cb.State() != StateOpen {
		t.Fatalf("breaker not open after %d failures", 2)
	}

	if _, err := cb.Open(ctx); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if f.callCount() != 2 {
		t.Errorf("open breaker still called the factory, %d calls", f.callCount())
	}
}

func TestCircuitBreakerHalfOpenRecovery(t *testing.T) {
	f := &flakyFactory{}
	cb := NewCircuitBreaker[*stubConn](f, 1, 10*time.Millisecond)
	ctx := context.Background()

	if _, err := cb.Open(ctx); err == nil {
		t.Fatal("expected open failure")
	}
	if cb.State() != StateOpen {
		t.Fatal("breaker did not trip")
	}

	f.recover()
	time.Sleep(20 * time.Millisecond)

	conn, err := cb.Open(ctx)
	if err != nil {
		t.Fatalf("probe after reset timeout failed: %v", err)
	}
	if conn == nil {
		t.Fatal("probe returned nil connection")
	}
	if cb.State() != StateClosed {
		t.Error("breaker did not close after a successful probe")
	}
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	f := &flakyFactory{}
	cb := NewCircuitBreaker[*stubConn](f, 1, 10*time.Millisecond)
	ctx := context.Background()

	cb.Open(ctx)
	time.Sleep(20 * time.Millisecond)

	if _, err := cb.Open(ctx); err == nil {
		t.Fatal("expected probe failure")
	}
	if cb.State() != StateOpen {
		t.Error("breaker did not reopen after a failed probe")
	}
}

func TestCircuitBreakerPassesThroughCheckAndClose(t *testing.T) {
	f := &flakyFactory{recovered: true}
	cb := NewCircuitBreaker[*stubConn](f, 1, time.Hour)

	conn, err := cb.Open(context.Background())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if !cb.Check(context.Background(), conn) {
		t.Error("Check not passed through")
	}
	if err := cb.Close(conn); err != nil {
		t.Errorf("Close not passed through: %v", err)
	}
}

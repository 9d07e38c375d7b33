package middleware

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

type sluggishFactory struct {
	delay time.Duration
}

func (f *sluggishFactory) Open(ctx context.Context) (*stubConn, error) {
	time.Sleep(f.delay)
	return &stubConn{}, nil
}

func (f *sluggishFactory) Check(ctx context.Context, c *stubConn) bool {
	time.Sleep(f.delay)
	return true
}

func (f *sluggishFactory) Close(c *stubConn) error { return nil }

func TestSlowLogRecordsSlowOpen(t *testing.T) {
	sl, err := NewSlowLog[*stubConn](&sluggishFactory{delay: 5 * time.Millisecond}, time.Millisecond, "")
	if err != nil {
		t.Fatalf("NewSlowLog failed: %v", err)
	}
	defer sl.Shutdown()

	var buf bytes.Buffer
	sl.SetOutput(&buf)

	if _, err := sl.Open(context.Background()); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if !strings.Contains(buf.String(), "op=open") {
		t.Errorf("slow open not logged, got %q", buf.String())
	}

	buf.Reset()
	sl.Check(context.Background(), &stubConn{})
	if !strings.Contains(buf.String(), "op=check") {
		t.Errorf("slow check not logged, got %q", buf.String())
	}
}

func TestSlowLogIgnoresFastOperations(t *testing.T) {
	sl, err := NewSlowLog[*stubConn](&sluggishFactory{}, time.Second, "")
	if err != nil {
		t.Fatalf("NewSlowLog failed: %v", err)
	}
	defer sl.Shutdown()

	var buf bytes.Buffer
	sl.SetOutput(&buf)

	if _, err := sl.Open(context.Background()); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	sl.Check(context.Background(), &stubConn{})

	if buf.Len() != 0 {
		t.Errorf("fast operations were logged: %q", buf.String())
	}
}

package pool_test

import (
	"context"
	"fmt"
	"time"

	"github.com/connorjcantrell/dbpool/logger"
	"github.com/connorjcantrell/dbpool/pool"
)

type memConn struct {
	id int
}

type memFactory struct {
	next int
}

func (f *memFactory) Open(ctx context.Context) (*memConn, error) {
	f.next++
	return &memConn{id: f.next}, nil
}

func (f *memFactory) Check(ctx context.Context, c *memConn) bool { return true }

func (f *memFactory) Close(c *memConn) error { return nil }

func Example() {
	p, err := pool.New[*memConn](&memFactory{}, pool.Config{
		MaxSize:         2,
		CheckoutTimeout: time.Second,
	})
	if err != nil {
		panic(err)
	}
	quiet := logger.NewStdLogger()
	quiet.SetLevel(logger.LogLevelSilent)
	p.SetLogger(quiet)

	_ = p.With(context.Background(), func(conn *memConn) error {
		fmt.Println("using connection", conn.id)
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = p.Shutdown(ctx)

	// Output: using connection 1
}

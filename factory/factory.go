package factory

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
)

// Factory opens, health-checks and closes physical connections on behalf of a
// pool. The pool never inspects a connection beyond these three operations,
// so any backing store can be pooled by supplying a Factory for it.
type Factory[C any] interface {
	// Open establishes a new connection to the backing store.
	Open(ctx context.Context) (C, error)
	// Check reports whether an existing connection is still usable.
	Check(ctx context.Context, conn C) bool
	// Close releases the connection's underlying resources.
	Close(conn C) error
}

// ErrUnknownDriver is returned by New when no factory builder is registered
// for the requested driver name.
var ErrUnknownDriver = errors.New("unknown driver")

// Builder constructs a SQL connection factory from a DSN.
type Builder func(dsn string) (Factory[driver.Conn], error)

var builders = make(map[string]Builder)

// Register registers a factory builder for a given driver name
func Register(name string, b Builder) {
	builders[name] = b
}

// New builds a SQL connection factory for a registered driver name and DSN
func New(name, dsn string) (Factory[driver.Conn], error) {
	b, ok := builders[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, name)
	}
	return b(dsn)
}

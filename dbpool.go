// Package dbpool provides a bounded, concurrent connection pool with a
// checkout/lease protocol: connections are opened lazily through a Factory,
// handed out one borrower at a time, health-checked on reuse, and replaced
// when they break.
package dbpool

import (
	"database/sql/driver"

	"github.com/connorjcantrell/dbpool/factory"
	"github.com/connorjcantrell/dbpool/pool"
)

// Re-export core types and functions
type Config = pool.Config
type Stats = pool.Stats
type Pool[C any] = pool.Pool[C]
type Lease[C any] = pool.Lease[C]
type Factory[C any] = factory.Factory[C]

var (
	ErrPoolClosed      = pool.ErrPoolClosed
	ErrCheckoutTimeout = pool.ErrCheckoutTimeout
	ErrInvalidConfig   = pool.ErrInvalidConfig
	ErrUnknownDriver   = factory.ErrUnknownDriver
)

// New builds a pool over an explicitly supplied connection factory.
func New[C any](f factory.Factory[C], cfg Config) (*Pool[C], error) {
	return pool.New(f, cfg)
}

// Open builds a pool for a registered SQL driver ("mysql", "postgres",
// "sqlite3") and DSN. No connection is opened until the first checkout.
func Open(driverName, dsn string, cfg Config) (*Pool[driver.Conn], error) {
	f, err := factory.New(driverName, dsn)
	if err != nil {
		return nil, err
	}
	return pool.New(f, cfg)
}

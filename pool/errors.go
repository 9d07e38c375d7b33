package pool

import (
	"errors"
)

var (
	// ErrPoolClosed is returned when a checkout is attempted after Shutdown.
	ErrPoolClosed = errors.New("pool is closed")
	// ErrCheckoutTimeout is returned when a checkout waited past its deadline
	// for a connection to become available.
	ErrCheckoutTimeout = errors.New("checkout timed out waiting for a connection")
	// ErrInvalidConfig is returned when the pool is constructed with invalid parameters.
	ErrInvalidConfig = errors.New("invalid pool configuration")
)

package pool

// Stats is a point-in-time snapshot of pool activity.
type Stats struct {
	// Open is the number of currently open connections, including those
	// reserved for an in-flight factory open.
	Open int
	// Idle is the number of connections waiting in the free-list.
	Idle int
	// Leased is the number of connections currently held by a Lease.
	Leased int
	// Waiting is the number of checkouts blocked on a saturated pool.
	Waiting int

	// Opens counts successful factory opens over the pool's lifetime.
	Opens uint64
	// Closes counts connections closed via the factory.
	Closes uint64
	// Reuses counts checkouts served from an existing connection.
	Reuses uint64
	// Discards counts connections dropped after a failed health check or a
	// broken release.
	Discards uint64
	// Timeouts counts checkouts that failed with ErrCheckoutTimeout.
	Timeouts uint64
}

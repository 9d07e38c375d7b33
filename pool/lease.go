package pool

import (
	"sync/atomic"
	"time"
)

// A Lease grants exclusive, temporary ownership of one pooled connection.
// Release must be called when the holder is done; it is idempotent, so a
// deferred Release is safe alongside an explicit one. A connection the holder
// marked broken is closed on release instead of returning to the pool.
type Lease[C any] struct {
	pool     *Pool[C]
	slot     *slot[C]
	broken   atomic.Bool
	released atomic.Bool
}

// Conn returns the leased connection. It must not be used after Release.
func (l *Lease[C]) Conn() C {
	return l.slot.conn
}

// ID returns the pool-assigned identity of the leased connection, for tracing.
func (l *Lease[C]) ID() uint64 {
	return l.slot.id
}

// CreatedAt returns when the leased connection was opened.
func (l *Lease[C]) CreatedAt() time.Time {
	return l.slot.createdAt
}

// MarkBroken records that the connection misbehaved, e.g. after a protocol
// error. Release will then discard it rather than recycle it.
func (l *Lease[C]) MarkBroken() {
	l.broken.Store(true)
}

// Release returns the connection to the pool, or discards it if it was marked
// broken. Only the first call has any effect.
func (l *Lease[C]) Release() {
	if !l.released.CompareAndSwap(false, true) {
		return
	}
	l.pool.release(l.slot, !l.broken.Load())
}

package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/connorjcantrell/dbpool/factory"
	"github.com/connorjcantrell/dbpool/logger"
)

// Config defines the tuning knobs for a Pool.
type Config struct {
	// MaxSize caps the number of simultaneously open connections. Required.
	MaxSize int
	// CheckoutTimeout bounds how long Checkout waits for a connection when
	// the caller's context carries no deadline of its own. Zero means wait
	// until the caller's context is done.
	CheckoutTimeout time.Duration
	// HealthCheckThreshold is the idle age beyond which a connection pulled
	// from the free-list is revalidated before being handed out. Zero means
	// every reuse is revalidated.
	HealthCheckThreshold time.Duration
	// MaxIdleLifetime is the idle age beyond which the supervisor revalidates
	// a connection during its sweep, discarding it on failure.
	MaxIdleLifetime time.Duration
	// SweepInterval is how often the supervisor sweeps idle connections.
	// Zero disables the supervisor.
	SweepInterval time.Duration
}

type slotState int

const (
	stateIdle slotState = iota
	stateLeased
	stateClosed
)

// slot pairs one physical connection with its lifecycle bookkeeping.
type slot[C any] struct {
	id        uint64
	conn      C
	state     slotState
	createdAt time.Time
	lastUsed  time.Time
}

// grant is the single wakeup a waiter consumes: a freed connection, the
// reserved capacity to open a new one (slot and err both nil), or a terminal
// error.
type grant[C any] struct {
	slot *slot[C]
	err  error
}

type waiter[C any] struct {
	ch chan grant[C] // buffered; at most one grant is ever sent
}

// Pool owns a bounded set of connection slots and serializes access to them
// across concurrent borrowers. Connections are opened lazily through the
// Factory, reused while healthy, and replaced when they break.
type Pool[C any] struct {
	factory factory.Factory[C]
	cfg     Config
	log     logger.Logger

	mu      sync.Mutex
	idle    []*slot[C]   // free-list, most recently released last
	waiters []*waiter[C] // FIFO
	numOpen int          // idle + leased + reserved for an in-flight open
	leased  int
	closed  bool
	drained chan struct{} // closed once numOpen reaches zero after Shutdown

	nextID atomic.Uint64

	opens    atomic.Uint64
	closes   atomic.Uint64
	reuses   atomic.Uint64
	discards atomic.Uint64
	timeouts atomic.Uint64

	sweepStop chan struct{}
	sweepDone chan struct{}
}

// New creates a pool over the given connection factory. No connection is
// opened until the first checkout needs one.
func New[C any](f factory.Factory[C], cfg Config) (*Pool[C], error) {
	if f == nil {
		return nil, fmt.Errorf("%w: nil factory", ErrInvalidConfig)
	}
	if cfg.MaxSize <= 0 {
		return nil, fmt.Errorf("%w: MaxSize must be positive", ErrInvalidConfig)
	}

	p := &Pool[C]{
		factory: f,
		cfg:     cfg,
		log:     logger.NewStdLogger(),
		drained: make(chan struct{}),
	}

	if cfg.SweepInterval > 0 {
		p.sweepStop = make(chan struct{})
		p.sweepDone = make(chan struct{})
		go p.supervise()
	}
	return p, nil
}

// SetLogger sets a custom logger for the pool.
func (p *Pool[C]) SetLogger(l logger.Logger) {
	p.log = l
}

// Checkout acquires exclusive, temporary use of one healthy connection. It
// reuses an idle connection when one exists, opens a new one while under
// MaxSize, and otherwise waits in FIFO order until a connection is released
// or the deadline fires.
func (p *Pool[C]) Checkout(ctx context.Context) (*Lease[C], error) {
	if p.cfg.CheckoutTimeout > 0 {
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, p.cfg.CheckoutTimeout)
			defer cancel()
		}
	}

	for {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return nil, ErrPoolClosed
		}

		if s := p.popIdleLocked(); s != nil {
			stale := time.Since(s.lastUsed) >= p.cfg.HealthCheckThreshold
			p.mu.Unlock()
			if stale && !p.factory.Check(ctx, s.conn) {
				p.discard(s)
				continue
			}
			return p.lease(s, true), nil
		}

		if p.numOpen < p.cfg.MaxSize {
			p.numOpen++
			p.mu.Unlock()
			return p.open(ctx)
		}

		w := &waiter[C]{ch: make(chan grant[C], 1)}
		p.waiters = append(p.waiters, w)
		p.mu.Unlock()

		g, err := p.await(ctx, w)
		if err != nil {
			return nil, err
		}
		if g.slot != nil {
			return p.lease(g.slot, true), nil
		}
		// Capacity was reserved on our behalf by whoever woke us.
		return p.open(ctx)
	}
}

// With checks out a connection, runs fn with it, and releases it on every
// exit path. A panic inside fn marks the connection broken before re-raising.
func (p *Pool[C]) With(ctx context.Context, fn func(conn C) error) error {
	lease, err := p.Checkout(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			lease.MarkBroken()
			lease.Release()
			panic(r)
		}
		lease.Release()
	}()

	return fn(lease.Conn())
}

// Shutdown rejects all subsequent checkouts, fails pending waiters, closes
// idle connections, and waits for outstanding leases to be returned or for
// ctx to expire.
func (p *Pool[C]) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
	} else {
		p.closed = true
		waiters := p.waiters
		p.waiters = nil
		idle := p.idle
		p.idle = nil
		for _, s := range idle {
			s.state = stateClosed
			p.numOpen--
		}
		for _, w := range waiters {
			w.ch <- grant[C]{err: ErrPoolClosed}
		}
		p.maybeDrainLocked()
		p.mu.Unlock()

		if p.sweepStop != nil {
			close(p.sweepStop)
			<-p.sweepDone
		}
		for _, s := range idle {
			p.closeConn(s)
		}
		p.log.Info("pool shutting down, %d idle connection(s) closed", len(idle))
	}

	select {
	case <-p.drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns a point-in-time snapshot of pool activity.
func (p *Pool[C]) Stats() Stats {
	p.mu.Lock()
	s := Stats{
		Open:    p.numOpen,
		Idle:    len(p.idle),
		Leased:  p.leased,
		Waiting: len(p.waiters),
	}
	p.mu.Unlock()
	s.Opens = p.opens.Load()
	s.Closes = p.closes.Load()
	s.Reuses = p.reuses.Load()
	s.Discards = p.discards.Load()
	s.Timeouts = p.timeouts.Load()
	return s
}

// await blocks until the waiter receives its grant or ctx fires. A grant that
// raced the deadline is forwarded, never dropped.
func (p *Pool[C]) await(ctx context.Context, w *waiter[C]) (grant[C], error) {
	select {
	case g := <-w.ch:
		if g.err != nil {
			return grant[C]{}, g.err
		}
		return g, nil
	case <-ctx.Done():
	}

	p.mu.Lock()
	if p.removeWaiterLocked(w) {
		p.mu.Unlock()
		return grant[C]{}, p.checkoutErr(ctx)
	}
	p.mu.Unlock()

	// The grant was already delivered; hand it to the next waiter.
	g := <-w.ch
	if g.err == nil {
		p.forward(g)
	}
	return grant[C]{}, p.checkoutErr(ctx)
}

func (p *Pool[C]) checkoutErr(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		p.timeouts.Add(1)
		return ErrCheckoutTimeout
	}
	return ctx.Err()
}

// forward passes a grant consumed by a timed-out waiter along to whoever can
// use it, so that neither a freed connection nor reserved capacity is lost.
func (p *Pool[C]) forward(g grant[C]) {
	p.mu.Lock()
	if g.slot != nil {
		s := g.slot
		if p.closed {
			s.state = stateClosed
			p.numOpen--
			p.maybeDrainLocked()
			p.mu.Unlock()
			p.closeConn(s)
			return
		}
		if w := p.popWaiterLocked(); w != nil {
			w.ch <- grant[C]{slot: s}
			p.mu.Unlock()
			return
		}
		s.state = stateIdle
		p.idle = append(p.idle, s)
		p.mu.Unlock()
		return
	}

	// Open permission: pass the reservation along or surrender it.
	if !p.closed {
		if w := p.popWaiterLocked(); w != nil {
			w.ch <- grant[C]{}
			p.mu.Unlock()
			return
		}
	}
	p.numOpen--
	p.maybeDrainLocked()
	p.mu.Unlock()
}

// open turns capacity already reserved under the lock into a leased
// connection. The factory call happens outside the lock.
func (p *Pool[C]) open(ctx context.Context) (*Lease[C], error) {
	start := time.Now()
	conn, err := p.factory.Open(ctx)
	if err != nil {
		p.mu.Lock()
		p.numOpen--
		p.grantOpenLocked()
		p.maybeDrainLocked()
		p.mu.Unlock()
		p.log.Error("open connection: %v", err)
		return nil, err
	}

	now := time.Now()
	s := &slot[C]{
		id:        p.nextID.Add(1),
		conn:      conn,
		createdAt: now,
		lastUsed:  now,
	}
	p.opens.Add(1)
	p.log.Op("open", time.Since(start), "conn", s.id)
	return p.lease(s, false), nil
}

func (p *Pool[C]) lease(s *slot[C], reused bool) *Lease[C] {
	p.mu.Lock()
	s.state = stateLeased
	p.leased++
	p.mu.Unlock()
	if reused {
		p.reuses.Add(1)
	}
	return &Lease[C]{pool: p, slot: s}
}

// release is called exactly once per lease, by Lease.Release.
func (p *Pool[C]) release(s *slot[C], healthy bool) {
	p.mu.Lock()
	p.leased--

	if p.closed {
		s.state = stateClosed
		p.numOpen--
		p.maybeDrainLocked()
		p.mu.Unlock()
		p.closeConn(s)
		return
	}

	if !healthy {
		s.state = stateClosed
		p.numOpen--
		p.grantOpenLocked()
		p.mu.Unlock()
		p.closeConn(s)
		p.discards.Add(1)
		p.log.Warn("discarded broken connection %d", s.id)
		return
	}

	s.state = stateIdle
	s.lastUsed = time.Now()
	if w := p.popWaiterLocked(); w != nil {
		w.ch <- grant[C]{slot: s}
		p.mu.Unlock()
		return
	}
	p.idle = append(p.idle, s)
	p.mu.Unlock()
}

// discard removes a slot that failed a health check while neither idle nor
// leased. The freed capacity wakes a waiter if one is pending.
func (p *Pool[C]) discard(s *slot[C]) {
	p.mu.Lock()
	s.state = stateClosed
	p.numOpen--
	p.grantOpenLocked()
	p.maybeDrainLocked()
	p.mu.Unlock()
	p.closeConn(s)
	p.discards.Add(1)
	p.log.Warn("discarded unhealthy connection %d", s.id)
}

func (p *Pool[C]) closeConn(s *slot[C]) {
	if err := p.factory.Close(s.conn); err != nil {
		p.log.Warn("close connection %d: %v", s.id, err)
	}
	p.closes.Add(1)
}

// grantOpenLocked hands freed capacity to the next waiter as permission to
// open a new connection.
func (p *Pool[C]) grantOpenLocked() {
	if p.closed {
		return
	}
	if w := p.popWaiterLocked(); w != nil {
		p.numOpen++
		w.ch <- grant[C]{}
	}
}

func (p *Pool[C]) popIdleLocked() *slot[C] {
	n := len(p.idle)
	if n == 0 {
		return nil
	}
	s := p.idle[n-1]
	p.idle = p.idle[:n-1]
	return s
}

func (p *Pool[C]) popWaiterLocked() *waiter[C] {
	if len(p.waiters) == 0 {
		return nil
	}
	w := p.waiters[0]
	p.waiters = p.waiters[1:]
	return w
}

func (p *Pool[C]) removeWaiterLocked(w *waiter[C]) bool {
	for i, cand := range p.waiters {
		if cand == w {
			p.waiters = append(p.waiters[:i], p.waiters[i+1:]...)
			return true
		}
	}
	return false
}

func (p *Pool[C]) maybeDrainLocked() {
	if p.closed && p.numOpen == 0 {
		select {
		case <-p.drained:
		default:
			close(p.drained)
		}
	}
}

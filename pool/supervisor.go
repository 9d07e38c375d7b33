package pool

import (
	"context"
	"time"
)

// sweepCheckTimeout bounds a single health check during a sweep so one hung
// connection cannot stall the supervisor.
const sweepCheckTimeout = 5 * time.Second

// supervise runs the periodic idle sweep until Shutdown stops it.
func (p *Pool[C]) supervise() {
	defer close(p.sweepDone)

	ticker := time.NewTicker(p.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.sweep()
		case <-p.sweepStop:
			return
		}
	}
}

// sweep revalidates idle connections that have outlived MaxIdleLifetime.
// Stale slots are pulled out of the free-list first so checkouts only ever
// compete with the sweep for the lock, never for a connection mid-check.
func (p *Pool[C]) sweep() {
	cutoff := time.Now().Add(-p.cfg.MaxIdleLifetime)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	var stale []*slot[C]
	kept := p.idle[:0]
	for _, s := range p.idle {
		if !s.lastUsed.After(cutoff) {
			stale = append(stale, s)
		} else {
			kept = append(kept, s)
		}
	}
	p.idle = kept
	p.mu.Unlock()

	if len(stale) == 0 {
		return
	}

	start := time.Now()
	discarded := 0
	for _, s := range stale {
		ctx, cancel := context.WithTimeout(context.Background(), sweepCheckTimeout)
		ok := p.factory.Check(ctx, s.conn)
		cancel()

		if !ok {
			p.discard(s)
			discarded++
			continue
		}

		p.mu.Lock()
		if p.closed {
			s.state = stateClosed
			p.numOpen--
			p.maybeDrainLocked()
			p.mu.Unlock()
			p.closeConn(s)
			continue
		}
		s.lastUsed = time.Now()
		if w := p.popWaiterLocked(); w != nil {
			w.ch <- grant[C]{slot: s}
			p.mu.Unlock()
			continue
		}
		p.idle = append(p.idle, s)
		p.mu.Unlock()
	}
	p.log.Op("sweep", time.Since(start), "checked", len(stale), "discarded", discarded)
}

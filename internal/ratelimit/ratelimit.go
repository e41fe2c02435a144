// Package ratelimit provides a token-bucket limiter keyed by
// (ip, whisperId, endpoint), generalized from the teacher's session.NonceCache
// TTL sync.Map-of-sync.Map pattern — here the inner value is a *rate.Limiter
// plus a last-seen timestamp instead of a nonce expiry, swept by the same
// ticker-driven GC shape so idle keys don't leak memory forever.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limits configures the token bucket applied to a single key.
type Limits struct {
	RatePerSecond float64
	Burst         int
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter is a keyed rate limiter: one independent token bucket per key,
// garbage collected when idle past idleTTL.
type Limiter struct {
	limits  Limits
	idleTTL time.Duration

	mu      sync.Mutex
	entries map[string]*entry

	tick *time.Ticker
	stop chan struct{}
}

// New builds a Limiter with the given per-key bucket limits, swept every
// sweepInterval for keys idle longer than idleTTL.
func New(limits Limits, idleTTL, sweepInterval time.Duration) *Limiter {
	if sweepInterval <= 0 {
		sweepInterval = time.Minute
	}
	l := &Limiter{
		limits:  limits,
		idleTTL: idleTTL,
		entries: make(map[string]*entry),
		tick:    time.NewTicker(sweepInterval),
		stop:    make(chan struct{}),
	}
	go l.gcLoop()
	return l
}

// Key joins the dimensions the spec rate-limits on into one map key.
func Key(ip, whisperID, endpoint string) string {
	return ip + "|" + whisperID + "|" + endpoint
}

// Allow reports whether a request against key is permitted right now,
// consuming a token if so.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(rate.Limit(l.limits.RatePerSecond), l.limits.Burst)}
		l.entries[key] = e
	}
	e.lastSeen = time.Now()
	lim := e.limiter
	l.mu.Unlock()
	return lim.Allow()
}

// Close stops the background sweep.
func (l *Limiter) Close() {
	close(l.stop)
	l.tick.Stop()
}

func (l *Limiter) gcLoop() {
	for {
		select {
		case <-l.tick.C:
			cutoff := time.Now().Add(-l.idleTTL)
			l.mu.Lock()
			for k, e := range l.entries {
				if e.lastSeen.Before(cutoff) {
					delete(l.entries, k)
				}
			}
			l.mu.Unlock()
		case <-l.stop:
			return
		}
	}
}

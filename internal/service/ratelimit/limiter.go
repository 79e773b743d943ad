package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	pruneThreshold = 10000
	maxIdle        = 10 * time.Minute
)

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter is a per-key token bucket, keyed by client IP for the analyze
// endpoint. Idle keys are pruned inline once the map grows large.
type Limiter struct {
	mu    sync.Mutex
	m     map[string]*entry
	rate  rate.Limit
	burst int
	now   func() time.Time
}

func New(perSecond float64, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		m:     make(map[string]*entry),
		rate:  rate.Limit(perSecond),
		burst: burst,
		now:   time.Now,
	}
}

// Allow reports whether key may proceed now, consuming one token.
func (l *Limiter) Allow(key string) bool {
	now := l.now()
	return l.get(key, now).AllowN(now, 1)
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.m)
}

func (l *Limiter) get(key string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.m) > pruneThreshold {
		cutoff := now.Add(-maxIdle)
		for k, e := range l.m {
			if e.lastSeen.Before(cutoff) {
				delete(l.m, k)
			}
		}
	}
	e, ok := l.m[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.m[key] = e
	}
	e.lastSeen = now
	return e.limiter
}

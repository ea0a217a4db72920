package httputil

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultLimiterIdle is how long a key may go unused before its bucket
	// is dropped.
	DefaultLimiterIdle = 10 * time.Minute

	// DefaultLimiterMaxKeys caps the number of tracked keys. When full, the
	// least recently used key is evicted.
	DefaultLimiterMaxKeys = 10000
)

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// HostLimiter is a set of token buckets, one per key. Buckets unused for
// longer than the idle period are swept, and the number of keys is bounded.
// The zero value is not usable; create one with [NewHostLimiter].
type HostLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	rps       float64
	burst     int
	idle      time.Duration
	maxKeys   int
	lastSweep time.Time
	now       func() time.Time
}

// NewHostLimiter allows rps requests per second per key with the given burst.
// A non-positive rps disables limiting.
func NewHostLimiter(rps float64, burst int) *HostLimiter {
	burst = max(burst, 1)
	idle := DefaultLimiterIdle
	if rps > 0 {
		// Keep a key at least until its bucket has refilled.
		if refill := float64(burst) / rps; refill > idle.Seconds() {
			idle = time.Duration(min(refill, (24 * time.Hour).Seconds()) * float64(time.Second))
		}
	}
	return &HostLimiter{
		limiters: make(map[string]*limiterEntry),
		rps:      rps,
		burst:    burst,
		idle:     idle,
		maxKeys:  DefaultLimiterMaxKeys,
		now:      time.Now,
	}
}

// Len returns the number of keys currently tracked.
func (l *HostLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

func (l *HostLimiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.idle {
		l.sweep(now)
	}

	e, ok := l.limiters[key]
	if !ok {
		if len(l.limiters) >= l.maxKeys {
			l.evictOldest()
		}
		e = &limiterEntry{lim: rate.NewLimiter(rate.Limit(l.rps), l.burst)}
		l.limiters[key] = e
	}
	e.lastSeen = now
	return e.lim
}

// sweep drops keys idle for longer than l.idle. Callers hold l.mu.
func (l *HostLimiter) sweep(now time.Time) {
	for key, e := range l.limiters {
		if now.Sub(e.lastSeen) > l.idle {
			delete(l.limiters, key)
		}
	}
	l.lastSweep = now
}

// evictOldest drops the least recently used key. Callers hold l.mu.
func (l *HostLimiter) evictOldest() {
	var oldestKey string
	var oldest time.Time
	for key, e := range l.limiters {
		if oldestKey == "" || e.lastSeen.Before(oldest) {
			oldestKey, oldest = key, e.lastSeen
		}
	}
	if oldestKey != "" {
		delete(l.limiters, oldestKey)
	}
}

// Wait blocks until a request for key is allowed or ctx is done.
func (l *HostLimiter) Wait(ctx context.Context, key string) error {
	if l == nil || l.rps <= 0 {
		return nil
	}
	return l.get(key).Wait(ctx)
}

// Allow reports whether a request for key may proceed now.
func (l *HostLimiter) Allow(key string) bool {
	if l == nil || l.rps <= 0 {
		return true
	}
	return l.get(key).Allow()
}

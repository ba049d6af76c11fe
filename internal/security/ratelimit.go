package security

import (
	"sync"
	"time"
)

// RateLimiter throttles session-minting requests per client with a token
// bucket per address. Buckets refill all at once when a full window passes.
type RateLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	rate     int
	window   time.Duration
	lastScan time.Time
}

type bucket struct {
	tokens     int
	lastRefill time.Time
}

// NewRateLimiter allows rate requests per window for each client address.
func NewRateLimiter(rate int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		buckets: make(map[string]*bucket),
		rate:    rate,
		window:  window,
	}
}

// Allow reports whether a request from addr fits its budget and, if so,
// spends one token. Idle buckets are pruned as a side effect so the map
// does not grow with every address ever seen.
func (rl *RateLimiter) Allow(addr string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	rl.pruneIdle(now)

	b, ok := rl.buckets[addr]
	if !ok {
		b = &bucket{tokens: rl.rate, lastRefill: now}
		rl.buckets[addr] = b
	}

	if now.Sub(b.lastRefill) >= rl.window {
		b.tokens = rl.rate
		b.lastRefill = now
	}

	if b.tokens == 0 {
		return false
	}
	b.tokens--
	return true
}

// pruneIdle drops buckets untouched for two full windows. Runs at most once
// per window; the caller holds the lock.
func (rl *RateLimiter) pruneIdle(now time.Time) {
	if now.Sub(rl.lastScan) < rl.window {
		return
	}
	rl.lastScan = now
	for addr, b := range rl.buckets {
		if now.Sub(b.lastRefill) > 2*rl.window {
			delete(rl.buckets, addr)
		}
	}
}

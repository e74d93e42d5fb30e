package http

import (
	"sync"
	"time"
)

const (
	// Mutating requests per client IP per window.
	rateLimit       = 60
	rateLimitWindow = time.Minute

	visitorSweepInterval = 5 * time.Minute
	visitorMaxIdle       = 10 * time.Minute
)

// rateLimiter counts mutating requests per client IP over a rolling
// window. Entries for idle clients are swept periodically so the map
// stays bounded.
type rateLimiter struct {
	mu           sync.Mutex
	visitors     map[string]*visitor
	stopSweep    chan struct{}
	shutdownOnce sync.Once
}

type visitor struct {
	lastSeen time.Time
	count    int
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		visitors:  make(map[string]*visitor),
		stopSweep: make(chan struct{}),
	}
	go rl.sweepLoop()
	return rl
}

func (rl *rateLimiter) sweepLoop() {
	ticker := time.NewTicker(visitorSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.dropIdleVisitors()
		case <-rl.stopSweep:
			return
		}
	}
}

func (rl *rateLimiter) dropIdleVisitors() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-visitorMaxIdle)
	for ip, v := range rl.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(rl.visitors, ip)
		}
	}
}

// stop shuts down the sweep goroutine.
func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		close(rl.stopSweep)
	})
}

// allow records a request from the IP and reports whether it is still
// within the limit. The count resets once a full window passes with
// no request.
func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	v, ok := rl.visitors[clientIP]
	if !ok {
		rl.visitors[clientIP] = &visitor{lastSeen: now, count: 1}
		return true
	}

	if now.Sub(v.lastSeen) > rateLimitWindow {
		v.count = 1
		v.lastSeen = now
		return true
	}

	v.count++
	v.lastSeen = now
	return v.count <= rateLimit
}

package service

import (
	"sync"
	"time"
)

const (
	defaultMaxRetries       = 2
	defaultBreakerThreshold = 5
	defaultBreakerCooldown  = time.Minute
)

// breaker opens after max consecutive failures. While open it lets one trial
// call through per cooldown; the trial's outcome closes or re-arms it.
type breaker struct {
	mu          sync.Mutex
	consecutive int
	max         int
	cooldown    time.Duration
	openedAt    time.Time
	now         func() time.Time
}

func newBreaker(max int, cooldown time.Duration) *breaker {
	if max <= 0 {
		max = defaultBreakerThreshold
	}
	if cooldown <= 0 {
		cooldown = defaultBreakerCooldown
	}
	return &breaker{max: max, cooldown: cooldown, now: time.Now}
}

// allow reports whether a call may go upstream, and the current failure count.
func (b *breaker) allow() (bool, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.consecutive < b.max {
		return true, b.consecutive
	}
	if b.now().Sub(b.openedAt) < b.cooldown {
		return false, b.consecutive
	}
	// half-open: later callers wait for another cooldown
	b.openedAt = b.now()
	return true, b.consecutive
}

func (b *breaker) success() {
	b.mu.Lock()
	b.consecutive = 0
	b.openedAt = time.Time{}
	b.mu.Unlock()
}

// failure records a failed call and reports whether it opened the breaker.
func (b *breaker) failure() (int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consecutive++
	if b.consecutive >= b.max {
		b.openedAt = b.now()
		return b.consecutive, b.consecutive == b.max
	}
	return b.consecutive, false
}

func (b *breaker) status() (consecutive int, open bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.consecutive, b.consecutive >= b.max
}

func (b *breaker) reset() {
	b.success()
}

func orDefault(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}

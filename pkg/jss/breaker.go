package jss

import (
	"sync"
	"time"
)

// breaker stops calls to the JSS after maxFailures consecutive failed
// calls, until timeout has passed.
type breaker struct {
	mu          sync.RWMutex
	failures    int
	maxFailures int
	openUntil   time.Time
	timeout     time.Duration
}

func newBreaker(maxFailures int, timeout time.Duration) *breaker {
	return &breaker{
		maxFailures: maxFailures,
		timeout:     timeout,
	}
}

// open reports whether calls are currently refused. A breaker with
// maxFailures <= 0 never opens.
func (b *breaker) open() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.maxFailures <= 0 || b.failures < b.maxFailures {
		return false
	}
	// Half-open once the timeout has passed: the next call goes through
	// and either resets or re-arms the breaker.
	return time.Now().Before(b.openUntil)
}

func (b *breaker) success() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	b.openUntil = time.Time{}
}

func (b *breaker) fail() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures++
	if b.maxFailures > 0 && b.failures >= b.maxFailures {
		b.openUntil = time.Now().Add(b.timeout)
	}
}

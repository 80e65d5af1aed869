package chronographer

import (
	"sync"
	"time"
)

// PolicyKind identifies what a SchedulingPolicy does when a task becomes
// due again while a previous run of the same task is still in flight.
type PolicyKind int

const (
	// PolicySequential queues the new run behind the in-flight one; the
	// engine starts it only once the previous run returns.
	PolicySequential PolicyKind = iota
	// PolicyConcurrent starts the new run immediately alongside any
	// still-running previous runs.
	PolicyConcurrent
	// PolicyCancelPrevious cancels the in-flight run's context and starts
	// the new run immediately.
	PolicyCancelPrevious
	// PolicyCancelCurrent discards the newly-due trigger and lets the
	// in-flight run continue uninterrupted.
	PolicyCancelCurrent
	// PolicyRateLimited behaves like PolicyConcurrent but additionally
	// requires a token from the policy's rate limiter before starting a
	// new run, guarding against the thundering-herd risk noted for plain
	// concurrent dispatch.
	PolicyRateLimited
)

// SchedulingPolicy governs overlap behavior between successive runs of
// the same Task.
type SchedulingPolicy struct {
	kind    PolicyKind
	limiter *tokenBucket
}

func SchedulingSequential() SchedulingPolicy      { return SchedulingPolicy{kind: PolicySequential} }
func SchedulingConcurrent() SchedulingPolicy      { return SchedulingPolicy{kind: PolicyConcurrent} }
func SchedulingCancelPrevious() SchedulingPolicy  { return SchedulingPolicy{kind: PolicyCancelPrevious} }
func SchedulingCancelCurrent() SchedulingPolicy   { return SchedulingPolicy{kind: PolicyCancelCurrent} }

// SchedulingRateLimited starts new runs concurrently but no more often
// than rate permits, with burst tokens available up front.
func SchedulingRateLimited(rate float64, burst int) SchedulingPolicy {
	return SchedulingPolicy{kind: PolicyRateLimited, limiter: newTokenBucket(rate, burst)}
}

func (p SchedulingPolicy) Kind() PolicyKind { return p.kind }

// Allow reports whether a PolicyRateLimited policy currently has a token
// available. Non-rate-limited policies always allow.
func (p SchedulingPolicy) Allow(now time.Time) bool {
	if p.limiter == nil {
		return true
	}
	return p.limiter.Allow(now)
}

// tokenBucket is a minimal token-bucket limiter: capacity tokens refill
// continuously at rate tokens/second, the same shape the teacher's
// resilience.RateLimiter uses ahead of its sliding-window cap.
type tokenBucket struct {
	mu       sync.Mutex
	rate     float64
	capacity float64
	tokens   float64
	last     time.Time
}

func newTokenBucket(rate float64, burst int) *tokenBucket {
	if rate <= 0 {
		rate = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &tokenBucket{
		rate:     rate,
		capacity: float64(burst),
		tokens:   float64(burst),
		last:     time.Time{},
	}
}

func (b *tokenBucket) Allow(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.last.IsZero() {
		elapsed := now.Sub(b.last).Seconds()
		if elapsed > 0 {
			b.tokens += elapsed * b.rate
			if b.tokens > b.capacity {
				b.tokens = b.capacity
			}
		}
	}
	b.last = now
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

package chronographer

import (
	"errors"
	"sync"
	"time"
)

// breakerState is one of the three states of an adaptive circuit
// breaker: closed (calls pass through), open (calls fail fast),
// half-open (a single probe call is allowed through to test recovery).
type breakerState int

const (
	breakerClosed breakerState = iota
	breakerOpen
	breakerHalfOpen
)

// ErrBreakerOpen is returned by breaker.run when the breaker is open and
// short-circuiting calls.
var ErrBreakerOpen = errors.New("chronographer: circuit breaker open")

// breaker is a minimal sliding-window failure-rate circuit breaker,
// guarding BoltPersistence against piling up blocked calls behind a
// failing disk.
type breaker struct {
	mu sync.Mutex

	window      []bool // true = failure, ring buffer
	windowSize  int
	pos         int
	filled      int
	threshold   float64
	state       breakerState
	openedAt    time.Time
	cooldown    time.Duration
}

func newBreaker(windowSize int, failureThreshold float64, cooldown time.Duration) *breaker {
	if windowSize < 1 {
		windowSize = 1
	}
	return &breaker{
		window:     make([]bool, windowSize),
		windowSize: windowSize,
		threshold:  failureThreshold,
		cooldown:   cooldown,
	}
}

func (b *breaker) run(fn func() error) error {
	if !b.allow() {
		return ErrBreakerOpen
	}
	err := fn()
	b.record(err != nil)
	return err
}

func (b *breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case breakerOpen:
		if time.Since(b.openedAt) >= b.cooldown {
			b.state = breakerHalfOpen
			return true
		}
		return false
	default:
		return true
	}
}

func (b *breaker) record(failed bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == breakerHalfOpen {
		if failed {
			b.state = breakerOpen
			b.openedAt = time.Now()
			return
		}
		b.state = breakerClosed
		b.filled = 0
		b.pos = 0
	}

	b.window[b.pos] = failed
	b.pos = (b.pos + 1) % b.windowSize
	if b.filled < b.windowSize {
		b.filled++
	}

	if b.filled < b.windowSize {
		return
	}
	failures := 0
	for _, f := range b.window {
		if f {
			failures++
		}
	}
	if float64(failures)/float64(b.windowSize) >= b.threshold {
		b.state = breakerOpen
		b.openedAt = time.Now()
	}
}

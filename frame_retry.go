package chronographer

import (
	"math"
	"math/rand"
	"time"
)

// JitterMode selects how RetryBackoffStrategy's Jitter wrapper randomizes
// an inner delay, mirroring the two jitter strategies the teacher's
// resilience package offers for its HTTP retry client.
type JitterMode int

const (
	// FullJitter picks a uniformly random duration in [0, delay].
	FullJitter JitterMode = iota
	// EqualJitter picks delay/2 + uniform random in [0, delay/2], keeping
	// a floor under the backoff instead of letting it collapse to zero.
	EqualJitter
)

// RetryBackoffStrategy computes the delay before the Nth retry attempt
// (attempt is 1-indexed: the delay before the first retry is Compute(1)).
type RetryBackoffStrategy interface {
	Compute(attempt int) time.Duration
}

// ConstantBackoff waits the same duration before every retry.
type ConstantBackoff struct {
	Delay time.Duration
}

func (b ConstantBackoff) Compute(int) time.Duration { return b.Delay }

// ExponentialBackoff doubles the delay each attempt starting from Base,
// capped at Max.
type ExponentialBackoff struct {
	Base time.Duration
	Max  time.Duration
}

func (b ExponentialBackoff) Compute(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := float64(b.Base) * math.Pow(2, float64(attempt-1))
	if b.Max > 0 && d > float64(b.Max) {
		d = float64(b.Max)
	}
	return time.Duration(d)
}

// JitterBackoff randomizes an inner strategy's computed delay according
// to Mode, the same full-jitter/equal-jitter shape the teacher's
// resilience.Retry uses around its exponential backoff.
type JitterBackoff struct {
	Inner RetryBackoffStrategy
	Mode  JitterMode
}

func (b JitterBackoff) Compute(attempt int) time.Duration {
	base := b.Inner.Compute(attempt)
	if base <= 0 {
		return 0
	}
	switch b.Mode {
	case EqualJitter:
		half := base / 2
		return half + time.Duration(rand.Int63n(int64(half)+1))
	default:
		return time.Duration(rand.Int63n(int64(base) + 1))
	}
}

// RetryErrorFilter reports whether err should trigger another attempt. A
// nil filter retries every error; a non-nil filter returning false stops
// the retry loop immediately, surfacing err without waiting for
// MaxRetries to be exhausted.
type RetryErrorFilter func(err error) bool

// RetryFrame re-runs inner up to MaxRetries+1 times total (the initial
// attempt plus MaxRetries retries), waiting Backoff.Compute between
// attempts, stopping early on success, on a Filter veto, or when
// ctx.Context is cancelled. Attempts are 0-indexed: the initial run is
// attempt 0, the last possible retry is attempt MaxRetries.
type RetryFrame struct {
	inner      TaskFrame
	maxRetries int
	backoff    RetryBackoffStrategy
	filter     RetryErrorFilter
}

// NewRetryFrame wraps inner with retry semantics. maxRetries must be >= 0
// (0 means no retries — inner runs exactly once); a nil backoff means no
// wait between attempts; a nil filter retries every error.
func NewRetryFrame(inner TaskFrame, maxRetries int, backoff RetryBackoffStrategy, filter RetryErrorFilter) RetryFrame {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if backoff == nil {
		backoff = ConstantBackoff{}
	}
	return RetryFrame{inner: inner, maxRetries: maxRetries, backoff: backoff, filter: filter}
}

func (f RetryFrame) Run(ctx *TaskContext) error {
	var lastErr error
	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		ctx.emit(HookOnRetryAttemptStart, attempt)
		child := ctx.subdivide(f.inner)
		lastErr = f.inner.Run(child)
		ctx.emit(HookOnRetryAttemptEnd, RetryAttemptPayload{Index: attempt, Err: lastErr})

		if lastErr == nil {
			return nil
		}
		if f.filter != nil && !f.filter(lastErr) {
			return newFrameError("retry", lastErr)
		}
		if attempt == f.maxRetries {
			break
		}
		delay := f.backoff.Compute(attempt + 1)
		if delay <= 0 {
			continue
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return newFrameError("retry", ctx.Err())
		case <-timer.C:
		}
	}
	return newFrameError("retry", lastErr)
}

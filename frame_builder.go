package chronographer

import "time"

// FrameBuilder composes a TaskFrame tree by wrapping an inner frame with
// successive resilience/coordination layers, innermost first. Each
// With* call wraps the builder's current frame and returns the builder,
// so callers build outward from the leaf execution to the tree root.
type FrameBuilder struct {
	frame TaskFrame
}

// NewFrameBuilder starts a builder from a leaf frame, typically an
// ExecutionFrame.
func NewFrameBuilder(leaf TaskFrame) *FrameBuilder {
	return &FrameBuilder{frame: leaf}
}

func (b *FrameBuilder) WithRetry(maxRetries int, backoff RetryBackoffStrategy, filter RetryErrorFilter) *FrameBuilder {
	b.frame = NewRetryFrame(b.frame, maxRetries, backoff, filter)
	return b
}

func (b *FrameBuilder) WithTimeout(d time.Duration) *FrameBuilder {
	b.frame = NewTimeoutFrame(b.frame, d)
	return b
}

func (b *FrameBuilder) WithDelay(d time.Duration) *FrameBuilder {
	b.frame = NewDelayFrame(b.frame, d)
	return b
}

func (b *FrameBuilder) WithFallback(secondary TaskFrame) *FrameBuilder {
	b.frame = NewFallbackFrame(b.frame, secondary)
	return b
}

func (b *FrameBuilder) WithCondition(predicate ConditionPredicate, whenFalse TaskFrame, errorOnFalse bool) *FrameBuilder {
	b.frame = NewConditionalFrame(predicate, b.frame, whenFalse, errorOnFalse)
	return b
}

func (b *FrameBuilder) WithDependencies(onUnresolved DependencyUnresolvedPolicy, gates ...Dependency) *FrameBuilder {
	b.frame = NewDependencyFrame(b.frame, onUnresolved, gates...)
	return b
}

func (b *FrameBuilder) WithAssert(predicate AssertPredicate, message string) *FrameBuilder {
	b.frame = NewAssertFrame(predicate, message, b.frame)
	return b
}

// Build returns the composed frame tree.
func (b *FrameBuilder) Build() TaskFrame {
	return b.frame
}

package chronographer

import "fmt"

// FallbackFrame runs Primary; if it fails, emits HookOnFallback with the
// primary's error and runs Secondary instead. If Secondary also fails,
// Run returns ErrFallbackSecondaryFailed with the secondary's error
// message appended; the primary's error is not part of the result.
type FallbackFrame struct {
	primary   TaskFrame
	secondary TaskFrame
}

func NewFallbackFrame(primary, secondary TaskFrame) FallbackFrame {
	return FallbackFrame{primary: primary, secondary: secondary}
}

func (f FallbackFrame) Run(ctx *TaskContext) error {
	primaryChild := ctx.subdivide(f.primary)
	if err := f.primary.Run(primaryChild); err == nil {
		return nil
	} else {
		ctx.emit(HookOnFallback, err)
	}

	secondaryChild := ctx.subdivide(f.secondary)
	if err := f.secondary.Run(secondaryChild); err != nil {
		return newFrameError("fallback", fmt.Errorf("%w: %v", ErrFallbackSecondaryFailed, err))
	}
	return nil
}

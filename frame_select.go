package chronographer

// SelectAccessor picks which of a SelectFrame's children to run, given
// the current TaskContext. Returning an index >= the number of children
// yields ErrIndexOutOfBounds rather than panicking.
type SelectAccessor func(ctx *TaskContext) int

// selectionPayload is the HookOnTaskFrameSelection payload: the chosen
// index and the frame it resolved to.
type selectionPayload struct {
	Index int
	Child TaskFrame
}

// SelectFrame picks exactly one of its children to run, by index,
// computed fresh on every call via Accessor. This is a branch selector,
// not a race: only the chosen child ever runs.
type SelectFrame struct {
	children []TaskFrame
	accessor SelectAccessor
}

func NewSelectFrame(accessor SelectAccessor, children ...TaskFrame) SelectFrame {
	return SelectFrame{children: children, accessor: accessor}
}

func (f SelectFrame) Run(ctx *TaskContext) error {
	i := f.accessor(ctx)
	if i < 0 || i >= len(f.children) {
		return newFrameError("select", ErrIndexOutOfBounds)
	}
	child := f.children[i]
	ctx.emit(HookOnTaskFrameSelection, selectionPayload{Index: i, Child: child})
	cctx := ctx.subdivide(child)
	return child.Run(cctx)
}

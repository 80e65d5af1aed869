package chronographer

// ConditionPredicate evaluates whether a ConditionalFrame should take its
// true branch.
type ConditionPredicate func(ctx *TaskContext) bool

// ConditionalFrame runs WhenTrue if Predicate holds, WhenFalse otherwise.
// WhenFalse defaults to NoOpFrame when omitted via NewConditionalFrame.
// When ErrorOnFalse is set and the false branch itself returns success
// (there being no underlying error to surface), Run fails with
// ErrTaskConditionFail instead.
type ConditionalFrame struct {
	predicate    ConditionPredicate
	whenTrue     TaskFrame
	whenFalse    TaskFrame
	errorOnFalse bool
}

func NewConditionalFrame(predicate ConditionPredicate, whenTrue, whenFalse TaskFrame, errorOnFalse bool) ConditionalFrame {
	if whenFalse == nil {
		whenFalse = NoOpFrame{}
	}
	return ConditionalFrame{predicate: predicate, whenTrue: whenTrue, whenFalse: whenFalse, errorOnFalse: errorOnFalse}
}

func (f ConditionalFrame) Run(ctx *TaskContext) error {
	if f.predicate(ctx) {
		ctx.emit(HookOnTruthyValue, nil)
		child := ctx.subdivide(f.whenTrue)
		return f.whenTrue.Run(child)
	}

	ctx.emit(HookOnFalseyValue, nil)
	child := ctx.subdivide(f.whenFalse)
	if err := f.whenFalse.Run(child); err != nil {
		return err
	}
	if f.errorOnFalse {
		return newFrameError("conditional", ErrTaskConditionFail)
	}
	return nil
}

package chronographer

import "time"

// ImmediateSchedule is due at the reference time itself; used for
// one-shot or "run as soon as registered" tasks.
type ImmediateSchedule struct{}

func NewImmediateSchedule() ImmediateSchedule { return ImmediateSchedule{} }

func (ImmediateSchedule) NextAfter(reference time.Time) (time.Time, error) {
	return reference, nil
}

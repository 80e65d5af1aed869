package chronographer

import (
	"fmt"
	"time"
)

// IntervalSchedule is due every fixed duration after the reference time:
// nextAfter(t) = t + d. d must be strictly positive.
type IntervalSchedule struct {
	d time.Duration
}

// NewIntervalSchedule builds a fixed-interval schedule. d must be > 0.
func NewIntervalSchedule(d time.Duration) (IntervalSchedule, error) {
	if d <= 0 {
		return IntervalSchedule{}, newScheduleError("interval", fmt.Errorf("duration must be positive, got %s", d))
	}
	return IntervalSchedule{d: d}, nil
}

func (s IntervalSchedule) NextAfter(reference time.Time) (time.Time, error) {
	return reference.Add(s.d), nil
}

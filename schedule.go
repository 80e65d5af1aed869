package chronographer

import "time"

// Schedule is a pure computation from a reference time to the next due
// time. Implementations must be deterministic for a given (reference,
// schedule state) pair and must not mutate hidden state that would make
// two calls with the same reference disagree.
type Schedule interface {
	// NextAfter computes the next time the schedule is due, strictly
	// derived from reference. It may fail only when the schedule's own
	// configuration is malformed (e.g. an unparseable cron expression).
	NextAfter(reference time.Time) (time.Time, error)
}

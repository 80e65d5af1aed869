package chronographer

import (
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser is the collaborator contract for turning a cron expression
// into a computable next-time. The default implementation delegates to
// robfig/cron/v3 rather than hand-rolling field parsing.
type cronParser interface {
	Parse(expression string) (cron.Schedule, error)
}

var defaultCronParser cron.Parser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

type stdCronParser struct{}

func (stdCronParser) Parse(expression string) (cron.Schedule, error) {
	return defaultCronParser.Parse(expression)
}

// CronSchedule computes next-times from a cron expression string,
// delegating parsing and field matching to robfig/cron/v3 through
// stdCronParser. Expressions have six fields, the first being seconds.
type CronSchedule struct {
	expr string
	sched cron.Schedule
}

// NewCronSchedule parses expression eagerly so malformed expressions fail
// at construction time rather than at the first NextAfter call.
func NewCronSchedule(expression string) (CronSchedule, error) {
	sched, err := stdCronParser{}.Parse(expression)
	if err != nil {
		return CronSchedule{}, newScheduleError("cron", err)
	}
	return CronSchedule{expr: expression, sched: sched}, nil
}

func (s CronSchedule) NextAfter(reference time.Time) (time.Time, error) {
	return s.sched.Next(reference), nil
}

// Expression returns the cron expression this schedule was built from.
func (s CronSchedule) Expression() string { return s.expr }

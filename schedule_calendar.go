package chronographer

import (
	"fmt"
	"time"
)

// fieldTransformKind tags which of the four CalendarField variants a
// transform is.
type fieldTransformKind int

const (
	fieldIdentity fieldTransformKind = iota
	fieldExact
	fieldInterval
	fieldRange
)

// CalendarField is one of {Identity, Exact(v), Interval(v), Range(lo, hi,
// inner)} applied to a single calendar field (year, month, day, hour,
// minute, second, or millisecond) during CalendarSchedule.NextAfter.
type CalendarField struct {
	kind     fieldTransformKind
	exact    int
	interval int
	lo, hi   int
	inner    *CalendarField
}

// FieldIdentity leaves the field unchanged, except that a carry from the
// next-lower field that pushed it past its range is passed on upward.
func FieldIdentity() CalendarField { return CalendarField{kind: fieldIdentity} }

// FieldExact sets the field to v. If v is less than the field's current
// value, one unit carries into the next-higher field.
func FieldExact(v int) CalendarField { return CalendarField{kind: fieldExact, exact: v} }

// FieldInterval adds v to the field's current value, carrying any
// overflow (possibly more than one unit) into the next-higher field.
func FieldInterval(v int) CalendarField { return CalendarField{kind: fieldInterval, interval: v} }

// FieldRange applies inner, then wraps the result modulo (hi-lo+1),
// carrying overflow into the next-higher field. Bounds are inclusive.
func FieldRange(lo, hi int, inner CalendarField) CalendarField {
	return CalendarField{kind: fieldRange, lo: lo, hi: hi, inner: &inner}
}

// apply computes the transformed field value and the (possibly >1) carry
// into the next-higher field, given the field's nominal modulus (its
// count of legal values, e.g. 60 for seconds, 12 for months, 31 for the
// day-of-month slot before month-length clamping).
func (f CalendarField) apply(current, modulus int) (value int, carry int) {
	switch f.kind {
	case fieldIdentity:
		return floorMod(current, modulus), floorDiv(current, modulus)
	case fieldExact:
		v := f.exact
		c := 0
		if v < current {
			c = 1
		}
		return v, c
	case fieldInterval:
		sum := current + f.interval
		return floorMod(sum, modulus), floorDiv(sum, modulus)
	case fieldRange:
		afterInner, innerCarry := f.inner.apply(current, modulus)
		span := f.hi - f.lo + 1
		rel := afterInner - f.lo
		wrapped := floorMod(rel, span)
		extraCarry := floorDiv(rel, span)
		return wrapped + f.lo, innerCarry + extraCarry
	default:
		return current, 0
	}
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	m := a % b
	if m != 0 && ((m < 0) != (b < 0)) {
		m += b
	}
	return m
}

// CalendarSchedule applies a per-field transform tuple in least- to
// most-significant order (millisecond, second, minute, hour, day, month,
// year), carrying overflow upward, then clamps the resulting day-of-month
// to the target month's actual length and resolves the local time.
type CalendarSchedule struct {
	Year        CalendarField
	Month       CalendarField
	Day         CalendarField
	Hour        CalendarField
	Minute      CalendarField
	Second      CalendarField
	Millisecond CalendarField
}

// yearModulus is large enough that realistic Interval/Range transforms on
// the year field never wrap; Range on the year field is permitted by the
// type system but has no next-higher field to carry into.
const yearModulus = 1 << 30

func (s CalendarSchedule) NextAfter(reference time.Time) (time.Time, error) {
	loc := reference.Location()

	year := reference.Year()
	month := int(reference.Month()) - 1 // 0-based, matches spec's 0..=11
	day := reference.Day() - 1          // 0-based, matches spec's 0..=30
	hour := reference.Hour()
	minute := reference.Minute()
	second := reference.Second()
	ms := reference.Nanosecond() / int(time.Millisecond)

	var carry int

	ms, carry = s.Millisecond.apply(ms, 1000)
	second += carry

	second, carry = s.Second.apply(second, 60)
	minute += carry

	minute, carry = s.Minute.apply(minute, 60)
	hour += carry

	hour, carry = s.Hour.apply(hour, 24)
	day += carry

	day, carry = s.Day.apply(day, 31)
	month += carry

	month, carry = s.Month.apply(month, 12)
	year += carry

	year, _ = s.Year.apply(year, yearModulus)

	// Clamp day-of-month to the actual length of the resolved month.
	maxDay := daysInMonth(year, time.Month(month+1)) - 1
	if day > maxDay {
		day = maxDay
	}
	if day < 0 {
		day = 0
	}

	candidate := time.Date(year, time.Month(month+1), day+1, hour, minute, second, ms*int(time.Millisecond), loc)
	return resolveLocalAmbiguity(candidate, hour, minute), nil
}

func daysInMonth(year int, month time.Month) int {
	firstOfNext := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC)
	lastOfThis := firstOfNext.AddDate(0, 0, -1)
	return lastOfThis.Day()
}

// resolveLocalAmbiguity handles the DST edge cases time.Date silently
// normalizes: if the constructed instant's wall-clock hour/minute don't
// match what was asked for (the local time didn't exist, e.g. a spring-
// forward gap), prefer advancing minute-by-minute until a valid instant
// is found, capped well past any real DST jump.
func resolveLocalAmbiguity(candidate time.Time, wantHour, wantMinute int) time.Time {
	if candidate.Hour() == wantHour && candidate.Minute() == wantMinute {
		return candidate
	}
	for i := 0; i < 180; i++ {
		candidate = candidate.Add(time.Minute)
		if candidate.Hour() == wantHour || i > 120 {
			return candidate
		}
	}
	return candidate
}

// NewCalendarSchedule validates field ranges are internally consistent
// (lo <= hi for every Range) before returning a usable schedule.
func NewCalendarSchedule(year, month, day, hour, minute, second, millisecond CalendarField) (CalendarSchedule, error) {
	s := CalendarSchedule{
		Year: year, Month: month, Day: day,
		Hour: hour, Minute: minute, Second: second, Millisecond: millisecond,
	}
	for name, f := range map[string]CalendarField{
		"year": year, "month": month, "day": day,
		"hour": hour, "minute": minute, "second": second, "millisecond": millisecond,
	} {
		if err := validateField(f); err != nil {
			return CalendarSchedule{}, newScheduleError("calendar."+name, err)
		}
	}
	return s, nil
}

func validateField(f CalendarField) error {
	if f.kind == fieldRange {
		if f.lo > f.hi {
			return fmt.Errorf("range lo (%d) > hi (%d)", f.lo, f.hi)
		}
		return validateField(*f.inner)
	}
	return nil
}

// Package booking holds the reservation rules for the car catalog: date
// sanity, interval overlap, availability and pricing. It has no storage or
// transport dependencies.
package booking

import "time"

// Interval is a half-open range of civil dates, [Start, End). The pickup day
// is occupied, the return day is free for the next renter.
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval builds an interval from a pickup and a return date, dropping
// any time-of-day component.
func NewInterval(pickup, ret time.Time) Interval {
	return Interval{Start: DateOf(pickup), End: DateOf(ret)}
}

// DateOf truncates t to its calendar date, expressed as UTC midnight so that
// day arithmetic never crosses a DST shift.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Days is the number of occupied days in the interval. Both ends are UTC
// midnight, so whole seconds divide evenly; time.Duration would saturate
// past roughly 292 years.
func (i Interval) Days() int {
	return int((i.End.Unix() - i.Start.Unix()) / 86400)
}

// Overlaps reports whether two half-open intervals share at least one day.
// Back-to-back intervals (one ends the day the other starts) do not overlap.
func Overlaps(existing, candidate Interval) bool {
	return existing.Start.Before(candidate.End) && candidate.Start.Before(existing.End)
}

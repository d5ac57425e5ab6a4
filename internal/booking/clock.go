package booking

import "time"

// Clock supplies the reference day used by the date checks.
type Clock interface {
	Today() time.Time
}

// SystemClock reads the wall clock in a fixed location.
type SystemClock struct {
	Location *time.Location
}

func (c SystemClock) Today() time.Time {
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	return DateOf(time.Now().In(loc))
}

// FixedClock always reports the same day.
type FixedClock time.Time

func (c FixedClock) Today() time.Time {
	return DateOf(time.Time(c))
}

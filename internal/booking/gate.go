package booking

import "time"

// CheckDates validates a requested interval against the reference day.
// The pickup check runs first so a past pickup is always reported as
// ErrInvalidDate, whatever the return date.
func CheckDates(candidate Interval, today time.Time) error {
	if candidate.Start.Before(DateOf(today)) {
		return ErrInvalidDate
	}
	if !candidate.End.After(candidate.Start) {
		return ErrInvalidRange
	}
	return nil
}

// CheckBookable decides whether a car can take the candidate interval given
// every existing booking for that car. available is the car's manual
// out-of-service switch and is checked before any date conflict.
func CheckBookable(available bool, candidate Interval, existing []Interval) error {
	if !available {
		return ErrCarUnavailable
	}
	if len(Conflicts(candidate, existing)) > 0 {
		return ErrDateConflict
	}
	return nil
}

// Conflicts returns every existing interval that overlaps the candidate.
func Conflicts(candidate Interval, existing []Interval) []Interval {
	var out []Interval
	for _, e := range existing {
		if Overlaps(e, candidate) {
			out = append(out, e)
		}
	}
	return out
}

package booking

import "errors"

var (
	ErrInvalidDate    = errors.New("pickup date cannot be in the past")
	ErrInvalidRange   = errors.New("return date must be after pickup date")
	ErrNotFound       = errors.New("car not found")
	ErrCarUnavailable = errors.New("car is not available for booking")
	ErrDateConflict   = errors.New("car is not available for the selected dates")

	// ErrPersistence wraps storage failures during admission. The whole
	// admission should be retried from the date checks.
	ErrPersistence = errors.New("booking could not be saved, please try again")

	// ErrNotification is only ever logged; delivery failures never reach the
	// caller of an admission or a cancellation.
	ErrNotification = errors.New("notification delivery failed")
)

// Outcome labels an admission result for metrics and logs.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "confirmed"
	case errors.Is(err, ErrInvalidDate):
		return "invalid_date"
	case errors.Is(err, ErrInvalidRange):
		return "invalid_range"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrCarUnavailable):
		return "car_unavailable"
	case errors.Is(err, ErrDateConflict):
		return "date_conflict"
	case errors.Is(err, ErrPersistence):
		return "persistence_failure"
	default:
		return "error"
	}
}

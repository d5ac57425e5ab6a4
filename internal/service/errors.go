package service

import "errors"

var (
	ErrForbidden       = errors.New("not allowed for this role")
	ErrBookingNotFound = errors.New("booking not found")
	ErrCarHasBookings  = errors.New("car has bookings and cannot be deleted")

	ErrUsernameTaken      = errors.New("username is already taken")
	ErrInvalidCode        = errors.New("verification code is required")
	ErrCodeNotFound       = errors.New("verification code not found")
	ErrCodeExpired        = errors.New("verification code has expired")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrEmailNotVerified   = errors.New("email address is not verified")
)

package db

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

type Car struct {
	ID          int64
	Name        string
	Model       string
	ImageURL    string
	IsAvailable bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type User struct {
	ID                    int64
	Username              string
	PasswordHash          string
	Role                  string
	Email                 string
	EmailVerified         bool
	VerificationCode      sql.NullString
	VerificationExpiresAt sql.NullTime
	CreatedAt             time.Time
}

// VerificationState derives where the user is in the email verification flow.
func (u *User) VerificationState() VerificationState {
	switch {
	case u.EmailVerified:
		return Verified
	case u.VerificationCode.Valid:
		return PendingCode
	default:
		return Unverified
	}
}

type VerificationState int

const (
	Unverified VerificationState = iota
	PendingCode
	Verified
)

// Booking rows are inserted and deleted, never updated.
type Booking struct {
	ID         int64
	CustomerID int64
	CarID      int64
	PickupDate time.Time
	ReturnDate time.Time
	TotalCost  decimal.Decimal
	CreatedAt  time.Time
}

// BookingDetail is a booking joined with its car and customer.
type BookingDetail struct {
	Booking
	CarName          string
	CarModel         string
	CustomerUsername string
	CustomerEmail    string
}

const (
	OutboxStatusNew        = "new"
	OutboxStatusDispatched = "dispatched"
	OutboxStatusSent       = "sent"
	OutboxStatusFailed     = "failed"
)

type OutboxMessage struct {
	ID        string
	EventType string
	Recipient string
	Subject   string
	HTMLBody  string
	TextBody  string
	Payload   []byte
	Status    string
	LastError sql.NullString
	CreatedAt time.Time
	UpdatedAt time.Time
}

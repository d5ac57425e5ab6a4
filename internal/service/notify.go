package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

const (
	EventBookingConfirmed = "booking.confirmed"
	EventBookingCancelled = "booking.cancelled"
	EventUserVerification = "user.verification"
)

// Notification is one outbox message on its way to a delivery channel.
type Notification struct {
	ID        string
	EventType string
	Recipient string
	Subject   string
	HTMLBody  string
	TextBody  string
	Payload   []byte
}

func (n Notification) isBookingEvent() bool {
	return strings.HasPrefix(n.EventType, "booking.")
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// MultiNotifier fans a notification out to every channel and reports the
// joined failures. A failing channel does not stop the others.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, notifier := range m {
		if err := notifier.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogNotifier writes notifications to the log instead of delivering them.
type LogNotifier struct {
	Logger *zerolog.Logger
}

func (l LogNotifier) Notify(_ context.Context, n Notification) error {
	l.Logger.Info().
		Str("event", n.EventType).
		Str("recipient", n.Recipient).
		Str("subject", n.Subject).
		Msg("notification")
	return nil
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, n Notification) error

func (f NotifierFunc) Notify(ctx context.Context, n Notification) error {
	return f(ctx, n)
}

func requireRecipient(n Notification) error {
	if n.Recipient == "" {
		return fmt.Errorf("notification %s (%s) has no recipient", n.ID, n.EventType)
	}
	return nil
}

package service

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"carrental/internal/booking"
	"carrental/internal/db"
	"carrental/internal/entities"
	"carrental/internal/metrics"
	"carrental/internal/utils"
)

//go:embed templates/*.html
var templateFS embed.FS

var emailTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type OutboxStore interface {
	Create(ctx context.Context, m *db.OutboxMessage) error
	ClaimBatch(ctx context.Context, limit int) ([]db.OutboxMessage, error)
	MarkSent(ctx context.Context, ids []string) error
	MarkFailed(ctx context.Context, id string, reason string) error
}

type SenderConfig struct {
	// OpsRecipient receives booking confirmations and cancellations.
	OpsRecipient string
	// BaseURL prefixes the verification link sent to new users.
	BaseURL   string
	BatchSize int
}

// SenderService composes notification messages into the outbox and later
// hands them to the notifier. Every message is attempted once.
type SenderService struct {
	outbox   OutboxStore
	notifier Notifier
	logger   *zerolog.Logger
	cfg      SenderConfig
	kick     chan struct{}
}

func NewSenderService(outbox OutboxStore, notifier Notifier, logger *zerolog.Logger, cfg SenderConfig) *SenderService {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 20
	}
	return &SenderService{
		outbox:   outbox,
		notifier: notifier,
		logger:   logger,
		cfg:      cfg,
		kick:     make(chan struct{}, 1),
	}
}

type bookingEvent struct {
	Event      string `json:"event"`
	BookingID  int64  `json:"booking_id"`
	CarID      int64  `json:"car_id"`
	CustomerID int64  `json:"customer_id"`
	PickupDate string `json:"pickup_date"`
	ReturnDate string `json:"return_date"`
	TotalCost  string `json:"total_cost"`
	OccurredAt string `json:"occurred_at"`
}

// EnqueueBookingConfirmed writes the confirmation message. Call it inside
// the admission transaction.
func (s *SenderService) EnqueueBookingConfirmed(ctx context.Context, b db.BookingDetail) error {
	data := s.bookingEmailData(b)
	subject := fmt.Sprintf("Booking #%d confirmed: %s from %s to %s", b.ID, b.CarName, data.PickupDate, data.ReturnDate)
	text := fmt.Sprintf(
		"A new booking has been made.\n\n"+
			"Booking: #%d\n"+
			"Customer: %s\n"+
			"Car: %s (%s)\n"+
			"Pickup: %s\n"+
			"Return: %s\n"+
			"Days: %d\n"+
			"Total: $%s\n",
		data.BookingID, data.CustomerName, data.CarName, data.CarModel,
		data.PickupDate, data.ReturnDate, data.Days, data.TotalCost,
	)
	return s.enqueueBooking(ctx, EventBookingConfirmed, "booking_confirmed.html", subject, text, b, data)
}

func (s *SenderService) EnqueueBookingCancelled(ctx context.Context, b db.BookingDetail) error {
	data := s.bookingEmailData(b)
	subject := fmt.Sprintf("Booking #%d cancelled: %s from %s to %s", b.ID, b.CarName, data.PickupDate, data.ReturnDate)
	text := fmt.Sprintf(
		"Booking #%d for %s was cancelled.\n\n"+
			"Car: %s (%s)\n"+
			"Pickup: %s\n"+
			"Return: %s\n",
		data.BookingID, data.CustomerName, data.CarName, data.CarModel, data.PickupDate, data.ReturnDate,
	)
	return s.enqueueBooking(ctx, EventBookingCancelled, "booking_cancelled.html", subject, text, b, data)
}

func (s *SenderService) bookingEmailData(b db.BookingDetail) entities.BookingEmailData {
	return entities.BookingEmailData{
		CustomerName: b.CustomerUsername,
		BookingID:    b.ID,
		CarName:      b.CarName,
		CarModel:     b.CarModel,
		PickupDate:   utils.FormatDate(b.PickupDate),
		ReturnDate:   utils.FormatDate(b.ReturnDate),
		Days:         booking.NewInterval(b.PickupDate, b.ReturnDate).Days(),
		TotalCost:    utils.FormatMoney(b.TotalCost),
		CurrentYear:  time.Now().Year(),
	}
}

func (s *SenderService) enqueueBooking(ctx context.Context, event, tmpl, subject, text string, b db.BookingDetail, data entities.BookingEmailData) error {
	html, err := render(tmpl, data)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(bookingEvent{
		Event:      event,
		BookingID:  b.ID,
		CarID:      b.CarID,
		CustomerID: b.CustomerID,
		PickupDate: data.PickupDate,
		ReturnDate: data.ReturnDate,
		TotalCost:  data.TotalCost,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", event, err)
	}
	return s.outbox.Create(ctx, &db.OutboxMessage{
		ID:        uuid.NewString(),
		EventType: event,
		Recipient: s.cfg.OpsRecipient,
		Subject:   subject,
		HTMLBody:  html,
		TextBody:  text,
		Payload:   payload,
	})
}

// EnqueueVerification writes the email carrying the verification code to the
// user's own address.
func (s *SenderService) EnqueueVerification(ctx context.Context, u db.User) error {
	if !u.VerificationCode.Valid {
		return fmt.Errorf("user %s has no verification code", u.Username)
	}
	link := s.cfg.BaseURL + "/api/auth/verify?code=" + url.QueryEscape(u.VerificationCode.String)
	data := entities.VerificationEmailData{
		Username:    u.Username,
		Code:        u.VerificationCode.String,
		Link:        link,
		ExpiresAt:   u.VerificationExpiresAt.Time.UTC().Format("2006-01-02 15:04 MST"),
		CurrentYear: time.Now().Year(),
	}
	html, err := render("verification.html", data)
	if err != nil {
		return err
	}
	text := fmt.Sprintf(
		"Hello %s,\n\nConfirm your email address by opening this link:\n%s\n\n"+
			"Verification code: %s\nThe code expires at %s.\n",
		data.Username, data.Link, data.Code, data.ExpiresAt,
	)
	return s.outbox.Create(ctx, &db.OutboxMessage{
		ID:        uuid.NewString(),
		EventType: EventUserVerification,
		Recipient: u.Email,
		Subject:   "Verify your email for Car Rental",
		HTMLBody:  html,
		TextBody:  text,
	})
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := emailTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

// Trigger asks the dispatcher to run soon. It never blocks.
func (s *SenderService) Trigger() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// Run dispatches whenever Trigger is called, until ctx is done.
func (s *SenderService) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.kick:
			if _, err := s.Dispatch(ctx); err != nil {
				s.logger.Error().Err(err).Msg("outbox dispatch failed")
			}
		}
	}
}

// Dispatch drains pending outbox messages and returns how many were
// delivered. A delivery failure marks the message failed and moves on.
func (s *SenderService) Dispatch(ctx context.Context) (int, error) {
	sent := 0
	for {
		msgs, err := s.outbox.ClaimBatch(ctx, s.cfg.BatchSize)
		if err != nil {
			return sent, err
		}

		var ids []string
		for _, m := range msgs {
			err := s.notifier.Notify(ctx, Notification{
				ID:        m.ID,
				EventType: m.EventType,
				Recipient: m.Recipient,
				Subject:   m.Subject,
				HTMLBody:  m.HTMLBody,
				TextBody:  m.TextBody,
				Payload:   m.Payload,
			})
			if err != nil {
				err = fmt.Errorf("%w: %w", booking.ErrNotification, err)
				s.logger.Warn().Err(err).Str("id", m.ID).Str("event", m.EventType).Msg("notification not delivered")
				metrics.NotificationsDispatched.WithLabelValues(db.OutboxStatusFailed).Inc()
				if mErr := s.outbox.MarkFailed(ctx, m.ID, err.Error()); mErr != nil {
					s.logger.Error().Err(mErr).Str("id", m.ID).Msg("failed to mark notification failed")
				}
				continue
			}
			metrics.NotificationsDispatched.WithLabelValues(db.OutboxStatusSent).Inc()
			ids = append(ids, m.ID)
		}

		if err := s.outbox.MarkSent(ctx, ids); err != nil {
			return sent, err
		}
		sent += len(ids)

		if len(msgs) < s.cfg.BatchSize {
			return sent, nil
		}
	}
}

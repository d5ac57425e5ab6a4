package service

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
	"gopkg.in/gomail.v2"
)

type SendGridNotifier struct {
	client *sendgrid.Client
	from   *mail.Email
}

func NewSendGridNotifier(apiKey, fromEmail, fromName string) *SendGridNotifier {
	return &SendGridNotifier{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail(fromName, fromEmail),
	}
}

func (s *SendGridNotifier) Notify(ctx context.Context, n Notification) error {
	if err := requireRecipient(n); err != nil {
		return err
	}
	message := mail.NewSingleEmail(s.from, n.Subject, mail.NewEmail("", n.Recipient), n.TextBody, n.HTMLBody)

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid: send to %s: %w", n.Recipient, err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("sendgrid: status %d: %s", response.StatusCode, response.Body)
	}
	return nil
}

type SMTPNotifier struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPNotifier(host string, port int, username, password, from string) *SMTPNotifier {
	return &SMTPNotifier{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (s *SMTPNotifier) Notify(_ context.Context, n Notification) error {
	if err := requireRecipient(n); err != nil {
		return err
	}
	msg := s.message(n)
	if err := s.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("smtp: send to %s: %w", n.Recipient, err)
	}
	return nil
}

func (s *SMTPNotifier) message(n Notification) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", n.Recipient)
	msg.SetHeader("Subject", n.Subject)
	if n.HTMLBody != "" {
		msg.SetBody("text/html", n.HTMLBody)
		if n.TextBody != "" {
			msg.AddAlternative("text/plain", n.TextBody)
		}
	} else {
		msg.SetBody("text/plain", n.TextBody)
	}
	return msg
}

// TwilioNotifier texts the operations phone about booking events. Other
// events, such as verification codes, are never sent by SMS.
type TwilioNotifier struct {
	client *twilio.RestClient
	from   string
	to     string
}

func NewTwilioNotifier(accountSID, authToken, from, to string) *TwilioNotifier {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username:   accountSID,
		Password:   authToken,
		AccountSid: accountSID,
	})
	return &TwilioNotifier{client: client, from: from, to: to}
}

func (t *TwilioNotifier) Notify(_ context.Context, n Notification) error {
	if !n.isBookingEvent() {
		return nil
	}
	params := &openapi.CreateMessageParams{}
	params.SetTo(t.to)
	params.SetFrom(t.from)
	params.SetBody("Car Rental: " + n.Subject)

	if _, err := t.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("twilio: send to %s: %w", t.to, err)
	}
	return nil
}

// KafkaNotifier publishes booking events for downstream consumers. The
// message key is the outbox id so consumers can drop duplicates.
type KafkaNotifier struct {
	writer *kafka.Writer
}

func NewKafkaNotifier(brokers []string, topic string) *KafkaNotifier {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		MaxAttempts:            1,
		ReadTimeout:            10 * time.Second,
		WriteTimeout:           10 * time.Second,
		AllowAutoTopicCreation: true,
	}
	return &KafkaNotifier{writer: w}
}

func (k *KafkaNotifier) Notify(ctx context.Context, n Notification) error {
	if !n.isBookingEvent() || len(n.Payload) == 0 {
		return nil
	}
	err := k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(n.ID),
		Value: n.Payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(n.EventType)},
		},
	})
	if err != nil {
		return fmt.Errorf("kafka: publish %s: %w", n.EventType, err)
	}
	return nil
}

func (k *KafkaNotifier) Close() error {
	return k.writer.Close()
}

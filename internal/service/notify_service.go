package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// ErrChannelDisabled is returned when a notification channel has no credentials.
var ErrChannelDisabled = errors.New("notification channel disabled")

type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

type EmailMessage struct {
	ToEmail   string
	ToName    string
	Subject   string
	PlainText string
	HTML      string
}

type EmailSender interface {
	SendEmail(ctx context.Context, msg EmailMessage) error
}

// Notifier groups the outbound channels. A nil channel is disabled.
type Notifier struct {
	SMS   SMSSender
	Email EmailSender
}

func (n *Notifier) SendSMS(ctx context.Context, to, body string) error {
	if n == nil || n.SMS == nil {
		return ErrChannelDisabled
	}
	return n.SMS.SendSMS(ctx, to, body)
}

func (n *Notifier) SendEmail(ctx context.Context, msg EmailMessage) error {
	if n == nil || n.Email == nil {
		return ErrChannelDisabled
	}
	return n.Email.SendEmail(ctx, msg)
}

type TwilioSender struct {
	client *twilio.RestClient
	from   string
	logger *slog.Logger
}

func NewTwilioSender(accountSID, authToken, fromNumber string, logger *slog.Logger) *TwilioSender {
	if logger == nil {
		logger = slog.Default()
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username:   accountSID,
		Password:   authToken,
		AccountSid: accountSID,
	})
	return &TwilioSender{client: client, from: fromNumber, logger: logger}
}

func (t *TwilioSender) SendSMS(ctx context.Context, toNumber, messageBody string) error {
	if !strings.HasPrefix(toNumber, "+") {
		t.logger.WarnContext(ctx, "sms destination is not E.164", "to", toNumber)
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(toNumber)
	params.SetFrom(t.from)
	params.SetBody(messageBody)

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("send sms to %s: %w", toNumber, err)
	}
	if resp != nil && resp.Sid != nil {
		t.logger.InfoContext(ctx, "sms sent", "to", toNumber, "sid", *resp.Sid)
	}
	return nil
}

type SendGridSender struct {
	client *sendgrid.Client
	from   *mail.Email
	logger *slog.Logger
}

func NewSendGridSender(apiKey, fromEmail, fromName string, logger *slog.Logger) *SendGridSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &SendGridSender{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail(fromName, fromEmail),
		logger: logger,
	}
}

func (s *SendGridSender) SendEmail(ctx context.Context, msg EmailMessage) error {
	to := mail.NewEmail(msg.ToName, msg.ToEmail)
	message := mail.NewSingleEmail(s.from, msg.Subject, to, msg.PlainText, msg.HTML)

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("send email to %s: %w", msg.ToEmail, err)
	}
	if response.StatusCode < 200 || response.StatusCode > 299 {
		return fmt.Errorf("sendgrid returned status %d: %s", response.StatusCode, response.Body)
	}
	s.logger.InfoContext(ctx, "email sent", "to", msg.ToEmail, "subject", msg.Subject, "status", response.StatusCode)
	return nil
}

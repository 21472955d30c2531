package resendinfra

import (
	"context"
	"errors"
	"log/slog"

	"github.com/diaspora-journey-api/internal/infrastructure/email"
	"github.com/resend/resend-go/v2"
)

// Sender delivers mail through the Resend API.
type Sender struct {
	client *resend.Client
	from   string
}

func NewSender(apiKey, from string) (*Sender, error) {
	if apiKey == "" {
		return nil, errors.New("email service not configured (missing RESEND_API_KEY)")
	}
	return &Sender{client: resend.NewClient(apiKey), from: from}, nil
}

func (s *Sender) Send(ctx context.Context, msg email.Message) error {
	if err := email.CheckRecipient(msg.To); err != nil {
		return err
	}
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Text:    msg.Text,
		Html:    msg.HTML,
	}
	sent, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return err
	}
	slog.Info("email sent", "provider", "resend", "id", sent.Id, "to", msg.To)
	return nil
}

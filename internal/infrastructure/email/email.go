// Package email defines the outbound mail contract, a retrying decorator and
// the message templates used by the application services.
package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
)

// ErrInvalidRecipient marks failures that retrying cannot fix.
var ErrInvalidRecipient = errors.New("invalid recipient")

type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers a single message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// CheckRecipient parses the address and returns ErrInvalidRecipient when it is malformed.
func CheckRecipient(to string) error {
	if strings.ContainsAny(to, "\r\n") {
		return fmt.Errorf("%q: %w", to, ErrInvalidRecipient)
	}
	if _, err := mail.ParseAddress(to); err != nil {
		return fmt.Errorf("%q: %w", to, ErrInvalidRecipient)
	}
	return nil
}

// LogSender writes messages to the structured log instead of delivering them.
// Used in development when no provider is configured.
type LogSender struct{}

func (LogSender) Send(_ context.Context, msg Message) error {
	if err := CheckRecipient(msg.To); err != nil {
		return err
	}
	slog.Info("email sent (dev mode)", "to", msg.To, "subject", msg.Subject, "body", msg.Text)
	return nil
}

package email

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryingSender retries a Sender with exponential backoff up to a fixed
// number of attempts. ErrInvalidRecipient failures are returned immediately.
type RetryingSender struct {
	next        Sender
	maxAttempts int
	initial     time.Duration
}

func NewRetryingSender(next Sender, maxAttempts int, initial time.Duration) *RetryingSender {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &RetryingSender{next: next, maxAttempts: maxAttempts, initial: initial}
}

func (s *RetryingSender) Send(ctx context.Context, msg Message) error {
	attempt := 0
	op := func() error {
		attempt++
		err := s.next.Send(ctx, msg)
		if errors.Is(err, ErrInvalidRecipient) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		slog.Warn("email send failed, retrying", "to", msg.To, "attempt", attempt, "wait", wait, "error", err)
	}
	if err := backoff.RetryNotify(op, s.policy(ctx), notify); err != nil {
		slog.Error("email send gave up", "to", msg.To, "attempts", attempt, "error", err)
		return err
	}
	return nil
}

func (s *RetryingSender) policy(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.initial
	b.Multiplier = 2
	b.RandomizationFactor = 0.2
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(s.maxAttempts-1)), ctx)
}

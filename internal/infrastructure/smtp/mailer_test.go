package smtp

import (
	"context"
	"net/smtp"
	"strings"
	"testing"

	"github.com/diaspora-journey-api/internal/config"
	"github.com/diaspora-journey-api/internal/infrastructure/email"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMailer(captured *[]byte, addr *string) *Mailer {
	m := NewMailer(&config.Config{SMTPHost: "localhost", SMTPPort: "1025", EmailFrom: "noreply@example.com"})
	m.send = func(a string, _ smtp.Auth, _ string, _ []string, msg []byte) error {
		*addr = a
		*captured = msg
		return nil
	}
	return m
}

func TestMailer_PlainText(t *testing.T) {
	var body []byte
	var addr string
	m := newTestMailer(&body, &addr)

	err := m.Send(context.Background(), email.Message{To: "a@example.com", Subject: "Hi", Text: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "localhost:1025", addr)
	assert.Contains(t, string(body), "Subject: Hi\r\n")
	assert.Contains(t, string(body), "text/plain")
	assert.Contains(t, string(body), "hello")
}

func TestMailer_Multipart(t *testing.T) {
	var body []byte
	var addr string
	m := newTestMailer(&body, &addr)

	err := m.Send(context.Background(), email.Message{To: "a@example.com", Subject: "Hi", Text: "hello", HTML: "<p>hello</p>"})
	require.NoError(t, err)
	assert.Contains(t, string(body), "multipart/alternative")
	assert.Contains(t, string(body), "<p>hello</p>")
}

func TestMailer_InvalidRecipient(t *testing.T) {
	var body []byte
	var addr string
	m := newTestMailer(&body, &addr)

	err := m.Send(context.Background(), email.Message{To: "nope"})
	assert.ErrorIs(t, err, email.ErrInvalidRecipient)
	assert.Nil(t, body)
}

func TestMailer_SubjectCannotInjectHeaders(t *testing.T) {
	var body []byte
	var addr string
	m := newTestMailer(&body, &addr)

	err := m.Send(context.Background(), email.Message{To: "a@example.com", Subject: "Verified: BSc\r\nBcc: attacker@evil.test", Text: "hello"})
	require.NoError(t, err)
	headers, _, _ := strings.Cut(string(body), "\r\n\r\n")
	assert.NotContains(t, headers, "\r\nBcc:")
	assert.Contains(t, headers, "Subject: =?utf-8?q?")
}

func TestMailer_RecipientWithLineBreak(t *testing.T) {
	var body []byte
	var addr string
	m := newTestMailer(&body, &addr)

	err := m.Send(context.Background(), email.Message{To: "a@example.com\r\nBcc: b@example.com", Subject: "Hi"})
	assert.ErrorIs(t, err, email.ErrInvalidRecipient)
	assert.Nil(t, body)
}

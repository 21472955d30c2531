package smtp

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"mime/multipart"
	"net/smtp"
	"net/textproto"

	"github.com/diaspora-journey-api/internal/config"
	"github.com/diaspora-journey-api/internal/infrastructure/email"
)

// Mailer delivers email.Message values over plain SMTP.
type Mailer struct {
	host     string
	port     string
	from     string
	username string
	password string
	send     func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		from:     cfg.EmailFrom,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		send:     smtp.SendMail,
	}
}

func (m *Mailer) Send(ctx context.Context, msg email.Message) error {
	if err := email.CheckRecipient(msg.To); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := m.compose(msg)
	if err != nil {
		return err
	}
	addr := fmt.Sprintf("%s:%s", m.host, m.port)

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}
	return m.send(addr, auth, m.from, []string{msg.To}, body)
}

// compose renders a text/plain message, or multipart/alternative when HTML is set.
func (m *Mailer) compose(msg email.Message) ([]byte, error) {
	var buf bytes.Buffer
	subject := mime.QEncoding.Encode("utf-8", msg.Subject)
	fmt.Fprintf(&buf, "From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\n", m.from, msg.To, subject)
	if msg.HTML == "" {
		fmt.Fprintf(&buf, "Content-Type: text/plain; charset=UTF-8\r\n\r\n%s", msg.Text)
		return buf.Bytes(), nil
	}

	var parts bytes.Buffer
	w := multipart.NewWriter(&parts)
	for _, p := range []struct{ ctype, body string }{
		{"text/plain; charset=UTF-8", msg.Text},
		{"text/html; charset=UTF-8", msg.HTML},
	} {
		pw, err := w.CreatePart(textproto.MIMEHeader{"Content-Type": {p.ctype}})
		if err != nil {
			return nil, err
		}
		if _, err := pw.Write([]byte(p.body)); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", w.Boundary())
	buf.Write(parts.Bytes())
	return buf.Bytes(), nil
}

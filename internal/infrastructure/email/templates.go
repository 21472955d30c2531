package email

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"
)

// htmlLayout renders a plain-text body as escaped HTML paragraphs.
var htmlLayout = template.Must(template.New("email").Parse(`<!doctype html>
<html><body style="font-family:sans-serif;line-height:1.5">
{{range .}}<p>{{range $i, $line := .}}{{if $i}}<br>{{end}}{{$line}}{{end}}</p>
{{end}}</body></html>`))

// withHTML fills m.HTML from m.Text. On a render failure the message stays text-only.
func withHTML(m Message) Message {
	var paras [][]string
	for _, p := range strings.Split(m.Text, "\n\n") {
		paras = append(paras, strings.Split(p, "\n"))
	}
	var buf bytes.Buffer
	if err := htmlLayout.Execute(&buf, paras); err != nil {
		return m
	}
	m.HTML = buf.String()
	return m
}

// Templates renders the transactional messages for one deployment.
type Templates struct {
	AppName string
	AppURL  string
}

func (t Templates) Welcome(to, name string) Message {
	subject := fmt.Sprintf("Welcome to %s!", t.AppName)
	body := fmt.Sprintf(`Hi %s,

Your account is ready. Start mapping your build journey and get your
credentials verified so partners can trust your profile.

Get started: %s/journey

Best,
The %s Team`, name, t.AppURL, t.AppName)
	return withHTML(Message{To: to, Subject: subject, Text: body})
}

func (t Templates) RecoveryCode(to, name, code string, ttl time.Duration) Message {
	subject := fmt.Sprintf("Your %s sign-in code", t.AppName)
	body := fmt.Sprintf(`Hi %s,

Your one-time code is: %s

It expires in %d minutes. If you didn't request it, you can safely ignore
this email.

Best,
The %s Team`, name, code, int(ttl.Minutes()), t.AppName)
	return withHTML(Message{To: to, Subject: subject, Text: body})
}

func (t Templates) ConfirmEmail(to, name, token string) Message {
	subject := fmt.Sprintf("Confirm your email for %s", t.AppName)
	body := fmt.Sprintf(`Hi %s,

Please confirm your email address with this code:
%s

The code expires in 24 hours.

Best,
The %s Team`, name, token, t.AppName)
	return withHTML(Message{To: to, Subject: subject, Text: body})
}

func (t Templates) VerificationApproved(to, name, title string) Message {
	subject := fmt.Sprintf("Verified: %s", title)
	body := fmt.Sprintf(`Hi %s,

Good news! Your credential "%s" has been verified and a badge is now shown
on your profile.

View your badges: %s/badges

Best,
The %s Team`, name, title, t.AppURL, t.AppName)
	return withHTML(Message{To: to, Subject: subject, Text: body})
}

func (t Templates) VerificationRejected(to, name, title, reason string) Message {
	subject := fmt.Sprintf("Update on your verification: %s", title)
	body := fmt.Sprintf(`Hi %s,

We could not verify your credential "%s".

Reviewer notes:
%s

You can submit a new request with updated documents at any time.

Best,
The %s Team`, name, title, reason, t.AppName)
	return withHTML(Message{To: to, Subject: subject, Text: body})
}

func (t Templates) BadgeRevoked(to, name, title, reason string) Message {
	subject := fmt.Sprintf("Badge revoked: %s", title)
	body := fmt.Sprintf(`Hi %s,

The verification badge for "%s" has been revoked.

Reason:
%s

If you believe this is a mistake, reply to this email.

Best,
The %s Team`, name, title, reason, t.AppName)
	return withHTML(Message{To: to, Subject: subject, Text: body})
}

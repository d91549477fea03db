// Package mailer sends transactional e-mail through the SendGrid SMTP relay.
package mailer

import (
	"context"
	"fmt"
	"html/template"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

const (
	sendgridHost = "smtp.sendgrid.net"
	sendgridPort = 587
	sendgridUser = "apikey"
)

type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type Mailer struct {
	from   string
	dialer Dialer
}

func New(apiKey, from string) *Mailer {
	return NewWithDialer(from, gomail.NewDialer(sendgridHost, sendgridPort, sendgridUser, apiKey))
}

func NewWithDialer(from string, d Dialer) *Mailer {
	return &Mailer{from: from, dialer: d}
}

func (m *Mailer) Send(ctx context.Context, to, subject, html string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", html)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

func (m *Mailer) SendWelcome(ctx context.Context, to, fullName, role string) error {
	body, err := render(welcomeTmpl, map[string]string{"Name": fullName, "Role": role})
	if err != nil {
		return err
	}
	return m.Send(ctx, to, "Welcome to HouseHelp", body)
}

func (m *Mailer) SendPasswordReset(ctx context.Context, to, link string) error {
	body, err := render(resetTmpl, map[string]string{"Link": link})
	if err != nil {
		return err
	}
	return m.Send(ctx, to, "Reset your HouseHelp password", body)
}

// Disabled stands in when SENDGRID_API_KEY is unset. It only logs.
type Disabled struct{}

func (Disabled) SendWelcome(_ context.Context, to, _, role string) error {
	zap.L().Info("mail disabled, skipping welcome", zap.String("to", to), zap.String("role", role))
	return nil
}

func (Disabled) SendPasswordReset(_ context.Context, to, _ string) error {
	zap.L().Info("mail disabled, skipping password reset", zap.String("to", to))
	return nil
}

var (
	welcomeTmpl = template.Must(template.New("welcome").Parse(
		`<p>Hello {{.Name}},</p><p>Your HouseHelp {{.Role}} account is ready.</p>`))
	resetTmpl = template.Must(template.New("reset").Parse(
		`<p>We received a request to reset your password.</p>` +
			`<p><a href="{{.Link}}">Choose a new password</a>. The link expires in one hour.</p>` +
			`<p>If you did not ask for this, ignore this e-mail.</p>`))
)

func render(t *template.Template, data any) (string, error) {
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return b.String(), nil
}

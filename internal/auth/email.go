package auth

import (
	"bytes"
	"context"
	"fmt"
	"net/smtp"
	"text/template"

	"github.com/rs/zerolog"
)

// Mailer delivers account emails.
type Mailer interface {
	SendVerificationEmail(ctx context.Context, toEmail, link string) error
	SendPasswordResetEmail(ctx context.Context, toEmail, link string) error
}

var (
	verificationTmpl = template.Must(template.New("verify").Parse(`Subject: Verify your SmartQuiz email

Hello {{.Name}},

Welcome to SmartQuiz. Confirm your email address to finish signing up:
{{.Link}}

If you did not create an account, you can ignore this email.

SmartQuiz Team`))

	resetTmpl = template.Must(template.New("reset").Parse(`Subject: Password Reset Request

Hello,

You requested a password reset for your SmartQuiz account.

Click the link below to reset your password:
{{.Link}}

If you did not request this, please ignore this email.

SmartQuiz Team`))
)

// EmailConfig holds SMTP configuration.
type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
}

// SMTPMailer sends email through an SMTP relay.
type SMTPMailer struct {
	cfg    EmailConfig
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
	logger zerolog.Logger
}

// NewMailer returns an SMTP mailer when a host is configured and a log
// mailer otherwise.
func NewMailer(cfg EmailConfig, logger zerolog.Logger) Mailer {
	logger = logger.With().Str("component", "email").Logger()
	if cfg.SMTPHost == "" || cfg.SMTPPort == 0 {
		logger.Warn().Msg("SMTP not configured; account emails will be logged")
		return &LogMailer{logger: logger}
	}
	return &SMTPMailer{cfg: cfg, send: smtp.SendMail, logger: logger}
}

func (m *SMTPMailer) SendVerificationEmail(ctx context.Context, toEmail, link string) error {
	return m.deliver(toEmail, verificationTmpl, map[string]string{"Name": toEmail, "Link": link})
}

func (m *SMTPMailer) SendPasswordResetEmail(ctx context.Context, toEmail, link string) error {
	return m.deliver(toEmail, resetTmpl, map[string]string{"Link": link})
}

func (m *SMTPMailer) deliver(toEmail string, tmpl *template.Template, data map[string]string) error {
	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("execute template: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.SMTPHost, m.cfg.SMTPPort)
	auth := smtp.PlainAuth("", m.cfg.SMTPUsername, m.cfg.SMTPPassword, m.cfg.SMTPHost)
	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\n%s\r\n", m.cfg.FromEmail, toEmail, body.String()))

	if err := m.send(addr, auth, m.cfg.FromEmail, []string{toEmail}, msg); err != nil {
		m.logger.Error().Err(err).Str("to", toEmail).Str("template", tmpl.Name()).Msg("failed to send email")
		return fmt.Errorf("send email: %w", err)
	}
	m.logger.Info().Str("to", toEmail).Str("template", tmpl.Name()).Msg("email sent")
	return nil
}

// LogMailer writes links to the log instead of sending them. Development only.
type LogMailer struct {
	logger zerolog.Logger
}

func (m *LogMailer) SendVerificationEmail(_ context.Context, toEmail, link string) error {
	m.logger.Info().Str("to", toEmail).Str("link", link).Msg("verification email")
	return nil
}

func (m *LogMailer) SendPasswordResetEmail(_ context.Context, toEmail, link string) error {
	m.logger.Info().Str("to", toEmail).Str("link", link).Msg("password reset email")
	return nil
}

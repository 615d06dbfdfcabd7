// Package mailer sends transactional email over SMTP.
package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/oncoursesbros-sketch/oncourse/pkg/config"
	"github.com/oncoursesbros-sketch/oncourse/pkg/observability"
)

// Mailer sends email through an SMTP relay.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
	logger *observability.Logger
}

// Email is a single outgoing message.
type Email struct {
	To       []string
	Subject  string
	Body     string
	HTMLBody string
}

// NewMailer creates a Mailer from SMTP configuration.
func NewMailer(cfg config.SMTPConfig, logger *observability.Logger) (*Mailer, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("SMTP host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("SMTP from address is required")
	}

	return &Mailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		logger: logger,
	}, nil
}

// Send delivers a single email.
func (m *Mailer) Send(email Email) error {
	if len(email.To) == 0 {
		return fmt.Errorf("no recipients specified")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", email.To...)
	msg.SetHeader("Subject", email.Subject)
	if email.HTMLBody != "" {
		msg.SetBody("text/html", email.HTMLBody)
		if email.Body != "" {
			msg.AddAlternative("text/plain", email.Body)
		}
	} else {
		msg.SetBody("text/plain", email.Body)
	}

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// SendPasswordReset mails a password reset link.
func (m *Mailer) SendPasswordReset(to, link string) error {
	html := fmt.Sprintf(`<p>You requested a password reset.</p>
<p><a href="%s">Reset your password</a></p>
<p>The link expires in one hour. If you did not request this, ignore this email.</p>`, link)

	err := m.Send(Email{
		To:       []string{to},
		Subject:  "Password reset",
		Body:     fmt.Sprintf("Reset your password: %s\nThe link expires in one hour.", link),
		HTMLBody: html,
	})
	if err != nil {
		return err
	}

	m.logger.WithField("to", to).Info("password reset email sent")
	return nil
}

// LogOnlyMailer writes outgoing mail to the log instead of SMTP. Used
// when no SMTP relay is configured, typically in development.
type LogOnlyMailer struct {
	logger *observability.Logger
}

// NewLogOnlyMailer creates a LogOnlyMailer.
func NewLogOnlyMailer(logger *observability.Logger) *LogOnlyMailer {
	return &LogOnlyMailer{logger: logger}
}

// SendPasswordReset logs the reset link.
func (m *LogOnlyMailer) SendPasswordReset(to, link string) error {
	m.logger.WithFields(map[string]interface{}{
		"to":   to,
		"link": link,
	}).Info("password reset email (log only)")
	return nil
}

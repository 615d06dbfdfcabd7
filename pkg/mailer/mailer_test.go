package mailer

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oncoursesbros-sketch/oncourse/pkg/config"
	"github.com/oncoursesbros-sketch/oncourse/pkg/observability"
)

func testLogger() *observability.Logger {
	return observability.NewLogger(observability.ErrorLevel, io.Discard)
}

func TestNewMailerValidation(t *testing.T) {
	_, err := NewMailer(config.SMTPConfig{}, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SMTP host is required")

	_, err = NewMailer(config.SMTPConfig{Host: "smtp.example.com"}, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SMTP from address is required")

	m, err := NewMailer(config.SMTPConfig{
		Host: "smtp.example.com",
		Port: 465,
		From: "noreply@oncourse.example.com",
	}, testLogger())
	require.NoError(t, err)
	assert.NotNil(t, m)
}

func TestSendRequiresRecipients(t *testing.T) {
	m, err := NewMailer(config.SMTPConfig{
		Host: "smtp.example.com",
		Port: 465,
		From: "noreply@oncourse.example.com",
	}, testLogger())
	require.NoError(t, err)

	err = m.Send(Email{Subject: "no recipients"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no recipients")
}

func TestLogOnlyMailer(t *testing.T) {
	m := NewLogOnlyMailer(testLogger())
	assert.NoError(t, m.SendPasswordReset("amira@example.com", "https://oncourse.example.com/reset-password/tok"))
}

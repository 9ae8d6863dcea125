package email

import (
	"errors"
	"net/smtp"
	"testing"

	"github.com/Dan9191/auth-service/internal/config"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSender(t *testing.T, cfg *config.Config) (*Sender, *test.Hook) {
	t.Helper()
	log, hook := test.NewNullLogger()
	return NewSender(cfg, log), hook
}

func TestSendWelcome(t *testing.T) {
	cfg := &config.Config{
		SMTPHost:     "smtp.example.com",
		SMTPPort:     "2525",
		SMTPUsername: "user",
		SMTPPassword: "pass",
		SenderEmail:  "noreply@example.com",
	}
	s, hook := newTestSender(t, cfg)

	var gotAddr string
	var got *email.Email
	var gotAuth smtp.Auth
	s.send = func(e *email.Email, addr string, auth smtp.Auth) error {
		got, gotAddr, gotAuth = e, addr, auth
		return nil
	}

	require.NoError(t, s.SendWelcome("a@x.com", "Alice"))

	assert.Equal(t, "smtp.example.com:2525", gotAddr)
	assert.NotNil(t, gotAuth)
	assert.Equal(t, "noreply@example.com", got.From)
	assert.Equal(t, []string{"a@x.com"}, got.To)
	assert.Equal(t, "Welcome!", got.Subject)
	assert.Contains(t, string(got.Text), "Dear Alice,")
	assert.Equal(t, "Email sent to a@x.com: Welcome!", hook.LastEntry().Message)
}

func TestSendWelcome_NoAuthWithoutUsername(t *testing.T) {
	s, _ := newTestSender(t, &config.Config{SMTPHost: "localhost", SMTPPort: "25", SenderEmail: "n@x.com"})

	var gotAuth smtp.Auth
	s.send = func(e *email.Email, addr string, auth smtp.Auth) error {
		gotAuth = auth
		assert.Contains(t, string(e.Text), "Dear b@x.com,")
		return nil
	}

	require.NoError(t, s.SendWelcome("b@x.com", ""))
	assert.Nil(t, gotAuth)
}

func TestSendWelcome_Error(t *testing.T) {
	s, hook := newTestSender(t, &config.Config{SMTPHost: "localhost", SMTPPort: "25", SenderEmail: "n@x.com"})
	s.send = func(*email.Email, string, smtp.Auth) error { return errors.New("connection refused") }

	err := s.SendWelcome("a@x.com", "A")
	require.Error(t, err)
	assert.ErrorContains(t, err, "connection refused")
	assert.Contains(t, hook.LastEntry().Message, "Failed to send email to a@x.com")
}

package email

import (
	"fmt"
	"net/smtp"

	"github.com/Dan9191/auth-service/internal/config"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

// sendFunc delivers a prepared message; replaced in tests
type sendFunc func(e *email.Email, addr string, auth smtp.Auth) error

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
	send   sendFunc
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
	}
}

// SendWelcome sends a welcome email to a newly registered user
func (s *Sender) SendWelcome(to, name string) error {
	e := s.buildWelcome(to, name)

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	var auth smtp.Auth
	if s.cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	}
	if err := s.send(e, addr, auth); err != nil {
		s.logger.Errorf("Failed to send email to %s: %v", to, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}

func (s *Sender) buildWelcome(to, name string) *email.Email {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = "Welcome!"

	if name == "" {
		name = to
	}
	body := fmt.Sprintf("Dear %s,\n\n", name)
	body += "Your account has been created. You can now sign in with this email address.\n"
	body += "If you did not register, please ignore this message.\n"
	body += "\nBest regards,\nAuth Service"
	e.Text = []byte(body)
	return e
}

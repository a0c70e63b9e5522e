package services

import (
	"fmt"
	"net/smtp"
	"time"

	"blog/internal/config"
	"blog/pkg/mailqueue"
)

// MailPublisher queues outbound mail for asynchronous delivery. Satisfied
// by *mailqueue.Client; a nil publisher means synchronous SMTP delivery.
type MailPublisher interface {
	PublishMailRequested(msg mailqueue.Message) error
}

// EmailService sends password-reset notifications. Delivery is best-effort:
// callers log failures but never surface them to the requesting user.
type EmailService struct {
	host     string
	port     string
	username string
	password string
	sender   string
	baseURL  string
	resetTTL time.Duration
	queue    MailPublisher
}

// NewEmailService creates a new EmailService. queue may be nil, in which
// case mail is delivered synchronously over SMTP.
func NewEmailService(cfg *config.Config, queue MailPublisher) *EmailService {
	return &EmailService{
		host:     cfg.MailHost,
		port:     cfg.MailPort,
		username: cfg.MailUsername,
		password: cfg.MailPassword,
		sender:   cfg.MailSender,
		baseURL:  cfg.BaseURL,
		resetTTL: cfg.ResetTokenTTL,
		queue:    queue,
	}
}

// SendPasswordResetEmail sends (or queues) the reset-link email for token.
func (s *EmailService) SendPasswordResetEmail(to, token string) error {
	resetLink := fmt.Sprintf("%s/reset_password/%s", s.baseURL, token)

	msg := mailqueue.Message{
		To:      to,
		Subject: "Password Reset Request",
		Body: fmt.Sprintf(
			"To reset your password, visit the following link:\r\n\r\n%s\r\n\r\n"+
				"This link expires in %s. If you did not make this request, simply ignore this email and no changes will be made.\r\n",
			resetLink, s.resetTTL),
	}

	if s.queue != nil {
		return s.queue.PublishMailRequested(msg)
	}
	return s.Deliver(msg)
}

// Deliver performs the actual SMTP send. It is also the handler wired to the
// mail-queue consumer.
func (s *EmailService) Deliver(msg mailqueue.Message) error {
	payload := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-version: 1.0\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n%s",
		s.sender, msg.To, msg.Subject, msg.Body))

	addr := s.host + ":" + s.port
	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}

	if err := smtp.SendMail(addr, auth, s.sender, []string{msg.To}, payload); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", msg.To, err)
	}
	return nil
}

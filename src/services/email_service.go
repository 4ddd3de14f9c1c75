package services

import (
	"context"
	"fmt"
	"time"

	"github.com/carebridge/carebridge-server/src/templates"
	"github.com/mailgun/mailgun-go/v4"
)

// ResetEmailSender dispatches password-reset email. The auth service takes
// this interface so unconfigured-mail environments can substitute a logger.
type ResetEmailSender interface {
	SendPasswordResetEmail(ctx context.Context, toEmail, resetURL string) error
}

// EmailService sends transactional email via Mailgun
type EmailService struct {
	mg     *mailgun.MailgunImpl
	from   string
	config *templates.EmailConfig
}

// NewEmailService creates an email service with Mailgun configuration.
// emailConfig may be nil, in which case the compiled-in defaults apply.
func NewEmailService(domain, apiKey, fromEmail, fromName string, emailConfig *templates.EmailConfig) *EmailService {
	mg := mailgun.NewMailgun(domain, apiKey)
	if emailConfig == nil {
		emailConfig = templates.DefaultEmailConfig()
	}
	return &EmailService{
		mg:     mg,
		from:   fmt.Sprintf("%s <%s>", fromName, fromEmail),
		config: emailConfig,
	}
}

// SendPasswordResetEmail sends the reset link. Failures propagate to the
// caller; they must not be silently swallowed.
func (s *EmailService) SendPasswordResetEmail(ctx context.Context, toEmail, resetURL string) error {
	body, err := templates.RenderPasswordResetEmail(templates.PasswordResetData{
		BrandName:     s.config.Branding.Name,
		ResetURL:      resetURL,
		Intro:         s.config.PasswordReset.Intro,
		ButtonText:    s.config.PasswordReset.ButtonText,
		ExpiryWarning: s.config.PasswordReset.ExpiryWarning,
		IgnoreText:    s.config.PasswordReset.IgnoreText,
	})
	if err != nil {
		return err
	}

	message := s.mg.NewMessage(s.from, s.config.Subjects.PasswordReset, "", toEmail)
	message.SetHtml(body)

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if _, _, err := s.mg.Send(ctx, message); err != nil {
		return fmt.Errorf("failed to send password reset email: %w", err)
	}
	return nil
}

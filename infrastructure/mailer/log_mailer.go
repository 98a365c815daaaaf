package mailer

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"socialhub/domain/repository"
	"socialhub/infrastructure/logger"
)

// LogMailer writes account emails to the log instead of delivering them.
type LogMailer struct {
	frontendURL string
}

func NewLogMailer(frontendURL string) *LogMailer {
	return &LogMailer{frontendURL: strings.TrimRight(frontendURL, "/")}
}

var _ repository.IMailer = (*LogMailer)(nil)

func (m *LogMailer) ResetLink(token string) string {
	return fmt.Sprintf("%s/reset-password?token=%s", m.frontendURL, url.QueryEscape(token))
}

func (m *LogMailer) SendPasswordReset(_ context.Context, email, token string) error {
	logger.GetLogger().
		WithField("to", email).
		WithField("link", m.ResetLink(token)).
		Debug("Password reset email")
	return nil
}

package email

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"

	"github.com/qripge/qrip-backend/internal/config"
)

// EmailClient wraps the resend API client.
type EmailClient struct {
	client      *resend.Client
	enabled     bool
	fromAddress string
	fromName    string
}

// NewEmailClient creates a new email client from configuration. When
// disabled or missing an API key, sends become logged no-ops.
func NewEmailClient(cfg config.EmailConfig) *EmailClient {
	var client *resend.Client
	enabled := cfg.Enabled && cfg.APIKey != ""
	if enabled {
		client = resend.NewClient(cfg.APIKey)
	}
	return &EmailClient{
		client:      client,
		enabled:     enabled,
		fromAddress: cfg.FromAddress,
		fromName:    cfg.FromName,
	}
}

// IsEnabled reports whether the client can actually deliver email.
func (c *EmailClient) IsEnabled() bool {
	return c.enabled
}

// GetFromAddress returns the configured sender, formatted with the
// display name when one is set.
func (c *EmailClient) GetFromAddress() string {
	if c.fromName != "" {
		return fmt.Sprintf("%s <%s>", c.fromName, c.fromAddress)
	}
	return c.fromAddress
}

// SendEmail sends a single email and returns the provider message id.
func (c *EmailClient) SendEmail(ctx context.Context, from, to, subject, html, text string) (string, error) {
	params := &resend.SendEmailRequest{
		From:    from,
		To:      []string{to},
		Subject: subject,
		Html:    html,
		Text:    text,
	}
	sent, err := c.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return "", err
	}
	return sent.Id, nil
}

package email

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qripge/qrip-backend/internal/config"
	"github.com/qripge/qrip-backend/internal/logger"
)

func newDisabledService() *Service {
	client := NewEmailClient(config.EmailConfig{Enabled: false})
	return NewService(client, logger.GetLogger())
}

func TestPaymentFailureTemplateRendersRetryNotice(t *testing.T) {
	svc := newDisabledService()

	next := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	html, err := svc.renderTemplate("payment-failure.html", map[string]interface{}{
		"PlanName":      "Premium",
		"Price":         formatGEL(decimal.NewFromInt(10).InexactFloat64()),
		"Attempt":       1,
		"MaxAttempts":   3,
		"IsFinal":       false,
		"NextRetryDate": formatDate(next),
	})
	require.NoError(t, err)
	assert.Contains(t, html, "Premium")
	assert.Contains(t, html, "10.00 ₾")
	assert.Contains(t, html, "attempt 1 of 3")
	assert.Contains(t, html, "try again")
}

func TestPaymentFailureTemplateRendersFinalNotice(t *testing.T) {
	svc := newDisabledService()

	html, err := svc.renderTemplate("payment-failure.html", map[string]interface{}{
		"PlanName":    "Premium",
		"Price":       formatGEL(decimal.NewFromInt(10).InexactFloat64()),
		"Attempt":     3,
		"MaxAttempts": 3,
		"IsFinal":     true,
	})
	require.NoError(t, err)
	assert.Contains(t, html, "has now expired")
	assert.NotContains(t, html, "try again")
}

func TestExpiryReminderTemplate(t *testing.T) {
	svc := newDisabledService()

	html, err := svc.renderTemplate("memorial-expiry-reminder.html", map[string]interface{}{
		"MemorialName":  "Giorgi Beridze",
		"DaysRemaining": 3,
		"ExpiryDate":    formatDate(time.Now()),
	})
	require.NoError(t, err)
	assert.Contains(t, html, "Giorgi Beridze")
	assert.Contains(t, html, "3 day(s)")
}

func TestUnknownTemplateFails(t *testing.T) {
	svc := newDisabledService()
	_, err := svc.renderTemplate("nope.html", nil)
	assert.Error(t, err)
}

func TestSendSkipsWhenDisabled(t *testing.T) {
	svc := newDisabledService()

	sent := svc.SendPaymentFailureEmail(context.Background(), PaymentFailureEmail{
		To:          "user@example.com",
		PlanName:    "Premium",
		Price:       decimal.NewFromInt(10),
		Attempt:     1,
		MaxAttempts: 3,
	})
	assert.False(t, sent)
}

func TestInvalidRecipientIsDropped(t *testing.T) {
	svc := newDisabledService()

	sent := svc.SendMemorialExpiryReminder(context.Background(), ExpiryReminderEmail{
		To:           "not-an-email",
		MemorialName: "Test",
		ExpiresAt:    time.Now(),
	})
	assert.False(t, sent)
}

func TestNormalizeRecipient(t *testing.T) {
	svc := newDisabledService()

	got, ok := svc.normalizeRecipient("  User@Example.COM ")
	assert.True(t, ok)
	assert.Equal(t, "user@example.com", got)

	_, ok = svc.normalizeRecipient("")
	assert.False(t, ok)
}

package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/mail"
	"strings"
	"time"

	"github.com/qripge/qrip-backend/internal/logger"
)

// emailTemplates stores email templates as string constants
var emailTemplates = map[string]string{
	"payment-failure.html": `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Payment issue with your subscription</title>
</head>
<body style="font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; line-height: 1.6; color: #333; background-color: #f5f5f5; margin: 0; padding: 0;">
    <div style="max-width: 600px; margin: 20px auto; padding: 20px; background-color: #ffffff; border-radius: 8px;">
        <p>Hello,</p>
        {{if .IsFinal}}
        <p>We were unable to charge <strong>{{.Price}}</strong> for your <strong>{{.PlanName}}</strong> subscription after {{.MaxAttempts}} attempts, and the subscription has now expired.</p>
        <p>To restore access, please start a new subscription from your dashboard with an up-to-date payment method.</p>
        {{else}}
        <p>We could not charge <strong>{{.Price}}</strong> for your <strong>{{.PlanName}}</strong> subscription (attempt {{.Attempt}} of {{.MaxAttempts}}).</p>
        <p>We will automatically try again on <strong>{{.NextRetryDate}}</strong>. Please make sure your card has sufficient funds before then.</p>
        {{end}}
        <p style="font-size: 12px; color: #777; padding-top: 20px;">Qrip.ge — digital memorials that last.</p>
    </div>
</body>
</html>`,
	"memorial-expiry-reminder.html": `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Memorial access expiring soon</title>
</head>
<body style="font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 20px auto; padding: 20px; background-color: #ffffff; border-radius: 8px;">
        <p>Hello,</p>
        <p>The memorial page for <strong>{{.MemorialName}}</strong> will stop being publicly visible in <strong>{{.DaysRemaining}} day(s)</strong>, on {{.ExpiryDate}}.</p>
        <p>Renew its access from your dashboard to keep the page online.</p>
        <p style="font-size: 12px; color: #777; padding-top: 20px;">Qrip.ge — digital memorials that last.</p>
    </div>
</body>
</html>`,
}

// Service renders and sends billing notification emails. Delivery is
// fire and forget: every failure path logs and returns false, nothing
// escalates to the caller.
type Service struct {
	client *EmailClient
	logger *logger.Logger
}

// NewService creates a new email service
func NewService(client *EmailClient, log *logger.Logger) *Service {
	return &Service{
		client: client,
		logger: log,
	}
}

var _ Sender = (*Service)(nil)

// SendPaymentFailureEmail notifies a user that a subscription charge
// failed, including when the next retry will happen or that the
// subscription has expired.
func (s *Service) SendPaymentFailureEmail(ctx context.Context, req PaymentFailureEmail) bool {
	to, ok := s.normalizeRecipient(req.To)
	if !ok {
		return false
	}

	isFinal := req.NextRetryAt == nil
	subject := fmt.Sprintf("Payment Issue with Your %s Subscription", req.PlanName)
	if isFinal || req.Attempt >= req.MaxAttempts-1 {
		subject = fmt.Sprintf("Action Required: Payment Failed for %s", req.PlanName)
	}

	data := map[string]interface{}{
		"PlanName":    req.PlanName,
		"Price":       formatGEL(req.Price.InexactFloat64()),
		"Attempt":     req.Attempt,
		"MaxAttempts": req.MaxAttempts,
		"IsFinal":     isFinal,
	}
	if req.NextRetryAt != nil {
		data["NextRetryDate"] = formatDate(*req.NextRetryAt)
	}

	return s.sendTemplate(ctx, to, subject, "payment-failure.html", data)
}

// SendMemorialExpiryReminder notifies a memorial owner that paid
// access is about to elapse.
func (s *Service) SendMemorialExpiryReminder(ctx context.Context, req ExpiryReminderEmail) bool {
	to, ok := s.normalizeRecipient(req.To)
	if !ok {
		return false
	}

	subject := fmt.Sprintf("Memorial for %s expires in %d day(s)", req.MemorialName, req.DaysRemaining)
	data := map[string]interface{}{
		"MemorialName":  req.MemorialName,
		"DaysRemaining": req.DaysRemaining,
		"ExpiryDate":    formatDate(req.ExpiresAt),
	}

	return s.sendTemplate(ctx, to, subject, "memorial-expiry-reminder.html", data)
}

func (s *Service) sendTemplate(ctx context.Context, to, subject, templatePath string, data map[string]interface{}) bool {
	if !s.client.IsEnabled() {
		s.logger.Warnw("email client is disabled, skipping email send",
			"to", to,
			"subject", subject,
			"template", templatePath,
		)
		return false
	}

	htmlContent, err := s.renderTemplate(templatePath, data)
	if err != nil {
		s.logger.Errorw("failed to render email template",
			"error", err,
			"template", templatePath,
		)
		return false
	}

	messageID, err := s.client.SendEmail(ctx, s.client.GetFromAddress(), to, subject, htmlContent, "")
	if err != nil {
		s.logger.Errorw("failed to send email",
			"error", err,
			"to", to,
			"subject", subject,
			"template", templatePath,
		)
		return false
	}

	s.logger.Infow("email sent successfully",
		"message_id", messageID,
		"to", to,
		"subject", subject,
		"template", templatePath,
	)
	return true
}

func (s *Service) normalizeRecipient(addr string) (string, bool) {
	normalized := strings.ToLower(strings.TrimSpace(addr))
	if _, err := mail.ParseAddress(normalized); err != nil {
		s.logger.Errorw("invalid recipient email, dropping notification", "email", addr)
		return "", false
	}
	return normalized, true
}

// renderTemplate renders an HTML template using html/template for safe
// HTML rendering.
func (s *Service) renderTemplate(templatePath string, data map[string]interface{}) (string, error) {
	templateContent, exists := emailTemplates[templatePath]
	if !exists {
		return "", fmt.Errorf("template not found: %s", templatePath)
	}

	tmpl, err := template.New("email").Parse(templateContent)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

func formatGEL(amount float64) string {
	return fmt.Sprintf("%.2f ₾", amount)
}

// formatDate formats dates in Georgian local time for user-facing copy.
func formatDate(t time.Time) string {
	loc, err := time.LoadLocation("Asia/Tbilisi")
	if err != nil {
		loc = time.UTC
	}
	return t.In(loc).Format("Monday, January 2, 2006 15:04 MST")
}

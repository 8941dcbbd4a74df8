package testutil

import (
	"context"
	"sync"

	"github.com/qripge/qrip-backend/internal/email"
)

// FakeEmailSender implements email.Sender and records every
// notification instead of delivering it.
type FakeEmailSender struct {
	mu sync.Mutex

	PaymentFailures []email.PaymentFailureEmail
	ExpiryReminders []email.ExpiryReminderEmail
}

func NewFakeEmailSender() *FakeEmailSender {
	return &FakeEmailSender{}
}

func (f *FakeEmailSender) SendPaymentFailureEmail(_ context.Context, req email.PaymentFailureEmail) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.PaymentFailures = append(f.PaymentFailures, req)
	return true
}

func (f *FakeEmailSender) SendMemorialExpiryReminder(_ context.Context, req email.ExpiryReminderEmail) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ExpiryReminders = append(f.ExpiryReminders, req)
	return true
}

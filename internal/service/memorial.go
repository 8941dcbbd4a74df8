package service

import (
	"context"
	"math"
	"time"

	"github.com/qripge/qrip-backend/internal/api/dto"
	"github.com/qripge/qrip-backend/internal/domain/memorial"
	"github.com/qripge/qrip-backend/internal/email"
	ierr "github.com/qripge/qrip-backend/internal/errors"
	"github.com/qripge/qrip-backend/internal/types"
)

// MemorialService reconciles memorial page access against the purchase
// that paid for it: expired windows take the page offline, and owners
// of soon-to-expire pages get a reminder.
type MemorialService interface {
	// ExpireMemorials sweeps every active paid memorial and downgrades
	// those whose purchased access window has elapsed.
	ExpireMemorials(ctx context.Context) (*dto.MemorialExpiryRunResponse, error)

	// FindExpiringMemorials lists memorials whose access window ends
	// within the reminder lookahead, sending owner reminders on the way.
	FindExpiringMemorials(ctx context.Context) (*dto.ExpiringMemorialsResponse, error)

	// ListExpiringMemorials is the read-only variant of
	// FindExpiringMemorials: same window, no reminder emails.
	ListExpiringMemorials(ctx context.Context) (*dto.ExpiringMemorialsResponse, error)
}

type memorialService struct {
	ServiceParams
}

// NewMemorialService creates a new memorial service
func NewMemorialService(params ServiceParams) MemorialService {
	return &memorialService{
		ServiceParams: params,
	}
}

func (s *memorialService) ExpireMemorials(ctx context.Context) (*dto.MemorialExpiryRunResponse, error) {
	now := time.Now().UTC()

	memorials, err := s.MemorialRepo.ListActiveWithPurchase(ctx)
	if err != nil {
		return nil, err
	}

	result := &dto.MemorialExpiryRunResponse{Checked: len(memorials)}
	for _, m := range memorials {
		expiresAt, ok := s.accessExpiry(ctx, m)
		if !ok {
			continue
		}
		if expiresAt.After(now) {
			continue
		}

		if err := s.MemorialRepo.UpdateAccess(ctx, m.ID, types.MemorialStatusExpired, types.MemorialPaymentStatusDraft); err != nil {
			s.Logger.Errorw("failed to expire memorial",
				"memorial_id", m.ID,
				"error", err)
			continue
		}
		result.Expired++

		s.Logger.Infow("memorial access expired",
			"memorial_id", m.ID,
			"purchase_id", m.PurchaseID,
			"expired_at", expiresAt)
	}

	return result, nil
}

func (s *memorialService) FindExpiringMemorials(ctx context.Context) (*dto.ExpiringMemorialsResponse, error) {
	return s.collectExpiring(ctx, true)
}

func (s *memorialService) ListExpiringMemorials(ctx context.Context) (*dto.ExpiringMemorialsResponse, error) {
	return s.collectExpiring(ctx, false)
}

func (s *memorialService) collectExpiring(ctx context.Context, sendReminders bool) (*dto.ExpiringMemorialsResponse, error) {
	now := time.Now().UTC()
	lookahead := time.Duration(s.Config.Memorial.ReminderLookaheadDays) * 24 * time.Hour
	horizon := now.Add(lookahead)

	memorials, err := s.MemorialRepo.ListActiveWithPurchase(ctx)
	if err != nil {
		return nil, err
	}

	resp := &dto.ExpiringMemorialsResponse{}
	for _, m := range memorials {
		expiresAt, ok := s.accessExpiry(ctx, m)
		if !ok {
			continue
		}
		if expiresAt.Before(now) || expiresAt.After(horizon) {
			continue
		}

		// Round up: a window ending in 2.5 days reads "3 days left".
		daysRemaining := int(math.Ceil(expiresAt.Sub(now).Hours() / 24))
		resp.Memorials = append(resp.Memorials, dto.ExpiringMemorialResponse{
			MemorialID:    m.ID,
			MemorialName:  m.FirstName + " " + m.LastName,
			OwnerID:       m.CreatedBy,
			ExpiresAt:     expiresAt,
			DaysRemaining: daysRemaining,
		})

		if sendReminders {
			s.sendExpiryReminder(ctx, m, expiresAt, daysRemaining)
		}
	}
	resp.Count = len(resp.Memorials)

	return resp, nil
}

// accessExpiry resolves when the memorial's paid window ends. Admin
// grants, lifetime purchases and unpaid purchases never expire here.
func (s *memorialService) accessExpiry(ctx context.Context, m *memorial.Memorial) (time.Time, bool) {
	p, err := s.PurchaseRepo.Get(ctx, m.PurchaseID)
	if err != nil {
		if !ierr.IsNotFound(err) {
			s.Logger.Errorw("failed to load memorial purchase",
				"memorial_id", m.ID,
				"purchase_id", m.PurchaseID,
				"error", err)
		}
		return time.Time{}, false
	}
	if !p.PurchaseStatus.IsPaid() {
		return time.Time{}, false
	}
	return p.ExpiresAt()
}

func (s *memorialService) sendExpiryReminder(ctx context.Context, m *memorial.Memorial, expiresAt time.Time, daysRemaining int) {
	if s.EmailSender == nil {
		return
	}

	owner, err := s.UserRepo.Get(ctx, m.CreatedBy)
	if err != nil {
		s.Logger.Warnw("skipping expiry reminder, owner lookup failed",
			"memorial_id", m.ID,
			"user_id", m.CreatedBy,
			"error", err)
		return
	}

	s.EmailSender.SendMemorialExpiryReminder(ctx, email.ExpiryReminderEmail{
		To:            owner.NormalizedEmail(),
		MemorialName:  m.FirstName + " " + m.LastName,
		ExpiresAt:     expiresAt,
		DaysRemaining: daysRemaining,
	})
}

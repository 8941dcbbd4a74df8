package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/qripge/qrip-backend/internal/domain/memorial"
	"github.com/qripge/qrip-backend/internal/domain/purchase"
	"github.com/qripge/qrip-backend/internal/domain/user"
	"github.com/qripge/qrip-backend/internal/testutil"
	"github.com/qripge/qrip-backend/internal/types"
)

type MemorialServiceSuite struct {
	testutil.BaseServiceTestSuite
	service MemorialService
	params  ServiceParams
}

func TestMemorialService(t *testing.T) {
	suite.Run(t, new(MemorialServiceSuite))
}

func (s *MemorialServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.params = ServiceParams{
		Logger:         s.GetLogger(),
		Config:         s.GetConfig(),
		SubRepo:        s.GetStores().SubscriptionRepo,
		PlanRepo:       s.GetStores().PlanRepo,
		MemorialRepo:   s.GetStores().MemorialRepo,
		PurchaseRepo:   s.GetStores().PurchaseRepo,
		UserRepo:       s.GetStores().UserRepo,
		PaymentGateway: s.GetGateway(),
		EmailSender:    s.GetEmailSender(),
	}
	s.service = NewMemorialService(s.params)

	s.NoError(s.GetStores().UserRepo.Add(s.GetContext(), &user.User{
		ID:    testUserID,
		Email: "owner@example.com",
	}))
}

// seedMemorial creates an active memorial backed by a paid purchase
// whose access window started paidAgo in the past.
func (s *MemorialServiceSuite) seedMemorial(duration types.Duration, paidAgo time.Duration, mutate func(*purchase.MemorialPurchase)) *memorial.Memorial {
	paymentDate := time.Now().UTC().Add(-paidAgo)
	p := &purchase.MemorialPurchase{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PURCHASE),
		UserID:         testUserID,
		MemorialID:     types.GenerateUUIDWithPrefix(types.UUID_PREFIX_MEMORIAL),
		PlanID:         testPlanID,
		Duration:       duration,
		GatewayOrderID: types.GenerateUUID(),
		Amount:         decimal.NewFromInt(25),
		PurchaseStatus: types.PurchaseStatusCompleted,
		PaymentDate:    &paymentDate,
		BaseModel:      types.GetDefaultBaseModel(s.GetContext()),
	}
	if mutate != nil {
		mutate(p)
	}
	s.NoError(s.GetStores().PurchaseRepo.Create(s.GetContext(), p))

	m := &memorial.Memorial{
		ID:             p.MemorialID,
		CreatedBy:      testUserID,
		FirstName:      "Giorgi",
		LastName:       "Beridze",
		MemorialStatus: types.MemorialStatusActive,
		PaymentStatus:  types.MemorialPaymentStatusActive,
		PurchaseID:     p.ID,
		BaseModel:      types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().MemorialRepo.Create(s.GetContext(), m))
	return m
}

func (s *MemorialServiceSuite) TestExpireMemorialsDowngradesElapsedWindows() {
	elapsed := s.seedMemorial(types.Duration1Month, 31*24*time.Hour, nil)
	running := s.seedMemorial(types.Duration1Month, 29*24*time.Hour, nil)

	result, err := s.service.ExpireMemorials(s.GetContext())
	s.NoError(err)
	s.Equal(2, result.Checked)
	s.Equal(1, result.Expired)

	gone, err := s.GetStores().MemorialRepo.Get(s.GetContext(), elapsed.ID)
	s.NoError(err)
	s.Equal(types.MemorialStatusExpired, gone.MemorialStatus)
	s.Equal(types.MemorialPaymentStatusDraft, gone.PaymentStatus)

	alive, err := s.GetStores().MemorialRepo.Get(s.GetContext(), running.ID)
	s.NoError(err)
	s.Equal(types.MemorialStatusActive, alive.MemorialStatus)
}

func (s *MemorialServiceSuite) TestLifetimePurchaseNeverExpires() {
	m := s.seedMemorial(types.DurationLifetime, 10*365*24*time.Hour, nil)

	result, err := s.service.ExpireMemorials(s.GetContext())
	s.NoError(err)
	s.Equal(0, result.Expired)

	kept, err := s.GetStores().MemorialRepo.Get(s.GetContext(), m.ID)
	s.NoError(err)
	s.Equal(types.MemorialStatusActive, kept.MemorialStatus)
}

func (s *MemorialServiceSuite) TestAdminGrantNeverExpires() {
	m := s.seedMemorial(types.Duration1Month, 90*24*time.Hour, func(p *purchase.MemorialPurchase) {
		p.IsAdminDiscount = true
		p.DiscountType = purchase.DiscountTypeFree
	})

	result, err := s.service.ExpireMemorials(s.GetContext())
	s.NoError(err)
	s.Equal(0, result.Expired)

	kept, err := s.GetStores().MemorialRepo.Get(s.GetContext(), m.ID)
	s.NoError(err)
	s.Equal(types.MemorialStatusActive, kept.MemorialStatus)
}

func (s *MemorialServiceSuite) TestUnpaidPurchaseIsIgnored() {
	s.seedMemorial(types.Duration1Month, 40*24*time.Hour, func(p *purchase.MemorialPurchase) {
		p.PurchaseStatus = types.PurchaseStatusPending
	})

	result, err := s.service.ExpireMemorials(s.GetContext())
	s.NoError(err)
	s.Equal(0, result.Expired)
}

func (s *MemorialServiceSuite) TestFindExpiringMemorialsWithinLookahead() {
	// Expires in ~3 days, inside the 7-day reminder window.
	soon := s.seedMemorial(types.Duration1Month, 27*24*time.Hour, nil)
	// Expires in ~20 days, outside the window.
	s.seedMemorial(types.Duration1Month, 10*24*time.Hour, nil)

	resp, err := s.service.FindExpiringMemorials(s.GetContext())
	s.NoError(err)
	s.Equal(1, resp.Count)
	s.Equal(soon.ID, resp.Memorials[0].MemorialID)
	s.Equal("Giorgi Beridze", resp.Memorials[0].MemorialName)
	s.Equal(3, resp.Memorials[0].DaysRemaining)

	s.Len(s.GetEmailSender().ExpiryReminders, 1)
	s.Equal("owner@example.com", s.GetEmailSender().ExpiryReminders[0].To)
	s.Equal(3, s.GetEmailSender().ExpiryReminders[0].DaysRemaining)
}

func (s *MemorialServiceSuite) TestListExpiringSendsNoReminders() {
	soon := s.seedMemorial(types.Duration1Month, 27*24*time.Hour, nil)

	resp, err := s.service.ListExpiringMemorials(s.GetContext())
	s.NoError(err)
	s.Equal(1, resp.Count)
	s.Equal(soon.ID, resp.Memorials[0].MemorialID)
	s.Empty(s.GetEmailSender().ExpiryReminders)
}

func (s *MemorialServiceSuite) TestFindExpiringSkipsAlreadyElapsed() {
	s.seedMemorial(types.Duration1Month, 31*24*time.Hour, nil)

	resp, err := s.service.FindExpiringMemorials(s.GetContext())
	s.NoError(err)
	s.Equal(0, resp.Count)
	s.Empty(s.GetEmailSender().ExpiryReminders)
}

package testutil

import (
	"context"

	"github.com/stretchr/testify/suite"

	"github.com/qripge/qrip-backend/internal/config"
	"github.com/qripge/qrip-backend/internal/logger"
	"github.com/qripge/qrip-backend/internal/types"
)

// Stores bundles the in-memory repositories a service test runs on.
type Stores struct {
	SubscriptionRepo *InMemorySubscriptionStore
	PlanRepo         *InMemoryPlanStore
	MemorialRepo     *InMemoryMemorialStore
	PurchaseRepo     *InMemoryPurchaseStore
	UserRepo         *InMemoryUserStore
}

// BaseServiceTestSuite provides the shared fixture for service tests:
// fresh in-memory stores, a fake gateway and a fake email sender per
// test.
type BaseServiceTestSuite struct {
	suite.Suite

	ctx    context.Context
	cfg    *config.Configuration
	log    *logger.Logger
	stores Stores

	gateway *FakePaymentGateway
	emails  *FakeEmailSender
}

func (s *BaseServiceTestSuite) SetupTest() {
	s.ctx = types.SetUserID(context.Background(), "user_test")
	s.cfg = config.GetDefaultConfig()
	s.log = logger.GetLogger()

	s.stores = Stores{
		SubscriptionRepo: NewInMemorySubscriptionStore(),
		PlanRepo:         NewInMemoryPlanStore(),
		MemorialRepo:     NewInMemoryMemorialStore(),
		PurchaseRepo:     NewInMemoryPurchaseStore(),
		UserRepo:         NewInMemoryUserStore(),
	}
	s.gateway = NewFakePaymentGateway()
	s.emails = NewFakeEmailSender()
}

func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.cfg
}

func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.log
}

func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

func (s *BaseServiceTestSuite) GetGateway() *FakePaymentGateway {
	return s.gateway
}

func (s *BaseServiceTestSuite) GetEmailSender() *FakeEmailSender {
	return s.emails
}

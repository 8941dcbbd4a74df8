package service

import (
	"github.com/qripge/qrip-backend/internal/config"
	"github.com/qripge/qrip-backend/internal/domain/memorial"
	"github.com/qripge/qrip-backend/internal/domain/plan"
	"github.com/qripge/qrip-backend/internal/domain/purchase"
	"github.com/qripge/qrip-backend/internal/domain/subscription"
	"github.com/qripge/qrip-backend/internal/domain/user"
	"github.com/qripge/qrip-backend/internal/email"
	"github.com/qripge/qrip-backend/internal/integration/bog"
	"github.com/qripge/qrip-backend/internal/logger"
)

// ServiceParams bundles the dependencies every service embeds. Wired
// once at startup, shared across all services.
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration

	SubRepo      subscription.Repository
	PlanRepo     plan.Repository
	MemorialRepo memorial.Repository
	PurchaseRepo purchase.Repository
	UserRepo     user.Repository

	PaymentGateway bog.Client
	EmailSender    email.Sender
}

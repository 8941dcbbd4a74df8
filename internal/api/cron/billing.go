package cron

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/qripge/qrip-backend/internal/logger"
	"github.com/qripge/qrip-backend/internal/service"
)

// BillingCronHandler handles billing related cron jobs
type BillingCronHandler struct {
	billingService      service.BillingService
	subscriptionService service.SubscriptionService
	logger              *logger.Logger
}

// NewBillingCronHandler creates a new billing cron handler
func NewBillingCronHandler(
	billingService service.BillingService,
	subscriptionService service.SubscriptionService,
	log *logger.Logger,
) *BillingCronHandler {
	return &BillingCronHandler{
		billingService:      billingService,
		subscriptionService: subscriptionService,
		logger:              log,
	}
}

// ProcessDueSubscriptions runs one billing pass over due and
// retry-eligible subscriptions
func (h *BillingCronHandler) ProcessDueSubscriptions(c *gin.Context) {
	h.logger.Infow("starting billing cron job", "time", time.Now().UTC().Format(time.RFC3339))

	result, err := h.billingService.ProcessDueSubscriptions(c.Request.Context())
	if err != nil {
		h.logger.Errorw("billing cron job failed", "error", err)
		c.Error(err)
		return
	}

	h.logger.Infow("completed billing cron job")
	c.JSON(http.StatusOK, result)
}

// ExpireEndedCanceled retires canceled subscriptions whose paid period
// has elapsed
func (h *BillingCronHandler) ExpireEndedCanceled(c *gin.Context) {
	h.logger.Infow("starting subscription lifecycle cron job", "time", time.Now().UTC().Format(time.RFC3339))

	result, err := h.subscriptionService.ExpireEndedCanceled(c.Request.Context())
	if err != nil {
		h.logger.Errorw("subscription lifecycle cron job failed", "error", err)
		c.Error(err)
		return
	}

	h.logger.Infow("completed subscription lifecycle cron job")
	c.JSON(http.StatusOK, result)
}

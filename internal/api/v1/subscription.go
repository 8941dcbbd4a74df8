package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qripge/qrip-backend/internal/api/dto"
	ierr "github.com/qripge/qrip-backend/internal/errors"
	"github.com/qripge/qrip-backend/internal/service"
)

// SubscriptionHandler handles subscription HTTP requests
type SubscriptionHandler struct {
	subscriptionService service.SubscriptionService
	billingService      service.BillingService
}

// NewSubscriptionHandler creates a new subscription handler
func NewSubscriptionHandler(
	subscriptionService service.SubscriptionService,
	billingService service.BillingService,
) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptionService: subscriptionService,
		billingService:      billingService,
	}
}

// GetSubscription retrieves a subscription by id
func (h *SubscriptionHandler) GetSubscription(c *gin.Context) {
	id := c.Param("id")

	sub, err := h.subscriptionService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

// CancelSubscription cancels an active subscription
func (h *SubscriptionHandler) CancelSubscription(c *gin.Context) {
	var req dto.CancelSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(err))
		return
	}
	req.SubscriptionID = c.Param("id")

	sub, err := h.subscriptionService.Cancel(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

// ResumeSubscription resumes a canceled subscription
func (h *SubscriptionHandler) ResumeSubscription(c *gin.Context) {
	var req dto.ResumeSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(err))
		return
	}
	req.SubscriptionID = c.Param("id")

	sub, err := h.subscriptionService.Resume(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

// RetryPayment triggers an immediate charge retry on a failed
// subscription
func (h *SubscriptionHandler) RetryPayment(c *gin.Context) {
	req := dto.RetryPaymentRequest{SubscriptionID: c.Param("id")}

	sub, err := h.billingService.RetryPayment(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

// respondError maps an internal error to the matching HTTP status.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case ierr.IsValidation(err):
		status = http.StatusBadRequest
	case ierr.IsNotFound(err):
		status = http.StatusNotFound
	case ierr.IsAlreadyExists(err), ierr.IsInvalidOperation(err):
		status = http.StatusConflict
	case ierr.IsPermissionDenied(err):
		status = http.StatusForbidden
	case ierr.IsHTTPClient(err):
		status = http.StatusBadGateway
	}
	c.JSON(status, dto.NewErrorResponse(err))
}

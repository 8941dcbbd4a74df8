package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qripge/qrip-backend/internal/api/dto"
	"github.com/qripge/qrip-backend/internal/logger"
	"github.com/qripge/qrip-backend/internal/service"
)

// PaymentHandler handles payment HTTP requests
type PaymentHandler struct {
	paymentService service.PaymentService
	logger         *logger.Logger
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService service.PaymentService, log *logger.Logger) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		logger:         log,
	}
}

// InitiateSubscriptionPayment starts the hosted-checkout flow for a
// paid plan
func (h *PaymentHandler) InitiateSubscriptionPayment(c *gin.Context) {
	var req dto.InitiateSubscriptionPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(err))
		return
	}

	resp, err := h.paymentService.InitiateSubscriptionPayment(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// HandleCallback absorbs the gateway payment webhook. The gateway
// retries non-2xx responses, so processing errors on known orders are
// the only ones worth failing on.
func (h *PaymentHandler) HandleCallback(c *gin.Context) {
	var req dto.PaymentCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorw("failed to parse payment callback", "error", err)
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(err))
		return
	}

	if err := h.paymentService.HandleCallback(c.Request.Context(), &req); err != nil {
		h.logger.Errorw("failed to process payment callback",
			"order_id", req.Body.OrderID,
			"error", err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// CheckPaymentStatus reports an order's settlement status
func (h *PaymentHandler) CheckPaymentStatus(c *gin.Context) {
	orderID := c.Param("order_id")

	resp, err := h.paymentService.CheckPaymentStatus(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

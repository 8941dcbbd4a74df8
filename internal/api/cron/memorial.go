package cron

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/qripge/qrip-backend/internal/logger"
	"github.com/qripge/qrip-backend/internal/service"
)

// MemorialCronHandler handles memorial access reconciliation cron jobs
type MemorialCronHandler struct {
	memorialService service.MemorialService
	logger          *logger.Logger
}

// NewMemorialCronHandler creates a new memorial cron handler
func NewMemorialCronHandler(memorialService service.MemorialService, log *logger.Logger) *MemorialCronHandler {
	return &MemorialCronHandler{
		memorialService: memorialService,
		logger:          log,
	}
}

// ExpireMemorials downgrades memorials whose paid access window has
// elapsed
func (h *MemorialCronHandler) ExpireMemorials(c *gin.Context) {
	h.logger.Infow("starting memorial expiry cron job", "time", time.Now().UTC().Format(time.RFC3339))

	result, err := h.memorialService.ExpireMemorials(c.Request.Context())
	if err != nil {
		h.logger.Errorw("memorial expiry cron job failed", "error", err)
		c.Error(err)
		return
	}

	h.logger.Infow("completed memorial expiry cron job")
	c.JSON(http.StatusOK, result)
}

// FindExpiringMemorials lists memorials nearing expiry and sends
// reminder emails
func (h *MemorialCronHandler) FindExpiringMemorials(c *gin.Context) {
	h.logger.Infow("starting memorial reminder cron job", "time", time.Now().UTC().Format(time.RFC3339))

	result, err := h.memorialService.FindExpiringMemorials(c.Request.Context())
	if err != nil {
		h.logger.Errorw("memorial reminder cron job failed", "error", err)
		c.Error(err)
		return
	}

	h.logger.Infow("completed memorial reminder cron job")
	c.JSON(http.StatusOK, result)
}

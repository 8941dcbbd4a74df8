package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qripge/qrip-backend/internal/service"
)

// MemorialHandler handles memorial HTTP requests
type MemorialHandler struct {
	memorialService service.MemorialService
}

// NewMemorialHandler creates a new memorial handler
func NewMemorialHandler(memorialService service.MemorialService) *MemorialHandler {
	return &MemorialHandler{
		memorialService: memorialService,
	}
}

// ListExpiringMemorials lists memorials whose paid access window ends
// within the reminder lookahead. Read-only: no reminder emails are sent.
func (h *MemorialHandler) ListExpiringMemorials(c *gin.Context) {
	resp, err := h.memorialService.ListExpiringMemorials(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

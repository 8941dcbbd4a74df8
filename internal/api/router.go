package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/qripge/qrip-backend/internal/api/cron"
	"github.com/qripge/qrip-backend/internal/api/dto"
	v1 "github.com/qripge/qrip-backend/internal/api/v1"
	"github.com/qripge/qrip-backend/internal/config"
	ierr "github.com/qripge/qrip-backend/internal/errors"
	"github.com/qripge/qrip-backend/internal/logger"
	"github.com/qripge/qrip-backend/internal/types"
)

// Handlers bundles every HTTP handler the router mounts.
type Handlers struct {
	Subscription *v1.SubscriptionHandler
	Payment      *v1.PaymentHandler
	Memorial     *v1.MemorialHandler
	BillingCron  *cron.BillingCronHandler
	MemorialCron *cron.MemorialCronHandler
}

// NewRouter builds the gin engine with all routes mounted. Cron
// endpoints are hit by an external scheduler rather than an in-process
// timer, so a run can be triggered and observed like any other request.
func NewRouter(handlers Handlers, cfg *config.Configuration, log *logger.Logger) *gin.Engine {
	if cfg.Deployment.Mode == types.ModeServer {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestContext())
	router.Use(requestLogger(log))
	router.Use(errorHandler())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api")
	{
		payments := apiGroup.Group("/payments")
		{
			payments.POST("/initiate", handlers.Payment.InitiateSubscriptionPayment)
			payments.POST("/callback", handlers.Payment.HandleCallback)
			payments.GET("/:order_id/status", handlers.Payment.CheckPaymentStatus)
		}

		subscriptions := apiGroup.Group("/subscriptions")
		{
			subscriptions.GET("/:id", handlers.Subscription.GetSubscription)
			subscriptions.POST("/:id/cancel", handlers.Subscription.CancelSubscription)
			subscriptions.POST("/:id/resume", handlers.Subscription.ResumeSubscription)
			subscriptions.POST("/:id/retry-payment", handlers.Subscription.RetryPayment)
		}

		memorials := apiGroup.Group("/memorials")
		{
			memorials.GET("/expiring", handlers.Memorial.ListExpiringMemorials)
		}
	}

	cronGroup := router.Group("/cron")
	{
		cronGroup.POST("/subscriptions/charges", handlers.BillingCron.ProcessDueSubscriptions)
		cronGroup.POST("/subscriptions/expire", handlers.BillingCron.ExpireEndedCanceled)
		cronGroup.POST("/memorials/expire", handlers.MemorialCron.ExpireMemorials)
		cronGroup.POST("/memorials/reminders", handlers.MemorialCron.FindExpiringMemorials)
	}

	return router
}

// requestContext stamps every request with a request id for log
// correlation.
func requestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := types.SetRequestID(c.Request.Context(), types.GenerateUUID())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// errorHandler turns errors collected via c.Error into the uniform
// error body, mapped to a status by error kind.
func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status := http.StatusInternalServerError
		switch {
		case ierr.IsValidation(err):
			status = http.StatusBadRequest
		case ierr.IsNotFound(err):
			status = http.StatusNotFound
		case ierr.IsInvalidOperation(err), ierr.IsAlreadyExists(err):
			status = http.StatusConflict
		case ierr.IsPermissionDenied(err):
			status = http.StatusForbidden
		case ierr.IsHTTPClient(err):
			status = http.StatusBadGateway
		}
		c.JSON(status, dto.NewErrorResponse(err))
	}
}

func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []interface{}{
			"request_id", types.GetRequestID(c.Request.Context()),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if len(c.Errors) > 0 {
			log.Errorw("request failed", append(fields, "errors", c.Errors.String())...)
			return
		}
		log.Infow("request completed", fields...)
	}
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/qripge/qrip-backend/internal/api"
	"github.com/qripge/qrip-backend/internal/api/cron"
	v1 "github.com/qripge/qrip-backend/internal/api/v1"
	"github.com/qripge/qrip-backend/internal/config"
	"github.com/qripge/qrip-backend/internal/email"
	"github.com/qripge/qrip-backend/internal/integration/bog"
	"github.com/qripge/qrip-backend/internal/logger"
	repo "github.com/qripge/qrip-backend/internal/repository/mongo"
	"github.com/qripge/qrip-backend/internal/service"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		logger.GetLogger().Fatalf("failed to load configuration: %v", err)
	}

	log, err := logger.NewLogger(cfg)
	if err != nil {
		logger.GetLogger().Fatalf("failed to initialize logger: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	mongoClient, err := repo.NewClient(ctx, cfg.Mongo, log)
	cancel()
	if err != nil {
		log.Fatalf("failed to connect to mongo: %v", err)
	}

	tokenProvider := bog.NewTokenProvider(cfg.BOG, log)
	gateway := bog.NewClient(cfg.BOG, tokenProvider, log)

	emailClient := email.NewEmailClient(cfg.Email)
	emailSender := email.NewService(emailClient, log)

	params := service.ServiceParams{
		Logger:         log,
		Config:         cfg,
		SubRepo:        repo.NewSubscriptionRepository(mongoClient, log),
		PlanRepo:       repo.NewPlanRepository(mongoClient, log),
		MemorialRepo:   repo.NewMemorialRepository(mongoClient, log),
		PurchaseRepo:   repo.NewPurchaseRepository(mongoClient, log),
		UserRepo:       repo.NewUserRepository(mongoClient, log),
		PaymentGateway: gateway,
		EmailSender:    emailSender,
	}

	billingService := service.NewBillingService(params)
	subscriptionService := service.NewSubscriptionService(params)
	paymentService := service.NewPaymentService(params)
	memorialService := service.NewMemorialService(params)

	router := api.NewRouter(api.Handlers{
		Subscription: v1.NewSubscriptionHandler(subscriptionService, billingService),
		Payment:      v1.NewPaymentHandler(paymentService, log),
		Memorial:     v1.NewMemorialHandler(memorialService),
		BillingCron:  cron.NewBillingCronHandler(billingService, subscriptionService, log),
		MemorialCron: cron.NewMemorialCronHandler(memorialService, log),
	}, cfg, log)

	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: router,
	}

	go func() {
		log.Infow("starting server", "address", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Infow("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("forced shutdown", "error", err)
	}
	if err := mongoClient.Disconnect(shutdownCtx); err != nil {
		log.Errorw("failed to disconnect mongo", "error", err)
	}
}

// File: servease/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"servease/config"
	"servease/cron"
	"servease/database"
	consultationRepo "servease/database/repository/consultation"
	"servease/handlers"
	"servease/middleware"
	"servease/models"
	"servease/routes"
	"servease/services/alert"
	"servease/services/claim"
	"servease/services/dispatch"
	"servease/services/notification"
	"servease/services/registry"
	"servease/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitAuthCache()
	utils.InitPresence()
	utils.FirebaseInit()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	// repositories.
	consultRepo := consultationRepo.NewMongoConsultationRepo()

	// Background notification delivery (asynq over Redis).
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	})
	notificationService := &notification.DefaultNotificationService{}
	cron.InitNotificationWorker(notificationService)

	dispatcher := &notification.AsynqDispatcher{
		Client: asynqClient,
		Logger: logger,
	}

	// services.
	claimService := &claim.DefaultClaimService{
		Repo:     consultRepo,
		Notifier: dispatcher,
		Logger:   logger,
	}

	player := alert.NewCommandPlayer(config.AppConfig.AlertSoundPath, logger)
	haptics := alert.NewFCMHaptics(utils.FCMClient, config.AppConfig.ProviderDeviceToken, logger)
	background := alert.NewFCMAlerter(utils.FCMClient, config.AppConfig.ProviderDeviceToken, logger)
	announcer := alert.NewAnnouncer(alert.Config{
		PulseInterval: config.AppConfig.AlertPulseInterval,
	}, player, haptics, background, logger)

	offerRegistry := registry.New(registry.Policy{
		BufferLatest: true,
		BufferTTL:    config.AppConfig.OfferBufferTTL,
	}, logger)

	// Subscribe before the transport can connect, so no offer arrives into
	// an empty registry. UI layers add their own subscriptions through the
	// same registry.
	offerRegistry.Subscribe(func(o models.Offer) {
		logger.Info("new offer received",
			zap.String("consultationId", o.ConsultationID),
			zap.String("serviceType", o.ServiceType),
			zap.String("customerName", o.CustomerName))
	})

	transport := dispatch.NewWebsocketTransport(dispatch.Config{
		ServerURL:            config.AppConfig.DispatchServerURL,
		MaxReconnectAttempts: config.AppConfig.MaxReconnectAttempts,
	}, announcer, offerRegistry, utils.GetPresenceClient(), logger)

	if pid := config.AppConfig.ProviderID; pid != "" {
		transport.Connect(pid)
	}

	offerHandler := handlers.NewOfferHandler(claimService, consultRepo, announcer)
	dispatchHandler := handlers.NewDispatchHandler(transport)

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		PendingOffersHandler: offerHandler.PendingOffers,
		AcceptOfferHandler:   offerHandler.AcceptOffer,
		RejectOfferHandler:   offerHandler.RejectOffer,

		DispatchConnectHandler:    dispatchHandler.Connect,
		DispatchDisconnectHandler: dispatchHandler.Disconnect,
		DispatchStatusHandler:     dispatchHandler.Status,

		HealthHandler: handlers.Health,
	}

	routes.RegisterRoutes(router, handlerBundle)

	utils.StartHealthMonitor(
		[]*redis.Client{utils.GetAuthCacheClient(), utils.GetPresenceClient()},
		database.MongoClient,
	)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	transport.Disconnect()
	announcer.Release()
	if err := asynqClient.Close(); err != nil {
		logger.Sugar().Warnf("main: asynq client close failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}
	if err := database.MongoClient.Disconnect(ctx); err != nil {
		logger.Sugar().Warnf("main: mongo disconnect failed: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/notification-center/internal/api/http"
	"github.com/spec-kit/notification-center/internal/api/http/handlers"
	"github.com/spec-kit/notification-center/internal/auth"
	"github.com/spec-kit/notification-center/internal/channel"
	"github.com/spec-kit/notification-center/internal/config"
	"github.com/spec-kit/notification-center/internal/events"
	"github.com/spec-kit/notification-center/internal/observability"
	"github.com/spec-kit/notification-center/internal/persistence"
	"github.com/spec-kit/notification-center/internal/realtime"
	"github.com/spec-kit/notification-center/internal/repository"
	"github.com/spec-kit/notification-center/internal/service"
	"github.com/spec-kit/notification-center/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	rdb := persistence.NewRedis(cfg.Redis, logger)
	defer rdb.Close()

	metrics := observability.NewMetrics()
	registry := prometheus.NewRegistry()
	metrics.MustRegister(registry)
	if cfg.Metrics.Addr != "" {
		observability.StartMetricsServer(ctx, cfg.Metrics.Addr, registry, logger)
	}

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	preferenceRepo := repository.NewPreferenceRepository(pool)
	deliveryLogRepo := repository.NewDeliveryLogRepository(pool)
	pushTokenRepo := repository.NewPushTokenRepository(pool)

	channels := channel.NewRegistry(
		channel.NewInAppChannel(),
		channel.WithBreaker(channel.NewEmailChannel(cfg.Email, logger), logger),
		channel.WithBreaker(channel.NewChatChannel(cfg.Chat, logger), logger),
		channel.WithBreaker(channel.NewPushChannel(cfg.Push, logger), logger),
	)

	publisher := realtime.NewRedisPublisher(rdb.Client, metrics, logger)

	preferenceService := service.NewPreferenceService(service.PreferenceDependencies{
		PreferenceRepo:  preferenceRepo,
		UserRepo:        userRepo,
		DefaultTimezone: cfg.Notification.DefaultTimezone,
		Logger:          logger,
	})
	quietHours := service.NewQuietHoursEvaluator(logger)
	digestService := service.NewDigestService(service.DigestDependencies{
		PreferenceRepo: preferenceRepo,
		Buffer:         service.NewMemoryDigestBuffer(),
		Registry:       channels,
		QuietHours:     quietHours,
		Metrics:        metrics,
		Logger:         logger,
		Config:         cfg.Notification,
	})
	deliveryService := service.NewDeliveryService(service.DeliveryDependencies{
		NotificationRepo: notificationRepo,
		DeliveryLogRepo:  deliveryLogRepo,
		PushTokenRepo:    pushTokenRepo,
		UserRepo:         userRepo,
		Preferences:      preferenceService,
		Resolver:         service.NewChannelResolver(),
		QuietHours:       quietHours,
		Digest:           digestService,
		Registry:         channels,
		Publisher:        publisher,
		Metrics:          metrics,
		Logger:           logger,
		Config:           cfg.Notification,
	})
	retryService := service.NewRetryService(service.RetryDependencies{
		DeliveryLogRepo:  deliveryLogRepo,
		NotificationRepo: notificationRepo,
		Registry:         channels,
		Metrics:          metrics,
		Logger:           logger,
		Config:           cfg.Notification,
	})
	inboxService := service.NewInboxService(notificationRepo, deliveryLogRepo, logger)

	dispatcher := events.NewInMemoryDispatcher()
	notificationService := service.NewNotificationService(dispatcher, deliveryService, logger)
	notificationService.RegisterHandlers()

	scheduler := worker.NewScheduler(digestService, retryService, cfg.Notification, logger)
	if err := scheduler.Start(); err != nil {
		logger.Fatal("failed to start scheduler", zap.Error(err))
	}

	authMiddleware := auth.NewAuthMiddleware(auth.NewTokenManager(cfg.Auth.JWTSecret))

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, rdb),
		Notifications:  handlers.NewNotificationsHandler(inboxService, deliveryService),
		Preferences:    handlers.NewPreferencesHandler(preferenceService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	scheduler.Stop()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}

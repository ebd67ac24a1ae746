// File: servicely/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"servicely/config"
	"servicely/cron"
	"servicely/database"
	"servicely/database/repository"
	providerRepo "servicely/database/repository/provider"
	userRepo "servicely/database/repository/user"
	"servicely/handlers"
	"servicely/middleware"
	"servicely/routes"
	"servicely/services/availability"
	"servicely/services/booking"
	"servicely/services/geoindex"
	"servicely/services/notification"
	"servicely/services/payment"
	"servicely/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger := utils.InitializeLogger(cfg.Env, cfg.LogLevel)
	defer func() { _ = logger.Sync() }()
	utils.RegisterMetrics()

	if cfg.JWTSecret == "" {
		logger.Fatal("main: JWT_SECRET must be set")
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// storage.
	mongoClient, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("main: mongo unavailable", zap.Error(err))
	}
	repos := repository.NewRepositories(mongoClient.Database(cfg.DatabaseName))
	if err := repos.EnsureIndexes(ctx); err != nil {
		logger.Fatal("main: failed to ensure indexes", zap.Error(err))
	}

	geoRedis := mustRedis(ctx, logger, cfg, cfg.RedisGeoDB)
	eventsRedis := mustRedis(ctx, logger, cfg, cfg.RedisEventsDB)

	// services.
	geo := geoindex.NewRedisGeoIndex(geoRedis, cfg.GeoTTL)
	availabilityService := availability.NewAvailabilityService(repos.Availability, geo, repos.Providers, logger.Named("availability"))

	notifiers := []notification.Notifier{notification.NewRedisNotifier(eventsRedis)}
	if cfg.FirebaseCredentialsFile != "" {
		fcmClient, err := utils.NewFCMClient(ctx, cfg.FirebaseCredentialsFile)
		if err != nil {
			logger.Fatal("main: firebase unavailable", zap.Error(err))
		}
		notifiers = append(notifiers, notification.NewFCMNotifier(fcmClient, repos.Users, repos.Providers))
	} else {
		logger.Warn("main: FIREBASE_CREDENTIALS_FILE not set, push notifications disabled")
	}
	notifier := notification.NewMultiNotifier(logger.Named("notify"), notifiers...)

	var refunder payment.Refunder
	if cfg.StripeKey != "" {
		refunder = payment.NewStripeRefunder(cfg.StripeKey, logger.Named("refund"))
	} else {
		logger.Warn("main: STRIPE_KEY not set, cancellations will not be refunded")
	}

	bookingService := booking.NewDefaultBookingService(
		database.NewMongoTransactor(mongoClient),
		repos.Scheduler,
		repos.Availability,
		availabilityService,
		geo,
		notifier,
		refunder,
		logger.Named("booking"),
		booking.Options{
			Durations:       cfg.Durations(),
			DefaultRadiusKm: cfg.DefaultSearchRadiusKm,
		},
	)

	// background work.
	sweeper := geoindex.NewSweeper(geo, repos.Providers, logger.Named("sweeper"))
	worker := cron.NewGeoSweepWorker(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisQueueDB,
	}, sweeper, cfg.GeoSweepInterval, logger.Named("cron"))
	if err := worker.Start(); err != nil {
		logger.Fatal("main: sweep worker failed to start", zap.Error(err))
	}

	health := utils.NewHealthMonitor(mongoClient, 30*time.Second, geoRedis, eventsRedis)
	health.Start(ctx)

	// http.
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(middleware.RequestLogger(logger.Named("http")))

	routes.RegisterRoutes(router, &handlers.HandlerBundle{
		JWTSecret:         cfg.JWTSecret,
		MaxRequestsPerMin: cfg.MaxRequestsPerMin,
		Availability:      handlers.NewAvailabilityHandler(availabilityService),
		Booking:           handlers.NewBookingHandler(bookingService),
		ProviderDevice:    handlers.NewDeviceHandler(repos.Providers, providerRepo.ErrNotFound),
		UserDevice:        handlers.NewDeviceHandler(repos.Users, userRepo.ErrNotFound),
		Health:            health,
	})

	port := cfg.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              "0.0.0.0:" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("main: starting server", zap.String("addr", srv.Addr))
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("main: server failed to start", zap.Error(err))
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("main: server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("main: server forced to shutdown", zap.Error(err))
	}
	worker.Shutdown()
	stop()

	_ = geoRedis.Close()
	_ = eventsRedis.Close()
	if err := mongoClient.Disconnect(shutdownCtx); err != nil {
		logger.Warn("main: mongo disconnect failed", zap.Error(err))
	}
	logger.Info("main: server stopped gracefully")
}

func mustRedis(ctx context.Context, logger *zap.Logger, cfg config.Config, db int) *redis.Client {
	client, err := utils.NewRedisClient(ctx, utils.RedisOptions{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       db,
	})
	if err != nil {
		logger.Fatal("main: redis unavailable", zap.Int("db", db), zap.Error(err))
	}
	return client
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/valetflow-backend/api/controllers"
	"github.com/angelmondragon/valetflow-backend/api/routes"
	"github.com/angelmondragon/valetflow-backend/internal/assignments"
	"github.com/angelmondragon/valetflow-backend/internal/dealerships"
	"github.com/angelmondragon/valetflow-backend/internal/notifications"
	"github.com/angelmondragon/valetflow-backend/internal/orders"
	"github.com/angelmondragon/valetflow-backend/internal/payments"
	"github.com/angelmondragon/valetflow-backend/internal/tracking"
	"github.com/angelmondragon/valetflow-backend/internal/users"
	"github.com/angelmondragon/valetflow-backend/internal/valets"
	"github.com/angelmondragon/valetflow-backend/internal/vehicles"
	"github.com/angelmondragon/valetflow-backend/pkg/config"
	"github.com/angelmondragon/valetflow-backend/pkg/db"
	"github.com/angelmondragon/valetflow-backend/pkg/instance"
	"github.com/angelmondragon/valetflow-backend/pkg/logger"
	"github.com/angelmondragon/valetflow-backend/pkg/metrics"
	"github.com/angelmondragon/valetflow-backend/pkg/migrate"
	"github.com/angelmondragon/valetflow-backend/pkg/pubsub"
	"github.com/angelmondragon/valetflow-backend/pkg/redis"
	"github.com/angelmondragon/valetflow-backend/pkg/stripe"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub", err)
		}
	}()

	stripeClient, err := stripe.NewClient(ctx, cfg.Stripe, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap stripe", err)
		os.Exit(1)
	}

	gormDB := dbClient.DB()
	userRepo := users.NewRepository(gormDB)
	dealershipRepo := dealerships.NewRepository(gormDB)
	vehicleRepo := vehicles.NewRepository(gormDB)
	orderRepo := orders.NewRepository(gormDB)
	assignRepo := assignments.NewRepository(gormDB)
	valetRepo := valets.NewRepository(gormDB)
	notificationRepo := notifications.NewRepository(gormDB)

	paymentBridge, err := payments.NewBridge(stripeClient, gormDB)
	if err != nil {
		logg.Error(ctx, "failed to create payment bridge", err)
		os.Exit(1)
	}

	eventPublisher, err := notifications.NewPublisher(pubsubClient.NotificationPublisher())
	if err != nil {
		logg.Error(ctx, "failed to create event publisher", err)
		os.Exit(1)
	}

	locationPublisher, err := tracking.NewPublisher(redisClient, "")
	if err != nil {
		logg.Error(ctx, "failed to create location publisher", err)
		os.Exit(1)
	}

	assignService, err := assignments.NewService(
		assignRepo, dbClient, userRepo, dealershipRepo,
		orderRepo, vehicleRepo, paymentBridge, eventPublisher, logg,
	)
	if err != nil {
		logg.Error(ctx, "failed to create assignment service", err)
		os.Exit(1)
	}

	valetService, err := valets.NewService(
		valetRepo, dbClient, userRepo, dealershipRepo,
		orderRepo, vehicleRepo, assignRepo, eventPublisher, locationPublisher, logg,
	)
	if err != nil {
		logg.Error(ctx, "failed to create valet service", err)
		os.Exit(1)
	}

	orderService, err := orders.NewService(orderRepo)
	if err != nil {
		logg.Error(ctx, "failed to create order service", err)
		os.Exit(1)
	}

	dealershipService, err := dealerships.NewService(dealershipRepo)
	if err != nil {
		logg.Error(ctx, "failed to create dealership service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	runCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	logg.Info(runCtx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:      cfg,
			Logger:      logg,
			Idempotency: redisClient,
			Pingers: map[string]controllers.Pinger{
				"database": dbClient,
				"redis":    redisClient,
				"pubsub":   pubsubClient,
			},
			HTTPMetrics:   httpMetrics,
			Registry:      registry,
			Assignments:   assignService,
			Valets:        valetService,
			Orders:        orderService,
			Dealerships:   dealershipService,
			Vehicles:      vehicleRepo,
			Notifications: notificationRepo,
		}),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logg.Info(runCtx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(runCtx, "error during server shutdown", err)
			os.Exit(1)
		}
		logg.Info(runCtx, "api server stopped")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(runCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	}
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/loomworks-backend/api/routes"
	"github.com/angelmondragon/loomworks-backend/internal/consumption"
	"github.com/angelmondragon/loomworks-backend/internal/inventory"
	"github.com/angelmondragon/loomworks-backend/internal/purchasing"
	"github.com/angelmondragon/loomworks-backend/internal/workorders"
	"github.com/angelmondragon/loomworks-backend/pkg/commerce"
	"github.com/angelmondragon/loomworks-backend/pkg/config"
	"github.com/angelmondragon/loomworks-backend/pkg/db"
	"github.com/angelmondragon/loomworks-backend/pkg/logger"
	"github.com/angelmondragon/loomworks-backend/pkg/metrics"
	"github.com/angelmondragon/loomworks-backend/pkg/migrate"
	"github.com/angelmondragon/loomworks-backend/pkg/outbox"
	"github.com/angelmondragon/loomworks-backend/pkg/redis"
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

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	commerceClient, err := commerce.NewClient(cfg.Commerce)
	if err != nil {
		logg.Error(context.Background(), "failed to create commerce client", err)
		os.Exit(1)
	}

	productionMetrics := metrics.NewProductionMetrics(prometheus.DefaultRegisterer)
	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	inventoryService, err := inventory.NewService(inventory.NewRepository(dbClient.DB()), dbClient, outboxService, productionMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}

	purchasingRepo := purchasing.NewRepository(dbClient.DB())
	purchasingService, err := purchasing.NewService(purchasingRepo, dbClient, inventoryService, outboxService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create purchasing service", err)
		os.Exit(1)
	}
	supplierService, err := purchasing.NewSupplierService(purchasingRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create supplier service", err)
		os.Exit(1)
	}

	workOrderRepo := workorders.NewRepository(dbClient.DB())
	workOrderService, err := workorders.NewService(workOrderRepo, dbClient, outboxService, commerceClient, productionMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create work order service", err)
		os.Exit(1)
	}
	laborService, err := workorders.NewLaborService(workOrderRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create labor service", err)
		os.Exit(1)
	}

	consumptionService, err := consumption.NewService(consumption.NewRepository(dbClient.DB()), dbClient, inventoryService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create consumption service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			prometheus.DefaultGatherer,
			inventoryService,
			supplierService,
			purchasingService,
			workOrderService,
			laborService,
			consumptionService,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
		logg.Info(ctx, "api server shut down gracefully")
	}
}

package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lamnguyen-dev/rentalcrm-backend/api/routes"
	"github.com/lamnguyen-dev/rentalcrm-backend/internal/availability"
	"github.com/lamnguyen-dev/rentalcrm-backend/internal/customers"
	"github.com/lamnguyen-dev/rentalcrm-backend/internal/inventory"
	"github.com/lamnguyen-dev/rentalcrm-backend/internal/orders"
	"github.com/lamnguyen-dev/rentalcrm-backend/internal/warnings"
	"github.com/lamnguyen-dev/rentalcrm-backend/pkg/config"
	"github.com/lamnguyen-dev/rentalcrm-backend/pkg/crypto"
	"github.com/lamnguyen-dev/rentalcrm-backend/pkg/db"
	"github.com/lamnguyen-dev/rentalcrm-backend/pkg/logger"
	"github.com/lamnguyen-dev/rentalcrm-backend/pkg/metrics"
	"github.com/lamnguyen-dev/rentalcrm-backend/pkg/migrate"
	"github.com/lamnguyen-dev/rentalcrm-backend/pkg/redis"
)

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

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
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

	cipher, err := crypto.NewFieldCipher(cfg.Crypto)
	if err != nil {
		logg.Error(context.Background(), "failed to initialize field cipher", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	scanMetrics := metrics.NewScanMetrics(registry)

	availabilityRepo := availability.NewRepository(dbClient.DB())
	calculator, err := availability.NewCalculator(availabilityRepo, availabilityRepo, cipher, logg, scanMetrics, cfg.Search)
	if err != nil {
		logg.Error(context.Background(), "failed to build availability calculator", err)
		os.Exit(1)
	}

	warningRepo := warnings.NewRepository(dbClient.DB())
	warningEngine, err := warnings.NewEngine(warningRepo, calculator, cipher, logg, scanMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to build warning engine", err)
		os.Exit(1)
	}

	searchService, err := inventory.NewSearchService(inventory.NewRepository(dbClient.DB()), calculator, cipher, logg, scanMetrics, cfg.Search)
	if err != nil {
		logg.Error(context.Background(), "failed to build search service", err)
		os.Exit(1)
	}

	orderService, err := orders.NewService(
		dbClient,
		orders.NewRepository(dbClient.DB()),
		customers.NewRepository(dbClient.DB()),
		calculator,
		warningEngine,
		cipher,
		logg,
		cfg.Search,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to build orders service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:           cfg,
			Logger:           logg,
			DB:               dbClient,
			Redis:            redisClient,
			MetricsGatherer:  registry,
			SearchService:    searchService,
			OrderService:     orderService,
			WarningReader:    warningEngine,
			WarningResolver:  warningEngine,
			IdempotencyStore: redisClient,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

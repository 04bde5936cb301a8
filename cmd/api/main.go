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
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/tally-backend/api/routes"
	customer "github.com/angelmondragon/tally-backend/internal/customers"
	invoice "github.com/angelmondragon/tally-backend/internal/invoices"
	product "github.com/angelmondragon/tally-backend/internal/products"
	"github.com/angelmondragon/tally-backend/pkg/config"
	"github.com/angelmondragon/tally-backend/pkg/db"
	"github.com/angelmondragon/tally-backend/pkg/logger"
	"github.com/angelmondragon/tally-backend/pkg/metrics"
	"github.com/angelmondragon/tally-backend/pkg/migrate"
	"github.com/angelmondragon/tally-backend/pkg/outbox"
	"github.com/angelmondragon/tally-backend/pkg/redis"
	"github.com/angelmondragon/tally-backend/pkg/tracing"
)

const serviceName = "tally-api"

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing, serviceName, version)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = multierr.Append(err, shutdownTracing(flushCtx))
	}()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, dbClient.Close())
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return err
		}
		defer func() {
			err = multierr.Append(err, redisClient.Close())
		}()
	} else {
		logg.Warn(ctx, "redis not configured; idempotency keys are ignored")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	conn := dbClient.DB()
	productRepo := product.NewRepository(conn)
	customerRepo := customer.NewRepository(conn)

	productService, err := product.NewService(productRepo, dbClient)
	if err != nil {
		return err
	}
	customerService, err := customer.NewService(customerRepo)
	if err != nil {
		return err
	}
	invoiceService, err := invoice.NewService(
		invoice.NewRepository(conn),
		productRepo,
		customerRepo,
		dbClient,
		outbox.NewService(outbox.NewRepository(conn), logg),
		metrics.NewInvoiceMetrics(registry),
		logg,
		cfg.Invoice,
	)
	if err != nil {
		return err
	}

	addr := ":" + cfg.App.Port
	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, dbClient, redisClient, registry, productService, customerService, invoiceService),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx = logg.WithFields(ctx, map[string]any{
		"env":     cfg.App.Env,
		"addr":    addr,
		"version": version,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logg.Info(gctx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

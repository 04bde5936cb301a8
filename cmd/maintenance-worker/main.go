package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/angelmondragon/tally-backend/internal/cron"
	"github.com/angelmondragon/tally-backend/pkg/config"
	"github.com/angelmondragon/tally-backend/pkg/db"
	"github.com/angelmondragon/tally-backend/pkg/logger"
	"github.com/angelmondragon/tally-backend/pkg/metrics"
	"github.com/angelmondragon/tally-backend/pkg/migrate"
	"github.com/angelmondragon/tally-backend/pkg/outbox"
	"github.com/angelmondragon/tally-backend/pkg/redis"
)

const (
	serviceName = "tally-maintenance-worker"
	lockScope   = "maintenance"
)

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
		logg.Error(context.Background(), "maintenance worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(context.Background(), "maintenance worker shut down gracefully")
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	var lock cron.Lock = &cron.LocalLock{}
	if cfg.Redis.Enabled() {
		var redisClient *redis.Client
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return err
		}
		defer func() {
			err = multierr.Append(err, redisClient.Close())
		}()
		var redisLock *cron.RedisLock
		redisLock, err = cron.NewRedisLock(redisClient, redisClient.LockKey(lockScope, cfg.App.Env), cfg.Maintenance.Interval)
		if err != nil {
			return err
		}
		lock = redisLock
	} else {
		logg.Warn(ctx, "redis not configured; maintenance lock is process-local")
	}

	conn := dbClient.DB()
	outboxJob, err := cron.NewRetentionJob(cron.RetentionJobParams{
		Name:          "outbox-retention",
		Logger:        logg,
		DB:            dbClient,
		RetentionDays: cfg.Maintenance.OutboxRetentionDays,
		Purge:         outbox.NewRepository(conn).DeletePublishedBefore,
	})
	if err != nil {
		return err
	}
	dlqJob, err := cron.NewRetentionJob(cron.RetentionJobParams{
		Name:          "outbox-dlq-retention",
		Logger:        logg,
		DB:            dbClient,
		RetentionDays: cfg.Maintenance.DLQRetentionDays,
		Purge:         outbox.NewDLQRepository(conn).DeleteFailedBefore,
	})
	if err != nil {
		return err
	}

	registry := cron.NewRegistry()
	if err := multierr.Combine(registry.Register(outboxJob), registry.Register(dlqJob)); err != nil {
		return err
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Maintenance.Interval,
	})
	if err != nil {
		return err
	}

	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"interval": cfg.Maintenance.Interval.String(),
	})
	logg.Info(ctx, "starting maintenance worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

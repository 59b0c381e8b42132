package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/qitafauto/qitaf-backend/internal/cron"
	"github.com/qitafauto/qitaf-backend/internal/mailer"
	"github.com/qitafauto/qitaf-backend/internal/orders"
	"github.com/qitafauto/qitaf-backend/internal/promotions"
	"github.com/qitafauto/qitaf-backend/pkg/config"
	"github.com/qitafauto/qitaf-backend/pkg/db"
	"github.com/qitafauto/qitaf-backend/pkg/logger"
	"github.com/qitafauto/qitaf-backend/pkg/metrics"
	"github.com/qitafauto/qitaf-backend/pkg/migrate"
	"github.com/qitafauto/qitaf-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	orderMailer := mailer.NewOrderMailer(mailer.NewSender(cfg.Mail, logg), cfg.App.StoreName)
	ordersService, err := orders.NewService(orders.NewRepository(dbClient.DB()), dbClient, orderMailer, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	promotionsService, err := promotions.NewService(promotions.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create promotions service", err)
		os.Exit(1)
	}

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)

	// The hourly cadence flips promotion and banner windows on close to
	// their scheduled start; the daily cadence handles abandoned orders and
	// expired-window cleanup.
	hourly, err := buildWorker(workerParams{
		logg:     logg,
		redis:    redisClient,
		metrics:  metricsCollector,
		lockName: "hourly",
		lockTTL:  cfg.Cron.HourlyInterval,
		interval: cfg.Cron.HourlyInterval,
		jobs: func() ([]cron.Job, error) {
			activation, err := cron.NewActivationSweepJob(cron.MarketingSweepJobParams{
				Logger:     logg,
				Promotions: promotionsService,
				Metrics:    metricsCollector,
			})
			if err != nil {
				return nil, err
			}
			return []cron.Job{activation}, nil
		},
	})
	if err != nil {
		logg.Error(context.Background(), "failed to build hourly worker", err)
		os.Exit(1)
	}

	daily, err := buildWorker(workerParams{
		logg:     logg,
		redis:    redisClient,
		metrics:  metricsCollector,
		lockName: "daily",
		lockTTL:  cfg.Cron.DailyInterval,
		interval: cfg.Cron.DailyInterval,
		jobs: func() ([]cron.Job, error) {
			expiry, err := cron.NewOrderExpiryJob(cron.OrderExpiryJobParams{
				Logger:  logg,
				Orders:  ordersService,
				Cutoff:  cfg.Orders.AbandonedCutoff,
				Metrics: metricsCollector,
			})
			if err != nil {
				return nil, err
			}
			deactivation, err := cron.NewDeactivationSweepJob(cron.MarketingSweepJobParams{
				Logger:     logg,
				Promotions: promotionsService,
				Metrics:    metricsCollector,
			})
			if err != nil {
				return nil, err
			}
			return []cron.Job{expiry, deactivation}, nil
		},
	})
	if err != nil {
		logg.Error(context.Background(), "failed to build daily worker", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error { return hourly.Run(groupCtx) })
	group.Go(func() error { return daily.Run(groupCtx) })

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

type workerParams struct {
	logg     *logger.Logger
	redis    *redis.Client
	metrics  *metrics.CronJobMetrics
	lockName string
	lockTTL  time.Duration
	interval time.Duration
	jobs     func() ([]cron.Job, error)
}

func buildWorker(params workerParams) (*cron.Service, error) {
	jobs, err := params.jobs()
	if err != nil {
		return nil, fmt.Errorf("build jobs: %w", err)
	}

	lock, err := cron.NewRedisLock(params.redis, params.redis.CronLockKey(params.lockName), params.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("build lock: %w", err)
	}

	return cron.NewService(cron.ServiceParams{
		Logger:   params.logg,
		Registry: cron.NewRegistry(jobs...),
		Lock:     lock,
		Metrics:  params.metrics,
		Interval: params.interval,
	})
}

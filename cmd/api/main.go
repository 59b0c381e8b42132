package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/qitafauto/qitaf-backend/api/routes"
	"github.com/qitafauto/qitaf-backend/internal/catalog"
	"github.com/qitafauto/qitaf-backend/internal/mailer"
	"github.com/qitafauto/qitaf-backend/internal/orders"
	"github.com/qitafauto/qitaf-backend/internal/promotions"
	"github.com/qitafauto/qitaf-backend/internal/users"
	"github.com/qitafauto/qitaf-backend/pkg/config"
	"github.com/qitafauto/qitaf-backend/pkg/db"
	"github.com/qitafauto/qitaf-backend/pkg/logger"
	"github.com/qitafauto/qitaf-backend/pkg/migrate"
	"github.com/qitafauto/qitaf-backend/pkg/redis"
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

	usersService, err := users.NewService(users.NewRepository(dbClient.DB()), cfg.JWT, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(catalog.NewRepository(dbClient.DB()), dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

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

	router := routes.NewRouter(routes.RouterParams{
		Config:     cfg,
		Logger:     logg,
		DB:         dbClient,
		Redis:      redisClient,
		Users:      usersService,
		Catalog:    catalogService,
		Orders:     ordersService,
		Promotions: promotionsService,
		Metrics:    prometheus.DefaultGatherer,
	})

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"port": cfg.App.Port,
	})
	logg.Info(ctx, "starting api server")

	if err := http.ListenAndServe(":"+cfg.App.Port, router); err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

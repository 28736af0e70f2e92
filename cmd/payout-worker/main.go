package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	payment "github.com/oxbryte/openly-backend/internal/payments"
	payout "github.com/oxbryte/openly-backend/internal/payouts"
	user "github.com/oxbryte/openly-backend/internal/users"
	"github.com/oxbryte/openly-backend/pkg/config"
	"github.com/oxbryte/openly-backend/pkg/custody"
	"github.com/oxbryte/openly-backend/pkg/db"
	"github.com/oxbryte/openly-backend/pkg/logger"
	"github.com/oxbryte/openly-backend/pkg/metrics"
	"github.com/oxbryte/openly-backend/pkg/migrate"
	"github.com/oxbryte/openly-backend/pkg/outbox"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "payout-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "payout-worker",
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

	custodyClient, err := custody.NewClient(cfg.Custody)
	if err != nil {
		logg.Error(context.Background(), "failed to create custody client", err)
		os.Exit(1)
	}

	conn := dbClient.DB()
	worker, err := payout.NewWorker(payout.WorkerParams{
		Logger:            logg,
		PaymentRepo:       payment.NewRepository(conn),
		Sellers:           user.NewRepository(conn),
		Custody:           custodyClient,
		Outbox:            outbox.NewService(outbox.NewRepository(conn), logg),
		TransactionRunner: dbClient,
		Metrics:           metrics.NewWorkerMetrics(prometheus.DefaultRegisterer),
		Config:            cfg.Payout,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payout worker", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env})
	logg.Info(ctx, "starting payout worker")

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "payout worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "payout worker shutting down gracefully")
}

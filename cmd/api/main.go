package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/oxbryte/openly-backend/api/routes"
	paymentsvc "github.com/oxbryte/openly-backend/internal/payments"
	paymentlink "github.com/oxbryte/openly-backend/internal/paymentlinks"
	productsvc "github.com/oxbryte/openly-backend/internal/products"
	usersvc "github.com/oxbryte/openly-backend/internal/users"
	walletsvc "github.com/oxbryte/openly-backend/internal/wallets"
	stripewebhook "github.com/oxbryte/openly-backend/internal/webhooks/stripe"
	"github.com/oxbryte/openly-backend/pkg/config"
	"github.com/oxbryte/openly-backend/pkg/custody"
	"github.com/oxbryte/openly-backend/pkg/db"
	"github.com/oxbryte/openly-backend/pkg/identity"
	"github.com/oxbryte/openly-backend/pkg/logger"
	"github.com/oxbryte/openly-backend/pkg/migrate"
	"github.com/oxbryte/openly-backend/pkg/outbox"
	"github.com/oxbryte/openly-backend/pkg/redis"
	"github.com/oxbryte/openly-backend/pkg/stripe"
)

const stripeEventGuardTTL = 24 * time.Hour

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

	verifier, err := identity.NewTokenVerifier(cfg.Identity)
	if err != nil {
		logg.Error(context.Background(), "failed to create identity verifier", err)
		os.Exit(1)
	}

	stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create stripe client", err)
		os.Exit(1)
	}

	custodyClient, err := custody.NewClient(cfg.Custody)
	if err != nil {
		logg.Error(context.Background(), "failed to create custody client", err)
		os.Exit(1)
	}

	conn := dbClient.DB()
	userRepo := usersvc.NewRepository(conn)
	productRepo := productsvc.NewRepository(conn)
	linkRepo := paymentlink.NewRepository(conn)
	paymentRepo := paymentsvc.NewRepository(conn)
	outboxService := outbox.NewService(outbox.NewRepository(conn), logg)

	userService, err := usersvc.NewService(usersvc.ServiceParams{
		Repo:   userRepo,
		DB:     dbClient,
		PinCfg: cfg.Pin,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create user service", err)
		os.Exit(1)
	}

	identityWebhooks, err := usersvc.NewWebhookService(usersvc.WebhookServiceParams{
		Repo:   userRepo,
		DB:     dbClient,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create identity webhook service", err)
		os.Exit(1)
	}

	productService, err := productsvc.NewService(productRepo, dbClient, linkRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}

	paymentService, err := paymentsvc.NewService(paymentsvc.ServiceParams{
		Repo:     paymentRepo,
		LinkRepo: linkRepo,
		Intents:  stripeClient,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payment service", err)
		os.Exit(1)
	}

	walletService, err := walletsvc.NewService(walletsvc.ServiceParams{
		Custody: custodyClient,
		Users:   userRepo,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create wallet service", err)
		os.Exit(1)
	}

	stripeWebhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		PaymentRepo:       paymentRepo,
		Outbox:            outboxService,
		TransactionRunner: dbClient,
		Logger:            logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create stripe webhook service", err)
		os.Exit(1)
	}

	stripeWebhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, stripeEventGuardTTL, "webhooks:stripe")
	if err != nil {
		logg.Error(context.Background(), "failed to create stripe webhook guard", err)
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
		Handler: routes.NewRouter(routes.RouterParams{
			Config:               cfg,
			Logger:               logg,
			DB:                   dbClient,
			Redis:                redisClient,
			Verifier:             verifier,
			Users:                userService,
			UserRepo:             userRepo,
			Products:             productService,
			Payments:             paymentService,
			Wallets:              walletService,
			StripeClient:         stripeClient,
			StripeWebhookService: stripeWebhookService,
			StripeWebhookGuard:   stripeWebhookGuard,
			IdentityWebhooks:     identityWebhooks,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/oxbryte/openly-backend/api/controllers"
	webhookcontrollers "github.com/oxbryte/openly-backend/api/controllers/webhooks"
	"github.com/oxbryte/openly-backend/api/middleware"
	paymentsvc "github.com/oxbryte/openly-backend/internal/payments"
	productsvc "github.com/oxbryte/openly-backend/internal/products"
	usersvc "github.com/oxbryte/openly-backend/internal/users"
	walletsvc "github.com/oxbryte/openly-backend/internal/wallets"
	stripewebhook "github.com/oxbryte/openly-backend/internal/webhooks/stripe"
	"github.com/oxbryte/openly-backend/pkg/config"
	"github.com/oxbryte/openly-backend/pkg/db"
	"github.com/oxbryte/openly-backend/pkg/identity"
	"github.com/oxbryte/openly-backend/pkg/logger"
	"github.com/oxbryte/openly-backend/pkg/redis"
	"github.com/oxbryte/openly-backend/pkg/stripe"
)

// RouterParams bundles everything the HTTP surface depends on.
type RouterParams struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       *db.Client
	Redis    *redis.Client
	Verifier *identity.TokenVerifier

	Users    usersvc.Service
	UserRepo *usersvc.Repository
	Products productsvc.Service
	Payments paymentsvc.Service
	Wallets  walletsvc.Service

	StripeClient         *stripe.Client
	StripeWebhookService *stripewebhook.Service
	StripeWebhookGuard   *stripewebhook.IdempotencyGuard
	IdentityWebhooks     usersvc.WebhookService
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, p.DB, p.Redis, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/signup", controllers.Signup(p.Users, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(p.Products, logg))
			r.Get("/{slug}", controllers.GetProductBySlug(p.Products, logg))
		})

		r.Post("/payment/intent", controllers.CreatePaymentIntent(p.Payments, logg))

		r.Route("/webhooks", func(r chi.Router) {
			r.Post("/stripe", webhookcontrollers.StripeWebhook(p.StripeWebhookService, p.StripeClient, p.StripeWebhookGuard, logg))
			r.Post("/identity", webhookcontrollers.IdentityWebhook(p.IdentityWebhooks, cfg.Identity, logg))
		})

		r.Route("/protected", func(r chi.Router) {
			r.Use(middleware.Auth(p.Verifier, p.UserRepo, logg))

			r.Post("/products", controllers.CreateProduct(p.Products, logg))
			r.Put("/products/{id}", controllers.UpdateProduct(p.Products, logg))

			r.Route("/payment", func(r chi.Router) {
				r.Get("/earnings", controllers.Earnings(p.Payments, logg))
				r.Get("/transactions", controllers.Transactions(p.Payments, logg))
				r.Get("/sales-heatmap", controllers.SalesHeatmap(p.Payments, logg))
			})

			r.Route("/unique-name", func(r chi.Router) {
				r.Get("/check/{name}", controllers.CheckUniqueName(p.Users, logg))
				r.Post("/", controllers.AssignUniqueName(p.Users, logg))
			})

			r.Route("/wallet", func(r chi.Router) {
				r.Get("/balance", controllers.WalletBalance(p.Wallets, logg))
				r.Post("/withdraw", controllers.WalletWithdraw(p.Wallets, logg))
			})
		})
	})

	return r
}

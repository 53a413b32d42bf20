// Package dashboard собирает HTTP-приложение дашборда UGC-кампаний.
package dashboard

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/ugc-tracker/internal/config"
	"github.com/magabrotheeeer/ugc-tracker/internal/http/handlers/admin"
	"github.com/magabrotheeeer/ugc-tracker/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/ugc-tracker/internal/http/handlers/auth/logout"
	"github.com/magabrotheeeer/ugc-tracker/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/ugc-tracker/internal/http/handlers/campaign"
	"github.com/magabrotheeeer/ugc-tracker/internal/http/handlers/catalog"
	"github.com/magabrotheeeer/ugc-tracker/internal/http/handlers/health"
	"github.com/magabrotheeeer/ugc-tracker/internal/http/handlers/licensestatus"
	"github.com/magabrotheeeer/ugc-tracker/internal/http/handlers/receipt"
	"github.com/magabrotheeeer/ugc-tracker/internal/http/handlers/session"
	"github.com/magabrotheeeer/ugc-tracker/internal/http/handlers/webhook"
	"github.com/magabrotheeeer/ugc-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/ugc-tracker/internal/models"
)

// receiptUploadRoute маршрут загрузки квитанции, куда ведёт пейволл.
const receiptUploadRoute = "/api/v1/receipts"

// Accounts регистрация, вход и выход.
type Accounts interface {
	Register(ctx context.Context, email, password string) (string, error)
	Login(ctx context.Context, email, password string) (string, *models.Session, error)
}

// Sessions проверка и отзыв токенов: локально или через gRPC auth-service.
type Sessions interface {
	middlewarectx.TokenValidator
	Logout(ctx context.Context, token string) error
}

// Licenses оценка и выдача лицензий.
type Licenses interface {
	middlewarectx.LicenseEvaluator
	admin.LicenseService
}

// Receipts квитанции и удаление аккаунтов.
type Receipts interface {
	receipt.Service
	admin.AccountService
}

// Campaigns кампании и справочники.
type Campaigns interface {
	campaign.Service
	catalog.Service
}

// Deps зависимости маршрутов.
type Deps struct {
	Accounts      Accounts
	Sessions      Sessions
	Licenses      Licenses
	Receipts      Receipts
	Campaigns     Campaigns
	Payments      webhook.Service
	Health        health.Checker
	Limiter       *middlewarectx.RateLimiter
	Gate          config.Gate
	TokenTTL      time.Duration
	WebhookSecret string
	SecureCookies bool
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, deps Deps) {
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
	)

	guard := middlewarectx.NewGuard(logger, deps.Sessions, deps.Gate.LoginRoute, deps.Gate.ResolveTimeout, deps.SecureCookies)
	receipts := receipt.New(logger, deps.Receipts)
	campaigns := campaign.New(logger, deps.Campaigns)
	catalogs := catalog.New(logger, deps.Campaigns)
	admins := admin.New(logger, deps.Licenses, deps.Receipts)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Group(func(r chi.Router) {
			if deps.Limiter != nil {
				r.Use(deps.Limiter.Middleware)
			}
			r.Post("/register", register.New(logger, deps.Accounts).ServeHTTP)
			r.Post("/login", login.New(logger, deps.Accounts, deps.TokenTTL, deps.Gate.HomeRoute, deps.SecureCookies).ServeHTTP)
		})
		r.Post("/logout", logout.New(logger, deps.Sessions, deps.SecureCookies).ServeHTTP)
		r.Get("/session", session.New(logger, guard).ServeHTTP)
		r.Post("/payments/webhook", webhook.New(logger, deps.Payments, deps.WebhookSecret).ServeHTTP)

		// Только сессия: статус лицензии и оплата доступны и с истёкшим триалом
		r.Group(func(r chi.Router) {
			r.Use(guard.RequireSession)
			r.Get("/license", licensestatus.New(logger, deps.Licenses).ServeHTTP)
			r.Post("/receipts", receipts.Upload)
			r.Get("/receipts", receipts.Mine)
		})

		// Сессия и действующая лицензия
		r.Group(func(r chi.Router) {
			r.Use(guard.RequireSession)
			r.Use(middlewarectx.RequireLicense(logger, deps.Licenses, receiptUploadRoute))
			r.Post("/campaigns", campaigns.Create)
			r.Get("/campaigns", campaigns.List)
			r.Get("/campaigns/{id}", campaigns.Get)
			r.Post("/campaigns/{id}/products", campaigns.AttachProduct)
			r.Post("/campaigns/{id}/creators", campaigns.AssignCreator)
			r.Post("/campaigns/{id}/expenses", campaigns.AddExpense)
			r.Get("/campaigns/{id}/expenses", campaigns.ListExpenses)
			r.Get("/campaigns/{id}/cost", campaigns.Cost)
			r.Post("/products", catalogs.CreateProduct)
			r.Get("/products", catalogs.ListProducts)
			r.Post("/creators", catalogs.CreateCreator)
			r.Get("/creators", catalogs.ListCreators)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(guard.RequireSession)
			r.Use(middlewarectx.RequireAdmin(logger))
			r.Get("/receipts", receipts.Pending)
			r.Post("/receipts/{id}/decision", receipts.Decide)
			r.Get("/receipts/{id}/url", receipts.View)
			r.Post("/users/{uid}/lifetime", admins.GrantLifetime)
			r.Delete("/users/{uid}", admins.DeleteUser)
		})
	})

	r.Get("/health", health.New(logger, deps.Health).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)
}

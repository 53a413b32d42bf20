package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/ugc-tracker/internal/cache"
	"github.com/magabrotheeeer/ugc-tracker/internal/config"
	"github.com/magabrotheeeer/ugc-tracker/internal/grpc/client"
	"github.com/magabrotheeeer/ugc-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/ugc-tracker/internal/lib/jwt"
	"github.com/magabrotheeeer/ugc-tracker/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/ugc-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/ugc-tracker/internal/migrations"
	"github.com/magabrotheeeer/ugc-tracker/internal/receiptstore"
	authservice "github.com/magabrotheeeer/ugc-tracker/internal/services/auth"
	campaignservice "github.com/magabrotheeeer/ugc-tracker/internal/services/campaign"
	licenseservice "github.com/magabrotheeeer/ugc-tracker/internal/services/license"
	paymentservice "github.com/magabrotheeeer/ugc-tracker/internal/services/payment"
	receiptservice "github.com/magabrotheeeer/ugc-tracker/internal/services/receipt"
	"github.com/magabrotheeeer/ugc-tracker/internal/storage/repository"
)

const (
	authRateLimit = rate.Limit(5)
	authRateBurst = 10
	shutdownAfter = 15 * time.Second
)

// App HTTP-приложение дашборда.
type App struct {
	server     *http.Server
	logger     *slog.Logger
	db         *repository.Storage
	cache      *cache.Cache
	authClient *client.AuthClient
	amqpConn   *amqp.Connection
	amqpCh     *amqp.Channel
}

// New поднимает хранилище, кэш и брокер и собирает маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.dashboard.New"

	db, err := repository.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	app := &App{logger: logger, db: db}

	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	app.cache, err = cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTToken.SecretKey, cfg.JWTToken.TokenTTL)
	accounts := authservice.NewAuthService(db, jwtMaker, app.cache, cfg.License.TrialPeriod, cfg.JWTToken.BcryptCost)

	var sessions Sessions = accounts
	if cfg.GRPCAuthAddress != "" {
		app.authClient, err = client.NewAuthClient(cfg.GRPCAuthAddress)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		sessions = app.authClient
		logger.Info("validating sessions via auth service", slog.String("address", cfg.GRPCAuthAddress))
	}

	var publisher receiptservice.Publisher
	if cfg.RabbitMQ.URL != "" {
		app.amqpConn, err = rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.Retries, cfg.RabbitMQ.RetryDelay)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		app.amqpCh, err = rabbitmq.SetupChannel(app.amqpConn, rabbitmq.GetNotificationQueues())
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		publisher = rabbitmq.NewPublisher(app.amqpCh)
	} else {
		logger.Warn("rabbitmq url is empty, receipt decisions will not be notified")
	}

	licenses := licenseservice.NewLicenseService(db, app.cache, cfg.License.CacheTTL, logger)
	receipts := receiptservice.NewReceiptService(db, receiptstore.New(cfg.S3), licenses, publisher, logger)
	campaigns := campaignservice.NewCampaignService(db, app.cache, cfg.License.CacheTTL, logger)
	payments := paymentservice.New(licenses, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, Deps{
		Accounts:      accounts,
		Sessions:      sessions,
		Licenses:      licenses,
		Receipts:      receipts,
		Campaigns:     campaigns,
		Payments:      payments,
		Health:        db,
		Limiter:       middlewarectx.NewRateLimiter(logger, authRateLimit, authRateBurst),
		Gate:          cfg.Gate,
		TokenTTL:      cfg.JWTToken.TokenTTL,
		WebhookSecret: cfg.Webhook.Secret,
		SecureCookies: cfg.SecureCookies(),
	})

	app.server = &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}
	return app, nil
}

// Run обслуживает HTTP до отмены ctx, затем корректно останавливает сервер.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownAfter)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	if a.authClient != nil {
		if err := a.authClient.Close(); err != nil {
			a.logger.Error("failed to close auth client", sl.Err(err))
		}
	}
	if a.amqpCh != nil {
		if err := a.amqpCh.Close(); err != nil {
			a.logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if a.amqpConn != nil {
		if err := a.amqpConn.Close(); err != nil {
			a.logger.Error("failed to close connection", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close cache", sl.Err(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
}

// Package auth собирает gRPC-сервис проверки и отзыва токенов сессии.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/magabrotheeeer/ugc-tracker/internal/cache"
	"github.com/magabrotheeeer/ugc-tracker/internal/config"
	"github.com/magabrotheeeer/ugc-tracker/internal/grpc/authpb"
	"github.com/magabrotheeeer/ugc-tracker/internal/grpc/server"
	"github.com/magabrotheeeer/ugc-tracker/internal/lib/jwt"
	"github.com/magabrotheeeer/ugc-tracker/internal/lib/sl"
	authservice "github.com/magabrotheeeer/ugc-tracker/internal/services/auth"
	"github.com/magabrotheeeer/ugc-tracker/internal/storage/repository"
)

// App gRPC-приложение авторизации.
type App struct {
	grpcServer *grpc.Server
	health     *health.Server
	listener   net.Listener
	logger     *slog.Logger
	db         *repository.Storage
	cache      *cache.Cache
}

// New подключает хранилище и redis и регистрирует AuthService.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.auth.New"

	db, err := repository.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	revoked, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTToken.SecretKey, cfg.JWTToken.TokenTTL)
	authService := authservice.NewAuthService(db, jwtMaker, revoked, cfg.License.TrialPeriod, cfg.JWTToken.BcryptCost)

	lis, err := net.Listen("tcp", cfg.GRPCServer.Address)
	if err != nil {
		_ = revoked.Close()
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	grpcServer := grpc.NewServer()
	authpb.RegisterAuthServiceServer(grpcServer, server.NewAuthServer(authService, logger))

	healthServer := health.NewServer()
	healthServer.SetServingStatus(authpb.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	return &App{
		grpcServer: grpcServer,
		health:     healthServer,
		listener:   lis,
		logger:     logger,
		db:         db,
		cache:      revoked,
	}, nil
}

// Run обслуживает gRPC до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("auth gRPC service listening", slog.String("address", a.listener.Addr().String()))
		errCh <- a.grpcServer.Serve(a.listener)
	}()

	var err error
	select {
	case <-ctx.Done():
		a.logger.Info("shutting down auth gRPC service")
		a.health.Shutdown()
		a.grpcServer.GracefulStop()
	case err = <-errCh:
	}

	if cerr := a.cache.Close(); cerr != nil {
		a.logger.Error("failed to close cache", sl.Err(cerr))
	}
	if cerr := a.db.Close(); cerr != nil {
		a.logger.Error("failed to close storage", sl.Err(cerr))
	}
	return err
}

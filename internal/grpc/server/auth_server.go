// Package server реализует gRPC-сервер сервиса авторизации.
//
// AuthServer проверяет и отзывает JWT по запросам других сервисов,
// бизнес-логику делегирует AuthService.
package server

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/magabrotheeeer/ugc-tracker/internal/grpc/authpb"
	"github.com/magabrotheeeer/ugc-tracker/internal/lib/jwt"
	"github.com/magabrotheeeer/ugc-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/ugc-tracker/internal/models"
	services "github.com/magabrotheeeer/ugc-tracker/internal/services/auth"
)

// AuthServiceInterface операции AuthService, доступные по gRPC.
type AuthServiceInterface interface {
	ValidateToken(ctx context.Context, token string) (*models.Session, error)
	Logout(ctx context.Context, token string) error
}

// AuthServer реализует authpb.AuthServiceServer.
type AuthServer struct {
	authService AuthServiceInterface
	log         *slog.Logger
}

var _ authpb.AuthServiceServer = (*AuthServer)(nil)

// NewAuthServer создает новый экземпляр AuthServer.
func NewAuthServer(authService AuthServiceInterface, logger *slog.Logger) *AuthServer {
	return &AuthServer{
		authService: authService,
		log:         logger,
	}
}

// ValidateToken проверяет JWT и возвращает сессию пользователя.
func (s *AuthServer) ValidateToken(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	if req.GetValue() == "" {
		return nil, status.Error(codes.Unauthenticated, "empty token")
	}
	session, err := s.authService.ValidateToken(ctx, req.GetValue())
	if err != nil {
		s.log.Debug("token rejected", sl.Err(err))
		return nil, toStatus(err)
	}
	resp, err := authpb.SessionToStruct(session)
	if err != nil {
		s.log.Error("failed to encode session", sl.Err(err))
		return nil, status.Error(codes.Internal, "encode session")
	}
	return resp, nil
}

// RevokeToken отзывает JWT.
func (s *AuthServer) RevokeToken(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	if req.GetValue() == "" {
		return nil, status.Error(codes.Unauthenticated, "empty token")
	}
	if err := s.authService.Logout(ctx, req.GetValue()); err != nil {
		s.log.Error("revoke failed", sl.Err(err))
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, jwt.ErrInvalidToken), errors.Is(err, services.ErrTokenRevoked):
		return status.Error(codes.Unauthenticated, "invalid token")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "canceled")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "deadline exceeded")
	default:
		return status.Error(codes.Unavailable, "session store unavailable")
	}
}

// Package client содержит gRPC-клиент сервиса авторизации.
package client

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/magabrotheeeer/ugc-tracker/internal/grpc/authpb"
	"github.com/magabrotheeeer/ugc-tracker/internal/lib/jwt"
	"github.com/magabrotheeeer/ugc-tracker/internal/models"
)

// AuthClient проверяет токены через удаленный AuthService.
type AuthClient struct {
	conn *grpc.ClientConn
}

// NewAuthClient создает клиента. Соединение устанавливается лениво
// при первом вызове.
func NewAuthClient(addr string, opts ...grpc.DialOption) (*AuthClient, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("client.NewAuthClient: %w", err)
	}
	return &AuthClient{conn: conn}, nil
}

// Close закрывает соединение.
func (a *AuthClient) Close() error {
	return a.conn.Close()
}

// ValidateToken возвращает сессию владельца токена.
func (a *AuthClient) ValidateToken(ctx context.Context, token string) (*models.Session, error) {
	const op = "client.ValidateToken"
	resp := new(structpb.Struct)
	if err := a.conn.Invoke(ctx, authpb.ValidateTokenMethod, wrapperspb.String(token), resp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	session, err := authpb.SessionFromStruct(resp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return session, nil
}

// Logout отзывает токен.
func (a *AuthClient) Logout(ctx context.Context, token string) error {
	if err := a.conn.Invoke(ctx, authpb.RevokeTokenMethod, wrapperspb.String(token), new(emptypb.Empty)); err != nil {
		return fmt.Errorf("client.Logout: %w", mapError(err))
	}
	return nil
}

// mapError приводит статусы gRPC к ошибкам, которые возвращает локальный
// AuthService.
func mapError(err error) error {
	switch status.Code(err) {
	case codes.Unauthenticated:
		return jwt.ErrInvalidToken
	case codes.Canceled:
		return context.Canceled
	case codes.DeadlineExceeded:
		return context.DeadlineExceeded
	default:
		return err
	}
}

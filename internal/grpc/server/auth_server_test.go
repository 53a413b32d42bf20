package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/magabrotheeeer/ugc-tracker/internal/grpc/authpb"
	"github.com/magabrotheeeer/ugc-tracker/internal/lib/jwt"
	"github.com/magabrotheeeer/ugc-tracker/internal/models"
	services "github.com/magabrotheeeer/ugc-tracker/internal/services/auth"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) ValidateToken(ctx context.Context, token string) (*models.Session, error) {
	args := m.Called(ctx, token)
	if s := args.Get(0); s != nil {
		return s.(*models.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func dialServer(t *testing.T, svc AuthServiceInterface) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	authpb.RegisterAuthServiceServer(srv, NewAuthServer(svc, newTestLogger()))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestAuthServer_ValidateToken(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		session  *models.Session
		err      error
		wantCode codes.Code
	}{
		{
			name:     "valid token",
			token:    "good",
			session:  &models.Session{UserID: "u1", Email: "a@b.c", Role: models.RoleUser},
			wantCode: codes.OK,
		},
		{name: "invalid token", token: "bad", err: jwt.ErrInvalidToken, wantCode: codes.Unauthenticated},
		{name: "revoked token", token: "old", err: services.ErrTokenRevoked, wantCode: codes.Unauthenticated},
		{name: "store down", token: "any", err: errors.New("redis down"), wantCode: codes.Unavailable},
		{name: "empty token", token: "", wantCode: codes.Unauthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockAuthService)
			if tt.token != "" {
				svc.On("ValidateToken", mock.Anything, tt.token).Return(tt.session, tt.err)
			}
			conn := dialServer(t, svc)

			resp := new(structpb.Struct)
			err := conn.Invoke(context.Background(), authpb.ValidateTokenMethod, wrapperspb.String(tt.token), resp)
			assert.Equal(t, tt.wantCode, status.Code(err))
			if tt.wantCode == codes.OK {
				got, err := authpb.SessionFromStruct(resp)
				require.NoError(t, err)
				assert.Equal(t, tt.session, got)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestAuthServer_RevokeToken(t *testing.T) {
	svc := new(MockAuthService)
	svc.On("Logout", mock.Anything, "tok").Return(nil).Once()
	svc.On("Logout", mock.Anything, "bad").Return(jwt.ErrInvalidToken).Once()
	conn := dialServer(t, svc)

	err := conn.Invoke(context.Background(), authpb.RevokeTokenMethod, wrapperspb.String("tok"), new(emptypb.Empty))
	require.NoError(t, err)

	err = conn.Invoke(context.Background(), authpb.RevokeTokenMethod, wrapperspb.String("bad"), new(emptypb.Empty))
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	svc.AssertExpectations(t)
}

package client

import (
	"context"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"

	"github.com/magabrotheeeer/ugc-tracker/internal/grpc/authpb"
	"github.com/magabrotheeeer/ugc-tracker/internal/grpc/server"
	"github.com/magabrotheeeer/ugc-tracker/internal/lib/jwt"
	"github.com/magabrotheeeer/ugc-tracker/internal/models"
)

type fakeAuth struct {
	sessions map[string]*models.Session
	revoked  []string
	delay    time.Duration
}

func (f *fakeAuth) ValidateToken(ctx context.Context, token string) (*models.Session, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s, ok := f.sessions[token]; ok {
		return s, nil
	}
	return nil, jwt.ErrInvalidToken
}

func (f *fakeAuth) Logout(_ context.Context, token string) error {
	f.revoked = append(f.revoked, token)
	return nil
}

func newClient(t *testing.T, svc server.AuthServiceInterface) *AuthClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	authpb.RegisterAuthServiceServer(srv, server.NewAuthServer(svc, slog.New(slog.NewTextHandler(io.Discard, nil))))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	c, err := NewAuthClient("passthrough:///bufnet", grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestAuthClient_ValidateToken(t *testing.T) {
	want := &models.Session{UserID: "u1", Email: "a@b.c", Role: models.RoleAdmin}
	c := newClient(t, &fakeAuth{sessions: map[string]*models.Session{"good": want}})

	got, err := c.ValidateToken(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = c.ValidateToken(context.Background(), "bad")
	assert.ErrorIs(t, err, jwt.ErrInvalidToken)
}

func TestAuthClient_ValidateTokenDeadline(t *testing.T) {
	c := newClient(t, &fakeAuth{delay: time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.ValidateToken(ctx, "slow")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAuthClient_Logout(t *testing.T) {
	svc := &fakeAuth{}
	c := newClient(t, svc)

	require.NoError(t, c.Logout(context.Background(), "tok"))
	assert.Equal(t, []string{"tok"}, svc.revoked)
}

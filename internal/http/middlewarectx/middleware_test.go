package middlewarectx_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/ugc-tracker/internal/gate"
	"github.com/magabrotheeeer/ugc-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/ugc-tracker/internal/http/response"
	"github.com/magabrotheeeer/ugc-tracker/internal/license"
	"github.com/magabrotheeeer/ugc-tracker/internal/models"
)

type ValidatorMock struct {
	mock.Mock
}

func (m *ValidatorMock) ValidateToken(ctx context.Context, token string) (*models.Session, error) {
	args := m.Called(ctx, token)
	s, _ := args.Get(0).(*models.Session)
	return s, args.Error(1)
}

type EvaluatorMock struct {
	mock.Mock
}

func (m *EvaluatorMock) Evaluate(ctx context.Context, userID string) (license.Evaluation, *models.License) {
	args := m.Called(ctx, userID)
	lic, _ := args.Get(1).(*models.License)
	return args.Get(0).(license.Evaluation), lic
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRequireSession(t *testing.T) {
	alice := &models.Session{UserID: "u1", Email: "alice@example.com", Role: models.RoleUser}

	tests := []struct {
		name         string
		authHeader   string
		cookie       string
		accept       string
		mockSession  *models.Session
		mockErr      error
		wantStatus   int
		wantCalled   bool
		wantLocation string
		wantRedirect string
	}{
		{
			name:         "no token json client",
			wantStatus:   http.StatusUnauthorized,
			wantRedirect: "/login?next=%2Fapi%2Fv1%2Fcampaigns%3Fpage%3D2",
		},
		{
			name:         "no token browser",
			accept:       "text/html,application/xhtml+xml",
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/login?next=%2Fapi%2Fv1%2Fcampaigns%3Fpage%3D2",
		},
		{
			name:         "invalid token",
			authHeader:   "Bearer bad",
			mockErr:      errors.New("invalid token"),
			wantStatus:   http.StatusUnauthorized,
			wantRedirect: "/login?next=%2Fapi%2Fv1%2Fcampaigns%3Fpage%3D2",
		},
		{
			name:        "bearer token",
			authHeader:  "Bearer good",
			mockSession: alice,
			wantStatus:  http.StatusOK,
			wantCalled:  true,
		},
		{
			name:        "cookie token",
			cookie:      "good",
			mockSession: alice,
			wantStatus:  http.StatusOK,
			wantCalled:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := new(ValidatorMock)
			if tt.authHeader != "" || tt.cookie != "" {
				v.On("ValidateToken", mock.Anything, mock.Anything).Return(tt.mockSession, tt.mockErr).Once()
			}

			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				s, ok := middlewarectx.SessionFrom(r.Context())
				require.True(t, ok)
				assert.Equal(t, alice, s)
				w.WriteHeader(http.StatusOK)
			})
			guard := middlewarectx.NewGuard(newNoopLogger(), v, "/login", time.Second, false)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/campaigns?page=2", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: middlewarectx.SessionCookie, Value: tt.cookie})
			}
			if tt.accept != "" {
				req.Header.Set("Accept", tt.accept)
			}
			rec := httptest.NewRecorder()

			guard.RequireSession(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCalled, called)
			if tt.wantLocation != "" {
				assert.Equal(t, tt.wantLocation, rec.Header().Get("Location"))
				cookies := rec.Result().Cookies()
				require.Len(t, cookies, 1)
				assert.Equal(t, middlewarectx.NoticeCookie, cookies[0].Name)
			}
			if tt.wantRedirect != "" {
				var resp response.Response
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.Equal(t, gate.NoticeSignIn, resp.Error)
				assert.Equal(t, tt.wantRedirect, resp.Redirect)
			}
			v.AssertExpectations(t)
		})
	}
}

func TestRequireSession_NoticeCookieSecure(t *testing.T) {
	for _, secure := range []bool{false, true} {
		guard := middlewarectx.NewGuard(newNoopLogger(), new(ValidatorMock), "/login", time.Second, secure)
		req := httptest.NewRequest(http.MethodGet, "/home", nil)
		req.Header.Set("Accept", "text/html")
		rec := httptest.NewRecorder()

		guard.RequireSession(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Fatal("next must not be called")
		})).ServeHTTP(rec, req)

		require.Equal(t, http.StatusSeeOther, rec.Code)
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, secure, cookies[0].Secure)
		assert.True(t, cookies[0].HttpOnly)
	}
}

func TestRequireSession_ClientGone(t *testing.T) {
	v := new(ValidatorMock)
	ctx, cancel := context.WithCancel(context.Background())
	v.On("ValidateToken", mock.Anything, "slow").Run(func(mock.Arguments) {
		cancel()
	}).Return(nil, context.Canceled)

	guard := middlewarectx.NewGuard(newNoopLogger(), v, "/login", time.Second, false)
	req := httptest.NewRequest(http.MethodGet, "/home", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer slow")
	rec := httptest.NewRecorder()

	guard.RequireSession(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("next must not be called")
	})).ServeHTTP(rec, req)

	assert.Empty(t, rec.Body.String())
	assert.Empty(t, rec.Header().Get("Location"))
}

func TestGuardResolve(t *testing.T) {
	v := new(ValidatorMock)
	guard := middlewarectx.NewGuard(newNoopLogger(), v, "/signin", time.Second, false)

	out := guard.Resolve(httptest.NewRequest(http.MethodGet, "/api/v1/session", nil))

	assert.Equal(t, gate.Unauthorized, out.State)
	assert.Equal(t, gate.ViewNothing, out.View)
	assert.Equal(t, "/signin", out.Redirect)
	assert.Equal(t, gate.NoticeSignIn, out.Notice)
	assert.Nil(t, out.Session)
}

func TestRequireLicense(t *testing.T) {
	session := &models.Session{UserID: "u1", Role: models.RoleUser}

	tests := []struct {
		name       string
		session    *models.Session
		eval       license.Evaluation
		wantStatus int
		wantCalled bool
		wantLevel  string
		wantDays   string
	}{
		{
			name:       "trial active",
			session:    session,
			eval:       license.Evaluation{Level: license.TrialActive, TrialDaysRemaining: 3},
			wantStatus: http.StatusOK,
			wantCalled: true,
			wantLevel:  "trial-active",
			wantDays:   "3",
		},
		{
			name:       "lifetime",
			session:    session,
			eval:       license.Evaluation{Level: license.LifetimeAccess},
			wantStatus: http.StatusOK,
			wantCalled: true,
			wantLevel:  "lifetime",
			wantDays:   "0",
		},
		{
			name:       "trial expired",
			session:    session,
			eval:       license.Evaluation{Level: license.TrialExpired},
			wantStatus: http.StatusPaymentRequired,
			wantLevel:  "trial-expired",
			wantDays:   "0",
		},
		{
			name:       "no session",
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := new(EvaluatorMock)
			if tt.session != nil {
				ev.On("Evaluate", mock.Anything, tt.session.UserID).Return(tt.eval, nil).Once()
			}

			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				got, ok := middlewarectx.EvaluationFrom(r.Context())
				require.True(t, ok)
				assert.Equal(t, tt.eval, got)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/v1/campaigns", nil)
			if tt.session != nil {
				req = req.WithContext(middlewarectx.WithSession(req.Context(), tt.session))
			}
			rec := httptest.NewRecorder()

			middlewarectx.RequireLicense(newNoopLogger(), ev, "/api/v1/receipts")(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCalled, called)
			assert.Equal(t, tt.wantLevel, rec.Header().Get(middlewarectx.HeaderAccessLevel))
			assert.Equal(t, tt.wantDays, rec.Header().Get(middlewarectx.HeaderTrialDays))
			if tt.wantStatus == http.StatusPaymentRequired {
				assert.Contains(t, rec.Body.String(), `"upload_url":"/api/v1/receipts"`)
			}
			ev.AssertExpectations(t)
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name       string
		session    *models.Session
		wantStatus int
	}{
		{name: "admin", session: &models.Session{UserID: "a", Role: models.RoleAdmin}, wantStatus: http.StatusOK},
		{name: "user", session: &models.Session{UserID: "u", Role: models.RoleUser}, wantStatus: http.StatusForbidden},
		{name: "anonymous", wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/receipts", nil)
			if tt.session != nil {
				req = req.WithContext(middlewarectx.WithSession(req.Context(), tt.session))
			}
			rec := httptest.NewRecorder()
			next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

			middlewarectx.RequireAdmin(newNoopLogger())(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestRateLimiter(t *testing.T) {
	limiter := middlewarectx.NewRateLimiter(newNoopLogger(), rate.Every(time.Hour), 2)
	h := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/login", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do("10.0.0.1:1000"))
	assert.Equal(t, http.StatusOK, do("10.0.0.1:1001"))
	assert.Equal(t, http.StatusTooManyRequests, do("10.0.0.1:1002"))
	assert.Equal(t, http.StatusOK, do("10.0.0.2:1000"))
}

func TestTokenFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, middlewarectx.TokenFromRequest(req))

	req.AddCookie(&http.Cookie{Name: middlewarectx.SessionCookie, Value: "from-cookie"})
	assert.Equal(t, "from-cookie", middlewarectx.TokenFromRequest(req))

	req.Header.Set("Authorization", "Bearer from-header")
	assert.Equal(t, "from-header", middlewarectx.TokenFromRequest(req))
}

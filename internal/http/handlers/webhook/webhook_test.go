package webhook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/ugc-tracker/internal/models"
	services "github.com/magabrotheeeer/ugc-tracker/internal/services/payment"
	"github.com/magabrotheeeer/ugc-tracker/internal/storage/repository"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) ProcessWebhookEvent(ctx context.Context, payload *models.WebhookPayload) (bool, error) {
	args := m.Called(ctx, payload)
	return args.Bool(0), args.Error(1)
}

const secret = "whsec"

func TestWebhookHandler(t *testing.T) {
	body := []byte(`{"event":"payment.succeeded","object":{"id":"p1","status":"succeeded","metadata":{"user_uid":"u1"}}}`)

	tests := []struct {
		name      string
		body      []byte
		signature string
		mockCall  bool
		granted   bool
		mockErr   error
		wantCode  int
	}{
		{name: "granted", body: body, signature: Sign([]byte(secret), body), mockCall: true, granted: true, wantCode: http.StatusOK},
		{name: "missing signature", body: body, wantCode: http.StatusUnauthorized},
		{name: "wrong signature", body: body, signature: Sign([]byte("other"), body), wantCode: http.StatusUnauthorized},
		{name: "bad json", body: []byte(`{`), signature: Sign([]byte(secret), []byte(`{`)), wantCode: http.StatusBadRequest},
		{name: "no user", body: body, signature: Sign([]byte(secret), body), mockCall: true, mockErr: services.ErrMissingUser, wantCode: http.StatusUnprocessableEntity},
		{name: "unknown user", body: body, signature: Sign([]byte(secret), body), mockCall: true, mockErr: fmt.Errorf("x: %w", repository.ErrNotFound), wantCode: http.StatusUnprocessableEntity},
		{name: "db down", body: body, signature: Sign([]byte(secret), body), mockCall: true, mockErr: errors.New("db down"), wantCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			if tt.mockCall {
				svc.On("ProcessWebhookEvent", mock.Anything, mock.MatchedBy(func(p *models.WebhookPayload) bool {
					return p.Event == "payment.succeeded" && p.Object.Metadata["user_uid"] == "u1"
				})).Return(tt.granted, tt.mockErr).Once()
			}
			h := New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc, secret)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", bytes.NewReader(tt.body))
			if tt.signature != "" {
				req.Header.Set(SignatureHeader, tt.signature)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.granted {
				assert.Contains(t, rec.Body.String(), `"granted":true`)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestWebhookHandler_NoSecretRejectsAll(t *testing.T) {
	body := []byte(`{"event":"payment.succeeded"}`)
	h := New(slog.New(slog.NewTextHandler(io.Discard, nil)), new(ServiceMock), "")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", bytes.NewReader(body))
	req.Header.Set(SignatureHeader, Sign(nil, body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

package catalog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/ugc-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/ugc-tracker/internal/models"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) CreateProduct(ctx context.Context, userID string, in models.DummyProduct) (int64, error) {
	args := m.Called(ctx, userID, in)
	return args.Get(0).(int64), args.Error(1)
}

func (m *ServiceMock) ListProducts(ctx context.Context, userID string) ([]*models.Product, error) {
	args := m.Called(ctx, userID)
	l, _ := args.Get(0).([]*models.Product)
	return l, args.Error(1)
}

func (m *ServiceMock) CreateCreator(ctx context.Context, userID string, in models.DummyCreator) (int64, error) {
	args := m.Called(ctx, userID, in)
	return args.Get(0).(int64), args.Error(1)
}

func (m *ServiceMock) ListCreators(ctx context.Context, userID string) ([]*models.Creator, error) {
	args := m.Called(ctx, userID)
	l, _ := args.Get(0).([]*models.Creator)
	return l, args.Error(1)
}

func request(method, path, body string) *http.Request {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	r := httptest.NewRequest(method, path, rd)
	return r.WithContext(middlewarectx.WithSession(r.Context(), &models.Session{UserID: "u1"}))
}

func newHandler(svc Service) *Handler {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc)
}

func TestHandler_CreateProduct(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		mockCall bool
		mockErr  error
		wantCode int
	}{
		{name: "created", body: `{"name":"Serum","cost_price":12.5}`, mockCall: true, wantCode: http.StatusCreated},
		{name: "negative price", body: `{"name":"Serum","cost_price":-1}`, wantCode: http.StatusUnprocessableEntity},
		{name: "missing name", body: `{"cost_price":1}`, wantCode: http.StatusUnprocessableEntity},
		{name: "db down", body: `{"name":"Serum","cost_price":12.5}`, mockCall: true, mockErr: errors.New("db down"), wantCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			if tt.mockCall {
				svc.On("CreateProduct", mock.Anything, "u1", models.DummyProduct{Name: "Serum", CostPrice: 12.5}).Return(int64(1), tt.mockErr).Once()
			}
			rec := httptest.NewRecorder()
			newHandler(svc).CreateProduct(rec, request(http.MethodPost, "/api/v1/products", tt.body))
			assert.Equal(t, tt.wantCode, rec.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestHandler_CreateCreator(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		mockCall bool
		wantCode int
	}{
		{name: "created", body: `{"name":"Ann","handle":"@ann","platform":"tiktok","email":"ann@example.com"}`, mockCall: true, wantCode: http.StatusCreated},
		{name: "bad email", body: `{"name":"Ann","handle":"@ann","platform":"tiktok","email":"ann"}`, wantCode: http.StatusUnprocessableEntity},
		{name: "missing platform", body: `{"name":"Ann","handle":"@ann"}`, wantCode: http.StatusUnprocessableEntity},
		{name: "bad json", body: `{`, wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			if tt.mockCall {
				svc.On("CreateCreator", mock.Anything, "u1", models.DummyCreator{
					Name: "Ann", Handle: "@ann", Platform: "tiktok", Email: "ann@example.com",
				}).Return(int64(2), nil).Once()
			}
			rec := httptest.NewRecorder()
			newHandler(svc).CreateCreator(rec, request(http.MethodPost, "/api/v1/creators", tt.body))
			assert.Equal(t, tt.wantCode, rec.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestHandler_Lists(t *testing.T) {
	svc := new(ServiceMock)
	svc.On("ListProducts", mock.Anything, "u1").Return([]*models.Product{{ID: 1, Name: "Serum"}}, nil).Once()
	svc.On("ListCreators", mock.Anything, "u1").Return(nil, errors.New("db down")).Once()
	h := newHandler(svc)

	rec := httptest.NewRecorder()
	h.ListProducts(rec, request(http.MethodGet, "/api/v1/products", ""))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Serum")

	rec = httptest.NewRecorder()
	h.ListCreators(rec, request(http.MethodGet, "/api/v1/creators", ""))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	svc.AssertExpectations(t)
}

// Package licensestatus реализует обработчик GET /api/v1/license.
// Маршрут не закрыт пейволлом, чтобы пользователь с истёкшим пробным
// периодом мог узнать об этом и оплатить доступ.
package licensestatus

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/ugc-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/ugc-tracker/internal/http/response"
	"github.com/magabrotheeeer/ugc-tracker/internal/license"
	"github.com/magabrotheeeer/ugc-tracker/internal/models"
)

// Service оценивает лицензию пользователя.
type Service interface {
	Evaluate(ctx context.Context, userID string) (license.Evaluation, *models.License)
}

// Status ответ обработчика.
type Status struct {
	AccessLevel        string     `json:"access_level"`
	TrialDaysRemaining int        `json:"trial_days_remaining"`
	ShowPaywall        bool       `json:"show_paywall"`
	ShowBanner         bool       `json:"show_banner"`
	TrialEndDate       *time.Time `json:"trial_end_date,omitempty"`
	PaymentStatus      string     `json:"payment_status,omitempty"`
}

// Handler отдаёт статус лицензии.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Статус лицензии
// @Description Уровень доступа, остаток пробного периода, флаги пейволла и баннера.
// @Tags License
// @Produce json
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse
// @Router /api/v1/license [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.licensestatus"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	s, ok := middlewarectx.SessionFrom(r.Context())
	if !ok {
		log.Error("user identification missing")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("user identification missing"))
		return
	}

	eval, lic := h.service.Evaluate(r.Context(), s.UserID)
	status := Status{
		AccessLevel:        eval.Level.String(),
		TrialDaysRemaining: eval.TrialDaysRemaining,
		ShowPaywall:        eval.ShowPaywall(),
		ShowBanner:         eval.ShowBanner(),
	}
	if lic != nil {
		status.TrialEndDate = lic.TrialEndDate
		status.PaymentStatus = string(lic.PaymentStatus)
	}
	render.JSON(w, r, response.OKWithData(status))
}

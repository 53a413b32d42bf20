// Package webhook реализует приём уведомлений платёжного шлюза.
//
// Тело запроса подписывается шлюзом HMAC-SHA256 с общим секретом; подпись
// в base64 приходит в заголовке X-Api-Signature.
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/ugc-tracker/internal/http/response"
	"github.com/magabrotheeeer/ugc-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/ugc-tracker/internal/models"
	services "github.com/magabrotheeeer/ugc-tracker/internal/services/payment"
	"github.com/magabrotheeeer/ugc-tracker/internal/storage/repository"
)

// SignatureHeader заголовок с подписью тела запроса.
const SignatureHeader = "X-Api-Signature"

const maxBodySize = 1 << 20

// Service обрабатывает событие шлюза.
type Service interface {
	ProcessWebhookEvent(ctx context.Context, payload *models.WebhookPayload) (bool, error)
}

// Handler принимает уведомления шлюза.
type Handler struct {
	log     *slog.Logger
	service Service
	secret  []byte
}

// New создает новый Handler.
func New(log *slog.Logger, service Service, secret string) *Handler {
	return &Handler{log: log, service: service, secret: []byte(secret)}
}

// Sign возвращает подпись тела в формате заголовка X-Api-Signature.
func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func (h *Handler) verify(body []byte, signature string) bool {
	if len(h.secret) == 0 || signature == "" {
		return false
	}
	return hmac.Equal([]byte(Sign(h.secret, body)), []byte(signature))
}

// ServeHTTP godoc
// @Summary Уведомление платёжного шлюза
// @Description payment.succeeded с metadata.user_uid выдаёт пожизненный доступ, остальные события подтверждаются.
// @Tags Payments
// @Accept json
// @Produce json
// @Param X-Api-Signature header string true "base64 HMAC-SHA256 тела"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse "Неверная подпись"
// @Failure 422 {object} response.ErrorResponse "Платёж не относится к известному пользователю"
// @Router /api/v1/payments/webhook [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.webhook"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if !h.verify(body, r.Header.Get(SignatureHeader)) {
		log.Warn("invalid or missing webhook signature")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("invalid signature"))
		return
	}

	var payload models.WebhookPayload
	if err = json.Unmarshal(body, &payload); err != nil {
		log.Error("failed to unmarshal webhook payload", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	granted, err := h.service.ProcessWebhookEvent(r.Context(), &payload)
	switch {
	case errors.Is(err, services.ErrMissingUser), errors.Is(err, repository.ErrNotFound):
		log.Warn("payment without known user", slog.String("payment_id", payload.Object.ID), sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("payment is not linked to a known user"))
		return
	case err != nil:
		log.Error("failed to process webhook event", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	log.Info("webhook processed", slog.String("event", payload.Event), slog.String("payment_id", payload.Object.ID))
	render.JSON(w, r, response.OKWithData(map[string]any{"granted": granted}))
}

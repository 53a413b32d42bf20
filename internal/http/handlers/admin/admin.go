// Package admin реализует административные HTTP-обработчики: прямую выдачу
// пожизненного доступа и удаление аккаунта пользователя.
package admin

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/ugc-tracker/internal/http/response"
	"github.com/magabrotheeeer/ugc-tracker/internal/lib/sl"
	services "github.com/magabrotheeeer/ugc-tracker/internal/services/receipt"
	"github.com/magabrotheeeer/ugc-tracker/internal/storage/repository"
)

// LicenseService выдаёт пожизненный доступ.
type LicenseService interface {
	GrantLifetime(ctx context.Context, userID string) error
}

// AccountService удаляет аккаунты.
type AccountService interface {
	DeleteAccount(ctx context.Context, userID string) error
}

// Handler обрабатывает административные запросы по пользователям.
type Handler struct {
	log      *slog.Logger
	licenses LicenseService
	accounts AccountService
}

// New создает новый Handler.
func New(log *slog.Logger, licenses LicenseService, accounts AccountService) *Handler {
	return &Handler{log: log, licenses: licenses, accounts: accounts}
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	uid := chi.URLParam(r, "uid")
	if _, err := uuid.Parse(uid); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("field uid can contain only uuid"))
		return "", false
	}
	return uid, true
}

// GrantLifetime godoc
// @Summary Выдать пожизненный доступ
// @Tags Admin
// @Produce json
// @Param uid path string true "UUID пользователя"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /api/v1/admin/users/{uid}/lifetime [post]
func (h *Handler) GrantLifetime(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.GrantLifetime"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	uid, ok := h.userID(w, r)
	if !ok {
		return
	}
	err := h.licenses.GrantLifetime(r.Context(), uid)
	if errors.Is(err, repository.ErrNotFound) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("user not found"))
		return
	}
	if err != nil {
		log.Error("failed to grant lifetime access", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to grant lifetime access"))
		return
	}

	log.Info("lifetime access granted", slog.String("user_id", uid))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"user_id":      uid,
		"access_level": "lifetime",
	}))
}

// DeleteUser godoc
// @Summary Удалить аккаунт
// @Description Квитанции помечаются deleted, файлы удаляются, лицензия и пользователь удаляются.
// @Tags Admin
// @Produce json
// @Param uid path string true "UUID пользователя"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /api/v1/admin/users/{uid} [delete]
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.DeleteUser"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	uid, ok := h.userID(w, r)
	if !ok {
		return
	}
	err := h.accounts.DeleteAccount(r.Context(), uid)
	if errors.Is(err, services.ErrUserNotFound) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("user not found"))
		return
	}
	if err != nil {
		log.Error("failed to delete account", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to delete account"))
		return
	}

	log.Info("account deleted", slog.String("user_id", uid))
	render.JSON(w, r, response.OK())
}

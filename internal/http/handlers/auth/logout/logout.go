// Package logout реализует HTTP-обработчик выхода: токен отзывается до
// окончания срока действия, cookie сессии удаляется.
package logout

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/ugc-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/ugc-tracker/internal/http/response"
	"github.com/magabrotheeeer/ugc-tracker/internal/lib/jwt"
	"github.com/magabrotheeeer/ugc-tracker/internal/lib/sl"
)

// Service отзывает токен.
type Service interface {
	Logout(ctx context.Context, token string) error
}

// Handler обрабатывает запросы выхода.
type Handler struct {
	log     *slog.Logger
	service Service
	secure  bool
}

// New создает новый Handler. secure ставит флаг Secure на очищающую cookie.
func New(log *slog.Logger, service Service, secure bool) *Handler {
	return &Handler{log: log, service: service, secure: secure}
}

// ServeHTTP godoc
// @Summary Выход пользователя
// @Description Отзывает JWT. Следующие запросы к защищённым маршрутам перенаправляются на вход.
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse "Токен отсутствует или недействителен"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /api/v1/logout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.logout"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	http.SetCookie(w, middlewarectx.NewCookie(middlewarectx.SessionCookie, "", -1, h.secure))

	token := middlewarectx.TokenFromRequest(r)
	if token == "" {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("missing token"))
		return
	}

	err := h.service.Logout(r.Context(), token)
	if errors.Is(err, jwt.ErrInvalidToken) {
		log.Info("logout with invalid token")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("invalid token"))
		return
	}
	if err != nil {
		log.Error("failed to revoke token", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	log.Info("token revoked")
	render.JSON(w, r, response.OK())
}

// Package login реализует HTTP-обработчик входа пользователя.
//
// При успешной проверке пароля возвращает JWT в теле ответа и ставит его
// в HttpOnly cookie для браузерных клиентов.
package login

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/ugc-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/ugc-tracker/internal/http/response"
	"github.com/magabrotheeeer/ugc-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/ugc-tracker/internal/models"
	services "github.com/magabrotheeeer/ugc-tracker/internal/services/auth"
)

// Request учетные данные пользователя.
type Request struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Service описывает вход пользователя.
type Service interface {
	Login(ctx context.Context, email, password string) (string, *models.Session, error)
}

// Handler обрабатывает запросы входа.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
	tokenTTL time.Duration
	home     string
	secure   bool
}

// New создает новый Handler. tokenTTL задаёт срок жизни cookie сессии,
// home: куда вести клиента после входа, если в запросе нет next; secure
// ставит флаг Secure на cookie сессии.
func New(log *slog.Logger, service Service, tokenTTL time.Duration, home string, secure bool) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
		tokenTTL: tokenTTL,
		home:     home,
		secure:   secure,
	}
}

// returnTo возвращает локальный путь из ?next=, иначе домашний маршрут.
func (h *Handler) returnTo(r *http.Request) string {
	next := r.URL.Query().Get("next")
	if isLocalPath(next) {
		return next
	}
	return h.home
}

// isLocalPath принимает только путь этого сайта. Браузеры читают `\` как `/`
// и выбрасывают управляющие символы, поэтому `/\host` и `/\t/host` тоже
// считаются ссылками на чужой хост.
func isLocalPath(next string) bool {
	if len(next) == 0 || next[0] != '/' {
		return false
	}
	if len(next) > 1 && (next[1] == '/' || next[1] == '\\') {
		return false
	}
	if strings.ContainsFunc(next, func(c rune) bool { return c < 0x20 || c == 0x7f }) {
		return false
	}
	u, err := url.Parse(next)
	if err != nil {
		return false
	}
	return u.Scheme == "" && u.Host == "" && strings.HasPrefix(u.Path, "/")
}

// ServeHTTP godoc
// @Summary Вход пользователя
// @Description Проверяет email и пароль, возвращает JWT и ставит cookie сессии.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body Request true "Учетные данные пользователя"
// @Param next query string false "Маршрут возврата после входа"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Неверные учетные данные"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /api/v1/login [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	token, session, err := h.service.Login(r.Context(), req.Email, req.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		log.Info("invalid credentials")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("invalid credentials"))
		return
	}
	if err != nil {
		log.Error("login failed", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	http.SetCookie(w, middlewarectx.NewCookie(middlewarectx.SessionCookie, token, int(h.tokenTTL.Seconds()), h.secure))

	log.Info("login success", slog.String("user_id", session.UserID))
	resp := response.OKWithData(map[string]any{
		"token":   token,
		"session": session,
	})
	resp.Redirect = h.returnTo(r)
	render.JSON(w, r, resp)
}

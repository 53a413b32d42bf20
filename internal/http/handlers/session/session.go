// Package session реализует обработчик GET /api/v1/session: отчёт гейта
// о состоянии сессии текущего запроса.
package session

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/ugc-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/ugc-tracker/internal/http/response"
	"github.com/magabrotheeeer/ugc-tracker/internal/models"
)

// Resolver разрешает сессию запроса.
type Resolver interface {
	Resolve(r *http.Request) middlewarectx.Outcome
}

// Report состояние гейта для клиента.
type Report struct {
	State    string          `json:"state"`
	View     string          `json:"view"`
	Session  *models.Session `json:"session,omitempty"`
	Notice   string          `json:"notice,omitempty"`
	Redirect string          `json:"redirect,omitempty"`
}

// Handler отдаёт отчёт гейта.
type Handler struct {
	log      *slog.Logger
	resolver Resolver
}

// New создает новый Handler.
func New(log *slog.Logger, resolver Resolver) *Handler {
	return &Handler{log: log, resolver: resolver}
}

// ServeHTTP godoc
// @Summary Состояние сессии
// @Description Возвращает состояние гейта, отображение и данные пользователя.
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Response
// @Router /api/v1/session [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.session"

	out := h.resolver.Resolve(r)
	if r.Context().Err() != nil {
		return
	}
	h.log.Debug("session resolved",
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("state", out.State.String()),
	)

	render.JSON(w, r, response.OKWithData(Report{
		State:    out.State.String(),
		View:     out.View.String(),
		Session:  out.Session,
		Notice:   out.Notice,
		Redirect: out.Redirect,
	}))
}

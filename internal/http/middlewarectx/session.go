package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/ugc-tracker/internal/gate"
	"github.com/magabrotheeeer/ugc-tracker/internal/http/response"
	"github.com/magabrotheeeer/ugc-tracker/internal/lib/metrics"
	"github.com/magabrotheeeer/ugc-tracker/internal/models"
)

// TokenValidator проверяет JWT: локальный AuthService или gRPC-клиент.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*models.Session, error)
}

// Outcome итог работы гейта для одного запроса.
type Outcome struct {
	State    gate.State
	View     gate.View
	Session  *models.Session
	Notice   string
	Redirect string
}

// Guard строит гейт сессии на каждый запрос.
type Guard struct {
	log        *slog.Logger
	validator  TokenValidator
	loginRoute string
	timeout    time.Duration
	secure     bool
}

// NewGuard создаёт Guard. Пустой loginRoute и нулевой timeout заменяются
// значениями гейта по умолчанию. secure ставит флаг Secure на cookie уведомления.
func NewGuard(log *slog.Logger, validator TokenValidator, loginRoute string, timeout time.Duration, secure bool) *Guard {
	return &Guard{
		log:        log,
		validator:  validator,
		loginRoute: loginRoute,
		timeout:    timeout,
		secure:     secure,
	}
}

type tokenProvider struct {
	validator TokenValidator
	token     string
}

func (p tokenProvider) Resolve(ctx context.Context) (*models.Session, error) {
	if p.token == "" {
		return nil, nil
	}
	return p.validator.ValidateToken(ctx, p.token)
}

type recorder struct {
	notice string
	target string
}

func (r *recorder) Notify(_ context.Context, msg string) { r.notice = msg }
func (r *recorder) Replace(target string)                { r.target = target }

// Resolve разрешает сессию запроса. Уведомление и редирект не пишутся в
// ответ, а возвращаются в Outcome.
func (g *Guard) Resolve(r *http.Request) Outcome {
	return g.resolve(r, "")
}

func (g *Guard) resolve(r *http.Request, returnTo string) Outcome {
	rec := &recorder{}
	gt := gate.New(
		tokenProvider{validator: g.validator, token: TokenFromRequest(r)},
		rec, rec,
		gate.WithTimeout(g.timeout),
		gate.WithLoginRoute(g.loginRoute),
		gate.WithReturnTo(returnTo),
		gate.WithLogger(g.log),
	)
	defer gt.Unmount()

	state := gt.Resolve(r.Context())
	if state != gate.Unresolved {
		metrics.GateOutcomes.WithLabelValues(state.String()).Inc()
	}
	return Outcome{
		State:    state,
		View:     gate.ViewFor(state),
		Session:  gt.Session(),
		Notice:   rec.notice,
		Redirect: rec.target,
	}
}

// RequireSession пропускает запрос дальше только с действующей сессией.
//
// Без сессии браузер получает 303 на страницу входа с flash-cookie
// уведомления, остальные клиенты получают 401 с полем redirect. Если клиент
// ушёл до завершения проверки, ответ не пишется.
func (g *Guard) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		const op = "middlewarectx.RequireSession"
		log := g.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		out := g.resolve(r, r.URL.RequestURI())
		switch out.State {
		case gate.Authorized:
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), out.Session)))
			return
		case gate.Unresolved:
			log.Debug("client went away during session resolution")
			return
		}

		if out.Redirect == "" {
			return
		}
		if wantsHTML(r) {
			http.SetCookie(w, NewCookie(NoticeCookie, url.QueryEscape(out.Notice), 60, g.secure))
			http.Redirect(w, r, out.Redirect, http.StatusSeeOther)
			return
		}
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Redirect(out.Notice, out.Redirect))
	})
}

// Package middlewarectx содержит HTTP middleware дашборда: гейт сессии,
// проверку лицензии, проверку роли администратора и ограничение частоты
// запросов. Результаты проверок передаются обработчикам через контекст.
package middlewarectx

import (
	"context"
	"net/http"
	"strings"

	"github.com/magabrotheeeer/ugc-tracker/internal/license"
	"github.com/magabrotheeeer/ugc-tracker/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// SessionKey ключ сессии пользователя.
	SessionKey Key = "session"
	// EvaluationKey ключ результата оценки лицензии.
	EvaluationKey Key = "license_evaluation"
)

// SessionCookie имя cookie с JWT для браузерных клиентов.
const SessionCookie = "ugc_session"

// NoticeCookie имя flash-cookie с уведомлением для страницы входа.
const NoticeCookie = "ugc_notice"

// WithSession кладёт сессию в контекст.
func WithSession(ctx context.Context, s *models.Session) context.Context {
	return context.WithValue(ctx, SessionKey, s)
}

// SessionFrom возвращает сессию из контекста.
func SessionFrom(ctx context.Context) (*models.Session, bool) {
	s, ok := ctx.Value(SessionKey).(*models.Session)
	return s, ok && s != nil
}

// WithEvaluation кладёт оценку лицензии в контекст.
func WithEvaluation(ctx context.Context, e license.Evaluation) context.Context {
	return context.WithValue(ctx, EvaluationKey, e)
}

// EvaluationFrom возвращает оценку лицензии из контекста.
func EvaluationFrom(ctx context.Context) (license.Evaluation, bool) {
	e, ok := ctx.Value(EvaluationKey).(license.Evaluation)
	return e, ok
}

// TokenFromRequest извлекает JWT из заголовка Authorization или cookie.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// NewCookie строит HttpOnly cookie дашборда; secure добавляет флаг Secure.
func NewCookie(name, value string, maxAge int, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// wantsHTML сообщает, что клиент - браузер, ожидающий страницу.
func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/ugc-tracker/internal/http/response"
	"github.com/magabrotheeeer/ugc-tracker/internal/license"
	"github.com/magabrotheeeer/ugc-tracker/internal/models"
)

const (
	// HeaderAccessLevel уровень доступа пользователя.
	HeaderAccessLevel = "X-Access-Level"
	// HeaderTrialDays оставшиеся дни пробного периода.
	HeaderTrialDays = "X-Trial-Days-Remaining"
)

// LicenseEvaluator оценивает лицензию пользователя. Ошибки чтения лицензии
// реализация трактует как отсутствие лицензии.
type LicenseEvaluator interface {
	Evaluate(ctx context.Context, userID string) (license.Evaluation, *models.License)
}

// Paywall тело ответа 402.
type Paywall struct {
	AccessLevel string `json:"access_level"`
	UploadURL   string `json:"upload_url"`
}

// RequireLicense блокирует запросы пользователей с истёкшим пробным периодом.
// Должен стоять после RequireSession.
func RequireLicense(log *slog.Logger, evaluator LicenseEvaluator, uploadURL string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.RequireLicense"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			session, ok := SessionFrom(r.Context())
			if !ok {
				log.Error("user identification missing")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("user identification missing"))
				return
			}

			eval, _ := evaluator.Evaluate(r.Context(), session.UserID)
			w.Header().Set(HeaderAccessLevel, eval.Level.String())
			w.Header().Set(HeaderTrialDays, strconv.Itoa(eval.TrialDaysRemaining))

			if eval.ShowPaywall() {
				log.Info("trial expired, paywall shown", slog.String("user_id", session.UserID))
				render.Status(r, http.StatusPaymentRequired)
				render.JSON(w, r, response.ErrorWithData("trial expired", Paywall{
					AccessLevel: eval.Level.String(),
					UploadURL:   uploadURL,
				}))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithEvaluation(r.Context(), eval)))
		})
	}
}

// RequireAdmin пропускает только администраторов. Должен стоять после
// RequireSession.
func RequireAdmin(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := SessionFrom(r.Context())
			if !ok || !session.IsAdmin() {
				log.Warn("admin access denied",
					slog.String("op", "middlewarectx.RequireAdmin"),
					slog.String("request_id", middleware.GetReqID(r.Context())),
				)
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("admin access required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

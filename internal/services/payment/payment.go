// Package services обрабатывает события платёжного шлюза.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/ugc-tracker/internal/models"
)

// События платёжного шлюза.
const (
	EventPaymentSucceeded = "payment.succeeded"
	EventPaymentCanceled  = "payment.canceled"
	EventPaymentRefunded  = "payment.refunded"
)

// ErrMissingUser в метаданных платежа нет user_uid.
var ErrMissingUser = errors.New("payment metadata has no user_uid")

// LicenseGranter выдаёт пожизненный доступ.
type LicenseGranter interface {
	GrantLifetime(ctx context.Context, userID string) error
}

// PaymentService принимает решения по событиям шлюза.
type PaymentService struct {
	licenses LicenseGranter
	log      *slog.Logger
}

// New создает новый экземпляр PaymentService.
func New(licenses LicenseGranter, log *slog.Logger) *PaymentService {
	return &PaymentService{licenses: licenses, log: log}
}

// ProcessWebhookEvent выдаёт пожизненный доступ по успешному платежу.
// Прочие события подтверждаются без изменений. Повторная доставка безопасна.
func (s *PaymentService) ProcessWebhookEvent(ctx context.Context, payload *models.WebhookPayload) (bool, error) {
	const op = "services.payment.ProcessWebhookEvent"
	if strings.ToLower(payload.Event) != EventPaymentSucceeded {
		s.log.Info("ignored webhook event", slog.String("event", payload.Event), slog.String("payment_id", payload.Object.ID))
		return false, nil
	}

	userID := strings.TrimSpace(payload.Object.Metadata["user_uid"])
	if userID == "" {
		return false, fmt.Errorf("%s: %w", op, ErrMissingUser)
	}
	if err := s.licenses.GrantLifetime(ctx, userID); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("lifetime access granted by payment",
		slog.String("user_id", userID), slog.String("payment_id", payload.Object.ID))
	return true, nil
}

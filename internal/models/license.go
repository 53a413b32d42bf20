package models

import (
	"errors"
	"fmt"
	"time"
)

// PaymentStatus статус оплаты лицензии.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
)

// ParsePaymentStatus разбирает статус оплаты, пришедший из хранилища.
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch PaymentStatus(s) {
	case PaymentPending, PaymentCompleted:
		return PaymentStatus(s), nil
	}
	return "", fmt.Errorf("unknown payment status %q", s)
}

// ErrLifetimeNotPaid возвращается, если пожизненный доступ выдан без завершённой оплаты.
var ErrLifetimeNotPaid = errors.New("lifetime access requires completed payment")

// License: одна запись на пользователя: пробный период и пожизненный доступ.
// TrialEndDate может быть nil, если пробное окно не назначено.
type License struct {
	UserID            string        `json:"user_id"`
	TrialStartDate    *time.Time    `json:"trial_start_date,omitempty"`
	TrialEndDate      *time.Time    `json:"trial_end_date,omitempty"`
	HasLifetimeAccess bool          `json:"has_lifetime_access"`
	PaymentStatus     PaymentStatus `json:"payment_status"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// Validate проверяет инвариант: пожизненный доступ только при completed.
func (l *License) Validate() error {
	if l.HasLifetimeAccess && l.PaymentStatus != PaymentCompleted {
		return ErrLifetimeNotPaid
	}
	return nil
}

// NewTrialLicense создаёт лицензию с пробным окном [now, now+period).
func NewTrialLicense(userID string, now time.Time, period time.Duration) License {
	start := now.UTC()
	end := start.Add(period)
	return License{
		UserID:         userID,
		TrialStartDate: &start,
		TrialEndDate:   &end,
		PaymentStatus:  PaymentPending,
		UpdatedAt:      start,
	}
}

// TrialExpiring сообщение в очередь уведомлений об окончании пробного периода.
type TrialExpiring struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	TrialEndDate time.Time `json:"trial_end_date"`
	DaysLeft     int       `json:"days_left"`
}

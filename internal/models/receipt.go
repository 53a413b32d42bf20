package models

import (
	"fmt"
	"time"
)

// ReceiptStatus статус квитанции о банковском переводе.
type ReceiptStatus string

const (
	ReceiptPending  ReceiptStatus = "pending"
	ReceiptApproved ReceiptStatus = "approved"
	ReceiptRejected ReceiptStatus = "rejected"
	ReceiptDeleted  ReceiptStatus = "deleted"
)

// ParseReceiptStatus разбирает статус квитанции.
func ParseReceiptStatus(s string) (ReceiptStatus, error) {
	switch ReceiptStatus(s) {
	case ReceiptPending, ReceiptApproved, ReceiptRejected, ReceiptDeleted:
		return ReceiptStatus(s), nil
	}
	return "", fmt.Errorf("unknown receipt status %q", s)
}

// CanTransition сообщает, допустим ли переход статуса квитанции.
// Решение администратора возможно только из pending, удаление аккаунта
// переводит в deleted любую ещё не удалённую квитанцию.
func (s ReceiptStatus) CanTransition(to ReceiptStatus) bool {
	switch to {
	case ReceiptApproved, ReceiptRejected:
		return s == ReceiptPending
	case ReceiptDeleted:
		return s != ReceiptDeleted
	}
	return false
}

// PaymentReceipt подтверждение оплаты, загруженное пользователем.
// После выхода из pending меняется только поле Status.
type PaymentReceipt struct {
	ID         int64         `json:"id"`
	UserID     string        `json:"user_id"`
	FilePath   string        `json:"file_path"`
	Amount     float64       `json:"amount"`
	Status     ReceiptStatus `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
	ReviewedAt *time.Time    `json:"reviewed_at,omitempty"`
	ReviewedBy *string       `json:"reviewed_by,omitempty"`
}

// DummyReceiptDecision тело запроса администратора на решение по квитанции.
type DummyReceiptDecision struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
}

// ReceiptDecided сообщение в очередь уведомлений о решении по квитанции.
type ReceiptDecided struct {
	ReceiptID int64         `json:"receipt_id"`
	UserID    string        `json:"user_id"`
	Email     string        `json:"email"`
	Status    ReceiptStatus `json:"status"`
}

package models

import (
	"fmt"
	"time"
)

// CampaignStatus статус кампании.
type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "draft"
	CampaignActive    CampaignStatus = "active"
	CampaignCompleted CampaignStatus = "completed"
	CampaignUpcoming  CampaignStatus = "upcoming"
)

// ParseCampaignStatus разбирает статус кампании.
func ParseCampaignStatus(s string) (CampaignStatus, error) {
	switch CampaignStatus(s) {
	case CampaignDraft, CampaignActive, CampaignCompleted, CampaignUpcoming:
		return CampaignStatus(s), nil
	}
	return "", fmt.Errorf("unknown campaign status %q", s)
}

// Campaign маркетинговая кампания пользователя.
type Campaign struct {
	ID        int64          `json:"id"`
	UserID    string         `json:"user_id"`
	Name      string         `json:"name"`
	Status    CampaignStatus `json:"status"`
	StartDate *time.Time     `json:"start_date,omitempty"`
	EndDate   *time.Time     `json:"end_date,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Product товар, который получают креаторы.
type Product struct {
	ID        int64   `json:"id"`
	UserID    string  `json:"user_id"`
	Name      string  `json:"name"`
	CostPrice float64 `json:"cost_price"`
}

// Creator автор пользовательского контента.
type Creator struct {
	ID       int64  `json:"id"`
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	Handle   string `json:"handle"`
	Platform string `json:"platform"`
	Email    string `json:"email,omitempty"`
}

// CampaignExpense дополнительный расход кампании. Сумма хранится строкой
// в том виде, в котором её ввёл пользователь.
type CampaignExpense struct {
	ID          int64  `json:"id"`
	CampaignID  int64  `json:"campaign_id"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
}

// CampaignCostInputs данные кампании, необходимые для подсчёта стоимости.
type CampaignCostInputs struct {
	ProductCosts []float64
	CreatorCount int
	Expenses     []string
}

// DummyCampaign используется для приёма кампании из JSON-запроса.
// Даты приходят в формате 02-01-2006.
type DummyCampaign struct {
	Name      string `json:"name" validate:"required,max=200"`
	Status    string `json:"status" validate:"required,oneof=draft active completed upcoming"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}

// DummyProduct используется для приёма товара из JSON-запроса.
type DummyProduct struct {
	Name      string  `json:"name" validate:"required,max=200"`
	CostPrice float64 `json:"cost_price" validate:"gte=0"`
}

// DummyCreator используется для приёма креатора из JSON-запроса.
type DummyCreator struct {
	Name     string `json:"name" validate:"required,max=200"`
	Handle   string `json:"handle" validate:"required,max=100"`
	Platform string `json:"platform" validate:"required,max=50"`
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
}

// DummyExpense используется для приёма расхода из JSON-запроса.
// Сумма не валидируется: некорректное значение при подсчёте даёт ноль.
type DummyExpense struct {
	Description string `json:"description" validate:"required,max=500"`
	Amount      string `json:"amount"`
}

// DummyAttach используется для привязки товара или креатора к кампании.
type DummyAttach struct {
	ID int64 `json:"id" validate:"required,gt=0"`
}

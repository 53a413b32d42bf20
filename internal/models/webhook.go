package models

// WebhookPayload уведомление платёжного шлюза о событии по платежу.
type WebhookPayload struct {
	Event  string        `json:"event"`
	Object WebhookObject `json:"object"`
}

// WebhookObject платёж, к которому относится событие.
type WebhookObject struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Amount struct {
		Value    string `json:"value"`
		Currency string `json:"currency"`
	} `json:"amount"`
	Metadata map[string]string `json:"metadata"` // user_uid владельца платежа
}

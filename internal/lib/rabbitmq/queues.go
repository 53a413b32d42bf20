// Package rabbitmq содержит подключение к RabbitMQ, объявление очередей
// уведомлений, публикацию и потребление JSON-сообщений.
package rabbitmq

// Exchange обменник для всех уведомлений.
const Exchange = "notifications"

const (
	// RoutingTrialExpiring сообщение models.TrialExpiring.
	RoutingTrialExpiring = "trial.expiring"
	// RoutingReceiptDecided сообщение models.ReceiptDecided.
	RoutingReceiptDecided = "receipt.decided"
)

// QueueConfig очередь и ключ маршрутизации, по которому она привязана к Exchange.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetNotificationQueues возвращает очереди, которые читает sender.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "notification.trial_expiring", RoutingKey: RoutingTrialExpiring},
		{QueueName: "notification.receipt_decided", RoutingKey: RoutingReceiptDecided},
	}
}

// Package metrics содержит счётчики Prometheus, общие для сервисов.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GateOutcomes итоги разрешения сессии гейтом: authorized или unauthorized.
	GateOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ugc",
		Name:      "gate_outcomes_total",
		Help:      "Session gate resolutions by final state.",
	}, []string{"state"})

	// AccessLevels результаты оценки лицензии.
	AccessLevels = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ugc",
		Name:      "license_evaluations_total",
		Help:      "License evaluations by access level.",
	}, []string{"level"})

	// ReceiptDecisions решения администратора по квитанциям.
	ReceiptDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ugc",
		Name:      "receipt_decisions_total",
		Help:      "Payment receipt decisions by status.",
	}, []string{"status"})

	// NotificationsPublished опубликованные в брокер уведомления.
	NotificationsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ugc",
		Name:      "notifications_published_total",
		Help:      "Notifications published to the broker by routing key.",
	}, []string{"routing_key"})
)

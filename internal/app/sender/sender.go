// Package sender собирает процесс, который читает очереди уведомлений и
// отправляет письма по SMTP.
package sender

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/ugc-tracker/internal/config"
	"github.com/magabrotheeeer/ugc-tracker/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/ugc-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/ugc-tracker/internal/lib/smtp"
	senderservice "github.com/magabrotheeeer/ugc-tracker/internal/services/sender"
)

// App приложение рассылки уведомлений.
type App struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	handlers map[string]func([]byte) error
	logger   *slog.Logger
}

// New подключается к брокеру и готовит обработчики очередей.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.Retries, cfg.RabbitMQ.RetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	queues := rabbitmq.GetNotificationQueues()
	ch, err := rabbitmq.SetupChannel(conn, queues)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	senderService := senderservice.NewSenderService(smtp.NewTransport(cfg.SMTP, logger), logger)
	byRoute := map[string]func([]byte) error{
		rabbitmq.RoutingTrialExpiring:  senderService.SendTrialExpiring,
		rabbitmq.RoutingReceiptDecided: senderService.SendReceiptDecided,
	}
	handlers := make(map[string]func([]byte) error, len(queues))
	for _, q := range queues {
		handlers[q.QueueName] = byRoute[q.RoutingKey]
	}

	return &App{
		conn:     conn,
		ch:       ch,
		handlers: handlers,
		logger:   logger,
	}, nil
}

// Run запускает потребителей всех очередей и блокируется до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	for queue, handler := range a.handlers {
		if err := rabbitmq.ConsumerMessage(ctx, a.logger, a.ch, queue, handler); err != nil {
			a.logger.Error("failed to start consumer", slog.String("queue", queue), sl.Err(err))
			a.close()
			return err
		}
		a.logger.Info("consumer started", slog.String("queue", queue))
	}

	<-ctx.Done()
	a.logger.Info("sender service shutting down gracefully")
	a.close()
	return nil
}

func (a *App) close() {
	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
}

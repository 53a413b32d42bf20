// Package services периодически ищет пробные периоды, которые скоро
// закончатся, и публикует уведомления в брокер.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/ugc-tracker/internal/lib/metrics"
	"github.com/magabrotheeeer/ugc-tracker/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/ugc-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/ugc-tracker/internal/license"
	"github.com/magabrotheeeer/ugc-tracker/internal/models"
)

// LicenseRepository источник истекающих пробных периодов.
type LicenseRepository interface {
	FindTrialsExpiring(ctx context.Context, from, to time.Time) ([]models.TrialExpiring, error)
	MarkTrialNotified(ctx context.Context, userUID string, trialEnd time.Time) error
}

// Publisher публикует сообщения в брокер.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// SchedulerService планировщик уведомлений об окончании пробного периода.
type SchedulerService struct {
	repo      LicenseRepository
	publisher Publisher
	log       *slog.Logger
	interval  time.Duration
	ahead     time.Duration
	now       func() time.Time
}

// NewSchedulerService создает новый экземпляр SchedulerService.
func NewSchedulerService(repo LicenseRepository, publisher Publisher, interval, ahead time.Duration, log *slog.Logger) *SchedulerService {
	return &SchedulerService{
		repo:      repo,
		publisher: publisher,
		log:       log,
		interval:  interval,
		ahead:     ahead,
		now:       time.Now,
	}
}

// Run выполняет проверку сразу и затем с интервалом interval до отмены ctx.
func (s *SchedulerService) Run(ctx context.Context) {
	s.runFindExpiringTrials(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.runFindExpiringTrials(ctx)
		}
	}
}

func (s *SchedulerService) runFindExpiringTrials(ctx context.Context) {
	s.log.Info("starting scan for expiring trials")
	n, err := s.NotifyExpiringTrials(ctx)
	if err != nil {
		s.log.Error("failed to scan expiring trials", sl.Err(err))
		return
	}
	s.log.Info("expiring trials scan finished", slog.Int("published", n))
}

// NotifyExpiringTrials публикует trial.expiring для каждого пробного периода,
// который закончится до следующей проверки плюс ahead. Окна соседних проверок
// перекрываются, повторов нет: уведомлённое окончание помечается в хранилище.
// Возвращает число опубликованных сообщений.
func (s *SchedulerService) NotifyExpiringTrials(ctx context.Context) (int, error) {
	const op = "services.scheduler.NotifyExpiringTrials"
	now := s.now()
	trials, err := s.repo.FindTrialsExpiring(ctx, now, now.Add(s.ahead+s.interval))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if len(trials) == 0 {
		return 0, nil
	}

	published := 0
	for _, t := range trials {
		end := t.TrialEndDate
		ev := license.Evaluate(&models.License{TrialEndDate: &end}, now)
		if ev.Level != license.TrialActive {
			continue
		}
		t.DaysLeft = ev.TrialDaysRemaining

		if err = s.publisher.Publish(ctx, rabbitmq.RoutingTrialExpiring, t); err != nil {
			s.log.Error("failed to publish message", slog.String("user_id", t.UserID), sl.Err(err))
			continue
		}
		metrics.NotificationsPublished.WithLabelValues(rabbitmq.RoutingTrialExpiring).Inc()
		published++

		if err = s.repo.MarkTrialNotified(ctx, t.UserID, t.TrialEndDate); err != nil {
			s.log.Error("failed to mark trial as notified", slog.String("user_id", t.UserID), sl.Err(err))
		}
	}
	return published, nil
}

// Package services читает лицензии пользователей через кэш и оценивает
// уровень доступа на каждый запрос.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/ugc-tracker/internal/cache"
	"github.com/magabrotheeeer/ugc-tracker/internal/lib/metrics"
	"github.com/magabrotheeeer/ugc-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/ugc-tracker/internal/license"
	"github.com/magabrotheeeer/ugc-tracker/internal/models"
)

// LicenseRepository хранилище лицензий.
type LicenseRepository interface {
	GetLicense(ctx context.Context, userUID string) (*models.License, error)
	GrantLifetime(ctx context.Context, userUID string) error
}

// Cache кэш строк лицензий.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

// LicenseService выдаёт строки лицензий и их оценку.
// Кэшируется только строка; оценка пересчитывается при каждом вызове.
type LicenseService struct {
	repo  LicenseRepository
	cache Cache
	ttl   time.Duration
	log   *slog.Logger
	now   func() time.Time
}

// NewLicenseService создает новый экземпляр LicenseService.
func NewLicenseService(repo LicenseRepository, cache Cache, ttl time.Duration, log *slog.Logger) *LicenseService {
	return &LicenseService{repo: repo, cache: cache, ttl: ttl, log: log, now: time.Now}
}

// Get возвращает лицензию пользователя или nil, если строки нет.
func (s *LicenseService) Get(ctx context.Context, userID string) (*models.License, error) {
	const op = "services.license.Get"
	key := cache.LicenseKey(userID)

	var cached models.License
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.log.Warn("license cache read failed", slog.String("op", op), sl.Err(err))
	}
	if found {
		return &cached, nil
	}

	lic, err := s.repo.GetLicense(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if lic != nil {
		if err = s.cache.Set(ctx, key, lic, s.ttl); err != nil {
			s.log.Warn("license cache write failed", slog.String("op", op), sl.Err(err))
		}
	}
	return lic, nil
}

// Evaluate получает лицензию и классифицирует доступ на текущий момент.
// Ошибка чтения лицензии трактуется как её отсутствие.
func (s *LicenseService) Evaluate(ctx context.Context, userID string) (license.Evaluation, *models.License) {
	lic, err := s.Get(ctx, userID)
	if err != nil {
		s.log.Error("failed to fetch license, denying access",
			slog.String("user_id", userID), sl.Err(err))
		lic = nil
	}
	ev := license.Evaluate(lic, s.now())
	metrics.AccessLevels.WithLabelValues(ev.Level.String()).Inc()
	return ev, lic
}

// GrantLifetime выдаёт пожизненный доступ и сбрасывает кэш.
func (s *LicenseService) GrantLifetime(ctx context.Context, userID string) error {
	const op = "services.license.GrantLifetime"
	if err := s.repo.GrantLifetime(ctx, userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return s.Invalidate(ctx, userID)
}

// Invalidate сбрасывает кэшированную строку лицензии.
func (s *LicenseService) Invalidate(ctx context.Context, userID string) error {
	const op = "services.license.Invalidate"
	if err := s.cache.Invalidate(ctx, cache.LicenseKey(userID)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

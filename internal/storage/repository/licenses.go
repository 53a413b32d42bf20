package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/ugc-tracker/internal/models"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// GetLicense возвращает лицензию пользователя. Если строки нет, возвращает nil, nil.
func (s *Storage) GetLicense(ctx context.Context, userUID string) (*models.License, error) {
	const op = "storage.GetLicense"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT user_uid, trial_start_date, trial_end_date, has_lifetime_access,
			      payment_status, updated_at
			  FROM licenses
			  WHERE user_uid = $1`
	var (
		l          models.License
		start, end sql.NullTime
	)
	err := s.DB.QueryRowContext(ctx, query, userUID).Scan(
		&l.UserID, &start, &end, &l.HasLifetimeAccess, &l.PaymentStatus, &l.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if start.Valid {
		l.TrialStartDate = &start.Time
	}
	if end.Valid {
		l.TrialEndDate = &end.Time
	}
	return &l, nil
}

// UpsertLicense создаёт или обновляет лицензию пользователя.
func (s *Storage) UpsertLicense(ctx context.Context, lic models.License) error {
	const op = "storage.UpsertLicense"
	if err := ctxDone(ctx, op); err != nil {
		return err
	}
	if err := upsertLicense(ctx, s.DB, lic); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GrantLifetime выдаёт пожизненный доступ и отмечает оплату завершённой.
func (s *Storage) GrantLifetime(ctx context.Context, userUID string) error {
	const op = "storage.GrantLifetime"
	if err := ctxDone(ctx, op); err != nil {
		return err
	}
	err := grantLifetime(ctx, s.DB, userUID)
	if isMissingReference(err) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// FindTrialsExpiring возвращает пользователей без пожизненного доступа,
// чей пробный период заканчивается в интервале (from, to] и о чьём текущем
// окончании ещё не уведомляли.
func (s *Storage) FindTrialsExpiring(ctx context.Context, from, to time.Time) ([]models.TrialExpiring, error) {
	const op = "storage.FindTrialsExpiring"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT u.uid, u.email, l.trial_end_date
			  FROM licenses l
			  JOIN users u ON u.uid = l.user_uid
			  WHERE l.has_lifetime_access = FALSE
			    AND l.trial_end_date > $1
			    AND l.trial_end_date <= $2
			    AND l.trial_notified_end IS DISTINCT FROM l.trial_end_date
			  ORDER BY l.trial_end_date`
	rows, err := s.DB.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.TrialExpiring
	for rows.Next() {
		var t models.TrialExpiring
		if err = rows.Scan(&t.UserID, &t.Email, &t.TrialEndDate); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// MarkTrialNotified запоминает окончание пробного периода, о котором
// пользователь уже уведомлён. Продление триала снова делает его видимым
// для FindTrialsExpiring.
func (s *Storage) MarkTrialNotified(ctx context.Context, userUID string, trialEnd time.Time) error {
	const op = "storage.MarkTrialNotified"
	res, err := s.DB.ExecContext(ctx,
		`UPDATE licenses SET trial_notified_end = $2 WHERE user_uid = $1`, userUID, trialEnd)
	if err != nil {
		if isMissingReference(err) {
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

func upsertLicense(ctx context.Context, db execer, lic models.License) error {
	if err := lic.Validate(); err != nil {
		return err
	}
	query := `INSERT INTO licenses (user_uid, trial_start_date, trial_end_date,
			      has_lifetime_access, payment_status, updated_at)
			  VALUES ($1, $2, $3, $4, $5, now())
			  ON CONFLICT (user_uid) DO UPDATE SET
			      trial_start_date = EXCLUDED.trial_start_date,
			      trial_end_date = EXCLUDED.trial_end_date,
			      has_lifetime_access = EXCLUDED.has_lifetime_access,
			      payment_status = EXCLUDED.payment_status,
			      updated_at = now()`
	_, err := db.ExecContext(ctx, query, lic.UserID, lic.TrialStartDate, lic.TrialEndDate,
		lic.HasLifetimeAccess, lic.PaymentStatus)
	return err
}

func grantLifetime(ctx context.Context, db execer, userUID string) error {
	query := `INSERT INTO licenses (user_uid, has_lifetime_access, payment_status, updated_at)
			  VALUES ($1, TRUE, 'completed', now())
			  ON CONFLICT (user_uid) DO UPDATE SET
			      has_lifetime_access = TRUE,
			      payment_status = 'completed',
			      updated_at = now()`
	_, err := db.ExecContext(ctx, query, userUID)
	return err
}

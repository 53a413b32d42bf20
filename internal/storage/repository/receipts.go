package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/ugc-tracker/internal/models"
)

const receiptColumns = `id, user_uid, file_path, amount, status, created_at, updated_at,
			      reviewed_at, reviewed_by`

type rowScanner interface {
	Scan(dest ...any) error
}

// CreateReceipt сохраняет квитанцию в статусе pending и возвращает её ID.
func (s *Storage) CreateReceipt(ctx context.Context, r models.PaymentReceipt) (int64, error) {
	const op = "storage.CreateReceipt"
	if err := ctxDone(ctx, op); err != nil {
		return 0, err
	}

	query := `INSERT INTO payment_receipts (user_uid, file_path, amount, status)
			  VALUES ($1, $2, $3, 'pending')
			  RETURNING id`
	var id int64
	if err := s.DB.QueryRowContext(ctx, query, r.UserID, r.FilePath, r.Amount).Scan(&id); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// GetReceipt возвращает квитанцию по ID.
func (s *Storage) GetReceipt(ctx context.Context, id int64) (*models.PaymentReceipt, error) {
	const op = "storage.GetReceipt"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}
	query := `SELECT ` + receiptColumns + ` FROM payment_receipts WHERE id = $1`
	r, err := scanReceipt(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return r, nil
}

// ListReceipts возвращает квитанции в статусе status, старые первыми.
func (s *Storage) ListReceipts(ctx context.Context, status models.ReceiptStatus, limit, offset int) ([]*models.PaymentReceipt, error) {
	const op = "storage.ListReceipts"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}
	query := `SELECT ` + receiptColumns + `
			  FROM payment_receipts
			  WHERE status = $1
			  ORDER BY created_at, id
			  LIMIT $2 OFFSET $3`
	return s.queryReceipts(ctx, op, query, status, limit, offset)
}

// ListUserReceipts возвращает неудалённые квитанции пользователя.
func (s *Storage) ListUserReceipts(ctx context.Context, userUID string) ([]*models.PaymentReceipt, error) {
	const op = "storage.ListUserReceipts"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}
	query := `SELECT ` + receiptColumns + `
			  FROM payment_receipts
			  WHERE user_uid = $1 AND status <> 'deleted'
			  ORDER BY created_at DESC, id DESC`
	return s.queryReceipts(ctx, op, query, userUID)
}

// DecideReceipt переводит квитанцию из pending в approved или rejected.
// При одобрении в той же транзакции выдаётся пожизненный доступ.
func (s *Storage) DecideReceipt(ctx context.Context, id int64, to models.ReceiptStatus, reviewerUID string) (*models.PaymentReceipt, error) {
	const op = "storage.DecideReceipt"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}
	if to != models.ReceiptApproved && to != models.ReceiptRejected {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidTransition)
	}

	var decided *models.PaymentReceipt
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		cur, err := scanReceipt(tx.QueryRowContext(ctx,
			`SELECT `+receiptColumns+` FROM payment_receipts WHERE id = $1 FOR UPDATE`, id))
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if !cur.Status.CanTransition(to) {
			return ErrInvalidTransition
		}

		decided, err = scanReceipt(tx.QueryRowContext(ctx, `
			UPDATE payment_receipts
			SET status = $1, reviewed_at = now(), reviewed_by = $2, updated_at = now()
			WHERE id = $3
			RETURNING `+receiptColumns, to, reviewerUID, id))
		if err != nil {
			return err
		}

		if to == models.ReceiptApproved {
			return grantLifetime(ctx, tx, cur.UserID)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return decided, nil
}

func (s *Storage) queryReceipts(ctx context.Context, op, query string, args ...any) ([]*models.PaymentReceipt, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.PaymentReceipt
	for rows.Next() {
		r, err := scanReceipt(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, r)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

func scanReceipt(row rowScanner) (*models.PaymentReceipt, error) {
	var (
		r          models.PaymentReceipt
		reviewedAt sql.NullTime
		reviewedBy sql.NullString
	)
	if err := row.Scan(&r.ID, &r.UserID, &r.FilePath, &r.Amount, &r.Status,
		&r.CreatedAt, &r.UpdatedAt, &reviewedAt, &reviewedBy); err != nil {
		return nil, err
	}
	if reviewedAt.Valid {
		r.ReviewedAt = &reviewedAt.Time
	}
	if reviewedBy.Valid {
		r.ReviewedBy = &reviewedBy.String
	}
	return &r, nil
}

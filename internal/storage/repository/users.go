package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/ugc-tracker/internal/models"
)

// CreateUserWithLicense сохраняет пользователя и его пробную лицензию
// в одной транзакции и возвращает UID пользователя.
func (s *Storage) CreateUserWithLicense(ctx context.Context, user models.User, lic models.License) (string, error) {
	const op = "storage.CreateUserWithLicense"
	if err := ctxDone(ctx, op); err != nil {
		return "", err
	}

	var newID string
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		query := `INSERT INTO users (email, password_hash, role)
				  VALUES ($1, $2, $3)
				  RETURNING uid`
		if err := tx.QueryRowContext(ctx, query, user.Email, user.PasswordHash, user.Role).Scan(&newID); err != nil {
			return err
		}
		lic.UserID = newID
		return upsertLicense(ctx, tx, lic)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return "", fmt.Errorf("%s: %w", op, ErrAlreadyExists)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetUserByEmail возвращает пользователя по email.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}
	query := `SELECT uid, email, password_hash, role, created_at FROM users WHERE email = $1`
	return scanUser(s.DB.QueryRowContext(ctx, query, email), op)
}

// GetUser возвращает пользователя по UID.
func (s *Storage) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUser"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}
	query := `SELECT uid, email, password_hash, role, created_at FROM users WHERE uid = $1`
	return scanUser(s.DB.QueryRowContext(ctx, query, userUID), op)
}

func scanUser(row *sql.Row, op string) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.UUID, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &u, nil
}

// DeleteUser удаляет аккаунт: квитанции помечаются deleted, лицензия и
// кампании удаляются каскадом. Возвращает пути файлов квитанций.
func (s *Storage) DeleteUser(ctx context.Context, userUID string) ([]string, error) {
	const op = "storage.DeleteUser"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	var paths []string
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			UPDATE payment_receipts
			SET status = 'deleted', updated_at = now()
			WHERE user_uid = $1 AND status <> 'deleted'
			RETURNING file_path`, userUID)
		if err != nil {
			return err
		}
		for rows.Next() {
			var p string
			if err = rows.Scan(&p); err != nil {
				_ = rows.Close()
				return err
			}
			paths = append(paths, p)
		}
		if err = rows.Close(); err != nil {
			return err
		}
		if err = rows.Err(); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE uid = $1`, userUID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return paths, nil
}

// Package services реализует работу с квитанциями об оплате: загрузку,
// модерацию администратором и удаление аккаунтов.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/ugc-tracker/internal/lib/metrics"
	"github.com/magabrotheeeer/ugc-tracker/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/ugc-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/ugc-tracker/internal/models"
	"github.com/magabrotheeeer/ugc-tracker/internal/receiptstore"
	"github.com/magabrotheeeer/ugc-tracker/internal/storage/repository"
)

// MaxReceiptSize максимальный размер файла квитанции.
const MaxReceiptSize = 10 << 20

var (
	// ErrReceiptNotFound квитанция не найдена.
	ErrReceiptNotFound = errors.New("receipt not found")
	// ErrReceiptNotPending решение по квитанции уже принято.
	ErrReceiptNotPending = errors.New("receipt is not pending")
	// ErrUnsupportedFile файл не является изображением или PDF.
	ErrUnsupportedFile = errors.New("unsupported receipt file type")
	// ErrFileTooLarge файл больше MaxReceiptSize или пустой.
	ErrFileTooLarge = errors.New("receipt file size out of range")
	// ErrUserNotFound пользователь не найден.
	ErrUserNotFound = errors.New("user not found")
)

// ReceiptRepository хранилище квитанций и пользователей.
type ReceiptRepository interface {
	CreateReceipt(ctx context.Context, r models.PaymentReceipt) (int64, error)
	GetReceipt(ctx context.Context, id int64) (*models.PaymentReceipt, error)
	ListReceipts(ctx context.Context, status models.ReceiptStatus, limit, offset int) ([]*models.PaymentReceipt, error)
	ListUserReceipts(ctx context.Context, userUID string) ([]*models.PaymentReceipt, error)
	DecideReceipt(ctx context.Context, id int64, to models.ReceiptStatus, reviewerUID string) (*models.PaymentReceipt, error)
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	DeleteUser(ctx context.Context, userUID string) ([]string, error)
}

// ObjectStore хранилище файлов квитанций.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	ViewURL(ctx context.Context, key string) (string, time.Time, error)
}

// Publisher публикует уведомления в брокер.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// LicenseInvalidator сбрасывает кэш лицензии после её изменения.
type LicenseInvalidator interface {
	Invalidate(ctx context.Context, userID string) error
}

// Upload входные данные загрузки квитанции.
type Upload struct {
	UserID      string
	Filename    string
	ContentType string
	Size        int64
	Amount      float64
	Body        io.Reader
}

// ReceiptService бизнес-логика квитанций.
type ReceiptService struct {
	repo      ReceiptRepository
	store     ObjectStore
	licenses  LicenseInvalidator
	publisher Publisher
	log       *slog.Logger
}

// NewReceiptService создает новый экземпляр ReceiptService. publisher может быть nil.
func NewReceiptService(repo ReceiptRepository, store ObjectStore, licenses LicenseInvalidator, publisher Publisher, log *slog.Logger) *ReceiptService {
	return &ReceiptService{repo: repo, store: store, licenses: licenses, publisher: publisher, log: log}
}

// Upload сохраняет файл в хранилище и создаёт квитанцию в статусе pending.
func (s *ReceiptService) Upload(ctx context.Context, in Upload) (*models.PaymentReceipt, error) {
	const op = "services.receipt.Upload"
	if in.Size <= 0 || in.Size > MaxReceiptSize {
		return nil, fmt.Errorf("%s: %w", op, ErrFileTooLarge)
	}
	if !allowedContentType(in.ContentType) {
		return nil, fmt.Errorf("%s: %w", op, ErrUnsupportedFile)
	}

	key := receiptstore.NewKey(in.UserID, in.Filename)
	if err := s.store.Put(ctx, key, in.Body, in.Size, in.ContentType); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	r := models.PaymentReceipt{
		UserID:   in.UserID,
		FilePath: key,
		Amount:   in.Amount,
		Status:   models.ReceiptPending,
	}
	id, err := s.repo.CreateReceipt(ctx, r)
	if err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			s.log.Error("failed to remove orphaned receipt file", slog.String("key", key), sl.Err(delErr))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	r.ID = id
	return &r, nil
}

// ListPending возвращает квитанции, ожидающие решения.
func (s *ReceiptService) ListPending(ctx context.Context, limit, offset int) ([]*models.PaymentReceipt, error) {
	const op = "services.receipt.ListPending"
	list, err := s.repo.ListReceipts(ctx, models.ReceiptPending, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// ListMine возвращает квитанции пользователя.
func (s *ReceiptService) ListMine(ctx context.Context, userID string) ([]*models.PaymentReceipt, error) {
	const op = "services.receipt.ListMine"
	list, err := s.repo.ListUserReceipts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// Decide одобряет или отклоняет квитанцию. Одобрение выдаёт пожизненный доступ.
func (s *ReceiptService) Decide(ctx context.Context, id int64, status models.ReceiptStatus, reviewerID string) (*models.PaymentReceipt, error) {
	const op = "services.receipt.Decide"
	r, err := s.repo.DecideReceipt(ctx, id, status, reviewerID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("%s: %w", op, ErrReceiptNotFound)
	case errors.Is(err, repository.ErrInvalidTransition):
		return nil, fmt.Errorf("%s: %w", op, ErrReceiptNotPending)
	case err != nil:
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	metrics.ReceiptDecisions.WithLabelValues(string(r.Status)).Inc()

	if r.Status == models.ReceiptApproved {
		if err = s.licenses.Invalidate(ctx, r.UserID); err != nil {
			s.log.Error("failed to invalidate license cache", slog.String("user_id", r.UserID), sl.Err(err))
		}
	}
	s.notifyDecision(ctx, r)
	return r, nil
}

func (s *ReceiptService) notifyDecision(ctx context.Context, r *models.PaymentReceipt) {
	if s.publisher == nil {
		return
	}
	user, err := s.repo.GetUser(ctx, r.UserID)
	if err != nil {
		s.log.Warn("receipt owner lookup failed, skipping notification", sl.Err(err))
		return
	}
	msg := models.ReceiptDecided{ReceiptID: r.ID, UserID: r.UserID, Email: user.Email, Status: r.Status}
	if err = s.publisher.Publish(ctx, rabbitmq.RoutingReceiptDecided, msg); err != nil {
		s.log.Error("failed to publish receipt decision", sl.Err(err))
		return
	}
	metrics.NotificationsPublished.WithLabelValues(rabbitmq.RoutingReceiptDecided).Inc()
}

// ViewURL выдаёт ограниченную по времени ссылку на файл квитанции.
func (s *ReceiptService) ViewURL(ctx context.Context, id int64) (string, time.Time, error) {
	const op = "services.receipt.ViewURL"
	r, err := s.repo.GetReceipt(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return "", time.Time{}, fmt.Errorf("%s: %w", op, ErrReceiptNotFound)
	}
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	if r.Status == models.ReceiptDeleted {
		return "", time.Time{}, fmt.Errorf("%s: %w", op, ErrReceiptNotFound)
	}
	url, expires, err := s.store.ViewURL(ctx, r.FilePath)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	return url, expires, nil
}

// DeleteAccount удаляет аккаунт пользователя и файлы его квитанций.
func (s *ReceiptService) DeleteAccount(ctx context.Context, userID string) error {
	const op = "services.receipt.DeleteAccount"
	paths, err := s.repo.DeleteUser(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	for _, p := range paths {
		if err = s.store.Delete(ctx, p); err != nil {
			s.log.Error("failed to delete receipt file", slog.String("key", p), sl.Err(err))
		}
	}
	if err = s.licenses.Invalidate(ctx, userID); err != nil {
		s.log.Error("failed to invalidate license cache", slog.String("user_id", userID), sl.Err(err))
	}
	return nil
}

func allowedContentType(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(ct))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return strings.HasPrefix(ct, "image/") || ct == "application/pdf"
}

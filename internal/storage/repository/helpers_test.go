package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/ugc-tracker/internal/migrations"
	"github.com/magabrotheeeer/ugc-tracker/internal/models"
)

// setupTestDatabase поднимает PostgreSQL в контейнере и применяет миграции.
func setupTestDatabase(t *testing.T) *Storage {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start container")
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	storage, err := New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })

	root, err := filepath.Abs("../../..")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, filepath.Join(root, "migrations")))
	return storage
}

// TestDataFactory создаёт тестовые данные.
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory создаёт фабрику тестовых данных.
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateUser создаёт пользователя с пробной лицензией и возвращает его UID.
func (f *TestDataFactory) CreateUser(t *testing.T, email string, trialEnd time.Time) string {
	t.Helper()
	start := trialEnd.Add(-7 * 24 * time.Hour)
	uid, err := f.storage.CreateUserWithLicense(context.Background(),
		models.User{Email: email, PasswordHash: "hash", Role: models.RoleUser},
		models.License{TrialStartDate: &start, TrialEndDate: &trialEnd, PaymentStatus: models.PaymentPending})
	require.NoError(t, err)
	return uid
}

// CreateReceipt создаёт квитанцию в статусе pending.
func (f *TestDataFactory) CreateReceipt(t *testing.T, userUID, path string) int64 {
	t.Helper()
	id, err := f.storage.CreateReceipt(context.Background(),
		models.PaymentReceipt{UserID: userUID, FilePath: path, Amount: 49.99})
	require.NoError(t, err)
	return id
}

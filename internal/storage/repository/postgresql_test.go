package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/ugc-tracker/internal/models"
)

func TestStorage_Users(t *testing.T) {
	storage := setupTestDatabase(t)
	factory := NewTestDataFactory(storage)
	ctx := context.Background()

	uid := factory.CreateUser(t, "alice@example.com", time.Now().Add(72*time.Hour))

	u, err := storage.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, uid, u.UUID)
	assert.Equal(t, models.RoleUser, u.Role)

	byID, err := storage.GetUser(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", byID.Email)

	_, err = storage.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = storage.CreateUserWithLicense(ctx,
		models.User{Email: "alice@example.com", PasswordHash: "x", Role: models.RoleUser},
		models.License{PaymentStatus: models.PaymentPending})
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestStorage_Licenses(t *testing.T) {
	storage := setupTestDatabase(t)
	factory := NewTestDataFactory(storage)
	ctx := context.Background()

	end := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Microsecond)
	uid := factory.CreateUser(t, "bob@example.com", end)

	lic, err := storage.GetLicense(ctx, uid)
	require.NoError(t, err)
	require.NotNil(t, lic)
	assert.False(t, lic.HasLifetimeAccess)
	assert.Equal(t, models.PaymentPending, lic.PaymentStatus)
	require.NotNil(t, lic.TrialEndDate)
	assert.True(t, end.Equal(*lic.TrialEndDate))

	require.NoError(t, storage.GrantLifetime(ctx, uid))
	lic, err = storage.GetLicense(ctx, uid)
	require.NoError(t, err)
	assert.True(t, lic.HasLifetimeAccess)
	assert.Equal(t, models.PaymentCompleted, lic.PaymentStatus)

	err = storage.UpsertLicense(ctx, models.License{UserID: uid, HasLifetimeAccess: true, PaymentStatus: models.PaymentPending})
	assert.ErrorIs(t, err, models.ErrLifetimeNotPaid)

	err = storage.GrantLifetime(ctx, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, ErrNotFound)
	err = storage.GrantLifetime(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStorage_GetLicenseAbsent(t *testing.T) {
	storage := setupTestDatabase(t)
	var uid string
	err := storage.DB.QueryRow(`INSERT INTO users (email, password_hash) VALUES ('x@y.z', 'h') RETURNING uid`).Scan(&uid)
	require.NoError(t, err)

	lic, err := storage.GetLicense(context.Background(), uid)
	require.NoError(t, err)
	assert.Nil(t, lic)
}

func TestStorage_FindTrialsExpiring(t *testing.T) {
	storage := setupTestDatabase(t)
	factory := NewTestDataFactory(storage)
	ctx := context.Background()
	now := time.Now()

	soon := factory.CreateUser(t, "soon@example.com", now.Add(12*time.Hour))
	factory.CreateUser(t, "later@example.com", now.Add(72*time.Hour))
	factory.CreateUser(t, "expired@example.com", now.Add(-time.Hour))
	paid := factory.CreateUser(t, "paid@example.com", now.Add(6*time.Hour))
	require.NoError(t, storage.GrantLifetime(ctx, paid))

	got, err := storage.FindTrialsExpiring(ctx, now, now.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, soon, got[0].UserID)
	assert.Equal(t, "soon@example.com", got[0].Email)
}

func TestStorage_MarkTrialNotified(t *testing.T) {
	storage := setupTestDatabase(t)
	factory := NewTestDataFactory(storage)
	ctx := context.Background()
	now := time.Now()

	uid := factory.CreateUser(t, "notify@example.com", now.Add(12*time.Hour))

	got, err := storage.FindTrialsExpiring(ctx, now, now.Add(48*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.NoError(t, storage.MarkTrialNotified(ctx, uid, got[0].TrialEndDate))

	got, err = storage.FindTrialsExpiring(ctx, now, now.Add(48*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, got, "already notified trial must not be returned again")

	start := now.Add(-time.Hour)
	extended := now.Add(36 * time.Hour)
	require.NoError(t, storage.UpsertLicense(ctx, models.License{
		UserID: uid, TrialStartDate: &start, TrialEndDate: &extended, PaymentStatus: models.PaymentPending,
	}))
	got, err = storage.FindTrialsExpiring(ctx, now, now.Add(48*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1, "extended trial gets a fresh notice")

	assert.ErrorIs(t, storage.MarkTrialNotified(ctx, "00000000-0000-0000-0000-000000000000", now), ErrNotFound)
}

func TestStorage_DecideReceipt(t *testing.T) {
	tests := []struct {
		name        string
		to          models.ReceiptStatus
		wantLicense bool
	}{
		{name: "approve grants lifetime", to: models.ReceiptApproved, wantLicense: true},
		{name: "reject keeps trial", to: models.ReceiptRejected, wantLicense: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := setupTestDatabase(t)
			factory := NewTestDataFactory(storage)
			ctx := context.Background()

			uid := factory.CreateUser(t, "payer@example.com", time.Now().Add(time.Hour))
			admin := factory.CreateUser(t, "admin@example.com", time.Now().Add(time.Hour))
			id := factory.CreateReceipt(t, uid, "receipts/"+uid+"/1.pdf")

			pending, err := storage.ListReceipts(ctx, models.ReceiptPending, 10, 0)
			require.NoError(t, err)
			require.Len(t, pending, 1)

			r, err := storage.DecideReceipt(ctx, id, tt.to, admin)
			require.NoError(t, err)
			assert.Equal(t, tt.to, r.Status)
			require.NotNil(t, r.ReviewedBy)
			assert.Equal(t, admin, *r.ReviewedBy)
			assert.NotNil(t, r.ReviewedAt)

			lic, err := storage.GetLicense(ctx, uid)
			require.NoError(t, err)
			assert.Equal(t, tt.wantLicense, lic.HasLifetimeAccess)

			_, err = storage.DecideReceipt(ctx, id, models.ReceiptApproved, admin)
			assert.ErrorIs(t, err, ErrInvalidTransition)
		})
	}
}

func TestStorage_DecideReceiptNotFound(t *testing.T) {
	storage := setupTestDatabase(t)
	_, err := storage.DecideReceipt(context.Background(), 9999, models.ReceiptApproved, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStorage_DeleteUser(t *testing.T) {
	storage := setupTestDatabase(t)
	factory := NewTestDataFactory(storage)
	ctx := context.Background()

	uid := factory.CreateUser(t, "gone@example.com", time.Now().Add(time.Hour))
	id := factory.CreateReceipt(t, uid, "receipts/a.png")

	paths, err := storage.DeleteUser(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, []string{"receipts/a.png"}, paths)

	r, err := storage.GetReceipt(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.ReceiptDeleted, r.Status)

	lic, err := storage.GetLicense(ctx, uid)
	require.NoError(t, err)
	assert.Nil(t, lic)

	_, err = storage.DeleteUser(ctx, uid)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStorage_CampaignCostInputs(t *testing.T) {
	storage := setupTestDatabase(t)
	factory := NewTestDataFactory(storage)
	ctx := context.Background()

	uid := factory.CreateUser(t, "brand@example.com", time.Now().Add(time.Hour))
	other := factory.CreateUser(t, "other@example.com", time.Now().Add(time.Hour))

	cid, err := storage.CreateCampaign(ctx, models.Campaign{UserID: uid, Name: "Spring", Status: models.CampaignActive})
	require.NoError(t, err)

	p1, err := storage.CreateProduct(ctx, models.Product{UserID: uid, Name: "Serum", CostPrice: 10})
	require.NoError(t, err)
	p2, err := storage.CreateProduct(ctx, models.Product{UserID: uid, Name: "Cream", CostPrice: 5})
	require.NoError(t, err)
	foreign, err := storage.CreateProduct(ctx, models.Product{UserID: other, Name: "Foreign", CostPrice: 100})
	require.NoError(t, err)

	require.NoError(t, storage.AttachProduct(ctx, uid, cid, p1))
	require.NoError(t, storage.AttachProduct(ctx, uid, cid, p2))
	require.NoError(t, storage.AttachProduct(ctx, uid, cid, p2), "attaching twice is idempotent")
	assert.ErrorIs(t, storage.AttachProduct(ctx, uid, cid, foreign), ErrNotFound)

	for i, handle := range []string{"@a", "@b", "@c"} {
		crID, err := storage.CreateCreator(ctx, models.Creator{UserID: uid, Name: handle, Handle: handle, Platform: "tiktok"})
		require.NoError(t, err, i)
		require.NoError(t, storage.AssignCreator(ctx, uid, cid, crID))
	}

	_, err = storage.AddExpense(ctx, uid, models.CampaignExpense{CampaignID: cid, Description: "shipping", Amount: "20"})
	require.NoError(t, err)
	_, err = storage.AddExpense(ctx, uid, models.CampaignExpense{CampaignID: cid, Description: "typo", Amount: "bad"})
	require.NoError(t, err)
	_, err = storage.AddExpense(ctx, other, models.CampaignExpense{CampaignID: cid, Description: "x", Amount: "1"})
	assert.ErrorIs(t, err, ErrNotFound)

	in, err := storage.CampaignCostInputs(ctx, uid, cid)
	require.NoError(t, err)
	assert.ElementsMatch(t, []float64{10, 5}, in.ProductCosts)
	assert.Equal(t, 3, in.CreatorCount)
	assert.Equal(t, []string{"20", "bad"}, in.Expenses)

	_, err = storage.CampaignCostInputs(ctx, other, cid)
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := storage.ListCampaigns(ctx, uid)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Spring", list[0].Name)

	expenses, err := storage.ListExpenses(ctx, uid, cid)
	require.NoError(t, err)
	assert.Len(t, expenses, 2)
}

func TestStorage_ContextCancelled(t *testing.T) {
	s := &Storage{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.GetLicense(ctx, "u")
	assert.ErrorIs(t, err, context.Canceled)
	_, err = s.CampaignCostInputs(ctx, "u", 1)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = s.DecideReceipt(ctx, 1, models.ReceiptApproved, "a")
	assert.ErrorIs(t, err, context.Canceled)
}

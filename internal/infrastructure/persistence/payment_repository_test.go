package persistence

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Nitish8696/flatgurugram/internal/domain/billing"
	"github.com/Nitish8696/flatgurugram/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPayment(t *testing.T, userID uuid.UUID, txID string, paidAt time.Time) *billing.Payment {
	t.Helper()
	bill, err := billing.NewBill(userID, "B-202", billing.BillTypeMaintenance, decimal.NewFromInt(5000), decimal.Zero, paidAt.AddDate(0, 1, 0))
	require.NoError(t, err)
	payment, err := bill.ApplyPayment(decimal.NewFromInt(100), billing.PaymentMeta{TransactionID: txID, PaidAt: paidAt}, decimal.NewFromInt(10))
	require.NoError(t, err)
	return payment
}

func TestGormPaymentRepository_CreateAndFind(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewGormPaymentRepository(db)
	ctx := context.Background()

	payment := newTestPayment(t, uuid.New(), "TR100", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, payment))

	found, err := repo.FindByTransactionID(ctx, "TR100")
	require.NoError(t, err)
	assert.Equal(t, payment.ID, found.ID)
	assert.Equal(t, payment.BillID, found.BillID)
	assert.Equal(t, billing.PaymentStatusSuccessful, found.Status)
	assert.True(t, decimal.NewFromInt(100).Equal(found.AmountPaid))

	_, err = repo.FindByTransactionID(ctx, "missing")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormPaymentRepository_DuplicateTransaction(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewGormPaymentRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newTestPayment(t, uuid.New(), "TRDUP", time.Now().UTC())))
	err := repo.Create(ctx, newTestPayment(t, uuid.New(), "TRDUP", time.Now().UTC()))
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
}

func TestGormPaymentRepository_Listings(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewGormPaymentRepository(db)
	ctx := context.Background()

	user := uuid.New()
	base := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(ctx, newTestPayment(t, user, fmt.Sprintf("TR%d", i), base.AddDate(0, i, 0))))
	}
	require.NoError(t, repo.Create(ctx, newTestPayment(t, uuid.New(), "TROTHER", base)))

	t.Run("newest first", func(t *testing.T) {
		payments, err := repo.FindByUser(ctx, user, billing.PaymentFilter{})
		require.NoError(t, err)
		require.Len(t, payments, 5)
		assert.Equal(t, "TR4", payments[0].TransactionID)
	})

	t.Run("date window", func(t *testing.T) {
		payments, err := repo.FindByUser(ctx, user, billing.PaymentFilter{
			From: base.AddDate(0, 1, 0),
			To:   base.AddDate(0, 3, 0),
		})
		require.NoError(t, err)
		require.Len(t, payments, 3)
		assert.Equal(t, "TR3", payments[0].TransactionID)
		assert.Equal(t, "TR1", payments[2].TransactionID)
	})

	t.Run("paged", func(t *testing.T) {
		payments, total, err := repo.FindByUserPaged(ctx, user, shared.PageRequest{Page: 2, PageSize: 2})
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
		require.Len(t, payments, 2)
		assert.Equal(t, "TR2", payments[0].TransactionID)
	})

	t.Run("recent", func(t *testing.T) {
		payments, err := repo.FindRecentByUser(ctx, user, 3)
		require.NoError(t, err)
		require.Len(t, payments, 3)
		assert.Equal(t, "TR4", payments[0].TransactionID)
	})
}

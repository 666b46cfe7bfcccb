package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Nitish8696/flatgurugram/internal/domain/billing"
	"github.com/Nitish8696/flatgurugram/internal/domain/identity"
	"github.com/Nitish8696/flatgurugram/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	identity.PasswordCost = bcrypt.MinCost
}

var adminID = billing.Identity{UserID: uuid.New(), IsAdmin: true}

func newResident(t *testing.T, flat, email string) *identity.Resident {
	t.Helper()
	r, err := identity.NewResident(identity.ResidentProfile{
		FlatNumber: flat,
		Name:       "Resident " + flat,
		Email:      email,
		Phone:      "9000000000",
		Complex:    string(identity.ComplexRichmondPark),
	}, "password1")
	require.NoError(t, err)
	return r
}

type billFixture struct {
	ledger    *memoryLedger
	residents *memoryResidents
	publisher *recordingPublisher
	svc       *BillService
	now       time.Time
}

func newBillFixture(t *testing.T, residents ...*identity.Resident) *billFixture {
	t.Helper()
	ledger := newMemoryLedger()
	repo := newMemoryResidents(residents...)
	pub := &recordingPublisher{}
	svc := NewBillService(BillServiceConfig{
		TxScope:      ledger.scope(),
		BillRepo:     memoryBills{ledger},
		ResidentRepo: repo,
		Publisher:    pub,
	})
	now := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	return &billFixture{ledger: ledger, residents: repo, publisher: pub, svc: svc, now: now}
}

// seedBill stores a bill with the given remaining balance and due date
func (f *billFixture) seedBill(t *testing.T, r *identity.Resident, bt billing.BillType, total, paid int64, due time.Time) *billing.Bill {
	t.Helper()
	b, err := billing.NewBill(r.ID, r.FlatNumber, bt, amt(total), amt(0), due)
	require.NoError(t, err)
	if paid > 0 {
		_, err = b.ApplyPayment(amt(paid), billing.PaymentMeta{TransactionID: billing.NewTransactionID(f.now)}, amt(10))
		require.NoError(t, err)
	}
	f.ledger.put(b)
	return b
}

func TestBillService_IssueBill_CarryForward(t *testing.T) {
	r := newResident(t, "A-101", "a101@example.com")

	t.Run("folds overdue balance and deletes old bill", func(t *testing.T) {
		f := newBillFixture(t, r)
		old := f.seedBill(t, r, billing.BillTypeElectricity, 400, 250, f.now.AddDate(0, 0, -5))

		resp, err := f.svc.IssueBill(context.Background(), adminID, IssueBillInput{
			UserID:         r.ID,
			BillType:       "electricity",
			OriginalAmount: amt(500),
			DueDate:        f.now.AddDate(0, 1, 0),
		})
		require.NoError(t, err)

		assert.True(t, resp.TotalAmount.Equal(amt(650)))
		assert.True(t, resp.RemainingAmount.Equal(amt(650)))
		assert.True(t, resp.OriginalAmount.Equal(amt(500)))
		assert.True(t, resp.AmountPaid.IsZero())
		assert.Equal(t, "unpaid", resp.Status)
		assert.Equal(t, "A-101", resp.FlatNumber)

		_, exists := f.ledger.bill(old.ID)
		assert.False(t, exists, "folded bill must be deleted")
		assert.ElementsMatch(t, []string{billing.EventTypeBillsFolded, billing.EventTypeBillIssued}, f.publisher.types())
	})

	t.Run("no overdue bill keeps stated amount", func(t *testing.T) {
		f := newBillFixture(t, r)
		resp, err := f.svc.IssueBill(context.Background(), adminID, IssueBillInput{
			FlatNumber:     "A-101",
			BillType:       "maintenance",
			OriginalAmount: amt(500),
			DueDate:        f.now.AddDate(0, 1, 0),
		})
		require.NoError(t, err)
		assert.True(t, resp.TotalAmount.Equal(amt(500)))
		assert.True(t, resp.RemainingAmount.Equal(amt(500)))
		assert.Equal(t, []string{billing.EventTypeBillIssued}, f.publisher.types())
	})

	t.Run("other type and current bills are not folded", func(t *testing.T) {
		f := newBillFixture(t, r)
		otherType := f.seedBill(t, r, billing.BillTypeMaintenance, 300, 0, f.now.AddDate(0, 0, -10))
		current := f.seedBill(t, r, billing.BillTypeElectricity, 300, 100, f.now.AddDate(0, 0, 3))
		settled := f.seedBill(t, r, billing.BillTypeElectricity, 300, 300, f.now.AddDate(0, 0, -30))

		resp, err := f.svc.IssueBill(context.Background(), adminID, IssueBillInput{
			UserID:         r.ID,
			BillType:       "electricity",
			OriginalAmount: amt(500),
			DueDate:        f.now.AddDate(0, 1, 0),
		})
		require.NoError(t, err)
		assert.True(t, resp.TotalAmount.Equal(amt(500)))

		for _, b := range []*billing.Bill{otherType, current, settled} {
			_, exists := f.ledger.bill(b.ID)
			assert.True(t, exists)
		}
	})

	t.Run("several overdue bills are summed", func(t *testing.T) {
		f := newBillFixture(t, r)
		f.seedBill(t, r, billing.BillTypeElectricity, 100, 0, f.now.AddDate(0, -2, 0))
		f.seedBill(t, r, billing.BillTypeElectricity, 200, 150, f.now.AddDate(0, -1, 0))

		resp, err := f.svc.IssueBill(context.Background(), adminID, IssueBillInput{
			UserID:         r.ID,
			BillType:       "electricity",
			OriginalAmount: amt(500),
			DueDate:        f.now.AddDate(0, 1, 0),
		})
		require.NoError(t, err)
		assert.True(t, resp.TotalAmount.Equal(amt(650)))

		bills, err := memoryBills{f.ledger}.FindByUser(context.Background(), r.ID)
		require.NoError(t, err)
		assert.Len(t, bills, 1)
	})
}

func TestBillService_IssueBill_Rejections(t *testing.T) {
	r := newResident(t, "A-101", "a101@example.com")
	due := time.Now().AddDate(0, 1, 0)

	tests := []struct {
		name     string
		identity billing.Identity
		input    IssueBillInput
		code     string
	}{
		{"resident caller", billing.Identity{UserID: r.ID}, IssueBillInput{UserID: r.ID, BillType: "electricity", OriginalAmount: amt(100), DueDate: due}, shared.CodeForbidden},
		{"bad type", adminID, IssueBillInput{UserID: r.ID, BillType: "water", OriginalAmount: amt(100), DueDate: due}, shared.CodeValidation},
		{"negative amount", adminID, IssueBillInput{UserID: r.ID, BillType: "electricity", OriginalAmount: amt(-1), DueDate: due}, shared.CodeValidation},
		{"no owner", adminID, IssueBillInput{BillType: "electricity", OriginalAmount: amt(100), DueDate: due}, shared.CodeValidation},
		{"unknown user", adminID, IssueBillInput{UserID: uuid.New(), BillType: "electricity", OriginalAmount: amt(100), DueDate: due}, shared.CodeNotFound},
		{"flat mismatch", adminID, IssueBillInput{UserID: r.ID, FlatNumber: "B-1", BillType: "electricity", OriginalAmount: amt(100), DueDate: due}, shared.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBillFixture(t, r)
			_, err := f.svc.IssueBill(context.Background(), tt.identity, tt.input)
			require.Error(t, err)
			var de *shared.DomainError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, tt.code, de.Code)
			assert.Empty(t, f.ledger.bills)
		})
	}
}

func TestBillService_BulkIssue(t *testing.T) {
	a := newResident(t, "A-101", "a101@example.com")
	b := newResident(t, "B-202", "b202@example.com")

	t.Run("unknown flat fails whole batch", func(t *testing.T) {
		f := newBillFixture(t, a, b)
		old := f.seedBill(t, a, billing.BillTypeElectricity, 100, 0, f.now.AddDate(0, 0, -1))

		_, err := f.svc.BulkIssue(context.Background(), adminID, []BulkBillRow{
			{FlatNumber: "A-101", BillType: "electricity", OriginalAmount: amt(500), DueDate: f.now.AddDate(0, 1, 0)},
			{FlatNumber: "Z-999", BillType: "electricity", OriginalAmount: amt(500), DueDate: f.now.AddDate(0, 1, 0)},
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrNotFound))
		assert.Contains(t, err.Error(), "Z-999")

		assert.Len(t, f.ledger.bills, 1)
		_, exists := f.ledger.bill(old.ID)
		assert.True(t, exists)
		assert.Empty(t, f.publisher.types())
	})

	t.Run("invalid row fails before lookup", func(t *testing.T) {
		f := newBillFixture(t, a)
		_, err := f.svc.BulkIssue(context.Background(), adminID, []BulkBillRow{
			{FlatNumber: "A-101", BillType: "gas", OriginalAmount: amt(500), DueDate: f.now},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "row 1")
	})

	t.Run("folds per row without double counting", func(t *testing.T) {
		f := newBillFixture(t, a, b)
		f.seedBill(t, a, billing.BillTypeElectricity, 150, 0, f.now.AddDate(0, 0, -1))

		res, err := f.svc.BulkIssue(context.Background(), adminID, []BulkBillRow{
			{FlatNumber: "A-101", BillType: "electricity", OriginalAmount: amt(500), DueDate: f.now.AddDate(0, 1, 0)},
			{FlatNumber: "A-101", BillType: "electricity", OriginalAmount: amt(200), DueDate: f.now.AddDate(0, 2, 0)},
			{FlatNumber: "B-202", BillType: "maintenance", OriginalAmount: amt(300), DueDate: f.now.AddDate(0, 1, 0)},
		})
		require.NoError(t, err)
		require.Equal(t, 3, res.Count)

		assert.True(t, res.Bills[0].TotalAmount.Equal(amt(650)))
		assert.True(t, res.Bills[1].TotalAmount.Equal(amt(200)))
		assert.True(t, res.Bills[2].TotalAmount.Equal(amt(300)))
		assert.Equal(t, b.ID, res.Bills[2].UserID)
		assert.Len(t, f.ledger.bills, 3)
	})

	t.Run("empty batch", func(t *testing.T) {
		f := newBillFixture(t)
		_, err := f.svc.BulkIssue(context.Background(), adminID, nil)
		assert.True(t, errors.Is(err, billing.ErrValidation))
	})
}

func TestBillService_Queries(t *testing.T) {
	r := newResident(t, "A-101", "a101@example.com")
	other := newResident(t, "C-303", "c303@example.com")
	f := newBillFixture(t, r, other)
	early := f.seedBill(t, r, billing.BillTypeElectricity, 100, 0, f.now.AddDate(0, 0, 5))
	late := f.seedBill(t, r, billing.BillTypeMaintenance, 200, 50, f.now.AddDate(0, 0, 20))
	ctx := context.Background()

	t.Run("user bills latest due first", func(t *testing.T) {
		bills, err := f.svc.ListUserBills(ctx, adminID, r.ID)
		require.NoError(t, err)
		require.Len(t, bills, 2)
		assert.Equal(t, late.ID, bills[0].ID)
		assert.Equal(t, early.ID, bills[1].ID)
	})

	t.Run("empty user bills is not found", func(t *testing.T) {
		_, err := f.svc.ListUserBills(ctx, adminID, other.ID)
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})

	t.Run("resident cannot read another resident's bill", func(t *testing.T) {
		_, err := f.svc.GetBill(ctx, billing.Identity{UserID: other.ID}, early.ID)
		assert.True(t, errors.Is(err, shared.ErrForbidden))

		got, err := f.svc.GetBill(ctx, billing.Identity{UserID: r.ID}, early.ID)
		require.NoError(t, err)
		assert.Equal(t, early.ID, got.ID)
	})

	t.Run("all bills requires admin", func(t *testing.T) {
		_, err := f.svc.ListAllBills(ctx, billing.Identity{UserID: r.ID})
		assert.True(t, errors.Is(err, shared.ErrForbidden))

		all, err := f.svc.ListAllBills(ctx, adminID)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("report groups by type", func(t *testing.T) {
		rep, err := f.svc.GenerateReport(ctx, adminID, time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
		require.NoError(t, err)
		require.Len(t, rep.Types, 2)
		assert.Equal(t, billing.BillTypeElectricity, rep.Types[0].BillType)
		assert.Equal(t, int64(1), rep.Types[0].Count)
		assert.True(t, rep.Types[1].TotalPaid.Equal(amt(50)))
		assert.True(t, rep.Types[1].TotalRemaining.Equal(amt(150)))

		_, err = f.svc.GenerateReport(ctx, adminID, time.Now(), time.Now().Add(-time.Hour))
		assert.True(t, errors.Is(err, billing.ErrValidation))
	})
}

func TestBillService_UpdateBill(t *testing.T) {
	r := newResident(t, "A-101", "a101@example.com")
	f := newBillFixture(t, r)
	bill := f.seedBill(t, r, billing.BillTypeElectricity, 500, 200, f.now.AddDate(0, 0, 5))
	ctx := context.Background()

	resp, err := f.svc.UpdateBill(ctx, adminID, bill.ID, UpdateBillInput{OriginalAmount: amtPtr(700)})
	require.NoError(t, err)
	assert.True(t, resp.TotalAmount.Equal(amt(700)))
	assert.True(t, resp.RemainingAmount.Equal(amt(500)))
	assert.Equal(t, "partial", resp.Status)

	_, err = f.svc.UpdateBill(ctx, adminID, bill.ID, UpdateBillInput{OriginalAmount: amtPtr(100)})
	assert.True(t, errors.Is(err, billing.ErrValidation))

	stored, _ := f.ledger.bill(bill.ID)
	assert.True(t, stored.TotalAmount.Equal(amt(700)))

	_, err = f.svc.UpdateBill(ctx, billing.Identity{UserID: r.ID}, bill.ID, UpdateBillInput{OriginalAmount: amtPtr(800)})
	assert.True(t, errors.Is(err, shared.ErrForbidden))

	_, err = f.svc.UpdateBill(ctx, adminID, uuid.New(), UpdateBillInput{OriginalAmount: amtPtr(800)})
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

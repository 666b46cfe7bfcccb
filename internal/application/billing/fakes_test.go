package billing

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Nitish8696/flatgurugram/internal/domain/billing"
	"github.com/Nitish8696/flatgurugram/internal/domain/identity"
	"github.com/Nitish8696/flatgurugram/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// memoryLedger is an in-memory bill and payment store with copy-on-read
// semantics, so tests observe only what was saved.
type memoryLedger struct {
	mu       sync.Mutex
	bills    map[uuid.UUID]billing.Bill
	payments map[string]billing.Payment
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{
		bills:    make(map[uuid.UUID]billing.Bill),
		payments: make(map[string]billing.Payment),
	}
}

func (m *memoryLedger) scope() *NoOpTransactionScope {
	return NewNoOpTransactionScope(memoryBills{m}, memoryPayments{m})
}

func copyBill(b billing.Bill) billing.Bill {
	c := b
	c.ClearDomainEvents()
	c.PaymentDetails = append(billing.PaymentDetails{}, b.PaymentDetails...)
	return c
}

func (m *memoryLedger) bill(id uuid.UUID) (billing.Bill, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bills[id]
	return copyBill(b), ok
}

func (m *memoryLedger) put(b *billing.Bill) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bills[b.ID] = copyBill(*b)
}

func (m *memoryLedger) paymentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.payments)
}

type memoryBills struct{ m *memoryLedger }

func (r memoryBills) FindByID(_ context.Context, id uuid.UUID) (*billing.Bill, error) {
	b, ok := r.m.bill(id)
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &b, nil
}

func (r memoryBills) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*billing.Bill, error) {
	return r.FindByID(ctx, id)
}

func (r memoryBills) filter(keep func(billing.Bill) bool) []billing.Bill {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []billing.Bill
	for _, b := range r.m.bills {
		if keep(b) {
			out = append(out, copyBill(b))
		}
	}
	return out
}

func (r memoryBills) FindOverdueOutstanding(_ context.Context, userID uuid.UUID, billType billing.BillType, now time.Time) ([]billing.Bill, error) {
	out := r.filter(func(b billing.Bill) bool {
		return b.UserID == userID && b.BillType == billType && b.IsOverdue(now)
	})
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

func (r memoryBills) FindByUser(_ context.Context, userID uuid.UUID) ([]billing.Bill, error) {
	out := r.filter(func(b billing.Bill) bool { return b.UserID == userID })
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.After(out[j].DueDate) })
	return out, nil
}

func (r memoryBills) FindPendingByUser(_ context.Context, userID uuid.UUID) ([]billing.Bill, error) {
	out := r.filter(func(b billing.Bill) bool { return b.UserID == userID && b.Status != billing.BillStatusPaid })
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

func (r memoryBills) FindAll(_ context.Context) ([]billing.Bill, error) {
	return r.filter(func(billing.Bill) bool { return true }), nil
}

func (r memoryBills) Summarize(_ context.Context, from, to time.Time) ([]billing.BillTypeSummary, error) {
	rows := map[billing.BillType]*billing.BillTypeSummary{}
	for _, b := range r.filter(func(b billing.Bill) bool {
		return !b.UploadedAt.Before(from) && !b.UploadedAt.After(to)
	}) {
		row, ok := rows[b.BillType]
		if !ok {
			row = &billing.BillTypeSummary{BillType: b.BillType}
			rows[b.BillType] = row
		}
		row.Count++
		row.TotalPaid = row.TotalPaid.Add(b.AmountPaid)
		row.TotalRemaining = row.TotalRemaining.Add(b.RemainingAmount)
	}
	out := make([]billing.BillTypeSummary, 0, len(rows))
	for _, row := range rows {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BillType < out[j].BillType })
	return out, nil
}

func (r memoryBills) Save(_ context.Context, bill *billing.Bill) error {
	r.m.put(bill)
	return nil
}

func (r memoryBills) SaveBatch(ctx context.Context, bills []*billing.Bill) error {
	for _, b := range bills {
		r.m.put(b)
	}
	return nil
}

func (r memoryBills) DeleteByIDs(_ context.Context, ids []uuid.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, id := range ids {
		delete(r.m.bills, id)
	}
	return nil
}

type memoryPayments struct{ m *memoryLedger }

func (r memoryPayments) Create(_ context.Context, p *billing.Payment) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, exists := r.m.payments[p.TransactionID]; exists {
		return shared.ErrAlreadyExists
	}
	r.m.payments[p.TransactionID] = *p
	return nil
}

func (r memoryPayments) FindByTransactionID(_ context.Context, transactionID string) (*billing.Payment, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p, ok := r.m.payments[transactionID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &p, nil
}

func (r memoryPayments) byUser(userID uuid.UUID) []billing.Payment {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []billing.Payment
	for _, p := range r.m.payments {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PaymentDate.After(out[j].PaymentDate) })
	return out
}

func (r memoryPayments) FindByUser(_ context.Context, userID uuid.UUID, filter billing.PaymentFilter) ([]billing.Payment, error) {
	var out []billing.Payment
	for _, p := range r.byUser(userID) {
		if !filter.From.IsZero() && p.PaymentDate.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && p.PaymentDate.After(filter.To) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (r memoryPayments) FindByUserPaged(_ context.Context, userID uuid.UUID, page shared.PageRequest) ([]billing.Payment, int64, error) {
	all := r.byUser(userID)
	start := page.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + page.PageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], int64(len(all)), nil
}

func (r memoryPayments) FindRecentByUser(_ context.Context, userID uuid.UUID, limit int) ([]billing.Payment, error) {
	all := r.byUser(userID)
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// memoryResidents is a read-only resident lookup for bill issuance
type memoryResidents struct {
	byID map[uuid.UUID]*identity.Resident
}

func newMemoryResidents(residents ...*identity.Resident) *memoryResidents {
	m := &memoryResidents{byID: make(map[uuid.UUID]*identity.Resident)}
	for _, r := range residents {
		m.byID[r.ID] = r
	}
	return m
}

func (m *memoryResidents) Create(_ context.Context, r *identity.Resident) error {
	m.byID[r.ID] = r
	return nil
}

func (m *memoryResidents) CreateBatch(ctx context.Context, rs []*identity.Resident) error {
	for _, r := range rs {
		m.byID[r.ID] = r
	}
	return nil
}

func (m *memoryResidents) FindByID(_ context.Context, id uuid.UUID) (*identity.Resident, error) {
	r, ok := m.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return r, nil
}

func (m *memoryResidents) FindByFlatNumber(_ context.Context, flat string) (*identity.Resident, error) {
	for _, r := range m.byID {
		if r.FlatNumber == flat {
			return r, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memoryResidents) FindByFlatNumbers(_ context.Context, flats []string) (map[string]*identity.Resident, error) {
	out := make(map[string]*identity.Resident)
	for _, f := range flats {
		for _, r := range m.byID {
			if r.FlatNumber == f {
				out[f] = r
			}
		}
	}
	return out, nil
}

func (m *memoryResidents) FindAll(_ context.Context, _ identity.ResidentFilter) ([]*identity.Resident, error) {
	out := make([]*identity.Resident, 0, len(m.byID))
	for _, r := range m.byID {
		out = append(out, r)
	}
	return out, nil
}

func (m *memoryResidents) ExistingKeys(_ context.Context, _, _ []string) (map[string]bool, map[string]bool, error) {
	return map[string]bool{}, map[string]bool{}, nil
}

// recordingPublisher captures published events
type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

// MockPaymentGateway is a testify mock of billing.PaymentGateway
type MockPaymentGateway struct {
	mock.Mock
}

func (m *MockPaymentGateway) CreateSession(ctx context.Context, req billing.SessionRequest) (*billing.SessionResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.SessionResponse), args.Error(1)
}

func (m *MockPaymentGateway) GetOrderStatus(ctx context.Context, orderID string) (*billing.OrderStatusResponse, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.OrderStatusResponse), args.Error(1)
}

// MockClaimStore is a testify mock of shared.ClaimStore
type MockClaimStore struct {
	mock.Mock
}

func (m *MockClaimStore) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockClaimStore) Release(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockClaimStore) Close() error {
	return m.Called().Error(0)
}

// memoryClaims is a single-process claim store that ignores ttl
type memoryClaims struct {
	mu   sync.Mutex
	held map[string]bool
}

func newMemoryClaims() *memoryClaims {
	return &memoryClaims{held: make(map[string]bool)}
}

func (c *memoryClaims) Claim(_ context.Context, key string, _ time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.held[key] {
		return false, nil
	}
	c.held[key] = true
	return true, nil
}

func (c *memoryClaims) Release(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.held, key)
	return nil
}

func (c *memoryClaims) Close() error { return nil }

// MockNotifier is a testify mock of Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyBillIssued(ctx context.Context, notice BillNotice) error {
	return m.Called(ctx, notice).Error(0)
}

func amt(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func amtPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

package billing

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Nitish8696/flatgurugram/internal/domain/billing"
	"github.com/Nitish8696/flatgurugram/internal/domain/identity"
	"github.com/Nitish8696/flatgurugram/internal/domain/shared"
	"github.com/Nitish8696/flatgurugram/internal/infrastructure/logger"
	"github.com/Nitish8696/flatgurugram/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BillService issues bills with carry-forward and serves admin bill operations
type BillService struct {
	txScope      TransactionScope
	billRepo     billing.BillRepository
	residentRepo identity.ResidentRepository
	publisher    shared.EventPublisher
	metrics      Metrics
	logger       *zap.Logger
	now          func() time.Time
}

// BillServiceConfig holds the dependencies of BillService
type BillServiceConfig struct {
	TxScope      TransactionScope
	BillRepo     billing.BillRepository
	ResidentRepo identity.ResidentRepository
	Publisher    shared.EventPublisher
	Metrics      Metrics
	Logger       *zap.Logger
}

// NewBillService creates a new BillService
func NewBillService(cfg BillServiceConfig) *BillService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &BillService{
		txScope:      cfg.TxScope,
		billRepo:     cfg.BillRepo,
		residentRepo: cfg.ResidentRepo,
		publisher:    cfg.Publisher,
		metrics:      metrics,
		logger:       logger,
		now:          time.Now,
	}
}

// issueRequest is one validated bill to issue
type issueRequest struct {
	resident *identity.Resident
	flat     string
	billType billing.BillType
	amount   decimal.Decimal
	dueDate  time.Time
}

func parseIssueRequest(flat, billType string, amount decimal.Decimal, dueDate time.Time) (issueRequest, error) {
	bt := billing.BillType(strings.ToLower(strings.TrimSpace(billType)))
	if !bt.IsValid() {
		return issueRequest{}, billing.NewValidationError("invalid bill type %q", billType)
	}
	if !amount.IsPositive() {
		return issueRequest{}, billing.NewValidationError("original amount must be positive")
	}
	if dueDate.IsZero() {
		return issueRequest{}, billing.NewValidationError("due date is required")
	}
	return issueRequest{flat: strings.TrimSpace(flat), billType: bt, amount: amount, dueDate: dueDate}, nil
}

// IssueBill folds the user's overdue balance of the same type into a new bill.
// The folded bills are deleted in the same transaction.
func (s *BillService) IssueBill(ctx context.Context, id billing.Identity, input IssueBillInput) (*BillResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "bill", "issue")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrFlatNumber, input.FlatNumber, telemetry.SpanAttrBillType, input.BillType)

	result, err := s.issueBill(ctx, id, input)
	if err != nil {
		telemetry.RecordError(span, err)
	}
	return result, err
}

func (s *BillService) issueBill(ctx context.Context, id billing.Identity, input IssueBillInput) (*BillResponse, error) {
	if err := id.RequireAdmin(); err != nil {
		return nil, err
	}
	req, err := parseIssueRequest(input.FlatNumber, input.BillType, input.OriginalAmount, input.DueDate)
	if err != nil {
		return nil, err
	}

	resident, err := s.resolveResident(ctx, input.UserID, req.flat)
	if err != nil {
		return nil, err
	}
	req.resident = resident
	if req.flat == "" {
		req.flat = resident.FlatNumber
	}

	now := s.now()
	var bill *billing.Bill
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		bills, err := s.issueInTx(ctx, repos, []issueRequest{req}, now)
		if err != nil {
			return err
		}
		bill = bills[0]
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterIssue(ctx, bill)
	resp := ToBillResponse(bill)
	return &resp, nil
}

// BulkIssue resolves every row to a resident before touching the ledger.
// An unknown flat fails the whole batch and nothing is written.
func (s *BillService) BulkIssue(ctx context.Context, id billing.Identity, rows []BulkBillRow) (*BulkIssueResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "bill", "bulk_issue")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrCount, len(rows))

	result, err := s.bulkIssue(ctx, id, rows)
	if err != nil {
		telemetry.RecordError(span, err)
	}
	return result, err
}

func (s *BillService) bulkIssue(ctx context.Context, id billing.Identity, rows []BulkBillRow) (*BulkIssueResult, error) {
	if err := id.RequireAdmin(); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, billing.NewValidationError("no bill rows provided")
	}

	reqs := make([]issueRequest, 0, len(rows))
	flats := make([]string, 0, len(rows))
	for i, row := range rows {
		req, err := parseIssueRequest(row.FlatNumber, row.BillType, row.OriginalAmount, row.DueDate)
		if err != nil {
			return nil, billing.NewValidationError("row %d: %s", i+1, err.Error())
		}
		if req.flat == "" {
			return nil, billing.NewValidationError("row %d: flat number is required", i+1)
		}
		reqs = append(reqs, req)
		flats = append(flats, req.flat)
	}

	residents, err := s.residentRepo.FindByFlatNumbers(ctx, flats)
	if err != nil {
		return nil, fmt.Errorf("resolve flats: %w", err)
	}
	var missing []string
	for i := range reqs {
		r, ok := residents[reqs[i].flat]
		if !ok {
			missing = append(missing, reqs[i].flat)
			continue
		}
		reqs[i].resident = r
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, shared.NewDomainError(shared.CodeNotFound,
			"no resident registered for flat(s): "+strings.Join(dedupe(missing), ", "))
	}

	now := s.now()
	var bills []*billing.Bill
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		bills, err = s.issueInTx(ctx, repos, reqs, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.afterIssue(ctx, bills...)
	out := make([]BillResponse, 0, len(bills))
	for _, b := range bills {
		out = append(out, ToBillResponse(b))
	}
	return &BulkIssueResult{Count: len(out), Bills: out}, nil
}

// issueInTx builds every new bill against the state before the batch, then
// deletes the folded bills and inserts the new ones. An overdue bill folds
// into the first row of the batch that matches it.
func (s *BillService) issueInTx(ctx context.Context, repos TransactionalRepositories, reqs []issueRequest, now time.Time) ([]*billing.Bill, error) {
	folded := make(map[uuid.UUID]bool)
	var deleteIDs []uuid.UUID
	bills := make([]*billing.Bill, 0, len(reqs))

	for _, req := range reqs {
		overdue, err := repos.BillRepo().FindOverdueOutstanding(ctx, req.resident.ID, req.billType, now)
		if err != nil {
			return nil, fmt.Errorf("find overdue bills: %w", err)
		}

		taken := make([]billing.Bill, 0, len(overdue))
		outstanding := decimal.Zero
		for _, old := range overdue {
			if folded[old.ID] {
				continue
			}
			folded[old.ID] = true
			taken = append(taken, old)
			deleteIDs = append(deleteIDs, old.ID)
			outstanding = outstanding.Add(old.CarryOver(now))
		}

		bill, err := billing.NewBill(req.resident.ID, req.flat, req.billType, req.amount, outstanding, req.dueDate)
		if err != nil {
			return nil, err
		}
		if len(taken) > 0 {
			bill.AddDomainEvent(billing.NewBillsFoldedEvent(bill, taken))
		}
		bill.AddDomainEvent(billing.NewBillIssuedEvent(bill, req.resident.Email, req.resident.Name))
		bills = append(bills, bill)
	}

	if len(deleteIDs) > 0 {
		if err := repos.BillRepo().DeleteByIDs(ctx, deleteIDs); err != nil {
			return nil, fmt.Errorf("delete folded bills: %w", err)
		}
	}
	if err := repos.BillRepo().SaveBatch(ctx, bills); err != nil {
		return nil, fmt.Errorf("save bills: %w", err)
	}
	return bills, nil
}

func (s *BillService) afterIssue(ctx context.Context, bills ...*billing.Bill) {
	aggs := make([]shared.AggregateRoot, 0, len(bills))
	for _, b := range bills {
		carried := b.TotalAmount.GreaterThan(b.OriginalAmount)
		s.metrics.BillsIssued(ctx, b.BillType, 1, carried)
		s.logger.Info("Bill issued",
			logger.BillID(b.ID),
			logger.FlatNumber(b.FlatNumber),
			zap.String("bill_type", string(b.BillType)),
			logger.Amount("original_amount", b.OriginalAmount),
			logger.Amount("total_amount", b.TotalAmount))
		aggs = append(aggs, b)
	}
	publishEvents(ctx, s.publisher, s.logger, aggs...)
}

func (s *BillService) resolveResident(ctx context.Context, userID uuid.UUID, flat string) (*identity.Resident, error) {
	switch {
	case userID != uuid.Nil:
		r, err := s.residentRepo.FindByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		if flat != "" && flat != r.FlatNumber {
			return nil, billing.NewValidationError("flat number %s does not belong to the user", flat)
		}
		return r, nil
	case flat != "":
		return s.residentRepo.FindByFlatNumber(ctx, flat)
	default:
		return nil, billing.NewValidationError("user id or flat number is required")
	}
}

// ListAllBills returns every bill
func (s *BillService) ListAllBills(ctx context.Context, id billing.Identity) ([]BillResponse, error) {
	if err := id.RequireAdmin(); err != nil {
		return nil, err
	}
	bills, err := s.billRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return ToBillResponses(bills), nil
}

// ListUserBills returns a user's bills, latest due date first.
// An empty result is reported as not found.
func (s *BillService) ListUserBills(ctx context.Context, id billing.Identity, userID uuid.UUID) ([]BillResponse, error) {
	if err := id.RequireOwnerOrAdmin(userID); err != nil {
		return nil, err
	}
	bills, err := s.billRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(bills) == 0 {
		return nil, billing.NewNotFoundError("bills for user")
	}
	return ToBillResponses(bills), nil
}

// GetBill returns one bill visible to the caller
func (s *BillService) GetBill(ctx context.Context, id billing.Identity, billID uuid.UUID) (*BillResponse, error) {
	if err := id.RequireAuthenticated(); err != nil {
		return nil, err
	}
	bill, err := s.billRepo.FindByID(ctx, billID)
	if err != nil {
		return nil, err
	}
	if err := id.RequireOwnerOrAdmin(bill.UserID); err != nil {
		return nil, err
	}
	resp := ToBillResponse(bill)
	return &resp, nil
}

// UpdateBill corrects a bill's due date or original amount under the row lock
func (s *BillService) UpdateBill(ctx context.Context, id billing.Identity, billID uuid.UUID, input UpdateBillInput) (*BillResponse, error) {
	if err := id.RequireAdmin(); err != nil {
		return nil, err
	}

	var bill *billing.Bill
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		bill, err = repos.BillRepo().FindByIDForUpdate(ctx, billID)
		if err != nil {
			return err
		}
		if err := bill.Update(billing.BillUpdate{DueDate: input.DueDate, OriginalAmount: input.OriginalAmount}); err != nil {
			return err
		}
		return repos.BillRepo().Save(ctx, bill)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Bill updated",
		logger.BillID(bill.ID),
		logger.Amount("total_amount", bill.TotalAmount),
		zap.String("status", string(bill.Status)))
	resp := ToBillResponse(bill)
	return &resp, nil
}

// GenerateReport groups bills uploaded in [from, to] by type
func (s *BillService) GenerateReport(ctx context.Context, id billing.Identity, from, to time.Time) (*ReportResponse, error) {
	if err := id.RequireAdmin(); err != nil {
		return nil, err
	}
	if from.IsZero() || to.IsZero() {
		return nil, billing.NewValidationError("start and end dates are required")
	}
	if from.After(to) {
		return nil, billing.NewValidationError("start date must not be after end date")
	}
	rows, err := s.billRepo.Summarize(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return &ReportResponse{From: from, To: to, Types: rows}, nil
}

func dedupe(sorted []string) []string {
	out := sorted[:0]
	for i, s := range sorted {
		if i == 0 || s != sorted[i-1] {
			out = append(out, s)
		}
	}
	return out
}

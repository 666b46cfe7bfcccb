package billing

import (
	"context"
	"time"

	"github.com/Nitish8696/flatgurugram/internal/domain/billing"
	"github.com/Nitish8696/flatgurugram/internal/domain/shared"
	"github.com/Nitish8696/flatgurugram/internal/infrastructure/logger"
	"github.com/Nitish8696/flatgurugram/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const recentPaymentsLimit = 10

// PaymentService applies direct payments and serves payment listings
type PaymentService struct {
	txScope     TransactionScope
	billRepo    billing.BillRepository
	paymentRepo billing.PaymentRepository
	publisher   shared.EventPublisher
	metrics     Metrics
	policy      Policy
	logger      *zap.Logger
	now         func() time.Time
}

// PaymentServiceConfig holds the dependencies of PaymentService
type PaymentServiceConfig struct {
	TxScope     TransactionScope
	BillRepo    billing.BillRepository
	PaymentRepo billing.PaymentRepository
	Publisher   shared.EventPublisher
	Metrics     Metrics
	Policy      Policy
	Logger      *zap.Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(cfg PaymentServiceConfig) *PaymentService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &PaymentService{
		txScope:     cfg.TxScope,
		billRepo:    cfg.BillRepo,
		paymentRepo: cfg.PaymentRepo,
		publisher:   cfg.Publisher,
		metrics:     metrics,
		policy:      cfg.Policy.withDefaults(),
		logger:      logger,
		now:         time.Now,
	}
}

// PayBill applies a direct payment with a freshly generated transaction id.
// A resident may only pay their own bill.
func (s *PaymentService) PayBill(ctx context.Context, identity billing.Identity, input PayBillInput) (*PaymentResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "pay_bill")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrBillID, input.BillID, telemetry.SpanAttrAmount, input.Amount.String())

	result, err := s.payBill(ctx, identity, input)
	if err != nil {
		telemetry.RecordError(span, err)
	}
	return result, err
}

func (s *PaymentService) payBill(ctx context.Context, identity billing.Identity, input PayBillInput) (*PaymentResult, error) {
	if err := identity.RequireAuthenticated(); err != nil {
		return nil, err
	}
	if input.BillID == uuid.Nil {
		return nil, billing.NewValidationError("bill id is required")
	}

	now := s.now()
	meta := billing.PaymentMeta{
		TransactionID: billing.NewTransactionID(now),
		PaymentMethod: input.PaymentMethod,
		PaidAt:        now,
	}

	var bill *billing.Bill
	var payment *billing.Payment
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		bill, payment, err = applyPaymentLocked(ctx, repos, applyRequest{
			BillID:   input.BillID,
			Amount:   input.Amount,
			Minimum:  s.policy.MinimumPayment,
			Meta:     meta,
			Identity: identity,
		})
		return err
	})
	if err != nil {
		s.logger.Warn("Direct payment rejected",
			logger.BillID(input.BillID),
			logger.Amount("amount", input.Amount),
			zap.Error(err))
		return nil, err
	}

	s.metrics.PaymentRecorded(ctx, payment.Status, payment.AmountPaid, sourceDirect)
	s.logger.Info("Payment applied",
		logger.BillID(bill.ID),
		logger.TransactionID(payment.TransactionID),
		logger.Amount("amount", payment.AmountPaid),
		zap.String("status", string(bill.Status)))
	publishEvents(ctx, s.publisher, s.logger, bill)

	return &PaymentResult{Bill: ToBillResponse(bill), Payment: ToPaymentResponse(payment)}, nil
}

// ListMyPayments returns the caller's payments, newest first, one page at a time
func (s *PaymentService) ListMyPayments(ctx context.Context, identity billing.Identity, page shared.PageRequest) (*shared.Paginated[PaymentResponse], error) {
	if err := identity.RequireAuthenticated(); err != nil {
		return nil, err
	}
	page = page.Normalize()
	payments, total, err := s.paymentRepo.FindByUserPaged(ctx, identity.UserID, page)
	if err != nil {
		return nil, err
	}
	result := shared.NewPaginated(ToPaymentResponses(payments), total, page.Page, page.PageSize)
	return &result, nil
}

// ListUserPayments returns a user's payments in an optional date range.
// An empty result is reported as not found.
func (s *PaymentService) ListUserPayments(ctx context.Context, identity billing.Identity, userID uuid.UUID, filter billing.PaymentFilter) ([]PaymentResponse, error) {
	if err := identity.RequireAdmin(); err != nil {
		return nil, err
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.From.After(filter.To) {
		return nil, billing.NewValidationError("start date must not be after end date")
	}
	payments, err := s.paymentRepo.FindByUser(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	if len(payments) == 0 {
		return nil, billing.NewNotFoundError("payments")
	}
	return ToPaymentResponses(payments), nil
}

// Dashboard returns the caller's unpaid bills and latest payments
func (s *PaymentService) Dashboard(ctx context.Context, identity billing.Identity) (*DashboardResponse, error) {
	if err := identity.RequireAuthenticated(); err != nil {
		return nil, err
	}
	bills, err := s.billRepo.FindPendingByUser(ctx, identity.UserID)
	if err != nil {
		return nil, err
	}
	payments, err := s.paymentRepo.FindRecentByUser(ctx, identity.UserID, recentPaymentsLimit)
	if err != nil {
		return nil, err
	}
	return &DashboardResponse{
		PendingBills:   ToBillResponses(bills),
		RecentPayments: ToPaymentResponses(payments),
	}, nil
}

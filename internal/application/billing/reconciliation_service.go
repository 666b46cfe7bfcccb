package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Nitish8696/flatgurugram/internal/domain/billing"
	"github.com/Nitish8696/flatgurugram/internal/domain/shared"
	"github.com/Nitish8696/flatgurugram/internal/infrastructure/logger"
	"github.com/Nitish8696/flatgurugram/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	claimKeyPrefix   = "reconcile:"
	sessionKeyPrefix = "session:"
)

// ReconciliationService opens gateway sessions and settles their outcome
// against the local ledger. A transaction id is settled at most once.
type ReconciliationService struct {
	txScope     TransactionScope
	billRepo    billing.BillRepository
	paymentRepo billing.PaymentRepository
	gateway     billing.PaymentGateway
	claims      shared.ClaimStore
	publisher   shared.EventPublisher
	metrics     Metrics
	policy      Policy
	logger      *zap.Logger
	now         func() time.Time
}

// ReconciliationServiceConfig holds the dependencies of ReconciliationService
type ReconciliationServiceConfig struct {
	TxScope     TransactionScope
	BillRepo    billing.BillRepository
	PaymentRepo billing.PaymentRepository
	Gateway     billing.PaymentGateway
	Claims      shared.ClaimStore
	Publisher   shared.EventPublisher
	Metrics     Metrics
	Policy      Policy
	Logger      *zap.Logger
}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService(cfg ReconciliationServiceConfig) *ReconciliationService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &ReconciliationService{
		txScope:     cfg.TxScope,
		billRepo:    cfg.BillRepo,
		paymentRepo: cfg.PaymentRepo,
		gateway:     cfg.Gateway,
		claims:      cfg.Claims,
		publisher:   cfg.Publisher,
		metrics:     metrics,
		policy:      cfg.Policy.withDefaults(),
		logger:      logger,
		now:         time.Now,
	}
}

// InitiatePayment opens a hosted payment session for a bill. The amount
// defaults to the bill's remaining amount. Nothing is written to the ledger;
// the open session is tracked in the claim store so a bill has at most one
// until it settles or the session ttl runs out.
func (s *ReconciliationService) InitiatePayment(ctx context.Context, id billing.Identity, billID uuid.UUID, amount *decimal.Decimal) (*InitiatePaymentResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "reconciliation", "initiate_payment")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrBillID, billID)

	result, err := s.initiatePayment(ctx, id, billID, amount)
	if err != nil {
		telemetry.RecordError(span, err)
	}
	return result, err
}

func (s *ReconciliationService) initiatePayment(ctx context.Context, id billing.Identity, billID uuid.UUID, amount *decimal.Decimal) (*InitiatePaymentResult, error) {
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
	if bill.Status == billing.BillStatusPaid {
		return nil, billing.NewValidationError("bill is already paid")
	}

	requested := bill.RemainingAmount
	if amount != nil {
		requested = *amount
	}
	if err := bill.ValidatePayment(requested, s.policy.MinimumPayment); err != nil {
		return nil, err
	}

	if err := s.openSession(ctx, bill.ID); err != nil {
		return nil, err
	}
	keep := false
	defer func() {
		if !keep {
			s.closeSession(ctx, bill.ID)
		}
	}()

	txID := billing.NewTransactionID(s.now())
	session, err := s.gateway.CreateSession(ctx, billing.SessionRequest{
		OrderID:     txID,
		Amount:      requested,
		CustomerRef: bill.UserID.String(),
		ReturnURL:   s.policy.ReturnURL,
		Currency:    s.policy.Currency,
		BillRef:     bill.ID.String(),
	})
	if err != nil {
		s.logger.Error("Gateway session request failed",
			logger.TransactionID(txID),
			logger.BillID(bill.ID),
			zap.Error(err))
		if errors.Is(err, billing.ErrGatewayUnavailable) {
			return nil, billing.NewTransientProviderError("payment provider is unavailable, please retry")
		}
		return nil, billing.NewGatewayError("payment provider rejected the session request")
	}
	if !session.SessionAmount.Equal(requested) {
		s.logger.Error("Gateway session amount mismatch",
			logger.TransactionID(txID),
			zap.String("requested", requested.String()),
			zap.String("session_amount", session.SessionAmount.String()))
		return nil, billing.NewGatewayError("payment session amount does not match the requested amount")
	}
	if session.PaymentPageURL == "" {
		return nil, billing.NewGatewayError("payment provider returned no payment page")
	}

	keep = true
	s.logger.Info("Payment session opened",
		logger.TransactionID(txID),
		logger.BillID(bill.ID),
		logger.Amount("amount", requested))

	return &InitiatePaymentResult{
		TransactionID:  txID,
		BillID:         bill.ID,
		Amount:         requested,
		Currency:       s.policy.Currency,
		PaymentPageURL: session.PaymentPageURL,
	}, nil
}

// CheckStatus settles a gateway attempt. A transaction id that already has a
// local payment is answered from the ledger without asking the provider.
func (s *ReconciliationService) CheckStatus(ctx context.Context, id billing.Identity, transactionID string) (*ReconciliationResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "reconciliation", "check_status")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrTransactionID, transactionID)

	result, err := s.checkStatus(ctx, id, transactionID)
	if err != nil {
		telemetry.RecordError(span, err)
	}
	return result, err
}

func (s *ReconciliationService) checkStatus(ctx context.Context, id billing.Identity, transactionID string) (*ReconciliationResult, error) {
	if err := id.RequireAuthenticated(); err != nil {
		return nil, err
	}
	if !billing.IsTransactionID(transactionID) {
		return nil, billing.NewValidationError("invalid transaction id")
	}

	if existing, err := s.findResolved(ctx, id, transactionID); err != nil || existing != nil {
		return existing, err
	}

	release, err := s.claim(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	defer release()

	status, err := s.gateway.GetOrderStatus(ctx, transactionID)
	if err != nil {
		s.metrics.Reconciled(ctx, OutcomeProviderError)
		s.logger.Warn("Gateway status check failed",
			logger.TransactionID(transactionID),
			zap.Error(err))
		if errors.Is(err, billing.ErrGatewayUnavailable) || errors.Is(err, context.DeadlineExceeded) {
			return nil, billing.NewTransientProviderError("payment provider is unavailable, please retry")
		}
		return nil, billing.NewGatewayError("payment provider could not report the order status")
	}
	if status.Status.IsPending() {
		s.metrics.Reconciled(ctx, OutcomePending)
		return nil, billing.NewTransientProviderError("payment is still being processed, please retry")
	}

	billID, err := uuid.Parse(status.BillRef)
	if err != nil {
		s.logger.Error("Gateway order carries no bill reference",
			logger.TransactionID(transactionID),
			zap.String("bill_ref", status.BillRef))
		return nil, billing.NewGatewayError("payment provider returned an order without a bill reference")
	}

	result, bill, err := s.settle(ctx, id, transactionID, billID, status)
	if err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			// lost the insert race to a concurrent check on another instance
			existing, findErr := s.findResolved(ctx, id, transactionID)
			if findErr != nil || existing != nil {
				return existing, findErr
			}
			return nil, billing.NewTransientProviderError("payment status check already in progress, please retry")
		}
		return nil, err
	}
	if result.AlreadyReconciled {
		return result, nil
	}

	s.closeSession(ctx, billID)

	outcome := OutcomeFailed
	switch {
	case result.applied:
		outcome = OutcomeCharged
	case status.Status.IsCharged():
		outcome = OutcomeUnapplied
		s.logger.Error("Charged amount could not be applied to bill",
			logger.TransactionID(transactionID),
			logger.BillID(billID),
			logger.Amount("amount", status.Amount),
			zap.String("reason", result.Reason))
	}
	s.metrics.Reconciled(ctx, outcome)
	s.metrics.PaymentRecorded(ctx, billing.PaymentStatus(result.Payment.Status), result.Payment.AmountPaid, sourceGateway)
	s.logger.Info("Gateway payment reconciled",
		logger.TransactionID(transactionID),
		logger.BillID(billID),
		zap.String("provider_status", string(status.Status)),
		zap.String("payment_status", result.Payment.Status))
	if bill != nil {
		publishEvents(ctx, s.publisher, s.logger, bill)
	}

	return result, nil
}

// settle writes the outcome under the bill row lock. The local lookup is
// repeated inside the transaction so a concurrent settle is observed. Every
// final provider status ends in exactly one payment record: a charge that can
// no longer be applied (bill folded away or overpaid by a second session) is
// kept as a failed record carrying the reason.
func (s *ReconciliationService) settle(ctx context.Context, id billing.Identity, transactionID string, billID uuid.UUID, status *billing.OrderStatusResponse) (*ReconciliationResult, *billing.Bill, error) {
	var result *ReconciliationResult
	var bill *billing.Bill

	meta := billing.PaymentMeta{
		TransactionID: transactionID,
		PaymentMethod: billing.DefaultPaymentMethod,
		PaidAt:        s.now(),
	}

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		existing, err := repos.PaymentRepo().FindByTransactionID(ctx, transactionID)
		if err == nil {
			if err := id.RequireOwnerOrAdmin(existing.UserID); err != nil {
				return err
			}
			result = &ReconciliationResult{Payment: ToPaymentResponse(existing), AlreadyReconciled: true}
			return nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return err
		}

		bill, err = repos.BillRepo().FindByIDForUpdate(ctx, billID)
		if errors.Is(err, shared.ErrNotFound) {
			bill = nil
			result, err = s.settleOrphan(ctx, repos, id, billID, status, meta)
			return err
		}
		if err != nil {
			return err
		}
		if err := id.RequireOwnerOrAdmin(bill.UserID); err != nil {
			return err
		}

		var payment *billing.Payment
		reason := string(status.Status)
		if status.Status.IsCharged() {
			reason = ""
			payment, err = bill.ApplyPayment(status.Amount, meta, s.policy.MinimumPayment)
			if err != nil {
				if !isDomainCode(err, shared.CodeValidation) {
					return err
				}
				reason = unappliedReason(err)
				payment = bill.RecordFailedAttempt(status.Amount, meta, reason)
			}
		} else {
			payment = bill.RecordFailedAttempt(status.Amount, meta, reason)
		}

		if err := repos.PaymentRepo().Create(ctx, payment); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}
		if err := repos.BillRepo().Save(ctx, bill); err != nil {
			return fmt.Errorf("save bill: %w", err)
		}
		resp := ToBillResponse(bill)
		result = &ReconciliationResult{
			Payment: ToPaymentResponse(payment),
			Bill:    &resp,
			Reason:  reason,
			applied: payment.IsSuccessful(),
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return result, bill, nil
}

// settleOrphan records a final status for a bill that is gone
func (s *ReconciliationService) settleOrphan(ctx context.Context, repos TransactionalRepositories, id billing.Identity, billID uuid.UUID, status *billing.OrderStatusResponse, meta billing.PaymentMeta) (*ReconciliationResult, error) {
	userID, err := uuid.Parse(status.CustomerRef)
	if err != nil {
		return nil, billing.NewGatewayError("payment provider returned an order without a customer reference")
	}
	if err := id.RequireOwnerOrAdmin(userID); err != nil {
		return nil, err
	}

	var flatNumber string
	bills, err := repos.BillRepo().FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(bills) > 0 {
		flatNumber = bills[0].FlatNumber
	}

	reason := string(status.Status)
	if status.Status.IsCharged() {
		reason = unappliedReason(billing.NewNotFoundError("bill"))
	}
	payment := billing.NewOrphanedPayment(userID, billID, flatNumber, status.Amount, meta)
	if err := repos.PaymentRepo().Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}
	return &ReconciliationResult{Payment: ToPaymentResponse(payment), Reason: reason}, nil
}

func unappliedReason(err error) string {
	return "charged but not applied: " + err.Error()
}

func (s *ReconciliationService) findResolved(ctx context.Context, id billing.Identity, transactionID string) (*ReconciliationResult, error) {
	payment, err := s.paymentRepo.FindByTransactionID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if err := id.RequireOwnerOrAdmin(payment.UserID); err != nil {
		return nil, err
	}
	s.metrics.Reconciled(ctx, OutcomeAlreadyReconciled)
	return &ReconciliationResult{Payment: ToPaymentResponse(payment), AlreadyReconciled: true}, nil
}

// claim keeps a second status check for the same transaction out while one
// is talking to the provider. A broken claim store degrades to the database
// guards (row lock and unique transaction id).
func (s *ReconciliationService) claim(ctx context.Context, transactionID string) (func(), error) {
	if s.claims == nil {
		return func() {}, nil
	}
	key := claimKeyPrefix + transactionID
	ok, err := s.claims.Claim(ctx, key, s.policy.ClaimTTL)
	if err != nil {
		s.logger.Warn("Claim store unavailable, relying on database guards",
			logger.TransactionID(transactionID),
			zap.Error(err))
		return func() {}, nil
	}
	if !ok {
		return nil, billing.NewTransientProviderError("payment status check already in progress, please retry")
	}
	return func() {
		if err := s.claims.Release(context.WithoutCancel(ctx), key); err != nil {
			s.logger.Warn("Failed to release reconciliation claim",
				logger.TransactionID(transactionID),
				zap.Error(err))
		}
	}, nil
}

// openSession marks a bill as having a live payment session. A broken claim
// store lets the session through.
func (s *ReconciliationService) openSession(ctx context.Context, billID uuid.UUID) error {
	if s.claims == nil {
		return nil
	}
	ok, err := s.claims.Claim(ctx, sessionKeyPrefix+billID.String(), s.policy.SessionTTL)
	if err != nil {
		s.logger.Warn("Claim store unavailable, session guard skipped",
			logger.BillID(billID),
			zap.Error(err))
		return nil
	}
	if !ok {
		return billing.NewConflictError("a payment session is already open for this bill")
	}
	return nil
}

func (s *ReconciliationService) closeSession(ctx context.Context, billID uuid.UUID) {
	if s.claims == nil {
		return
	}
	if err := s.claims.Release(context.WithoutCancel(ctx), sessionKeyPrefix+billID.String()); err != nil {
		s.logger.Warn("Failed to release payment session",
			logger.BillID(billID),
			zap.Error(err))
	}
}

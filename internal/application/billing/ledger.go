package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/Nitish8696/flatgurugram/internal/domain/billing"
	"github.com/Nitish8696/flatgurugram/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// applyRequest describes one payment to apply under the bill row lock
type applyRequest struct {
	BillID   uuid.UUID
	Amount   decimal.Decimal
	Minimum  decimal.Decimal
	Meta     billing.PaymentMeta
	Identity billing.Identity
}

// applyPaymentLocked locks and re-reads the bill, validates against that
// fresh state, then writes the bill and the payment in the caller's
// transaction.
func applyPaymentLocked(ctx context.Context, repos TransactionalRepositories, req applyRequest) (*billing.Bill, *billing.Payment, error) {
	bill, err := repos.BillRepo().FindByIDForUpdate(ctx, req.BillID)
	if err != nil {
		return nil, nil, err
	}
	if err := req.Identity.RequireOwnerOrAdmin(bill.UserID); err != nil {
		return nil, nil, err
	}

	payment, err := bill.ApplyPayment(req.Amount, req.Meta, req.Minimum)
	if err != nil {
		return nil, nil, err
	}
	if err := repos.PaymentRepo().Create(ctx, payment); err != nil {
		return nil, nil, fmt.Errorf("create payment: %w", err)
	}
	if err := repos.BillRepo().Save(ctx, bill); err != nil {
		return nil, nil, fmt.Errorf("save bill: %w", err)
	}
	return bill, payment, nil
}

// publishEvents hands the pending events of each aggregate to the publisher
// and clears them. Publishing happens after commit; a failure is logged only.
func publishEvents(ctx context.Context, publisher shared.EventPublisher, logger *zap.Logger, aggregates ...shared.AggregateRoot) {
	var events []shared.DomainEvent
	for _, agg := range aggregates {
		if agg == nil {
			continue
		}
		events = append(events, agg.GetDomainEvents()...)
		agg.ClearDomainEvents()
	}
	if publisher == nil || len(events) == 0 {
		return
	}
	if err := publisher.Publish(ctx, events...); err != nil {
		logger.Error("Failed to publish billing events",
			zap.Int("event_count", len(events)),
			zap.Error(err))
	}
}

func isDomainCode(err error, code string) bool {
	var de *shared.DomainError
	return errors.As(err, &de) && de.Code == code
}

package billing

import (
	"context"
	"fmt"

	"github.com/Nitish8696/flatgurugram/internal/domain/billing"
	"github.com/Nitish8696/flatgurugram/internal/domain/shared"
	"github.com/Nitish8696/flatgurugram/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// BillIssuedNotifier tells residents about new bills. Delivery failures are
// logged and swallowed; they never affect the issued bill.
type BillIssuedNotifier struct {
	notifier Notifier
	logger   *zap.Logger
}

// NewBillIssuedNotifier creates a new handler for BillIssued events
func NewBillIssuedNotifier(notifier Notifier, logger *zap.Logger) *BillIssuedNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BillIssuedNotifier{notifier: notifier, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *BillIssuedNotifier) EventTypes() []string {
	return []string{billing.EventTypeBillIssued}
}

// Handle sends the bill notice for a BillIssuedEvent
func (h *BillIssuedNotifier) Handle(ctx context.Context, event shared.DomainEvent) error {
	issued, ok := event.(*billing.BillIssuedEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", billing.EventTypeBillIssued),
			zap.String("actual", event.EventType()))
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			billing.EventTypeBillIssued, event.EventType())
	}
	if issued.RecipientEmail == "" {
		h.logger.Warn("bill issued for resident without email, skipping notice",
			logger.BillID(issued.BillID),
			logger.FlatNumber(issued.FlatNumber))
		return nil
	}

	err := h.notifier.NotifyBillIssued(ctx, BillNotice{
		RecipientEmail: issued.RecipientEmail,
		RecipientName:  issued.RecipientName,
		FlatNumber:     issued.FlatNumber,
		BillType:       issued.BillType,
		TotalAmount:    issued.TotalAmount,
		DueDate:        issued.DueDate,
	})
	if err != nil {
		h.logger.Error("failed to send bill notice",
			logger.BillID(issued.BillID),
			zap.String("recipient", issued.RecipientEmail),
			zap.Error(err))
		return nil
	}

	h.logger.Info("bill notice sent",
		logger.BillID(issued.BillID),
		zap.String("recipient", issued.RecipientEmail))
	return nil
}

var _ shared.EventHandler = (*BillIssuedNotifier)(nil)

package event

import "github.com/Nitish8696/flatgurugram/internal/domain/billing"

// RegisterBillingEvents registers the billing event types with the serializer
func RegisterBillingEvents(serializer *EventSerializer) {
	serializer.Register(
		billing.EventTypeBillIssued,
		billing.EventTypeBillsFolded,
		billing.EventTypePaymentApplied,
		billing.EventTypePaymentFailed,
	)
}

// NewBillingSerializer returns a serializer that knows every billing event
func NewBillingSerializer() *EventSerializer {
	s := NewEventSerializer()
	RegisterBillingEvents(s)
	return s
}

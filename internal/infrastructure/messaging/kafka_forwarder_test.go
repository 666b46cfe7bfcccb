package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Nitish8696/flatgurugram/internal/domain/billing"
	"github.com/Nitish8696/flatgurugram/internal/domain/shared"
	"github.com/Nitish8696/flatgurugram/internal/infrastructure/event"
	"github.com/Shopify/sarama"
	"github.com/Shopify/sarama/mocks"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newIssuedEvent(t *testing.T) *billing.BillIssuedEvent {
	t.Helper()
	bill, err := billing.NewBill(uuid.New(), "C-303", billing.BillTypeElectricity,
		decimal.NewFromInt(640), decimal.Zero, time.Now().AddDate(0, 0, 20))
	require.NoError(t, err)
	return billing.NewBillIssuedEvent(bill, "c@example.com", "Chitra")
}

func TestKafkaEventForwarder_Handle(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	defer func() { _ = producer.Close() }()

	evt := newIssuedEvent(t)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var env event.Envelope
		if err := json.Unmarshal(val, &env); err != nil {
			return err
		}
		if env.Type != billing.EventTypeBillIssued || env.AggregateID != evt.AggregateID() {
			return errors.New("unexpected envelope")
		}
		return nil
	})

	forwarder := NewKafkaEventForwarder(producer, "billing-events", zap.NewNop())
	assert.Contains(t, forwarder.EventTypes(), billing.EventTypeBillIssued)
	require.NoError(t, forwarder.Handle(context.Background(), evt))
}

func TestKafkaEventForwarder_SendFailure(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	defer func() { _ = producer.Close() }()
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	forwarder := NewKafkaEventForwarder(producer, "billing-events", nil)
	err := forwarder.Handle(context.Background(), newIssuedEvent(t))
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
}

func TestKafkaEventForwarder_CancelledContext(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	defer func() { _ = producer.Close() }()

	forwarder := NewKafkaEventForwarder(producer, "billing-events", nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, forwarder.Handle(ctx, newIssuedEvent(t)), context.Canceled)
}

func TestKafkaEventForwarder_ThroughEventBus(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	defer func() { _ = producer.Close() }()
	producer.ExpectSendMessageAndSucceed()

	bus := event.NewInMemoryEventBus(zap.NewNop())
	bus.Subscribe(NewKafkaEventForwarder(producer, "billing-events", nil))
	require.NoError(t, bus.Publish(context.Background(), newIssuedEvent(t)))
}

func TestKafkaEventForwarder_SkipsUnpublishedEvents(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	defer func() { _ = producer.Close() }()

	bus := event.NewInMemoryEventBus(zap.NewNop())
	bus.Subscribe(NewKafkaEventForwarder(producer, "billing-events", nil))

	internal := shared.NewBaseDomainEvent("ResidentRegistered", "Resident", uuid.New())
	require.NoError(t, bus.Publish(context.Background(), &internal))
	// the mock producer fails the test on any unexpected send
}

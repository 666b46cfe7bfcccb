package event

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Nitish8696/flatgurugram/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEvent struct {
	shared.BaseDomainEvent
	Data string `json:"data"`
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "TestAggregate", uuid.New()),
		Data:            "test data",
	}
}

type testHandler struct {
	eventTypes []string
	handled    []shared.DomainEvent
	err        error
	panics     bool
	block      chan struct{}
	mu         sync.Mutex
}

func newTestHandler(eventTypes ...string) *testHandler {
	return &testHandler{eventTypes: eventTypes}
}

func (h *testHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if h.block != nil {
		<-h.block
	}
	if h.panics {
		panic("boom")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	return h.err
}

func (h *testHandler) EventTypes() []string {
	return h.eventTypes
}

func (h *testHandler) getHandled() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]shared.DomainEvent(nil), h.handled...)
}

func TestInMemoryEventBus_SynchronousBeforeStart(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	handler := newTestHandler("TestEvent")
	bus.Subscribe(handler)

	event := newTestEvent("TestEvent")
	require.NoError(t, bus.Publish(context.Background(), event, newTestEvent("TestEvent")))

	handled := handler.getHandled()
	require.Len(t, handled, 2)
	assert.Equal(t, event, handled[0])
}

func TestInMemoryEventBus_Routing(t *testing.T) {
	tests := []struct {
		name      string
		subscribe []string
		publish   string
		want      int
	}{
		{"matching type", []string{"TestEvent"}, "TestEvent", 1},
		{"other type", []string{"OtherEvent"}, "TestEvent", 0},
		{"wildcard", nil, "AnyEvent", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := NewInMemoryEventBus(nil)
			handler := newTestHandler(tt.subscribe...)
			bus.Subscribe(handler)

			require.NoError(t, bus.Publish(context.Background(), newTestEvent(tt.publish)))
			assert.Len(t, handler.getHandled(), tt.want)
		})
	}
}

func TestInMemoryEventBus_FailingHandlersDoNotStopOthers(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	failing := newTestHandler("TestEvent")
	failing.err = errors.New("handler error")
	panicking := newTestHandler("TestEvent")
	panicking.panics = true
	healthy := newTestHandler("TestEvent")
	bus.Subscribe(failing)
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("TestEvent")))
	assert.Len(t, failing.getHandled(), 1)
	assert.Len(t, healthy.getHandled(), 1)
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := newTestHandler("TestEvent")
	bus.Subscribe(handler)

	_ = bus.Publish(context.Background(), newTestEvent("TestEvent"))
	bus.Unsubscribe(handler)
	_ = bus.Publish(context.Background(), newTestEvent("TestEvent"))

	assert.Len(t, handler.getHandled(), 1)
}

func TestInMemoryEventBus_AsyncDeliveryAndStop(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	require.NoError(t, bus.Start(context.Background()))

	handler := newTestHandler("TestEvent")
	handler.block = make(chan struct{})
	bus.Subscribe(handler)

	ctx, cancelPublisher := context.WithCancel(context.Background())
	require.NoError(t, bus.Publish(ctx, newTestEvent("TestEvent")))
	cancelPublisher()

	// delivery is still pending while the handler blocks
	assert.Empty(t, handler.getHandled())
	close(handler.block)

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, bus.Stop(stopCtx))
	assert.Len(t, handler.getHandled(), 1)

	assert.ErrorIs(t, bus.Publish(context.Background(), newTestEvent("TestEvent")), ErrBusStopped)
}

func TestInMemoryEventBus_StopTimesOut(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	require.NoError(t, bus.Start(context.Background()))

	handler := newTestHandler("TestEvent")
	handler.block = make(chan struct{})
	defer close(handler.block)
	bus.Subscribe(handler)
	require.NoError(t, bus.Publish(context.Background(), newTestEvent("TestEvent")))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, bus.Stop(ctx), context.DeadlineExceeded)
}

func TestInMemoryEventBus_PublishRacingStop(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	require.NoError(t, bus.Start(context.Background()))
	handler := newTestHandler("TestEvent")
	bus.Subscribe(handler)

	var accepted atomic.Int64
	var publishers sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 50; i++ {
		publishers.Add(1)
		go func() {
			defer publishers.Done()
			<-start
			err := bus.Publish(context.Background(), newTestEvent("TestEvent"))
			if err == nil {
				accepted.Add(1)
				return
			}
			assert.ErrorIs(t, err, ErrBusStopped)
		}()
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	close(start)
	require.NoError(t, bus.Stop(ctx))
	handledAtStop := len(handler.getHandled())
	publishers.Wait()

	// nothing is accepted once Stop has begun, so Stop waited for all of it
	assert.Equal(t, int(accepted.Load()), handledAtStop)
	assert.Len(t, handler.getHandled(), handledAtStop)
}

package event

import (
	"context"
	"errors"
	"sync"

	"github.com/Nitish8696/flatgurugram/internal/domain/shared"
	"go.uber.org/zap"
)

// ErrBusStopped is returned when publishing after Stop
var ErrBusStopped = errors.New("event bus stopped")

// InMemoryEventBus delivers events to in-process handlers. Before Start,
// delivery is synchronous. Once started, each handler runs in its own
// goroutine with a context detached from the publisher's cancellation.
type InMemoryEventBus struct {
	registry *HandlerRegistry
	logger   *zap.Logger

	// mu orders wg.Add in Publish against the switch to stopped in Stop
	mu      sync.RWMutex
	running bool
	stopped bool
	wg      sync.WaitGroup
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus(logger *zap.Logger) *InMemoryEventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InMemoryEventBus{
		registry: NewHandlerRegistry(),
		logger:   logger,
	}
}

// Publish hands each event to its handlers. Handler failures are logged,
// never returned.
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	b.mu.RLock()
	if b.stopped {
		b.mu.RUnlock()
		return ErrBusStopped
	}
	if !b.running {
		b.mu.RUnlock()
		for _, event := range events {
			for _, handler := range b.registry.GetHandlers(event.EventType()) {
				b.dispatch(ctx, handler, event)
			}
		}
		return nil
	}

	deliveryCtx := context.WithoutCancel(ctx)
	for _, event := range events {
		for _, handler := range b.registry.GetHandlers(event.EventType()) {
			b.wg.Add(1)
			go func(h shared.EventHandler, e shared.DomainEvent) {
				defer b.wg.Done()
				b.dispatch(deliveryCtx, h, e)
			}(handler, event)
		}
	}
	b.mu.RUnlock()
	return nil
}

// Subscribe registers a handler; without explicit types the handler's own are used
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.registry.Register(handler, eventTypes...)
	b.logger.Debug("handler subscribed", zap.Strings("event_types", eventTypes))
}

// Unsubscribe removes a handler
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.registry.Unregister(handler)
	b.logger.Debug("handler unsubscribed")
}

// Start switches the bus to asynchronous delivery
func (b *InMemoryEventBus) Start(ctx context.Context) error {
	b.mu.Lock()
	b.running = !b.stopped
	b.mu.Unlock()
	b.logger.Info("event bus started")
	return nil
}

// Stop rejects new events and waits for in-flight deliveries or ctx
func (b *InMemoryEventBus) Stop(ctx context.Context) error {
	b.mu.Lock()
	b.stopped = true
	b.running = false
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.logger.Info("event bus stopped")
		return nil
	case <-ctx.Done():
		b.logger.Warn("event bus stopped with deliveries in flight")
		return ctx.Err()
	}
}

func (b *InMemoryEventBus) dispatch(ctx context.Context, handler shared.EventHandler, event shared.DomainEvent) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("handler panicked",
				zap.String("event_type", event.EventType()),
				zap.Any("panic", r),
			)
		}
	}()

	if err := handler.Handle(ctx, event); err != nil {
		b.logger.Error("handler failed to process event",
			zap.String("event_type", event.EventType()),
			zap.String("event_id", event.EventID().String()),
			zap.Error(err),
		)
	}
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)

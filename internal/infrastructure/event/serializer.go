package event

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Nitish8696/flatgurugram/internal/domain/shared"
	"github.com/google/uuid"
)

// Envelope is the wire form of a domain event. Payload holds the full event.
type Envelope struct {
	ID            uuid.UUID       `json:"id"`
	Type          string          `json:"type"`
	AggregateID   uuid.UUID       `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Payload       json.RawMessage `json:"payload"`
}

// EventSerializer encodes the event types registered with it as envelopes
type EventSerializer struct {
	mu       sync.RWMutex
	registry map[string]struct{}
}

// NewEventSerializer creates a new event serializer
func NewEventSerializer() *EventSerializer {
	return &EventSerializer{registry: make(map[string]struct{})}
}

// Register adds event types to the published contract
func (s *EventSerializer) Register(eventTypes ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range eventTypes {
		s.registry[t] = struct{}{}
	}
}

// Serialize wraps event in an Envelope and encodes it as JSON
func (s *EventSerializer) Serialize(event shared.DomainEvent) ([]byte, error) {
	if !s.IsRegistered(event.EventType()) {
		return nil, fmt.Errorf("unknown event type: %s", event.EventType())
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return json.Marshal(Envelope{
		ID:            event.EventID(),
		Type:          event.EventType(),
		AggregateID:   event.AggregateID(),
		AggregateType: event.AggregateType(),
		OccurredAt:    event.OccurredAt(),
		Payload:       payload,
	})
}

// IsRegistered checks if an event type is registered
func (s *EventSerializer) IsRegistered(eventType string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.registry[eventType]
	return ok
}

// EventTypes lists the registered event types in name order
func (s *EventSerializer) EventTypes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.registry))
	for t := range s.registry {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

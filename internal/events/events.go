package events

import (
	"context"
	"sync"
	"time"

	"payment-offers-api/internal/models"
)

// EventType represents the type of event.
type EventType string

const (
	// EventOffersIngested is emitted after an ingestion run completes
	EventOffersIngested EventType = "offers.ingested"
	// EventDiscountResolved is emitted after a discount resolution
	EventDiscountResolved EventType = "discount.resolved"
)

// Event represents an event in the system.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Data      interface{}
}

// OffersIngestedData contains data for ingestion events.
type OffersIngestedData struct {
	Result models.IngestResult
}

// DiscountResolvedData contains data for resolution events.
type DiscountResolvedData struct {
	Query  models.DiscountQuery
	Result models.DiscountResult
}

// Handler is a function that handles events.
type Handler func(ctx context.Context, event Event) error

// Manager manages event handlers and event publishing.
type Manager struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	enabled  bool
}

// NewManager creates a new event manager.
func NewManager(enabled bool) *Manager {
	return &Manager{
		handlers: make(map[EventType][]Handler),
		enabled:  enabled,
	}
}

// Subscribe subscribes a handler to a specific event type.
func (m *Manager) Subscribe(eventType EventType, handler Handler) {
	if !m.enabled {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.handlers[eventType] = append(m.handlers[eventType], handler)
}

// Publish publishes an event to all subscribed handlers. Handlers run
// asynchronously so publishing never blocks a request.
func (m *Manager) Publish(ctx context.Context, eventType EventType, data interface{}) {
	if !m.enabled {
		return
	}

	m.mu.RLock()
	handlers := m.handlers[eventType]
	m.mu.RUnlock()

	if len(handlers) == 0 {
		return
	}

	event := Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}

	// Handlers outlive the request; detach its cancellation so they
	// keep the request values but not its deadline.
	ctx = context.WithoutCancel(ctx)

	for _, handler := range handlers {
		go func(h Handler) {
			if err := h(ctx, event); err != nil {
				_ = err
			}
		}(handler)
	}
}

// PublishOffersIngested publishes an ingestion event.
func (m *Manager) PublishOffersIngested(ctx context.Context, result models.IngestResult) {
	m.Publish(ctx, EventOffersIngested, OffersIngestedData{Result: result})
}

// PublishDiscountResolved publishes a resolution event.
func (m *Manager) PublishDiscountResolved(ctx context.Context, query models.DiscountQuery, result models.DiscountResult) {
	m.Publish(ctx, EventDiscountResolved, DiscountResolvedData{
		Query:  query,
		Result: result,
	})
}

// Shutdown shuts down the event manager.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.enabled = false
	m.handlers = make(map[EventType][]Handler)
}

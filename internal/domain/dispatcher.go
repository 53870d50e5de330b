package domain

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"seatledger.io/ledger/internal/pkg/logger"
)

// EventHandler processes a ledger event.
type EventHandler func(ctx context.Context, event *LedgerEvent) error

// EventDispatcher routes ledger events to registered handlers.
type EventDispatcher struct {
	handlers map[LedgerEventType][]EventHandler
	mu       sync.RWMutex
}

// NewEventDispatcher creates a new EventDispatcher.
func NewEventDispatcher() *EventDispatcher {
	return &EventDispatcher{
		handlers: make(map[LedgerEventType][]EventHandler),
	}
}

// Register registers a handler for a specific event type.
func (d *EventDispatcher) Register(eventType LedgerEventType, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[eventType] = append(d.handlers[eventType], handler)
}

// RegisterAll registers handler for every ledger event type.
func (d *EventDispatcher) RegisterAll(handler EventHandler) {
	for _, t := range AllLedgerEventTypes() {
		d.Register(t, handler)
	}
}

// Dispatch dispatches an event to all registered handlers.
// Handlers run sequentially; a failing handler is logged and the rest still run.
func (d *EventDispatcher) Dispatch(ctx context.Context, event *LedgerEvent) error {
	d.mu.RLock()
	handlers := d.handlers[event.Type]
	d.mu.RUnlock()

	if len(handlers) == 0 {
		logger.Debug("No handlers registered for ledger event type",
			zap.String("event_type", string(event.Type)),
			zap.String("ledger_event_id", event.ID),
		)
		return nil
	}

	var firstErr error
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			logger.Error("Ledger event handler failed",
				zap.String("event_type", string(event.Type)),
				zap.String("ledger_event_id", event.ID),
				zap.Error(err),
			)
			if firstErr == nil {
				firstErr = fmt.Errorf("handler for %s failed: %w", event.Type, err)
			}
		}
	}

	return firstErr
}

// Package audit writes the append-only audit trail of ledger mutations.
//
// Records are emitted as structured zap entries on a dedicated "audit"
// logger so they can be routed to a separate sink.
//
// Import Path: seatledger.io/ledger/internal/governance/audit
package audit

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"seatledger.io/ledger/internal/domain"
)

// Logger writes audit records.
type Logger struct {
	log *zap.Logger
}

// NewLogger creates a new audit Logger on top of base.
func NewLogger(base *zap.Logger) *Logger {
	return &Logger{log: base.Named("audit")}
}

// LogAction records an auditable action.
func (l *Logger) LogAction(ctx context.Context, action, resourceType, resourceID, actor string, details map[string]interface{}) error {
	l.log.Info("audit",
		zap.String("audit_id", generateAuditID()),
		zap.String("action", action),
		zap.String("resource_type", resourceType),
		zap.String("resource_id", resourceID),
		zap.String("actor", actor),
		zap.Any("details", details),
	)
	return nil
}

// HandleLedgerEvent is a domain.EventHandler that audits every committed ledger event.
func (l *Logger) HandleLedgerEvent(ctx context.Context, event *domain.LedgerEvent) error {
	var details map[string]interface{}
	if len(event.Payload) > 0 {
		if err := json.Unmarshal(event.Payload, &details); err != nil {
			return fmt.Errorf("decode %s payload: %w", event.Type, err)
		}
	}
	if details == nil {
		details = map[string]interface{}{}
	}
	details["ledger_event_id"] = event.ID
	details["occurred_at"] = event.OccurredAt
	return l.LogAction(ctx, actionFor(event.Type), "event", event.EventID, event.Actor.String(), details)
}

func actionFor(t domain.LedgerEventType) string {
	switch t {
	case domain.LedgerEventCreated:
		return "event.create"
	case domain.LedgerEventUpdated:
		return "event.update"
	case domain.LedgerEventDeleted:
		return "event.delete"
	case domain.LedgerCodeMinted:
		return "code.mint"
	case domain.LedgerCodeGenerationToggled:
		return "code.toggle"
	case domain.LedgerSeatClaimed:
		return "seat.claim"
	default:
		return "ledger." + string(t)
	}
}

func generateAuditID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return fmt.Sprintf("audit-%s", id.String())
}

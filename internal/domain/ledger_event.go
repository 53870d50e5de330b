package domain

import (
	"time"

	"github.com/goccy/go-json"
)

// LedgerEventType defines the type of ledger domain event.
type LedgerEventType string

const (
	// Event lifecycle
	LedgerEventCreated LedgerEventType = "EVENT_CREATED"
	LedgerEventUpdated LedgerEventType = "EVENT_UPDATED"
	LedgerEventDeleted LedgerEventType = "EVENT_DELETED"

	// Codes and seats
	LedgerCodeMinted            LedgerEventType = "CODE_MINTED"
	LedgerCodeGenerationToggled LedgerEventType = "CODE_GENERATION_TOGGLED"
	LedgerSeatClaimed           LedgerEventType = "SEAT_CLAIMED"
)

// AllLedgerEventTypes lists every type, for subscribers that want all of them.
func AllLedgerEventTypes() []LedgerEventType {
	return []LedgerEventType{
		LedgerEventCreated,
		LedgerEventUpdated,
		LedgerEventDeleted,
		LedgerCodeMinted,
		LedgerCodeGenerationToggled,
		LedgerSeatClaimed,
	}
}

// LedgerEvent is an immutable record of a committed ledger mutation.
// It is published after the store commit; it never drives ledger state.
type LedgerEvent struct {
	ID         string          `json:"id"`
	Type       LedgerEventType `json:"type"`
	EventID    string          `json:"event_id"`
	Actor      Identity        `json:"actor"`
	Payload    []byte          `json:"payload,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// EventInfoPayload is the payload for create/update events.
type EventInfoPayload struct {
	Info  EventInfo `json:"info"`
	Owner Identity  `json:"owner"`
}

// ToJSON converts payload to JSON bytes.
func (p EventInfoPayload) ToJSON() ([]byte, error) {
	return json.Marshal(p)
}

// CodeMintedPayload is the payload for CODE_MINTED. The code itself is not
// carried so audit sinks never see redeemable values.
type CodeMintedPayload struct {
	TotalIssued int `json:"total_issued"`
}

// ToJSON converts payload to JSON bytes.
func (p CodeMintedPayload) ToJSON() ([]byte, error) {
	return json.Marshal(p)
}

// ToggledPayload is the payload for CODE_GENERATION_TOGGLED.
type ToggledPayload struct {
	Enabled bool `json:"enabled"`
}

// ToJSON converts payload to JSON bytes.
func (p ToggledPayload) ToJSON() ([]byte, error) {
	return json.Marshal(p)
}

// SeatClaimedPayload is the payload for SEAT_CLAIMED.
type SeatClaimedPayload struct {
	SeatNo uint64   `json:"seat_no"`
	Owner  Identity `json:"owner"`
}

// ToJSON converts payload to JSON bytes.
func (p SeatClaimedPayload) ToJSON() ([]byte, error) {
	return json.Marshal(p)
}

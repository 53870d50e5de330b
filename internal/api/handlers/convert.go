package handlers

import (
	"seatledger.io/ledger/internal/domain"
	"seatledger.io/ledger/internal/usecase"
)

// CreatedEvent is the createEvent response.
type CreatedEvent struct {
	ID   string           `json:"id"`
	Info domain.EventInfo `json:"info"`
}

// EventList is the listAllEvents response.
type EventList struct {
	Events []*usecase.EventView `json:"events"`
}

// EventIDList is the listEventIds response.
type EventIDList struct {
	EventIDs []string `json:"event_ids"`
}

// MintedCode is the generateCode response.
type MintedCode struct {
	Code string `json:"code"`
}

// CodeGenerationToggle is both the request and response of toggleCodeGeneration.
type CodeGenerationToggle struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// SeatClaimRequest is the claimSeat request.
type SeatClaimRequest struct {
	Code string `json:"code" binding:"required"`
}

// Caller describes the authenticated identity.
type Caller struct {
	Identity domain.Identity `json:"identity"`
	IsAdmin  bool            `json:"is_admin"`
}

// Health is the probe response.
type Health struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

const (
	healthStatusOK       = "ok"
	healthStatusDegraded = "degraded"
)

func boolPtr(v bool) *bool {
	return &v
}

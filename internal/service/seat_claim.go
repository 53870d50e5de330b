package service

import (
	"seatledger.io/ledger/internal/domain"
	apperrors "seatledger.io/ledger/internal/pkg/errors"
)

// SeatClaimEngine resolves a code redemption into a seat.
type SeatClaimEngine struct{}

// NewSeatClaimEngine creates a SeatClaimEngine.
func NewSeatClaimEngine() *SeatClaimEngine {
	return &SeatClaimEngine{}
}

// Claim validates code for identity and appends the next seat to event.
// Checks run in order: unknown code, consumed code, identity already seated.
// event is left untouched on error. The caller persists event.
func (e *SeatClaimEngine) Claim(event *domain.Event, identity domain.Identity, code string) (domain.Seat, error) {
	params := map[string]interface{}{"event_id": event.ID}

	if !event.Ledger.Contains(code) {
		return domain.Seat{}, apperrors.NotFound(apperrors.CodeCodeNotFound, "code was not issued for this event").
			WithParams(params)
	}
	if _, used := event.SeatByCode(code); used {
		return domain.Seat{}, apperrors.AlreadyExists(apperrors.CodeCodeConsumed, "code has already been used").
			WithParams(params)
	}
	if seat, held := event.SeatOf(identity); held {
		params["seat_no"] = seat.SeatNo
		return domain.Seat{}, apperrors.AlreadyExists(apperrors.CodeSeatAlreadyHeld, "caller already holds a seat for this event").
			WithParams(params)
	}

	seat := domain.Seat{
		SeatNo:     event.NextSeatNo(),
		UniqueCode: code,
		Owner:      identity,
	}
	event.Seats = append(event.Seats, seat)
	return seat, nil
}

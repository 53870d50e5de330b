// Package domain provides the seat ledger's domain model.
//
// An Event aggregates its info, the code ledger, the claimed seats and its
// owner. Storage backends persist the aggregate as a whole record.
//
// Import Path: seatledger.io/ledger/internal/domain
package domain

import (
	"fmt"
	"strings"
	"time"
)

// Identity is an opaque authenticated principal, compared by equality only.
type Identity string

// IsAnonymous reports whether the identity is empty.
func (i Identity) IsAnonymous() bool {
	return strings.TrimSpace(string(i)) == ""
}

func (i Identity) String() string {
	return string(i)
}

// EventInfo is the editable part of an event.
// Times are integer nanosecond timestamps; JSON carries them as decimal strings.
type EventInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	StartTime   int64  `json:"start_time,string"`
	EndTime     int64  `json:"end_time,string"`
}

// CodeLedger is the append-only list of codes minted for one event.
type CodeLedger struct {
	IssuedCodes []string `json:"issued_codes"`
	TotalIssued int      `json:"total_issued"`
}

// Contains reports whether code was minted into this ledger.
func (l CodeLedger) Contains(code string) bool {
	for _, c := range l.IssuedCodes {
		if c == code {
			return true
		}
	}
	return false
}

// Seat is the record of one successful claim. Immutable once created.
type Seat struct {
	SeatNo     uint64   `json:"seat_no"`
	UniqueCode string   `json:"unique_code"`
	Owner      Identity `json:"owner"`
}

// Event is the ledger aggregate.
type Event struct {
	ID                    string     `json:"id"`
	Info                  EventInfo  `json:"info"`
	Ledger                CodeLedger `json:"ledger"`
	Seats                 []Seat     `json:"seats"`
	CodeGenerationEnabled bool       `json:"code_generation_enabled"`
	Owner                 Identity   `json:"owner"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// NewEvent builds an event with an empty ledger, no seats and code generation disabled.
func NewEvent(id string, owner Identity, info EventInfo, now time.Time) *Event {
	return &Event{
		ID:     id,
		Info:   info,
		Ledger: CodeLedger{IssuedCodes: []string{}},
		Seats:  []Seat{},
		Owner:  owner,
		// CreatedAt doubles as the insertion-order key for listings.
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
}

// Clone returns a deep copy so callers can mutate without touching stored state.
func (e *Event) Clone() *Event {
	if e == nil {
		return nil
	}
	out := *e
	out.Ledger.IssuedCodes = append([]string{}, e.Ledger.IssuedCodes...)
	out.Seats = append([]Seat{}, e.Seats...)
	return &out
}

// SeatByCode returns the seat that consumed code, if any.
func (e *Event) SeatByCode(code string) (Seat, bool) {
	for _, s := range e.Seats {
		if s.UniqueCode == code {
			return s, true
		}
	}
	return Seat{}, false
}

// SeatOf returns the seat held by identity, if any.
func (e *Event) SeatOf(identity Identity) (Seat, bool) {
	for _, s := range e.Seats {
		if s.Owner == identity {
			return s, true
		}
	}
	return Seat{}, false
}

// NextSeatNo is max(seatNo)+1, or 1 for an event without seats.
func (e *Event) NextSeatNo() uint64 {
	var maxNo uint64
	for _, s := range e.Seats {
		if s.SeatNo > maxNo {
			maxNo = s.SeatNo
		}
	}
	return maxNo + 1
}

// IsPast reports whether now is after the event's end time.
func (e *Event) IsPast(now time.Time) bool {
	return now.UnixNano() > e.Info.EndTime
}

// State is the lifecycle state of an event.
type State string

const (
	StateOpen                  State = "OPEN"
	StateCodeGenerationEnabled State = "CODE_GENERATION_ENABLED"
	StatePast                  State = "PAST"
)

// State derives the lifecycle state. Past is never stored.
func (e *Event) State(now time.Time) State {
	switch {
	case e.IsPast(now):
		return StatePast
	case e.CodeGenerationEnabled:
		return StateCodeGenerationEnabled
	default:
		return StateOpen
	}
}

// Schedule is the time-window status shown on dashboards.
type Schedule string

const (
	ScheduleUpcoming Schedule = "Upcoming"
	ScheduleOngoing  Schedule = "Ongoing"
	SchedulePast     Schedule = "Past"
)

// Schedule places now relative to the event's time window.
func (e *Event) Schedule(now time.Time) Schedule {
	ns := now.UnixNano()
	switch {
	case ns < e.Info.StartTime:
		return ScheduleUpcoming
	case ns <= e.Info.EndTime:
		return ScheduleOngoing
	default:
		return SchedulePast
	}
}

// CheckInvariants verifies the per-event ledger invariants: distinct codes,
// totalIssued consistency, gap-free increasing seat numbers, one seat per
// code and per identity, and every seat code minted by this event.
func (e *Event) CheckInvariants() error {
	seenCodes := make(map[string]struct{}, len(e.Ledger.IssuedCodes))
	for _, c := range e.Ledger.IssuedCodes {
		if _, dup := seenCodes[c]; dup {
			return fmt.Errorf("event %s: duplicate issued code %q", e.ID, c)
		}
		seenCodes[c] = struct{}{}
	}
	if e.Ledger.TotalIssued != len(e.Ledger.IssuedCodes) {
		return fmt.Errorf("event %s: total issued %d != %d codes", e.ID, e.Ledger.TotalIssued, len(e.Ledger.IssuedCodes))
	}

	usedCodes := make(map[string]struct{}, len(e.Seats))
	owners := make(map[Identity]struct{}, len(e.Seats))
	for i, s := range e.Seats {
		if s.SeatNo != uint64(i+1) {
			return fmt.Errorf("event %s: seat %d has number %d", e.ID, i, s.SeatNo)
		}
		if _, ok := seenCodes[s.UniqueCode]; !ok {
			return fmt.Errorf("event %s: seat %d uses unknown code %q", e.ID, s.SeatNo, s.UniqueCode)
		}
		if _, dup := usedCodes[s.UniqueCode]; dup {
			return fmt.Errorf("event %s: code %q consumed twice", e.ID, s.UniqueCode)
		}
		usedCodes[s.UniqueCode] = struct{}{}
		if _, dup := owners[s.Owner]; dup {
			return fmt.Errorf("event %s: identity %q holds two seats", e.ID, s.Owner)
		}
		owners[s.Owner] = struct{}{}
	}
	return nil
}

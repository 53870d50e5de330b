package domain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seatledger.io/ledger/internal/pkg/logger"
)

func init() {
	_ = logger.Init("error", "json")
}

func sampleEvent() *Event {
	return &Event{
		ID: "evt-1",
		Info: EventInfo{
			Name:        "Launch",
			Description: "launch party",
			StartTime:   1_000,
			EndTime:     2_000,
		},
		Ledger: CodeLedger{IssuedCodes: []string{"a", "b", "c"}, TotalIssued: 3},
		Seats: []Seat{
			{SeatNo: 1, UniqueCode: "a", Owner: "alice"},
			{SeatNo: 2, UniqueCode: "c", Owner: "bob"},
		},
		Owner: "organizer",
	}
}

func TestEvent_Lookups(t *testing.T) {
	ev := sampleEvent()

	seat, ok := ev.SeatByCode("c")
	require.True(t, ok)
	assert.Equal(t, Identity("bob"), seat.Owner)

	_, ok = ev.SeatByCode("b")
	assert.False(t, ok)

	seat, ok = ev.SeatOf("alice")
	require.True(t, ok)
	assert.Equal(t, uint64(1), seat.SeatNo)

	assert.True(t, ev.Ledger.Contains("b"))
	assert.False(t, ev.Ledger.Contains("zzz"))
	assert.Equal(t, uint64(3), ev.NextSeatNo())
	assert.Equal(t, uint64(1), (&Event{}).NextSeatNo())
}

func TestEvent_CloneIsDeep(t *testing.T) {
	ev := sampleEvent()
	cp := ev.Clone()

	cp.Ledger.IssuedCodes[0] = "mutated"
	cp.Seats[0].Owner = "mallory"
	cp.Info.Name = "Other"

	assert.Equal(t, "a", ev.Ledger.IssuedCodes[0])
	assert.Equal(t, Identity("alice"), ev.Seats[0].Owner)
	assert.Equal(t, "Launch", ev.Info.Name)
	assert.Nil(t, (*Event)(nil).Clone())
}

func TestEvent_StateAndSchedule(t *testing.T) {
	ev := sampleEvent()

	tests := []struct {
		name         string
		now          int64
		enabled      bool
		wantState    State
		wantSchedule Schedule
	}{
		{"before start", 500, false, StateOpen, ScheduleUpcoming},
		{"during window", 1_500, false, StateOpen, ScheduleOngoing},
		{"during window with codes", 1_500, true, StateCodeGenerationEnabled, ScheduleOngoing},
		{"at end", 2_000, true, StateCodeGenerationEnabled, ScheduleOngoing},
		{"after end", 2_001, true, StatePast, SchedulePast},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev.CodeGenerationEnabled = tt.enabled
			now := time.Unix(0, tt.now)
			assert.Equal(t, tt.wantState, ev.State(now))
			assert.Equal(t, tt.wantSchedule, ev.Schedule(now))
		})
	}
}

func TestEvent_CheckInvariants(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Event)
		wantErr bool
	}{
		{"valid", func(*Event) {}, false},
		{"duplicate code", func(e *Event) {
			e.Ledger.IssuedCodes = append(e.Ledger.IssuedCodes, "a")
			e.Ledger.TotalIssued++
		}, true},
		{"total mismatch", func(e *Event) { e.Ledger.TotalIssued = 7 }, true},
		{"seat gap", func(e *Event) { e.Seats[1].SeatNo = 3 }, true},
		{"code consumed twice", func(e *Event) { e.Seats[1].UniqueCode = "a" }, true},
		{"identity holds two seats", func(e *Event) { e.Seats[1].Owner = "alice" }, true},
		{"seat with unknown code", func(e *Event) { e.Seats[1].UniqueCode = "zzz" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := sampleEvent()
			tt.mutate(ev)
			err := ev.CheckInvariants()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEventInfo_TimesEncodeAsStrings(t *testing.T) {
	info := EventInfo{Name: "n", Description: "d", StartTime: 1700000000000000000, EndTime: 1700000003600000000}

	data, err := json.Marshal(info)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"n","description":"d","start_time":"1700000000000000000","end_time":"1700000003600000000"}`, string(data))
}

func TestIdentity_IsAnonymous(t *testing.T) {
	assert.True(t, Identity("").IsAnonymous())
	assert.True(t, Identity("  ").IsAnonymous())
	assert.False(t, Identity("alice").IsAnonymous())
}

func TestEventDispatcher_Dispatch(t *testing.T) {
	d := NewEventDispatcher()

	var calls []string
	d.Register(LedgerSeatClaimed, func(ctx context.Context, ev *LedgerEvent) error {
		calls = append(calls, "first")
		return errors.New("sink down")
	})
	d.RegisterAll(func(ctx context.Context, ev *LedgerEvent) error {
		calls = append(calls, "all:"+string(ev.Type))
		return nil
	})

	err := d.Dispatch(context.Background(), &LedgerEvent{ID: "le-1", Type: LedgerSeatClaimed})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SEAT_CLAIMED")
	assert.Equal(t, []string{"first", "all:SEAT_CLAIMED"}, calls)

	calls = nil
	require.NoError(t, d.Dispatch(context.Background(), &LedgerEvent{ID: "le-2", Type: LedgerEventDeleted}))
	assert.Equal(t, []string{"all:EVENT_DELETED"}, calls)
}

func TestEventDispatcher_NoHandlers(t *testing.T) {
	d := NewEventDispatcher()
	assert.NoError(t, d.Dispatch(context.Background(), &LedgerEvent{ID: "le-1", Type: LedgerCodeMinted}))
}

func TestSeatClaimedPayload_ToJSON(t *testing.T) {
	data, err := SeatClaimedPayload{SeatNo: 4, Owner: "alice"}.ToJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"seat_no":4,"owner":"alice"}`, string(data))
}

// Package usecase provides the ledger's application use cases.
//
// EventLifecycle is the only entry point that mutates the ledger. Mutations
// are serialized per instance and each one runs inside a single store
// transaction, so it either commits completely or leaves no trace.
//
// Import Path: seatledger.io/ledger/internal/usecase
package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"seatledger.io/ledger/internal/domain"
	"seatledger.io/ledger/internal/metrics"
	"seatledger.io/ledger/internal/pkg/clock"
	apperrors "seatledger.io/ledger/internal/pkg/errors"
	"seatledger.io/ledger/internal/pkg/logger"
	"seatledger.io/ledger/internal/repository"
	"seatledger.io/ledger/internal/service"
)

// Operation names used in logs and metrics.
const (
	OpCreateEvent          = "create_event"
	OpEditEvent            = "edit_event"
	OpDeleteEvent          = "delete_event"
	OpGenerateCode         = "generate_code"
	OpToggleCodeGeneration = "toggle_code_generation"
	OpClaimSeat            = "claim_seat"
	OpGetEvent             = "get_event"
	OpListAllEvents        = "list_all_events"
	OpListEventIDs         = "list_event_ids"
	OpGetUserSeat          = "get_user_seat"
)

// EventView is the read projection of an event.
type EventView struct {
	ID                    string            `json:"id"`
	Info                  domain.EventInfo  `json:"info"`
	Ledger                domain.CodeLedger `json:"ledger"`
	Seats                 []domain.Seat     `json:"seats"`
	CodeGenerationEnabled bool              `json:"code_generation_enabled"`
	Owner                 domain.Identity   `json:"owner"`

	ClaimedSeatsCount int             `json:"claimed_seats_count"`
	CodesGenerated    int             `json:"codes_generated"`
	IsOngoing         bool            `json:"is_ongoing"`
	Status            domain.Schedule `json:"status"`
	State             domain.State    `json:"state"`
}

func newEventView(ev *domain.Event, now time.Time) *EventView {
	return &EventView{
		ID:                    ev.ID,
		Info:                  ev.Info,
		Ledger:                ev.Ledger,
		Seats:                 ev.Seats,
		CodeGenerationEnabled: ev.CodeGenerationEnabled,
		Owner:                 ev.Owner,
		ClaimedSeatsCount:     len(ev.Seats),
		CodesGenerated:        ev.Ledger.TotalIssued,
		IsOngoing:             ev.CodeGenerationEnabled,
		Status:                ev.Schedule(now),
		State:                 ev.State(now),
	}
}

// LifecycleOptions holds ledger policy switches.
type LifecycleOptions struct {
	// UniqueEventNames rejects a create or edit whose name is already used by another event.
	UniqueEventNames bool
}

// EventLifecycle orchestrates the ledger operations.
type EventLifecycle struct {
	store     repository.Store
	gate      *service.IdentityGate
	issuer    *service.CodeIssuer
	claims    *service.SeatClaimEngine
	clock     clock.Clock
	opts      LifecycleOptions
	publisher Publisher
	newID     func() string

	// writeMu serializes mutations: each runs to completion before the next starts.
	writeMu sync.Mutex
}

// NewEventLifecycle creates a new EventLifecycle.
func NewEventLifecycle(
	store repository.Store,
	gate *service.IdentityGate,
	issuer *service.CodeIssuer,
	claims *service.SeatClaimEngine,
	clk clock.Clock,
	opts LifecycleOptions,
) *EventLifecycle {
	return &EventLifecycle{
		store:     store,
		gate:      gate,
		issuer:    issuer,
		claims:    claims,
		clock:     clk,
		opts:      opts,
		publisher: noopPublisher{},
		newID:     generateID,
	}
}

// WithPublisher sets the ledger event publisher (optional dependency).
func (uc *EventLifecycle) WithPublisher(p Publisher) *EventLifecycle {
	uc.publisher = p
	return uc
}

// WithIDGenerator replaces the EventId generator.
func (uc *EventLifecycle) WithIDGenerator(gen func() string) *EventLifecycle {
	uc.newID = gen
	return uc
}

// CreateEvent registers a new event owned by owner.
// The returned event carries the generated EventId and the stored info.
func (uc *EventLifecycle) CreateEvent(ctx context.Context, owner domain.Identity, input EventInfoInput) (*domain.Event, error) {
	if owner.IsAnonymous() {
		err := apperrors.InvalidPayload(apperrors.CodeIdentityMissing, "an event owner is required")
		uc.record(OpCreateEvent, time.Now(), err)
		return nil, err
	}
	info, err := input.ToEventInfo()
	if err != nil {
		uc.record(OpCreateEvent, time.Now(), err)
		return nil, err
	}

	var created *domain.Event
	err = uc.mutate(ctx, OpCreateEvent, func(w repository.Writer) error {
		if err := uc.checkNameAvailable(ctx, w, info.Name, ""); err != nil {
			return err
		}

		ev := domain.NewEvent(uc.newID(), owner, info, uc.clock.Now())
		if err := w.PutEvent(ctx, ev); err != nil {
			return err
		}
		if err := w.AddOwned(ctx, owner, ev.ID); err != nil {
			return err
		}
		created = ev
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Event created",
		zap.String("operation", OpCreateEvent),
		zap.String("event_id", created.ID),
		zap.String("actor", owner.String()),
	)
	uc.publish(ctx, domain.LedgerEventCreated, created.ID, owner, domain.EventInfoPayload{Info: info, Owner: owner})
	return created, nil
}

// EditEvent replaces an event's info. The code ledger and seats are untouched.
// Once an event is past, its start and end times are read-only.
func (uc *EventLifecycle) EditEvent(ctx context.Context, caller domain.Identity, id string, input EventInfoInput) (*domain.EventInfo, error) {
	var updated domain.EventInfo
	err := uc.mutate(ctx, OpEditEvent, func(w repository.Writer) error {
		ev, err := w.GetEvent(ctx, id)
		if err != nil {
			return err
		}
		if err := uc.gate.AuthorizeManage(caller, ev); err != nil {
			return err
		}
		info, err := input.ToEventInfo()
		if err != nil {
			return err
		}

		now := uc.clock.Now()
		if ev.IsPast(now) && (info.StartTime != ev.Info.StartTime || info.EndTime != ev.Info.EndTime) {
			return apperrors.InvalidPayload(apperrors.CodeEventPastReadOnly, "start and end times of a past event cannot change").
				WithParams(map[string]interface{}{"event_id": id})
		}
		if info.Name != ev.Info.Name {
			if err := uc.checkNameAvailable(ctx, w, info.Name, id); err != nil {
				return err
			}
		}

		ev.Info = info
		ev.UpdatedAt = now.UTC()
		if err := w.PutEvent(ctx, ev); err != nil {
			return err
		}
		updated = info
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Event updated",
		zap.String("operation", OpEditEvent),
		zap.String("event_id", id),
		zap.String("actor", caller.String()),
	)
	uc.publish(ctx, domain.LedgerEventUpdated, id, caller, domain.EventInfoPayload{Info: updated})
	return &updated, nil
}

// DeleteEvent removes an event from the store and from its owner's index.
func (uc *EventLifecycle) DeleteEvent(ctx context.Context, caller domain.Identity, id string) error {
	err := uc.mutate(ctx, OpDeleteEvent, func(w repository.Writer) error {
		ev, err := w.GetEvent(ctx, id)
		if err != nil {
			return err
		}
		if err := uc.gate.AuthorizeManage(caller, ev); err != nil {
			return err
		}
		if err := w.DeleteEvent(ctx, id); err != nil {
			return err
		}
		return w.RemoveOwned(ctx, ev.Owner, id)
	})
	if err != nil {
		return err
	}

	logger.Info("Event deleted",
		zap.String("operation", OpDeleteEvent),
		zap.String("event_id", id),
		zap.String("actor", caller.String()),
	)
	uc.publish(ctx, domain.LedgerEventDeleted, id, caller, nil)
	return nil
}

// GenerateCode mints a new one-time code for the event.
func (uc *EventLifecycle) GenerateCode(ctx context.Context, caller domain.Identity, id string) (string, error) {
	var (
		code  string
		total int
	)
	err := uc.mutate(ctx, OpGenerateCode, func(w repository.Writer) error {
		ev, err := w.GetEvent(ctx, id)
		if err != nil {
			return err
		}
		if err := uc.gate.AuthorizeManage(caller, ev); err != nil {
			return err
		}
		code, err = uc.issuer.Mint(ev)
		if err != nil {
			return err
		}
		ev.UpdatedAt = uc.clock.Now().UTC()
		total = uc.issuer.Count(ev)
		return w.PutEvent(ctx, ev)
	})
	if err != nil {
		return "", err
	}

	logger.Info("Code minted",
		zap.String("operation", OpGenerateCode),
		zap.String("event_id", id),
		zap.String("actor", caller.String()),
		zap.Int("total_issued", total),
	)
	uc.publish(ctx, domain.LedgerCodeMinted, id, caller, domain.CodeMintedPayload{TotalIssued: total})
	return code, nil
}

// ToggleCodeGeneration sets the event's code generation flag and returns it.
func (uc *EventLifecycle) ToggleCodeGeneration(ctx context.Context, caller domain.Identity, id string, enabled bool) (bool, error) {
	err := uc.mutate(ctx, OpToggleCodeGeneration, func(w repository.Writer) error {
		ev, err := w.GetEvent(ctx, id)
		if err != nil {
			return err
		}
		if err := uc.gate.AuthorizeManage(caller, ev); err != nil {
			return err
		}
		ev.CodeGenerationEnabled = enabled
		ev.UpdatedAt = uc.clock.Now().UTC()
		return w.PutEvent(ctx, ev)
	})
	if err != nil {
		return false, err
	}

	logger.Info("Code generation toggled",
		zap.String("operation", OpToggleCodeGeneration),
		zap.String("event_id", id),
		zap.String("actor", caller.String()),
		zap.Bool("enabled", enabled),
	)
	uc.publish(ctx, domain.LedgerCodeGenerationToggled, id, caller, domain.ToggledPayload{Enabled: enabled})
	return enabled, nil
}

// ClaimSeat redeems code for caller and returns the assigned seat.
func (uc *EventLifecycle) ClaimSeat(ctx context.Context, caller domain.Identity, id, code string) (*domain.Seat, error) {
	var seat domain.Seat
	err := uc.mutate(ctx, OpClaimSeat, func(w repository.Writer) error {
		ev, err := w.GetEvent(ctx, id)
		if err != nil {
			return err
		}
		if err := uc.gate.AuthorizeClaim(caller); err != nil {
			return err
		}
		seat, err = uc.claims.Claim(ev, caller, code)
		if err != nil {
			return err
		}
		ev.UpdatedAt = uc.clock.Now().UTC()
		return w.PutEvent(ctx, ev)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Seat claimed",
		zap.String("operation", OpClaimSeat),
		zap.String("event_id", id),
		zap.String("actor", caller.String()),
		zap.Uint64("seat_no", seat.SeatNo),
	)
	uc.publish(ctx, domain.LedgerSeatClaimed, id, caller, domain.SeatClaimedPayload{SeatNo: seat.SeatNo, Owner: caller})
	return &seat, nil
}

// GetEvent returns the full projection of one event.
func (uc *EventLifecycle) GetEvent(ctx context.Context, id string) (*EventView, error) {
	start := time.Now()
	var view *EventView
	err := uc.store.View(ctx, func(r repository.Reader) error {
		ev, err := r.GetEvent(ctx, id)
		if err != nil {
			return err
		}
		view = newEventView(ev, uc.clock.Now())
		return nil
	})
	uc.record(OpGetEvent, start, err)
	if err != nil {
		return nil, err
	}
	return view, nil
}

// GetEventFor returns the projection as seen by caller. Callers that cannot
// manage the event do not see unredeemed codes.
func (uc *EventLifecycle) GetEventFor(ctx context.Context, caller domain.Identity, id string) (*EventView, error) {
	view, err := uc.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	return uc.redactFor(caller, view), nil
}

// ListAllEvents returns every event in insertion order.
func (uc *EventLifecycle) ListAllEvents(ctx context.Context) ([]*EventView, error) {
	start := time.Now()
	var views []*EventView
	err := uc.store.View(ctx, func(r repository.Reader) error {
		events, err := r.ListEvents(ctx)
		if err != nil {
			return err
		}
		now := uc.clock.Now()
		views = make([]*EventView, 0, len(events))
		for _, ev := range events {
			views = append(views, newEventView(ev, now))
		}
		return nil
	})
	uc.record(OpListAllEvents, start, err)
	if err != nil {
		return nil, err
	}
	return views, nil
}

// ListAllEventsFor is ListAllEvents with per-event redaction for caller.
func (uc *EventLifecycle) ListAllEventsFor(ctx context.Context, caller domain.Identity) ([]*EventView, error) {
	views, err := uc.ListAllEvents(ctx)
	if err != nil {
		return nil, err
	}
	for i, v := range views {
		views[i] = uc.redactFor(caller, v)
	}
	return views, nil
}

// ListEventIDs returns the ids owned by owner in creation order.
// An owner without events is reported as NotFound.
func (uc *EventLifecycle) ListEventIDs(ctx context.Context, owner domain.Identity) ([]string, error) {
	start := time.Now()
	var ids []string
	err := uc.store.View(ctx, func(r repository.Reader) error {
		var err error
		ids, err = r.ListOwned(ctx, owner)
		return err
	})
	if err == nil && len(ids) == 0 {
		err = apperrors.NotFound(apperrors.CodeOwnerHasNoEvents, "no event found for the user")
	}
	uc.record(OpListEventIDs, start, err)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// GetUserSeat returns the seat caller holds in the event.
func (uc *EventLifecycle) GetUserSeat(ctx context.Context, caller domain.Identity, id string) (*domain.Seat, error) {
	start := time.Now()
	var seat domain.Seat
	err := uc.store.View(ctx, func(r repository.Reader) error {
		ev, err := r.GetEvent(ctx, id)
		if err != nil {
			return err
		}
		s, ok := ev.SeatOf(caller)
		if caller.IsAnonymous() || !ok {
			return apperrors.NotFound(apperrors.CodeSeatNotFound, "caller holds no seat for this event").
				WithParams(map[string]interface{}{"event_id": id})
		}
		seat = s
		return nil
	})
	uc.record(OpGetUserSeat, start, err)
	if err != nil {
		return nil, err
	}
	return &seat, nil
}

// IsAdmin reports whether caller is the store admin.
func (uc *EventLifecycle) IsAdmin(caller domain.Identity) bool {
	return uc.gate.IsStoreAdmin(caller)
}

// Ping checks the backing store.
func (uc *EventLifecycle) Ping(ctx context.Context) error {
	return uc.store.Ping(ctx)
}

func (uc *EventLifecycle) redactFor(caller domain.Identity, view *EventView) *EventView {
	if uc.gate.Classify(caller, &domain.Event{Owner: view.Owner}) != service.RoleAttendee {
		return view
	}
	out := *view
	out.Ledger = domain.CodeLedger{IssuedCodes: []string{}, TotalIssued: view.Ledger.TotalIssued}
	return &out
}

// checkNameAvailable enforces name uniqueness when enabled. exceptID is the
// event being edited.
func (uc *EventLifecycle) checkNameAvailable(ctx context.Context, r repository.Reader, name, exceptID string) error {
	if !uc.opts.UniqueEventNames {
		return nil
	}
	events, err := r.ListEvents(ctx)
	if err != nil {
		return err
	}
	for _, ev := range events {
		if ev.ID != exceptID && ev.Info.Name == name {
			return apperrors.ErrEventNameExistsf(name)
		}
	}
	return nil
}

// mutate runs fn in one store transaction under the writer lock.
func (uc *EventLifecycle) mutate(ctx context.Context, op string, fn func(w repository.Writer) error) error {
	start := time.Now()
	uc.writeMu.Lock()
	err := uc.store.Update(ctx, fn)
	uc.writeMu.Unlock()

	uc.record(op, start, err)
	return err
}

func (uc *EventLifecycle) record(op string, start time.Time, err error) {
	metrics.RecordLedgerOperation(op, time.Since(start), err)
	if err != nil {
		if _, ok := apperrors.IsAppError(err); !ok {
			logger.Error("Ledger operation failed",
				zap.String("operation", op),
				zap.Error(err),
			)
		}
	}
}

type jsonPayload interface {
	ToJSON() ([]byte, error)
}

func (uc *EventLifecycle) publish(ctx context.Context, typ domain.LedgerEventType, eventID string, actor domain.Identity, payload jsonPayload) {
	var data []byte
	if payload != nil {
		b, err := payload.ToJSON()
		if err != nil {
			logger.Warn("Ledger event payload not encoded",
				zap.String("event_type", string(typ)),
				zap.Error(fmt.Errorf("marshal payload: %w", err)),
			)
		}
		data = b
	}
	uc.publisher.Publish(ctx, &domain.LedgerEvent{
		ID:         generateID(),
		Type:       typ,
		EventID:    eventID,
		Actor:      actor,
		Payload:    data,
		OccurredAt: uc.clock.Now().UTC(),
	})
}

// generateID generates a unique UUID v7 (time-ordered, K-sortable).
func generateID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails (should never happen)
		return uuid.New().String()
	}
	return id.String()
}

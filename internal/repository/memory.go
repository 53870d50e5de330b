package repository

import (
	"context"
	"errors"
	"sync"

	"seatledger.io/ledger/internal/domain"
	apperrors "seatledger.io/ledger/internal/pkg/errors"
)

// ErrStoreClosed is returned by every operation after Close.
var ErrStoreClosed = errors.New("store is closed")

type memState struct {
	events map[string]*domain.Event
	order  []string
	owned  map[domain.Identity][]string
}

func (s memState) fork() memState {
	out := memState{
		events: make(map[string]*domain.Event, len(s.events)),
		order:  append([]string(nil), s.order...),
		owned:  make(map[domain.Identity][]string, len(s.owned)),
	}
	// Stored events are never mutated in place, so sharing pointers is safe.
	for k, v := range s.events {
		out.events[k] = v
	}
	for k, v := range s.owned {
		out.owned[k] = v
	}
	return out
}

// MemoryStore keeps the ledger in process memory. It is the default backend
// for development and tests; state is lost on restart.
type MemoryStore struct {
	mu     sync.RWMutex
	state  memState
	closed bool
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		state: memState{
			events: make(map[string]*domain.Event),
			owned:  make(map[domain.Identity][]string),
		},
	}
}

// View runs fn under a read lock.
func (s *MemoryStore) View(ctx context.Context, fn func(r Reader) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return fn(&memTx{state: s.state})
}

// Update stages writes on a fork of the current state and swaps it in on success.
func (s *MemoryStore) Update(ctx context.Context, fn func(w Writer) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	tx := &memTx{state: s.state.fork()}
	if err := fn(tx); err != nil {
		return err
	}
	s.state = tx.state
	return nil
}

// Ping reports ErrStoreClosed after Close.
func (s *MemoryStore) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

// Close marks the store closed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

type memTx struct {
	state memState
}

func (t *memTx) GetEvent(_ context.Context, id string) (*domain.Event, error) {
	ev, ok := t.state.events[id]
	if !ok {
		return nil, apperrors.ErrEventNotFoundf(id)
	}
	return ev.Clone(), nil
}

func (t *memTx) ListEvents(_ context.Context) ([]*domain.Event, error) {
	out := make([]*domain.Event, 0, len(t.state.order))
	for _, id := range t.state.order {
		out = append(out, t.state.events[id].Clone())
	}
	return out, nil
}

func (t *memTx) ListOwned(_ context.Context, owner domain.Identity) ([]string, error) {
	return append([]string{}, t.state.owned[owner]...), nil
}

func (t *memTx) PutEvent(_ context.Context, event *domain.Event) error {
	if _, exists := t.state.events[event.ID]; !exists {
		t.state.order = append(t.state.order, event.ID)
	}
	t.state.events[event.ID] = event.Clone()
	return nil
}

func (t *memTx) DeleteEvent(_ context.Context, id string) error {
	if _, ok := t.state.events[id]; !ok {
		return apperrors.ErrEventNotFoundf(id)
	}
	delete(t.state.events, id)
	t.state.order = removeID(t.state.order, id)
	return nil
}

func (t *memTx) AddOwned(_ context.Context, owner domain.Identity, id string) error {
	ids := t.state.owned[owner]
	for _, existing := range ids {
		if existing == id {
			return nil
		}
	}
	// Copy so the committed slice is never appended to in place.
	next := make([]string, len(ids), len(ids)+1)
	copy(next, ids)
	t.state.owned[owner] = append(next, id)
	return nil
}

func (t *memTx) RemoveOwned(_ context.Context, owner domain.Identity, id string) error {
	ids, ok := t.state.owned[owner]
	if !ok {
		return nil
	}
	next := removeID(ids, id)
	if len(next) == 0 {
		delete(t.state.owned, owner)
		return nil
	}
	t.state.owned[owner] = next
	return nil
}

// removeID returns a new slice without id.
func removeID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// Package repository defines the ledger store contracts and the in-memory store.
//
// A Store persists two collections that must stay consistent: events keyed by
// EventId, and the owner index mapping an identity to the ordered ids it owns.
// Every mutation runs inside Update and commits or fails as a whole.
//
// Import Path: seatledger.io/ledger/internal/repository
package repository

import (
	"context"

	"seatledger.io/ledger/internal/domain"
)

// Reader is a consistent read view over the store.
type Reader interface {
	// GetEvent returns a copy of the event or a NotFound AppError.
	GetEvent(ctx context.Context, id string) (*domain.Event, error)
	// ListEvents returns copies of all events in insertion order.
	ListEvents(ctx context.Context) ([]*domain.Event, error)
	// ListOwned returns the owner's event ids in insertion order, empty if none.
	ListOwned(ctx context.Context, owner domain.Identity) ([]string, error)
}

// Writer extends Reader with staged mutations. Writes become visible to other
// callers only after the enclosing Update returns nil.
type Writer interface {
	Reader
	// PutEvent inserts or replaces the whole event record.
	PutEvent(ctx context.Context, event *domain.Event) error
	// DeleteEvent removes the event or returns a NotFound AppError.
	DeleteEvent(ctx context.Context, id string) error
	// AddOwned appends id to the owner's set, creating it if needed.
	AddOwned(ctx context.Context, owner domain.Identity, id string) error
	// RemoveOwned drops id from the owner's set. Absent ids are ignored.
	RemoveOwned(ctx context.Context, owner domain.Identity, id string) error
}

// Store is the durable ledger store.
type Store interface {
	// View runs fn against a consistent snapshot.
	View(ctx context.Context, fn func(r Reader) error) error
	// Update runs fn in a single transaction. A non-nil error from fn
	// discards every write made through w.
	Update(ctx context.Context, fn func(w Writer) error) error
	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
	Close() error
}

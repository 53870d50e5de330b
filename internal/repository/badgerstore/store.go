// Package badgerstore persists the ledger in an embedded BadgerDB.
//
// Layout:
//
//	event:<id>        JSON event record
//	owner:<identity>  JSON array of owned event ids, insertion order
//	meta:order        JSON array of all event ids, insertion order
//
// Import Path: seatledger.io/ledger/internal/repository/badgerstore
package badgerstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"seatledger.io/ledger/internal/domain"
	apperrors "seatledger.io/ledger/internal/pkg/errors"
	"seatledger.io/ledger/internal/repository"
)

// Key prefixes for BadgerDB storage
const (
	eventKeyPrefix = "event:"
	ownerKeyPrefix = "owner:"
	orderKey       = "meta:order"
)

// Options configures Open.
type Options struct {
	// Dir is the data directory. Ignored when InMemory is set.
	Dir string
	// InMemory keeps everything in RAM (tests).
	InMemory bool
	// Logger receives Badger's internal logs. Nil silences them.
	Logger *zap.Logger
}

// Store implements repository.Store on BadgerDB.
type Store struct {
	db *badger.DB
	// Badger aborts conflicting write transactions instead of queueing them,
	// so writers are serialized here.
	writeMu sync.Mutex
}

var _ repository.Store = (*Store)(nil)

// Open opens or creates a Badger database.
func Open(opts Options) (*Store, error) {
	bopts := badger.DefaultOptions(opts.Dir)
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	}
	if opts.Logger != nil {
		bopts = bopts.WithLogger(&badgerLogger{s: opts.Logger.Sugar()})
	} else {
		bopts = bopts.WithLogger(nil)
	}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}
	return New(db), nil
}

// New wraps an already opened database.
func New(db *badger.DB) *Store {
	return &Store{db: db}
}

// View runs fn in a read-only Badger transaction.
func (s *Store) View(ctx context.Context, fn func(r repository.Reader) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(txn *badger.Txn) error {
		return fn(&tx{txn: txn})
	})
}

// Update runs fn in a read-write Badger transaction.
func (s *Store) Update(ctx context.Context, fn func(w repository.Writer) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.db.Update(func(txn *badger.Txn) error {
		return fn(&tx{txn: txn})
	})
}

// Ping reports whether the database is still open.
func (s *Store) Ping(ctx context.Context) error {
	if s.db.IsClosed() {
		return repository.ErrStoreClosed
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

type tx struct {
	txn *badger.Txn
}

func (t *tx) GetEvent(_ context.Context, id string) (*domain.Event, error) {
	var ev domain.Event
	found, err := t.getJSON(eventKeyPrefix+id, &ev)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	if !found {
		return nil, apperrors.ErrEventNotFoundf(id)
	}
	return &ev, nil
}

func (t *tx) ListEvents(ctx context.Context) ([]*domain.Event, error) {
	ids, err := t.ids(orderKey)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	out := make([]*domain.Event, 0, len(ids))
	for _, id := range ids {
		ev, err := t.GetEvent(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, nil
}

func (t *tx) ListOwned(_ context.Context, owner domain.Identity) ([]string, error) {
	ids, err := t.ids(ownerKeyPrefix + string(owner))
	if err != nil {
		return nil, fmt.Errorf("list owned events: %w", err)
	}
	return ids, nil
}

func (t *tx) PutEvent(_ context.Context, event *domain.Event) error {
	key := eventKeyPrefix + event.ID
	_, err := t.txn.Get([]byte(key))
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		ids, err := t.ids(orderKey)
		if err != nil {
			return fmt.Errorf("read event order: %w", err)
		}
		if err := t.setJSON(orderKey, append(ids, event.ID)); err != nil {
			return fmt.Errorf("write event order: %w", err)
		}
	case err != nil:
		return fmt.Errorf("get event: %w", err)
	}

	if err := t.setJSON(key, event); err != nil {
		return fmt.Errorf("put event: %w", err)
	}
	return nil
}

func (t *tx) DeleteEvent(_ context.Context, id string) error {
	key := []byte(eventKeyPrefix + id)
	if _, err := t.txn.Get(key); errors.Is(err, badger.ErrKeyNotFound) {
		return apperrors.ErrEventNotFoundf(id)
	} else if err != nil {
		return fmt.Errorf("get event: %w", err)
	}
	if err := t.txn.Delete(key); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}

	ids, err := t.ids(orderKey)
	if err != nil {
		return fmt.Errorf("read event order: %w", err)
	}
	if err := t.setJSON(orderKey, without(ids, id)); err != nil {
		return fmt.Errorf("write event order: %w", err)
	}
	return nil
}

func (t *tx) AddOwned(_ context.Context, owner domain.Identity, id string) error {
	key := ownerKeyPrefix + string(owner)
	ids, err := t.ids(key)
	if err != nil {
		return fmt.Errorf("read owner index: %w", err)
	}
	for _, existing := range ids {
		if existing == id {
			return nil
		}
	}
	if err := t.setJSON(key, append(ids, id)); err != nil {
		return fmt.Errorf("write owner index: %w", err)
	}
	return nil
}

func (t *tx) RemoveOwned(_ context.Context, owner domain.Identity, id string) error {
	key := ownerKeyPrefix + string(owner)
	ids, err := t.ids(key)
	if err != nil {
		return fmt.Errorf("read owner index: %w", err)
	}
	next := without(ids, id)
	if len(next) == 0 {
		if err := t.txn.Delete([]byte(key)); err != nil {
			return fmt.Errorf("delete owner index: %w", err)
		}
		return nil
	}
	if err := t.setJSON(key, next); err != nil {
		return fmt.Errorf("write owner index: %w", err)
	}
	return nil
}

// ids reads a JSON id array, returning an empty slice when the key is absent.
func (t *tx) ids(key string) ([]string, error) {
	ids := []string{}
	if _, err := t.getJSON(key, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (t *tx) getJSON(key string, dst any) (bool, error) {
	item, err := t.txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, item.Value(func(val []byte) error {
		return json.Unmarshal(val, dst)
	})
}

func (t *tx) setJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return t.txn.Set([]byte(key), data)
}

func without(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// badgerLogger adapts zap to badger.Logger.
type badgerLogger struct {
	s *zap.SugaredLogger
}

func (l *badgerLogger) Errorf(f string, v ...interface{})   { l.s.Errorf(f, v...) }
func (l *badgerLogger) Warningf(f string, v ...interface{}) { l.s.Warnf(f, v...) }
func (l *badgerLogger) Infof(f string, v ...interface{})    { l.s.Infof(f, v...) }
func (l *badgerLogger) Debugf(f string, v ...interface{})   { l.s.Debugf(f, v...) }

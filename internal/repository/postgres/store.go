// Package postgres persists the ledger in PostgreSQL so several server
// instances can share one ledger.
//
// Each event is one row holding the whole aggregate as JSONB. Mutations take
// a transaction-scoped advisory lock, so writers are serialized across
// instances, and re-read the rows they change with FOR UPDATE.
//
// Import Path: seatledger.io/ledger/internal/repository/postgres
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"seatledger.io/ledger/internal/domain"
	apperrors "seatledger.io/ledger/internal/pkg/errors"
	"seatledger.io/ledger/internal/repository"
)

// ledgerLockKey is the advisory lock key held by every write transaction.
const ledgerLockKey int64 = 0x5ea71ed6e5

const schemaDDL = `
CREATE TABLE IF NOT EXISTS ledger_events (
	seq        BIGSERIAL,
	id         TEXT PRIMARY KEY,
	owner      TEXT NOT NULL,
	payload    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS ledger_events_seq_idx ON ledger_events (seq);
CREATE TABLE IF NOT EXISTS ledger_event_owners (
	owner    TEXT NOT NULL,
	event_id TEXT NOT NULL,
	seq      BIGSERIAL,
	PRIMARY KEY (owner, event_id)
);
CREATE INDEX IF NOT EXISTS ledger_event_owners_owner_seq_idx ON ledger_event_owners (owner, seq);
`

// Store implements repository.Store on a pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

var _ repository.Store = (*Store)(nil)

// New creates a Store. The Store takes ownership of pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// EnsureSchema creates the ledger tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("create ledger schema: %w", err)
	}
	return nil
}

// View runs fn in a read-only repeatable-read transaction.
func (s *Store) View(ctx context.Context, fn func(r repository.Reader) error) error {
	return withTx(ctx, s.pool, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	}, func(txn pgx.Tx) error {
		return fn(&tx{txn: txn})
	})
}

// Update runs fn in a read-write transaction holding the ledger write lock.
func (s *Store) Update(ctx context.Context, fn func(w repository.Writer) error) error {
	return withTx(ctx, s.pool, pgx.TxOptions{}, func(txn pgx.Tx) error {
		if _, err := txn.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, ledgerLockKey); err != nil {
			return fmt.Errorf("acquire ledger lock: %w", err)
		}
		return fn(&tx{txn: txn, forUpdate: true})
	})
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func withTx(ctx context.Context, pool *pgxpool.Pool, opts pgx.TxOptions, fn func(pgx.Tx) error) error {
	txn, err := pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(txn); err != nil {
		_ = txn.Rollback(ctx)
		return err
	}
	if err := txn.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type tx struct {
	txn       pgx.Tx
	forUpdate bool
}

func (t *tx) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT payload FROM ledger_events WHERE id = $1`
	if t.forUpdate {
		query += ` FOR UPDATE`
	}
	var payload []byte
	if err := t.txn.QueryRow(ctx, query, id).Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrEventNotFoundf(id)
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return decodeEvent(payload)
}

func (t *tx) ListEvents(ctx context.Context) ([]*domain.Event, error) {
	rows, err := t.txn.Query(ctx, `SELECT payload FROM ledger_events ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	payloads, err := pgx.CollectRows(rows, pgx.RowTo[[]byte])
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	out := make([]*domain.Event, 0, len(payloads))
	for _, p := range payloads {
		ev, err := decodeEvent(p)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, nil
}

func (t *tx) ListOwned(ctx context.Context, owner domain.Identity) ([]string, error) {
	rows, err := t.txn.Query(ctx,
		`SELECT event_id FROM ledger_event_owners WHERE owner = $1 ORDER BY seq`, string(owner))
	if err != nil {
		return nil, fmt.Errorf("list owned events: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list owned events: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

func (t *tx) PutEvent(ctx context.Context, event *domain.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	const stmt = `
INSERT INTO ledger_events (id, owner, payload, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE
SET owner = EXCLUDED.owner, payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`
	if _, err := t.txn.Exec(ctx, stmt,
		event.ID,
		string(event.Owner),
		payload,
		event.CreatedAt,
		event.UpdatedAt,
	); err != nil {
		return fmt.Errorf("put event: %w", err)
	}
	return nil
}

func (t *tx) DeleteEvent(ctx context.Context, id string) error {
	tag, err := t.txn.Exec(ctx, `DELETE FROM ledger_events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrEventNotFoundf(id)
	}
	return nil
}

func (t *tx) AddOwned(ctx context.Context, owner domain.Identity, id string) error {
	_, err := t.txn.Exec(ctx,
		`INSERT INTO ledger_event_owners (owner, event_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		string(owner), id)
	if err != nil {
		return fmt.Errorf("add owned event: %w", err)
	}
	return nil
}

func (t *tx) RemoveOwned(ctx context.Context, owner domain.Identity, id string) error {
	_, err := t.txn.Exec(ctx,
		`DELETE FROM ledger_event_owners WHERE owner = $1 AND event_id = $2`,
		string(owner), id)
	if err != nil {
		return fmt.Errorf("remove owned event: %w", err)
	}
	return nil
}

func decodeEvent(payload []byte) (*domain.Event, error) {
	var ev domain.Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	return &ev, nil
}

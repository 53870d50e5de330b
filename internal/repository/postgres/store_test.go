package postgres

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seatledger.io/ledger/internal/domain"
	apperrors "seatledger.io/ledger/internal/pkg/errors"
	"seatledger.io/ledger/internal/repository"
	"seatledger.io/ledger/internal/testutil"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	pool := testutil.OpenPGXPool(t, t.Name())
	s := New(pool)
	require.NoError(t, s.EnsureSchema(context.Background()))
	// Idempotent.
	require.NoError(t, s.EnsureSchema(context.Background()))
	return s
}

func sampleEvent(id string, owner domain.Identity) *domain.Event {
	return domain.NewEvent(id, owner, domain.EventInfo{
		Name:        "event " + id,
		Description: "desc",
		StartTime:   1700000000000000000,
		EndTime:     1700000003600000000,
	}, time.Unix(1700000000, 0))
}

func create(t *testing.T, s repository.Store, ev *domain.Event) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.Update(ctx, func(w repository.Writer) error {
		if err := w.PutEvent(ctx, ev); err != nil {
			return err
		}
		return w.AddOwned(ctx, ev.Owner, ev.ID)
	}))
}

func TestStore(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	t.Run("put get and list in insertion order", func(t *testing.T) {
		for _, id := range []string{"zeta", "alpha"} {
			create(t, s, sampleEvent(id, "alice"))
		}

		require.NoError(t, s.View(ctx, func(r repository.Reader) error {
			ev, err := r.GetEvent(ctx, "alpha")
			require.NoError(t, err)
			assert.Equal(t, int64(1700000003600000000), ev.Info.EndTime)

			all, err := r.ListEvents(ctx)
			require.NoError(t, err)
			require.Len(t, all, 2)
			assert.Equal(t, "zeta", all[0].ID)
			assert.Equal(t, "alpha", all[1].ID)

			owned, err := r.ListOwned(ctx, "alice")
			require.NoError(t, err)
			assert.Equal(t, []string{"zeta", "alpha"}, owned)

			none, err := r.ListOwned(ctx, "nobody")
			require.NoError(t, err)
			assert.Empty(t, none)
			return nil
		}))
	})

	t.Run("missing event is NotFound", func(t *testing.T) {
		err := s.View(ctx, func(r repository.Reader) error {
			_, err := r.GetEvent(ctx, "missing")
			return err
		})
		assert.ErrorIs(t, err, apperrors.ErrNotFound)

		err = s.Update(ctx, func(w repository.Writer) error {
			return w.DeleteEvent(ctx, "missing")
		})
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("failed update rolls back", func(t *testing.T) {
		boom := errors.New("boom")
		err := s.Update(ctx, func(w repository.Writer) error {
			require.NoError(t, w.PutEvent(ctx, sampleEvent("ghost", "carol")))
			require.NoError(t, w.AddOwned(ctx, "carol", "ghost"))
			return boom
		})
		require.ErrorIs(t, err, boom)

		require.NoError(t, s.View(ctx, func(r repository.Reader) error {
			_, err := r.GetEvent(ctx, "ghost")
			assert.ErrorIs(t, err, apperrors.ErrNotFound)
			owned, err := r.ListOwned(ctx, "carol")
			require.NoError(t, err)
			assert.Empty(t, owned)
			return nil
		}))
	})

	t.Run("delete removes both sides", func(t *testing.T) {
		require.NoError(t, s.Update(ctx, func(w repository.Writer) error {
			if err := w.DeleteEvent(ctx, "zeta"); err != nil {
				return err
			}
			return w.RemoveOwned(ctx, "alice", "zeta")
		}))

		require.NoError(t, s.View(ctx, func(r repository.Reader) error {
			owned, err := r.ListOwned(ctx, "alice")
			require.NoError(t, err)
			assert.Equal(t, []string{"alpha"}, owned)
			return nil
		}))
	})
}

func TestStore_ConcurrentSeatAppends(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ev := sampleEvent("launch", "alice")
	for i := 0; i < 20; i++ {
		ev.Ledger.IssuedCodes = append(ev.Ledger.IssuedCodes, string(rune('a'+i)))
	}
	ev.Ledger.TotalIssued = len(ev.Ledger.IssuedCodes)
	create(t, s, ev)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := s.Update(ctx, func(w repository.Writer) error {
				cur, err := w.GetEvent(ctx, "launch")
				if err != nil {
					return err
				}
				cur.Seats = append(cur.Seats, domain.Seat{
					SeatNo:     cur.NextSeatNo(),
					UniqueCode: string(rune('a' + i)),
					Owner:      domain.Identity(string(rune('A' + i))),
				})
				return w.PutEvent(ctx, cur)
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	require.NoError(t, s.View(ctx, func(r repository.Reader) error {
		got, err := r.GetEvent(ctx, "launch")
		require.NoError(t, err)
		assert.Len(t, got.Seats, 20)
		assert.NoError(t, got.CheckInvariants())
		return nil
	}))
}

package usecase

import (
	"context"

	"go.uber.org/zap"

	"seatledger.io/ledger/internal/domain"
	"seatledger.io/ledger/internal/metrics"
	"seatledger.io/ledger/internal/pkg/logger"
	"seatledger.io/ledger/internal/pkg/worker"
)

// Publisher receives ledger events after their mutation committed.
// Publish must not block the caller on subscriber work.
type Publisher interface {
	Publish(ctx context.Context, event *domain.LedgerEvent)
}

// PoolPublisher hands ledger events to the dispatcher on a worker pool.
type PoolPublisher struct {
	pool       *worker.Pool
	dispatcher *domain.EventDispatcher
}

// NewPoolPublisher creates a PoolPublisher.
func NewPoolPublisher(pool *worker.Pool, dispatcher *domain.EventDispatcher) *PoolPublisher {
	return &PoolPublisher{pool: pool, dispatcher: dispatcher}
}

// Publish submits the event as a detached task. Failures are logged and
// counted; the committed mutation is never affected.
func (p *PoolPublisher) Publish(_ context.Context, event *domain.LedgerEvent) {
	err := p.pool.SubmitDetached(func(ctx context.Context) {
		// Handler errors are logged by the dispatcher.
		_ = p.dispatcher.Dispatch(ctx, event)
	})
	if err != nil {
		metrics.RecordDispatchFailure()
		logger.Warn("Ledger event dropped",
			zap.String("pool", p.pool.Name()),
			zap.String("event_type", string(event.Type)),
			zap.String("event_id", event.EventID),
			zap.Error(err),
		)
	}
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, *domain.LedgerEvent) {}

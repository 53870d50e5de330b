package modules

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"seatledger.io/ledger/internal/config"
	"seatledger.io/ledger/internal/domain"
	"seatledger.io/ledger/internal/infrastructure"
	"seatledger.io/ledger/internal/pkg/logger"
	"seatledger.io/ledger/internal/pkg/worker"
	"seatledger.io/ledger/internal/repository"
)

// Infrastructure holds shared cross-cutting dependencies for all modules.
// It is a provider, not a Module.
type Infrastructure struct {
	Config       *config.Config
	Store        repository.Store
	DispatchPool *worker.Pool
	Dispatcher   *domain.EventDispatcher
}

// NewInfrastructure opens the ledger store and the dispatch pool.
func NewInfrastructure(ctx context.Context, cfg *config.Config) (*Infrastructure, error) {
	store, err := infrastructure.OpenStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open ledger store: %w", err)
	}

	poolCfg := worker.DefaultPoolConfig()
	if cfg.Worker.DispatchPoolSize > 0 {
		poolCfg.Size = cfg.Worker.DispatchPoolSize
	}
	pool, err := worker.NewPool(ctx, poolCfg)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("init dispatch pool: %w", err)
	}

	return &Infrastructure{
		Config:       cfg,
		Store:        store,
		DispatchPool: pool,
		Dispatcher:   domain.NewEventDispatcher(),
	}, nil
}

// Close releases infra resources in reverse dependency order.
func (i *Infrastructure) Close() {
	if i == nil {
		return
	}
	if i.DispatchPool != nil {
		i.DispatchPool.Shutdown()
	}
	if i.Store != nil {
		if err := i.Store.Close(); err != nil {
			logger.Warn("Ledger store close failed", zap.Error(err))
		}
	}
}

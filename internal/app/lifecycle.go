package app

import (
	"context"

	"go.uber.org/zap"

	"seatledger.io/ledger/internal/pkg/logger"
)

// Start verifies the ledger store is reachable before traffic is accepted.
func (a *Application) Start(ctx context.Context) error {
	if a.Infra == nil || a.Infra.Store == nil {
		return nil
	}
	if err := a.Infra.Store.Ping(ctx); err != nil {
		return err
	}
	logger.Info("Ledger store ready", zap.String("driver", a.Config.Store.Driver))
	return nil
}

// Shutdown gracefully shuts down all application components.
// Pending ledger events are drained before the store closes.
func (a *Application) Shutdown() {
	shutdownCtx := context.Background()

	for _, mod := range a.Modules {
		if mod == nil {
			continue
		}
		if err := mod.Shutdown(shutdownCtx); err != nil {
			logger.Warn("module shutdown returned error",
				zap.String("module", mod.Name()),
				zap.Error(err),
			)
		}
	}

	a.Infra.Close()
}

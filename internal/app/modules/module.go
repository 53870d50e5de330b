// Package modules contains the dependency modules of the composition root.
//
// Import Path: seatledger.io/ledger/internal/app/modules
package modules

import (
	"context"

	"seatledger.io/ledger/internal/api/handlers"
	"seatledger.io/ledger/internal/domain"
)

// Module represents a dependency unit in the composition root.
type Module interface {
	// Name returns a stable module identifier for logging/debugging.
	Name() string

	// ContributeServerDeps injects module-owned dependencies into the HTTP server deps.
	ContributeServerDeps(*handlers.ServerDeps)

	// Subscribe registers the module's ledger event handlers.
	Subscribe(*domain.EventDispatcher)

	// Shutdown performs module-local graceful cleanup.
	Shutdown(context.Context) error
}

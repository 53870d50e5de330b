package modules

import (
	"seatledger.io/ledger/internal/api/handlers"
)

// NewServerDeps lets each module contribute explicit wiring to the server deps.
func NewServerDeps(mods []Module) handlers.ServerDeps {
	var deps handlers.ServerDeps
	for _, mod := range mods {
		if mod == nil {
			continue
		}
		mod.ContributeServerDeps(&deps)
	}
	return deps
}

// SubscribeAll registers every module's ledger event handlers on the dispatcher.
func SubscribeAll(infra *Infrastructure, mods []Module) {
	for _, mod := range mods {
		if mod == nil {
			continue
		}
		mod.Subscribe(infra.Dispatcher)
	}
}

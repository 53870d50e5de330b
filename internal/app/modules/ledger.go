package modules

import (
	"context"

	"seatledger.io/ledger/internal/api/handlers"
	"seatledger.io/ledger/internal/domain"
	"seatledger.io/ledger/internal/pkg/clock"
	"seatledger.io/ledger/internal/service"
	"seatledger.io/ledger/internal/usecase"
)

// LedgerModule wires the ledger services and the EventLifecycle use case.
type LedgerModule struct {
	infra     *Infrastructure
	lifecycle *usecase.EventLifecycle
}

// NewLedgerModule creates a ledger module with explicit constructor wiring.
func NewLedgerModule(infra *Infrastructure) *LedgerModule {
	ledgerCfg := infra.Config.Ledger

	issuer := service.NewCodeIssuer(service.CodeIssuerConfig{
		MaxCodesPerEvent: ledgerCfg.MaxCodesPerEvent,
		CodeBytes:        ledgerCfg.CodeBytes,
		MintAttempts:     ledgerCfg.MintAttempts,
	})
	lifecycle := usecase.NewEventLifecycle(
		infra.Store,
		service.NewIdentityGate(domain.Identity(ledgerCfg.AdminIdentity)),
		issuer,
		service.NewSeatClaimEngine(),
		clock.NewSystem(),
		usecase.LifecycleOptions{UniqueEventNames: ledgerCfg.UniqueEventNames},
	).WithPublisher(usecase.NewPoolPublisher(infra.DispatchPool, infra.Dispatcher))

	return &LedgerModule{infra: infra, lifecycle: lifecycle}
}

// Lifecycle returns the wired use case.
func (m *LedgerModule) Lifecycle() *usecase.EventLifecycle { return m.lifecycle }

func (m *LedgerModule) Name() string { return "ledger" }

func (m *LedgerModule) ContributeServerDeps(deps *handlers.ServerDeps) {
	if deps == nil {
		return
	}
	deps.Ledger = m.lifecycle
}

func (m *LedgerModule) Subscribe(*domain.EventDispatcher) {}

func (m *LedgerModule) Shutdown(context.Context) error { return nil }

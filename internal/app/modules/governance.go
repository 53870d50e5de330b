package modules

import (
	"context"

	"seatledger.io/ledger/internal/api/handlers"
	"seatledger.io/ledger/internal/domain"
	"seatledger.io/ledger/internal/governance/audit"
	"seatledger.io/ledger/internal/metrics"
	"seatledger.io/ledger/internal/pkg/logger"
)

// GovernanceModule subscribes the audit trail and the ledger metrics to
// committed ledger events. It contributes nothing to the HTTP server.
type GovernanceModule struct {
	audit *audit.Logger
}

func NewGovernanceModule() *GovernanceModule {
	return &GovernanceModule{audit: audit.NewLogger(logger.L())}
}

func (m *GovernanceModule) Name() string { return "governance" }

func (m *GovernanceModule) ContributeServerDeps(_ *handlers.ServerDeps) {}

func (m *GovernanceModule) Subscribe(d *domain.EventDispatcher) {
	d.RegisterAll(m.audit.HandleLedgerEvent)
	d.RegisterAll(metrics.ObserveLedgerEvent)
}

func (m *GovernanceModule) Shutdown(context.Context) error { return nil }

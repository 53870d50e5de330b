// Package app is the composition root. Bootstrap stays orchestration-only.
package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"seatledger.io/ledger/internal/api/handlers"
	"seatledger.io/ledger/internal/api/middleware"
	"seatledger.io/ledger/internal/app/modules"
	"seatledger.io/ledger/internal/config"
)

// Application holds composed application dependencies.
type Application struct {
	Config  *config.Config
	Router  *gin.Engine
	Infra   *modules.Infrastructure
	Modules []modules.Module
}

// Bootstrap initializes all dependencies using module-oriented manual DI.
func Bootstrap(ctx context.Context, cfg *config.Config) (*Application, error) {
	infra, err := modules.NewInfrastructure(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init infrastructure: %w", err)
	}

	allModules := []modules.Module{
		modules.NewLedgerModule(infra),
		modules.NewGovernanceModule(),
	}
	modules.SubscribeAll(infra, allModules)

	serverDeps := modules.NewServerDeps(allModules)
	server := handlers.NewServer(serverDeps)

	return &Application{
		Config:  cfg,
		Router:  newRouter(cfg, server, jwtConfig(cfg), serverDeps.Ledger),
		Infra:   infra,
		Modules: allModules,
	}, nil
}

func jwtConfig(cfg *config.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey: []byte(cfg.Auth.SigningKey),
		Issuer:     cfg.Auth.Issuer,
		ExpiresIn:  cfg.Auth.TokenTTL,
	}
}

// Package main issues development bearer tokens and seeds a demo event.
//
// Usage: seed [identity ...]
//
// Tokens are signed with the configured auth key. The store admin always
// receives one. A demo event with a handful of codes is created in the
// configured store unless it is the in-memory driver.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"seatledger.io/ledger/internal/api/middleware"
	"seatledger.io/ledger/internal/app/modules"
	"seatledger.io/ledger/internal/config"
	"seatledger.io/ledger/internal/domain"
	"seatledger.io/ledger/internal/pkg/logger"
	"seatledger.io/ledger/internal/usecase"
)

const (
	demoOwner     domain.Identity = "demo-organizer"
	demoEventName                 = "Demo Launch"
	demoCodeCount                 = 5
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "seed error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	jwtCfg := middleware.JWTConfig{
		SigningKey: []byte(cfg.Auth.SigningKey),
		Issuer:     cfg.Auth.Issuer,
		ExpiresIn:  cfg.Auth.TokenTTL,
	}
	for _, identity := range tokenIdentities(cfg.Ledger.AdminIdentity, args) {
		token, expires, err := middleware.GenerateToken(jwtCfg, identity)
		if err != nil {
			return fmt.Errorf("token for %s: %w", identity, err)
		}
		fmt.Printf("%s\t%s\t%s\n", identity, expires.Format(time.RFC3339), token)
	}

	if cfg.Store.Driver == config.StoreDriverMemory {
		logger.Info("Memory store selected, skipping demo event")
		return nil
	}

	ctx := context.Background()
	infra, err := modules.NewInfrastructure(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init infrastructure: %w", err)
	}
	defer infra.Close()

	ledger := modules.NewLedgerModule(infra).Lifecycle()
	id, codes, err := seedDemoEvent(ctx, ledger, time.Now())
	if err != nil {
		return err
	}
	logger.Info("Seeded demo event",
		zap.String("event_id", id),
		zap.String("owner", string(demoOwner)),
		zap.Strings("codes", codes),
	)
	return nil
}

// tokenIdentities returns the admin followed by the requested identities,
// without blanks or duplicates.
func tokenIdentities(admin string, args []string) []domain.Identity {
	seen := make(map[string]struct{}, len(args)+1)
	out := make([]domain.Identity, 0, len(args)+1)
	for _, raw := range append([]string{admin}, args...) {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, domain.Identity(name))
	}
	return out
}

// seedDemoEvent creates the demo event once and mints its codes.
// An existing demo event is left untouched.
func seedDemoEvent(ctx context.Context, ledger *usecase.EventLifecycle, now time.Time) (string, []string, error) {
	ids, err := ledger.ListEventIDs(ctx, demoOwner)
	if err == nil && len(ids) > 0 {
		logger.Info("Demo event already exists, skipping", zap.String("event_id", ids[0]))
		return ids[0], nil, nil
	}

	start := now.Add(24 * time.Hour)
	event, err := ledger.CreateEvent(ctx, demoOwner, usecase.EventInfoInput{
		Name:        demoEventName,
		Description: "Seeded for local development",
		StartTime:   strconv.FormatInt(start.UnixNano(), 10),
		EndTime:     strconv.FormatInt(start.Add(2*time.Hour).UnixNano(), 10),
	})
	if err != nil {
		return "", nil, fmt.Errorf("create demo event: %w", err)
	}

	codes := make([]string, 0, demoCodeCount)
	for range demoCodeCount {
		code, err := ledger.GenerateCode(ctx, demoOwner, event.ID)
		if err != nil {
			return "", nil, fmt.Errorf("mint demo code: %w", err)
		}
		codes = append(codes, code)
	}
	return event.ID, codes, nil
}

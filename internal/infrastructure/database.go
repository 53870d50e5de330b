// Package infrastructure provides connection pool setup and ledger store selection.
//
// Import Path: seatledger.io/ledger/internal/infrastructure
package infrastructure

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"seatledger.io/ledger/internal/config"
	"seatledger.io/ledger/internal/pkg/logger"
	"seatledger.io/ledger/internal/repository"
	"seatledger.io/ledger/internal/repository/badgerstore"
	"seatledger.io/ledger/internal/repository/postgres"
)

// NewPGXPool creates a verified connection pool from cfg.
func NewPGXPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	poolConfig.MinConns = cfg.MinConns
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	poolConfig.HealthCheckPeriod = time.Minute

	// Timestamps are stored and compared in UTC.
	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, "SET timezone = 'UTC'")
		return err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("Database connection pool created",
		zap.Int32("max_conns", poolConfig.MaxConns),
		zap.Int32("min_conns", poolConfig.MinConns),
	)
	return pool, nil
}

// OpenStore opens the ledger store selected by cfg.Store.Driver.
// The caller owns the returned store and must Close it.
func OpenStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		logger.Warn("Using in-memory ledger store; data is lost on restart")
		return repository.NewMemoryStore(), nil

	case config.StoreDriverBadger:
		store, err := badgerstore.Open(badgerstore.Options{
			Dir:    cfg.Store.BadgerDir,
			Logger: logger.Component("badger"),
		})
		if err != nil {
			return nil, err
		}
		logger.Info("Badger ledger store opened", zap.String("dir", cfg.Store.BadgerDir))
		return store, nil

	case config.StoreDriverPostgres:
		pool, err := NewPGXPool(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		store := postgres.New(pool)
		if cfg.Database.AutoMigrate {
			if err := store.EnsureSchema(ctx); err != nil {
				_ = store.Close()
				return nil, err
			}
			logger.Info("Ledger schema ensured")
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

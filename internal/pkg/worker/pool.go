// Package worker provides goroutine pool management.
//
// Naked goroutines are not used outside cmd/. Background work goes through
// a Pool with context propagation.
//
// Import Path: seatledger.io/ledger/internal/pkg/worker
package worker

import (
	"context"
	"errors"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"seatledger.io/ledger/internal/pkg/logger"
)

// ErrPoolClosed is returned when submitting to a closed pool.
var ErrPoolClosed = errors.New("worker pool is closed")

// Task is a context-aware task function.
type Task func(ctx context.Context)

// Pool wraps ants.Pool with context-aware submission.
type Pool struct {
	pool *ants.Pool
	name string

	// serviceCtx is the service lifecycle context for detached tasks.
	serviceCtx    context.Context
	serviceCancel context.CancelFunc
}

// PoolConfig contains Worker Pool configuration.
type PoolConfig struct {
	Name string
	Size int
}

// DefaultPoolConfig returns default configuration for the ledger dispatch pool.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		Name: "dispatch",
		Size: 16,
	}
}

// NewPool creates a worker pool bound to the service lifecycle context ctx.
func NewPool(ctx context.Context, cfg PoolConfig) (*Pool, error) {
	serviceCtx, serviceCancel := context.WithCancel(ctx)

	name := cfg.Name
	panicHandler := func(p interface{}) {
		logger.Error("Worker panic recovered",
			zap.String("pool", name),
			zap.Any("panic", p),
			zap.Stack("stack"),
		)
	}

	antsPool, err := ants.NewPool(cfg.Size,
		ants.WithPanicHandler(panicHandler),
		ants.WithNonblocking(false),
		ants.WithExpiryDuration(10*time.Second),
	)
	if err != nil {
		serviceCancel()
		return nil, err
	}

	return &Pool{
		pool:          antsPool,
		name:          name,
		serviceCtx:    serviceCtx,
		serviceCancel: serviceCancel,
	}, nil
}

// Name returns the pool name used in logs and metrics.
func (p *Pool) Name() string {
	return p.name
}

// Submit submits a task bound to the caller's context.
// If ctx is already cancelled, returns ctx.Err() immediately without submitting.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	return p.submit(func() {
		// ctx may have been cancelled while the task was queued
		select {
		case <-ctx.Done():
			logger.Debug("Task skipped: context cancelled",
				zap.String("pool", p.name),
				zap.Error(ctx.Err()),
			)
			return
		default:
		}
		task(ctx)
	})
}

// SubmitDetached submits a task that outlives the request that triggered it.
// Detached tasks receive the service lifecycle context and are skipped once
// Shutdown has been called.
func (p *Pool) SubmitDetached(task Task) error {
	return p.submit(func() {
		select {
		case <-p.serviceCtx.Done():
			logger.Debug("Detached task skipped: service shutting down",
				zap.String("pool", p.name),
			)
			return
		default:
		}
		task(p.serviceCtx)
	})
}

func (p *Pool) submit(fn func()) error {
	if err := p.pool.Submit(fn); err != nil {
		if errors.Is(err, ants.ErrPoolClosed) {
			return ErrPoolClosed
		}
		return err
	}
	return nil
}

// Shutdown cancels the service context, then waits for running tasks (max 30s).
func (p *Pool) Shutdown() {
	p.serviceCancel()

	const shutdownTimeout = 30 * time.Second
	if err := p.pool.ReleaseTimeout(shutdownTimeout); err != nil {
		logger.Warn("Worker pool shutdown timeout",
			zap.String("pool", p.name),
			zap.Error(err),
		)
	}
}

// Metrics returns pool metrics for observability.
func (p *Pool) Metrics() map[string]int {
	return map[string]int{
		"running": p.pool.Running(),
		"free":    p.pool.Free(),
		"cap":     p.pool.Cap(),
	}
}

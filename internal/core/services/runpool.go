package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hireloop/hireloop/internal/core/domain"
	"golang.org/x/sync/semaphore"
)

// RunPoolConfig defines concurrency limits for pipeline runs.
type RunPoolConfig struct {
	MaxConcurrentRuns int64
	QueueSize         int
}

// RunRequest is one queued pipeline invocation. RunID is assigned by the
// caller so events can be subscribed to before the run starts.
type RunRequest struct {
	RunID   string
	UserID  domain.UserID
	Initial domain.Envelope
}

// RunPool bounds how many pipeline runs execute at once. Hops inside one
// run are sequential; the pool only limits runs across users and batches.
type RunPool struct {
	logger       *slog.Logger
	pendingQueue chan RunRequest
	semaphore    *semaphore.Weighted
}

func NewRunPool(logger *slog.Logger, cfg RunPoolConfig) *RunPool {
	limit := cfg.MaxConcurrentRuns
	if limit <= 0 {
		limit = 10
	}
	queue := cfg.QueueSize
	if queue <= 0 {
		queue = 100
	}

	return &RunPool{
		logger:       logger,
		pendingQueue: make(chan RunRequest, queue),
		semaphore:    semaphore.NewWeighted(limit),
	}
}

// Submit adds a run to the queue without blocking.
func (p *RunPool) Submit(ctx context.Context, req RunRequest) error {
	select {
	case p.pendingQueue <- req:
		p.logger.Info("run submitted", "user_id", req.UserID, "first_agent", req.Initial.NextAgent)
		return nil
	default:
		return errors.New("run queue full")
	}
}

// Start consumes queued runs and executes them with the provided handler,
// at most MaxConcurrentRuns at a time.
func (p *RunPool) Start(ctx context.Context, handler func(context.Context, RunRequest)) {
	p.logger.Info("starting run pool")

	go func() {
		for {
			select {
			case <-ctx.Done():
				p.logger.Info("stopping run pool")
				return
			case req := <-p.pendingQueue:
				if err := p.semaphore.Acquire(ctx, 1); err != nil {
					p.logger.Error("failed to acquire semaphore", "error", err)
					return
				}

				// Launch run in background so we don't block the consumer loop
				go func(r RunRequest) {
					defer p.semaphore.Release(1)
					handler(ctx, r)
				}(req)
			}
		}
	}()
}

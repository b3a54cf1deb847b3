package exec

import (
	"context"

	appErr "termchat/pkg/errors"
)

// Pool bounds the number of jobs executing at once. Each job still runs its
// phases sequentially; distinct jobs run fully in parallel up to the cap.
type Pool struct {
	worker Executor
	tokens chan struct{}
}

// NewPool wraps an executor with a counting limiter of the given size.
func NewPool(worker Executor, size int) *Pool {
	if size <= 0 {
		size = 1
	}
	tokens := make(chan struct{}, size)
	for i := 0; i < size; i++ {
		tokens <- struct{}{}
	}
	return &Pool{worker: worker, tokens: tokens}
}

// Execute blocks until a slot is free or ctx is canceled.
func (p *Pool) Execute(ctx context.Context, req Request) (Result, error) {
	select {
	case <-ctx.Done():
		return Result{JobID: req.JobID}, appErr.Wrapf(ctx.Err(), appErr.ExecSystemError, "canceled while waiting for a slot")
	case <-p.tokens:
	}
	defer p.release()
	return p.worker.Execute(ctx, req)
}

// TryExecute rejects immediately when the pool is saturated, so callers can
// push back instead of spawning unboundedly.
func (p *Pool) TryExecute(ctx context.Context, req Request) (Result, error) {
	select {
	case <-p.tokens:
	default:
		return Result{JobID: req.JobID}, appErr.New(appErr.ExecQueueFull)
	}
	defer p.release()
	return p.worker.Execute(ctx, req)
}

func (p *Pool) release() {
	select {
	case p.tokens <- struct{}{}:
	default:
	}
}

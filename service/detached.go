package service

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"github.com/AnTengye/formrelay/pkg/logger"
)

// Detached runs fire-and-forget tasks whose results are never joined back
// into the request that started them. Failures are only logged.
type Detached struct {
	wg sync.WaitGroup
}

func NewDetached() *Detached {
	return &Detached{}
}

// Go starts fn with a context that keeps ctx's values but not its
// cancellation, bounded by timeout.
func (d *Detached) Go(ctx context.Context, name string, timeout time.Duration, fn func(ctx context.Context) error) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				logger.Error(ctx, "detached task panicked", "task", name, "panic", r, "stack", string(debug.Stack()))
			}
		}()

		taskCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()

		start := time.Now()
		if err := fn(taskCtx); err != nil {
			logger.Warn(ctx, "detached task failed", "task", name, "error", err, "latency_ms", time.Since(start).Milliseconds())
			return
		}
		logger.Debug(ctx, "detached task done", "task", name, "latency_ms", time.Since(start).Milliseconds())
	}()
}

// Wait blocks until all started tasks finish or ctx is done. Used at shutdown.
func (d *Detached) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

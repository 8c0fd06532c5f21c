// Package tasks coordinates background checking work, such as producing
// specialized method headers, without blocking the requesting task.
package tasks

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Coordinator schedules named background jobs. Jobs spawned under distinct
// names may run concurrently with no ordering between them; a second spawn
// under an already-seen name is dropped, so repeated requests for the same
// specialization do the work once.
//
// Every job's contract is to register its result in the declaration store
// before returning (a poisoned placeholder on failure), so store waiters
// blocked on the job's output are always resumed.
type Coordinator struct {
	group *errgroup.Group
	ctx   context.Context

	mu    sync.Mutex
	names map[string]struct{}
}

// NewCoordinator builds a coordinator. limit bounds concurrently running
// jobs; zero or negative means no limit.
func NewCoordinator(ctx context.Context, limit int) *Coordinator {
	group, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		group.SetLimit(limit)
	}
	return &Coordinator{
		group: group,
		ctx:   gctx,
		names: make(map[string]struct{}),
	}
}

// Spawn schedules job under name without blocking the caller. Returns false
// when a job with this name was already spawned.
func (c *Coordinator) Spawn(name string, job func(ctx context.Context) error) bool {
	c.mu.Lock()
	if _, dup := c.names[name]; dup {
		c.mu.Unlock()
		return false
	}
	c.names[name] = struct{}{}
	c.mu.Unlock()

	c.group.Go(func() error {
		return job(c.ctx)
	})
	return true
}

// Wait blocks until every spawned job has finished and returns the first
// job error, if any.
func (c *Coordinator) Wait() error {
	return c.group.Wait()
}

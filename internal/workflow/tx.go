package workflow

import (
	"context"
	"sync"
)

// MemoryTxRunner serializes mutations behind one mutex. In-memory stores
// have no rollback, so atomicity degrades to mutual exclusion; good enough
// for tests and single-process runs.
type MemoryTxRunner struct {
	mu sync.Mutex
}

func NewMemoryTxRunner() *MemoryTxRunner {
	return &MemoryTxRunner{}
}

func (r *MemoryTxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(ctx)
}

package sequence

import (
	"context"
	"sync"

	dErrors "copydesk/pkg/domain-errors"
)

// InMemoryAllocator keeps per-year counters behind a coarse lock. The lock
// makes the increment-and-read a single atomic unit, mirroring what the
// Postgres store achieves with an upsert-increment.
type InMemoryAllocator struct {
	mu       sync.Mutex
	counters map[int]int
}

func NewInMemory() *InMemoryAllocator {
	return &InMemoryAllocator{counters: make(map[int]int)}
}

// Allocate increments the year's counter and returns the minted G-Number.
// A year not seen before starts its counter at 1.
func (a *InMemoryAllocator) Allocate(ctx context.Context, year int) (GNumber, error) {
	if year <= 0 {
		return GNumber{}, dErrors.Newf(dErrors.CodeBadRequest, "invalid allocation year %d", year)
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	a.counters[year]++
	return GNumber{Year: year, Sequence: a.counters[year]}, nil
}

// Peek returns the last sequence issued for a year without allocating.
func (a *InMemoryAllocator) Peek(year int) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.counters[year]
}

package sequence

import "context"

// Allocator mints the next G-Number for a year. Implementations guarantee:
// uniqueness under concurrent callers, increasing assignment order within a
// year, and a fresh counter starting at 1 the first time a year is seen.
// An issued number is never reclaimed, even if the caller's surrounding
// work later fails.
type Allocator interface {
	Allocate(ctx context.Context, year int) (GNumber, error)
}

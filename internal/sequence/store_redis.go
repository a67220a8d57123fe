package sequence

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	dErrors "copydesk/pkg/domain-errors"
)

const keyPrefix = "copydesk:gnumber:"

// RedisAllocator mints G-Numbers from a Redis counter per year. INCR is
// atomic server-side, which makes Redis a drop-in dedicated counter service
// for deployments that want allocation off the primary database.
type RedisAllocator struct {
	client redis.Cmdable
}

func NewRedis(client redis.Cmdable) *RedisAllocator {
	return &RedisAllocator{client: client}
}

// Allocate increments the year's counter key, creating it at 1 when the
// year has not been seen.
func (a *RedisAllocator) Allocate(ctx context.Context, year int) (GNumber, error) {
	if year <= 0 {
		return GNumber{}, dErrors.Newf(dErrors.CodeBadRequest, "invalid allocation year %d", year)
	}
	seq, err := a.client.Incr(ctx, fmt.Sprintf("%s%d", keyPrefix, year)).Result()
	if err != nil {
		return GNumber{}, dErrors.Wrap(err, dErrors.CodeAllocationFailure,
			fmt.Sprintf("increment sequence for year %d", year))
	}
	return GNumber{Year: year, Sequence: int(seq)}, nil
}

package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tyrefleet/backend/internal/domain/shared"
)

// sequenceRetention keeps a period counter well past the end of its month
const sequenceRetention = 400 * 24 * time.Hour

// RedisSequenceGenerator allocates document numbers with INCR on seq:<prefix>:<period>.
// The counter lives outside the database transaction, so a rolled back operation
// leaves a gap in the series.
type RedisSequenceGenerator struct {
	client *redis.Client
}

// NewRedisSequenceGenerator creates a new RedisSequenceGenerator
func NewRedisSequenceGenerator(client *redis.Client) *RedisSequenceGenerator {
	return &RedisSequenceGenerator{client: client}
}

// SequenceKey returns the Redis key holding the counter for a prefix and period
func SequenceKey(prefix shared.DocumentPrefix, at time.Time) string {
	return fmt.Sprintf("seq:%s:%s", prefix, shared.SequencePeriod(at))
}

func (g *RedisSequenceGenerator) Next(ctx context.Context, prefix shared.DocumentPrefix, at time.Time) (string, error) {
	key := SequenceKey(prefix, at)

	pipe := g.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, sequenceRetention)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", shared.NewPersistenceError(shared.CodeTransientFailure,
			fmt.Errorf("failed to allocate %s number: %w", prefix, err), true)
	}
	return shared.FormatDocumentNumber(prefix, at, incr.Val()), nil
}

var _ shared.SequenceGenerator = (*RedisSequenceGenerator)(nil)

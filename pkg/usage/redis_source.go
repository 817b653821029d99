package usage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// redisSource keeps one sorted set per account and category, scored by the
// event timestamp in nanoseconds. Counting a half-open period is a ZCOUNT
// with an exclusive upper bound.
type redisSource struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisSource returns a Source backed by Redis sorted sets. The prefix
// namespaces keys; pass the application name.
func NewRedisSource(client redis.UniversalClient, prefix string) Source {
	if client == nil {
		panic("usage: redis client is required")
	}
	if prefix == "" {
		prefix = "usage"
	}
	return &redisSource{client: client, prefix: prefix}
}

func (s *redisSource) key(accountID uuid.UUID, category string) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, accountID, category)
}

func (s *redisSource) Append(ctx context.Context, rec Record) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	err := s.client.ZAdd(ctx, s.key(rec.AccountID, rec.Category), redis.Z{
		Score:  float64(rec.OccurredAt.UTC().UnixNano()),
		Member: rec.ID.String(),
	}).Err()
	if err != nil {
		return errors.Join(ErrFailedToAppendRecord, err)
	}
	return nil
}

func (s *redisSource) CountInPeriod(ctx context.Context, accountID uuid.UUID, category string, start, end time.Time) (int64, error) {
	// [start, end): inclusive lower bound, exclusive upper bound.
	minScore := strconv.FormatInt(start.UTC().UnixNano(), 10)
	maxScore := "(" + strconv.FormatInt(end.UTC().UnixNano(), 10)

	count, err := s.client.ZCount(ctx, s.key(accountID, category), minScore, maxScore).Result()
	if err != nil {
		return 0, errors.Join(ErrFailedToCountUsage, err)
	}
	return count, nil
}

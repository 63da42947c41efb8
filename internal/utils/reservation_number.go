package utils

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/line-seat-reservation/internal/logging"
)

// ReservationPrefix starts every reservation number.
const ReservationPrefix = "RES-"

const numberTimeLayout = "20060102150405"

// LocalNumbers generates reservation numbers of the form
// RES-<yyyyMMddHHmmss>-<node><seq>.  The node tag is random per process and
// the sequence is a process-wide counter, so numbers never repeat within a
// process; the reservations table's unique key catches the rest.
type LocalNumbers struct {
	node string
	seq  atomic.Uint64
	now  func() time.Time
}

// NewLocalNumbers returns a generator with a fresh random node tag.
func NewLocalNumbers() (*LocalNumbers, error) {
	node, err := randomHex(3)
	if err != nil {
		return nil, err
	}
	return &LocalNumbers{node: node, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Next implements booking.NumberGenerator.
func (g *LocalNumbers) Next(_ context.Context) (string, error) {
	return fmt.Sprintf("%s%s-%s%06d", ReservationPrefix, g.now().Format(numberTimeLayout), g.node, g.seq.Add(1)), nil
}

// RedisNumbers draws the sequence part of reservation numbers from a Redis
// counter shared by every server instance.  When Redis fails it falls back
// to a local generator.
type RedisNumbers struct {
	rdb      *redis.Client
	key      string
	fallback *LocalNumbers
	now      func() time.Time
}

// NewRedisNumbers returns a generator using INCR on key.
func NewRedisNumbers(rdb *redis.Client, key string, fallback *LocalNumbers) *RedisNumbers {
	if key == "" {
		key = "reservation:seq"
	}
	return &RedisNumbers{rdb: rdb, key: key, fallback: fallback, now: func() time.Time { return time.Now().UTC() }}
}

// Next implements booking.NumberGenerator.
func (g *RedisNumbers) Next(ctx context.Context) (string, error) {
	n, err := g.rdb.Incr(ctx, g.key).Result()
	if err != nil {
		if g.fallback == nil {
			return "", fmt.Errorf("reservation sequence: %w", err)
		}
		logging.FromContext(ctx).Warn("reservation sequence unavailable, using local numbers",
			slog.String("error", err.Error()))
		return g.fallback.Next(ctx)
	}
	return fmt.Sprintf("%s%s-%08d", ReservationPrefix, g.now().Format(numberTimeLayout), n), nil
}

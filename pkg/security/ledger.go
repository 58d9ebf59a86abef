package security

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Ledger stores an ordered sequence of timestamps per key. Entries older than
// the window passed to a call are pruned by that call.
type Ledger interface {
	// TryAppend prunes the key, then appends now if fewer than limit entries
	// remain. It returns whether now was appended and the resulting count.
	TryAppend(ctx context.Context, key string, now time.Time, window time.Duration, limit int) (bool, int, error)
	// Append records now without any limit check.
	Append(ctx context.Context, key string, now time.Time, window time.Duration) error
	// Entries prunes the key and returns the remaining timestamps, oldest first.
	Entries(ctx context.Context, key string, now time.Time, window time.Duration) ([]time.Time, error)
	// Clear drops every entry for key.
	Clear(ctx context.Context, key string) error
}

// MemoryLedger is a process-local Ledger. State is lost on restart.
type MemoryLedger struct {
	mu      sync.Mutex
	entries map[string][]time.Time
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{entries: make(map[string][]time.Time)}
}

// prune must be called with mu held.
func (l *MemoryLedger) prune(key string, now time.Time, window time.Duration) []time.Time {
	times := l.entries[key]
	i := 0
	for i < len(times) && now.Sub(times[i]) >= window {
		i++
	}
	times = times[i:]
	if len(times) == 0 {
		delete(l.entries, key)
		return nil
	}
	l.entries[key] = times
	return times
}

func (l *MemoryLedger) TryAppend(_ context.Context, key string, now time.Time, window time.Duration, limit int) (bool, int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	times := l.prune(key, now, window)
	if len(times) >= limit {
		return false, len(times), nil
	}
	l.entries[key] = append(times, now)
	return true, len(times) + 1, nil
}

func (l *MemoryLedger) Append(_ context.Context, key string, now time.Time, window time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries[key] = append(l.prune(key, now, window), now)
	return nil
}

func (l *MemoryLedger) Entries(_ context.Context, key string, now time.Time, window time.Duration) ([]time.Time, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	times := l.prune(key, now, window)
	out := make([]time.Time, len(times))
	copy(out, times)
	return out, nil
}

func (l *MemoryLedger) Clear(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.entries, key)
	return nil
}

// tryAppendScript runs prune, count and append atomically on the server.
var tryAppendScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local cutoff = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
redis.call('ZREMRANGEBYSCORE', key, '-inf', cutoff)
local count = redis.call('ZCARD', key)
if count < limit then
	redis.call('ZADD', key, now, ARGV[4])
	redis.call('PEXPIRE', key, ARGV[5])
	return {1, count + 1}
end
return {0, count}
`)

// RedisLedger keeps each key as a sorted set scored by Unix milliseconds, so
// several API instances share the same ledgers.
type RedisLedger struct {
	client *redis.Client
	prefix string
}

func NewRedisLedger(client *redis.Client, prefix string) *RedisLedger {
	return &RedisLedger{client: client, prefix: prefix}
}

// NewRedisLedgerFromURL parses a redis:// URL and verifies the connection.
func NewRedisLedgerFromURL(ctx context.Context, redisURL string) (*RedisLedger, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisLedger(client, "vidface:ledger:"), nil
}

func (l *RedisLedger) Close() error {
	return l.client.Close()
}

func (l *RedisLedger) key(k string) string {
	return l.prefix + k
}

func cutoff(now time.Time, window time.Duration) int64 {
	return now.Add(-window).UnixMilli()
}

func (l *RedisLedger) TryAppend(ctx context.Context, key string, now time.Time, window time.Duration, limit int) (bool, int, error) {
	res, err := tryAppendScript.Run(ctx, l.client, []string{l.key(key)},
		now.UnixMilli(), cutoff(now, window), limit, uuid.NewString(), window.Milliseconds()).Int64Slice()
	if err != nil {
		return false, 0, fmt.Errorf("ledger append %s: %w", key, err)
	}
	if len(res) != 2 {
		return false, 0, fmt.Errorf("ledger append %s: unexpected reply %v", key, res)
	}
	return res[0] == 1, int(res[1]), nil
}

func (l *RedisLedger) Append(ctx context.Context, key string, now time.Time, window time.Duration) error {
	k := l.key(key)
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, k, "-inf", fmt.Sprint(cutoff(now, window)))
		pipe.ZAdd(ctx, k, redis.Z{Score: float64(now.UnixMilli()), Member: uuid.NewString()})
		pipe.PExpire(ctx, k, window)
		return nil
	})
	if err != nil {
		return fmt.Errorf("ledger append %s: %w", key, err)
	}
	return nil
}

func (l *RedisLedger) Entries(ctx context.Context, key string, now time.Time, window time.Duration) ([]time.Time, error) {
	k := l.key(key)
	var scores *redis.ZSliceCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, k, "-inf", fmt.Sprint(cutoff(now, window)))
		scores = pipe.ZRangeWithScores(ctx, k, 0, -1)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ledger entries %s: %w", key, err)
	}
	zs := scores.Val()
	out := make([]time.Time, 0, len(zs))
	for _, z := range zs {
		out = append(out, time.UnixMilli(int64(z.Score)))
	}
	return out, nil
}

func (l *RedisLedger) Clear(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, l.key(key)).Err(); err != nil {
		return fmt.Errorf("ledger clear %s: %w", key, err)
	}
	return nil
}

package versions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// HistoryCache holds the version history of a document between writes.
//
// Every Invalidate starts a new generation. A list read from the store is
// only cached when the generation taken before the read is still current,
// so a slow read cannot put back history that a newer write dropped.
type HistoryCache interface {
	// Get reports ok=false on a miss.
	Get(ctx context.Context, documentID string) (list []*Version, ok bool, err error)
	Generation(ctx context.Context, documentID string) (int64, error)
	// Set stores list unless the generation moved past gen. stored reports
	// whether it was written.
	Set(ctx context.Context, documentID string, gen int64, list []*Version) (stored bool, err error)
	Invalidate(ctx context.Context, documentID string) error
}

// NopCache disables history caching.
type NopCache struct{}

func (NopCache) Get(context.Context, string) ([]*Version, bool, error) { return nil, false, nil }
func (NopCache) Generation(context.Context, string) (int64, error) { return 0, nil }
func (NopCache) Set(context.Context, string, int64, []*Version) (bool, error) {
	return false, nil
}
func (NopCache) Invalidate(context.Context, string) error { return nil }

// setIfCurrent writes KEYS[2] only while KEYS[1] (the generation, absent
// meaning 0) still equals ARGV[1].
var setIfCurrent = redis.NewScript(`
local gen = redis.call('GET', KEYS[1])
if not gen then gen = '0' end
if gen ~= ARGV[1] then return 0 end
redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
return 1
`)

// RedisCache stores each history as a JSON array under "<prefix><documentId>"
// and its generation counter under "<prefix><documentId>#gen".
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache creates a Redis-backed history cache. Prefix may be empty.
func NewRedisCache(client *redis.Client, prefix string, ttl time.Duration) *RedisCache {
	if prefix == "" {
		prefix = "versions:history:"
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisCache{client: client, prefix: prefix, ttl: ttl}
}

func (r *RedisCache) key(documentID string) string {
	return r.prefix + documentID
}

func (r *RedisCache) genKey(documentID string) string {
	return r.prefix + documentID + "#gen"
}

func (r *RedisCache) Get(ctx context.Context, documentID string) ([]*Version, bool, error) {
	b, err := r.client.Get(ctx, r.key(documentID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("history cache get: %w", err)
	}
	var list []*Version
	if err := json.Unmarshal(b, &list); err != nil {
		// a corrupt entry is a miss; drop it so the next write repopulates
		_ = r.client.Del(ctx, r.key(documentID)).Err()
		return nil, false, nil
	}
	return list, true, nil
}

func (r *RedisCache) Generation(ctx context.Context, documentID string) (int64, error) {
	gen, err := r.client.Get(ctx, r.genKey(documentID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("history cache generation: %w", err)
	}
	return gen, nil
}

func (r *RedisCache) Set(ctx context.Context, documentID string, gen int64, list []*Version) (bool, error) {
	b, err := json.Marshal(list)
	if err != nil {
		return false, err
	}
	keys := []string{r.genKey(documentID), r.key(documentID)}
	n, err := setIfCurrent.Run(ctx, r.client, keys, gen, b, r.ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("history cache set: %w", err)
	}
	return n == 1, nil
}

// Invalidate drops the entry and advances the generation in one transaction.
// The generation outlives any entry written under it.
func (r *RedisCache) Invalidate(ctx context.Context, documentID string) error {
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, r.key(documentID))
		p.Incr(ctx, r.genKey(documentID))
		p.Expire(ctx, r.genKey(documentID), r.ttl+time.Hour)
		return nil
	})
	return err
}

package tag

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore shares tag generations across processes and survives
// restarts. An optional TTL on generation keys bounds unbounded growth
// from tags that are bumped once and never read again; if a key expires,
// readers observe generation 0 and stale entries self-heal on next write.
type RedisStore struct {
	rdb redis.UniversalClient
	ns  string
	ttl time.Duration
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a Redis-backed tag store without key TTL.
func NewRedisStore(client redis.UniversalClient, namespace string) *RedisStore {
	return &RedisStore{rdb: client, ns: namespace}
}

// NewRedisStoreWithTTL creates a Redis-backed tag store whose generation
// keys expire after ttl of inactivity. ttl<=0 disables expiry.
func NewRedisStoreWithTTL(client redis.UniversalClient, namespace string, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: client, ns: namespace, ttl: ttl}
}

func (s *RedisStore) key(tagName string) string { return "tag:" + s.ns + ":" + tagName }

func (s *RedisStore) Snapshot(ctx context.Context, tagName string) (uint64, error) {
	res, err := s.rdb.Get(ctx, s.key(tagName)).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	u, err := strconv.ParseUint(res, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("tiercache: tag gen parse: %w", err)
	}
	return u, nil
}

func (s *RedisStore) SnapshotMany(ctx context.Context, tags []string) (map[string]uint64, error) {
	if len(tags) == 0 {
		return map[string]uint64{}, nil
	}
	keys := make([]string, len(tags))
	for i, t := range tags {
		keys[i] = s.key(t)
	}
	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	out := make(map[string]uint64, len(tags))
	for i, v := range vals {
		switch vv := v.(type) {
		case nil:
			out[tags[i]] = 0
		case string:
			u, err := strconv.ParseUint(vv, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("tiercache: tag gen parse at %s: %w", tags[i], err)
			}
			out[tags[i]] = u
		case []byte:
			u, err := strconv.ParseUint(string(vv), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("tiercache: tag gen parse at %s: %w", tags[i], err)
			}
			out[tags[i]] = u
		default:
			u, err := strconv.ParseUint(fmt.Sprint(vv), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("tiercache: tag gen parse at %s: %w", tags[i], err)
			}
			out[tags[i]] = u
		}
	}
	return out, nil
}

// Bump atomically increments tagName's generation and, when ttl>0,
// refreshes its expiry in the same round trip.
func (s *RedisStore) Bump(ctx context.Context, tagName string) (uint64, error) {
	k := s.key(tagName)

	if s.ttl <= 0 {
		v, err := s.rdb.Incr(ctx, k).Result()
		if err != nil {
			return 0, err
		}
		return uint64(v), nil
	}

	var incr *redis.IntCmd
	_, err := s.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, k)
		p.Expire(ctx, k, s.ttl)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return uint64(incr.Val()), nil
}

// Cleanup is a no-op: Redis expiry (if TTL is set) handles pruning.
func (s *RedisStore) Cleanup(time.Duration) {}

func (s *RedisStore) Close(ctx context.Context) error { return s.rdb.Close() }

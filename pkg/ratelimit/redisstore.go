package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a distributed Store backed by a redis.UniversalClient.
// Each entry is a JSON blob at keyPrefix+key, plus a membership record in
// a sorted set (score = unix nanos of ExpiresAt) so CleanupExpired can
// find expired keys without an O(n) KEYS scan.
type RedisStore struct {
	client     redis.UniversalClient
	logger     *slog.Logger
	keyPrefix  string
	cleanupSet string
}

// NewRedisStore wraps client. keyPrefix namespaces every key this store
// touches (e.g. "acs:ratelimit:"), letting one Redis instance be shared
// across tenants and deployments safely.
func NewRedisStore(client redis.UniversalClient, keyPrefix string, logger *slog.Logger) *RedisStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisStore{
		client:     client,
		logger:     logger,
		keyPrefix:  keyPrefix,
		cleanupSet: keyPrefix + "cleanup_set",
	}
}

func (s *RedisStore) redisKey(key string) string {
	return s.keyPrefix + key
}

type redisEntry struct {
	Key        string    `json:"key"`
	Timestamps []int64   `json:"timestamps"`
	ExpiresAt  int64     `json:"expires_at"`
}

func encodeEntry(e Entry) ([]byte, error) {
	re := redisEntry{
		Key:       e.Key,
		ExpiresAt: e.ExpiresAt.UnixNano(),
	}
	for _, ts := range e.Timestamps {
		re.Timestamps = append(re.Timestamps, ts.UnixNano())
	}
	return json.Marshal(re)
}

func decodeEntry(data []byte) (Entry, error) {
	var re redisEntry
	if err := json.Unmarshal(data, &re); err != nil {
		return Entry{}, err
	}
	e := Entry{
		Key:       re.Key,
		ExpiresAt: time.Unix(0, re.ExpiresAt),
	}
	for _, ts := range re.Timestamps {
		e.Timestamps = append(e.Timestamps, time.Unix(0, ts))
	}
	return e, nil
}

// Get returns the entry for key, or nil if absent, expired, or on any
// Redis error (the caller is expected to fail open).
func (s *RedisStore) Get(ctx context.Context, key string) *Entry {
	data, err := s.client.Get(ctx, s.redisKey(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("ratelimit redis get failed", "key", key, "error", err)
		}
		return nil
	}
	e, err := decodeEntry(data)
	if err != nil {
		s.logger.Warn("ratelimit redis decode failed", "key", key, "error", err)
		return nil
	}
	if !e.ExpiresAt.After(time.Now()) {
		return nil
	}
	return &e
}

// Set writes entry with a TTL matching its ExpiresAt and records it in the
// cleanup sorted set. A non-positive TTL is a no-op.
func (s *RedisStore) Set(ctx context.Context, key string, entry Entry) error {
	ttl := time.Until(entry.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	data, err := encodeEntry(entry)
	if err != nil {
		return fmt.Errorf("encoding rate-limit entry: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.redisKey(key), data, ttl)
	pipe.ZAdd(ctx, s.cleanupSet, redis.Z{Score: float64(entry.ExpiresAt.UnixNano()), Member: key})
	_, err = pipe.Exec(ctx)
	return err
}

// Remove deletes key and its cleanup-set membership.
func (s *RedisStore) Remove(ctx context.Context, key string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.redisKey(key))
	pipe.ZRem(ctx, s.cleanupSet, key)
	_, err := pipe.Exec(ctx)
	return err
}

// GetByPrefix scans the cleanup set membership for keys with the given
// prefix and fetches each live entry. Bounded by set size rather than the
// full keyspace.
func (s *RedisStore) GetByPrefix(ctx context.Context, prefix string) []Entry {
	members, err := s.client.ZRange(ctx, s.cleanupSet, 0, -1).Result()
	if err != nil {
		s.logger.Warn("ratelimit redis scan failed", "prefix", prefix, "error", err)
		return nil
	}

	var out []Entry
	for _, key := range members {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if e := s.Get(ctx, key); e != nil {
			out = append(out, *e)
		}
	}
	return out
}

// CleanupExpired removes every cleanup-set member whose score (expiry) has
// passed, along with its value key.
func (s *RedisStore) CleanupExpired(ctx context.Context) (int, error) {
	now := float64(time.Now().UnixNano())
	members, err := s.client.ZRangeByScore(ctx, s.cleanupSet, &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%f", now),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("listing expired rate-limit keys: %w", err)
	}
	if len(members) == 0 {
		return 0, nil
	}

	pipe := s.client.TxPipeline()
	for _, key := range members {
		pipe.Del(ctx, s.redisKey(key))
	}
	pipe.ZRemRangeByScore(ctx, s.cleanupSet, "-inf", fmt.Sprintf("%f", now))
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("removing expired rate-limit keys: %w", err)
	}
	return len(members), nil
}

// Stats reports store-wide counters. TotalRequests, LastCleanup and
// AvgLatency are not tracked server-side and are left zero; only
// TotalEntries, ExpiredEntries and PerTenantCounts are filled in.
func (s *RedisStore) Stats(ctx context.Context) Stats {
	members, err := s.client.ZRange(ctx, s.cleanupSet, 0, -1).Result()
	if err != nil {
		s.logger.Warn("ratelimit redis stats failed", "error", err)
		return Stats{}
	}

	now := time.Now()
	perTenant := make(map[string]int)
	expired := 0
	for _, key := range members {
		e := s.Get(ctx, key)
		if e == nil {
			expired++
			continue
		}
		perTenant[tenantFromKey(key)]++
	}
	_ = now

	return Stats{
		TotalEntries:    len(members),
		ExpiredEntries:  expired,
		PerTenantCounts: perTenant,
	}
}

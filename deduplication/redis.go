package deduplication

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"rewritebot/types"

	"github.com/redis/go-redis/v9"
)

// RedisConfig configures the Redis-backed index.
type RedisConfig struct {
	Addr     string // e.g. localhost:6379
	Password string
	DB       int
	// Prefix namespaces every key, e.g. "rewritebot:".
	Prefix string
	// Bloom enables a RedisBloom prefilter in front of the hash lookups.
	Bloom bool
	// Capacity sets the initial BF.RESERVE capacity (number of items)
	Capacity int
	// ErrorRate sets the desired false positive probability (e.g. 0.001)
	ErrorRate float64
}

// RedisIndex keeps URLs and content hashes in two Redis hashes. Record is a
// single Lua script, so concurrent writers cannot both win.
type RedisIndex struct {
	client *redis.Client
	prefix string
	bloom  bool
}

// recordScript writes both fields only if neither exists.
var recordScript = redis.NewScript(`
if redis.call('HEXISTS', KEYS[1], ARGV[1]) == 1 or redis.call('HEXISTS', KEYS[2], ARGV[2]) == 1 then
  return 0
end
redis.call('HSET', KEYS[1], ARGV[1], ARGV[3])
redis.call('HSET', KEYS[2], ARGV[2], ARGV[3])
return 1
`)

// NewRedisIndexFromURL parses a redis:// url. BLOOM_ENABLED, BLOOM_CAPACITY,
// BLOOM_ERROR_RATE and DEDUP_PREFIX are read from the environment.
func NewRedisIndexFromURL(ctx context.Context, rawURL string) (*RedisIndex, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	cfg := RedisConfig{
		Addr:      opts.Addr,
		Password:  opts.Password,
		DB:        opts.DB,
		Prefix:    os.Getenv("DEDUP_PREFIX"),
		Capacity:  100000,
		ErrorRate: 0.001,
	}
	if b, err := strconv.ParseBool(os.Getenv("BLOOM_ENABLED")); err == nil {
		cfg.Bloom = b
	}
	if c := os.Getenv("BLOOM_CAPACITY"); c != "" {
		if v, err := strconv.Atoi(c); err == nil && v > 0 {
			cfg.Capacity = v
		}
	}
	if e := os.Getenv("BLOOM_ERROR_RATE"); e != "" {
		if v, err := strconv.ParseFloat(e, 64); err == nil && v > 0 {
			cfg.ErrorRate = v
		}
	}
	return NewRedisIndex(ctx, cfg)
}

// NewRedisIndex connects and verifies connectivity.
func NewRedisIndex(ctx context.Context, cfg RedisConfig) (*RedisIndex, error) {
	if cfg.Prefix == "" {
		cfg.Prefix = "rewritebot:"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	r := &RedisIndex{client: client, prefix: cfg.Prefix, bloom: cfg.Bloom}
	if cfg.Bloom {
		// BF.RESERVE fails without the RedisBloom module or when the filter
		// already exists; either way exact lookups still work.
		exists, err := client.Exists(pingCtx, r.bloomKey()).Result()
		if err == nil && exists == 0 {
			err = client.Do(pingCtx, "BF.RESERVE", r.bloomKey(), fmt.Sprintf("%f", cfg.ErrorRate), cfg.Capacity).Err()
		}
		if err != nil {
			r.bloom = false
		}
	}
	return r, nil
}

// Client exposes the underlying client for the run lock.
func (r *RedisIndex) Client() *redis.Client { return r.client }

func (r *RedisIndex) urlKey() string   { return r.prefix + "dedup:urls" }
func (r *RedisIndex) hashKey() string  { return r.prefix + "dedup:hashes" }
func (r *RedisIndex) bloomKey() string { return r.prefix + "dedup:bloom" }

func (r *RedisIndex) HasURL(ctx context.Context, normalizedURL string) (bool, error) {
	return r.has(ctx, r.urlKey(), "u:"+normalizedURL, normalizedURL)
}

func (r *RedisIndex) HasHash(ctx context.Context, contentHash string) (bool, error) {
	return r.has(ctx, r.hashKey(), "h:"+contentHash, contentHash)
}

func (r *RedisIndex) has(ctx context.Context, key, bloomItem, field string) (bool, error) {
	if r.bloom {
		maybe, err := r.bloomExists(ctx, bloomItem)
		if err == nil && !maybe {
			// a bloom filter never gives false negatives
			return false, nil
		}
	}
	return r.client.HExists(ctx, key, field).Result()
}

func (r *RedisIndex) Record(ctx context.Context, rec types.DedupRecord) (bool, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return false, err
	}
	n, err := recordScript.Run(ctx, r.client,
		[]string{r.urlKey(), r.hashKey()},
		rec.NormalizedURL, rec.ContentHash, string(payload),
	).Int()
	if err != nil {
		return false, fmt.Errorf("record dedup entry: %w", err)
	}
	if n == 1 && r.bloom {
		// BF.MADD <key> <item> [item ...]
		_ = r.client.Do(ctx, "BF.MADD", r.bloomKey(), "u:"+rec.NormalizedURL, "h:"+rec.ContentHash).Err()
	}
	return n == 1, nil
}

func (r *RedisIndex) Count(ctx context.Context) (int, error) {
	n, err := r.client.HLen(ctx, r.urlKey()).Result()
	return int(n), err
}

// Close closes the underlying Redis client
func (r *RedisIndex) Close() error {
	return r.client.Close()
}

// bloomExists uses the RedisBloom BF.EXISTS command.
func (r *RedisIndex) bloomExists(ctx context.Context, item string) (bool, error) {
	res, err := r.client.Do(ctx, "BF.EXISTS", r.bloomKey(), item).Result()
	if err != nil {
		return false, err
	}

	switch v := res.(type) {
	case int64:
		return v == 1, nil
	case bool:
		return v, nil
	case string:
		return v == "1", nil
	default:
		return false, fmt.Errorf("unexpected BF.EXISTS response type %T: %v", res, res)
	}
}

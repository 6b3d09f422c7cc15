package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/ragline/storage"
	"github.com/redis/go-redis/v9"
)

// RedisConfig holds configuration for the Redis cache tier.
type RedisConfig struct {
	Addr         string        `yaml:"addr"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	KeyPrefix    string        `yaml:"key_prefix"`
	TTL          time.Duration `yaml:"ttl"`
	PoolSize     int           `yaml:"pool_size"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// DefaultRedisConfig returns a Redis configuration with sensible defaults.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:         "localhost:6379",
		KeyPrefix:    "ragline:emb:",
		TTL:          24 * time.Hour,
		PoolSize:     10,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// withDefaults fills zero fields from DefaultRedisConfig.
func (c RedisConfig) withDefaults() RedisConfig {
	d := DefaultRedisConfig()
	if c.Addr == "" {
		c.Addr = d.Addr
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = d.KeyPrefix
	}
	if c.PoolSize == 0 {
		c.PoolSize = d.PoolSize
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = d.MaxRetries
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = d.DialTimeout
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = d.ReadTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	return c
}

// Redis is an EmbeddingCache shared between processes through Redis.
type Redis struct {
	client     *redis.Client
	ownsClient bool
	prefix     string
	ttl        time.Duration
	logger     *slog.Logger
}

var _ EmbeddingCache = (*Redis)(nil)

// RedisOption configures a Redis cache.
type RedisOption func(*Redis) error

// WithRedisLogger sets the logger. A nil logger selects slog.Default().
func WithRedisLogger(logger *slog.Logger) RedisOption {
	return func(r *Redis) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRedis connects to Redis and verifies the connection with a ping.
// A zero TTL keeps entries until Redis evicts them.
func NewRedis(ctx context.Context, cfg RedisConfig, opts ...RedisOption) (*Redis, error) {
	cfg = cfg.withDefaults()
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Addr, err)
	}

	r, err := NewRedisWithClient(client, cfg.KeyPrefix, cfg.TTL, opts...)
	if err != nil {
		client.Close()
		return nil, err
	}
	r.ownsClient = true
	return r, nil
}

// NewRedisWithClient wraps an existing client owned by the caller.
func NewRedisWithClient(client *redis.Client, prefix string, ttl time.Duration, opts ...RedisOption) (*Redis, error) {
	r := &Redis{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	r.logger = r.logger.With("component", "redis-cache")
	return r, nil
}

// Get implements EmbeddingCache.
func (r *Redis) Get(ctx context.Context, key string) ([]float32, bool) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		r.logger.Warn("redis get failed", "key", key, "err", err)
		return nil, false
	}
	vector, err := storage.UnmarshalVector(data)
	if err != nil {
		r.logger.Warn("discarding corrupt cache entry", "key", key, "err", err)
		return nil, false
	}
	return vector, true
}

// Set implements EmbeddingCache.
func (r *Redis) Set(ctx context.Context, key string, vector []float32) {
	if err := r.client.Set(ctx, r.prefix+key, storage.MarshalVector(vector), r.ttl).Err(); err != nil {
		r.logger.Warn("redis set failed", "key", key, "err", err)
	}
}

// Close closes the client when the cache created it.
func (r *Redis) Close() error {
	if !r.ownsClient {
		return nil
	}
	return r.client.Close()
}

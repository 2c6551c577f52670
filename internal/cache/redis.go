// Package cache stores wave analysis results in Redis so restarts and
// sibling processes reuse them.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"WaveSentinel/internal/wave"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultPrefix  = "wavesentinel"
	DefaultTTL     = 7 * 24 * time.Hour
	DefaultTimeout = 2 * time.Second
)

// Options configures the Redis connection and the stored entries.
type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
	Timeout  time.Duration
}

func (o *Options) applyDefaults() {
	if o.Prefix == "" {
		o.Prefix = DefaultPrefix
	}
	if o.TTL <= 0 {
		o.TTL = DefaultTTL
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
}

// RedisStore implements wave.Store. Every call is bounded by the configured
// timeout since the store sits on the evaluation path.
type RedisStore struct {
	client  *redis.Client
	prefix  string
	ttl     time.Duration
	timeout time.Duration
}

var _ wave.Store = (*RedisStore)(nil)

// Connect dials Redis and verifies the connection with a ping.
func Connect(ctx context.Context, opts Options) (*RedisStore, error) {
	if opts.Addr == "" {
		return nil, errors.New("redis address is required")
	}
	opts.applyDefaults()
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		MaxRetries:   1,
		DialTimeout:  opts.Timeout,
		ReadTimeout:  opts.Timeout,
		WriteTimeout: opts.Timeout,
	})

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}
	return NewRedisStore(client, opts), nil
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client, opts Options) *RedisStore {
	opts.applyDefaults()
	return &RedisStore{client: client, prefix: opts.Prefix, ttl: opts.TTL, timeout: opts.Timeout}
}

func (s *RedisStore) key(k string) string { return s.prefix + ":" + k }

// Load returns the stored result for key. A missing key is not an error.
func (s *RedisStore) Load(key string) (*wave.Result, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	res, err := decode(data)
	if err != nil {
		return nil, false, fmt.Errorf("decode %s: %w", key, err)
	}
	return res, true, nil
}

// Save stores res under key with the configured TTL.
func (s *RedisStore) Save(key string, res *wave.Result) error {
	data, err := encode(res)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.client.Set(ctx, s.key(key), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Close() error { return s.client.Close() }

func encode(res *wave.Result) ([]byte, error) {
	if res == nil {
		return nil, errors.New("nil result")
	}
	return json.Marshal(res)
}

func decode(data []byte) (*wave.Result, error) {
	var res wave.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Namespace builds the wave.Cached namespace for one symbol, interval and
// analyzer configuration.
func Namespace(symbol, interval string, cfg wave.Config) string {
	return fmt.Sprintf("wave:%s:%s:%s", symbol, interval, cfg.Fingerprint())
}

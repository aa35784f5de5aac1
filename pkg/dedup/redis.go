package dedup

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kart-io/chatpush/pkg/logger"
)

// RedisOptions configures the redis-backed dedup store.
type RedisOptions struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	Window    time.Duration
}

// redisStore keys expire individually, giving an exact per-key window
// instead of the memory store's bulk-clear approximation. This changes
// observable dedup timing relative to the default store.
type redisStore struct {
	client *redis.Client
	prefix string
	window time.Duration
	log    logger.Logger
}

// NewRedisStore creates a redis-backed dedup store with per-key TTL.
func NewRedisStore(opts *RedisOptions, log logger.Logger) (Store, error) {
	if log == nil {
		log = logger.Discard
	}
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = "chatpush:dedup:"
	}
	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &redisStore{
		client: client,
		prefix: opts.KeyPrefix,
		window: opts.Window,
		log:    log,
	}, nil
}

func (s *redisStore) CheckAndRecord(ctx context.Context, key string) bool {
	// SETNX with TTL is the atomic check-and-record.
	set, err := s.client.SetNX(ctx, s.prefix+key, 1, s.window).Result()
	if err != nil {
		// On redis failure prefer duplicate notifications over dropped
		// ones.
		s.log.Warn("Dedup store unavailable, treating key as unseen", "error", err)
		return false
	}
	return !set
}

func (s *redisStore) Close() error {
	return s.client.Close()
}

package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/hospital-erp/backend/internal/domain/request"
	"github.com/redis/go-redis/v9"
)

// RedisCheckoutTokenStore implements CheckoutTokenStore using Redis.
// Redemption runs under a per-request redislock so two scanners presenting
// the same QR code cannot both succeed.
type RedisCheckoutTokenStore struct {
	client    *redis.Client
	locker    *redislock.Client
	keyPrefix string
	lockTTL   time.Duration
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewRedisCheckoutTokenStore creates a store with an existing Redis client
func NewRedisCheckoutTokenStore(client *redis.Client, lockTTL time.Duration) *RedisCheckoutTokenStore {
	if lockTTL <= 0 {
		lockTTL = 10 * time.Second
	}
	return &RedisCheckoutTokenStore{
		client:    client,
		locker:    redislock.New(client),
		keyPrefix: "checkout:token:",
		lockTTL:   lockTTL,
	}
}

func (s *RedisCheckoutTokenStore) key(requestID int64) string {
	return fmt.Sprintf("%s%d", s.keyPrefix, requestID)
}

// Issue stores token for the request with a TTL, replacing any earlier token
func (s *RedisCheckoutTokenStore) Issue(ctx context.Context, requestID int64, token string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.key(requestID), token, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store checkout token: %w", err)
	}
	return nil
}

// Redeem deletes the token if it matches the outstanding one
func (s *RedisCheckoutTokenStore) Redeem(ctx context.Context, requestID int64, token string) (bool, error) {
	lock, err := s.locker.Obtain(ctx, fmt.Sprintf("lock:checkout:%d", requestID), s.lockTTL, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(50*time.Millisecond), 20),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to obtain checkout lock: %w", err)
	}
	defer func() {
		_ = lock.Release(context.WithoutCancel(ctx))
	}()

	current, err := s.client.Get(ctx, s.key(requestID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read checkout token: %w", err)
	}
	if current != token {
		return false, nil
	}
	if err := s.client.Del(ctx, s.key(requestID)).Err(); err != nil {
		return false, fmt.Errorf("failed to delete checkout token: %w", err)
	}
	return true, nil
}

// Close closes the Redis client
func (s *RedisCheckoutTokenStore) Close() error {
	return s.client.Close()
}

var _ request.CheckoutTokenStore = (*RedisCheckoutTokenStore)(nil)

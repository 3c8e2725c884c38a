package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenBlacklist invalidates access tokens before they expire: a single
// token on logout, or every token of a user when the account is deleted or
// its role changes.
type TokenBlacklist interface {
	// Revoke blacklists one token by JTI until ttl elapses
	Revoke(ctx context.Context, jti string, ttl time.Duration) error

	// IsRevoked reports whether the JTI is blacklisted
	IsRevoked(ctx context.Context, jti string) (bool, error)

	// RevokeUser rejects every token of the user issued up to now
	RevokeUser(ctx context.Context, userID int64, ttl time.Duration) error

	// IsUserRevoked reports whether a token issued at issuedAt predates the
	// user's revocation
	IsUserRevoked(ctx context.Context, userID int64, issuedAt time.Time) (bool, error)
}

// RedisTokenBlacklist implements TokenBlacklist using Redis
type RedisTokenBlacklist struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisTokenBlacklist creates a blacklist on a shared Redis client
func NewRedisTokenBlacklist(client *redis.Client) *RedisTokenBlacklist {
	return &RedisTokenBlacklist{client: client, keyPrefix: "auth:blacklist:"}
}

func (b *RedisTokenBlacklist) jtiKey(jti string) string {
	return b.keyPrefix + "jti:" + jti
}

func (b *RedisTokenBlacklist) userKey(userID int64) string {
	return b.keyPrefix + "user:" + strconv.FormatInt(userID, 10)
}

// Revoke blacklists one token by JTI
func (b *RedisTokenBlacklist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := b.client.Set(ctx, b.jtiKey(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether the JTI is blacklisted
func (b *RedisTokenBlacklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := b.client.Exists(ctx, b.jtiKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token blacklist: %w", err)
	}
	return n > 0, nil
}

// RevokeUser stores the revocation timestamp for the user
func (b *RedisTokenBlacklist) RevokeUser(ctx context.Context, userID int64, ttl time.Duration) error {
	if err := b.client.Set(ctx, b.userKey(userID), time.Now().Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke user tokens: %w", err)
	}
	return nil
}

// IsUserRevoked compares the token's issue time with the stored timestamp
func (b *RedisTokenBlacklist) IsUserRevoked(ctx context.Context, userID int64, issuedAt time.Time) (bool, error) {
	revokedAt, err := b.client.Get(ctx, b.userKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check user revocation: %w", err)
	}
	return issuedAt.Unix() <= revokedAt, nil
}

var _ TokenBlacklist = (*RedisTokenBlacklist)(nil)

// InMemoryTokenBlacklist keeps revocations in process memory.
// Revocations are not shared between server instances.
type InMemoryTokenBlacklist struct {
	mu     sync.Mutex
	tokens map[string]time.Time // JTI -> entry expiry
	users  map[int64]time.Time  // user id -> revocation time
	now    func() time.Time
}

// NewInMemoryTokenBlacklist creates a new in-memory token blacklist
func NewInMemoryTokenBlacklist() *InMemoryTokenBlacklist {
	return &InMemoryTokenBlacklist{
		tokens: make(map[string]time.Time),
		users:  make(map[int64]time.Time),
		now:    time.Now,
	}
}

// Revoke blacklists one token by JTI
func (b *InMemoryTokenBlacklist) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens[jti] = b.now().Add(ttl)
	return nil
}

// IsRevoked reports whether the JTI is blacklisted and the entry is live
func (b *InMemoryTokenBlacklist) IsRevoked(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	expiry, ok := b.tokens[jti]
	if !ok {
		return false, nil
	}
	if b.now().After(expiry) {
		delete(b.tokens, jti)
		return false, nil
	}
	return true, nil
}

// RevokeUser records the revocation time for the user
func (b *InMemoryTokenBlacklist) RevokeUser(_ context.Context, userID int64, _ time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.users[userID] = b.now()
	return nil
}

// IsUserRevoked compares the token's issue time with the revocation time,
// at the one-second precision of JWT timestamps
func (b *InMemoryTokenBlacklist) IsUserRevoked(_ context.Context, userID int64, issuedAt time.Time) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	revokedAt, ok := b.users[userID]
	if !ok {
		return false, nil
	}
	return issuedAt.Unix() <= revokedAt.Unix(), nil
}

var _ TokenBlacklist = (*InMemoryTokenBlacklist)(nil)

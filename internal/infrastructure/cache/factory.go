package cache

import (
	"fmt"
	"io"

	"github.com/hospital-erp/backend/internal/domain/request"
	"github.com/hospital-erp/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// TokenStore is a checkout token store that owns resources
type TokenStore interface {
	request.CheckoutTokenStore
	io.Closer
}

// TokenStoreFactory creates checkout token stores based on configuration
type TokenStoreFactory struct {
	redisConfig           config.RedisConfig
	checkoutConfig        config.CheckoutConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// TokenStoreFactoryOption is a functional option for configuring the factory
type TokenStoreFactoryOption func(*TokenStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) TokenStoreFactoryOption {
	return func(f *TokenStoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory store
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) TokenStoreFactoryOption {
	return func(f *TokenStoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewTokenStoreFactory creates a new factory
func NewTokenStoreFactory(redisCfg config.RedisConfig, checkoutCfg config.CheckoutConfig, opts ...TokenStoreFactoryOption) *TokenStoreFactory {
	f := &TokenStoreFactory{
		redisConfig:           redisCfg,
		checkoutConfig:        checkoutCfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateStore returns a Redis store when Redis is configured and reachable,
// otherwise an in-memory store if fallback is allowed. Tokens held in memory
// are not shared between server instances.
func (f *TokenStoreFactory) CreateStore() (TokenStore, error) {
	if f.redisConfig.Host == "" {
		f.logger.Info("redis not configured, using in-memory checkout token store")
		return NewInMemoryCheckoutTokenStore(), nil
	}

	client, err := NewRedisClient(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err == nil {
		f.logger.Info("using Redis checkout token store", zap.String("addr", f.redisConfig.Addr()))
		return NewRedisCheckoutTokenStore(client, f.checkoutConfig.LockTTL), nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required for checkout tokens but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory checkout token store", zap.Error(err))
	return NewInMemoryCheckoutTokenStore(), nil
}

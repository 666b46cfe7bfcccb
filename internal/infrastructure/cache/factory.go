package cache

import (
	"context"
	"fmt"

	"github.com/Nitish8696/flatgurugram/internal/domain/shared"
	"github.com/Nitish8696/flatgurugram/internal/infrastructure/config"
	"go.uber.org/zap"
)

// ClaimStoreFactory creates claim stores based on configuration
type ClaimStoreFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// ClaimStoreFactoryOption is a functional option for configuring the factory
type ClaimStoreFactoryOption func(*ClaimStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) ClaimStoreFactoryOption {
	return func(f *ClaimStoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to in-memory store when Redis is unavailable
// Default is true (allow fallback)
func WithInMemoryFallback(allow bool) ClaimStoreFactoryOption {
	return func(f *ClaimStoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewClaimStoreFactory creates a new factory
func NewClaimStoreFactory(cfg config.RedisConfig, opts ...ClaimStoreFactoryOption) *ClaimStoreFactory {
	f := &ClaimStoreFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateRedisStore connects to Redis and returns a store that owns the client
func (f *ClaimStoreFactory) CreateRedisStore(ctx context.Context) (*RedisClaimStore, error) {
	client, err := NewRedisClient(ctx, f.redisConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis claim store: %w", err)
	}
	store := NewRedisClaimStore(client, "")
	store.ownsConn = true
	return store, nil
}

// CreateStore tries Redis first and falls back to in-memory when allowed.
// The in-memory store does not coordinate across instances; the database
// row lock and unique transaction id still prevent double application.
func (f *ClaimStoreFactory) CreateStore(ctx context.Context) (shared.ClaimStore, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-memory claim store")
		return NewInMemoryClaimStore(), nil
	}

	store, err := f.CreateRedisStore(ctx)
	if err == nil {
		f.logger.Info("using Redis claim store")
		return store, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for claims but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory claim store",
		zap.Error(err),
	)
	return NewInMemoryClaimStore(), nil
}

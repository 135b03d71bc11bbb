package cache

import (
	"fmt"
	"time"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// SessionStoreFactory creates session cart stores based on configuration
type SessionStoreFactory struct {
	redisConfig           config.RedisConfig
	ttl                   time.Duration
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// SessionStoreFactoryOption is a functional option for configuring the factory
type SessionStoreFactoryOption func(*SessionStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) SessionStoreFactoryOption {
	return func(f *SessionStoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory store
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) SessionStoreFactoryOption {
	return func(f *SessionStoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewSessionStoreFactory creates a new factory
func NewSessionStoreFactory(cfg config.RedisConfig, ttl time.Duration, opts ...SessionStoreFactoryOption) *SessionStoreFactory {
	f := &SessionStoreFactory{
		redisConfig:           cfg,
		ttl:                   ttl,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisStore creates a Redis-backed session cart store
func (f *SessionStoreFactory) CreateRedisStore() (cart.Repository, error) {
	store, err := NewRedisCartStore(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	}, f.ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis cart store: %w", err)
	}

	return store, nil
}

// CreateInMemoryStore creates an in-memory session cart store.
// WARNING: in-memory stores do not share state across process instances,
// so shoppers lose their session carts on every deploy or failover.
func (f *SessionStoreFactory) CreateInMemoryStore() cart.Repository {
	return NewInMemoryCartStore(f.ttl)
}

// CreateStore tries Redis first and falls back to the in-memory store when
// Redis is unavailable and fallback is allowed.
func (f *SessionStoreFactory) CreateStore() (cart.Repository, error) {
	store, err := f.CreateRedisStore()
	if err == nil {
		f.logger.Info("using Redis session cart store")
		return store, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for session carts but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory session cart store. "+
		"Session carts will not survive restarts or be shared across instances.",
		zap.Error(err),
	)
	return f.CreateInMemoryStore(), nil
}

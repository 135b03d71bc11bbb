package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/shared"
)

// RedisCartStore holds session carts as JSON documents under a TTL. Every
// save rewrites the document and resets the TTL, so the cart lives as long
// as the shopper keeps touching it. Expiry is Redis's alone; an expired
// cart is simply gone and reads report shared.ErrNotFound.
type RedisCartStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisCartStore creates a session cart store with its own Redis client
func NewRedisCartStore(cfg RedisConfig, ttl time.Duration) (*RedisCartStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisCartStoreWithClient(client, ttl), nil
}

// NewRedisCartStoreWithClient creates a store over an existing Redis client.
// This is useful for testing or when sharing a client across components.
func NewRedisCartStoreWithClient(client *redis.Client, ttl time.Duration) *RedisCartStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisCartStore{
		client:    client,
		keyPrefix: "cart:",
		ttl:       ttl,
	}
}

func (s *RedisCartStore) redisKey(key cart.Key) string {
	return s.keyPrefix + key.String()
}

// Find loads a session cart. Missing and expired keys are indistinguishable
// in Redis and both map to shared.ErrNotFound.
func (s *RedisCartStore) Find(ctx context.Context, key cart.Key) (*cart.Cart, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}

	payload, err := s.client.Get(ctx, s.redisKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load session cart: %w", err)
	}

	var c cart.Cart
	if err := json.Unmarshal(payload, &c); err != nil {
		return nil, fmt.Errorf("failed to decode session cart: %w", err)
	}
	if !c.Active {
		return nil, shared.ErrNotFound
	}
	return &c, nil
}

// Save writes the cart document and resets its TTL
func (s *RedisCartStore) Save(ctx context.Context, c *cart.Cart) error {
	key := c.Key()
	if err := key.Validate(); err != nil {
		return err
	}

	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode session cart: %w", err)
	}

	if err := s.client.Set(ctx, s.redisKey(key), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session cart: %w", err)
	}
	return nil
}

// Delete drops the cart document. Deleting a missing cart is a no-op.
func (s *RedisCartStore) Delete(ctx context.Context, key cart.Key) error {
	if err := key.Validate(); err != nil {
		return err
	}

	if err := s.client.Del(ctx, s.redisKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete session cart: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (s *RedisCartStore) Close() error {
	return s.client.Close()
}

// GetClient returns the underlying Redis client (for testing/monitoring)
func (s *RedisCartStore) GetClient() *redis.Client {
	return s.client
}

// Ensure RedisCartStore implements cart.Repository
var _ cart.Repository = (*RedisCartStore)(nil)

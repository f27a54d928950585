package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/localharvest/checkout/internal/domain"
	apperrors "github.com/localharvest/checkout/pkg/errors"
)

const keyPrefix = "checkout:cart:"

// CartSnapshotRepository implements repository.CartSnapshotRepository using
// Redis. Snapshots expire with the TTL so an abandoned checkout never holds a
// stale cart indefinitely.
type CartSnapshotRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCartSnapshotRepository creates a new Redis-backed cart snapshot mirror.
func NewCartSnapshotRepository(client *redis.Client, ttl time.Duration) *CartSnapshotRepository {
	return &CartSnapshotRepository{
		client: client,
		ttl:    ttl,
	}
}

// Get retrieves a cart snapshot by cart ID.
func (r *CartSnapshotRepository) Get(ctx context.Context, cartID string) (*domain.Cart, error) {
	key := keyPrefix + cartID

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, apperrors.NotFound("cart", cartID)
		}
		return nil, fmt.Errorf("redis get cart snapshot: %w", err)
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart snapshot: %w", err)
	}

	return &cart, nil
}

// Save persists a cart snapshot with the configured TTL.
func (r *CartSnapshotRepository) Save(ctx context.Context, cart *domain.Cart) error {
	key := keyPrefix + cart.ID

	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart snapshot: %w", err)
	}

	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set cart snapshot: %w", err)
	}

	return nil
}

// Delete removes a cart snapshot by cart ID.
func (r *CartSnapshotRepository) Delete(ctx context.Context, cartID string) error {
	key := keyPrefix + cartID

	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del cart snapshot: %w", err)
	}

	return nil
}

package repository

import (
	"context"
	"time"

	"github.com/localharvest/checkout/internal/domain"
)

// CheckoutRepository defines the interface for checkout session persistence.
type CheckoutRepository interface {
	// Create inserts a new checkout session into the store.
	Create(ctx context.Context, session *domain.CheckoutSession) error

	// GetByID retrieves a checkout session by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.CheckoutSession, error)

	// Update modifies an existing checkout session in the store.
	Update(ctx context.Context, session *domain.CheckoutSession) error

	// GetActiveByCartID retrieves the most recent non-terminal session for a
	// cart, so restarting checkout resumes instead of duplicating.
	GetActiveByCartID(ctx context.Context, cartID string) (*domain.CheckoutSession, error)

	// ListExpired returns non-terminal sessions whose expiry passed before
	// the given time.
	ListExpired(ctx context.Context, before time.Time) ([]domain.CheckoutSession, error)
}

// CartSnapshotRepository defines the interface for the cart snapshot mirror
// that checkout holds for the duration of a session.
type CartSnapshotRepository interface {
	// Get retrieves a cart snapshot by cart ID.
	Get(ctx context.Context, cartID string) (*domain.Cart, error)

	// Save persists a cart snapshot with the configured TTL.
	Save(ctx context.Context, cart *domain.Cart) error

	// Delete removes a cart snapshot by cart ID.
	Delete(ctx context.Context, cartID string) error
}

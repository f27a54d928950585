package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/localharvest/checkout/internal/domain"
	"github.com/localharvest/checkout/pkg/database"
	apperrors "github.com/localharvest/checkout/pkg/errors"
)

// CheckoutRepository implements repository.CheckoutRepository using PostgreSQL.
type CheckoutRepository struct {
	pool database.DBTX
}

// NewCheckoutRepository creates a new PostgreSQL-backed checkout repository.
func NewCheckoutRepository(pool database.DBTX) *CheckoutRepository {
	return &CheckoutRepository{pool: pool}
}

const sessionColumns = `id, cart_id, customer_id, guest_token, status, step,
		fulfillment_method, contact, shipping, billing,
		selected_shipping_address_id, selected_billing_address_id,
		billing_same_as_shipping, totals, order_id, failure_reason,
		expires_at, created_at, updated_at`

// Create inserts a new checkout session into the database. Payment card
// fields are deliberately absent from the schema and never persisted.
func (r *CheckoutRepository) Create(ctx context.Context, session *domain.CheckoutSession) error {
	contactJSON, shippingJSON, billingJSON, totalsJSON, err := marshalFields(session)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO checkout_sessions (` + sessionColumns + `
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10,
			$11, $12,
			$13, $14, $15, $16,
			$17, $18, $19
		)`

	_, err = r.pool.Exec(ctx, query,
		session.ID,
		session.CartID,
		nullableString(session.CustomerID),
		nullableString(session.GuestToken),
		session.Status,
		session.Step,
		nullableString(session.FulfillmentMethod),
		contactJSON,
		shippingJSON,
		billingJSON,
		nullableString(session.SelectedShippingAddressID),
		nullableString(session.SelectedBillingAddressID),
		session.BillingSameAsShipping,
		totalsJSON,
		nullableString(session.OrderID),
		nullableString(session.FailureReason),
		session.ExpiresAt,
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert checkout session: %w", err)
	}

	return nil
}

// GetByID retrieves a checkout session by its ID.
func (r *CheckoutRepository) GetByID(ctx context.Context, id string) (*domain.CheckoutSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM checkout_sessions
		WHERE id = $1`

	return r.scanSession(ctx, query, id)
}

// Update modifies an existing checkout session in the database.
func (r *CheckoutRepository) Update(ctx context.Context, session *domain.CheckoutSession) error {
	contactJSON, shippingJSON, billingJSON, totalsJSON, err := marshalFields(session)
	if err != nil {
		return err
	}

	session.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE checkout_sessions
		SET status = $1, step = $2, fulfillment_method = $3,
			contact = $4, shipping = $5, billing = $6,
			selected_shipping_address_id = $7, selected_billing_address_id = $8,
			billing_same_as_shipping = $9, totals = $10,
			order_id = $11, failure_reason = $12,
			expires_at = $13, updated_at = $14
		WHERE id = $15`

	ct, err := r.pool.Exec(ctx, query,
		session.Status,
		session.Step,
		nullableString(session.FulfillmentMethod),
		contactJSON,
		shippingJSON,
		billingJSON,
		nullableString(session.SelectedShippingAddressID),
		nullableString(session.SelectedBillingAddressID),
		session.BillingSameAsShipping,
		totalsJSON,
		nullableString(session.OrderID),
		nullableString(session.FailureReason),
		session.ExpiresAt,
		session.UpdatedAt,
		session.ID,
	)
	if err != nil {
		return fmt.Errorf("update checkout session: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("checkout_session", session.ID)
	}

	return nil
}

// GetActiveByCartID retrieves the most recent non-terminal session for a cart.
func (r *CheckoutRepository) GetActiveByCartID(ctx context.Context, cartID string) (*domain.CheckoutSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM checkout_sessions
		WHERE cart_id = $1 AND status NOT IN ('completed', 'failed', 'expired')
		ORDER BY created_at DESC
		LIMIT 1`

	return r.scanSession(ctx, query, cartID)
}

// ListExpired returns non-terminal sessions whose expiry passed before the
// given time.
func (r *CheckoutRepository) ListExpired(ctx context.Context, before time.Time) ([]domain.CheckoutSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM checkout_sessions
		WHERE expires_at < $1 AND status NOT IN ('completed', 'failed', 'expired')
		ORDER BY expires_at ASC`

	rows, err := r.pool.Query(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("list expired sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.CheckoutSession
	for rows.Next() {
		session, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expired session row: %w", err)
		}
		sessions = append(sessions, *session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expired session rows: %w", err)
	}

	if sessions == nil {
		sessions = []domain.CheckoutSession{}
	}

	return sessions, nil
}

// scanSession executes a query expected to return a single session row.
func (r *CheckoutRepository) scanSession(ctx context.Context, query string, args ...any) (*domain.CheckoutSession, error) {
	row := r.pool.QueryRow(ctx, query, args...)

	session, err := scanInto(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan checkout session: %w", err)
	}

	return session, nil
}

// scanRow scans a single row from a rows result set.
func scanRow(rows pgx.Rows) (*domain.CheckoutSession, error) {
	return scanInto(rows.Scan)
}

// scanInto reads a session row through the given scan function, shared by the
// single-row and multi-row paths.
func scanInto(scan func(dest ...any) error) (*domain.CheckoutSession, error) {
	var (
		session           domain.CheckoutSession
		customerID        *string
		guestToken        *string
		fulfillmentMethod *string
		contactJSON       []byte
		shippingJSON      []byte
		billingJSON       []byte
		selectedShipping  *string
		selectedBilling   *string
		totalsJSON        []byte
		orderID           *string
		failureReason     *string
	)

	if err := scan(
		&session.ID,
		&session.CartID,
		&customerID,
		&guestToken,
		&session.Status,
		&session.Step,
		&fulfillmentMethod,
		&contactJSON,
		&shippingJSON,
		&billingJSON,
		&selectedShipping,
		&selectedBilling,
		&session.BillingSameAsShipping,
		&totalsJSON,
		&orderID,
		&failureReason,
		&session.ExpiresAt,
		&session.CreatedAt,
		&session.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if contactJSON != nil {
		if err := json.Unmarshal(contactJSON, &session.Contact); err != nil {
			return nil, fmt.Errorf("unmarshal contact: %w", err)
		}
	}
	if shippingJSON != nil {
		if err := json.Unmarshal(shippingJSON, &session.Shipping); err != nil {
			return nil, fmt.Errorf("unmarshal shipping: %w", err)
		}
	}
	if billingJSON != nil {
		if err := json.Unmarshal(billingJSON, &session.Billing); err != nil {
			return nil, fmt.Errorf("unmarshal billing: %w", err)
		}
	}
	if totalsJSON != nil && string(totalsJSON) != "null" {
		var totals domain.CheckoutTotals
		if err := json.Unmarshal(totalsJSON, &totals); err != nil {
			return nil, fmt.Errorf("unmarshal totals: %w", err)
		}
		session.Totals = &totals
	}

	session.CustomerID = derefString(customerID)
	session.GuestToken = derefString(guestToken)
	session.FulfillmentMethod = derefString(fulfillmentMethod)
	session.SelectedShippingAddressID = derefString(selectedShipping)
	session.SelectedBillingAddressID = derefString(selectedBilling)
	session.OrderID = derefString(orderID)
	session.FailureReason = derefString(failureReason)

	return &session, nil
}

// marshalFields serializes the JSON columns of a session.
func marshalFields(session *domain.CheckoutSession) (contact, shipping, billing, totals []byte, err error) {
	contact, err = json.Marshal(session.Contact)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal contact: %w", err)
	}
	shipping, err = json.Marshal(session.Shipping)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal shipping: %w", err)
	}
	billing, err = json.Marshal(session.Billing)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal billing: %w", err)
	}
	totals, err = json.Marshal(session.Totals)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal totals: %w", err)
	}
	return contact, shipping, billing, totals, nil
}

// nullableString returns nil if the string is empty, otherwise a pointer to it.
func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// derefString returns the pointed-to string, or "" for nil.
func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

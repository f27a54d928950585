package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localharvest/checkout/internal/domain"
	"github.com/localharvest/checkout/pkg/database"
	apperrors "github.com/localharvest/checkout/pkg/errors"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func newTestRepo(t *testing.T) (*CheckoutRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	repo := NewCheckoutRepository(mock)
	return repo, mock
}

func sampleSession() *domain.CheckoutSession {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.CheckoutSession{
		ID:                "checkout-001",
		CartID:            "cart-001",
		CustomerID:        "cust-001",
		Status:            domain.StatusActive,
		Step:              domain.StepShipping,
		FulfillmentMethod: domain.MethodDelivery,
		Contact: domain.ContactInfo{
			Email: "shopper@example.com",
			Phone: "555-0100",
		},
		Shipping: domain.ShippingInfo{
			FirstName: "Jamie",
			LastName:  "Rivera",
			Address:   "12 Orchard Ln",
			City:      "Portland",
			State:     "OR",
			ZipCode:   "97201",
			Country:   "US",
		},
		BillingSameAsShipping:     true,
		SelectedShippingAddressID: "addr-001",
		Totals: &domain.CheckoutTotals{
			Subtotal:     2048,
			TaxAmount:    164,
			ShippingCost: 500,
			Total:        2712,
		},
		ExpiresAt: now.Add(30 * time.Minute),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func sessionColumnNames() []string {
	return []string{
		"id", "cart_id", "customer_id", "guest_token", "status", "step",
		"fulfillment_method", "contact", "shipping", "billing",
		"selected_shipping_address_id", "selected_billing_address_id",
		"billing_same_as_shipping", "totals", "order_id", "failure_reason",
		"expires_at", "created_at", "updated_at",
	}
}

func sessionRow(t *testing.T, s *domain.CheckoutSession) []any {
	t.Helper()

	contactJSON, err := json.Marshal(s.Contact)
	require.NoError(t, err)
	shippingJSON, err := json.Marshal(s.Shipping)
	require.NoError(t, err)
	billingJSON, err := json.Marshal(s.Billing)
	require.NoError(t, err)
	totalsJSON, err := json.Marshal(s.Totals)
	require.NoError(t, err)

	return []any{
		s.ID, s.CartID, nullableString(s.CustomerID), nullableString(s.GuestToken), s.Status, s.Step,
		nullableString(s.FulfillmentMethod), contactJSON, shippingJSON, billingJSON,
		nullableString(s.SelectedShippingAddressID), nullableString(s.SelectedBillingAddressID),
		s.BillingSameAsShipping, totalsJSON, nullableString(s.OrderID), nullableString(s.FailureReason),
		s.ExpiresAt, s.CreatedAt, s.UpdatedAt,
	}
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestCheckoutRepository_Create_Success(t *testing.T) {
	repo, mock := newTestRepo(t)
	defer mock.Close()

	s := sampleSession()

	contactJSON, err := json.Marshal(s.Contact)
	require.NoError(t, err)
	shippingJSON, err := json.Marshal(s.Shipping)
	require.NoError(t, err)
	billingJSON, err := json.Marshal(s.Billing)
	require.NoError(t, err)
	totalsJSON, err := json.Marshal(s.Totals)
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO checkout_sessions").
		WithArgs(
			s.ID, s.CartID, nullableString(s.CustomerID), (*string)(nil), s.Status, s.Step,
			nullableString(s.FulfillmentMethod), contactJSON, shippingJSON, billingJSON,
			nullableString(s.SelectedShippingAddressID), (*string)(nil),
			s.BillingSameAsShipping, totalsJSON, (*string)(nil), (*string)(nil),
			s.ExpiresAt, s.CreatedAt, s.UpdatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.Create(context.Background(), s)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckoutRepository_Create_ExecError(t *testing.T) {
	repo, mock := newTestRepo(t)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO checkout_sessions").
		WithArgs(
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
		).
		WillReturnError(errors.New("duplicate key"))

	err := repo.Create(context.Background(), sampleSession())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "insert checkout session")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// GetByID
// ---------------------------------------------------------------------------

func TestCheckoutRepository_GetByID_Success(t *testing.T) {
	repo, mock := newTestRepo(t)
	defer mock.Close()

	s := sampleSession()
	rows := pgxmock.NewRows(sessionColumnNames()).AddRow(sessionRow(t, s)...)

	mock.ExpectQuery("SELECT .+ FROM checkout_sessions WHERE id").
		WithArgs(s.ID).
		WillReturnRows(rows)

	result, err := repo.GetByID(context.Background(), s.ID)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, s.ID, result.ID)
	assert.Equal(t, s.CartID, result.CartID)
	assert.Equal(t, s.CustomerID, result.CustomerID)
	assert.Equal(t, "", result.GuestToken)
	assert.Equal(t, s.Status, result.Status)
	assert.Equal(t, s.Step, result.Step)
	assert.Equal(t, s.FulfillmentMethod, result.FulfillmentMethod)
	assert.Equal(t, s.SelectedShippingAddressID, result.SelectedShippingAddressID)
	assert.True(t, result.BillingSameAsShipping)
	assert.Equal(t, "", result.OrderID)
	assert.Equal(t, "", result.FailureReason)

	assert.Equal(t, "shopper@example.com", result.Contact.Email)
	assert.Equal(t, "Jamie", result.Shipping.FirstName)
	assert.Equal(t, "Portland", result.Shipping.City)

	require.NotNil(t, result.Totals)
	assert.Equal(t, int64(2712), result.Totals.Total)

	// Card data never round-trips through the database.
	assert.Equal(t, domain.PaymentInfo{}, result.Payment)

	assert.Equal(t, s.ExpiresAt, result.ExpiresAt)
	assert.Equal(t, s.CreatedAt, result.CreatedAt)
	assert.Equal(t, s.UpdatedAt, result.UpdatedAt)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckoutRepository_GetByID_NilTotals(t *testing.T) {
	repo, mock := newTestRepo(t)
	defer mock.Close()

	s := sampleSession()
	s.Totals = nil
	rows := pgxmock.NewRows(sessionColumnNames()).AddRow(sessionRow(t, s)...)

	mock.ExpectQuery("SELECT .+ FROM checkout_sessions WHERE id").
		WithArgs(s.ID).
		WillReturnRows(rows)

	result, err := repo.GetByID(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Nil(t, result.Totals)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckoutRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := newTestRepo(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT .+ FROM checkout_sessions WHERE id").
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows(sessionColumnNames()))

	result, err := repo.GetByID(context.Background(), "missing")
	assert.Nil(t, result)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// Update
// ---------------------------------------------------------------------------

func TestCheckoutRepository_Update_Success(t *testing.T) {
	repo, mock := newTestRepo(t)
	defer mock.Close()

	s := sampleSession()
	s.Step = domain.StepReview
	s.OrderID = "order-42"

	mock.ExpectExec("UPDATE checkout_sessions SET").
		WithArgs(
			s.Status, s.Step, nullableString(s.FulfillmentMethod),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			nullableString(s.SelectedShippingAddressID), (*string)(nil),
			s.BillingSameAsShipping, pgxmock.AnyArg(),
			nullableString(s.OrderID), (*string)(nil),
			s.ExpiresAt, pgxmock.AnyArg(),
			s.ID,
		).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	before := s.UpdatedAt
	err := repo.Update(context.Background(), s)
	assert.NoError(t, err)
	assert.True(t, s.UpdatedAt.After(before) || s.UpdatedAt.Equal(before))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckoutRepository_Update_NotFound(t *testing.T) {
	repo, mock := newTestRepo(t)
	defer mock.Close()

	s := sampleSession()

	mock.ExpectExec("UPDATE checkout_sessions SET").
		WithArgs(
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(),
		).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.Update(context.Background(), s)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// GetActiveByCartID
// ---------------------------------------------------------------------------

func TestCheckoutRepository_GetActiveByCartID_Success(t *testing.T) {
	repo, mock := newTestRepo(t)
	defer mock.Close()

	s := sampleSession()
	rows := pgxmock.NewRows(sessionColumnNames()).AddRow(sessionRow(t, s)...)

	mock.ExpectQuery("SELECT .+ FROM checkout_sessions WHERE cart_id").
		WithArgs(s.CartID).
		WillReturnRows(rows)

	result, err := repo.GetActiveByCartID(context.Background(), s.CartID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, result.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckoutRepository_GetActiveByCartID_NotFound(t *testing.T) {
	repo, mock := newTestRepo(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT .+ FROM checkout_sessions WHERE cart_id").
		WithArgs("cart-missing").
		WillReturnRows(pgxmock.NewRows(sessionColumnNames()))

	_, err := repo.GetActiveByCartID(context.Background(), "cart-missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// ListExpired
// ---------------------------------------------------------------------------

func TestCheckoutRepository_ListExpired_Success(t *testing.T) {
	repo, mock := newTestRepo(t)
	defer mock.Close()

	first := sampleSession()
	second := sampleSession()
	second.ID = "checkout-002"

	rows := pgxmock.NewRows(sessionColumnNames()).
		AddRow(sessionRow(t, first)...).
		AddRow(sessionRow(t, second)...)

	cutoff := time.Now().UTC()
	mock.ExpectQuery("SELECT .+ FROM checkout_sessions WHERE expires_at").
		WithArgs(cutoff).
		WillReturnRows(rows)

	sessions, err := repo.ListExpired(context.Background(), cutoff)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "checkout-001", sessions[0].ID)
	assert.Equal(t, "checkout-002", sessions[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckoutRepository_ListExpired_Empty(t *testing.T) {
	repo, mock := newTestRepo(t)
	defer mock.Close()

	cutoff := time.Now().UTC()
	mock.ExpectQuery("SELECT .+ FROM checkout_sessions WHERE expires_at").
		WithArgs(cutoff).
		WillReturnRows(pgxmock.NewRows(sessionColumnNames()))

	sessions, err := repo.ListExpired(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Empty(t, sessions)
	assert.NotNil(t, sessions)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckoutRepository_ListExpired_QueryError(t *testing.T) {
	repo, mock := newTestRepo(t)
	defer mock.Close()

	cutoff := time.Now().UTC()
	mock.ExpectQuery("SELECT .+ FROM checkout_sessions WHERE expires_at").
		WithArgs(cutoff).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.ListExpired(context.Background(), cutoff)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "list expired sessions")
	assert.NoError(t, mock.ExpectationsWereMet())
}

package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/localharvest/checkout/internal/domain"
	apperrors "github.com/localharvest/checkout/pkg/errors"
)

type mockAddressBookClient struct {
	mock.Mock
}

func (m *mockAddressBookClient) ListAddresses(ctx context.Context, userID string) ([]domain.UserAddress, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.UserAddress), args.Error(1)
}

func (m *mockAddressBookClient) SetDefaultAddress(ctx context.Context, userID, addressID string) error {
	args := m.Called(ctx, userID, addressID)
	return args.Error(0)
}

func TestDefaultSelection(t *testing.T) {
	billing := domain.UserAddress{ID: "a-billing", Type: domain.AddressTypeBilling}
	shipping := domain.UserAddress{ID: "a-shipping", Type: domain.AddressTypeShipping}
	both := domain.UserAddress{ID: "a-both", Type: domain.AddressTypeBoth}

	t.Run("first shipping-capable wins", func(t *testing.T) {
		got := DefaultSelection([]domain.UserAddress{billing, both, shipping})
		require.NotNil(t, got)
		assert.Equal(t, "a-both", got.ID)
	})

	t.Run("falls back to first of any type", func(t *testing.T) {
		got := DefaultSelection([]domain.UserAddress{billing})
		require.NotNil(t, got)
		assert.Equal(t, "a-billing", got.ID)
	})

	t.Run("empty book means manual entry", func(t *testing.T) {
		assert.Nil(t, DefaultSelection(nil))
	})
}

func TestFindAddress(t *testing.T) {
	addresses := []domain.UserAddress{{ID: "a1"}, {ID: "a2"}}

	got, err := FindAddress(addresses, "a2")
	require.NoError(t, err)
	assert.Equal(t, "a2", got.ID)

	_, err = FindAddress(addresses, "a3")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestShippingInfoFromAddress_NormalizesCountry(t *testing.T) {
	info := ShippingInfoFromAddress(&domain.UserAddress{
		FirstName: "Jamie",
		LastName:  "Rivera",
		Street:    "12 Orchard Ln",
		City:      "Portland",
		State:     "OR",
		ZipCode:   "97201",
		Country:   "United States",
	})

	assert.Equal(t, "US", info.Country)
	assert.Equal(t, "12 Orchard Ln", info.Address)
}

func TestApplyShippingSelection(t *testing.T) {
	session := &domain.CheckoutSession{
		BillingSameAsShipping: true,
		Billing:               domain.ShippingInfo{City: "Salem"},
	}
	addr := &domain.UserAddress{ID: "a1", FirstName: "Jamie", Country: "usa"}

	ApplyShippingSelection(session, addr)

	assert.Equal(t, "a1", session.SelectedShippingAddressID)
	assert.Equal(t, "US", session.Shipping.Country)
	// Billing was copied when the toggle was applied; a later shipping
	// selection does not rewrite it.
	assert.Equal(t, "Salem", session.Billing.City)
	assert.Empty(t, session.SelectedBillingAddressID)
}

func TestApplyManualShipping_ClearsSelection(t *testing.T) {
	session := &domain.CheckoutSession{SelectedShippingAddressID: "a1"}

	ApplyManualShipping(session, domain.ShippingInfo{
		FirstName: "Jamie",
		Country:   "canada",
	})

	assert.Empty(t, session.SelectedShippingAddressID)
	assert.Equal(t, "CA", session.Shipping.Country)
}

func TestApplyManualShipping_DoesNotRetroactivelyUpdateBilling(t *testing.T) {
	session := &domain.CheckoutSession{
		Shipping: domain.ShippingInfo{FirstName: "Jamie", City: "Portland", Country: "US"},
	}
	ApplyBillingSameAsShipping(session, true)

	ApplyManualShipping(session, domain.ShippingInfo{FirstName: "Jamie", City: "Salem", Country: "US"})

	// The toggle copies once; the later edit changes shipping only.
	assert.Equal(t, "Salem", session.Shipping.City)
	assert.Equal(t, "Portland", session.Billing.City)
	assert.True(t, session.BillingSameAsShipping)
}

func TestApplyBillingSameAsShipping_OneWayCopy(t *testing.T) {
	session := &domain.CheckoutSession{
		Shipping: domain.ShippingInfo{FirstName: "Jamie", City: "Portland"},
	}

	ApplyBillingSameAsShipping(session, true)
	assert.Equal(t, session.Shipping, session.Billing)

	// Clearing the flag leaves the copied values for editing.
	ApplyBillingSameAsShipping(session, false)
	assert.False(t, session.BillingSameAsShipping)
	assert.Equal(t, "Portland", session.Billing.City)
}

func TestAddressResolver_SetDefaultAddress(t *testing.T) {
	users := new(mockAddressBookClient)
	users.On("SetDefaultAddress", mock.Anything, "cust-1", "a1").Return(nil)
	resolver := NewAddressResolver(users, newTestLogger())

	err := resolver.SetDefaultAddress(context.Background(), "cust-1", "a1")

	assert.NoError(t, err)
	users.AssertExpectations(t)
}

func TestAddressResolver_SetDefaultAddress_Propagates(t *testing.T) {
	users := new(mockAddressBookClient)
	users.On("SetDefaultAddress", mock.Anything, "cust-1", "a1").Return(errors.New("user service down"))
	resolver := NewAddressResolver(users, newTestLogger())

	err := resolver.SetDefaultAddress(context.Background(), "cust-1", "a1")

	assert.Error(t, err)
}

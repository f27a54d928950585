package service

import (
	"context"
	"log/slog"

	"github.com/localharvest/checkout/internal/domain"
	apperrors "github.com/localharvest/checkout/pkg/errors"
)

// AddressBookClient reads and signals the user service's address book.
type AddressBookClient interface {
	ListAddresses(ctx context.Context, userID string) ([]domain.UserAddress, error)
	SetDefaultAddress(ctx context.Context, userID, addressID string) error
}

// AddressResolver selects among a customer's saved addresses and maps them
// onto checkout form fields. Guests always enter addresses manually.
type AddressResolver struct {
	users  AddressBookClient
	logger *slog.Logger
}

// NewAddressResolver creates an address resolver.
func NewAddressResolver(users AddressBookClient, logger *slog.Logger) *AddressResolver {
	return &AddressResolver{
		users:  users,
		logger: logger,
	}
}

// ListAddresses returns the customer's saved addresses.
func (r *AddressResolver) ListAddresses(ctx context.Context, customerID string) ([]domain.UserAddress, error) {
	return r.users.ListAddresses(ctx, customerID)
}

// DefaultSelection picks the address to pre-select for shipping: the first
// shipping-capable address (type shipping or both), else the first address
// of any type, else nil, which means manual entry.
func DefaultSelection(addresses []domain.UserAddress) *domain.UserAddress {
	for i := range addresses {
		if addresses[i].Type == domain.AddressTypeShipping || addresses[i].Type == domain.AddressTypeBoth {
			return &addresses[i]
		}
	}
	if len(addresses) > 0 {
		return &addresses[0]
	}
	return nil
}

// FindAddress returns the address with the given id, or a not-found error.
// Selecting an address another user owns is indistinguishable from selecting
// a nonexistent one.
func FindAddress(addresses []domain.UserAddress, addressID string) (*domain.UserAddress, error) {
	for i := range addresses {
		if addresses[i].ID == addressID {
			return &addresses[i], nil
		}
	}
	return nil, apperrors.NotFound("address", addressID)
}

// ShippingInfoFromAddress maps an address book entry onto the shipping form
// fields, normalizing the country to its ISO code.
func ShippingInfoFromAddress(addr *domain.UserAddress) domain.ShippingInfo {
	return domain.ShippingInfo{
		FirstName: addr.FirstName,
		LastName:  addr.LastName,
		Address:   addr.Street,
		City:      addr.City,
		State:     addr.State,
		ZipCode:   addr.ZipCode,
		Country:   domain.NormalizeCountry(addr.Country),
	}
}

// ApplyShippingSelection records a saved-address choice on the session and
// populates the shipping fields from it. Any previous manual entry is
// overwritten.
func ApplyShippingSelection(session *domain.CheckoutSession, addr *domain.UserAddress) {
	session.SelectedShippingAddressID = addr.ID
	session.Shipping = ShippingInfoFromAddress(addr)
}

// ApplyManualShipping records manually entered shipping fields, clearing any
// saved-address selection and normalizing the country.
func ApplyManualShipping(session *domain.CheckoutSession, info domain.ShippingInfo) {
	info.Country = domain.NormalizeCountry(info.Country)
	session.SelectedShippingAddressID = ""
	session.Shipping = info
}

// ApplyBillingSameAsShipping copies the current shipping fields into billing.
// The copy happens once at toggle time; later shipping edits leave billing
// alone until the toggle is applied again, and clearing the flag leaves the
// copied values behind for editing.
func ApplyBillingSameAsShipping(session *domain.CheckoutSession, same bool) {
	session.BillingSameAsShipping = same
	if same {
		session.Billing = session.Shipping
		session.SelectedBillingAddressID = session.SelectedShippingAddressID
	}
}

// SetDefaultAddress forwards the "make this my default" signal to the user
// service, which owns the address book.
func (r *AddressResolver) SetDefaultAddress(ctx context.Context, customerID, addressID string) error {
	if err := r.users.SetDefaultAddress(ctx, customerID, addressID); err != nil {
		r.logger.WarnContext(ctx, "failed to set default address",
			slog.String("address_id", addressID),
			slog.String("error", err.Error()),
		)
		return err
	}
	return nil
}

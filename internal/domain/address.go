package domain

import (
	"time"
)

// User address type tags, as stored by the user service address book.
const (
	AddressTypeShipping = "shipping"
	AddressTypeBilling  = "billing"
	AddressTypeBoth     = "both"
)

// Store address type tags, as returned by the store service.
const (
	StoreAddressBusiness       = "business"
	StoreAddressPickup         = "pickup"
	StoreAddressFarmLocation   = "farm_location"
	StoreAddressPickupLocation = "pickup_location"
)

// UserAddress is an address book entry owned by the user service. Checkout
// only reads and selects among these; creation and updates happen elsewhere.
type UserAddress struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Street    string    `json:"street"`
	City      string    `json:"city"`
	State     string    `json:"state"`
	ZipCode   string    `json:"zip_code"`
	Country   string    `json:"country"`
	IsDefault bool      `json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
}

// StoreAddress is a physical address record owned by the store service.
type StoreAddress struct {
	ID          string `json:"id"`
	StoreID     string `json:"store_id"`
	AddressType string `json:"address_type"`
	Street      string `json:"street"`
	City        string `json:"city"`
	State       string `json:"state"`
	ZipCode     string `json:"zip_code"`
	Country     string `json:"country"`
	IsActive    bool   `json:"is_active"`
	IsPrimary   bool   `json:"is_primary"`
}

// IsPickupCapable reports whether the address can serve as a customer pickup
// point: it must be active and of business or pickup type.
func (a StoreAddress) IsPickupCapable() bool {
	return a.IsActive && (a.AddressType == StoreAddressBusiness || a.AddressType == StoreAddressPickup)
}

// StorePickupInfo holds a store's resolved pickup addresses. Invariant: when
// PickupAddresses is non-empty, PrimaryPickupAddress is set.
type StorePickupInfo struct {
	StoreID              string         `json:"store_id"`
	PickupAddresses      []StoreAddress `json:"pickup_addresses"`
	PrimaryPickupAddress *StoreAddress  `json:"primary_pickup_address,omitempty"`
}

// NewStorePickupInfo filters the given addresses to pickup-capable ones and
// selects the primary by priority: explicit primary flag, first business
// type, first pickup type, first available.
func NewStorePickupInfo(storeID string, addresses []StoreAddress) StorePickupInfo {
	info := StorePickupInfo{
		StoreID:         storeID,
		PickupAddresses: []StoreAddress{},
	}

	for _, addr := range addresses {
		if addr.IsPickupCapable() {
			info.PickupAddresses = append(info.PickupAddresses, addr)
		}
	}

	if len(info.PickupAddresses) == 0 {
		return info
	}

	pick := func(match func(StoreAddress) bool) *StoreAddress {
		for i := range info.PickupAddresses {
			if match(info.PickupAddresses[i]) {
				return &info.PickupAddresses[i]
			}
		}
		return nil
	}

	primary := pick(func(a StoreAddress) bool { return a.IsPrimary })
	if primary == nil {
		primary = pick(func(a StoreAddress) bool { return a.AddressType == StoreAddressBusiness })
	}
	if primary == nil {
		primary = pick(func(a StoreAddress) bool { return a.AddressType == StoreAddressPickup })
	}
	if primary == nil {
		primary = &info.PickupAddresses[0]
	}
	info.PrimaryPickupAddress = primary

	return info
}

// CartStoreAddresses maps each store in a cart to its resolved pickup info.
type CartStoreAddresses struct {
	Stores map[string]StorePickupInfo `json:"stores"`

	// HasPickupAddresses is true when at least one store resolved at least
	// one pickup address.
	HasPickupAddresses bool `json:"has_pickup_addresses"`
}

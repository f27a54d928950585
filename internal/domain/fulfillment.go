package domain

// Fulfillment method constants. A store's selling methods are free-form
// capability tags; these two are the ones checkout understands.
const (
	MethodPickup   = "pickup"
	MethodDelivery = "delivery"
)

// StoreFulfillmentInfo holds one store's declared selling methods and the
// derived per-method support flags. Created fresh on every analysis run and
// never mutated in place.
type StoreFulfillmentInfo struct {
	StoreID          string   `json:"store_id"`
	SellingMethods   []string `json:"selling_methods"`
	SupportsPickup   bool     `json:"supports_pickup"`
	SupportsDelivery bool     `json:"supports_delivery"`
}

// NewStoreFulfillmentInfo derives the support flags from raw capability tags.
func NewStoreFulfillmentInfo(storeID string, sellingMethods []string) StoreFulfillmentInfo {
	info := StoreFulfillmentInfo{
		StoreID:        storeID,
		SellingMethods: sellingMethods,
	}
	for _, m := range sellingMethods {
		switch m {
		case MethodPickup:
			info.SupportsPickup = true
		case MethodDelivery:
			info.SupportsDelivery = true
		}
	}
	return info
}

// Supports reports whether the store declared the given method.
func (i StoreFulfillmentInfo) Supports(method string) bool {
	switch method {
	case MethodPickup:
		return i.SupportsPickup
	case MethodDelivery:
		return i.SupportsDelivery
	default:
		return false
	}
}

// CapabilityKnown reports whether capability data was retrieved for this
// store. A failed lookup records an empty set, which is treated as
// "supports nothing" for safety.
func (i StoreFulfillmentInfo) CapabilityKnown() bool {
	return len(i.SellingMethods) > 0
}

// CartFulfillmentAnalysis aggregates fulfillment capabilities over every
// distinct store in a cart. Recomputed whenever the cart's item set or store
// composition changes; never persisted.
type CartFulfillmentAnalysis struct {
	Stores map[string]StoreFulfillmentInfo `json:"stores"`

	AllStoresSupportPickup   bool `json:"all_stores_support_pickup"`
	AllStoresSupportDelivery bool `json:"all_stores_support_delivery"`
	AnyStoreSupportsPickup   bool `json:"any_store_supports_pickup"`
	AnyStoreSupportsDelivery bool `json:"any_store_supports_delivery"`

	// CommonFulfillmentMethods lists the methods supported by every store.
	// Only populated when capability data was retrieved for all stores;
	// if any lookup failed it stays empty rather than risk offering a
	// method an unknown store cannot honor.
	CommonFulfillmentMethods []string `json:"common_fulfillment_methods"`

	// CapabilityDataComplete is true when every store returned a non-empty
	// capability set.
	CapabilityDataComplete bool `json:"capability_data_complete"`

	// RequiresSeparateCheckout is true when the cart spans multiple stores
	// whose capabilities are known but share no common fulfillment method,
	// so no single choice can serve the whole cart.
	RequiresSeparateCheckout bool `json:"requires_separate_checkout"`
}

// EmptyAnalysis returns the canonical analysis for a cart with no
// store-tagged items: no stores, no common methods, no separate checkout.
func EmptyAnalysis() *CartFulfillmentAnalysis {
	return &CartFulfillmentAnalysis{
		Stores:                   map[string]StoreFulfillmentInfo{},
		CommonFulfillmentMethods: []string{},
	}
}

// HasStores reports whether any store contributed to the analysis.
func (a *CartFulfillmentAnalysis) HasStores() bool {
	return len(a.Stores) > 0
}

// MethodValidation is the result of checking a fulfillment method against
// every store in the analysis.
type MethodValidation struct {
	Method          string   `json:"method"`
	IsValid         bool     `json:"is_valid"`
	InvalidStoreIDs []string `json:"invalid_store_ids,omitempty"`
}

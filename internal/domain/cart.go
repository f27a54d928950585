package domain

import (
	"time"
)

// Cart is a read-only snapshot of a shopper's cart, mirrored locally for the
// duration of a checkout session. The cart service owns the source of truth;
// this service only reads and derives from it.
type Cart struct {
	ID         string         `json:"id"`
	CustomerID string         `json:"customer_id,omitempty"`
	GuestToken string         `json:"guest_token,omitempty"`
	Items      []CartLineItem `json:"items"`
	Currency   string         `json:"currency"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// CartLineItem identifies a purchasable item, its owning store, quantity, and
// unit price in cents. Immutable once fetched; replaced wholesale on refresh.
type CartLineItem struct {
	ProductID string `json:"product_id"`
	StoreID   string `json:"store_id,omitempty"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}

// IsGuest reports whether the cart belongs to an unauthenticated session.
func (c *Cart) IsGuest() bool {
	return c.CustomerID == "" && c.GuestToken != ""
}

// Subtotal computes the cart subtotal (unit price times quantity per item).
func (c *Cart) Subtotal() int64 {
	var subtotal int64
	for _, item := range c.Items {
		subtotal += item.UnitPrice * int64(item.Quantity)
	}
	return subtotal
}

// StoreIDs returns the distinct store ids across the given line items in
// first-seen order. Items without a store id are skipped.
func StoreIDs(items []CartLineItem) []string {
	seen := make(map[string]struct{}, len(items))
	var ids []string
	for _, item := range items {
		if item.StoreID == "" {
			continue
		}
		if _, ok := seen[item.StoreID]; ok {
			continue
		}
		seen[item.StoreID] = struct{}{}
		ids = append(ids, item.StoreID)
	}
	return ids
}

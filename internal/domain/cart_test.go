package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCart_Subtotal(t *testing.T) {
	cart := &Cart{
		Items: []CartLineItem{
			{ProductID: "p1", UnitPrice: 1250, Quantity: 2},
			{ProductID: "p2", UnitPrice: 499, Quantity: 3},
		},
	}
	assert.Equal(t, int64(2500+1497), cart.Subtotal())
}

func TestCart_Subtotal_Empty(t *testing.T) {
	cart := &Cart{}
	assert.Equal(t, int64(0), cart.Subtotal())
}

func TestCart_IsGuest(t *testing.T) {
	assert.True(t, (&Cart{GuestToken: "tok"}).IsGuest())
	assert.False(t, (&Cart{CustomerID: "cust-1"}).IsGuest())
	assert.False(t, (&Cart{CustomerID: "cust-1", GuestToken: "tok"}).IsGuest())
	assert.False(t, (&Cart{}).IsGuest())
}

func TestStoreIDs(t *testing.T) {
	items := []CartLineItem{
		{ProductID: "p1", StoreID: "store-b"},
		{ProductID: "p2", StoreID: "store-a"},
		{ProductID: "p3", StoreID: "store-b"},
		{ProductID: "p4"},
		{ProductID: "p5", StoreID: "store-c"},
	}

	ids := StoreIDs(items)

	// Distinct, first-seen order, untagged items skipped.
	assert.Equal(t, []string{"store-b", "store-a", "store-c"}, ids)
}

func TestStoreIDs_Empty(t *testing.T) {
	assert.Nil(t, StoreIDs(nil))
	assert.Nil(t, StoreIDs([]CartLineItem{{ProductID: "p1"}}))
}

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/localharvest/checkout/internal/domain"
)

func analysisWithCommon(methods ...string) *domain.CartFulfillmentAnalysis {
	a := domain.EmptyAnalysis()
	a.CommonFulfillmentMethods = methods
	for _, m := range methods {
		switch m {
		case domain.MethodPickup:
			a.AnyStoreSupportsPickup = true
			a.AllStoresSupportPickup = true
		case domain.MethodDelivery:
			a.AnyStoreSupportsDelivery = true
			a.AllStoresSupportDelivery = true
		}
	}
	return a
}

func TestRecommendedMethod(t *testing.T) {
	tests := []struct {
		name   string
		common []string
		want   string
	}{
		{"delivery wins over pickup", []string{"pickup", "delivery"}, "delivery"},
		{"pickup when delivery missing", []string{"pickup"}, "pickup"},
		{"delivery alone", []string{"delivery"}, "delivery"},
		{"custom tags ignored", []string{"wholesale"}, ""},
		{"nothing in common", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RecommendedMethod(analysisWithCommon(tt.common...)))
		})
	}
}

func TestAvailableMethods(t *testing.T) {
	assert.Equal(t, []string{"pickup", "delivery"}, AvailableMethods(analysisWithCommon("pickup", "delivery")))
	assert.Equal(t, []string{"delivery"}, AvailableMethods(analysisWithCommon("wholesale", "delivery")))
	assert.Empty(t, AvailableMethods(analysisWithCommon()))
}

func TestShowHelpers_SelectedMethodIsExact(t *testing.T) {
	a := analysisWithCommon("pickup", "delivery")

	assert.True(t, ShowDeliveryAddress(a, domain.MethodDelivery))
	assert.False(t, ShowDeliveryAddress(a, domain.MethodPickup))
	assert.True(t, ShowPickupOptions(a, domain.MethodPickup))
	assert.False(t, ShowPickupOptions(a, domain.MethodDelivery))
}

func TestShowHelpers_NoSelectionIsOptimistic(t *testing.T) {
	// With nothing chosen yet both paths stay visible whenever any store
	// could serve them, even when the stores share no method.
	mixed := domain.EmptyAnalysis()
	mixed.AnyStoreSupportsPickup = true
	mixed.AnyStoreSupportsDelivery = true

	assert.True(t, ShowDeliveryAddress(mixed, ""))
	assert.True(t, ShowPickupOptions(mixed, ""))

	pickupOnly := analysisWithCommon("pickup")
	assert.False(t, ShowDeliveryAddress(pickupOnly, ""))
	assert.True(t, ShowPickupOptions(pickupOnly, ""))
}

func TestFulfillmentService_ValidateMethod(t *testing.T) {
	svc := NewFulfillmentService(nil, newTestLogger())

	analysis := domain.EmptyAnalysis()
	analysis.Stores["s1"] = domain.NewStoreFulfillmentInfo("s1", []string{"pickup", "delivery"})
	analysis.Stores["s2"] = domain.NewStoreFulfillmentInfo("s2", []string{"delivery"})

	t.Run("supported everywhere", func(t *testing.T) {
		v := svc.ValidateMethod(analysis, domain.MethodDelivery)
		assert.True(t, v.IsValid)
		assert.Empty(t, v.InvalidStoreIDs)
	})

	t.Run("unsupported stores are named", func(t *testing.T) {
		v := svc.ValidateMethod(analysis, domain.MethodPickup)
		assert.False(t, v.IsValid)
		assert.Equal(t, []string{"s2"}, v.InvalidStoreIDs)
	})

	t.Run("unknown method is invalid", func(t *testing.T) {
		v := svc.ValidateMethod(analysis, "teleport")
		assert.False(t, v.IsValid)
	})

	t.Run("no stores is invalid", func(t *testing.T) {
		v := svc.ValidateMethod(domain.EmptyAnalysis(), domain.MethodPickup)
		assert.False(t, v.IsValid)
	})
}

func TestFulfillmentService_Options(t *testing.T) {
	stores := new(mockCapabilityClient)
	stores.On("GetSellingMethods", mock.Anything, "farm").Return([]string{"pickup", "delivery"}, nil)
	stores.On("GetSellingMethods", mock.Anything, "bakery").Return([]string{"delivery"}, nil)

	svc := NewFulfillmentService(newTestAnalyzer(stores), newTestLogger())

	options := svc.Options(context.Background(), itemsForStores("farm", "bakery"), "")

	// One store does both, one delivers only: delivery is the single offer
	// and the default, and the cart never splits. The pickup picker stays
	// visible while nothing is selected because the farm offers pickup.
	assert.Equal(t, []string{"delivery"}, options.AvailableMethods)
	assert.Equal(t, "delivery", options.RecommendedMethod)
	assert.True(t, options.ShowDeliveryFields)
	assert.True(t, options.ShowPickupOptions)
	assert.False(t, options.Analysis.RequiresSeparateCheckout)
}

func TestFulfillmentService_Options_SelectedPickup(t *testing.T) {
	stores := new(mockCapabilityClient)
	stores.On("GetSellingMethods", mock.Anything, "farm").Return([]string{"pickup", "delivery"}, nil)

	svc := NewFulfillmentService(newTestAnalyzer(stores), newTestLogger())

	options := svc.Options(context.Background(), itemsForStores("farm"), domain.MethodPickup)

	assert.Equal(t, "delivery", options.RecommendedMethod)
	assert.True(t, options.ShowPickupOptions)
	assert.False(t, options.ShowDeliveryFields)
}

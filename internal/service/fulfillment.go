package service

import (
	"context"
	"log/slog"

	"github.com/localharvest/checkout/internal/domain"
)

// FulfillmentOptions is the decision surface presented to the checkout UI:
// the raw analysis plus the derived choices.
type FulfillmentOptions struct {
	Analysis           *domain.CartFulfillmentAnalysis `json:"analysis"`
	AvailableMethods   []string                        `json:"available_methods"`
	RecommendedMethod  string                          `json:"recommended_method,omitempty"`
	ShowPickupOptions  bool                            `json:"show_pickup_options"`
	ShowDeliveryFields bool                            `json:"show_delivery_fields"`
}

// FulfillmentService turns the analyzer's aggregate into fulfillment
// decisions for a cart. Analysis failures degrade to the empty analysis so
// checkout stays usable.
type FulfillmentService struct {
	analyzer *FulfillmentAnalyzer
	logger   *slog.Logger
}

// NewFulfillmentService creates a fulfillment decision service.
func NewFulfillmentService(analyzer *FulfillmentAnalyzer, logger *slog.Logger) *FulfillmentService {
	return &FulfillmentService{
		analyzer: analyzer,
		logger:   logger,
	}
}

// Analyze runs the capability analysis over the cart items. Never returns
// nil; an empty cart yields the canonical empty analysis.
func (s *FulfillmentService) Analyze(ctx context.Context, items []domain.CartLineItem) *domain.CartFulfillmentAnalysis {
	analysis := s.analyzer.Analyze(ctx, items)
	if analysis == nil {
		return domain.EmptyAnalysis()
	}
	return analysis
}

// Options computes the full decision surface for the cart, honoring the
// currently selected method (empty string when none chosen yet).
func (s *FulfillmentService) Options(ctx context.Context, items []domain.CartLineItem, selectedMethod string) *FulfillmentOptions {
	analysis := s.Analyze(ctx, items)

	return &FulfillmentOptions{
		Analysis:           analysis,
		AvailableMethods:   AvailableMethods(analysis),
		RecommendedMethod:  RecommendedMethod(analysis),
		ShowPickupOptions:  ShowPickupOptions(analysis, selectedMethod),
		ShowDeliveryFields: ShowDeliveryAddress(analysis, selectedMethod),
	}
}

// ValidateMethod checks the chosen method against every store in the
// analysis and names the stores that cannot honor it.
func (s *FulfillmentService) ValidateMethod(analysis *domain.CartFulfillmentAnalysis, method string) domain.MethodValidation {
	result := domain.MethodValidation{Method: method}

	if method != domain.MethodPickup && method != domain.MethodDelivery {
		return result
	}
	if !analysis.HasStores() {
		return result
	}

	for storeID, info := range analysis.Stores {
		if !info.Supports(method) {
			result.InvalidStoreIDs = append(result.InvalidStoreIDs, storeID)
		}
	}
	result.IsValid = len(result.InvalidStoreIDs) == 0

	return result
}

// AvailableMethods returns the methods checkout can offer for the whole
// cart, restricted to the ones every store supports.
func AvailableMethods(analysis *domain.CartFulfillmentAnalysis) []string {
	methods := []string{}
	for _, m := range analysis.CommonFulfillmentMethods {
		if m == domain.MethodPickup || m == domain.MethodDelivery {
			methods = append(methods, m)
		}
	}
	return methods
}

// RecommendedMethod picks the default selection from the common methods.
// Delivery wins over pickup; no common method means no recommendation.
func RecommendedMethod(analysis *domain.CartFulfillmentAnalysis) string {
	var hasPickup, hasDelivery bool
	for _, m := range analysis.CommonFulfillmentMethods {
		switch m {
		case domain.MethodPickup:
			hasPickup = true
		case domain.MethodDelivery:
			hasDelivery = true
		}
	}

	switch {
	case hasDelivery:
		return domain.MethodDelivery
	case hasPickup:
		return domain.MethodPickup
	default:
		return ""
	}
}

// ShowDeliveryAddress reports whether the shipping address form should be
// shown. A selected method decides exactly; with no selection yet the form
// stays available as long as any store could deliver.
func ShowDeliveryAddress(analysis *domain.CartFulfillmentAnalysis, selectedMethod string) bool {
	if selectedMethod == "" {
		return analysis.AnyStoreSupportsDelivery
	}
	return selectedMethod == domain.MethodDelivery
}

// ShowPickupOptions reports whether the pickup location picker should be
// shown. A selected method decides exactly; with no selection yet the picker
// stays available as long as any store offers pickup.
func ShowPickupOptions(analysis *domain.CartFulfillmentAnalysis, selectedMethod string) bool {
	if selectedMethod == "" {
		return analysis.AnyStoreSupportsPickup
	}
	return selectedMethod == domain.MethodPickup
}

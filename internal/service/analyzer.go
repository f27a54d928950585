package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/localharvest/checkout/internal/domain"
	"github.com/localharvest/checkout/pkg/cache"
	"github.com/localharvest/checkout/pkg/httpclient"
)

// CapabilityClient looks up the selling methods a store declares.
type CapabilityClient interface {
	GetSellingMethods(ctx context.Context, storeID string) ([]string, error)
}

// FulfillmentAnalyzer aggregates per-store fulfillment capabilities across
// all stores represented in a cart.
type FulfillmentAnalyzer struct {
	stores CapabilityClient
	// capabilities caches selling-method lookups per store id. Only
	// successful lookups are cached; failures are retried on the next
	// analysis run.
	capabilities *cache.TTL[string, []string]
	logger       *slog.Logger
}

// NewFulfillmentAnalyzer creates an analyzer backed by the given store
// client and capability cache.
func NewFulfillmentAnalyzer(stores CapabilityClient, capabilities *cache.TTL[string, []string], logger *slog.Logger) *FulfillmentAnalyzer {
	return &FulfillmentAnalyzer{
		stores:       stores,
		capabilities: capabilities,
		logger:       logger,
	}
}

// Analyze computes the fulfillment analysis for the given cart items. One
// capability lookup is issued per distinct store id, all concurrently, and
// the aggregate waits for every lookup to finish. A failed lookup records an
// empty capability set for that store (capability unknown means "supports
// nothing" for safety) and never aborts the aggregate.
func (a *FulfillmentAnalyzer) Analyze(ctx context.Context, items []domain.CartLineItem) *domain.CartFulfillmentAnalysis {
	storeIDs := domain.StoreIDs(items)
	if len(storeIDs) == 0 {
		return domain.EmptyAnalysis()
	}

	methodsByStore := make(map[string][]string, len(storeIDs))

	// Cache hits are recorded before the first lookup goroutine starts, so
	// only the goroutines write the map concurrently.
	pending := make([]string, 0, len(storeIDs))
	for _, storeID := range storeIDs {
		if cached, ok := a.capabilities.Get(storeID); ok {
			methodsByStore[storeID] = cached
			continue
		}
		pending = append(pending, storeID)
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	for _, storeID := range pending {
		wg.Add(1)
		go func(storeID string) {
			defer wg.Done()

			methods := httpclient.FetchWithFallback(ctx, a.logger, "store selling methods",
				func(ctx context.Context) ([]string, error) {
					return a.stores.GetSellingMethods(ctx, storeID)
				}, nil)

			if methods != nil {
				a.capabilities.Set(storeID, methods)
			}

			mu.Lock()
			methodsByStore[storeID] = methods
			mu.Unlock()
		}(storeID)
	}

	wg.Wait()

	analysis := &domain.CartFulfillmentAnalysis{
		Stores:                   make(map[string]domain.StoreFulfillmentInfo, len(storeIDs)),
		AllStoresSupportPickup:   true,
		AllStoresSupportDelivery: true,
		CapabilityDataComplete:   true,
		CommonFulfillmentMethods: []string{},
	}

	for _, storeID := range storeIDs {
		info := domain.NewStoreFulfillmentInfo(storeID, methodsByStore[storeID])
		analysis.Stores[storeID] = info

		analysis.AllStoresSupportPickup = analysis.AllStoresSupportPickup && info.SupportsPickup
		analysis.AllStoresSupportDelivery = analysis.AllStoresSupportDelivery && info.SupportsDelivery
		analysis.AnyStoreSupportsPickup = analysis.AnyStoreSupportsPickup || info.SupportsPickup
		analysis.AnyStoreSupportsDelivery = analysis.AnyStoreSupportsDelivery || info.SupportsDelivery

		if !info.CapabilityKnown() {
			analysis.CapabilityDataComplete = false
		}
	}

	if analysis.CapabilityDataComplete {
		analysis.CommonFulfillmentMethods = commonMethods(storeIDs, analysis.Stores)
	} else {
		a.logger.WarnContext(ctx, "capability data incomplete, leaving common fulfillment methods empty",
			slog.Int("store_count", len(storeIDs)),
		)
	}

	// Multiple stores with fully known capabilities but no shared method:
	// no single fulfillment choice can serve the whole cart.
	analysis.RequiresSeparateCheckout = len(storeIDs) > 1 &&
		analysis.CapabilityDataComplete &&
		len(analysis.CommonFulfillmentMethods) == 0

	return analysis
}

// commonMethods returns the capability tags declared by every store, in the
// first store's declaration order.
func commonMethods(storeIDs []string, stores map[string]domain.StoreFulfillmentInfo) []string {
	common := []string{}
	seen := make(map[string]struct{})

	first := stores[storeIDs[0]]
	for _, method := range first.SellingMethods {
		if _, dup := seen[method]; dup {
			continue
		}
		seen[method] = struct{}{}

		supportedByAll := true
		for _, storeID := range storeIDs[1:] {
			if !containsMethod(stores[storeID].SellingMethods, method) {
				supportedByAll = false
				break
			}
		}
		if supportedByAll {
			common = append(common, method)
		}
	}

	return common
}

func containsMethod(methods []string, method string) bool {
	for _, m := range methods {
		if m == method {
			return true
		}
	}
	return false
}

package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/localharvest/checkout/internal/domain"
	"github.com/localharvest/checkout/pkg/httpclient"
)

// StoreAddressClient looks up a store's physical address records.
type StoreAddressClient interface {
	GetStoreAddresses(ctx context.Context, storeID string) ([]domain.StoreAddress, error)
}

// PickupResolver resolves pickup locations for every store in a cart.
type PickupResolver struct {
	stores StoreAddressClient
	logger *slog.Logger
}

// NewPickupResolver creates a pickup location resolver.
func NewPickupResolver(stores StoreAddressClient, logger *slog.Logger) *PickupResolver {
	return &PickupResolver{
		stores: stores,
		logger: logger,
	}
}

// Resolve fetches every store's addresses concurrently and filters them to
// pickup-capable locations. A failed lookup leaves that store with no pickup
// addresses rather than failing the aggregate.
func (r *PickupResolver) Resolve(ctx context.Context, items []domain.CartLineItem) *domain.CartStoreAddresses {
	result := &domain.CartStoreAddresses{
		Stores: map[string]domain.StorePickupInfo{},
	}

	storeIDs := domain.StoreIDs(items)
	if len(storeIDs) == 0 {
		return result
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	for _, storeID := range storeIDs {
		wg.Add(1)
		go func(storeID string) {
			defer wg.Done()

			addresses := httpclient.FetchWithFallback(ctx, r.logger, "store addresses",
				func(ctx context.Context) ([]domain.StoreAddress, error) {
					return r.stores.GetStoreAddresses(ctx, storeID)
				}, nil)

			info := domain.NewStorePickupInfo(storeID, addresses)

			mu.Lock()
			result.Stores[storeID] = info
			if len(info.PickupAddresses) > 0 {
				result.HasPickupAddresses = true
			}
			mu.Unlock()
		}(storeID)
	}

	wg.Wait()

	return result
}

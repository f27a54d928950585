package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/localharvest/checkout/internal/domain"
	"github.com/localharvest/checkout/pkg/httpclient"
)

// StoreClient queries the store service for per-store selling capabilities
// and physical addresses.
type StoreClient struct {
	httpClient HTTPDoer
	baseURL    string
}

// NewStoreClient creates a store service client.
func NewStoreClient(httpClient HTTPDoer, baseURL string) *StoreClient {
	return &StoreClient{
		httpClient: httpClient,
		baseURL:    baseURL,
	}
}

// GetSellingMethods returns the capability tags a store declares (for
// example "pickup", "delivery"). Absence of a tag means unsupported.
func (c *StoreClient) GetSellingMethods(ctx context.Context, storeID string) ([]string, error) {
	type sellingMethodsResponse struct {
		Data struct {
			StoreID        string   `json:"store_id"`
			SellingMethods []string `json:"selling_methods"`
		} `json:"data"`
	}

	endpoint := fmt.Sprintf("%s/api/v1/stores/%s/selling-methods", c.baseURL, url.PathEscape(storeID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create selling methods request: %w", err)
	}

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("call store service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, "store")
	}

	var body sellingMethodsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode selling methods response: %w", err)
	}

	return body.Data.SellingMethods, nil
}

// GetStoreAddresses returns a store's address records, including inactive
// ones; callers filter by type and active flag.
func (c *StoreClient) GetStoreAddresses(ctx context.Context, storeID string) ([]domain.StoreAddress, error) {
	type storeAddressesResponse struct {
		Data []domain.StoreAddress `json:"data"`
	}

	endpoint := fmt.Sprintf("%s/api/v1/stores/%s/addresses", c.baseURL, url.PathEscape(storeID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create store addresses request: %w", err)
	}

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("call store service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, "store")
	}

	var body storeAddressesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode store addresses response: %w", err)
	}

	return body.Data, nil
}

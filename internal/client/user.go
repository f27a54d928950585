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

// UserClient reads the user service's address book. Checkout never creates
// or edits address content; it only lists addresses and forwards the
// "set as default" signal.
type UserClient struct {
	httpClient HTTPDoer
	baseURL    string
}

// NewUserClient creates a user service client.
func NewUserClient(httpClient HTTPDoer, baseURL string) *UserClient {
	return &UserClient{
		httpClient: httpClient,
		baseURL:    baseURL,
	}
}

// ListAddresses returns the saved addresses for a user.
func (c *UserClient) ListAddresses(ctx context.Context, userID string) ([]domain.UserAddress, error) {
	type listAddressesResponse struct {
		Data []domain.UserAddress `json:"data"`
	}

	endpoint := fmt.Sprintf("%s/api/v1/users/%s/addresses", c.baseURL, url.PathEscape(userID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create list addresses request: %w", err)
	}

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("call user service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, "user")
	}

	var body listAddressesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode list addresses response: %w", err)
	}

	return body.Data, nil
}

// SetDefaultAddress signals the user service to mark an address as the
// user's default. The user service owns the actual update.
func (c *UserClient) SetDefaultAddress(ctx context.Context, userID, addressID string) error {
	endpoint := fmt.Sprintf("%s/api/v1/users/%s/addresses/%s/default",
		c.baseURL, url.PathEscape(userID), url.PathEscape(addressID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, http.NoBody)
	if err != nil {
		return fmt.Errorf("create set default address request: %w", err)
	}

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("call user service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return httpclient.ParseResponseError(resp, "user")
	}

	return nil
}

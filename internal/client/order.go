package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/localharvest/checkout/internal/domain"
	"github.com/localharvest/checkout/pkg/httpclient"
)

// OrderClient talks to the order service, which computes priced totals and
// accepts assembled orders.
type OrderClient struct {
	httpClient HTTPDoer
	baseURL    string
}

// NewOrderClient creates an order service client.
func NewOrderClient(httpClient HTTPDoer, baseURL string) *OrderClient {
	return &OrderClient{
		httpClient: httpClient,
		baseURL:    baseURL,
	}
}

// TotalsRequest asks the order service to price a cart. Address ids are
// optional; without them shipping and tax default to the cart's region.
type TotalsRequest struct {
	CartID            string `json:"cart_id"`
	CustomerID        string `json:"customer_id,omitempty"`
	GuestToken        string `json:"guest_token,omitempty"`
	ShippingAddressID string `json:"shipping_address_id,omitempty"`
	BillingAddressID  string `json:"billing_address_id,omitempty"`
	FulfillmentMethod string `json:"fulfillment_method,omitempty"`
}

// GetTotals returns the server-computed totals for a cart.
func (c *OrderClient) GetTotals(ctx context.Context, input TotalsRequest) (*domain.CheckoutTotals, error) {
	type totalsResponse struct {
		Data domain.CheckoutTotals `json:"data"`
	}

	body, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("marshal totals request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/orders/totals", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create totals request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("call order service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, "order")
	}

	var totalsResp totalsResponse
	if err := json.NewDecoder(resp.Body).Decode(&totalsResp); err != nil {
		return nil, fmt.Errorf("decode totals response: %w", err)
	}

	return &totalsResp.Data, nil
}

// SubmitOrderRequest is the fully assembled order the checkout sends for
// processing.
type SubmitOrderRequest struct {
	CartID            string                `json:"cart_id"`
	CustomerID        string                `json:"customer_id,omitempty"`
	GuestToken        string                `json:"guest_token,omitempty"`
	FulfillmentMethod string                `json:"fulfillment_method"`
	Contact           domain.ContactInfo    `json:"contact"`
	ShippingAddress   domain.ShippingInfo   `json:"shipping_address"`
	BillingAddress    domain.ShippingInfo   `json:"billing_address"`
	Payment           domain.PaymentInfo    `json:"payment"`
	Totals            domain.CheckoutTotals `json:"totals"`
}

// SubmitOrder sends the assembled order and returns the new order id.
func (c *OrderClient) SubmitOrder(ctx context.Context, input SubmitOrderRequest) (string, error) {
	type submitResponse struct {
		Data struct {
			OrderID string `json:"order_id"`
		} `json:"data"`
	}

	body, err := json.Marshal(input)
	if err != nil {
		return "", fmt.Errorf("marshal submit order request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/orders", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create submit order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return "", fmt.Errorf("call order service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", httpclient.ParseResponseError(resp, "order")
	}

	var submitResp submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&submitResp); err != nil {
		return "", fmt.Errorf("decode submit order response: %w", err)
	}

	return submitResp.Data.OrderID, nil
}

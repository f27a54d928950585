// Package client holds thin HTTP clients for the downstream marketplace
// services checkout depends on: the store service (capabilities and
// addresses), the user service (address book), and the order service
// (totals and submission).
package client

import (
	"context"
	"net/http"
)

// HTTPDoer executes HTTP requests. Both httpclient.Client and
// httpclient.CircuitBreakerClient satisfy this.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

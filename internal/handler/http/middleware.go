package http

import (
	"net/http"
	"strings"

	"github.com/localharvest/checkout/internal/service"
	"github.com/localharvest/checkout/pkg/httputil"
)

// ContentTypeJSON rejects mutating requests that do not declare a JSON body.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.Response{
					Error: &httputil.ErrorResponse{Code: "UNSUPPORTED_MEDIA_TYPE", Message: "Content-Type must be application/json"},
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// shopperIdentity extracts the caller's identity from the request headers.
// Authenticated shoppers send X-Customer-ID (set by the gateway after token
// verification); guests send the opaque X-Guest-Token minted by the cart
// service.
func shopperIdentity(r *http.Request) service.ShopperIdentity {
	return service.ShopperIdentity{
		CustomerID: r.Header.Get("X-Customer-ID"),
		GuestToken: r.Header.Get("X-Guest-Token"),
	}
}

// requireIdentity writes a 401 and returns false when neither identity
// header is present.
func requireIdentity(w http.ResponseWriter, r *http.Request) (service.ShopperIdentity, bool) {
	ident := shopperIdentity(r)
	if ident.CustomerID == "" && ident.GuestToken == "" {
		httputil.WriteJSON(w, http.StatusUnauthorized, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "UNAUTHORIZED", Message: "X-Customer-ID or X-Guest-Token header is required"},
		})
		return ident, false
	}
	return ident, true
}

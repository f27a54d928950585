package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/localharvest/checkout/internal/service"
	"github.com/localharvest/checkout/pkg/health"
	"github.com/localharvest/checkout/pkg/middleware"
)

// RouterConfig carries the router's dependencies.
type RouterConfig struct {
	CheckoutService *service.CheckoutService
	HealthHandler   *health.Handler
	Logger          *slog.Logger
	CORS            middleware.CORSConfig
}

// NewRouter creates a chi router with all checkout service routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.PrometheusMetrics("checkout"))

	// Operational endpoints
	r.Get("/health/live", cfg.HealthHandler.LivenessHandler())
	r.Get("/health/ready", cfg.HealthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	checkoutHandler := NewCheckoutHandler(cfg.CheckoutService, cfg.Logger)
	fulfillmentHandler := NewFulfillmentHandler(cfg.CheckoutService, cfg.Logger)

	r.Route("/api/v1/checkout", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/", checkoutHandler.StartCheckout)
		r.Get("/{id}", checkoutHandler.GetCheckout)

		r.Get("/{id}/fulfillment", fulfillmentHandler.GetOptions)
		r.Put("/{id}/fulfillment", fulfillmentHandler.SelectMethod)
		r.Get("/{id}/pickup-options", fulfillmentHandler.GetPickupOptions)
		r.Get("/{id}/addresses", fulfillmentHandler.GetSavedAddresses)
		r.Post("/{id}/addresses/{addressID}/default", fulfillmentHandler.SetDefaultAddress)

		r.Put("/{id}/contact", checkoutHandler.UpdateContact)
		r.Put("/{id}/shipping", checkoutHandler.UpdateShipping)
		r.Put("/{id}/shipping/select", checkoutHandler.SelectShippingAddress)
		r.Put("/{id}/billing", checkoutHandler.UpdateBilling)
		r.Put("/{id}/payment", checkoutHandler.UpdatePayment)

		r.Post("/{id}/advance", checkoutHandler.AdvanceStep)
		r.Put("/{id}/step", checkoutHandler.GoToStep)

		r.Post("/{id}/totals", checkoutHandler.RefreshTotals)
		r.Post("/{id}/order", checkoutHandler.PlaceOrder)
	})

	return r
}

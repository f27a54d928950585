package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/localharvest/checkout/internal/service"
	"github.com/localharvest/checkout/pkg/httputil"
)

// FulfillmentHandler handles the fulfillment, pickup, and saved-address
// endpoints of a checkout session.
type FulfillmentHandler struct {
	service *service.CheckoutService
	logger  *slog.Logger
}

// NewFulfillmentHandler creates a new fulfillment HTTP handler.
func NewFulfillmentHandler(svc *service.CheckoutService, logger *slog.Logger) *FulfillmentHandler {
	return &FulfillmentHandler{
		service: svc,
		logger:  logger,
	}
}

// SelectMethodRequest names the fulfillment method to use for the whole cart.
type SelectMethodRequest struct {
	Method string `json:"method" validate:"required,oneof=pickup delivery"`
}

// SavedAddressesResponse lists the shopper's address book with the
// default-selection hint.
type SavedAddressesResponse struct {
	Addresses        any    `json:"addresses"`
	DefaultAddressID string `json:"default_address_id,omitempty"`
}

// GetOptions handles GET /api/v1/checkout/{id}/fulfillment
// @Summary Get fulfillment options
// @Description Returns the per-store capability analysis, the methods available for the whole cart, and the recommended default.
// @Tags fulfillment
// @Produce json
// @Param id path string true "Checkout session UUID"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/checkout/{id}/fulfillment [get]
func (h *FulfillmentHandler) GetOptions(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	options, err := h.service.FulfillmentOptions(r.Context(), chi.URLParam(r, "id"), ident)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: options})
}

// SelectMethod handles PUT /api/v1/checkout/{id}/fulfillment
// @Summary Select the fulfillment method
// @Description Records the chosen method after checking every store in the cart supports it.
// @Tags fulfillment
// @Accept json
// @Produce json
// @Param id path string true "Checkout session UUID"
// @Param request body SelectMethodRequest true "Fulfillment method"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/checkout/{id}/fulfillment [put]
func (h *FulfillmentHandler) SelectMethod(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	req, ok := decodeBody[SelectMethodRequest](w, r)
	if !ok {
		return
	}

	session, err := h.service.SelectFulfillmentMethod(r.Context(), chi.URLParam(r, "id"), ident, req.Method)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: session})
}

// GetPickupOptions handles GET /api/v1/checkout/{id}/pickup-options
// @Summary Get pickup locations
// @Description Resolves the pickup-capable addresses for every store in the cart.
// @Tags fulfillment
// @Produce json
// @Param id path string true "Checkout session UUID"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/checkout/{id}/pickup-options [get]
func (h *FulfillmentHandler) GetPickupOptions(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	addresses, err := h.service.PickupOptions(r.Context(), chi.URLParam(r, "id"), ident)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: addresses})
}

// GetSavedAddresses handles GET /api/v1/checkout/{id}/addresses
// @Summary List the shopper's saved addresses
// @Description Returns the address book with the id the default-selection policy would pre-select. Guests get an empty list.
// @Tags fulfillment
// @Produce json
// @Param id path string true "Checkout session UUID"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/checkout/{id}/addresses [get]
func (h *FulfillmentHandler) GetSavedAddresses(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	addresses, defaultID, err := h.service.SavedAddresses(r.Context(), chi.URLParam(r, "id"), ident)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: SavedAddressesResponse{
		Addresses:        addresses,
		DefaultAddressID: defaultID,
	}})
}

// SetDefaultAddress handles POST /api/v1/checkout/{id}/addresses/{addressID}/default
// @Summary Mark a saved address as the shopper's default
// @Description Forwards the signal to the user service, which owns the address book.
// @Tags fulfillment
// @Produce json
// @Param id path string true "Checkout session UUID"
// @Param addressID path string true "Address UUID"
// @Success 204 {object} nil
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/checkout/{id}/addresses/{addressID}/default [post]
func (h *FulfillmentHandler) SetDefaultAddress(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	err := h.service.SetDefaultAddress(r.Context(), chi.URLParam(r, "id"), ident, chi.URLParam(r, "addressID"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/localharvest/checkout/internal/domain"
	"github.com/localharvest/checkout/internal/service"
	"github.com/localharvest/checkout/pkg/httputil"
	"github.com/localharvest/checkout/pkg/validator"
)

// CheckoutHandler handles HTTP requests for the checkout wizard endpoints.
type CheckoutHandler struct {
	service *service.CheckoutService
	logger  *slog.Logger
}

// NewCheckoutHandler creates a new checkout HTTP handler.
func NewCheckoutHandler(svc *service.CheckoutService, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// StartCheckoutRequest is the JSON request body for starting a checkout.
type StartCheckoutRequest struct {
	Cart CartSnapshotRequest `json:"cart" validate:"required"`
}

// CartSnapshotRequest is the cart the storefront is checking out.
type CartSnapshotRequest struct {
	ID       string            `json:"id" validate:"required"`
	Currency string            `json:"currency" validate:"required,len=3"`
	Items    []CartItemRequest `json:"items" validate:"required,min=1,dive"`
}

// CartItemRequest is a single cart line item.
type CartItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	StoreID   string `json:"store_id"`
	Name      string `json:"name" validate:"required"`
	UnitPrice int64  `json:"unit_price" validate:"gte=0"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// UpdateContactRequest is the JSON request body for the contact step.
type UpdateContactRequest struct {
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"required"`
}

// ShippingAddressRequest is the JSON request body for manual address entry.
// Fields are individually optional so partial saves are possible; step
// completeness is checked on advance.
type ShippingAddressRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zip_code"`
	Country   string `json:"country"`
}

// SelectAddressRequest picks a saved address by id.
type SelectAddressRequest struct {
	AddressID string `json:"address_id" validate:"required"`
}

// BillingRequest is the JSON request body for the billing address. When
// SameAsShipping is true the address fields are ignored and shipping is
// copied instead.
type BillingRequest struct {
	SameAsShipping bool `json:"same_as_shipping"`
	ShippingAddressRequest
}

// PaymentRequest is the JSON request body for the payment step. Card
// validation happens on step advance.
type PaymentRequest struct {
	CardNumber     string `json:"card_number"`
	Expiry         string `json:"expiry"`
	CVV            string `json:"cvv"`
	CardholderName string `json:"cardholder_name"`
}

// GoToStepRequest names the wizard step to jump to.
type GoToStepRequest struct {
	Step string `json:"step" validate:"required,oneof=contact shipping payment review"`
}

// --- Handlers ---

// StartCheckout handles POST /api/v1/checkout
// @Summary Start a checkout session
// @Description Mirrors the cart snapshot and creates (or resumes) a checkout session. Requires X-Customer-ID or X-Guest-Token.
// @Tags checkout
// @Accept json
// @Produce json
// @Param request body StartCheckoutRequest true "Cart snapshot"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/checkout/ [post]
func (h *CheckoutHandler) StartCheckout(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	req, ok := decodeBody[StartCheckoutRequest](w, r)
	if !ok {
		return
	}

	items := make([]domain.CartLineItem, len(req.Cart.Items))
	for i, item := range req.Cart.Items {
		items[i] = domain.CartLineItem{
			ProductID: item.ProductID,
			StoreID:   item.StoreID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		}
	}

	session, err := h.service.StartCheckout(r.Context(), service.StartCheckoutInput{
		Cart: &domain.Cart{
			ID:       req.Cart.ID,
			Currency: req.Cart.Currency,
			Items:    items,
		},
		Identity: ident,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: session})
}

// GetCheckout handles GET /api/v1/checkout/{id}
// @Summary Get checkout session
// @Description Returns a checkout session by ID. Only the session owner may access it.
// @Tags checkout
// @Produce json
// @Param id path string true "Checkout session UUID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 410 {object} map[string]interface{}
// @Router /api/v1/checkout/{id} [get]
func (h *CheckoutHandler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	session, err := h.service.GetSession(r.Context(), chi.URLParam(r, "id"), ident)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: session})
}

// UpdateContact handles PUT /api/v1/checkout/{id}/contact
// @Summary Set contact info
// @Tags checkout
// @Accept json
// @Produce json
// @Param id path string true "Checkout session UUID"
// @Param request body UpdateContactRequest true "Contact info"
// @Success 200 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Router /api/v1/checkout/{id}/contact [put]
func (h *CheckoutHandler) UpdateContact(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	req, ok := decodeBody[UpdateContactRequest](w, r)
	if !ok {
		return
	}

	session, err := h.service.UpdateContact(r.Context(), chi.URLParam(r, "id"), ident, domain.ContactInfo{
		Email: req.Email,
		Phone: req.Phone,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: session})
}

// UpdateShipping handles PUT /api/v1/checkout/{id}/shipping
// @Summary Set shipping address by manual entry
// @Tags checkout
// @Accept json
// @Produce json
// @Param id path string true "Checkout session UUID"
// @Param request body ShippingAddressRequest true "Shipping address"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/checkout/{id}/shipping [put]
func (h *CheckoutHandler) UpdateShipping(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	req, ok := decodeBody[ShippingAddressRequest](w, r)
	if !ok {
		return
	}

	session, err := h.service.UpdateShipping(r.Context(), chi.URLParam(r, "id"), ident, shippingInfoFromRequest(req))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: session})
}

// SelectShippingAddress handles PUT /api/v1/checkout/{id}/shipping/select
// @Summary Select a saved address for shipping
// @Tags checkout
// @Accept json
// @Produce json
// @Param id path string true "Checkout session UUID"
// @Param request body SelectAddressRequest true "Saved address id"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/checkout/{id}/shipping/select [put]
func (h *CheckoutHandler) SelectShippingAddress(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	req, ok := decodeBody[SelectAddressRequest](w, r)
	if !ok {
		return
	}

	session, err := h.service.SelectShippingAddress(r.Context(), chi.URLParam(r, "id"), ident, req.AddressID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: session})
}

// UpdateBilling handles PUT /api/v1/checkout/{id}/billing
// @Summary Set the billing address, or copy it from shipping
// @Tags checkout
// @Accept json
// @Produce json
// @Param id path string true "Checkout session UUID"
// @Param request body BillingRequest true "Billing address or same-as-shipping flag"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/checkout/{id}/billing [put]
func (h *CheckoutHandler) UpdateBilling(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	req, ok := decodeBody[BillingRequest](w, r)
	if !ok {
		return
	}

	var (
		session *domain.CheckoutSession
		err     error
	)
	if req.SameAsShipping {
		session, err = h.service.SetBillingSameAsShipping(r.Context(), chi.URLParam(r, "id"), ident, true)
	} else {
		session, err = h.service.UpdateBilling(r.Context(), chi.URLParam(r, "id"), ident, shippingInfoFromRequest(req.ShippingAddressRequest))
	}
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: session})
}

// UpdatePayment handles PUT /api/v1/checkout/{id}/payment
// @Summary Set payment details
// @Description Stores card fields on the in-flight session only; they are validated on advance and never persisted.
// @Tags checkout
// @Accept json
// @Produce json
// @Param id path string true "Checkout session UUID"
// @Param request body PaymentRequest true "Payment details"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/checkout/{id}/payment [put]
func (h *CheckoutHandler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	req, ok := decodeBody[PaymentRequest](w, r)
	if !ok {
		return
	}

	session, err := h.service.UpdatePayment(r.Context(), chi.URLParam(r, "id"), ident, domain.PaymentInfo{
		CardNumber:     req.CardNumber,
		Expiry:         req.Expiry,
		CVV:            req.CVV,
		CardholderName: req.CardholderName,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: session})
}

// AdvanceStep handles POST /api/v1/checkout/{id}/advance
// @Summary Advance to the next wizard step
// @Description Fails with the current step's missing fields when it is incomplete.
// @Tags checkout
// @Produce json
// @Param id path string true "Checkout session UUID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/checkout/{id}/advance [post]
func (h *CheckoutHandler) AdvanceStep(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	session, err := h.service.AdvanceStep(r.Context(), chi.URLParam(r, "id"), ident)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: session})
}

// GoToStep handles PUT /api/v1/checkout/{id}/step
// @Summary Jump to a wizard step
// @Description Backward navigation is always allowed; forward navigation validates the steps in between.
// @Tags checkout
// @Accept json
// @Produce json
// @Param id path string true "Checkout session UUID"
// @Param request body GoToStepRequest true "Target step"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/checkout/{id}/step [put]
func (h *CheckoutHandler) GoToStep(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	req, ok := decodeBody[GoToStepRequest](w, r)
	if !ok {
		return
	}

	session, err := h.service.GoToStep(r.Context(), chi.URLParam(r, "id"), ident, req.Step)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: session})
}

// RefreshTotals handles POST /api/v1/checkout/{id}/totals
// @Summary Recompute order totals
// @Tags checkout
// @Produce json
// @Param id path string true "Checkout session UUID"
// @Success 200 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{}
// @Router /api/v1/checkout/{id}/totals [post]
func (h *CheckoutHandler) RefreshTotals(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	session, err := h.service.RefreshTotals(r.Context(), chi.URLParam(r, "id"), ident)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: session})
}

// PlaceOrder handles POST /api/v1/checkout/{id}/order
// @Summary Place the order
// @Description Submits the assembled order. The session must be on the review step with every prior step complete.
// @Tags checkout
// @Produce json
// @Param id path string true "Checkout session UUID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{}
// @Router /api/v1/checkout/{id}/order [post]
func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	session, err := h.service.PlaceOrder(r.Context(), chi.URLParam(r, "id"), ident)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: session})
}

// --- Helpers ---

// decodeBody reads, decodes, and validates a JSON request body. It writes
// the error response itself and reports success through the bool.
func decodeBody[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var req T

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return req, false
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return req, false
	}

	return req, true
}

func shippingInfoFromRequest(req ShippingAddressRequest) domain.ShippingInfo {
	return domain.ShippingInfo{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Address:   req.Address,
		City:      req.City,
		State:     req.State,
		ZipCode:   req.ZipCode,
		Country:   req.Country,
	}
}

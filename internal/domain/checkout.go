package domain

import (
	"time"
)

// Checkout wizard steps, strictly linear. Back-navigation to any prior step
// is always allowed; forward navigation is gated by the step's validity.
const (
	StepContact  = "contact"
	StepShipping = "shipping"
	StepPayment  = "payment"
	StepReview   = "review"
)

// stepOrder fixes the wizard sequence.
var stepOrder = []string{StepContact, StepShipping, StepPayment, StepReview}

// Checkout session status constants.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusExpired   = "expired"
)

// ContactInfo holds the contact step's fields.
type ContactInfo struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// ShippingInfo holds the shipping step's fields. Populated either from a
// selected saved address or by manual entry.
type ShippingInfo struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zip_code"`
	Country   string `json:"country"`
}

// PaymentInfo holds the payment step's fields. Card fields are forwarded to
// the order service for tokenization at submission and are not persisted.
type PaymentInfo struct {
	CardNumber     string `json:"card_number,omitempty"`
	Expiry         string `json:"expiry,omitempty"`
	CVV            string `json:"cvv,omitempty"`
	CardholderName string `json:"cardholder_name,omitempty"`
}

// CheckoutTotals are the server-computed order totals, in cents.
type CheckoutTotals struct {
	Subtotal       int64 `json:"subtotal"`
	TaxAmount      int64 `json:"tax_amount"`
	ShippingCost   int64 `json:"shipping_cost"`
	DiscountAmount int64 `json:"discount_amount"`
	Total          int64 `json:"total"`
}

// CheckoutSession is the state of one checkout wizard run over a cart
// snapshot. Either CustomerID or GuestToken identifies the shopper.
type CheckoutSession struct {
	ID         string `json:"id"`
	CartID     string `json:"cart_id"`
	CustomerID string `json:"customer_id,omitempty"`
	GuestToken string `json:"guest_token,omitempty"`

	Status string `json:"status"`
	Step   string `json:"step"`

	FulfillmentMethod string `json:"fulfillment_method,omitempty"`

	Contact  ContactInfo  `json:"contact"`
	Shipping ShippingInfo `json:"shipping"`
	Payment  PaymentInfo  `json:"payment"`

	SelectedShippingAddressID string `json:"selected_shipping_address_id,omitempty"`
	SelectedBillingAddressID  string `json:"selected_billing_address_id,omitempty"`

	// BillingSameAsShipping records that billing was copied from shipping.
	// The copy is one-way at toggle time, not a live binding.
	BillingSameAsShipping bool         `json:"billing_same_as_shipping"`
	Billing               ShippingInfo `json:"billing"`

	Totals        *CheckoutTotals `json:"totals,omitempty"`
	OrderID       string          `json:"order_id,omitempty"`
	FailureReason string          `json:"failure_reason,omitempty"`

	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsExpired reports whether the session has passed its expiry time.
func (s *CheckoutSession) IsExpired() bool {
	return time.Now().UTC().After(s.ExpiresAt)
}

// IsTerminal reports whether the session is in a final state.
func (s *CheckoutSession) IsTerminal() bool {
	return s.Status == StatusCompleted || s.Status == StatusFailed || s.Status == StatusExpired
}

// IsGuest reports whether the session belongs to an unauthenticated shopper.
func (s *CheckoutSession) IsGuest() bool {
	return s.CustomerID == "" && s.GuestToken != ""
}

// Steps returns the wizard steps in order.
func Steps() []string {
	return append([]string(nil), stepOrder...)
}

// StepIndex returns the position of a step in the wizard order, or -1.
func StepIndex(step string) int {
	for i, s := range stepOrder {
		if s == step {
			return i
		}
	}
	return -1
}

// NextStep returns the step after the given one, or "" when already on the
// last step.
func NextStep(step string) string {
	idx := StepIndex(step)
	if idx < 0 || idx >= len(stepOrder)-1 {
		return ""
	}
	return stepOrder[idx+1]
}

// IsValidStep reports whether the given step name is part of the wizard.
func IsValidStep(step string) bool {
	return StepIndex(step) >= 0
}

// ValidateContactStep returns the missing fields for the contact step:
// email and phone are both required.
func (s *CheckoutSession) ValidateContactStep() []string {
	var missing []string
	if s.Contact.Email == "" {
		missing = append(missing, "email")
	}
	if s.Contact.Phone == "" {
		missing = append(missing, "phone")
	}
	return missing
}

// ValidateShippingStep returns the missing fields for the shipping step.
// With pickup fulfillment the step is vacuously valid; with delivery either
// a saved address must be selected or every shipping field filled in.
func (s *CheckoutSession) ValidateShippingStep() []string {
	if s.FulfillmentMethod == MethodPickup {
		return nil
	}
	if s.SelectedShippingAddressID != "" {
		return nil
	}

	var missing []string
	fields := []struct {
		name  string
		value string
	}{
		{"first_name", s.Shipping.FirstName},
		{"last_name", s.Shipping.LastName},
		{"address", s.Shipping.Address},
		{"city", s.Shipping.City},
		{"state", s.Shipping.State},
		{"zip_code", s.Shipping.ZipCode},
		{"country", s.Shipping.Country},
	}
	for _, f := range fields {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// ValidatePaymentStep returns the problems with the payment step's fields.
func (s *CheckoutSession) ValidatePaymentStep() []string {
	return ValidatePaymentInfo(s.Payment)
}

// ValidateStep dispatches to the per-step validator. The review step is
// valid once all prior steps are.
func (s *CheckoutSession) ValidateStep(step string) []string {
	switch step {
	case StepContact:
		return s.ValidateContactStep()
	case StepShipping:
		return s.ValidateShippingStep()
	case StepPayment:
		return s.ValidatePaymentStep()
	case StepReview:
		var problems []string
		problems = append(problems, s.ValidateContactStep()...)
		problems = append(problems, s.ValidateShippingStep()...)
		problems = append(problems, s.ValidatePaymentStep()...)
		return problems
	default:
		return []string{"unknown step: " + step}
	}
}

// CanPlaceOrder reports whether the terminal action is allowed: only on the
// review step, with every prior step valid.
func (s *CheckoutSession) CanPlaceOrder() bool {
	return s.Step == StepReview && len(s.ValidateStep(StepReview)) == 0
}

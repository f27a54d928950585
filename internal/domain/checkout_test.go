package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func completeSession() *CheckoutSession {
	return &CheckoutSession{
		ID:                "sess-1",
		CartID:            "cart-1",
		CustomerID:        "cust-1",
		Status:            StatusActive,
		Step:              StepReview,
		FulfillmentMethod: MethodDelivery,
		Contact:           ContactInfo{Email: "shopper@example.com", Phone: "555-0100"},
		Shipping: ShippingInfo{
			FirstName: "Jamie",
			LastName:  "Rivera",
			Address:   "12 Orchard Ln",
			City:      "Portland",
			State:     "OR",
			ZipCode:   "97201",
			Country:   "US",
		},
		Payment: PaymentInfo{
			CardNumber:     "4111 1111 1111 1111",
			Expiry:         "12/26",
			CVV:            "123",
			CardholderName: "Jamie Rivera",
		},
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}
}

func TestStepNavigation(t *testing.T) {
	assert.Equal(t, 0, StepIndex(StepContact))
	assert.Equal(t, 3, StepIndex(StepReview))
	assert.Equal(t, -1, StepIndex("confirm"))

	assert.Equal(t, StepShipping, NextStep(StepContact))
	assert.Equal(t, StepReview, NextStep(StepPayment))
	assert.Equal(t, "", NextStep(StepReview))
	assert.Equal(t, "", NextStep("confirm"))

	assert.True(t, IsValidStep(StepPayment))
	assert.False(t, IsValidStep(""))
}

func TestSteps_MatchesWizardOrder(t *testing.T) {
	steps := Steps()
	assert.Equal(t, []string{StepContact, StepShipping, StepPayment, StepReview}, steps)
	for i, step := range steps {
		assert.Equal(t, i, StepIndex(step))
	}

	// Callers get a copy, not the wizard sequence itself.
	steps[0] = "confirm"
	assert.Equal(t, StepContact, Steps()[0])
}

func TestCheckoutSession_ValidateContactStep(t *testing.T) {
	s := &CheckoutSession{}
	assert.ElementsMatch(t, []string{"email", "phone"}, s.ValidateContactStep())

	s.Contact = ContactInfo{Email: "shopper@example.com"}
	assert.Equal(t, []string{"phone"}, s.ValidateContactStep())

	s.Contact.Phone = "555-0100"
	assert.Empty(t, s.ValidateContactStep())
}

func TestCheckoutSession_ValidateShippingStep(t *testing.T) {
	t.Run("vacuous for pickup", func(t *testing.T) {
		s := &CheckoutSession{FulfillmentMethod: MethodPickup}
		assert.Empty(t, s.ValidateShippingStep())
	})

	t.Run("saved address selection suffices", func(t *testing.T) {
		s := &CheckoutSession{
			FulfillmentMethod:         MethodDelivery,
			SelectedShippingAddressID: "addr-1",
		}
		assert.Empty(t, s.ValidateShippingStep())
	})

	t.Run("manual entry enumerates missing fields", func(t *testing.T) {
		s := &CheckoutSession{
			FulfillmentMethod: MethodDelivery,
			Shipping: ShippingInfo{
				FirstName: "Jamie",
				City:      "Portland",
			},
		}
		assert.ElementsMatch(t,
			[]string{"last_name", "address", "state", "zip_code", "country"},
			s.ValidateShippingStep(),
		)
	})

	t.Run("full manual entry passes", func(t *testing.T) {
		s := completeSession()
		s.Step = StepShipping
		assert.Empty(t, s.ValidateShippingStep())
	})
}

func TestCheckoutSession_ValidateStep_Review(t *testing.T) {
	s := completeSession()
	assert.Empty(t, s.ValidateStep(StepReview))

	s.Contact.Email = ""
	s.Payment.CVV = ""
	problems := s.ValidateStep(StepReview)
	assert.Contains(t, problems, "email")
	assert.Contains(t, problems, "cvv")
}

func TestCheckoutSession_CanPlaceOrder(t *testing.T) {
	s := completeSession()
	assert.True(t, s.CanPlaceOrder())

	t.Run("not on review step", func(t *testing.T) {
		s := completeSession()
		s.Step = StepPayment
		assert.False(t, s.CanPlaceOrder())
	})

	t.Run("incomplete payment", func(t *testing.T) {
		s := completeSession()
		s.Payment.CardNumber = "123"
		assert.False(t, s.CanPlaceOrder())
	})
}

func TestCheckoutSession_Expiry(t *testing.T) {
	s := completeSession()
	assert.False(t, s.IsExpired())

	s.ExpiresAt = time.Now().UTC().Add(-time.Minute)
	assert.True(t, s.IsExpired())
}

func TestCheckoutSession_IsTerminal(t *testing.T) {
	for _, status := range []string{StatusCompleted, StatusFailed, StatusExpired} {
		s := &CheckoutSession{Status: status}
		assert.True(t, s.IsTerminal(), status)
	}
	assert.False(t, (&CheckoutSession{Status: StatusActive}).IsTerminal())
}

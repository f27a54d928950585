package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type contactForm struct {
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"required"`
	Step  string `json:"step" validate:"omitempty,oneof=contact shipping payment review"`
}

func TestValidate_Valid(t *testing.T) {
	err := Validate(contactForm{Email: "shopper@example.com", Phone: "555-0100"})
	assert.NoError(t, err)
}

func TestValidate_CollectsFieldErrors(t *testing.T) {
	err := Validate(contactForm{Email: "not-an-email", Step: "confirm"})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)

	fields := valErr.Fields()
	assert.Contains(t, fields, "Email")
	assert.Contains(t, fields, "Phone")
	assert.Contains(t, fields, "Step")
	assert.Equal(t, "must be a valid email address", fields["Email"])
	assert.Equal(t, "is required", fields["Phone"])
	assert.Contains(t, fields["Step"], "must be one of")
}

func TestValidationError_ErrorMessage(t *testing.T) {
	err := Validate(contactForm{Phone: "555-0100"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Email")
	assert.Contains(t, err.Error(), "is required")
}

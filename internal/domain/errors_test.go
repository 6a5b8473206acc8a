package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaymentErrorMatchesSentinel(t *testing.T) {
	err := NewPaymentError("charge_declined", "Kart bilgileri geçersiz", "payment_1", nil)

	assert.ErrorIs(t, err, ErrPaymentFailed)
	assert.Contains(t, err.Error(), "charge_declined")
	assert.Contains(t, err.Error(), "payment_1")

	wrapped := NewPaymentError("gateway_error", "timeout", "", errors.New("connection reset"))
	assert.Contains(t, wrapped.Error(), "connection reset")
	assert.EqualError(t, errors.Unwrap(wrapped), "connection reset")
}

func TestNotFoundErrorMatchesSentinel(t *testing.T) {
	err := NewNotFoundError("user", "user42")

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "user with ID user42 not found", err.Error())
}

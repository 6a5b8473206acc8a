package domain

import (
	"errors"
	"fmt"
)

// Application errors
var (
	// ErrNotFound referenced user or record is absent
	ErrNotFound = errors.New("record not found")

	// ErrInvalidInput unverifiable payment or malformed argument
	ErrInvalidInput = errors.New("invalid input data")

	// ErrPaymentFailed the gateway declined the charge
	ErrPaymentFailed = errors.New("payment failed")

	// ErrVersionConflict a concurrent update won the compare-and-swap
	ErrVersionConflict = errors.New("version conflict")
)

// PaymentError carries gateway failure details for a declined charge
type PaymentError struct {
	Code        string
	Message     string
	PaymentID   string
	OriginalErr error
}

// Error implements the error interface
func (e *PaymentError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("payment error [%s]: %s: %v (payment_id: %s)", e.Code, e.Message, e.OriginalErr, e.PaymentID)
	}
	return fmt.Sprintf("payment error [%s]: %s (payment_id: %s)", e.Code, e.Message, e.PaymentID)
}

// Unwrap returns the original error
func (e *PaymentError) Unwrap() error {
	return e.OriginalErr
}

// Is lets callers match against the ErrPaymentFailed sentinel
func (e *PaymentError) Is(target error) bool {
	return target == ErrPaymentFailed
}

// NewPaymentError creates a new payment error
func NewPaymentError(code, message, paymentID string, err error) *PaymentError {
	return &PaymentError{
		Code:        code,
		Message:     message,
		PaymentID:   paymentID,
		OriginalErr: err,
	}
}

// NotFoundError identifies a missing entity by kind and id
type NotFoundError struct {
	Entity string
	ID     string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Entity, e.ID)
}

// Is lets callers match against the ErrNotFound sentinel
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new "not found" error
func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

package domain

import "time"

// PaymentStatus outcome of a charge attempt
type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// PaymentType distinguishes how a charge was initiated
type PaymentType string

const (
	PaymentTypeInitial     PaymentType = "initial"
	PaymentTypeAutoRenewal PaymentType = "auto_renewal"
	PaymentTypeManual      PaymentType = "manual_renewal"
	PaymentTypeRenewal     PaymentType = "renewal"
)

// PaymentRecord is an append-only record of one charge attempt outcome
type PaymentRecord struct {
	UserID    string           `json:"user_id"`
	PaymentID string           `json:"payment_id"`
	Plan      SubscriptionPlan `json:"plan"`
	Amount    float64          `json:"amount"`
	Status    PaymentStatus    `json:"status"`
	Type      PaymentType      `json:"type"`
	CreatedAt time.Time        `json:"created_at"`
}

// ChargeRequest is what the payment gateway needs to charge a stored method
type ChargeRequest struct {
	UserID        string           `json:"user_id"`
	Amount        float64          `json:"amount"`
	PaymentMethod string           `json:"payment_method"`
	Plan          SubscriptionPlan `json:"plan"`
}

// ChargeResult is the gateway response for a charge attempt
type ChargeResult struct {
	Success       bool   `json:"success"`
	PaymentID     string `json:"payment_id,omitempty"`
	TransactionID string `json:"transaction_id,omitempty"`
	ErrorMessage  string `json:"error_message,omitempty"`
}

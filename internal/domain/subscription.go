package domain

import (
	"math"
	"time"
)

// SubscriptionStatus lifecycle state of a subscription
type SubscriptionStatus string

const (
	SubscriptionStatusInactive  SubscriptionStatus = "inactive"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
)

// SubscriptionPlan subscription tier
type SubscriptionPlan string

const (
	PlanMonthly    SubscriptionPlan = "monthly"
	PlanSemiAnnual SubscriptionPlan = "semi_annual"
	PlanAnnual     SubscriptionPlan = "annual"
)

// planSpec fixed duration and price per plan
type planSpec struct {
	DurationDays int
	Amount       float64
}

var planSpecs = map[SubscriptionPlan]planSpec{
	PlanMonthly:    {DurationDays: 30, Amount: 829},
	PlanSemiAnnual: {DurationDays: 180, Amount: 4199},
	PlanAnnual:     {DurationDays: 365, Amount: 7999},
}

// PlanDurationDays returns the plan duration in days. Unknown plans fall
// back to the monthly duration rather than erroring.
func PlanDurationDays(plan SubscriptionPlan) int {
	if spec, ok := planSpecs[plan]; ok {
		return spec.DurationDays
	}
	return planSpecs[PlanMonthly].DurationDays
}

// PlanAmount returns the plan price in TRY. Unknown plans fall back to the
// monthly price.
func PlanAmount(plan SubscriptionPlan) float64 {
	if spec, ok := planSpecs[plan]; ok {
		return spec.Amount
	}
	return planSpecs[PlanMonthly].Amount
}

// Subscription is embedded in a User record and owned exclusively by that user
type Subscription struct {
	Plan            SubscriptionPlan   `json:"plan,omitempty"`
	Status          SubscriptionStatus `json:"status"`
	IsActive        bool               `json:"is_active"`
	StartDate       *time.Time         `json:"start_date,omitempty"`
	EndDate         *time.Time         `json:"end_date,omitempty"`
	PaymentID       string             `json:"payment_id,omitempty"`
	LastPaymentDate *time.Time         `json:"last_payment_date,omitempty"`
	CancelledAt     *time.Time         `json:"cancelled_at,omitempty"`
	ExpiredAt       *time.Time         `json:"expired_at,omitempty"`
	RenewedAt       *time.Time         `json:"renewed_at,omitempty"`
}

// DaysUntilExpiry returns ceil((endDate - now) / 1 day). A subscription with
// no end date is reported as already expired.
func (s Subscription) DaysUntilExpiry(now time.Time) int {
	if s.EndDate == nil {
		return 0
	}
	return int(math.Ceil(s.EndDate.Sub(now).Hours() / 24))
}

// Expired reports whether the subscription end date has passed
func (s Subscription) Expired(now time.Time) bool {
	return s.EndDate != nil && !s.EndDate.After(now)
}

// Validate checks the structural invariant: an active flag implies an active
// status and a present end date.
func (s Subscription) Validate() error {
	if s.IsActive {
		if s.Status != SubscriptionStatusActive {
			return ErrInvalidInput
		}
		if s.EndDate == nil {
			return ErrInvalidInput
		}
	}
	return nil
}

// NewActiveSubscription builds a fresh active subscription cycle starting now
func NewActiveSubscription(plan SubscriptionPlan, paymentID string, now time.Time) Subscription {
	end := now.AddDate(0, 0, PlanDurationDays(plan))
	return Subscription{
		Plan:            plan,
		Status:          SubscriptionStatusActive,
		IsActive:        true,
		StartDate:       &now,
		EndDate:         &end,
		PaymentID:       paymentID,
		LastPaymentDate: &now,
	}
}

package domain

import "time"

// Notification types used by the lifecycle and webhook paths. The type keys
// double as notification preference keys on the user document.
const (
	NotificationTypeRenewalReminder       = "renewal_reminder"
	NotificationTypeFinalRenewalReminder  = "final_renewal_reminder"
	NotificationTypeSubscriptionExpired   = "subscription_expired"
	NotificationTypeAutoRenewalSuccess    = "auto_renewal_success"
	NotificationTypeAutoRenewalFailed     = "auto_renewal_failed"
	NotificationTypePaymentSuccess        = "payment_success"
	NotificationTypePaymentFailed         = "payment_failed"
	NotificationTypeSubscriptionCancelled = "subscription_cancelled"
	NotificationTypeSubscriptionRenewed   = "subscription_renewed"
	NotificationTypeTest                  = "test"
)

// NotificationStatus dispatch outcome
type NotificationStatus string

const (
	NotificationStatusSent   NotificationStatus = "sent"
	NotificationStatusFailed NotificationStatus = "failed"
)

// Notification is a push message to one user
type Notification struct {
	Type  string            `json:"type"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// NotificationRecord is an append-only record of one dispatch attempt,
// scoped under a user
type NotificationRecord struct {
	Notification
	SentAt time.Time          `json:"sent_at"`
	Status NotificationStatus `json:"status"`
	Error  string             `json:"error,omitempty"`
}
